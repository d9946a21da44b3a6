// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCycleSegmentNext(t *testing.T) {
	seg := NewCycleSegment(10, 3)
	assert.Equal(t, int64(10), seg.PeekNext())
	assert.Equal(t, int64(10), seg.Next())
	assert.Equal(t, int64(11), seg.Next())
	assert.Equal(t, int64(12), seg.Next())
	assert.True(t, seg.IsExhausted())
	assert.Equal(t, ExhaustedCycle, seg.Next())
	assert.Equal(t, ExhaustedCycle, seg.PeekNext())
}

func TestCounterInputHandsOutConsecutiveSegments(t *testing.T) {
	in := NewCounterInput(10)
	first := in.GetInputSegment(4)
	require := assert.New(t)
	require.NotNil(first)
	require.Equal(int64(0), first.First())
	require.Equal(int64(4), first.Len())

	second := in.GetInputSegment(4)
	require.Equal(int64(4), second.First())

	third := in.GetInputSegment(4)
	require.Equal(int64(8), third.First())
	require.Equal(int64(2), third.Len(), "truncated to the bound")

	require.Nil(in.GetInputSegment(4), "exhausted once the bound is reached")
}

func TestCounterInputUnbounded(t *testing.T) {
	in := NewCounterInput(0)
	for i := 0; i < 100; i++ {
		assert.NotNil(t, in.GetInputSegment(10))
	}
}

func TestCounterInputRequestStop(t *testing.T) {
	in := NewCounterInput(0)
	in.RequestStop()
	assert.Nil(t, in.GetInputSegment(1))
}
