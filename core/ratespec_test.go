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
	"github.com/stretchr/testify/require"
)

func TestRateSpecValidate(t *testing.T) {
	require.NoError(t, RateSpec{OpsPerSec: 100, Strictness: 0.5}.Validate())

	cases := []RateSpec{
		{OpsPerSec: 0, Strictness: 0.5},
		{OpsPerSec: -1, Strictness: 0.5},
		{OpsPerSec: maxOpsPerSec + 1, Strictness: 0.5},
		{OpsPerSec: 100, Strictness: -0.1},
		{OpsPerSec: 100, Strictness: 1.1},
	}
	for _, c := range cases {
		assert.Error(t, c.Validate())
	}
}

func TestRateSpecEqual(t *testing.T) {
	a := RateSpec{OpsPerSec: 100, Strictness: 0.5, ReportCODelay: true}
	b := a
	assert.True(t, a.Equal(b))
	b.Strictness = 0.6
	assert.False(t, a.Equal(b))
}

func TestRateSpecOpTicks(t *testing.T) {
	spec := RateSpec{OpsPerSec: 1000, Strictness: 1}
	assert.Equal(t, int64(1_000_000), spec.opTicks())
}

func TestRateSpecBurstShift(t *testing.T) {
	assert.Equal(t, uint(0), RateSpec{OpsPerSec: 1, Strictness: 1}.burstShift())
	assert.Equal(t, uint(63), RateSpec{OpsPerSec: 1, Strictness: 0}.burstShift())

	mid := RateSpec{OpsPerSec: 1, Strictness: 0.5}.burstShift()
	assert.Greater(t, mid, uint(0))
	assert.Less(t, mid, uint(63))
}
