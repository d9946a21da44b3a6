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

func TestSlotStateTrackerStartTransitions(t *testing.T) {
	s := NewSlotStateTracker()
	assert.Equal(t, Initialized, s.Get())
	assert.True(t, s.Start())
	assert.Equal(t, Running, s.Get())
	assert.False(t, s.Start(), "Start is not idempotent")
}

func TestSlotStateTrackerRequestStopIsIdempotentElsewhere(t *testing.T) {
	s := NewSlotStateTracker()
	assert.False(t, s.RequestStop(), "no-op from Initialized")
	s.Start()
	assert.True(t, s.RequestStop())
	assert.Equal(t, Stopping, s.Get())
	assert.False(t, s.RequestStop(), "no-op once already Stopping")
}

func TestSlotStateTrackerFinishThenStop(t *testing.T) {
	s := NewSlotStateTracker()
	s.Start()
	assert.True(t, s.Finish())
	assert.Equal(t, Finished, s.Get())
	assert.True(t, s.Stop(), "async motors drain in-flight ops before Stopped")
	assert.Equal(t, Stopped, s.Get())
	assert.True(t, s.Terminal())
}

func TestSlotStateTrackerErrorFromAnyNonTerminalState(t *testing.T) {
	s := NewSlotStateTracker()
	assert.True(t, s.Error())
	assert.Equal(t, Errored, s.Get())
	assert.False(t, s.Error(), "already terminal")
}

func TestSlotStateString(t *testing.T) {
	assert.Equal(t, "Running", Running.String())
	assert.Equal(t, "Unknown", SlotState(99).String())
}
