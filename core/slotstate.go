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

import "sync/atomic"

// SlotState is the per-worker finite state machine a Motor exclusively
// owns. External observers may read it; only Running->Stopping and
// Running->Finished may be triggered from outside the owning Motor.
type SlotState int32

const (
	Initialized SlotState = iota
	Starting
	Running
	Stopping
	Stopped
	Finished
	Errored
)

func (s SlotState) String() string {
	switch s {
	case Initialized:
		return "Initialized"
	case Starting:
		return "Starting"
	case Running:
		return "Running"
	case Stopping:
		return "Stopping"
	case Stopped:
		return "Stopped"
	case Finished:
		return "Finished"
	case Errored:
		return "Errored"
	default:
		return "Unknown"
	}
}

// SlotStateTracker is an atomic, CAS-enforced FSM cell:
//
//	Initialized -> Starting -> Running -> Stopping -> Stopped
//	                              \-> Finished (input exhaustion)
//	                              \-> Errored  (on fatal)
type SlotStateTracker struct {
	v atomic.Int32
}

// NewSlotStateTracker returns a tracker starting in Initialized.
func NewSlotStateTracker() *SlotStateTracker {
	t := &SlotStateTracker{}
	t.v.Store(int32(Initialized))
	return t
}

// Get returns the current state.
func (t *SlotStateTracker) Get() SlotState { return SlotState(t.v.Load()) }

// transitions enumerates the edges transition accepts. Error does not
// consult it: it moves any state other than Stopped, Finished and Errored
// to Errored.
var transitions = map[SlotState][]SlotState{
	Initialized: {Starting},
	Starting:    {Running, Errored},
	Running:     {Stopping, Finished, Errored},
	Stopping:    {Stopped, Errored},
	Finished:    {Stopped, Errored}, // async motors drain in-flight ops before Stopped
	Stopped:     {},
	Errored:     {},
}

func legal(from, to SlotState) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// transition moves the current state to `to` by CAS, re-reading and
// retrying if another goroutine changed the state in between. Returns false
// if `to` is not a legal edge from the current state.
func (t *SlotStateTracker) transition(to SlotState) bool {
	for {
		cur := SlotState(t.v.Load())
		if !legal(cur, to) {
			return false
		}
		if t.v.CompareAndSwap(int32(cur), int32(to)) {
			return true
		}
	}
}

// Start moves Initialized -> Starting -> Running. Only the owning Motor
// calls this.
func (t *SlotStateTracker) Start() bool {
	if !t.transition(Starting) {
		return false
	}
	return t.transition(Running)
}

// RequestStop is the external, cooperative stop signal: Running ->
// Stopping. Idempotent; a call from any other state is a no-op, and the
// returned bool tells the caller so it can log the warning (this bare FSM
// has no logger of its own; Motor.RequestStop is the one that logs).
func (t *SlotStateTracker) RequestStop() bool {
	return t.transition(Stopping)
}

// Finish marks input exhaustion: Running -> Finished.
func (t *SlotStateTracker) Finish() bool { return t.transition(Finished) }

// Stop completes a cooperative shutdown: Stopping -> Stopped.
func (t *SlotStateTracker) Stop() bool { return t.transition(Stopped) }

// Error marks a fatal fault from any non-terminal state.
func (t *SlotStateTracker) Error() bool {
	for {
		cur := SlotState(t.v.Load())
		if cur == Stopped || cur == Finished || cur == Errored {
			return false
		}
		if t.v.CompareAndSwap(int32(cur), int32(Errored)) {
			return true
		}
	}
}

// Terminal reports whether the state machine has reached a state the Motor
// loop will never leave.
func (t *SlotStateTracker) Terminal() bool {
	switch t.Get() {
	case Stopped, Finished, Errored:
		return true
	default:
		return false
	}
}
