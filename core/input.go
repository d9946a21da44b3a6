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

// Input produces cycle segments of a requested stride. A nil segment signals
// permanent exhaustion. Start and RequestStop are optional capabilities some
// inputs implement (e.g. ones backed by an external feed); the Motor checks
// for them via type assertion rather than requiring every Input to carry
// no-op implementations.
type Input interface {
	GetInputSegment(stride int32) *CycleSegment
}

// Startable is an optional Input capability.
type Startable interface {
	Start()
}

// StoppableInput is an optional Input capability.
type StoppableInput interface {
	RequestStop()
}

// CounterInput is a simple Input that hands out consecutive cycles
// [0, bound) across however many segments are requested, fully
// exhausting once bound cycles have been issued. bound <= 0 means
// unbounded (never exhausts on its own; RequestStop must be used).
type CounterInput struct {
	next    atomic.Int64
	bound   int64
	stopped atomic.Bool
}

// NewCounterInput builds an Input over [0, bound). bound <= 0 means
// unbounded.
func NewCounterInput(bound int64) *CounterInput {
	return &CounterInput{bound: bound}
}

// GetInputSegment hands out the next `stride` cycles, or fewer if the bound
// is reached, or nil if already exhausted or stopped.
func (c *CounterInput) GetInputSegment(stride int32) *CycleSegment {
	if c.stopped.Load() {
		return nil
	}
	if stride <= 0 {
		stride = 1
	}
	first := c.next.Add(int64(stride)) - int64(stride)
	if c.bound > 0 && first >= c.bound {
		return nil
	}
	length := int64(stride)
	if c.bound > 0 && first+length > c.bound {
		length = c.bound - first
	}
	if length <= 0 {
		return nil
	}
	return NewCycleSegment(first, length)
}

// RequestStop makes every subsequent GetInputSegment call return nil.
func (c *CounterInput) RequestStop() { c.stopped.Store(true) }

var (
	_ Input          = (*CounterInput)(nil)
	_ StoppableInput = (*CounterInput)(nil)
)
