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
	"sync"
	"sync/atomic"
	"time"
)

// RateLimiter is the public contract the Motor drives cycle, stride, and
// phase pacing through.
type RateLimiter interface {
	Start()
	Acquire() int64
	AcquireNanos(nanos int64) int64
	Update(spec RateSpec) error
	Rate() float64
	Strictness() float64
	TotalSchedulingDelay() int64
	RateSchedulingDelay() int64
}

// Clock abstracts wall-clock reads and sleeping so StrictRateLimiter (and
// tests of AverageRateLimiter) can inject a deterministic time source.
type Clock interface {
	Now() int64 // nanoseconds, monotonic-equivalent
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() int64        { return time.Now().UnixNano() }
func (realClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	time.Sleep(d)
}

// AverageRateLimiter is the primary rate-limiting algorithm: a shared,
// monotonic ticks accumulator linearizes grants across every concurrent
// caller via a single atomic fetch-add, and strictness controls how much of
// a caller's late arrival is forgiven as burst credit versus folded back
// into the schedule.
type AverageRateLimiter struct {
	mu    sync.Mutex
	spec  RateSpec
	clock Clock

	opTicks    int64
	burstShift uint

	ticks    atomic.Int64 // T: the ticks accumulator
	lastSeen atomic.Int64 // L: last wall-clock nanosecond observed
	delay    atomic.Int64 // cumulative coordinated-omission delay

	started atomic.Bool
}

// NewAverageRateLimiter constructs a limiter for spec. Returns an error if
// spec fails validation (Configuration error per the error taxonomy).
func NewAverageRateLimiter(spec RateSpec) (*AverageRateLimiter, error) {
	return newAverageRateLimiter(spec, realClock{})
}

func newAverageRateLimiter(spec RateSpec, clock Clock) (*AverageRateLimiter, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	r := &AverageRateLimiter{spec: spec, clock: clock}
	r.opTicks = spec.opTicks()
	r.burstShift = spec.burstShift()
	return r, nil
}

// Start sets the clock origin. Idempotent.
func (r *AverageRateLimiter) Start() {
	if r.started.CompareAndSwap(false, true) {
		now := r.clock.Now()
		r.ticks.Store(now)
		r.lastSeen.Store(now)
	}
}

// Acquire grants a single op_ticks-sized nanosecond budget.
func (r *AverageRateLimiter) Acquire() int64 {
	r.mu.Lock()
	opTicks := r.opTicks
	r.mu.Unlock()
	return r.AcquireNanos(opTicks)
}

// AcquireNanos grants a caller-specified nanosecond budget, used for
// stride-sized and phase-sized allowances.
func (r *AverageRateLimiter) AcquireNanos(nanos int64) int64 {
	sched := r.ticks.Add(nanos) - nanos // pre-add value

	lastSeen := r.lastSeen.Load()
	if sched < lastSeen {
		// The timeline is already behind wall-clock: someone else observed
		// a later "now" than our scheduled slot. We are oversubscribed.
		return r.reportDelay(lastSeen - sched)
	}

	now := r.clock.Now()
	r.lastSeen.Store(now)
	gap := now - sched

	if gap > 0 {
		// Caller is late relative to its schedule: fold the unspent budget
		// back in proportionally to strictness via the burst shift.
		r.mu.Lock()
		shift := r.burstShift
		r.mu.Unlock()
		r.ticks.Add(gap >> shift)
		return r.reportDelay(gap)
	}

	// Caller is early: sleep out the remainder, split into ms + sub-ms so
	// the common case uses the cheaper millisecond timer.
	wait := -gap
	ms := wait / int64(time.Millisecond)
	sub := wait % int64(time.Millisecond)
	if ms > 0 {
		r.clock.Sleep(time.Duration(ms) * time.Millisecond)
	}
	if sub > 0 {
		r.clock.Sleep(time.Duration(sub))
	}
	return 0
}

// reportDelay folds inc into the cumulative delay counter and returns the
// pre-increment total plus inc when the spec asks for CO reporting, else 0.
func (r *AverageRateLimiter) reportDelay(inc int64) int64 {
	r.mu.Lock()
	report := r.spec.ReportCODelay
	r.mu.Unlock()
	if !report {
		r.delay.Add(inc)
		return 0
	}
	prior := r.delay.Add(inc)
	return prior
}

// Update applies online reconfiguration. Accumulated delay survives the
// change; only the op_ticks/burst_shift derived from the new spec change.
func (r *AverageRateLimiter) Update(spec RateSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spec = spec
	r.opTicks = spec.opTicks()
	r.burstShift = spec.burstShift()
	return nil
}

func (r *AverageRateLimiter) Rate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.spec.OpsPerSec
}

func (r *AverageRateLimiter) Strictness() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.spec.Strictness
}

// TotalSchedulingDelay returns the cumulative coordinated-omission delay
// observed across the limiter's lifetime.
func (r *AverageRateLimiter) TotalSchedulingDelay() int64 { return r.delay.Load() }

// RateSchedulingDelay returns the same cumulative figure; the source
// distinguishes a "rate" delay and a "total" delay accessor over the same
// counter, which this rewrite preserves as two names over one value since
// the core never tracks more than a single cumulative series.
func (r *AverageRateLimiter) RateSchedulingDelay() int64 { return r.delay.Load() }

var _ RateLimiter = (*AverageRateLimiter)(nil)
