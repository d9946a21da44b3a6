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

// StrictRateLimiter is the strictness=1.0 specialization of
// AverageRateLimiter: burst_shift is always 0, so any gap is folded back
// into the schedule unconditionally (no burst credit survives). It exists
// as a distinct constructor, not a distinct algorithm, so that dependency
// injection of a mock Clock is possible in isochrony tests without touching
// the general-purpose limiter's constructor surface.
type StrictRateLimiter struct {
	*AverageRateLimiter
}

// NewStrictRateLimiter builds a limiter that ignores spec.Strictness and
// always runs fully isochronous. spec.Strictness outside [0,1] is still
// rejected at validation; anything else is coerced to 1.0.
//
// The source this package is modeled on contained a dead assignment here
// (`this.burstSlice = this.`) followed by an unconditional throw whenever
// strictness exceeded 1.0. This rewrite keeps the reject-above-1 behavior
// (via RateSpec.Validate) and drops the broken assignment entirely.
func NewStrictRateLimiter(spec RateSpec) (*StrictRateLimiter, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	spec.Strictness = 1.0
	avg, err := NewAverageRateLimiter(spec)
	if err != nil {
		return nil, err
	}
	return &StrictRateLimiter{AverageRateLimiter: avg}, nil
}

func newStrictRateLimiterWithClock(spec RateSpec, clock Clock) (*StrictRateLimiter, error) {
	spec.Strictness = 1.0
	avg, err := newAverageRateLimiter(spec, clock)
	if err != nil {
		return nil, err
	}
	return &StrictRateLimiter{AverageRateLimiter: avg}, nil
}

// Update forces strictness back to 1.0 regardless of what the caller passes,
// since a StrictRateLimiter never permits burst beyond burst_ticks=op_ticks.
func (s *StrictRateLimiter) Update(spec RateSpec) error {
	spec.Strictness = 1.0
	return s.AverageRateLimiter.Update(spec)
}

var _ RateLimiter = (*StrictRateLimiter)(nil)
