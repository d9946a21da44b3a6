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

import "sync"

// TokenPool is a two-bucket token accumulator: an "active" bucket that
// workers draw from directly, and a "waiting" bucket that absorbs burst
// credit once active is full. It is the fine-grained alternative to the
// AverageRateLimiter/StrictRateLimiter pair, refilled out-of-band by a
// TokenFiller.
type TokenPool struct {
	mu sync.Mutex

	maxActive int64
	maxBurst  int64
	burstRatio float64

	active *stripedCounter
	waiting int64
}

// NewTokenPool constructs a pool with the given active ceiling and burst
// ratio (>= 1.0). maxBurst = maxActive * (burstRatio - 1).
func NewTokenPool(maxActive int64, burstRatio float64) *TokenPool {
	if burstRatio < 1 {
		burstRatio = 1
	}
	return &TokenPool{
		maxActive:  maxActive,
		maxBurst:   int64(float64(maxActive) * (burstRatio - 1)),
		burstRatio: burstRatio,
		active:     newStripedCounter(0),
	}
}

// Refill adds nanos (scaled by proportion) into the active bucket, capped at
// maxActive; overflow spills into the waiting bucket, capped at maxBurst;
// any further overflow is discarded. Returns the current active level.
func (p *TokenPool) Refill(nanos int64, proportion float64) int64 {
	if proportion <= 0 {
		proportion = 1
	}
	amount := int64(float64(nanos) * proportion)
	if amount <= 0 {
		return p.Active()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	cur := p.active.Sum()
	room := p.maxActive - cur
	if room < 0 {
		room = 0
	}
	toActive := amount
	if toActive > room {
		toActive = room
	}
	if toActive > 0 {
		p.active.Add(toActive)
	}
	spill := amount - toActive
	if spill > 0 {
		p.waiting += spill
		if p.waiting > p.maxBurst {
			p.waiting = p.maxBurst
		}
	}
	return cur + toActive
}

// TakeUpTo removes min(n, active) tokens from the active bucket and returns
// the amount actually taken.
func (p *TokenPool) TakeUpTo(n int64) int64 {
	if n <= 0 {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	cur := p.active.Sum()
	take := n
	if take > cur {
		take = cur
	}
	if take > 0 {
		p.active.Add(-take)
	}
	return take
}

// Active returns the current active bucket level.
func (p *TokenPool) Active() int64 { return p.active.Sum() }

// Waiting returns the current waiting bucket level.
func (p *TokenPool) Waiting() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waiting
}

// Apply rescales maxActive/maxBurst to match a new rate spec, preserving the
// ratio of fullness (active/maxActive) across the resize.
func (p *TokenPool) Apply(spec RateSpec) {
	p.mu.Lock()
	defer p.mu.Unlock()
	newMax := int64(spec.OpsPerSec)
	if newMax <= 0 {
		return
	}
	oldMax := p.maxActive
	if oldMax <= 0 {
		oldMax = 1
	}
	cur := p.active.Sum()
	fullness := float64(cur) / float64(oldMax)
	p.maxActive = newMax
	p.maxBurst = int64(float64(newMax) * (p.burstRatio - 1))
	target := int64(fullness * float64(newMax))
	if target > newMax {
		target = newMax
	}
	delta := target - cur
	if delta != 0 {
		p.active.Add(delta)
	}
	if p.waiting > p.maxBurst {
		p.waiting = p.maxBurst
	}
}
