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

// CoreTracker is the concurrency kernel of the cycle-dispatch substrate: a
// ring of byteTrackerExtents covering [min, max) that lets any number of
// writers mark_result out of order while a single consumer pulls results
// back out in strict cycle order, with backpressure in both directions.
//
// Unlike the rest of the package's hot paths, the ring is guarded by one
// mutex and two condition variables rather than atomics: mark_result and
// get_segment both hold the ring mutex for their whole critical section,
// since the ring's invariants (contiguous window, frontier advancement)
// span multiple fields that must move together.
type CoreTracker struct {
	mu sync.Mutex

	min, max   int64
	extentSize int64
	slots      []byteTrackerExtent

	w int64 // write frontier: next cycle that must be marked for contiguity
	r int64 // read frontier: next cycle the consumer will see

	finished bool

	roomCond  *sync.Cond // writers wait here when the ring has no free slot
	readyCond *sync.Cond // the consumer waits here for contiguous marks
}

// NewCoreTracker builds a tracker over [min, max) with extentCount extents
// of extentSize cycles each.
func NewCoreTracker(min, max, extentSize int64, extentCount int) *CoreTracker {
	if extentSize <= 0 {
		extentSize = 1
	}
	if extentCount <= 0 {
		extentCount = 1
	}
	t := &CoreTracker{
		min: min, max: max,
		extentSize: extentSize,
		slots:      make([]byteTrackerExtent, extentCount),
		w:          min,
		r:          min,
	}
	for i := range t.slots {
		t.slots[i].blockNum = -1
	}
	t.roomCond = sync.NewCond(&t.mu)
	t.readyCond = sync.NewCond(&t.mu)
	return t
}

func (t *CoreTracker) blockOf(c int64) int64   { return (c - t.min) / t.extentSize }
func (t *CoreTracker) blockBase(b int64) int64 { return t.min + b*t.extentSize }
func (t *CoreTracker) blockSize(b int64) int64 {
	size := t.extentSize
	base := t.blockBase(b)
	if base+size > t.max {
		size = t.max - base
	}
	return size
}
func (t *CoreTracker) slotIndex(b int64) int {
	k := int64(len(t.slots))
	m := b % k
	if m < 0 {
		m += k
	}
	return int(m)
}

// slotFor returns the extent that should hold block b, (re)initializing it
// if the slot currently represents a different (already-drained) block.
// Caller must hold t.mu.
func (t *CoreTracker) slotFor(b int64) *byteTrackerExtent {
	slot := &t.slots[t.slotIndex(b)]
	if slot.blockNum != b {
		slot.reset(b, t.blockBase(b), t.blockSize(b))
	}
	return slot
}

// MarkResult records the result for cycle c, blocking the caller if the
// ring has no room for c's block (backpressure against a slow consumer).
// Returns a TrackerOverflowError if c lies outside [min, max).
func (t *CoreTracker) MarkResult(c int64, result byte) error {
	if c < t.min || c >= t.max {
		return &TrackerOverflowError{Cycle: c, Min: t.min, Max: t.max}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	b := t.blockOf(c)
	for b >= t.blockOf(t.r)+int64(len(t.slots)) {
		t.roomCond.Wait()
	}

	slot := t.slotFor(b)
	slot.markResult(c, result)

	t.advanceWriteFrontierLocked()
	t.readyCond.Broadcast()
	return nil
}

// advanceWriteFrontierLocked advances w past every contiguous, fully-marked
// extent starting at its current block. Caller must hold t.mu.
func (t *CoreTracker) advanceWriteFrontierLocked() {
	for t.w < t.max {
		b := t.blockOf(t.w)
		slot := &t.slots[t.slotIndex(b)]
		if slot.blockNum != b || !slot.full() {
			return
		}
		t.w = slot.base + slot.size
	}
}

// GetSegment blocks until `size` contiguous cycles starting at the read
// frontier have been marked (or the tracker has been flushed and fewer
// remain), then returns them in ascending cycle order and advances the read
// frontier. Returns ok=false once the read frontier has reached max with
// nothing left to deliver.
func (t *CoreTracker) GetSegment(size int64) (results []CycleResult, ok bool) {
	if size <= 0 {
		size = 1
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	for {
		if t.r >= t.max {
			return nil, false
		}
		available := t.w - t.r
		if available >= size {
			break
		}
		if t.finished && available > 0 {
			size = available
			break
		}
		if t.finished && available == 0 {
			return nil, false
		}
		t.readyCond.Wait()
	}

	results = make([]CycleResult, 0, size)
	remaining := size
	cur := t.r
	for remaining > 0 {
		b := t.blockOf(cur)
		slot := &t.slots[t.slotIndex(b)]
		offset := cur - slot.base
		take := slot.size - offset
		if take > remaining {
			take = remaining
		}
		for i := int64(0); i < take; i++ {
			results = append(results, CycleResult{Cycle: cur + i, Result: slot.markers[offset+i]})
		}
		cur += take
		remaining -= take
	}
	t.r = cur
	t.roomCond.Broadcast()
	return results, true
}

// Flush forcibly completes every contiguous extent that has at least one
// mark already recorded, starting at the write frontier, so a consumer can
// drain the residual tail at shutdown. It does not fabricate data for
// cycles nobody ever wrote: a block that was never touched stops the
// cascade.
func (t *CoreTracker) Flush() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for t.w < t.max {
		b := t.blockOf(t.w)
		slot := &t.slots[t.slotIndex(b)]
		if slot.blockNum != b || slot.count == 0 {
			break
		}
		slot.fillRemainder()
		t.w = slot.base + slot.size
	}
	t.finished = true
	t.readyCond.Broadcast()
}

// MaxContiguousMarked returns a best-effort snapshot of the write frontier.
// It is not load-bearing for any correctness guarantee in this package;
// callers should treat it purely as an observability signal.
func (t *CoreTracker) MaxContiguousMarked() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.w
}
