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

// byteTrackerExtent is a fixed-size region [base, base+size) of per-cycle
// result codes. A cycle c belongs to the extent iff base <= c < base+size.
// It is not safe for concurrent use on its own; CoreTracker serializes every
// access to a given extent behind its own mutex.
type byteTrackerExtent struct {
	blockNum int64 // which logical block this slot currently represents
	base     int64
	size     int64
	markers  []byte
	written  []bool
	count    int
}

// reset reinitializes the extent to represent a new block, reusing the
// backing arrays when they're already large enough.
func (e *byteTrackerExtent) reset(blockNum, base, size int64) {
	e.blockNum = blockNum
	e.base = base
	e.size = size
	if int64(cap(e.markers)) < size {
		e.markers = make([]byte, size)
		e.written = make([]bool, size)
	} else {
		e.markers = e.markers[:size]
		e.written = e.written[:size]
		for i := range e.markers {
			e.markers[i] = 0
			e.written[i] = false
		}
	}
	e.count = 0
}

// markResult writes r into the slot for cycle c. The caller must already
// hold whatever lock serializes access to this extent, and must have
// verified base <= c < base+size.
func (e *byteTrackerExtent) markResult(c int64, r byte) {
	idx := c - e.base
	if !e.written[idx] {
		e.written[idx] = true
		e.count++
	}
	e.markers[idx] = r
}

// full reports whether every slot in the extent has been written.
func (e *byteTrackerExtent) full() bool { return int64(e.count) >= e.size }

// fillRemainder marks every unwritten slot as 0, used by CoreTracker.Flush
// to force-complete a partially-written extent at shutdown.
func (e *byteTrackerExtent) fillRemainder() {
	for i, w := range e.written {
		if !w {
			e.written[i] = true
			e.count++
		}
	}
}
