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

// ExhaustedCycle is the negative sentinel a Segment returns once every
// cycle in its range has been consumed.
const ExhaustedCycle int64 = -1

// CycleSegment is an ordered, finite, single-consumer sequence of cycle
// numbers [first, first+len). It is produced by an Input and fully consumed
// by exactly one worker before being discarded.
type CycleSegment struct {
	first int64
	len   int64
	next  int64 // offset into [0, len) of the next cycle to hand out
}

// NewCycleSegment builds a segment covering [first, first+length).
func NewCycleSegment(first, length int64) *CycleSegment {
	return &CycleSegment{first: first, len: length}
}

// PeekNext returns the next cycle that Next would hand out, without
// consuming it, or ExhaustedCycle if the segment is spent.
func (s *CycleSegment) PeekNext() int64 {
	if s.next >= s.len {
		return ExhaustedCycle
	}
	return s.first + s.next
}

// Next returns the next cycle in the segment, or ExhaustedCycle once
// every cycle has been handed out.
func (s *CycleSegment) Next() int64 {
	if s.next >= s.len {
		return ExhaustedCycle
	}
	c := s.first + s.next
	s.next++
	return c
}

// IsExhausted reports whether every cycle in the segment has been consumed.
func (s *CycleSegment) IsExhausted() bool { return s.next >= s.len }

// Len returns the total number of cycles the segment was constructed with.
func (s *CycleSegment) Len() int64 { return s.len }

// First returns the first cycle number in the segment.
func (s *CycleSegment) First() int64 { return s.first }
