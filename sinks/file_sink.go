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

// Package sinks provides Output implementations that persist cycle results
// outside the process.
package sinks

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/stef1927/engineblock/core"
)

// flushInterval bounds data loss on crash while keeping the common case a
// buffered append under the mutex, with no disk write.
const flushInterval = 100 * time.Millisecond

// resultLine is the on-disk JSONL record.
type resultLine struct {
	Cycle  int64 `json:"cycle"`
	Result byte  `json:"result"`
}

// FileOutput is a buffered JSONL Output, safe for concurrent use and
// optimized for append-only workloads. Ported from the teacher's
// SBatchFileSink, re-pointed at (cycle, result) pairs.
type FileOutput struct {
	mu   sync.Mutex
	f    *os.File
	w    *bufio.Writer
	path string

	lastFlush time.Time
}

// NewFileOutput opens (or creates) the file at path in append mode with a
// 1MiB buffered writer. Call Close when done.
func NewFileOutput(path string) (*FileOutput, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileOutput{f: f, w: bufio.NewWriterSize(f, 1<<20), path: path, lastFlush: time.Now()}, nil
}

// OnCycleResult implements core.Output for a single completion.
func (s *FileOutput) OnCycleResult(cycle int64, result byte) error {
	return s.OnCycleResultSegment([]core.CycleResult{{Cycle: cycle, Result: result}})
}

// OnCycleResultSegment implements core.SegmentOutput, writing the whole
// batch as JSON lines under one lock acquisition. A write fault (disk full,
// closed file) is surfaced to the caller rather than swallowed.
func (s *FileOutput) OnCycleResultSegment(results []core.CycleResult) error {
	if len(results) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	enc := json.NewEncoder(s.w)
	for _, r := range results {
		line := resultLine{Cycle: r.Cycle, Result: r.Result}
		if err := enc.Encode(&line); err != nil {
			// flush and retry once before surfacing the fault
			if ferr := s.w.Flush(); ferr != nil {
				return fmt.Errorf("sinks: flush before retry at cycle %d: %w", r.Cycle, ferr)
			}
			if err := enc.Encode(&line); err != nil {
				return fmt.Errorf("sinks: write cycle %d: %w", r.Cycle, err)
			}
		}
	}
	if time.Since(s.lastFlush) > flushInterval {
		if err := s.w.Flush(); err != nil {
			return fmt.Errorf("sinks: flush: %w", err)
		}
		s.lastFlush = time.Now()
	}
	return nil
}

// Flush forces buffered data to disk.
func (s *FileOutput) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFlush = time.Now()
	return s.w.Flush()
}

// Close flushes and closes the underlying file.
func (s *FileOutput) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.w.Flush()
	return s.f.Close()
}

// ReadAllResults reads the entire result log as a slice. Intended for
// demo/replay, not the hot path.
func ReadAllResults(path string) ([]core.CycleResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []core.CycleResult
	scanner := bufio.NewScanner(f)
	buf := make([]byte, 0, 1<<20)
	scanner.Buffer(buf, 1<<26)
	for scanner.Scan() {
		var line resultLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err == nil {
			out = append(out, core.CycleResult{Cycle: line.Cycle, Result: line.Result})
		}
	}
	return out, scanner.Err()
}

var (
	_ core.Output        = (*FileOutput)(nil)
	_ core.SegmentOutput = (*FileOutput)(nil)
)
