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

package persistence

import (
	"context"
	"fmt"
	"sync"
)

// InMemoryPersister is the CLI demo's default backend: it keeps the latest
// watermark per activity and the set of commit_ids already applied.
// PrintSummary reports them; Close does nothing. Modeled on the teacher's
// mockPersister.
type InMemoryPersister struct {
	mu         sync.Mutex
	watermarks map[string]int64
	applied    map[string]struct{}
	commits    int64
}

// NewInMemoryPersister returns a ready-to-use in-process persister.
func NewInMemoryPersister() *InMemoryPersister {
	return &InMemoryPersister{
		watermarks: make(map[string]int64),
		applied:    make(map[string]struct{}),
	}
}

// CommitCheckpoint applies cp unless its CommitID was already seen.
func (p *InMemoryPersister) CommitCheckpoint(_ context.Context, cp Checkpoint) error {
	if cp.CommitID == "" {
		return fmt.Errorf("persistence: checkpoint for %q missing commit id", cp.Activity)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.applied[cp.CommitID]; ok {
		return nil
	}
	p.applied[cp.CommitID] = struct{}{}
	p.watermarks[cp.Activity] = cp.Watermark
	p.commits++
	return nil
}

// Watermark returns the latest committed watermark for an activity.
func (p *InMemoryPersister) Watermark(activity string) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.watermarks[activity]
}

func (p *InMemoryPersister) Close() error { return nil }

// PrintSummary prints an end-of-process summary line followed by one
// watermark line per activity, mirroring the teacher's PrintFinalMetrics.
func (p *InMemoryPersister) PrintSummary() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Printf("checkpoint summary: %d commits across %d activities\n", p.commits, len(p.watermarks))
	for activity, wm := range p.watermarks {
		fmt.Printf("  %s: watermark=%d\n", activity, wm)
	}
}

var _ CheckpointPersister = (*InMemoryPersister)(nil)
