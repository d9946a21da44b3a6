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

// Package persistence provides idempotent persistence adapters for an
// activity's tracker progress. Every adapter implements a common Commit
// shape keyed by a caller-supplied commit_id, so retrying a checkpoint
// commit (crash, timeout, duplicate delivery) is always a no-op.
package persistence

import "context"

// Checkpoint is the unit CheckpointPersister commits: a single activity's
// tracker watermark, plus an idempotency key.
type Checkpoint struct {
	Activity string
	Watermark int64
	CommitID  string
}

// CheckpointPersister commits a watermark exactly once per CommitID.
type CheckpointPersister interface {
	CommitCheckpoint(ctx context.Context, cp Checkpoint) error
	// Close releases any resources the persister holds; PrintSummary prints
	// an end-of-process summary of what was committed.
	Close() error
	PrintSummary()
}
