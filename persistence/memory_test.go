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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryPersisterCommitsAndTracksWatermark(t *testing.T) {
	p := NewInMemoryPersister()
	ctx := context.Background()

	require.NoError(t, p.CommitCheckpoint(ctx, Checkpoint{Activity: "insert-main", Watermark: 100, CommitID: "c1"}))
	assert.EqualValues(t, 100, p.Watermark("insert-main"))

	require.NoError(t, p.CommitCheckpoint(ctx, Checkpoint{Activity: "insert-main", Watermark: 200, CommitID: "c2"}))
	assert.EqualValues(t, 200, p.Watermark("insert-main"))
}

func TestInMemoryPersisterRejectsMissingCommitID(t *testing.T) {
	p := NewInMemoryPersister()
	err := p.CommitCheckpoint(context.Background(), Checkpoint{Activity: "insert-main", Watermark: 10})
	require.Error(t, err)
}

func TestInMemoryPersisterDuplicateCommitIDIsNoOp(t *testing.T) {
	p := NewInMemoryPersister()
	ctx := context.Background()

	require.NoError(t, p.CommitCheckpoint(ctx, Checkpoint{Activity: "insert-main", Watermark: 100, CommitID: "dup"}))
	require.NoError(t, p.CommitCheckpoint(ctx, Checkpoint{Activity: "insert-main", Watermark: 999, CommitID: "dup"}))

	assert.EqualValues(t, 100, p.Watermark("insert-main"), "replaying the same commit_id must not re-apply the watermark")
}

func TestInMemoryPersisterConcurrentCommitsAreSerialized(t *testing.T) {
	p := NewInMemoryPersister()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = p.CommitCheckpoint(ctx, Checkpoint{
				Activity:  "insert-main",
				Watermark: int64(i),
				CommitID:  "concurrent-" + string(rune('a'+i%26)) + string(rune('0'+i/26)),
			})
		}(i)
	}
	wg.Wait()

	assert.GreaterOrEqual(t, p.Watermark("insert-main"), int64(0))
}
