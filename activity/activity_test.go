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

package activity

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stef1927/engineblock/core"
)

type recordingOutput struct {
	mu    sync.Mutex
	count int
}

func (o *recordingOutput) OnCycleResult(int64, byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.count++
	return nil
}

func (o *recordingOutput) OnCycleResultSegment(results []core.CycleResult) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.count += len(results)
	return nil
}

func (o *recordingOutput) total() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.count
}

func syncAction() core.Action {
	return core.Action{Sync: &core.SyncAction{
		RunCycle: func(cycle int64) (int32, error) { return int32(cycle % 100), nil },
	}}
}

func TestParseActivityDefDefaultsAndOverrides(t *testing.T) {
	def, err := ParseActivityDef(map[string]string{
		"alias":     "insert-main",
		"cyclerate": "500,0.9",
	})
	require.NoError(t, err)
	assert.Equal(t, "insert-main", def.Alias)
	assert.Equal(t, 1, def.Threads)
	assert.EqualValues(t, 1, def.Stride)
	assert.False(t, def.Async)

	def, err = ParseActivityDef(map[string]string{
		"alias":     "insert-main",
		"threads":   "8",
		"stride":    "50",
		"async":     "true",
		"cyclerate": "500",
	})
	require.NoError(t, err)
	assert.Equal(t, 8, def.Threads)
	assert.EqualValues(t, 50, def.Stride)
	assert.True(t, def.Async)
}

func TestParseActivityDefRequiresAlias(t *testing.T) {
	_, err := ParseActivityDef(map[string]string{"cyclerate": "500"})
	require.Error(t, err)
}

func TestParseActivityDefRejectsBadThreads(t *testing.T) {
	_, err := ParseActivityDef(map[string]string{"alias": "a", "threads": "0", "cyclerate": "1"})
	require.Error(t, err)
}

func TestParseRateSpecDefaultsStrictnessToOne(t *testing.T) {
	spec, err := ParseRateSpec("1000")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, spec.OpsPerSec)
	assert.Equal(t, 1.0, spec.Strictness)
	assert.False(t, spec.ReportCODelay)
}

func TestParseRateSpecParsesStrictnessAndReport(t *testing.T) {
	spec, err := ParseRateSpec("250,0.5,report")
	require.NoError(t, err)
	assert.Equal(t, 250.0, spec.OpsPerSec)
	assert.Equal(t, 0.5, spec.Strictness)
	assert.True(t, spec.ReportCODelay)
}

func TestParseRateSpecRejectsGarbage(t *testing.T) {
	_, err := ParseRateSpec("not-a-number")
	require.Error(t, err)
}

func TestNewActivityValidatesAsyncAgreement(t *testing.T) {
	def, err := ParseActivityDef(map[string]string{"alias": "a", "async": "true", "cyclerate": "1000"})
	require.NoError(t, err)

	input := core.NewCounterInput(100)
	out := &recordingOutput{}
	_, err = NewActivity(def, input, syncAction(), out, Config{})
	require.Error(t, err, "async=true must be rejected against a sync action")
}

func TestActivityRunsMotorsToCompletion(t *testing.T) {
	def, err := ParseActivityDef(map[string]string{
		"alias":     "insert-main",
		"threads":   "3",
		"stride":    "4",
		"cyclerate": "100000,1.0",
	})
	require.NoError(t, err)

	const bound = 97
	input := core.NewCounterInput(bound)
	out := &recordingOutput{}

	act, err := NewActivity(def, input, syncAction(), out, Config{})
	require.NoError(t, err)

	act.Start()
	waitUntilAllStopped(t, act, time.Second)

	assert.Equal(t, bound, out.total())
}

// waitUntilAllStopped polls Snapshot rather than calling RequestStop, so
// motors are left to finish naturally on input exhaustion instead of being
// cut off mid-segment.
func waitUntilAllStopped(t *testing.T, act *Activity, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		allStopped := true
		for _, state := range act.Snapshot() {
			if state != core.Stopped {
				allStopped = false
				break
			}
		}
		if allStopped {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("motors did not reach Stopped before the deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestActivityUpdateRewritesStrideWithoutRestart(t *testing.T) {
	def, err := ParseActivityDef(map[string]string{
		"alias":     "insert-main",
		"threads":   "1",
		"stride":    "2",
		"cyclerate": "100000,1.0",
	})
	require.NoError(t, err)

	input := core.NewCounterInput(0) // unbounded
	out := &recordingOutput{}

	act, err := NewActivity(def, input, syncAction(), out, Config{})
	require.NoError(t, err)
	act.Start()

	updated := def
	updated.Stride = 9
	require.NoError(t, act.Update(updated))

	time.Sleep(10 * time.Millisecond)
	for _, m := range act.motors {
		assert.EqualValues(t, 9, m.Stride())
	}

	act.RequestStop()
}

func TestActivityUpdateScalesThreadCount(t *testing.T) {
	def, err := ParseActivityDef(map[string]string{
		"alias":     "insert-main",
		"threads":   "1",
		"cyclerate": "100000,1.0",
	})
	require.NoError(t, err)

	input := core.NewCounterInput(0)
	out := &recordingOutput{}

	act, err := NewActivity(def, input, syncAction(), out, Config{})
	require.NoError(t, err)
	act.Start()

	grown := def
	grown.Threads = 4
	require.NoError(t, act.Update(grown))
	assert.Len(t, act.Snapshot(), 4)

	act.RequestStop()
}
