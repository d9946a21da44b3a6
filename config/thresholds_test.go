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

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestThresholdsSnapshotIsSortedByName(t *testing.T) {
	th := New()
	th.SetThresholdInt64("threads", 8)
	th.SetThreshold("alias", "insert-main")
	th.SetThresholdBool("async", false)
	th.SetThresholdFloat64("strictness", 0.75)
	th.SetThresholdDuration("timeout", 5*time.Second)

	got := th.Snapshot()
	want := []string{
		"alias=insert-main",
		"async=false",
		"strictness=0.75",
		"threads=8",
		"timeout=5s",
	}
	assert.Equal(t, want, got)
}

func TestThresholdsOverwriteByName(t *testing.T) {
	th := New()
	th.SetThresholdInt64("threads", 4)
	th.SetThresholdInt64("threads", 16)

	assert.Equal(t, []string{"threads=16"}, th.Snapshot())
}

func TestThresholdsEmptySnapshot(t *testing.T) {
	th := New()
	assert.Empty(t, th.Snapshot())
}
