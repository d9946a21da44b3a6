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

// Package config holds a small table of named startup thresholds the CLI
// harness records for its shutdown summary. Unlike the teacher's
// core.SetThreshold* family, which writes into package-level state, this
// table is an explicit instance the caller owns, avoiding hidden global
// mutation.
package config

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Thresholds is a thread-safe table of named configuration values captured
// at startup, printed back at shutdown.
type Thresholds struct {
	mu     sync.Mutex
	values map[string]string
}

// New returns an empty threshold table.
func New() *Thresholds {
	return &Thresholds{values: make(map[string]string)}
}

func (t *Thresholds) set(name, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.values[name] = value
}

// SetThreshold records a string-valued threshold.
func (t *Thresholds) SetThreshold(name, value string) { t.set(name, value) }

// SetThresholdInt64 records an int64-valued threshold.
func (t *Thresholds) SetThresholdInt64(name string, value int64) {
	t.set(name, fmt.Sprintf("%d", value))
}

// SetThresholdFloat64 records a float64-valued threshold.
func (t *Thresholds) SetThresholdFloat64(name string, value float64) {
	t.set(name, fmt.Sprintf("%g", value))
}

// SetThresholdDuration records a time.Duration-valued threshold.
func (t *Thresholds) SetThresholdDuration(name string, value time.Duration) {
	t.set(name, value.String())
}

// SetThresholdBool records a bool-valued threshold.
func (t *Thresholds) SetThresholdBool(name string, value bool) {
	t.set(name, fmt.Sprintf("%t", value))
}

// Snapshot returns a sorted copy of every recorded threshold, for the CLI
// harness's shutdown summary.
func (t *Thresholds) Snapshot() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, 0, len(t.values))
	for name := range t.values {
		names = append(names, name)
	}
	sort.Strings(names)
	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("%s=%s", name, t.values[name]))
	}
	return lines
}
