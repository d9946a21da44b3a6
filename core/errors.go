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

import "fmt"

// ConfigError marks a fail-fast configuration problem: an invalid rate, an
// out-of-range strictness, or an async flag applied to a sync action.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "configuration: " + e.Reason }

// TrackerOverflowError marks mark_result(c) called with c outside [min, max).
type TrackerOverflowError struct {
	Cycle    int64
	Min, Max int64
}

func (e *TrackerOverflowError) Error() string {
	return fmt.Sprintf("tracker overflow: cycle %d outside [%d, %d)", e.Cycle, e.Min, e.Max)
}

// ActionError wraps a fault raised by an Action while processing a cycle.
// The Motor transitions to Errored after logging and rethrowing.
type ActionError struct {
	Cycle int64
	Err   error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("action fault at cycle %d: %v", e.Cycle, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

// OutputError wraps a fault raised by an Output while consuming results.
type OutputError struct {
	Err error
}

func (e *OutputError) Error() string { return fmt.Sprintf("output fault: %v", e.Err) }

func (e *OutputError) Unwrap() error { return e.Err }
