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

import "time"

// MotorMetrics is the glue the Motor reports timing through. It carries the
// bit-exact metric names downstream dashboards expect: cycles, phases,
// strides, read_input as timers, and a per-activity coordinated-omission
// delay gauge (the metrics package exports it as cco_delay, labeled by
// alias). The
// core package only depends on this interface, never on a concrete metrics
// backend (see the top-level metrics package for the Prometheus-backed
// implementation) -- consistent with this being an external collaborator.
type MotorMetrics interface {
	RecordCycles(d time.Duration)
	RecordPhases(d time.Duration)
	RecordStrides(d time.Duration)
	RecordReadInput(d time.Duration)
	SetDelay(alias string, nanos int64)
}

// NoopMetrics discards every observation. It is the default when a Motor is
// built without an explicit MotorMetrics, so tests and simple embeddings
// never need to wire up a registry just to exercise the cycle-dispatch loop.
type NoopMetrics struct{}

func (NoopMetrics) RecordCycles(time.Duration)    {}
func (NoopMetrics) RecordPhases(time.Duration)    {}
func (NoopMetrics) RecordStrides(time.Duration)   {}
func (NoopMetrics) RecordReadInput(time.Duration) {}
func (NoopMetrics) SetDelay(string, int64)        {}

var _ MotorMetrics = NoopMetrics{}
