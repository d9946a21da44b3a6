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

// Action is modeled as a tagged sum type rather than subtype polymorphism:
// exactly one of Sync or Async is set. The source's optional multi-phase
// capability becomes an optional function field on SyncAction instead of a
// separate interface a caller must remember to implement.
type Action struct {
	Sync  *SyncAction
	Async *AsyncAction
}

// IsAsync reports whether this action is the async variant.
func (a Action) IsAsync() bool { return a.Async != nil }

// SyncAction processes one cycle per call to RunCycle. If Phases is non-nil,
// the Motor then repeatedly calls Phases.RunPhase (acquiring the phase rate
// limiter each time) until Incomplete returns false.
type SyncAction struct {
	Init     func() error
	RunCycle func(cycle int64) (result int32, err error)

	// Phases, when non-nil, is the optional multi-phase capability.
	Phases *PhaseOps
}

// PhaseOps is the optional multi-phase capability of a SyncAction.
type PhaseOps struct {
	RunPhase   func(cycle int64) (result int32, err error)
	Incomplete func() bool
}

// AsyncAction enqueues operations and completes them later via the
// OpContext's Stop callback, exactly once per context. EnqueueFull is not a
// permanent backpressure signal: the Motor retries until the queue accepts
// the context, per the Design Notes directive that queue-full must block or
// yield rather than being silently dropped.
type AsyncAction struct {
	Init           func() error
	NewOpContext   func() *OpContext
	Enqueue        func(*OpContext) bool // false: queue full, caller should retry
	AwaitCompletion func(timeout int64) bool
}

// OpContext is the async completion handle. Stop calls every listener
// registered with AddSink directly; the Motor registers its per-stride
// result buffer's completion callback this way, so a context reaches its
// buffer through that callback. bufIndex is not assigned or read anywhere
// in this package.
type OpContext struct {
	cycle    int64
	waitTime int64
	result   int32
	done     bool

	bufIndex int
	sinks    []func(*OpContext)
}

// SetCycle assigns the cycle this context will complete.
func (c *OpContext) SetCycle(cycle int64) { c.cycle = cycle }

// GetCycle returns the assigned cycle.
func (c *OpContext) GetCycle() int64 { return c.cycle }

// SetWaitTime records the coordinated-omission wait time observed before
// this op was enqueued.
func (c *OpContext) SetWaitTime(nanos int64) { c.waitTime = nanos }

// GetFinalResponseTime returns the wait time recorded via SetWaitTime.
func (c *OpContext) GetFinalResponseTime() int64 { return c.waitTime }

// AddSink registers a listener that Stop invokes, in registration order.
func (c *OpContext) AddSink(listener func(*OpContext)) {
	c.sinks = append(c.sinks, listener)
}

// Stop completes the op with the given result. The action promises to call
// this exactly once per context.
func (c *OpContext) Stop(result int32) {
	c.result = result
	c.done = true
	for _, sink := range c.sinks {
		sink(c)
	}
}

// Done reports whether Stop has been called.
func (c *OpContext) Done() bool { return c.done }

// Result returns the result code passed to Stop; meaningless until Done.
func (c *OpContext) Result() int32 { return c.result }

// CycleResult pairs a completed cycle with its result code, clamped to the
// byte range the tracker stores.
type CycleResult struct {
	Cycle  int64
	Result byte
}

// ClampResult clamps a user-defined result code to the byte range the
// tracker is able to store.
func ClampResult(r int32) byte {
	if r < 0 {
		return 0
	}
	if r > 255 {
		return 255
	}
	return byte(r)
}

// Output is the sink for completed cycle results. A non-nil error is an
// Output fault: the Motor wraps it in an OutputError and transitions to
// Errored, per the documented error taxonomy.
type Output interface {
	OnCycleResult(cycle int64, result byte) error
}

// SegmentOutput is the optional batched-delivery capability of an Output.
type SegmentOutput interface {
	OnCycleResultSegment(results []CycleResult) error
}
