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

import (
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const defaultAwaitCompletionMillis = 60_000
const defaultEnqueueRetryDelay = time.Millisecond

// Motor is the per-thread worker loop: it pulls CycleSegments from an Input,
// paces them through a RateLimiter at the stride, cycle, and (optionally)
// phase granularity, drives a Sync or Async Action, feeds completions to an
// Output and an optional CoreTracker, and reports timings through
// MotorMetrics. Its lifecycle is owned entirely by its SlotStateTracker.
type Motor struct {
	ID    int
	Alias string

	Input  Input
	Action Action
	Output Output

	// Tracker is optional: when set, every completed cycle is also marked
	// into it so some other consumer (a checkpoint watermark, a second
	// pipeline stage) can observe ordered progress independent of Output.
	Tracker *CoreTracker

	CycleLimiter  RateLimiter
	StrideLimiter RateLimiter // optional, acquired once per segment
	PhaseLimiter  RateLimiter // optional, acquired once per phase

	// stride is atomic so an Activity Runtime can rewrite it online (per
	// SPEC_FULL.md 4.10's "never restarts a running motor to change its
	// rate") without racing the Run loop that reads it every segment.
	stride  atomic.Int32
	Metrics MotorMetrics
	Logger  *slog.Logger

	// AwaitTimeoutMillis bounds how long an async Motor waits for in-flight
	// ops to drain on Finished or Stopping before forcing Stopped. Defaults
	// to 60s.
	AwaitTimeoutMillis int64
	// EnqueueRetryDelay paces the backoff between Enqueue retries when the
	// async action's queue reports full. Queue-full never drops a cycle.
	EnqueueRetryDelay time.Duration

	state *SlotStateTracker
}

// NewMotor builds a Motor ready to Run, filling in documented defaults for
// any zero-valued optional field.
func NewMotor(id int, alias string, input Input, action Action, output Output, cycleLimiter RateLimiter) *Motor {
	m := &Motor{
		ID:                 id,
		Alias:              alias,
		Input:              input,
		Action:             action,
		Output:             output,
		CycleLimiter:       cycleLimiter,
		Metrics:            NoopMetrics{},
		Logger:             slog.Default(),
		AwaitTimeoutMillis: defaultAwaitCompletionMillis,
		EnqueueRetryDelay:  defaultEnqueueRetryDelay,
		state:              NewSlotStateTracker(),
	}
	m.stride.Store(1)
	return m
}

// State returns the Motor's current slot state.
func (m *Motor) State() SlotState { return m.state.Get() }

// RequestStop is the external, cooperative stop signal (Running -> Stopping).
// Idempotent: a call while not Running is a no-op, logged as a warning.
func (m *Motor) RequestStop() bool {
	ok := m.state.RequestStop()
	if !ok {
		m.logger().Warn("request_stop on non-running motor ignored", "alias", m.Alias, "id", m.ID, "state", m.state.Get())
	}
	return ok
}

// Stride returns the cycles-per-segment value the next GetInputSegment call
// will request.
func (m *Motor) Stride() int32 { return m.stride.Load() }

// SetStride rewrites the stride online; takes effect from the next segment
// acquisition, never mid-segment.
func (m *Motor) SetStride(stride int32) {
	if stride <= 0 {
		stride = 1
	}
	m.stride.Store(stride)
}

func (m *Motor) metrics() MotorMetrics {
	if m.Metrics == nil {
		return NoopMetrics{}
	}
	return m.Metrics
}

func (m *Motor) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.Default()
	}
	return m.Logger
}

// Run drives the worker loop to completion: Starting -> Running, then
// segment after segment until the Input exhausts (-> Finished), a stop is
// requested (-> Stopping), or the Action faults (-> Errored). It returns
// once the slot has reached a terminal state.
func (m *Motor) Run() error {
	if !m.state.Start() {
		return &ConfigError{Reason: "motor already started"}
	}

	if s, ok := m.Input.(Startable); ok {
		s.Start()
	}
	if m.Action.Sync != nil && m.Action.Sync.Init != nil {
		if err := m.Action.Sync.Init(); err != nil {
			m.state.Error()
			return &ActionError{Cycle: -1, Err: err}
		}
	}
	if m.Action.Async != nil && m.Action.Async.Init != nil {
		if err := m.Action.Async.Init(); err != nil {
			m.state.Error()
			return &ActionError{Cycle: -1, Err: err}
		}
	}

	m.CycleLimiter.Start()
	if m.StrideLimiter != nil {
		m.StrideLimiter.Start()
	}
	if m.PhaseLimiter != nil {
		m.PhaseLimiter.Start()
	}

	var runErr error
loop:
	for m.state.Get() == Running {
		readStart := time.Now()
		seg := m.Input.GetInputSegment(m.stride.Load())
		m.metrics().RecordReadInput(time.Since(readStart))

		if seg == nil {
			m.state.Finish()
			break loop
		}

		strideStart := time.Now()
		var strideDelay int64
		if m.StrideLimiter != nil {
			strideDelay = m.StrideLimiter.Acquire()
		}

		if m.Action.IsAsync() {
			runErr = m.runAsyncStride(seg)
		} else {
			runErr = m.runSyncSegment(seg)
		}
		m.metrics().RecordStrides(time.Since(strideStart) + time.Duration(strideDelay))

		if runErr != nil {
			m.logger().Error("motor run fault", "alias", m.Alias, "id", m.ID, "err", runErr)
			m.state.Error()
			break loop
		}
	}

	switch m.state.Get() {
	case Finished, Stopping:
		if m.Action.IsAsync() && m.Action.Async.AwaitCompletion != nil {
			if !m.Action.Async.AwaitCompletion(m.AwaitTimeoutMillis) {
				m.logger().Warn("async completion await timed out", "alias", m.Alias, "id", m.ID)
			}
		}
		if m.Tracker != nil {
			m.Tracker.Flush()
		}
		m.state.Stop()
	case Errored:
		if m.Tracker != nil {
			m.Tracker.Flush()
		}
	}

	if ss, ok := m.Input.(StoppableInput); ok {
		ss.RequestStop()
	}
	return runErr
}

// runSyncSegment drives every cycle in seg through the Sync action,
// accumulating results for a single segment-wide Output emission.
func (m *Motor) runSyncSegment(seg *CycleSegment) error {
	buf := make([]CycleResult, 0, seg.Len())
	for {
		if m.state.Get() != Running {
			return m.emit(buf)
		}
		c := seg.Next()
		if c == ExhaustedCycle {
			break
		}

		cycleStart := time.Now()
		cycleDelay := m.CycleLimiter.Acquire()
		m.metrics().SetDelay(m.Alias, m.CycleLimiter.TotalSchedulingDelay())

		var result int32
		var err error
		result, err = m.Action.Sync.RunCycle(c)
		if err == nil && m.Action.Sync.Phases != nil {
			for m.Action.Sync.Phases.Incomplete() {
				var phaseDelay int64
				if m.PhaseLimiter != nil {
					phaseDelay = m.PhaseLimiter.Acquire()
				}
				phaseStart := time.Now()
				result, err = m.Action.Sync.Phases.RunPhase(c)
				m.metrics().RecordPhases(time.Since(phaseStart) + time.Duration(phaseDelay))
				if err != nil {
					break
				}
			}
		}
		if err != nil {
			m.emitOrLog(buf)
			return &ActionError{Cycle: c, Err: err}
		}

		clamped := ClampResult(result)
		buf = append(buf, CycleResult{Cycle: c, Result: clamped})
		if m.Tracker != nil {
			if terr := m.Tracker.MarkResult(c, clamped); terr != nil {
				m.emitOrLog(buf)
				return terr
			}
		}
		m.metrics().RecordCycles(time.Since(cycleStart) + time.Duration(cycleDelay))
	}
	return m.emit(buf)
}

// opResultBuffer collects async completions out of order and emits them to
// the Output in cycle order once every expected completion for the stride
// has arrived. want starts at the full stride length and is narrowed by
// closeAt when a stop request cuts the stride short before every cycle was
// enqueued, so whatever already completed is still flushed instead of
// waiting on a count that can no longer be reached.
type opResultBuffer struct {
	mu      sync.Mutex
	results []CycleResult
	want    int
	motor   *Motor
}

func (b *opResultBuffer) onComplete(ctx *OpContext) {
	clamped := ClampResult(ctx.Result())
	if b.motor.Tracker != nil {
		if terr := b.motor.Tracker.MarkResult(ctx.GetCycle(), clamped); terr != nil {
			b.motor.logger().Error("motor tracker fault", "alias", b.motor.Alias, "id", b.motor.ID, "err", terr)
			b.motor.state.Error()
		}
	}

	b.mu.Lock()
	b.results = append(b.results, CycleResult{Cycle: ctx.GetCycle(), Result: clamped})
	var out []CycleResult
	if len(b.results) >= b.want {
		out = b.results
		b.results = nil
	}
	b.mu.Unlock()

	b.flush(out)
}

// closeAt caps the buffer's expected completion count to n, the number of
// cycles actually enqueued before the stride was cut short, flushing
// immediately if every expected completion has already arrived.
func (b *opResultBuffer) closeAt(n int) {
	b.mu.Lock()
	if n < b.want {
		b.want = n
	}
	var out []CycleResult
	if len(b.results) >= b.want {
		out = b.results
		b.results = nil
	}
	b.mu.Unlock()

	b.flush(out)
}

func (b *opResultBuffer) flush(out []CycleResult) {
	if len(out) == 0 {
		return
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cycle < out[j].Cycle })
	b.motor.emitOrLog(out)
}

// runAsyncStride enqueues every cycle in seg against the Async action,
// retrying on queue-full rather than dropping the cycle, per the directive
// that a full queue must block or yield, never discard. If a stop request
// cuts the stride short, closeAt tells the buffer to flush whatever
// completions it already has instead of waiting on the full stride count.
func (m *Motor) runAsyncStride(seg *CycleSegment) error {
	buf := &opResultBuffer{want: int(seg.Len()), motor: m}
	enqueued := 0
	for {
		if m.state.Get() != Running {
			buf.closeAt(enqueued)
			return nil
		}
		c := seg.Next()
		if c == ExhaustedCycle {
			break
		}

		cycleDelay := m.CycleLimiter.Acquire()
		m.metrics().SetDelay(m.Alias, m.CycleLimiter.TotalSchedulingDelay())

		ctx := m.Action.Async.NewOpContext()
		ctx.SetCycle(c)
		ctx.SetWaitTime(cycleDelay)
		ctx.AddSink(buf.onComplete)

		for !m.Action.Async.Enqueue(ctx) {
			if m.state.Get() != Running {
				buf.closeAt(enqueued)
				return nil
			}
			time.Sleep(m.EnqueueRetryDelay)
		}
		enqueued++
		m.metrics().RecordCycles(time.Duration(cycleDelay))
	}
	return nil
}

// emit flushes a completed batch of results to the Output, preferring the
// segment form when the Output implements it. A non-nil Output error is
// wrapped in an OutputError, per the documented Output-fault policy.
func (m *Motor) emit(buf []CycleResult) error {
	if len(buf) == 0 || m.Output == nil {
		return nil
	}
	if so, ok := m.Output.(SegmentOutput); ok {
		if err := so.OnCycleResultSegment(buf); err != nil {
			return &OutputError{Err: err}
		}
		return nil
	}
	for _, r := range buf {
		if err := m.Output.OnCycleResult(r.Cycle, r.Result); err != nil {
			return &OutputError{Err: err}
		}
	}
	return nil
}

// emitOrLog is emit for call sites that are already unwinding a different
// fault (an action or tracker error with priority to report): the Output
// fault is logged rather than discarding the original error, but the
// Motor still transitions to Errored for it.
func (m *Motor) emitOrLog(buf []CycleResult) {
	if err := m.emit(buf); err != nil {
		m.logger().Error("motor output fault", "alias", m.Alias, "id", m.ID, "err", err)
		m.state.Error()
	}
}
