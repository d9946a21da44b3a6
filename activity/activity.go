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

// Package activity owns the lifetime of a scenario's pool of Motors: it
// parses an ActivityDef into rate limiters and a tracker, starts one
// goroutine per thread, and applies online reconfiguration without ever
// restarting a running motor to change its rate. Grounded on the teacher's
// main.go orchestration shape: flags and definitions turn into components,
// components start in the background, and a single external signal tears
// everything down in order.
package activity

import (
	"log/slog"
	"sync"
	"time"

	"github.com/stef1927/engineblock/core"
	"github.com/stef1927/engineblock/logging"
)

// Config carries the pieces of an Activity that aren't part of the external
// key->value ActivityDef: the collaborators (metrics, logging) and the
// tracker's cycle bound, which only the embedding CLI/test knows.
type Config struct {
	Metrics core.MotorMetrics
	Logger  *slog.Logger

	// TrackerMax > TrackerMin enables a CoreTracker shared by every motor.
	TrackerMin, TrackerMax int64
	TrackerExtentSize      int64
	TrackerExtentCount     int

	AwaitTimeoutMillis int64
	EnqueueRetryDelay  time.Duration
}

// Activity owns every Motor running one scenario: the shared rate limiters,
// the optional shared CoreTracker, and the per-thread Motor slice.
type Activity struct {
	mu  sync.Mutex
	def ActivityDef
	cfg Config

	input  core.Input
	action core.Action
	output core.Output

	tracker *core.CoreTracker

	cycleLimiter  core.RateLimiter
	strideLimiter core.RateLimiter
	phaseLimiter  core.RateLimiter

	motors []*core.Motor
	nextID int

	wg sync.WaitGroup
}

// NewActivity validates def, builds the rate limiters it names, and
// constructs def.Threads motors ready to Start.
func NewActivity(def ActivityDef, input core.Input, action core.Action, output core.Output, cfg Config) (*Activity, error) {
	if err := def.Validate(action); err != nil {
		return nil, err
	}
	if cfg.Metrics == nil {
		cfg.Metrics = core.NoopMetrics{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	a := &Activity{def: def, cfg: cfg, input: input, action: action, output: output}

	cycleSpec, err := def.cycleRateSpec()
	if err != nil {
		return nil, err
	}
	a.cycleLimiter, err = newLimiter(cycleSpec)
	if err != nil {
		return nil, err
	}

	if def.StrideRate != "" {
		strideSpec, err := def.strideRateSpec()
		if err != nil {
			return nil, err
		}
		if a.strideLimiter, err = newLimiter(strideSpec); err != nil {
			return nil, err
		}
	}
	if def.PhaseRate != "" {
		phaseSpec, err := def.phaseRateSpec()
		if err != nil {
			return nil, err
		}
		if a.phaseLimiter, err = newLimiter(phaseSpec); err != nil {
			return nil, err
		}
	}

	if cfg.TrackerMax > cfg.TrackerMin {
		extentSize := cfg.TrackerExtentSize
		if extentSize <= 0 {
			extentSize = 1024
		}
		extentCount := cfg.TrackerExtentCount
		if extentCount <= 0 {
			extentCount = 8
		}
		a.tracker = core.NewCoreTracker(cfg.TrackerMin, cfg.TrackerMax, extentSize, extentCount)
	}

	for i := 0; i < def.Threads; i++ {
		a.motors = append(a.motors, a.newMotor())
	}
	return a, nil
}

func newLimiter(spec core.RateSpec) (core.RateLimiter, error) {
	if spec.Strictness >= 1.0 {
		return core.NewStrictRateLimiter(spec)
	}
	return core.NewAverageRateLimiter(spec)
}

func (a *Activity) newMotor() *core.Motor {
	id := a.nextID
	a.nextID++
	m := core.NewMotor(id, a.def.Alias, a.input, a.action, a.output, a.cycleLimiter)
	m.StrideLimiter = a.strideLimiter
	m.PhaseLimiter = a.phaseLimiter
	m.Tracker = a.tracker
	m.Metrics = a.cfg.Metrics
	m.Logger = logging.ForMotor(logging.ForActivity(a.cfg.Logger, a.def.Alias), id)
	m.SetStride(a.def.Stride)
	if a.cfg.AwaitTimeoutMillis > 0 {
		m.AwaitTimeoutMillis = a.cfg.AwaitTimeoutMillis
	}
	if a.cfg.EnqueueRetryDelay > 0 {
		m.EnqueueRetryDelay = a.cfg.EnqueueRetryDelay
	}
	return m
}

// Start spawns one goroutine per motor. Errors returned by a motor are
// logged, not propagated, since a multi-motor activity keeps running after a
// single slot faults.
func (a *Activity) Start() {
	a.mu.Lock()
	motors := append([]*core.Motor(nil), a.motors...)
	a.mu.Unlock()

	for _, m := range motors {
		a.wg.Add(1)
		go func(m *core.Motor) {
			defer a.wg.Done()
			if err := m.Run(); err != nil {
				a.cfg.Logger.Error("motor run fault", "activity", a.def.Alias, "slot", m.ID, "err", err)
			}
		}(m)
	}
}

// RequestStop signals every motor to stop and blocks until every slot
// reaches a terminal state.
func (a *Activity) RequestStop() {
	a.mu.Lock()
	motors := append([]*core.Motor(nil), a.motors...)
	a.mu.Unlock()

	for _, m := range motors {
		m.RequestStop()
	}
	a.wg.Wait()
}

// Update applies online reconfiguration: spawns or stops motors to match
// def.Threads, re-applies rate specs onto the shared limiters, and rewrites
// stride on every motor. It never restarts a running motor to change its
// rate.
func (a *Activity) Update(def ActivityDef) error {
	if err := def.Validate(a.action); err != nil {
		return err
	}

	cycleSpec, err := def.cycleRateSpec()
	if err != nil {
		return err
	}
	if err := a.cycleLimiter.Update(cycleSpec); err != nil {
		return err
	}
	if def.StrideRate != "" && a.strideLimiter != nil {
		spec, err := def.strideRateSpec()
		if err != nil {
			return err
		}
		if err := a.strideLimiter.Update(spec); err != nil {
			return err
		}
	}
	if def.PhaseRate != "" && a.phaseLimiter != nil {
		spec, err := def.phaseRateSpec()
		if err != nil {
			return err
		}
		if err := a.phaseLimiter.Update(spec); err != nil {
			return err
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for _, m := range a.motors {
		m.SetStride(def.Stride)
	}

	switch {
	case def.Threads > len(a.motors):
		for i := len(a.motors); i < def.Threads; i++ {
			m := a.newMotor()
			a.motors = append(a.motors, m)
			a.wg.Add(1)
			go func(m *core.Motor) {
				defer a.wg.Done()
				if err := m.Run(); err != nil {
					a.cfg.Logger.Error("motor run fault", "activity", a.def.Alias, "slot", m.ID, "err", err)
				}
			}(m)
		}
	case def.Threads < len(a.motors):
		toStop := a.motors[def.Threads:]
		a.motors = a.motors[:def.Threads]
		for _, m := range toStop {
			m.RequestStop()
		}
	}

	a.def = def
	return nil
}

// Snapshot returns a point-in-time per-slot state summary, keyed by slot id.
func (a *Activity) Snapshot() map[int]core.SlotState {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[int]core.SlotState, len(a.motors))
	for _, m := range a.motors {
		out[m.ID] = m.State()
	}
	return out
}

// Tracker returns the activity's shared CoreTracker, or nil if none was
// configured.
func (a *Activity) Tracker() *core.CoreTracker { return a.tracker }
