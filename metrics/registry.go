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

// Package metrics is the Prometheus-backed implementation of
// core.MotorMetrics. Unlike the teacher's telemetry/churn package, metrics
// are registered once by an explicit constructor rather than a package-level
// init(), so a process can run more than one Registry (e.g. in tests)
// without fighting over the default registerer.
package metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stef1927/engineblock/core"
)

// Registry exposes the bit-exact metric names cycles, phases, strides, and
// read_input as histograms (seconds), plus a coordinated-omission delay
// gauge named cco_delay with an alias label (not a separate
// cco-delay-<alias> metric per alias).
type Registry struct {
	reg *prometheus.Registry

	cycles    *prometheus.HistogramVec
	phases    *prometheus.HistogramVec
	strides   *prometheus.HistogramVec
	readInput *prometheus.HistogramVec
	delay     *prometheus.GaugeVec

	// nanos mirrors the histograms with a cheap atomic accumulator per
	// timer name, for callers that want a running total without scraping
	// Prometheus (mirrors the teacher's dual atomic-counter-plus-Prometheus
	// approach in core/metrics.go and telemetry/churn).
	nanos sync.Map // string -> *atomic.Int64
}

// NewRegistry builds and registers a fresh metric set.
func NewRegistry() *Registry {
	r := &Registry{reg: prometheus.NewRegistry()}

	r.cycles = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "cycles", Help: "Per-cycle processing duration in seconds, including rate-limiter wait.",
	}, []string{"activity"})
	r.phases = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "phases", Help: "Per-phase processing duration in seconds, including rate-limiter wait.",
	}, []string{"activity"})
	r.strides = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "strides", Help: "Per-stride processing duration in seconds, including rate-limiter wait.",
	}, []string{"activity"})
	r.readInput = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "read_input", Help: "Time spent pulling a segment from the Input.",
	}, []string{"activity"})
	r.delay = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cco_delay", Help: "Cumulative coordinated-omission delay in nanoseconds, by activity alias.",
	}, []string{"alias"})

	r.reg.MustRegister(r.cycles, r.phases, r.strides, r.readInput, r.delay)
	return r
}

func (r *Registry) counter(name string) *atomic.Int64 {
	v, _ := r.nanos.LoadOrStore(name, new(atomic.Int64))
	return v.(*atomic.Int64)
}

// MotorMetrics returns a core.MotorMetrics bound to activity's alias.
func (r *Registry) MotorMetrics(activity string) core.MotorMetrics {
	return &motorMetrics{reg: r, activity: activity}
}

// Snapshot returns a point-in-time total for each timer, summed across every
// activity observed so far (cheap: backed by the atomic accumulators, not a
// Prometheus scrape).
func (r *Registry) Snapshot() MotorStats {
	return MotorStats{
		Cycles:    time.Duration(r.counter("cycles:" + totalKey).Load()),
		Phases:    time.Duration(r.counter("phases:" + totalKey).Load()),
		Strides:   time.Duration(r.counter("strides:" + totalKey).Load()),
		ReadInput: time.Duration(r.counter("read_input:" + totalKey).Load()),
	}
}

const totalKey = "__total__"

// MotorStats is a snapshot of accumulated timer totals, used by the CLI
// harness and tests. Snapshot leaves Delay at zero; the coordinated-omission
// delay is exported only through the cco_delay gauge.
type MotorStats struct {
	Cycles, Phases, Strides, ReadInput time.Duration
	Delay                              int64
}

// ServeHTTP starts a promhttp listener on addr and returns a stop function.
func (r *Registry) ServeHTTP(addr string) (stop func() error, err error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics: listen on %s: %w", addr, err)
	}
	go func() {
		_ = srv.Serve(ln)
	}()
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}, nil
}

type motorMetrics struct {
	reg      *Registry
	activity string
}

func (m *motorMetrics) RecordCycles(d time.Duration) {
	m.reg.cycles.WithLabelValues(m.activity).Observe(d.Seconds())
	m.reg.counter("cycles:" + totalKey).Add(int64(d))
}

func (m *motorMetrics) RecordPhases(d time.Duration) {
	m.reg.phases.WithLabelValues(m.activity).Observe(d.Seconds())
	m.reg.counter("phases:" + totalKey).Add(int64(d))
}

func (m *motorMetrics) RecordStrides(d time.Duration) {
	m.reg.strides.WithLabelValues(m.activity).Observe(d.Seconds())
	m.reg.counter("strides:" + totalKey).Add(int64(d))
}

func (m *motorMetrics) RecordReadInput(d time.Duration) {
	m.reg.readInput.WithLabelValues(m.activity).Observe(d.Seconds())
	m.reg.counter("read_input:" + totalKey).Add(int64(d))
}

func (m *motorMetrics) SetDelay(alias string, nanos int64) {
	m.reg.delay.WithLabelValues(alias).Set(float64(nanos))
}

var _ core.MotorMetrics = (*motorMetrics)(nil)
