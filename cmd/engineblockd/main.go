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

// Package main provides the entry point for engineblockd, a standalone
// harness that runs a single workload-generation Activity: a configurable
// number of threads driving a synthetic cycle counter through a jittered
// no-op Action at a target rate, with results persisted to a JSONL file,
// checkpoint watermarks committed to a pluggable backend, and a Prometheus
// /metrics endpoint for the run's cycle/phase/stride timers.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/stef1927/engineblock/activity"
	"github.com/stef1927/engineblock/config"
	"github.com/stef1927/engineblock/core"
	"github.com/stef1927/engineblock/logging"
	"github.com/stef1927/engineblock/metrics"
	"github.com/stef1927/engineblock/persistence"
	"github.com/stef1927/engineblock/sinks"
)

func main() {
	threads := flag.Int("threads", 4, "number of motor threads")
	cycleRate := flag.String("cyclerate", "1000,1.0", "cyclerate spec: <ops/s>[,<strictness>[,report]]")
	strideRate := flag.String("striderate", "", "striderate spec, empty disables stride pacing")
	stride := flag.Int("stride", 50, "cycles per segment")
	cycles := flag.Int64("cycles", 100_000, "total cycles to generate; 0 means unbounded (stop via signal)")
	jitterMillis := flag.Int("jitter_millis", 2, "max random sleep per cycle in the demo action, in milliseconds")
	outputPath := flag.String("output_path", "results.jsonl", "path to the JSONL result sink")
	checkpointBackend := flag.String("checkpoint_backend", "memory", "checkpoint backend: memory, redis, or postgres")
	redisAddr := flag.String("redis_addr", "localhost:6379", "redis address, used when checkpoint_backend=redis")
	postgresDSN := flag.String("postgres_dsn", "", "postgres DSN, used when checkpoint_backend=postgres")
	metricsAddr := flag.String("metrics_addr", ":9090", "Prometheus /metrics listen address; empty disables it")
	checkpointEvery := flag.Int("checkpoint_every", 1000, "commit a checkpoint every N cycles observed by the tracker")
	logLevel := flag.String("log_level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	thresholds := config.New()
	thresholds.SetThresholdInt64("threads", int64(*threads))
	thresholds.SetThreshold("cyclerate", *cycleRate)
	thresholds.SetThreshold("striderate", *strideRate)
	thresholds.SetThresholdInt64("stride", int64(*stride))
	thresholds.SetThresholdInt64("cycles", *cycles)
	thresholds.SetThreshold("output_path", *outputPath)
	thresholds.SetThreshold("checkpoint_backend", *checkpointBackend)
	thresholds.SetThreshold("metrics_addr", *metricsAddr)

	logger := logging.New(parseLevel(*logLevel))

	reg := metrics.NewRegistry()
	var stopMetrics func() error
	if *metricsAddr != "" {
		var err error
		stopMetrics, err = reg.ServeHTTP(*metricsAddr)
		if err != nil {
			logger.Error("metrics server failed to start", "addr", *metricsAddr, "err", err)
			os.Exit(1)
		}
		logger.Info("metrics listening", "addr", *metricsAddr)
	}

	persister, err := persistence.BuildPersister(*checkpointBackend, persistence.BuildOptions{
		RedisAddr:   *redisAddr,
		PostgresDSN: *postgresDSN,
	})
	if err != nil {
		logger.Error("failed to build checkpoint persister", "backend", *checkpointBackend, "err", err)
		os.Exit(1)
	}

	out, err := sinks.NewFileOutput(*outputPath)
	if err != nil {
		logger.Error("failed to open output sink", "path", *outputPath, "err", err)
		os.Exit(1)
	}

	def := activity.ActivityDef{
		Alias:      "demo",
		Threads:    *threads,
		Stride:     int32(*stride),
		Async:      false,
		CycleRate:  *cycleRate,
		StrideRate: *strideRate,
	}

	input := core.NewCounterInput(*cycles)
	action := demoAction(*jitterMillis)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := activity.Config{
		Metrics: reg.MotorMetrics(def.Alias),
		Logger:  logger,
	}
	if *cycles > 0 {
		cfg.TrackerMin, cfg.TrackerMax = 0, *cycles
	}

	act, err := activity.NewActivity(def, input, action, out, cfg)
	if err != nil {
		logger.Error("failed to build activity", "err", err)
		os.Exit(1)
	}

	if tracker := act.Tracker(); tracker != nil && *checkpointEvery > 0 {
		go watchCheckpoints(ctx, tracker, persister, def.Alias, int64(*checkpointEvery), logger)
	}

	act.Start()
	logger.Info("activity started", "alias", def.Alias, "threads", *threads, "cyclerate", *cycleRate)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	fmt.Println("\nShutting down...")
	cancel()
	act.RequestStop()

	if err := out.Close(); err != nil {
		logger.Error("failed to close output sink", "err", err)
	}
	persister.PrintSummary()
	if err := persister.Close(); err != nil {
		logger.Error("failed to close checkpoint persister", "err", err)
	}
	if stopMetrics != nil {
		if err := stopMetrics(); err != nil {
			logger.Error("failed to stop metrics server", "err", err)
		}
	}

	snap := reg.Snapshot()
	fmt.Printf("cycles=%s phases=%s strides=%s read_input=%s delay_ns=%d\n",
		snap.Cycles, snap.Phases, snap.Strides, snap.ReadInput, snap.Delay)
	for _, line := range thresholds.Snapshot() {
		fmt.Println(line)
	}
	fmt.Println("Stopped.")
}

// demoAction is a synthetic sync Action: it sleeps a random jitter up to
// jitterMillis and returns the cycle modulo 100 as its result code, giving
// the harness something to observe without a real data-plane dependency.
func demoAction(jitterMillis int) core.Action {
	return core.Action{Sync: &core.SyncAction{
		RunCycle: func(cycle int64) (int32, error) {
			if jitterMillis > 0 {
				time.Sleep(time.Duration(rand.Intn(jitterMillis+1)) * time.Millisecond)
			}
			return int32(cycle % 100), nil
		},
	}}
}

// watchCheckpoints polls the shared tracker's ordered watermark and commits
// it to the persister every `every` cycles of progress, stamping each
// commit with a fresh CommitID so a persister restart never double-applies
// the same watermark.
func watchCheckpoints(ctx context.Context, tracker *core.CoreTracker, persister persistence.CheckpointPersister, alias string, every int64, logger *slog.Logger) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	var lastCommitted int64 = -1
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			watermark := tracker.MaxContiguousMarked()
			if watermark <= 0 || watermark-lastCommitted < every {
				continue
			}
			cp := persistence.Checkpoint{Activity: alias, Watermark: watermark, CommitID: uuid.NewString()}
			if err := persister.CommitCheckpoint(ctx, cp); err != nil {
				logger.Warn("checkpoint commit failed", "alias", alias, "watermark", watermark, "err", err)
				continue
			}
			lastCommitted = watermark
		}
	}
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
