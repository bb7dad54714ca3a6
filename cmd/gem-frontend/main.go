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

// Package main is the gem frontend process: negotiates a session with a
// MIDAS-style supervisor, then periodically flushes queued measurements to
// the worker endpoint it is handed back.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gem/internal/registry"
	"gem/internal/sinks"
	"gem/internal/telemetry/sampler"
	"gem/internal/transport"
)

func main() {
	supervisorHost := flag.String("supervisor_host", "127.0.0.1", "Supervisor hostname or address")
	supervisorPort := flag.Int("supervisor_port", 1175, "Supervisor TCP port")
	maxEventSize := flag.Int64("max_event_size", 0, "Requested max event size in bytes during handshake; 0 leaves it to the supervisor's default")
	tickInterval := flag.Duration("tick_interval", time.Second, "How often the flush loop checks for pending data")
	telemetryInterval := flag.Duration("telemetry_interval", time.Minute, "How often to sample CPU/memory for self-telemetry; 0 disables the probe")
	testMode := flag.Bool("test_mode", false, "Tee every submitted measurement to a local CSV.gz log")
	testModeDir := flag.String("test_mode_dir", ".", "Directory for test-mode CSV.gz logs")
	metricsEnabled := flag.Bool("metrics", false, "Enable in-process Prometheus telemetry (opt-in)")
	metricsAddr := flag.String("metrics_addr", "", "If non-empty and -metrics is set, expose Prometheus /metrics on this address (e.g., :9090)")
	logInterval := flag.Duration("log_interval", 15*time.Second, "If > 0, periodically print a flush summary. 0 disables.")
	redisAddr := flag.String("redis_addr", "", "If non-empty, mirror session state to this Redis address")
	instanceName := flag.String("instance_name", "gem-frontend", "Name used as the Redis session mirror key suffix")
	flag.Parse()

	thresholds := registry.NewThresholds()
	thresholds.SetText("supervisor_host", *supervisorHost)
	thresholds.SetInt64("supervisor_port", int64(*supervisorPort))
	thresholds.SetInt64("max_event_size", *maxEventSize)
	thresholds.SetDuration("tick_interval", *tickInterval)
	thresholds.SetDuration("telemetry_interval", *telemetryInterval)

	sampler.Enable(sampler.Config{
		Enabled:     *metricsEnabled,
		MetricsAddr: *metricsAddr,
		LogInterval: *logInterval,
	})

	reg := registry.New(func(reason string) {
		fmt.Fprintf(os.Stderr, "gem: fatal: %s\n", reason)
		os.Exit(1)
	})

	if *testMode {
		sink, err := sinks.NewCSVGzipSink(*testModeDir, 0)
		if err != nil {
			fmt.Fprintf(os.Stderr, "gem: could not open test-mode sink: %v\n", err)
			os.Exit(1)
		}
		defer sink.Close()
		reg.EnableTestMode(sink)
	}

	client := &transport.Client{
		Sender:                 transport.NewTCPSender(),
		Session:                reg,
		Supervisor:             transport.Endpoint{Address: *supervisorHost, Port: *supervisorPort},
		ConfiguredMaxEventSize: *maxEventSize,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fmt.Printf("gem: handshaking with supervisor %s:%d...\n", *supervisorHost, *supervisorPort)
	if err := client.RunHandshake(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "gem: handshake failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("gem: handshake complete, starting flush loop")

	var prober registry.Prober
	if *telemetryInterval > 0 {
		p, err := sampler.NewProbe()
		if err != nil {
			fmt.Printf("gem: self-telemetry disabled: %v\n", err)
		} else {
			prober = p
		}
	}

	worker := registry.NewWorker(reg, client, prober, *tickInterval, *telemetryInterval)
	worker.Start(ctx)

	exporter := sampler.NewExporter(registrySummarizer{reg}, *logInterval)
	exporter.Start()
	defer exporter.Stop()

	var mirror *transport.SessionMirror
	if *redisAddr != "" {
		mirror = transport.NewSessionMirror(transport.NewGoRedisSessionWriter(*redisAddr), *instanceName, 5*time.Second)
		go runSessionMirror(ctx, mirror, reg)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	fmt.Println("\ngem: shutting down...")
	worker.Stop()

	snap := registry.Snapshot()
	fmt.Printf("gem: final counters: flushes=%d bytes_sent=%d superbanks=%d overflow_ticks=%d\n",
		snap.Flushes, snap.BytesSent, snap.Superbanks, snap.OverflowTicks)
	fmt.Print(thresholds.Summary())
	fmt.Println("gem: stopped.")
}

// registrySummarizer adapts *registry.Registry + the package-level metrics
// counters to sampler.Summarizer, so the periodic text exporter can read
// both without sampler importing registry's Registry type.
type registrySummarizer struct {
	reg *registry.Registry
}

func (s registrySummarizer) BanksPending() int    { return s.reg.PendingBankCount() }
func (s registrySummarizer) BytesSent() int64     { return registry.Snapshot().BytesSent }
func (s registrySummarizer) Flushes() int64       { return registry.Snapshot().Flushes }
func (s registrySummarizer) OverflowTicks() int64 { return registry.Snapshot().OverflowTicks }

func runSessionMirror(ctx context.Context, mirror *transport.SessionMirror, reg *registry.Registry) {
	ticker := time.NewTicker(mirror.Interval())
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			mirror.Run(ctx, reg.Snapshot(), nil)
		case <-ctx.Done():
			return
		}
	}
}
