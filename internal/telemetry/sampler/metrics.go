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

// Package sampler provides opt-in Prometheus telemetry for the flush loop
// and an optional CPU/memory self-telemetry probe. Safe to call from the
// flush hot path: every public recording function is a no-op until Enable
// has been called.
package sampler

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config controls whether telemetry is collected and, optionally, where it
// is exposed.
type Config struct {
	Enabled bool
	// MetricsAddr, when non-empty and Enabled is true, starts a dedicated
	// HTTP server serving /metrics. Leave empty if the host process already
	// exposes promhttp.
	MetricsAddr string
	// LogInterval is not read by Enable; the periodic textual summary in
	// exporter.go takes its interval from NewExporter.
	LogInterval time.Duration
}

var modEnabled atomic.Bool

var (
	flushesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gem_flushes_total",
		Help: "Total number of flush ticks that produced a non-empty packet",
	})
	bytesSentTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gem_bytes_sent_total",
		Help: "Total bytes sent across all flushes",
	})
	superbanksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gem_superbanks_total",
		Help: "Total number of GEA1 superbanks emitted",
	})
	overflowTicksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gem_overflow_ticks_total",
		Help: "Total number of flush ticks in which at least one bank overflowed its budget",
	})
	commandsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gem_commands_total",
		Help: "Total number of periodic command tokens injected",
	})
	banksPending = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gem_banks_pending",
		Help: "Number of banks with at least one queued record as of the last flush tick",
	})
	bufferOverflowCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gem_buffer_overflow_count",
		Help: "Current BufferOverflowCount saturating gauge reading",
	})
	maxEventSizeBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gem_max_event_size_bytes",
		Help: "Current negotiated MaxEventSize in bytes, or -1 if unknown",
	})
	flushBytes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "gem_flush_bytes",
		Help:    "Distribution of packed flush sizes in bytes",
		Buckets: prometheus.ExponentialBuckets(64, 4, 10),
	})
)

func init() {
	prometheus.MustRegister(flushesTotal, bytesSentTotal, superbanksTotal,
		overflowTicksTotal, commandsTotal, banksPending, bufferOverflowCount,
		maxEventSizeBytes, flushBytes)
}

// Enable configures the module and, if cfg.Enabled is true and
// cfg.MetricsAddr is set, starts a dedicated /metrics HTTP server. Safe to call multiple times.
func Enable(cfg Config) {
	modEnabled.Store(cfg.Enabled)
	if cfg.Enabled && cfg.MetricsAddr != "" {
		startMetricsEndpoint(cfg.MetricsAddr)
	}
}

// Enabled reports whether telemetry recording is active.
func Enabled() bool { return modEnabled.Load() }

// ObserveFlush records one packed, non-empty flush of n bytes.
func ObserveFlush(n int, superbank bool) {
	if !modEnabled.Load() || n <= 0 {
		return
	}
	flushesTotal.Inc()
	bytesSentTotal.Add(float64(n))
	flushBytes.Observe(float64(n))
	if superbank {
		superbanksTotal.Inc()
	}
}

// ObserveOverflowTick records one flush tick in which at least one bank
// could not fit its head record in the remaining budget.
func ObserveOverflowTick() {
	if !modEnabled.Load() {
		return
	}
	overflowTicksTotal.Inc()
}

// ObserveCommand records one periodic command token injection.
func ObserveCommand() {
	if !modEnabled.Load() {
		return
	}
	commandsTotal.Inc()
}

// SetBanksPending publishes the current pending-bank count.
func SetBanksPending(n int) {
	if !modEnabled.Load() {
		return
	}
	banksPending.Set(float64(n))
}

// SetBufferOverflowCount publishes the current BufferOverflowCount reading.
func SetBufferOverflowCount(n int) {
	if !modEnabled.Load() {
		return
	}
	bufferOverflowCount.Set(float64(n))
}

// SetMaxEventSize publishes the current negotiated MaxEventSize.
func SetMaxEventSize(n int64) {
	if !modEnabled.Load() {
		return
	}
	maxEventSizeBytes.Set(float64(n))
}

func startMetricsEndpoint(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		_ = server.ListenAndServe()
	}()
}
