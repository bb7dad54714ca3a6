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

package registry

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"gem"
	"gem/internal/telemetry/sampler"
)

// Prober samples a point-in-time CPU/memory reading for the self-telemetry
// loop. internal/telemetry/sampler supplies the production implementation;
// a nil Prober on Worker disables the loop entirely, matching spec's
// "optional, only if a probe is available".
type Prober interface {
	Sample(ctx context.Context) (cpuPercents []float64, memPercent float64, err error)
}

// Sender is the narrow interface Worker needs from internal/transport,
// named independently here so registry does not have to import the
// transport package's Client type directly; *transport.Client satisfies it.
type Sender interface {
	SendWithTimeout(ctx context.Context, payload []byte, timeout time.Duration) ([]byte, error)
}

// Worker runs the background flush loop (and, if a Prober is configured,
// the self-telemetry loop) on its own goroutines, grounded on the
// teacher's dual-goroutine commitLoop/evictionLoop Worker shape.
type Worker struct {
	registry *Registry
	sender   Sender
	prober   Prober

	tickInterval      time.Duration
	telemetryInterval time.Duration
	sendTimeout       time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  uint32
}

// NewWorker returns a configured, unstarted Worker. prober may be nil.
func NewWorker(reg *Registry, sender Sender, prober Prober, tickInterval, telemetryInterval time.Duration) *Worker {
	if tickInterval <= 0 {
		tickInterval = time.Second
	}
	if telemetryInterval <= 0 {
		telemetryInterval = time.Minute
	}
	return &Worker{
		registry:          reg,
		sender:            sender,
		prober:            prober,
		tickInterval:      tickInterval,
		telemetryInterval: telemetryInterval,
		sendTimeout:       10 * time.Second,
		stopChan:          make(chan struct{}),
	}
}

// Start launches the background goroutines.
func (w *Worker) Start(ctx context.Context) {
	fmt.Println("gem: starting background worker...")
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.flushLoop(ctx)
	}()
	if w.prober != nil {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.telemetryLoop(ctx)
		}()
	}
}

// Stop signals both loops to exit at their next check point and waits for
// them. The flush loop does not drain pending banks before exiting;
// in-flight data may be lost, matching the shutdown model.
func (w *Worker) Stop() {
	if !atomic.CompareAndSwapUint32(&w.stopped, 0, 1) {
		return
	}
	fmt.Println("gem: stopping background worker...")
	close(w.stopChan)
	w.wg.Wait()
}

func (w *Worker) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.runFlushTick(ctx)
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *Worker) runFlushTick(ctx context.Context) {
	start := time.Now()

	for _, token := range w.registry.PeriodicTokens() {
		w.registry.addData("THISHOST", "COMMAND", token, 0, 0, gem.Now(), gem.OpaquePayload([]byte{0}), false)
		sampler.ObserveCommand()
	}

	pending := w.registry.PendingBankCount()
	sampler.SetBanksPending(pending)
	sampler.SetBufferOverflowCount(w.registry.OverflowCount())
	sampler.SetMaxEventSize(w.registry.Session().MaxEventSize)

	if pending == 0 {
		return
	}

	overflowBefore := w.registry.OverflowCount()
	packet := w.registry.Flush()
	// Flush decays the counter by one before packing, so any other reading
	// afterwards means at least one bank overflowed during this tick.
	expected := overflowBefore - 1
	if expected < 0 {
		expected = 0
	}
	if w.registry.OverflowCount() != expected {
		RecordOverflowTick()
		sampler.ObserveOverflowTick()
	}
	if len(packet) == 0 {
		return
	}

	maxEventSize := w.registry.maxEventSizeOrDefault()
	if len(packet) > maxEventSize {
		w.registry.Abort(fmt.Sprintf("outgoing packet of %d bytes exceeds MaxEventSize %d", len(packet), maxEventSize))
		return
	}

	superbank := len(packet) >= 4 && string(packet[:4]) == "GEA1"
	RecordFlush(len(packet), superbank)
	sampler.ObserveFlush(len(packet), superbank)

	elapsed := time.Since(start)
	if remaining := w.tickInterval - elapsed; remaining > 0 {
		time.Sleep(remaining)
	}

	if _, err := w.sender.SendWithTimeout(ctx, packet, w.sendTimeout); err != nil {
		fmt.Printf("gem: send failed: %v\n", err)
	}
}

func (w *Worker) telemetryLoop(ctx context.Context) {
	ticker := time.NewTicker(w.telemetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.runTelemetrySample(ctx)
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *Worker) runTelemetrySample(ctx context.Context) {
	cpuPercents, memPercent, err := w.prober.Sample(ctx)
	if err != nil {
		fmt.Printf("gem: telemetry sample failed: %v\n", err)
		return
	}
	values := append(append([]float64{}, cpuPercents...), memPercent)
	w.registry.AddData("THISHOST", "CPUMEM", "cpu/mem sample", 0, 10, gem.Now(), gem.Float64Payload(values), false)
}
