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

package sampler

import (
	"fmt"
	"sync"
	"time"
)

// Summarizer supplies the counters an Exporter prints on each tick. Pulled
// out as an interface so the registry package never has to import this one.
type Summarizer interface {
	BanksPending() int
	BytesSent() int64
	Flushes() int64
	OverflowTicks() int64
}

// Exporter periodically prints a one-line textual summary of flush activity.
// It is independent of the Prometheus gauges in metrics.go: useful when
// nothing is scraping /metrics but an operator is watching stdout.
type Exporter struct {
	mu       sync.Mutex
	source   Summarizer
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewExporter builds an Exporter. A non-positive interval disables Start.
func NewExporter(source Summarizer, interval time.Duration) *Exporter {
	return &Exporter{source: source, interval: interval}
}

// Start begins the print loop. Calling Start twice without an intervening
// Stop restarts the loop with the same source and interval.
func (e *Exporter) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.interval <= 0 || e.source == nil {
		return
	}
	if e.stop != nil {
		close(e.stop)
		<-e.done
	}
	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	go e.run(e.stop, e.done)
}

// Stop ends the print loop. Safe to call when not running.
func (e *Exporter) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stop == nil {
		return
	}
	close(e.stop)
	<-e.done
	e.stop, e.done = nil, nil
}

func (e *Exporter) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			e.publish()
		case <-stop:
			return
		}
	}
}

func (e *Exporter) publish() {
	ts := time.Now().Format(time.RFC3339)
	fmt.Printf("[%s] gem summary: banks_pending=%d bytes_sent=%d flushes=%d overflow_ticks=%d\n",
		ts, e.source.BanksPending(), e.source.BytesSent(), e.source.Flushes(), e.source.OverflowTicks())
}
