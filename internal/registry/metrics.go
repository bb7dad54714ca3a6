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

// Package registry: process-level atomic counters for the end-of-process
// summary. Kept lightweight to avoid allocation and locks on the flush
// hot path.
package registry

import "sync/atomic"

var (
	totalFlushes    atomic.Int64
	totalBytesSent  atomic.Int64
	totalSuperbanks atomic.Int64
	totalOverflowTicks atomic.Int64
)

// RecordFlush accounts for one successfully packed flush of n bytes.
// superbank indicates whether the packed bytes were a GEA1 superbank
// rather than a bare LVBANK.
func RecordFlush(n int, superbank bool) {
	if n <= 0 {
		return
	}
	totalFlushes.Add(1)
	totalBytesSent.Add(int64(n))
	if superbank {
		totalSuperbanks.Add(1)
	}
}

// RecordOverflowTick accounts for one flush tick in which at least one bank
// could not fit its head record in the remaining budget.
func RecordOverflowTick() {
	totalOverflowTicks.Add(1)
}

// MetricsSnapshot is a point-in-time read of the process counters.
type MetricsSnapshot struct {
	Flushes       int64
	BytesSent     int64
	Superbanks    int64
	OverflowTicks int64
}

// Snapshot returns the current counter values.
func Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Flushes:       totalFlushes.Load(),
		BytesSent:     totalBytesSent.Load(),
		Superbanks:    totalSuperbanks.Load(),
		OverflowTicks: totalOverflowTicks.Load(),
	}
}

// resetMetrics zeroes the counters. Intended for tests only.
func resetMetrics() {
	totalFlushes.Store(0)
	totalBytesSent.Store(0)
	totalSuperbanks.Store(0)
	totalOverflowTicks.Store(0)
}
