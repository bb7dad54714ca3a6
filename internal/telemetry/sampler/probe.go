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
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/procfs"
)

// Probe samples host CPU and memory utilization. It satisfies the narrow
// Prober shape the worker loop expects, without either package importing
// the other.
type Probe struct {
	fs procfs.FS

	mu      sync.Mutex
	prevSet bool
	prevCPU map[int64]cpuJiffies
}

type cpuJiffies struct {
	idle, total float64
}

// NewProbe opens the default /proc mount. Returns an error if /proc is not
// readable (e.g. non-Linux hosts), in which case self-telemetry should stay
// disabled.
func NewProbe() (*Probe, error) {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return nil, fmt.Errorf("gem: open procfs: %w", err)
	}
	return &Probe{fs: fs, prevCPU: make(map[int64]cpuJiffies)}, nil
}

// Sample returns one utilization percentage per CPU (0-100, delta'd against
// the previous call) and the overall memory utilization percentage. The
// first call after construction has no prior sample to delta against and
// reports zeros for CPU.
func (p *Probe) Sample(ctx context.Context) (cpuPercents []float64, memPercent float64, err error) {
	stat, err := p.fs.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("gem: read /proc/stat: %w", err)
	}
	mem, err := p.fs.Meminfo()
	if err != nil {
		return nil, 0, fmt.Errorf("gem: read /proc/meminfo: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	cpuPercents = make([]float64, 0, len(stat.CPU))
	for id := int64(0); ; id++ {
		line, ok := stat.CPU[id]
		if !ok {
			break
		}
		idle := line.Idle + line.Iowait
		total := line.User + line.Nice + line.System + line.Idle +
			line.Iowait + line.IRQ + line.SoftIRQ + line.Steal
		pct := 0.0
		if prev, ok := p.prevCPU[id]; ok && p.prevSet {
			dIdle := idle - prev.idle
			dTotal := total - prev.total
			if dTotal > 0 {
				pct = (1.0 - dIdle/dTotal) * 100.0
			}
		}
		p.prevCPU[id] = cpuJiffies{idle: idle, total: total}
		cpuPercents = append(cpuPercents, pct)
	}
	p.prevSet = true

	if mem.MemTotal != nil && *mem.MemTotal > 0 {
		total := float64(*mem.MemTotal)
		free := 0.0
		if mem.MemFree != nil {
			free = float64(*mem.MemFree)
		}
		if mem.Buffers != nil {
			free += float64(*mem.Buffers)
		}
		if mem.Cached != nil {
			free += float64(*mem.Cached)
		}
		memPercent = (1.0 - free/total) * 100.0
	}
	return cpuPercents, memPercent, nil
}
