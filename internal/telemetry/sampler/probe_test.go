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
	"testing"
)

func TestProbeSampleShapeOnLinux(t *testing.T) {
	p, err := NewProbe()
	if err != nil {
		t.Skipf("procfs unavailable in this environment: %v", err)
	}
	cpus, mem, err := p.Sample(context.Background())
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	if mem < 0 || mem > 100 {
		t.Fatalf("mem percent = %v, want [0,100]", mem)
	}
	for i, c := range cpus {
		if c < 0 || c > 100 {
			t.Fatalf("cpu[%d] = %v, want [0,100]", i, c)
		}
	}
}

func TestProbeSecondSampleUsesDelta(t *testing.T) {
	p, err := NewProbe()
	if err != nil {
		t.Skipf("procfs unavailable in this environment: %v", err)
	}
	if _, _, err := p.Sample(context.Background()); err != nil {
		t.Fatalf("first Sample() error = %v", err)
	}
	cpus, _, err := p.Sample(context.Background())
	if err != nil {
		t.Fatalf("second Sample() error = %v", err)
	}
	for i, c := range cpus {
		if c < 0 || c > 100 {
			t.Fatalf("cpu[%d] = %v, want [0,100]", i, c)
		}
	}
}
