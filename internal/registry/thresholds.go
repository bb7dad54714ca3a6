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
	"fmt"
	"sort"
	"sync"
	"time"
)

// Thresholds is a small typed settings registry used only to print a final
// configuration summary at shutdown; it has no effect on behavior. cmd/
// wiring calls the Set* methods once at startup for a fixed set of flags,
// whether or not they were given non-default values.
type Thresholds struct {
	mu    sync.Mutex
	ints  map[string]int64
	durs  map[string]time.Duration
	texts map[string]string
}

// NewThresholds returns an empty settings registry.
func NewThresholds() *Thresholds {
	return &Thresholds{
		ints:  make(map[string]int64),
		durs:  make(map[string]time.Duration),
		texts: make(map[string]string),
	}
}

// SetInt64 records an integer-valued setting under name.
func (t *Thresholds) SetInt64(name string, value int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ints[name] = value
}

// SetDuration records a duration-valued setting under name.
func (t *Thresholds) SetDuration(name string, value time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.durs[name] = value
}

// SetText records a text-valued setting under name.
func (t *Thresholds) SetText(name, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.texts[name] = value
}

// Summary renders every recorded setting as "name = value" lines, sorted by
// name within each type, ints then durations then text.
func (t *Thresholds) Summary() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := ""
	for _, name := range sortedKeys(t.ints) {
		out += fmt.Sprintf("%s = %d\n", name, t.ints[name])
	}
	for _, name := range sortedKeys(t.durs) {
		out += fmt.Sprintf("%s = %s\n", name, t.durs[name])
	}
	for _, name := range sortedKeys(t.texts) {
		out += fmt.Sprintf("%s = %s\n", name, t.texts[name])
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
