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

package gem

import "sync"

// overflowAnnounceThreshold is the counter value above which the counter
// announces itself and resets.
const overflowAnnounceThreshold = 100

// SaturatingCounter is a mutex-guarded gauge that rises by one per
// Increment, falls by one per Decay (floor zero), and invokes onThreshold
// then resets to zero once it exceeds overflowAnnounceThreshold. It backs
// Registry.BufferOverflowCount: the Registry increments it once per bank
// that overflows during a flush and decays it once at the start of every
// flush.
type SaturatingCounter struct {
	mu          sync.Mutex
	value       int
	onThreshold func()
}

// NewSaturatingCounter returns a counter starting at zero. onThreshold may
// be nil, in which case crossing the threshold only resets the counter.
func NewSaturatingCounter(onThreshold func()) *SaturatingCounter {
	return &SaturatingCounter{onThreshold: onThreshold}
}

// Increment raises the counter by one and fires onThreshold (then resets
// to zero) if the new value exceeds overflowAnnounceThreshold.
func (c *SaturatingCounter) Increment() {
	c.mu.Lock()
	c.value++
	crossed := c.value > overflowAnnounceThreshold
	if crossed {
		c.value = 0
	}
	cb := c.onThreshold
	c.mu.Unlock()

	if crossed && cb != nil {
		cb()
	}
}

// Decay lowers the counter by one, floored at zero.
func (c *SaturatingCounter) Decay() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.value > 0 {
		c.value--
	}
}

// Value returns the current reading.
func (c *SaturatingCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}
