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

// Package sinks provides test-mode data tees: every value submitted through
// AddData is additionally written to a Sink as a CSV row, independent of
// whether it ever reaches the supervisor over the wire.
package sinks

// Sink receives one CSV row (timestamp, category, varname, value columns)
// per submitted measurement. Implementations must be safe for concurrent
// use. Registry.AddData calls Write while holding the registry's own lock.
type Sink interface {
	Write(row []string)
}

// NopSink discards every row.
type NopSink struct{}

// Write discards row.
func (NopSink) Write(row []string) {}
