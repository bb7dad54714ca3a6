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
	"testing"

	"gem"
)

func BenchmarkAddDataSameVariable(b *testing.B) {
	r := New(nil)
	ts := gem.Now()
	payload := gem.Float64Payload([]float64{1, 2, 3})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.AddData("A", "V", "desc", 0, 1, ts, payload, false)
	}
}

func BenchmarkAddDataDistinctVariables(b *testing.B) {
	r := New(nil)
	ts := gem.Now()
	payload := gem.Float64Payload([]float64{1, 2, 3})
	names := make([]string, 64)
	for i := range names {
		names[i] = string(rune('A' + (i % 26)))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.AddData("CAT", names[i%len(names)], "desc", 0, 1, ts, payload, false)
	}
}

func BenchmarkFlushSuperbank(b *testing.B) {
	payload := gem.Float64Payload([]float64{1, 2, 3})
	ts := gem.Now()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		r := New(nil)
		for v := 0; v < 20; v++ {
			r.AddData("CAT", string(rune('A'+v)), "desc", 0, 1, ts, payload, false)
		}
		b.StartTimer()
		r.Flush()
	}
}
