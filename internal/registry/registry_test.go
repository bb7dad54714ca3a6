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
	"encoding/binary"
	"testing"
	"time"

	"gem"
	"gem/internal/transport"
)

func TestAddDataSingleBankFlush(t *testing.T) {
	r := New(nil)
	r.AddData("A", "V", "desc", 0, 1, gem.Now(), gem.Float64Payload([]float64{1, 2, 3}), false)

	out := r.Flush()
	if len(out) != gem.LVBANKHeaderSize+40 {
		t.Fatalf("len = %d, want %d", len(out), gem.LVBANKHeaderSize+40)
	}
	if string(out[0:4]) != "GEB1" {
		t.Fatalf("tag = %q", out[0:4])
	}
}

func TestAddDataCoalescesSameVariable(t *testing.T) {
	r := New(nil)
	r.AddData("A", "V", "desc", 0, 1, gem.Now(), gem.Float64Payload([]float64{1, 2, 3}), false)
	r.AddData("A", "V", "desc", 0, 1, gem.Now(), gem.Float64Payload([]float64{4, 5, 6}), false)

	out := r.Flush()
	numBlocks := binary.LittleEndian.Uint32(out[84:88])
	if numBlocks != 2 {
		t.Fatalf("numBlocks = %d, want 2 (coalesced into one bank)", numBlocks)
	}
}

func TestAddDataMultipleVariablesProducesSuperbank(t *testing.T) {
	r := New(nil)
	r.AddData("A", "V1", "d", 0, 1, gem.Now(), gem.Float64Payload([]float64{1}), false)
	r.AddData("A", "V2", "d", 0, 1, gem.Now(), gem.Float64Payload([]float64{2}), false)

	out := r.Flush()
	if string(out[0:4]) != "GEA1" {
		t.Fatalf("tag = %q, want GEA1", out[0:4])
	}
	wantLen := 16 + 2*(gem.LVBANKHeaderSize+24)
	if len(out) != wantLen {
		t.Fatalf("len = %d, want %d", len(out), wantLen)
	}
	bankCount := binary.LittleEndian.Uint32(out[12:16])
	if bankCount != 2 {
		t.Fatalf("bankCount = %d, want 2", bankCount)
	}
}

func TestCommandVariablesNeverCoalesce(t *testing.T) {
	r := New(nil)
	r.AddData("THISHOST", "COMMAND", "GET_RUNNO", 0, 0, gem.Now(), gem.OpaquePayload([]byte{0}), false)
	r.AddData("THISHOST", "COMMAND", "GET_STATUS", 0, 0, gem.Now(), gem.OpaquePayload([]byte{0}), false)

	if n := r.PendingBankCount(); n != 2 {
		t.Fatalf("PendingBankCount = %d, want 2 distinct command banks", n)
	}
}

func TestAnnounceOnSpeakerProducesTalkBank(t *testing.T) {
	r := New(nil)
	r.AnnounceOnSpeaker("X", "hello")

	out := r.Flush()
	if string(out[0:4]) != "GEB1" {
		t.Fatalf("tag = %q", out[0:4])
	}
	if string(out[4:8]) != "STR\x00" {
		t.Fatalf("datatype = %q, want STR\\0", out[4:8])
	}
	varname := out[24:40]
	if string(varname[:4]) != "TALK" {
		t.Fatalf("varname = %q, want TALK", varname[:4])
	}
}

func TestGetRunNumberUnblocksOnReply(t *testing.T) {
	r := New(nil)
	done := make(chan int64, 1)
	go func() { done <- r.GetRunNumber() }()

	// Give the goroutine a chance to start waiting.
	time.Sleep(10 * time.Millisecond)
	r.ApplyReply(transport.Reply{HasRunNumber: true, RunNumber: 42})

	select {
	case got := <-done:
		if got != 42 {
			t.Fatalf("GetRunNumber = %d, want 42", got)
		}
	case <-time.After(time.Second):
		t.Fatal("GetRunNumber did not unblock")
	}
}

func TestGetRunNumberQueuesPeriodicToken(t *testing.T) {
	r := New(nil)
	go r.GetRunNumber()
	time.Sleep(10 * time.Millisecond)

	found := false
	for _, tok := range r.PeriodicTokens() {
		if tok == "GET_RUNNO" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected GET_RUNNO to be queued")
	}
	r.ApplyReply(transport.Reply{HasRunNumber: true, RunNumber: 1})
}

func TestUnclassifiablePayloadAborts(t *testing.T) {
	aborted := ""
	r := New(func(reason string) { aborted = reason })
	r.AddData("A", "V", "d", 0, 0, gem.Now(), gem.Payload{}, false)
	if aborted == "" {
		t.Fatal("expected abort to be called")
	}
}

func TestOverflowAfterThresholdAnnouncesOnSpeaker(t *testing.T) {
	r := New(nil)
	r.AddData("A", "V", "d", 0, 1, gem.Now(), gem.Float64Payload([]float64{1, 2, 3, 4, 5}), false)

	// Drive the overflow counter directly up to the threshold.
	for i := 0; i < 100; i++ {
		r.overflow.Increment()
	}
	r.overflow.Increment() // crosses threshold, triggers announceOverflow -> TALK bank
	if r.PendingBankCount() < 2 {
		t.Fatalf("expected an overflow announcement bank, PendingBankCount = %d", r.PendingBankCount())
	}
}
