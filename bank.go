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

import (
	"container/list"
	"fmt"
	"sync"
)

// FlushOwner receives overflow notifications from a Bank's Flush without
// the Bank holding a back-reference to its Registry. The Registry
// implements this to update its saturating BufferOverflowCount and emit a
// speaker announcement once it crosses threshold.
type FlushOwner interface {
	NoteBankOverflow()
}

// Bank is the in-memory queue for one (category, varname) variable: a
// fixed-width run of LVDATA records plus the header metadata needed to
// frame them as an LVBANK on flush. Banks hold only value-typed fields, a
// mutex, and a queue; the Registry owns all identity and lifetime
// decisions.
type Bank struct {
	header bankHeader

	mu          sync.Mutex
	records     *list.List // each element is a []byte: one full LVDATA record
	recordWidth int        // -1 until the first append establishes it
}

// NewBank returns an empty Bank with the given identity and header fields.
func NewBank(datatype TypeTag, category, varname, description string, historySettings, historyRate int16) *Bank {
	return &Bank{
		header: bankHeader{
			datatype:        datatype,
			category:        category,
			varname:         varname,
			description:     description,
			historySettings: historySettings,
			historyRate:     historyRate,
		},
		records:     list.New(),
		recordWidth: -1,
	}
}

// Category returns the bank's category, for Registry lookups.
func (b *Bank) Category() string { return b.header.category }

// Varname returns the bank's varname, for Registry lookups.
func (b *Bank) Varname() string { return b.header.varname }

// Append packs ts‖payload into an LVDATA record and enqueues it. Every
// record appended to a Bank must have the same total length; a mismatch
// against an already-established width is a programming error in the
// caller (the variable's declared shape changed between calls), not a
// recoverable condition, so Append panics rather than returning an error.
func (b *Bank) Append(ts Timestamp, payload []byte) {
	record := appendTimestamp(make([]byte, 0, timestampWidth+len(payload)), ts)
	record = append(record, payload...)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.recordWidth == -1 {
		b.recordWidth = len(record)
	} else if len(record) != b.recordWidth {
		panic(fmt.Sprintf("gem: record width mismatch on bank %s/%s: established %d, got %d",
			b.header.category, b.header.varname, b.recordWidth, len(record)))
	}
	b.records.PushBack(record)
}

// PendingCount returns the number of records currently queued.
func (b *Bank) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.records.Len()
}

// Flush drains as many queued records as fit within budget bytes
// (including the 88-byte LVBANK header), returning a framed LVBANK record.
// Records that don't fit are re-prepended to the live queue in their
// original order and owner.NoteBankOverflow is called once. Flush returns
// nil if zero records fit (including when the bank is empty).
func (b *Bank) Flush(owner FlushOwner, budget int) []byte {
	b.mu.Lock()
	snapshot := b.records
	b.records = list.New()
	b.mu.Unlock()

	remaining := budget - LVBANKHeaderSize

	var popped [][]byte
	blockSize := 0
	for snapshot.Len() > 0 {
		front := snapshot.Front()
		rec := front.Value.([]byte)
		if blockSize == 0 {
			blockSize = len(rec)
		}
		if remaining < len(rec) {
			break
		}
		remaining -= len(rec)
		popped = append(popped, rec)
		snapshot.Remove(front)
	}

	if snapshot.Len() > 0 {
		b.mu.Lock()
		requeued := list.New()
		for e := snapshot.Back(); e != nil; e = e.Prev() {
			requeued.PushFront(e.Value)
		}
		for e := b.records.Front(); e != nil; e = e.Next() {
			requeued.PushBack(e.Value)
		}
		b.records = requeued
		b.mu.Unlock()
		owner.NoteBankOverflow()
	}

	numBlocks := len(popped)
	if numBlocks == 0 {
		return nil
	}

	payload := make([]byte, 0, blockSize*numBlocks)
	for _, rec := range popped {
		payload = append(payload, rec...)
	}

	out := make([]byte, 0, LVBANKHeaderSize+len(payload))
	out = appendLVBANKHeader(out, b.header, int32(blockSize), int32(numBlocks))
	out = append(out, payload...)
	return out
}
