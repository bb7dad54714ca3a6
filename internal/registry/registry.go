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

// Package registry owns the ordered collection of Banks, the session state
// negotiated with the supervisor, and the flush-shape decision (nothing /
// single bank / superbank).
package registry

import (
	"fmt"
	"sync"

	"gem"
	"gem/internal/transport"
)

// Run number sentinels. -99 means never observed; -1 means a request token
// has been queued but no reply has arrived yet; >= 0 is a valid run number.
const (
	RunNumberUnknown     = -99
	RunNumberTransitional = -1
)

// Sink is the narrow interface the test-mode CSV tee satisfies. The
// Registry holds at most one.
type Sink interface {
	Write(row []string)
}

// AbortFunc is called for conditions the taxonomy marks fatal (unclassifiable
// payload, oversized packet, server ERROR reply). The default terminates the
// process; tests substitute one that records the call instead.
type AbortFunc func(reason string)

// Registry is the ordered collection of Banks plus the session state
// negotiated with the supervisor/worker. It is the single point of
// synchronization between producer goroutines calling AddData and the
// background flush loop.
type Registry struct {
	mu    sync.Mutex
	cond  *sync.Cond
	banks []*gem.Bank

	runNumber      int64
	runStatus      string
	maxEventSize   int64
	workerAddress  string
	workerPort     int
	frontendStatus string

	periodic map[string]struct{}

	overflow    *gem.SaturatingCounter
	bankArrayID uint32

	testMode bool
	sink     Sink

	abort AbortFunc
}

// New returns an empty Registry. abort may be nil, in which case a default
// that panics is used (the caller almost always wants to wire in a real
// process-exit hook; see cmd/gem-frontend).
func New(abort AbortFunc) *Registry {
	if abort == nil {
		abort = func(reason string) { panic("gem: fatal: " + reason) }
	}
	r := &Registry{
		runNumber:      RunNumberUnknown,
		maxEventSize:   -1,
		periodic:       make(map[string]struct{}),
		abort:          abort,
	}
	r.cond = sync.NewCond(&r.mu)
	r.overflow = gem.NewSaturatingCounter(func() { r.announceOverflow() })
	return r
}

// NoteBankOverflow implements gem.FlushOwner. Called once per bank whose
// flush could not pack its entire queue within budget.
func (r *Registry) NoteBankOverflow() {
	r.overflow.Increment()
}

func (r *Registry) announceOverflow() {
	r.addData("THISHOST", "TALK", "buffer overflow", 0, 0, gem.Now(),
		gem.TextPayload("buffer overflow: producer outpacing link"), true)
}

// EnableTestMode attaches sink as the CSV tee destination and starts
// mirroring every accepted submission to it.
func (r *Registry) EnableTestMode(sink Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.testMode = true
	r.sink = sink
}

// AddData is the producer-facing entry point. It never returns an error to
// the caller: unclassifiable payloads are fatal per the taxonomy and are
// routed through the abort hook instead.
func (r *Registry) AddData(category, varname, description string, historySettings, historyRate int16, ts gem.Timestamp, payload gem.Payload, insertFront bool) {
	r.addData(category, varname, description, historySettings, historyRate, ts, payload, insertFront)
}

func (r *Registry) addData(category, varname, description string, historySettings, historyRate int16, ts gem.Timestamp, payload gem.Payload, insertFront bool) {
	tag, data, err := gem.Classify(payload)
	if err != nil {
		r.abort(fmt.Sprintf("unclassifiable payload for %s/%s: %v", category, varname, err))
		return
	}

	r.mu.Lock()
	if r.testMode && r.sink != nil {
		r.sink.Write(csvRow(ts, category, varname, payload))
	}

	if varname != "TALK" && varname != "COMMAND" {
		for _, b := range r.banks {
			if b.Category() == category && b.Varname() == varname {
				b.Append(ts, data)
				r.mu.Unlock()
				return
			}
		}
	}

	bank := gem.NewBank(tag, category, varname, description, historySettings, historyRate)
	bank.Append(ts, data)
	if insertFront {
		r.banks = append([]*gem.Bank{bank}, r.banks...)
	} else {
		r.banks = append(r.banks, bank)
	}
	r.mu.Unlock()
}

func csvRow(ts gem.Timestamp, category, varname string, payload gem.Payload) []string {
	row := []string{fmt.Sprintf("%d", ts.Seconds), fmt.Sprintf("%d", ts.Fraction), category, varname}
	if values, ok := payload.Floats(); ok {
		for _, v := range values {
			row = append(row, fmt.Sprintf("%v", v))
		}
	}
	return row
}

// AnnounceOnSpeaker submits message on the speaker channel for category, to
// be emitted ahead of other variables in the next superbank.
func (r *Registry) AnnounceOnSpeaker(category, message string) {
	r.addData(category, "TALK", "\x00", 0, 0, gem.Now(), gem.TextPayload(message), true)
}

// RequestPeriodic adds token to the periodic-task set if absent. Duplicate
// insertions are absorbed by set semantics, matching spec's "periodic
// tasks" design.
func (r *Registry) RequestPeriodic(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.periodic[token] = struct{}{}
}

// PeriodicTokens returns a snapshot of the current periodic-task set.
func (r *Registry) PeriodicTokens() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	tokens := make([]string, 0, len(r.periodic))
	for t := range r.periodic {
		tokens = append(tokens, t)
	}
	return tokens
}

// GetRunNumber queues the GET_RUNNO periodic token (if not already queued)
// and blocks until a run number has been observed.
func (r *Registry) GetRunNumber() int64 {
	r.mu.Lock()
	if _, asked := r.periodic["GET_RUNNO"]; !asked {
		r.periodic["GET_RUNNO"] = struct{}{}
		if r.runNumber == RunNumberUnknown {
			r.runNumber = RunNumberTransitional
		}
	}
	for r.runNumber < 0 {
		r.cond.Wait()
	}
	n := r.runNumber
	r.mu.Unlock()
	return n
}

// GetRunStatus queues the GET_STATUS periodic token (if not already queued)
// and blocks until a non-empty run status has been observed.
func (r *Registry) GetRunStatus() string {
	r.mu.Lock()
	if _, asked := r.periodic["GET_STATUS"]; !asked {
		r.periodic["GET_STATUS"] = struct{}{}
	}
	for r.runStatus == "" {
		r.cond.Wait()
	}
	s := r.runStatus
	r.mu.Unlock()
	return s
}

// SessionState is a point-in-time snapshot of session fields, useful for
// logging and the Redis session mirror.
type SessionState struct {
	RunNumber      int64
	RunStatus      string
	MaxEventSize   int64
	WorkerAddress  string
	WorkerPort     int
	FrontendStatus string
}

// Session returns a snapshot of the current session state.
func (r *Registry) Session() SessionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return SessionState{
		RunNumber:      r.runNumber,
		RunStatus:      r.runStatus,
		MaxEventSize:   r.maxEventSize,
		WorkerAddress:  r.workerAddress,
		WorkerPort:     r.workerPort,
		FrontendStatus: r.frontendStatus,
	}
}

// Snapshot implements transport.SessionUpdater, giving the transport client
// the worker endpoint and configuration state it must re-read before every
// send.
func (r *Registry) Snapshot() transport.SessionSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return transport.SessionSnapshot{
		WorkerAddress:  r.workerAddress,
		WorkerPort:     r.workerPort,
		FrontendStatus: r.frontendStatus,
		MaxEventSize:   r.maxEventSize,
	}
}

// ApplyReply merges a parsed supervisor/worker reply into session state and
// wakes any goroutine blocked in GetRunNumber/GetRunStatus. Only fields
// present in the reply are applied (its Has* flags record presence).
func (r *Registry) ApplyReply(reply transport.Reply) {
	r.mu.Lock()
	if reply.HasRunNumber {
		r.runNumber = reply.RunNumber
	}
	if reply.HasEventSize {
		r.maxEventSize = reply.EventSize
	}
	if reply.HasRunStatus {
		r.runStatus = reply.RunStatus
	}
	if reply.HasAddress {
		r.workerAddress = reply.Address
	}
	if reply.HasPort {
		r.workerPort = reply.Port
	}
	if reply.HasFrontendStatus {
		r.frontendStatus = reply.FrontendStatus
	}
	r.mu.Unlock()
	r.cond.Broadcast()
}

// Abort invokes the registry's abort hook. Exported so transport can route
// server-signalled ERROR replies and other fatal conditions through the
// same hook producers use.
func (r *Registry) Abort(reason string) {
	r.abort(reason)
}

// PendingBankCount returns the number of banks with at least one queued
// record, used by the background loop to decide whether a tick has
// anything to flush.
func (r *Registry) PendingBankCount() int {
	r.mu.Lock()
	banks := append([]*gem.Bank(nil), r.banks...)
	r.mu.Unlock()

	n := 0
	for _, b := range banks {
		if b.PendingCount() > 0 {
			n++
		}
	}
	return n
}

// Flush produces zero, one, or one superbank of bytes from the live bank
// list, per the decision table in the flush-shape design: nothing if no
// banks are pending; a bare LVBANK if exactly one bank is pending; a GEA1
// superbank otherwise.
func (r *Registry) Flush() []byte {
	r.overflow.Decay()

	budget := r.maxEventSizeOrDefault()

	r.mu.Lock()
	banks := append([]*gem.Bank(nil), r.banks...)
	r.mu.Unlock()

	if len(banks) == 0 {
		return nil
	}

	pending := make([]*gem.Bank, 0, len(banks))
	for _, b := range banks {
		if b.PendingCount() > 0 {
			pending = append(pending, b)
		}
	}

	if len(pending) == 0 {
		return nil
	}
	if len(pending) == 1 {
		return pending[0].Flush(r, budget)
	}

	remaining := budget - gem.GEA1HeaderSize
	var payload []byte
	bankCount := uint32(0)
	for _, b := range pending {
		out := b.Flush(r, remaining)
		if len(out) == 0 {
			continue
		}
		payload = append(payload, out...)
		remaining -= len(out)
		bankCount++
	}

	r.mu.Lock()
	arrayID := r.bankArrayID
	r.bankArrayID++
	r.mu.Unlock()

	return gem.AppendSuperbank(nil, arrayID, payload, bankCount)
}

func (r *Registry) maxEventSizeOrDefault() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.maxEventSize < 0 {
		return 10000
	}
	return int(r.maxEventSize)
}

// OverflowCount returns the current BufferOverflowCount reading.
func (r *Registry) OverflowCount() int {
	return r.overflow.Value()
}

// BankArrayID returns the next superbank id that will be assigned, for
// diagnostics.
func (r *Registry) BankArrayID() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bankArrayID
}
