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

package transport

import "testing"

func TestBraceBalance(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want int
	}{
		{"balanced", `{"a":1}`, 0},
		{"nested", `{"a":{"b":1}}`, 0},
		{"unbalanced string brace not special-cased", `{"a":"}"}`, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := braceBalance([]byte(tc.in)); got != tc.want {
				t.Fatalf("braceBalance(%q) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

func TestIsFatalReply(t *testing.T) {
	if !IsFatalReply([]byte("ERROR: bad run")) {
		t.Fatal("expected fatal")
	}
	if IsFatalReply([]byte(`{"err":"ERROR embedded"}`)) {
		t.Fatal("did not expect fatal for embedded ERROR")
	}
	if IsFatalReply([]byte("ERR")) {
		t.Fatal("too short to be fatal")
	}
}

func TestParseReplyRecognisedKeys(t *testing.T) {
	data := []byte(`{"RunNumber":42,"EventSize":65536,"RunStatus":"Running","SendToAddress":"10.0.0.5","SendToPort":9090,"FrontendStatus":"OK","MIDASTime":1.5,"msg":"hi","err":"","ignored_key":"x"}`)
	r, err := ParseReply(data)
	if err != nil {
		t.Fatalf("ParseReply: %v", err)
	}
	if !r.HasRunNumber || r.RunNumber != 42 {
		t.Fatalf("RunNumber = %v/%d", r.HasRunNumber, r.RunNumber)
	}
	if !r.HasEventSize || r.EventSize != 65536 {
		t.Fatalf("EventSize = %v/%d", r.HasEventSize, r.EventSize)
	}
	if !r.HasRunStatus || r.RunStatus != "Running" {
		t.Fatalf("RunStatus = %v/%q", r.HasRunStatus, r.RunStatus)
	}
	if !r.HasAddress || r.Address != "10.0.0.5" {
		t.Fatalf("Address = %v/%q", r.HasAddress, r.Address)
	}
	if !r.HasPort || r.Port != 9090 {
		t.Fatalf("Port = %v/%d", r.HasPort, r.Port)
	}
	if !r.HasFrontendStatus || r.FrontendStatus != "OK" {
		t.Fatalf("FrontendStatus = %v/%q", r.HasFrontendStatus, r.FrontendStatus)
	}
	if r.Msg != "hi" {
		t.Fatalf("Msg = %q", r.Msg)
	}
}

func TestParseReplyEmpty(t *testing.T) {
	r, err := ParseReply(nil)
	if err != nil {
		t.Fatalf("ParseReply: %v", err)
	}
	if r.HasRunNumber || r.HasEventSize || r.HasRunStatus {
		t.Fatalf("expected zero Reply, got %+v", r)
	}
}

func TestParseReplyBothAddressAndPortAppliedIndependently(t *testing.T) {
	// Both SendToAddress and SendToPort may arrive together; each is applied
	// independently by the caller with no joint validation.
	data := []byte(`{"SendToAddress":"1.2.3.4","SendToPort":1234}`)
	r, err := ParseReply(data)
	if err != nil {
		t.Fatalf("ParseReply: %v", err)
	}
	if r.Address != "1.2.3.4" || r.Port != 1234 {
		t.Fatalf("got %q:%d", r.Address, r.Port)
	}
}
