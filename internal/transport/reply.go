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

import "encoding/json"

// braceBalance scans buf and returns the running brace counter (incremented
// on '{', decremented on '}'). It does not special-case braces inside
// quoted JSON strings — a literal byte count, matching the source protocol.
func braceBalance(buf []byte) int {
	balance := 0
	for _, c := range buf {
		switch c {
		case '{':
			balance++
		case '}':
			balance--
		}
	}
	return balance
}

// fatalPrefix is the literal byte sequence that marks a server reply as an
// unconditional fatal signal.
const fatalPrefix = "ERROR"

// IsFatalReply reports whether reply's first five bytes are the literal
// ERROR marker.
func IsFatalReply(reply []byte) bool {
	return len(reply) >= len(fatalPrefix) && string(reply[:len(fatalPrefix)]) == fatalPrefix
}

// Reply is the parsed shape of a supervisor/worker JSON reply. Each Has*
// flag records whether the corresponding key was present, since a reply
// typically carries only a subset of the recognised keys. Unrecognised
// keys are ignored.
type Reply struct {
	HasRunNumber bool
	RunNumber    int64

	HasEventSize bool
	EventSize    int64

	HasRunStatus bool
	RunStatus    string

	HasAddress bool
	Address    string

	HasPort bool
	Port    int

	HasFrontendStatus bool
	FrontendStatus    string

	HasMIDASTime bool
	MIDASTime    float64

	Msg string
	Err string
}

// rawReply mirrors the on-wire JSON keys with pointer fields so presence
// can be distinguished from a zero value.
type rawReply struct {
	RunNumber      *int64   `json:"RunNumber"`
	EventSize      *int64   `json:"EventSize"`
	RunStatus      *string  `json:"RunStatus"`
	SendToAddress  *string  `json:"SendToAddress"`
	SendToPort     *int     `json:"SendToPort"`
	FrontendStatus *string  `json:"FrontendStatus"`
	MIDASTime      *float64 `json:"MIDASTime"`
	Msg            *string  `json:"msg"`
	Err            *string  `json:"err"`
}

// ParseReply parses a JSON object reply, extracting only the recognised
// keys. An empty reply yields a zero Reply and a nil error; data that
// json.Unmarshal rejects (malformed JSON, or an array, string or number
// where an object is expected) returns that error.
func ParseReply(data []byte) (Reply, error) {
	var raw rawReply
	if len(data) == 0 {
		return Reply{}, nil
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Reply{}, err
	}

	var r Reply
	if raw.RunNumber != nil {
		r.HasRunNumber, r.RunNumber = true, *raw.RunNumber
	}
	if raw.EventSize != nil {
		r.HasEventSize, r.EventSize = true, *raw.EventSize
	}
	if raw.RunStatus != nil {
		r.HasRunStatus, r.RunStatus = true, *raw.RunStatus
	}
	if raw.SendToAddress != nil {
		r.HasAddress, r.Address = true, *raw.SendToAddress
	}
	if raw.SendToPort != nil {
		r.HasPort, r.Port = true, *raw.SendToPort
	}
	if raw.FrontendStatus != nil {
		r.HasFrontendStatus, r.FrontendStatus = true, *raw.FrontendStatus
	}
	if raw.MIDASTime != nil {
		r.HasMIDASTime, r.MIDASTime = true, *raw.MIDASTime
	}
	if raw.Msg != nil {
		r.Msg = *raw.Msg
	}
	if raw.Err != nil {
		r.Err = *raw.Err
	}
	return r, nil
}
