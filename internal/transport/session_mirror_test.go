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

import (
	"context"
	"testing"
)

type recordingHashWriter struct {
	key    string
	values []interface{}
}

func (w *recordingHashWriter) HSet(ctx context.Context, key string, values ...interface{}) error {
	w.key = key
	w.values = values
	return nil
}

func TestSessionMirrorRunWritesSnapshot(t *testing.T) {
	w := &recordingHashWriter{}
	m := NewSessionMirror(w, "frontend-1", 0)
	m.Run(context.Background(), SessionSnapshot{WorkerAddress: "1.2.3.4", WorkerPort: 9000, FrontendStatus: "OK", MaxEventSize: 65536}, nil)

	if w.key != "gem:session:frontend-1" {
		t.Fatalf("key = %q", w.key)
	}
	if len(w.values) == 0 {
		t.Fatal("expected values to be written")
	}
}

func TestSessionMirrorNilIsNoop(t *testing.T) {
	var m *SessionMirror
	m.Run(context.Background(), SessionSnapshot{}, nil) // must not panic
	if m.Interval() != 0 {
		t.Fatalf("Interval = %v, want 0", m.Interval())
	}
}

func TestSessionMirrorDisabledWriterIsNoop(t *testing.T) {
	m := NewSessionMirror(nil, "frontend-1", 0)
	m.Run(context.Background(), SessionSnapshot{}, nil) // must not panic
}
