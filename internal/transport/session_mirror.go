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
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// SessionHashWriter abstracts the minimal Redis surface a session mirror
// needs. Implementations may wrap github.com/redis/go-redis/v9 (HSet) or
// any equivalent.
type SessionHashWriter interface {
	HSet(ctx context.Context, key string, values ...interface{}) error
}

// GoRedisSessionWriter is a production SessionHashWriter backed by a real
// github.com/redis/go-redis/v9 client.
type GoRedisSessionWriter struct{ client *redis.Client }

// NewGoRedisSessionWriter returns a writer connected to addr (e.g.
// "127.0.0.1:6379").
func NewGoRedisSessionWriter(addr string) *GoRedisSessionWriter {
	return &GoRedisSessionWriter{client: redis.NewClient(&redis.Options{Addr: addr})}
}

func (w *GoRedisSessionWriter) HSet(ctx context.Context, key string, values ...interface{}) error {
	return w.client.HSet(ctx, key, values...).Err()
}

// SessionMirrorKey is the Redis hash key a session mirror writes to for a
// given frontend instance name.
func SessionMirrorKey(instance string) string {
	return fmt.Sprintf("gem:session:%s", instance)
}

// SessionMirror periodically publishes a read-only snapshot of session
// state to Redis for cross-process dashboards. It never participates in
// the flush hot path and is never required for correctness: a nil or
// disabled mirror is a silent no-op. This does not persist measurement
// data and so does not reintroduce the "no persistent spooling" non-goal
// — only session metadata (worker endpoint, frontend status, max event
// size) is mirrored; run number and run status are not written. It uses a
// plain HSET with no idempotency marker, since there is
// no retried side effect here to dedupe.
type SessionMirror struct {
	writer   SessionHashWriter
	key      string
	interval time.Duration
}

// NewSessionMirror returns a mirror that writes to SessionMirrorKey(instance)
// via writer. A nil writer disables mirroring; callers may construct one
// unconditionally and let Run become a no-op.
func NewSessionMirror(writer SessionHashWriter, instance string, interval time.Duration) *SessionMirror {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &SessionMirror{writer: writer, key: SessionMirrorKey(instance), interval: interval}
}

// Run publishes snap once. cmd/gem-frontend calls it from a single
// goroutine on a ticker of Interval(), so writes against the key never
// overlap.
func (m *SessionMirror) Run(ctx context.Context, snap SessionSnapshot, extra map[string]string) {
	if m == nil || m.writer == nil {
		return
	}
	values := []interface{}{
		"worker_address", snap.WorkerAddress,
		"worker_port", snap.WorkerPort,
		"frontend_status", snap.FrontendStatus,
		"max_event_size", snap.MaxEventSize,
	}
	for k, v := range extra {
		values = append(values, k, v)
	}
	if err := m.writer.HSet(ctx, m.key, values...); err != nil {
		fmt.Printf("gem/transport: session mirror write failed: %v\n", err)
	}
}

// Interval returns the configured publish interval, for the caller's
// ticker setup.
func (m *SessionMirror) Interval() time.Duration {
	if m == nil {
		return 0
	}
	return m.interval
}
