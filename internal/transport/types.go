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

// Package transport implements the per-send TCP protocol, reply parsing,
// and supervisor handshake used to move packed LVBANK/GEA1 bytes to the
// worker endpoint and to receive session-state updates back.
package transport

import (
	"context"
	"time"
)

// Endpoint is an (address, port) pair.
type Endpoint struct {
	Address string
	Port    int
}

// Sender is the minimal interface the flush loop and handshake depend on.
// The production implementation (TCPSender) opens and closes a fresh
// connection per send; tests substitute an in-process fake.
type Sender interface {
	Send(ctx context.Context, to Endpoint, payload []byte, timeout time.Duration) (reply []byte, err error)
}
