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
	"errors"
	"fmt"
	"os"
	"time"

	"gem"
)

// SessionSnapshot is the subset of session state the transport layer reads
// before every send and during the handshake loop.
type SessionSnapshot struct {
	WorkerAddress  string
	WorkerPort     int
	FrontendStatus string
	MaxEventSize   int64
}

// SessionUpdater is the narrow interface the Client needs from the
// registry: a place to apply parsed replies, a place to escalate fatal
// conditions, and a read of the current session snapshot. Defined here
// rather than imported from the registry package to keep transport free of
// a dependency on it.
type SessionUpdater interface {
	ApplyReply(r Reply)
	Abort(reason string)
	Snapshot() SessionSnapshot
}

// Client bundles a Sender with the session it negotiates and implements
// both the reconnect/retry policy for ordinary sends and the one-time
// (re-runnable) supervisor handshake.
type Client struct {
	Sender     Sender
	Session    SessionUpdater
	Supervisor Endpoint

	// ConfiguredMaxEventSize is the max_event_size argument from the public
	// constructor. Zero means "not configured"; SET_EVENT_SIZE is only
	// enqueued during the handshake when this is positive.
	ConfiguredMaxEventSize int64
}

type noopFlushOwner struct{}

func (noopFlushOwner) NoteBankOverflow() {}

// packBanks flushes banks into a single LVBANK (one bank) or a GEA1
// superbank (more than one), mirroring Registry.Flush's shape decision but
// operating on a standalone bank list with no Registry backing it.
func packBanks(banks []*gem.Bank, budget int) []byte {
	if len(banks) == 0 {
		return nil
	}
	if len(banks) == 1 {
		return banks[0].Flush(noopFlushOwner{}, budget)
	}

	remaining := budget - gem.GEA1HeaderSize
	var payload []byte
	var count uint32
	for _, b := range banks {
		out := b.Flush(noopFlushOwner{}, remaining)
		if len(out) == 0 {
			continue
		}
		payload = append(payload, out...)
		remaining -= len(out)
		count++
	}
	return gem.AppendSuperbank(nil, 0, payload, count)
}

func commandBank(command, payload string) *gem.Bank {
	b := gem.NewBank(gem.TypeString, "THISHOST", "COMMAND", command, 0, 0)
	_, data, err := gem.Classify(gem.TextPayload(payload))
	if err != nil {
		panic(err) // TextPayload is always classifiable
	}
	b.Append(gem.Now(), data)
	return b
}

// RunHandshake executes the supervisor handshake: START_FRONTEND,
// ALLOW_HOST, GIVE_ME_ADDRESS, GIVE_ME_PORT carrying the host name, flushed
// to the supervisor and retried until FrontendStatus becomes non-empty;
// then, if a max event size was configured, SET_EVENT_SIZE; then
// GET_EVENT_SIZE retried until MaxEventSize is known.
func (c *Client) RunHandshake(ctx context.Context) error {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown-host"
	}

	for {
		banks := []*gem.Bank{
			commandBank("START_FRONTEND", hostname),
			commandBank("ALLOW_HOST", hostname),
			commandBank("GIVE_ME_ADDRESS", hostname),
			commandBank("GIVE_ME_PORT", hostname),
		}
		if _, err := c.sendWithRetry(ctx, c.Supervisor, packBanks(banks, 10000), 10*time.Second, false); err != nil {
			return err
		}
		if c.Session.Snapshot().FrontendStatus != "" {
			break
		}
		time.Sleep(time.Second)
	}

	if c.ConfiguredMaxEventSize > 0 {
		b := commandBank("SET_EVENT_SIZE", fmt.Sprintf("%d", c.ConfiguredMaxEventSize))
		if _, err := c.sendWithRetry(ctx, c.Supervisor, packBanks([]*gem.Bank{b}, 10000), 10*time.Second, false); err != nil {
			return err
		}
	}

	for {
		b := gem.NewBank(gem.TypeOpaque, "THISHOST", "COMMAND", "GET_EVENT_SIZE", 0, 0)
		b.Append(gem.Now(), []byte{0})
		if _, err := c.sendWithRetry(ctx, c.Supervisor, packBanks([]*gem.Bank{b}, 10000), 10*time.Second, false); err != nil {
			return err
		}
		if c.Session.Snapshot().MaxEventSize >= 0 {
			break
		}
		time.Sleep(time.Second)
	}
	return nil
}

// SendWithTimeout sends payload to the current worker endpoint (falling
// back to the supervisor endpoint until one has been advertised), applying
// the full reconnect/retry policy including re-handshaking on a refused
// connection to a rebound port.
func (c *Client) SendWithTimeout(ctx context.Context, payload []byte, timeout time.Duration) ([]byte, error) {
	snap := c.Session.Snapshot()
	to := c.Supervisor
	if snap.WorkerAddress != "" {
		to.Address = snap.WorkerAddress
	}
	if snap.WorkerPort != 0 {
		to.Port = snap.WorkerPort
	}
	return c.sendWithRetry(ctx, to, payload, timeout, true)
}

// sendWithRetry implements the taxonomy from the error-handling design:
// timeout is logged and swallowed; reset retries immediately; refused
// sleeps one second and, if allowed and the port has moved off the
// supervisor's, re-handshakes before retrying; any other OS error is
// logged and aborts the send; anything unrecognised escalates through the
// abort hook.
func (c *Client) sendWithRetry(ctx context.Context, to Endpoint, payload []byte, timeout time.Duration, allowRehandshake bool) ([]byte, error) {
	reply, err := c.Sender.Send(ctx, to, payload, timeout)
	if err != nil {
		switch {
		case errors.Is(err, ErrTimeout):
			fmt.Printf("gem/transport: read timeout sending to %s:%d: %v\n", to.Address, to.Port, err)
			return nil, nil
		case errors.Is(err, ErrReset):
			fmt.Printf("gem/transport: connection reset sending to %s:%d, retrying\n", to.Address, to.Port)
			return c.sendWithRetry(ctx, to, payload, timeout, allowRehandshake)
		case errors.Is(err, ErrRefused):
			fmt.Printf("gem/transport: connection refused by %s:%d, retrying in 1s\n", to.Address, to.Port)
			time.Sleep(time.Second)
			if allowRehandshake && to.Port != c.Supervisor.Port {
				if herr := c.RunHandshake(ctx); herr != nil {
					return nil, herr
				}
			}
			return c.sendWithRetry(ctx, to, payload, timeout, allowRehandshake)
		case errors.Is(err, ErrOSError):
			fmt.Printf("gem/transport: unhandled OS error sending to %s:%d, aborting send: %v\n", to.Address, to.Port, err)
			return nil, err
		default:
			c.Session.Abort(fmt.Sprintf("unrecognised transport exception: %v", err))
			return nil, err
		}
	}

	if len(reply) == 0 {
		return nil, nil
	}
	if IsFatalReply(reply) {
		c.Session.Abort(fmt.Sprintf("server signalled fatal error: %s", reply))
		return reply, nil
	}

	parsed, perr := ParseReply(reply)
	if perr != nil {
		fmt.Printf("gem/transport: malformed reply, ignoring: %v\n", perr)
		return reply, nil
	}
	c.Session.ApplyReply(parsed)
	if parsed.Msg != "" {
		fmt.Println("gem: server msg:", parsed.Msg)
	}
	if parsed.Err != "" {
		fmt.Println("gem: server err:", parsed.Err)
	}
	return reply, nil
}
