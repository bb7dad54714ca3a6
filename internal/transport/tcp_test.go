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
	"bytes"
	"context"
	"net"
	"testing"
	"time"
)

// pipeDialer returns a Dialer that hands back one side of a net.Pipe and
// runs serve on the other side in a background goroutine.
func pipeDialer(t *testing.T, serve func(net.Conn)) func(ctx context.Context, network, address string) (net.Conn, error) {
	t.Helper()
	return func(ctx context.Context, network, address string) (net.Conn, error) {
		client, server := net.Pipe()
		go serve(server)
		return client, nil
	}
}

func TestTCPSenderSendReceivesBalancedReply(t *testing.T) {
	want := []byte(`{"RunNumber":42}`)
	sender := &TCPSender{Dialer: pipeDialer(t, func(conn net.Conn) {
		defer conn.Close()
		buf := make([]byte, 1024)
		n, _ := conn.Read(buf)
		if !bytes.Equal(buf[:n], []byte("ping")) {
			t.Errorf("server got %q, want ping", buf[:n])
		}
		conn.Write(want)
	})}

	reply, err := sender.Send(context.Background(), Endpoint{Address: "x", Port: 1}, []byte("ping"), time.Second)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !bytes.Equal(reply, want) {
		t.Fatalf("reply = %q, want %q", reply, want)
	}
}

func TestTCPSenderSendEmptyReplyOnEOF(t *testing.T) {
	sender := &TCPSender{Dialer: pipeDialer(t, func(conn net.Conn) {
		conn.Read(make([]byte, 1024))
		conn.Close()
	})}

	reply, err := sender.Send(context.Background(), Endpoint{Address: "x", Port: 1}, []byte("ping"), time.Second)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(reply) != 0 {
		t.Fatalf("reply = %q, want empty", reply)
	}
}

func TestTCPSenderSendDialError(t *testing.T) {
	sender := &TCPSender{Dialer: func(ctx context.Context, network, address string) (net.Conn, error) {
		return nil, &net.OpError{Op: "dial", Err: errConnRefused{}}
	}}
	_, err := sender.Send(context.Background(), Endpoint{Address: "x", Port: 1}, []byte("ping"), time.Second)
	if err == nil {
		t.Fatal("expected an error")
	}
}

type errConnRefused struct{}

func (errConnRefused) Error() string { return "connection refused" }
