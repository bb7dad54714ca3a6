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

// gem-mockserver is a standalone TCP listener that speaks just enough of
// the supervisor/worker JSON-reply protocol to drive a gem frontend through
// handshake and flush manually, without a real MIDAS installation.
//
// Usage:
//
//	gem-mockserver -addr=:1175 -handshake_after=3 -worker_port=1176
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"
)

func main() {
	addr := flag.String("addr", ":1175", "Listen address")
	handshakeAfter := flag.Int("handshake_after", 2, "Number of connections to answer with an empty frontend_status before advertising one")
	frontendStatus := flag.String("frontend_status", "Running", "frontend_status value advertised once the handshake completes")
	eventSize := flag.Int64("event_size", 10000, "EventSize value included in every reply")
	workerAddress := flag.String("worker_address", "127.0.0.1", "SendToAddress value included in every reply")
	workerPort := flag.Int("worker_port", 1176, "SendToPort value included in every reply")
	runNumber := flag.Int("run_number", 1, "RunNumber value included in every reply")
	runStatus := flag.String("run_status", "Running", "RunStatus value included in every reply")
	readTimeout := flag.Duration("read_timeout", 5*time.Second, "Per-connection read timeout")
	flag.Parse()

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gem-mockserver: listen: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("gem-mockserver: listening on %s\n", *addr)

	var connCount atomic.Int64
	srv := &mockServer{
		handshakeAfter: int64(*handshakeAfter),
		frontendStatus: *frontendStatus,
		eventSize:      *eventSize,
		workerAddress:  *workerAddress,
		workerPort:     *workerPort,
		runNumber:      *runNumber,
		runStatus:      *runStatus,
		readTimeout:    *readTimeout,
		connCount:      &connCount,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		fmt.Println("\ngem-mockserver: shutting down...")
		cancel()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				fmt.Fprintf(os.Stderr, "gem-mockserver: accept: %v\n", err)
				continue
			}
		}
		go srv.handle(conn)
	}
}

type mockServer struct {
	handshakeAfter int64
	frontendStatus string
	eventSize      int64
	workerAddress  string
	workerPort     int
	runNumber      int
	runStatus      string
	readTimeout    time.Duration

	connCount *atomic.Int64
}

func (s *mockServer) handle(conn net.Conn) {
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil && err != io.EOF {
		fmt.Printf("gem-mockserver: read error from %s: %v\n", conn.RemoteAddr(), err)
		return
	}
	fmt.Printf("gem-mockserver: received %d bytes from %s\n", n, conn.RemoteAddr())

	seen := s.connCount.Add(1)

	frontendStatus := ""
	if seen > s.handshakeAfter {
		frontendStatus = s.frontendStatus
	}

	reply := fmt.Sprintf(
		`{"RunNumber":%d,"EventSize":%d,"RunStatus":"%s","SendToAddress":"%s","SendToPort":%d,"FrontendStatus":"%s","msg":"ok"}`,
		s.runNumber, s.eventSize, s.runStatus, s.workerAddress, s.workerPort, frontendStatus)

	if _, err := conn.Write([]byte(reply)); err != nil {
		fmt.Printf("gem-mockserver: write error to %s: %v\n", conn.RemoteAddr(), err)
	}
}
