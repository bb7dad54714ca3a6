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

// Package gem provides the core, reusable building blocks of a MIDAS-style
// slow-control telemetry shipper: the LabVIEW-epoch timestamp codec, the
// payload type classifier, the per-variable Bank queue, and the LVDATA /
// LVBANK / GEA1 binary wire encoders. It has no network or scheduling logic;
// those live in internal/registry and internal/transport.
package gem

import (
	"encoding/binary"
	"math/bits"
	"time"
)

// epochOffsetSeconds is the number of seconds between the LabVIEW epoch
// (1904-01-01 UTC) and the Unix epoch (1970-01-01 UTC).
const epochOffsetSeconds int64 = 2_082_844_800

// Timestamp is a 128-bit LabVIEW-style fixed point time value: a signed
// 64-bit second count since the 1904 epoch, and an unsigned 64-bit binary
// fraction of a second. It is always packed little-endian on the wire,
// regardless of host byte order.
type Timestamp struct {
	Seconds  int64
	Fraction uint64
}

// Now returns the current wall-clock time as a Timestamp. Leap seconds are
// not corrected; the conversion is a plain floor/fraction split of the Unix
// time shifted into the LabVIEW epoch.
func Now() Timestamp {
	return fromUnix(time.Now().UTC())
}

func fromUnix(t time.Time) Timestamp {
	unixSeconds := t.Unix()
	nanoFraction := t.Nanosecond()
	seconds := unixSeconds + epochOffsetSeconds
	// fraction = floor(nanoFraction/1e9 * 2^64). nanoFraction*2^64 as a
	// 128-bit value is simply (hi=nanoFraction, lo=0); dividing that by
	// 1e9 with bits.Div64 avoids the float64 rounding a naive
	// nanoFraction/1e9*2^64 computation would introduce.
	fraction, _ := bits.Div64(uint64(nanoFraction), 0, 1_000_000_000)
	return Timestamp{Seconds: seconds, Fraction: fraction}
}

// Decode returns the Unix time (seconds since 1970-01-01 UTC) represented by
// ts, discarding the sub-second fraction.
func Decode(ts Timestamp) int64 {
	return ts.Seconds - epochOffsetSeconds
}

// timestampWidth is the on-wire size of a packed Timestamp: 8 bytes of
// signed seconds plus 8 bytes of unsigned fraction.
const timestampWidth = 16

// appendTimestamp appends the little-endian wire encoding of ts to buf and
// returns the extended slice.
func appendTimestamp(buf []byte, ts Timestamp) []byte {
	var tmp [timestampWidth]byte
	binary.LittleEndian.PutUint64(tmp[0:8], uint64(ts.Seconds))
	binary.LittleEndian.PutUint64(tmp[8:16], ts.Fraction)
	return append(buf, tmp[:]...)
}
