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

package gem

import (
	"encoding/binary"
	"fmt"
	"math"
)

// TypeTag is the 4-byte, NUL-padded ASCII wire tag identifying a payload's
// on-wire representation.
type TypeTag [4]byte

var (
	TypeDouble  = TypeTag{'D', 'B', 'L', 0}
	TypeFloat   = TypeTag{'F', 'L', 'T', 0}
	TypeInt32   = TypeTag{'I', '3', '2', 0}
	TypeUint32  = TypeTag{'U', '3', '2', 0}
	TypeString  = TypeTag{'S', 'T', 'R', 0}
	TypeOpaque  = TypeTag{'U', '8', 0, 0}
	TypeUnknown = TypeTag{'N', 'U', 'L', 'L'}
)

// Payload is a tagged union over the shapes AddData accepts: typed numeric
// arrays, UTF-8 text, or an opaque byte blob. It replaces runtime type
// sniffing (see DESIGN NOTES, "Polymorphic payload") with a constructor per
// shape; the classifier becomes a matter of asking which field is set.
type Payload struct {
	tag TypeTag

	float64s []float64
	float32s []float32
	int32s   []int32
	uint32s  []uint32
	text     string
	opaque   []byte
}

// Float64Payload wraps a slice of float64 (DBL\0). A plain []float64 list
// (as opposed to a typed numeric array of another element kind) is always
// promoted to this shape.
func Float64Payload(v []float64) Payload { return Payload{tag: TypeDouble, float64s: v} }

// Float32Payload wraps a slice of float32 (FLT\0).
func Float32Payload(v []float32) Payload { return Payload{tag: TypeFloat, float32s: v} }

// Int32Payload wraps a slice of int32 (I32\0).
func Int32Payload(v []int32) Payload { return Payload{tag: TypeInt32, int32s: v} }

// Uint32Payload wraps a slice of uint32 (U32\0).
func Uint32Payload(v []uint32) Payload { return Payload{tag: TypeUint32, uint32s: v} }

// TextPayload wraps UTF-8 text (STR\0). A trailing NUL is appended on encode.
func TextPayload(v string) Payload { return Payload{tag: TypeString, text: v} }

// OpaquePayload wraps an opaque byte blob (U8\0\0), for data the caller does
// not want classified any further.
func OpaquePayload(v []byte) Payload { return Payload{tag: TypeOpaque, opaque: v} }

// Floats returns p's values as float64 when p holds a float64 or float32
// array, widening float32 elements; ok is false for any other shape. It
// exists for callers (the CSV test-mode sink) that need to render a
// payload's numeric values without reaching into Payload's internals.
func (p Payload) Floats() (values []float64, ok bool) {
	switch p.tag {
	case TypeDouble:
		return p.float64s, true
	case TypeFloat:
		out := make([]float64, len(p.float32s))
		for i, f := range p.float32s {
			out[i] = float64(f)
		}
		return out, true
	default:
		return nil, false
	}
}

// ErrUnclassifiable is returned by Classify for a payload with no assigned
// type tag (the zero Payload) — spec.md calls this "NULL, must not be
// flushed". Encountering it is a programming error in the caller.
var ErrUnclassifiable = fmt.Errorf("gem: payload has no assigned type tag")

// Classify returns the wire type tag for p and its contiguous byte
// encoding, ready to append to an LVDATA record. It returns
// ErrUnclassifiable if p is the zero Payload.
func Classify(p Payload) (TypeTag, []byte, error) {
	switch p.tag {
	case TypeDouble:
		return TypeDouble, encodeFloat64s(p.float64s), nil
	case TypeFloat:
		return TypeFloat, encodeFloat32s(p.float32s), nil
	case TypeInt32:
		return TypeInt32, encodeInt32s(p.int32s), nil
	case TypeUint32:
		return TypeUint32, encodeUint32s(p.uint32s), nil
	case TypeString:
		return TypeString, append([]byte(p.text), 0), nil
	case TypeOpaque:
		return TypeOpaque, p.opaque, nil
	default:
		return TypeUnknown, nil, ErrUnclassifiable
	}
}

func encodeFloat64s(v []float64) []byte {
	out := make([]byte, 8*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(f))
	}
	return out
}

func encodeFloat32s(v []float32) []byte {
	out := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

func encodeInt32s(v []int32) []byte {
	out := make([]byte, 4*len(v))
	for i, n := range v {
		binary.LittleEndian.PutUint32(out[i*4:], uint32(n))
	}
	return out
}

func encodeUint32s(v []uint32) []byte {
	out := make([]byte, 4*len(v))
	for i, n := range v {
		binary.LittleEndian.PutUint32(out[i*4:], n)
	}
	return out
}
