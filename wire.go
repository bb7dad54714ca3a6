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

import "encoding/binary"

// Wire tags and fixed field widths. All multi-byte integers are packed
// little-endian regardless of host order; the ts/data byte-order header
// fields merely record the host's order for the reader's benefit.
const (
	lvbankTag     = "GEB1"
	gea1Tag       = "GEA1"
	categoryWidth = 16
	varnameWidth  = 16
	descWidth     = 32

	// LVBANKHeaderSize is the fixed size of an LVBANK header, before the
	// payload: tag(4) + datatype(4) + category(16) + varname(16) +
	// description(32) + history_settings(2) + history_rate(2) +
	// ts_byte_order(2) + data_byte_order(2) + block_size(4) + num_blocks(4).
	LVBANKHeaderSize = 4 + 4 + categoryWidth + varnameWidth + descWidth + 2 + 2 + 2 + 2 + 4 + 4

	// GEA1HeaderSize is the fixed size of a GEA1 superbank header: tag(4) +
	// array_id(4) + payload_len(4) + bank_count(4).
	GEA1HeaderSize = 4 + 4 + 4 + 4
)

// hostByteOrderCode reports the host's native byte order code, as carried in
// the LVBANK ts_byte_order/data_byte_order fields: 1 for big-endian, 2 for
// little-endian.
func hostByteOrderCode() int16 {
	var buf [2]byte
	binary.NativeEndian.PutUint16(buf[:], 1)
	if buf[0] == 1 {
		return 2 // little-endian: low byte stored first
	}
	return 1 // big-endian
}

// fixedField returns s truncated to width bytes and right-padded with NUL,
// ready for a fixed-width header field.
func fixedField(s string, width int) []byte {
	b := make([]byte, width)
	n := copy(b, s)
	_ = n
	return b
}

// bankHeader holds the identity/metadata fields of one Bank, everything an
// LVBANK header needs besides block_size/num_blocks/payload.
type bankHeader struct {
	datatype        TypeTag
	category        string
	varname         string
	description     string
	historySettings int16
	historyRate     int16
}

// appendLVBANKHeader appends the 88-byte LVBANK header for h, describing
// numBlocks records of blockSize bytes each, to buf.
func appendLVBANKHeader(buf []byte, h bankHeader, blockSize, numBlocks int32) []byte {
	buf = append(buf, lvbankTag...)
	buf = append(buf, h.datatype[:]...)
	buf = append(buf, fixedField(h.category, categoryWidth)...)
	buf = append(buf, fixedField(h.varname, varnameWidth)...)
	buf = append(buf, fixedField(h.description, descWidth)...)

	var tmp [16]byte
	binary.LittleEndian.PutUint16(tmp[0:2], uint16(h.historySettings))
	binary.LittleEndian.PutUint16(tmp[2:4], uint16(h.historyRate))
	order := hostByteOrderCode()
	binary.LittleEndian.PutUint16(tmp[4:6], uint16(order))
	binary.LittleEndian.PutUint16(tmp[6:8], uint16(order))
	binary.LittleEndian.PutUint32(tmp[8:12], uint32(blockSize))
	binary.LittleEndian.PutUint32(tmp[12:16], uint32(numBlocks))
	return append(buf, tmp[:]...)
}

// appendGEA1Header appends the 16-byte GEA1 superbank header to buf.
func appendGEA1Header(buf []byte, arrayID uint32, payloadLen, bankCount uint32) []byte {
	buf = append(buf, gea1Tag...)
	var tmp [12]byte
	binary.LittleEndian.PutUint32(tmp[0:4], arrayID)
	binary.LittleEndian.PutUint32(tmp[4:8], payloadLen)
	binary.LittleEndian.PutUint32(tmp[8:12], bankCount)
	return append(buf, tmp[:]...)
}

// AppendSuperbank appends a complete GEA1 superbank (header plus payload,
// the concatenation of one or more already-framed LVBANK records) to buf
// and returns the extended slice. It is exported for internal/registry,
// which assembles the concatenated LVBANK payload itself.
func AppendSuperbank(buf []byte, arrayID uint32, payload []byte, bankCount uint32) []byte {
	buf = appendGEA1Header(buf, arrayID, uint32(len(payload)), bankCount)
	return append(buf, payload...)
}
