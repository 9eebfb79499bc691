// go-ndeftext
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-ndeftext.
//
// go-ndeftext is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-ndeftext is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-ndeftext; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package ndeftext

import (
	"encoding/binary"
	"fmt"
)

// TLV types of the NFC Forum Type 2 Tag data area
const (
	TLVTypeNull          = 0x00
	TLVTypeLockControl   = 0x01
	TLVTypeMemoryControl = 0x02
	TLVTypeNDEF          = 0x03
	TLVTypeTerminator    = 0xFE

	tlvLongFormMarker = 0xFF
	maxTLVLength      = 0xFFFF
)

// WrapTLV places an NDEF message inside an NDEF TLV followed by a terminator.
func WrapTLV(msg []byte) ([]byte, error) {
	length := len(msg)
	if length > maxTLVLength {
		return nil, fmt.Errorf("%w: %d bytes exceeds TLV limit %d", ErrMessageTooLarge, length, maxTLVLength)
	}

	out := make([]byte, 0, length+5)
	if length < tlvLongFormMarker {
		out = append(out, TLVTypeNDEF, byte(length))
	} else {
		// NFCForum-TS-Type-2-Tag_1.1 section 2.3: three byte length format
		out = append(out, TLVTypeNDEF, tlvLongFormMarker)
		out = binary.BigEndian.AppendUint16(out, uint16(length))
	}
	out = append(out, msg...)
	out = append(out, TLVTypeTerminator)
	return out, nil
}

// UnwrapTLV scans a Type 2 Tag data area and returns a copy of the first
// NDEF message found.
func UnwrapTLV(data []byte) ([]byte, error) {
	offset := 0
	for offset < len(data) {
		tlvType := data[offset]
		switch tlvType {
		case TLVTypeNull:
			offset++
			continue
		case TLVTypeTerminator:
			return nil, ErrNoNDEF
		}

		length, start, err := parseTLVLength(data, offset)
		if err != nil {
			return nil, err
		}
		if start+length > len(data) {
			return nil, fmt.Errorf("%w: TLV 0x%02X claims %d bytes, %d available",
				ErrMalformedMessage, tlvType, length, len(data)-start)
		}

		if tlvType == TLVTypeNDEF {
			return append([]byte{}, data[start:start+length]...), nil
		}
		offset = start + length
	}
	return nil, ErrNoNDEF
}

// parseTLVLength reads the length field of the TLV at offset i and returns the
// value length and the index where the value starts.
func parseTLVLength(data []byte, i int) (length, start int, err error) {
	if i+1 >= len(data) {
		return 0, 0, fmt.Errorf("%w: TLV length missing", ErrMalformedMessage)
	}
	if data[i+1] != tlvLongFormMarker {
		return int(data[i+1]), i + 2, nil
	}
	if i+3 >= len(data) {
		return 0, 0, fmt.Errorf("%w: long TLV length truncated", ErrMalformedMessage)
	}
	return int(binary.BigEndian.Uint16(data[i+2 : i+4])), i + 4, nil
}
