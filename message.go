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

	"github.com/hsanjuan/go-ndef"
)

// NDEF record header flags
const (
	flagMB  byte = 0x80
	flagME  byte = 0x40
	flagCF  byte = 0x20
	flagSR  byte = 0x10
	flagIL  byte = 0x08
	tnfMask byte = 0x07

	shortRecordMaxLen = 0xFF
)

// Record is one record of a raw NDEF message. Only the payload is needed to
// decode a Text record; the other fields are carried for callers that filter.
type Record struct {
	Type    string
	ID      []byte
	Payload []byte
	TNF     byte
}

// Message is an ordered sequence of records.
type Message struct {
	Records []Record
}

// BuildMessage wraps an encoded record into an NDEF message of exactly one record.
func BuildMessage(rec *EncodedRecord) ([]byte, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: nil record", ErrMalformedMessage)
	}
	if len(rec.Type) > 0xFF || len(rec.ID) > 0xFF {
		return nil, fmt.Errorf("%w: type or ID too long", ErrMalformedMessage)
	}

	payloadLen := len(rec.Payload)
	flags := flagMB | flagME | (rec.TNF & tnfMask)
	if payloadLen <= shortRecordMaxLen {
		flags |= flagSR
	}
	if len(rec.ID) > 0 {
		flags |= flagIL
	}

	out := make([]byte, 0, 8+len(rec.Type)+len(rec.ID)+payloadLen)
	out = append(out, flags, byte(len(rec.Type)))
	if payloadLen <= shortRecordMaxLen {
		out = append(out, byte(payloadLen))
	} else {
		//nolint:gosec // payloadLen is non-negative and checked > 255
		out = binary.BigEndian.AppendUint32(out, uint32(payloadLen))
	}
	if len(rec.ID) > 0 {
		out = append(out, byte(len(rec.ID)))
	}
	out = append(out, rec.Type...)
	out = append(out, rec.ID...)
	out = append(out, rec.Payload...)

	if err := validateMessage(out, rec); err != nil {
		return nil, fmt.Errorf("generated invalid NDEF message: %w", err)
	}

	return out, nil
}

// validateMessage re-parses a built message with go-ndef
func validateMessage(data []byte, rec *EncodedRecord) error {
	msg := &ndef.Message{}
	if _, err := msg.Unmarshal(data); err != nil {
		return err
	}
	if len(msg.Records) != 1 {
		return fmt.Errorf("expected 1 record, got %d", len(msg.Records))
	}
	if got := msg.Records[0].TNF(); got != rec.TNF&tnfMask {
		return fmt.Errorf("TNF mismatch: %d != %d", got, rec.TNF)
	}
	if got := msg.Records[0].Type(); got != rec.Type {
		return fmt.Errorf("type mismatch: %q != %q", got, rec.Type)
	}
	return nil
}

// ParseMessage parses raw NDEF message bytes into records. Parsing stops
// after the record carrying the ME flag; trailing bytes are ignored.
func ParseMessage(data []byte) (*Message, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty message", ErrMalformedMessage)
	}

	msg := &Message{}
	offset := 0
	for offset < len(data) {
		rec, n, last, err := parseRecord(data[offset:])
		if err != nil {
			return nil, fmt.Errorf("record at offset %d: %w", offset, err)
		}
		msg.Records = append(msg.Records, rec)
		offset += n
		if last {
			break
		}
	}

	return msg, nil
}

func parseRecord(data []byte) (rec Record, n int, last bool, err error) {
	if len(data) < 3 {
		return rec, 0, false, fmt.Errorf("%w: truncated record header", ErrMalformedMessage)
	}

	flags := data[0]
	if flags&flagCF != 0 {
		return rec, 0, false, fmt.Errorf("%w: chunked records not supported", ErrMalformedMessage)
	}

	rec.TNF = flags & tnfMask
	typeLen := int(data[1])
	offset := 2

	var payloadLen int
	if flags&flagSR != 0 {
		payloadLen = int(data[offset])
		offset++
	} else {
		if offset+4 > len(data) {
			return rec, 0, false, fmt.Errorf("%w: truncated payload length", ErrMalformedMessage)
		}
		payloadLen = int(binary.BigEndian.Uint32(data[offset : offset+4]))
		offset += 4
	}

	var idLen int
	if flags&flagIL != 0 {
		if offset >= len(data) {
			return rec, 0, false, fmt.Errorf("%w: truncated ID length", ErrMalformedMessage)
		}
		idLen = int(data[offset])
		offset++
	}

	if payloadLen < 0 || offset+typeLen+idLen+payloadLen > len(data) {
		return rec, 0, false, fmt.Errorf("%w: truncated record body", ErrMalformedMessage)
	}

	rec.Type = string(data[offset : offset+typeLen])
	offset += typeLen
	rec.ID = append([]byte{}, data[offset:offset+idLen]...)
	offset += idLen
	rec.Payload = append([]byte{}, data[offset:offset+payloadLen]...)
	offset += payloadLen

	return rec, offset, flags&flagME != 0, nil
}
