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

import "fmt"

// DefaultLanguage is the language code used by EncodeText and by writers
// configured without WithLanguage.
const DefaultLanguage = "en"

// MaxLanguageCodeLength is the largest language code the 6-bit length field
// of the status byte can describe.
const MaxLanguageCodeLength = 0x3F

// Record type metadata for NFC Forum Text records.
const (
	TNFWellKnown   byte = 0x01
	TextRecordType      = "T"
)

// Status byte layout
const (
	statusUTF16Flag   byte = 0x80
	statusLengthMask  byte = 0x3F
	statusHeaderBytes      = 1
)

// TextEncoding selects how the text portion of a payload is encoded.
type TextEncoding int

const (
	// UTF8 is signalled by a clear bit 7 in the status byte.
	UTF8 TextEncoding = iota
	// UTF16 is signalled by a set bit 7 in the status byte.
	UTF16
)

// String returns the IANA name of the encoding
func (e TextEncoding) String() string {
	switch e {
	case UTF8:
		return "UTF-8"
	case UTF16:
		return "UTF-16"
	default:
		return fmt.Sprintf("TextEncoding(%d)", int(e))
	}
}

// TextRecord is a decoded NDEF Text record.
type TextRecord struct {
	Language string
	Text     string
	Encoding TextEncoding
}

// StatusByte derives the status byte describing this record.
func (r *TextRecord) StatusByte() byte {
	status := byte(len(r.Language)) & statusLengthMask
	if r.Encoding == UTF16 {
		status |= statusUTF16Flag
	}
	return status
}

// String returns a short human readable description
func (r *TextRecord) String() string {
	return fmt.Sprintf("[%s %s] %q", r.Language, r.Encoding, r.Text)
}

// EncodedRecord is a Text record payload plus the metadata needed to wrap it
// into an NDEF message of exactly one record.
type EncodedRecord struct {
	Type    string
	ID      []byte
	Payload []byte
	TNF     byte
}

// Record returns the TextRecord view of the encoded payload.
func (r *EncodedRecord) Record() (*TextRecord, error) {
	return Decode(r.Payload)
}
