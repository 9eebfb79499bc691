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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		payload  []byte
		lang     string
		text     string
		encoding TextEncoding
	}{
		{
			name:     "UTF8_English",
			payload:  []byte{0x02, 'e', 'n', 'H', 'e', 'l', 'l', 'o'},
			lang:     "en",
			text:     "Hello",
			encoding: UTF8,
		},
		{
			name:     "UTF16_Big_Endian",
			payload:  []byte{0x82, 'e', 'n', 0x00, 'H', 0x00, 'i'},
			lang:     "en",
			text:     "Hi",
			encoding: UTF16,
		},
		{
			name:     "UTF16_BOM_Big_Endian",
			payload:  []byte{0x82, 'e', 'n', 0xFE, 0xFF, 0x00, 'H', 0x00, 'i'},
			lang:     "en",
			text:     "Hi",
			encoding: UTF16,
		},
		{
			name:     "UTF16_BOM_Little_Endian",
			payload:  []byte{0x82, 'e', 'n', 0xFF, 0xFE, 'H', 0x00, 'i', 0x00},
			lang:     "en",
			text:     "Hi",
			encoding: UTF16,
		},
		{
			name:     "UTF16_Surrogate_Pair",
			payload:  []byte{0x82, 'e', 'n', 0xD8, 0x3D, 0xDE, 0x00},
			lang:     "en",
			text:     "😀",
			encoding: UTF16,
		},
		{
			name:     "Language_Only",
			payload:  []byte{0x02, 'e', 'n'},
			lang:     "en",
			text:     "",
			encoding: UTF8,
		},
		{
			name:     "Status_Only",
			payload:  []byte{0x00},
			lang:     "",
			text:     "",
			encoding: UTF8,
		},
		{
			name:     "Reserved_Bit_Ignored",
			payload:  []byte{0x42, 'e', 'n', 'o', 'k'},
			lang:     "en",
			text:     "ok",
			encoding: UTF8,
		},
		{
			// 0x0C & 0x33 would give an empty language code
			name:     "Six_Bit_Length_Mask",
			payload:  append([]byte{0x0C}, "abcdefghijklrest"...),
			lang:     "abcdefghijkl",
			text:     "rest",
			encoding: UTF8,
		},
		{
			name:     "Non_ASCII_Language_Byte",
			payload:  []byte{0x02, 'e', 0xC3, 'x'},
			lang:     "e\uFFFD",
			text:     "x",
			encoding: UTF8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec, err := Decode(tt.payload)
			require.NoError(t, err)
			assert.Equal(t, tt.lang, rec.Language)
			assert.Equal(t, tt.text, rec.Text)
			assert.Equal(t, tt.encoding, rec.Encoding)
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		reason  string
		payload []byte
	}{
		{
			name:    "Nil_Payload",
			payload: nil,
			reason:  ReasonEmptyPayload,
		},
		{
			name:    "Empty_Payload",
			payload: []byte{},
			reason:  ReasonEmptyPayload,
		},
		{
			name:    "Language_Truncated",
			payload: []byte{0x05, 'e', 'n'},
			reason:  ReasonLanguageTruncated,
		},
		{
			name:    "Language_Truncated_Status_Only",
			payload: []byte{0x3F},
			reason:  ReasonLanguageTruncated,
		},
		{
			name:    "Invalid_UTF8",
			payload: []byte{0x02, 'e', 'n', 0xFF, 0xFE, 0xFD},
			reason:  ReasonInvalidEncoding,
		},
		{
			name:    "Odd_UTF16_Length",
			payload: []byte{0x82, 'e', 'n', 0x00, 'H', 0x00},
			reason:  ReasonInvalidEncoding,
		},
		{
			name:    "Unpaired_High_Surrogate",
			payload: []byte{0x82, 'e', 'n', 0xD8, 0x3D, 0x00, 'a'},
			reason:  ReasonInvalidEncoding,
		},
		{
			name:    "Lone_Low_Surrogate",
			payload: []byte{0x82, 'e', 'n', 0xDE, 0x00},
			reason:  ReasonInvalidEncoding,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec, err := Decode(tt.payload)
			require.Error(t, err)
			assert.Nil(t, rec)
			require.ErrorIs(t, err, ErrMalformedPayload)

			var pe *PayloadError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.reason, pe.Reason)
		})
	}
}

func TestDecode_DoesNotRetainPayload(t *testing.T) {
	t.Parallel()

	payload := []byte{0x02, 'e', 'n', 'a', 'b'}
	rec, err := Decode(payload)
	require.NoError(t, err)

	payload[3] = 'z'
	assert.Equal(t, "ab", rec.Text)
}

func TestTextRecord_StatusByte(t *testing.T) {
	t.Parallel()

	rec := &TextRecord{Language: "en", Text: "x", Encoding: UTF16}
	assert.Equal(t, byte(0x82), rec.StatusByte())

	rec.Encoding = UTF8
	assert.Equal(t, byte(0x02), rec.StatusByte())
	assert.Equal(t, `[en UTF-8] "x"`, rec.String())
}
