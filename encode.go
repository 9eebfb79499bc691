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
	"fmt"
	"unicode/utf8"
)

// EncodeText encodes text as a Text record using DefaultLanguage.
func EncodeText(text string) (*EncodedRecord, error) {
	return Encode(text, DefaultLanguage)
}

// Encode serializes text and a language code into a well-formed NDEF Text
// record. The text portion is always UTF-8, so bit 7 of the status byte is
// never set.
func Encode(text, languageCode string) (*EncodedRecord, error) {
	if err := validateLanguageCode(languageCode); err != nil {
		return nil, err
	}
	if !utf8.ValidString(text) {
		return nil, ErrInvalidText
	}

	payload := make([]byte, 0, statusHeaderBytes+len(languageCode)+len(text))
	payload = append(payload, byte(len(languageCode)))
	payload = append(payload, languageCode...)
	payload = append(payload, text...)

	logger().Debug().
		Str("lang", languageCode).
		Int("text_bytes", len(text)).
		Int("payload_bytes", len(payload)).
		Msg("encoded text record")

	return &EncodedRecord{
		TNF:     TNFWellKnown,
		Type:    TextRecordType,
		ID:      []byte{},
		Payload: payload,
	}, nil
}

// validateLanguageCode checks that the code is ASCII and fits the status byte
func validateLanguageCode(code string) error {
	if len(code) > MaxLanguageCodeLength {
		return fmt.Errorf("%w: length %d exceeds maximum %d",
			ErrInvalidLanguageCode, len(code), MaxLanguageCodeLength)
	}
	for i := range len(code) {
		if code[i] >= utf8.RuneSelf {
			return fmt.Errorf("%w: non-ASCII byte 0x%02X at offset %d",
				ErrInvalidLanguageCode, code[i], i)
		}
	}
	return nil
}
