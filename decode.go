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
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// Decode parses a raw NDEF Text record payload. Failures wrap
// ErrMalformedPayload and carry one of the Reason* constants.
func Decode(payload []byte) (*TextRecord, error) {
	if len(payload) == 0 {
		return nil, malformed(ReasonEmptyPayload)
	}

	status := payload[0]
	encoding := UTF8
	if status&statusUTF16Flag != 0 {
		encoding = UTF16
	}

	langLen := int(status & statusLengthMask)
	if len(payload) < statusHeaderBytes+langLen {
		return nil, malformed(ReasonLanguageTruncated)
	}

	lang := decodeLanguage(payload[statusHeaderBytes : statusHeaderBytes+langLen])
	textBytes := payload[statusHeaderBytes+langLen:]

	text, err := decodeText(textBytes, encoding)
	if err != nil {
		return nil, &PayloadError{Reason: ReasonInvalidEncoding, Err: err}
	}

	logger().Debug().
		Str("lang", lang).
		Stringer("encoding", encoding).
		Int("payload_bytes", len(payload)).
		Msg("decoded text record")

	return &TextRecord{
		Language: lang,
		Text:     text,
		Encoding: encoding,
	}, nil
}

// decodeLanguage maps ASCII bytes through unchanged and anything else to
// U+FFFD. Non-conforming tags still decode.
func decodeLanguage(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		if c < utf8.RuneSelf {
			sb.WriteByte(c)
		} else {
			sb.WriteRune(utf8.RuneError)
		}
	}
	return sb.String()
}

func decodeText(b []byte, encoding TextEncoding) (string, error) {
	if len(b) == 0 {
		return "", nil
	}

	switch encoding {
	case UTF8:
		if !utf8.Valid(b) {
			return "", errors.New("invalid UTF-8 sequence")
		}
		return string(b), nil
	case UTF16:
		return decodeUTF16(b)
	default:
		return "", fmt.Errorf("unsupported encoding %s", encoding)
	}
}

// decodeUTF16 decodes big-endian UTF-16 unless a byte order mark says otherwise.
func decodeUTF16(b []byte) (string, error) {
	if len(b)%2 != 0 {
		return "", fmt.Errorf("odd UTF-16 length %d", len(b))
	}

	var order binary.ByteOrder = binary.BigEndian
	start := 0
	switch {
	case b[0] == 0xFE && b[1] == 0xFF:
		start = 2
	case b[0] == 0xFF && b[1] == 0xFE:
		order = binary.LittleEndian
		start = 2
	}

	if err := checkSurrogates(b[start:], order); err != nil {
		return "", err
	}

	out, err := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("UTF-16 decode: %w", err)
	}
	return string(out), nil
}

// checkSurrogates rejects unpaired surrogates, which the x/text decoder would
// otherwise replace with U+FFFD.
func checkSurrogates(b []byte, order binary.ByteOrder) error {
	for i := 0; i < len(b); i += 2 {
		u := order.Uint16(b[i:])
		switch {
		case u >= 0xD800 && u <= 0xDBFF:
			if i+4 > len(b) {
				return fmt.Errorf("unpaired high surrogate at offset %d", i)
			}
			next := order.Uint16(b[i+2:])
			if next < 0xDC00 || next > 0xDFFF {
				return fmt.Errorf("unpaired high surrogate at offset %d", i)
			}
			i += 2
		case u >= 0xDC00 && u <= 0xDFFF:
			return fmt.Errorf("unpaired low surrogate at offset %d", i)
		}
	}
	return nil
}
