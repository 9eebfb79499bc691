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

// Package frame builds and parses PN532 normal information frames
package frame

import (
	"bytes"
	"errors"
	"fmt"
)

// Frame direction constants
const (
	HostToPn532 = 0xD4
	Pn532ToHost = 0xD5
)

// Frame markers
const (
	Preamble   = 0x00
	StartCode1 = 0x00
	StartCode2 = 0xFF
	Postamble  = 0x00

	// errorFrameCode is the single data byte of a PN532 application error frame
	errorFrameCode = 0x7F
)

// MaxDataLength is the largest TFI+command+args length a normal frame can carry.
// Extended frames are not used.
const MaxDataLength = 0xFF

// ACK and NACK frames
var (
	AckFrame  = []byte{0x00, 0x00, 0xFF, 0x00, 0xFF, 0x00}
	NackFrame = []byte{0x00, 0x00, 0xFF, 0xFF, 0x00, 0x00}
)

// Frame errors
var (
	ErrIncomplete       = errors.New("incomplete frame")
	ErrFrameCorrupted   = errors.New("frame corrupted")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrNack             = errors.New("NACK received")
	ErrApplication      = errors.New("PN532 application error")
	ErrDataTooLarge     = errors.New("data too large for normal frame")
)

// Frame is a parsed frame received from the PN532
type Frame struct {
	// Data holds the bytes following the TFI, starting with the response code
	Data []byte
	Ack  bool
}

// CalculateChecksum returns the 8-bit sum of data
func CalculateChecksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}

// ValidateChecksum reports whether data (ending in its checksum byte) fails
// the zero-sum check and should be NACKed
func ValidateChecksum(data []byte) bool {
	return CalculateChecksum(data) != 0
}

// CalculateDataChecksum computes the DCS byte for a TFI and its payload
func CalculateDataChecksum(tfi byte, data []byte) byte {
	return ^(tfi + CalculateChecksum(data)) + 1
}

// CalculateLengthChecksum computes the LCS byte for a length
func CalculateLengthChecksum(length byte) byte {
	return ^length + 1
}

// Build encodes a host-to-PN532 command frame
func Build(cmd byte, args []byte) ([]byte, error) {
	dataLen := 2 + len(args)
	if dataLen > MaxDataLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrDataTooLarge, dataLen)
	}

	frm := make([]byte, 0, 3+2+dataLen+2)
	frm = append(frm, Preamble, StartCode1, StartCode2)
	frm = append(frm, byte(dataLen), CalculateLengthChecksum(byte(dataLen)))
	frm = append(frm, HostToPn532, cmd)
	frm = append(frm, args...)
	frm = append(frm, CalculateDataChecksum(HostToPn532, append([]byte{cmd}, args...)), Postamble)
	return frm, nil
}

// Extract locates the first frame in buf. It returns the frame and the
// number of bytes consumed; ErrIncomplete means more bytes are needed.
func Extract(buf []byte) (f Frame, consumed int, err error) {
	start := bytes.Index(buf, []byte{StartCode1, StartCode2})
	if start < 0 {
		return Frame{}, 0, ErrIncomplete
	}

	p := start + 2
	if len(buf) < p+2 {
		return Frame{}, 0, ErrIncomplete
	}

	length, lcs := buf[p], buf[p+1]
	switch {
	case length == 0x00 && lcs == 0xFF:
		return Frame{Ack: true}, withPostamble(buf, p+2), nil
	case length == 0xFF && lcs == 0x00:
		return Frame{}, withPostamble(buf, p+2), ErrNack
	case length+lcs != 0:
		return Frame{}, p + 2, fmt.Errorf("%w: bad length checksum", ErrFrameCorrupted)
	}

	body := p + 2
	end := body + int(length) + 1 // includes DCS
	if len(buf) < end {
		return Frame{}, 0, ErrIncomplete
	}

	if ValidateChecksum(buf[body:end]) {
		return Frame{}, end, ErrChecksumMismatch
	}

	data := buf[body : end-1]
	if len(data) == 1 && data[0] == errorFrameCode {
		return Frame{}, withPostamble(buf, end), ErrApplication
	}
	if len(data) < 2 || data[0] != Pn532ToHost {
		return Frame{}, withPostamble(buf, end), fmt.Errorf("%w: unexpected TFI", ErrFrameCorrupted)
	}

	return Frame{Data: append([]byte{}, data[1:]...)}, withPostamble(buf, end), nil
}

func withPostamble(buf []byte, n int) int {
	if n < len(buf) && buf[n] == Postamble {
		return n + 1
	}
	return n
}

// ResponseData checks that a response frame answers cmd and strips the
// response code
func ResponseData(f Frame, cmd byte) ([]byte, error) {
	if len(f.Data) == 0 || f.Data[0] != cmd+1 {
		return nil, fmt.Errorf("%w: response does not match command 0x%02X", ErrFrameCorrupted, cmd)
	}
	return f.Data[1:], nil
}
