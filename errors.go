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
	"fmt"
)

// Codec errors
var (
	// ErrInvalidLanguageCode is returned when a language code is not ASCII or
	// does not fit the 6-bit length field of the status byte.
	ErrInvalidLanguageCode = errors.New("invalid language code")

	// ErrInvalidText is returned when the text to encode is not valid UTF-8.
	ErrInvalidText = errors.New("text is not valid UTF-8")

	// ErrMalformedPayload is returned when a Text record payload violates its structure.
	ErrMalformedPayload = errors.New("malformed payload")
)

// Message and container errors
var (
	ErrMalformedMessage = errors.New("malformed NDEF message")
	ErrNoNDEF           = errors.New("no NDEF message found")
	ErrMessageTooLarge  = errors.New("NDEF message too large")
)

// Tag errors
var (
	// ErrNoTagDetected is returned by Writer.Write when no tag handle is available.
	ErrNoTagDetected = errors.New("no NFC tags detected")

	ErrTagNotConnected = errors.New("tag not connected")
	ErrTagRemoved      = errors.New("tag removed")
	ErrTagFull         = errors.New("message exceeds tag capacity")

	// ErrWriteVerification is returned when a message read back differs from
	// the one written.
	ErrWriteVerification = errors.New("write verification failed")
)

// Reasons carried by PayloadError.
const (
	ReasonEmptyPayload      = "empty payload"
	ReasonLanguageTruncated = "language code truncated"
	ReasonInvalidEncoding   = "invalid text encoding"
)

// PayloadError describes why a Text record payload could not be decoded.
type PayloadError struct {
	Err    error
	Reason string
}

// Error implements the error interface
func (e *PayloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrMalformedPayload, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrMalformedPayload, e.Reason)
}

// Unwrap returns ErrMalformedPayload so callers can match with errors.Is.
func (e *PayloadError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMalformedPayload, e.Err}
	}
	return []error{ErrMalformedPayload}
}

func malformed(reason string) error {
	return &PayloadError{Reason: reason}
}

// TransportError represents an error raised by a tag transport
type TransportError struct {
	Err       error
	Op        string
	Device    string
	Retryable bool
}

// Error implements the error interface
func (e *TransportError) Error() string {
	if e.Device != "" {
		return fmt.Sprintf("%s on %s: %v", e.Op, e.Device, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a new transport error
func NewTransportError(op, device string, err error, retryable bool) *TransportError {
	return &TransportError{
		Op:        op,
		Device:    device,
		Err:       err,
		Retryable: retryable,
	}
}

// IsRetryable returns true if the error is a transport failure worth retrying
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}
	return false
}

// asTransportError wraps err into a TransportError unless it already is one.
func asTransportError(op string, err error) error {
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}
