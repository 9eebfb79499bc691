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
	"time"

	"github.com/rs/zerolog"
)

// WriterOption is a functional option for configuring a Writer
type WriterOption func(*Writer) error

// WithLanguage sets the language code written with every record
func WithLanguage(code string) WriterOption {
	return func(w *Writer) error {
		if err := validateLanguageCode(code); err != nil {
			return err
		}
		w.language = code
		return nil
	}
}

// WithLogger sets the logger used by the Writer
func WithLogger(l zerolog.Logger) WriterOption {
	return func(w *Writer) error {
		w.log = &l
		return nil
	}
}

// WithRetry sets how many times a retryable connect failure is retried
// and the delay between attempts
func WithRetry(maxRetries int, delay time.Duration) WriterOption {
	return func(w *Writer) error {
		if maxRetries < 0 {
			return errors.New("max retries must not be negative")
		}
		if delay < 0 {
			return errors.New("retry delay must not be negative")
		}
		w.retry.MaxRetries = maxRetries
		w.retry.RetryDelay = delay
		return nil
	}
}

// WithVerify makes Write read the message back and compare it when the tag
// also implements MessageReader
func WithVerify(enabled bool) WriterOption {
	return func(w *Writer) error {
		w.verify = enabled
		return nil
	}
}
