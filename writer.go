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
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-ndeftext/internal/retry"
	"github.com/rs/zerolog"
)

// User-facing notices for write attempts
const (
	MsgNoTag        = "No NFC tags detected"
	MsgWriteSuccess = "Text written successfully"
	MsgWriteError   = "Error during writing"
)

// Notice translates the result of Writer.Write into a user-facing message.
func Notice(err error) string {
	switch {
	case err == nil:
		return MsgWriteSuccess
	case errors.Is(err, ErrNoTagDetected):
		return MsgNoTag
	default:
		return MsgWriteError
	}
}

// Writer encodes text and writes it to a tag as a one-record NDEF message.
// A Writer holds no tag state; the tag is passed to every Write.
type Writer struct {
	log      *zerolog.Logger
	language string
	retry    retry.Config
	verify   bool
}

// NewWriter creates a Writer with DefaultLanguage and two connect retries
func NewWriter(opts ...WriterOption) (*Writer, error) {
	w := &Writer{
		language: DefaultLanguage,
		retry: retry.Config{
			Description: "connect",
			MaxRetries:  2,
			RetryDelay:  50 * time.Millisecond,
		},
	}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Language returns the language code the Writer encodes with
func (w *Writer) Language() string {
	return w.language
}

func (w *Writer) logger() *zerolog.Logger {
	if w.log != nil {
		return w.log
	}
	return logger()
}

// Write encodes text and writes it to tag. Encoding happens before the tag is
// touched. Once Connect succeeds, exactly one message is written and Close is
// always called; a Close failure is joined with any write failure.
func (w *Writer) Write(ctx context.Context, tag Transport, text string) (err error) {
	if tag == nil {
		return ErrNoTagDetected
	}

	msg, err := w.Prepare(text)
	if err != nil {
		return err
	}

	if err := w.connect(ctx, tag); err != nil {
		return err
	}
	defer func() {
		if closeErr := tag.Close(); closeErr != nil {
			w.logger().Debug().Err(closeErr).Msg("tag close failed")
			err = errors.Join(err, asTransportError("close", closeErr))
		}
	}()

	if err := tag.WriteMessage(ctx, msg); err != nil {
		w.logger().Debug().Err(err).Msg("tag write failed")
		return asTransportError("write", err)
	}
	if w.verify {
		if err := verifyWrite(ctx, tag, msg); err != nil {
			w.logger().Debug().Err(err).Msg("write verification failed")
			return err
		}
	}

	w.logger().Debug().Int("bytes", len(msg)).Msg("message written")
	return nil
}

// Prepare encodes text into the raw NDEF message Write would send.
func (w *Writer) Prepare(text string) ([]byte, error) {
	rec, err := Encode(text, w.language)
	if err != nil {
		return nil, fmt.Errorf("encode text record: %w", err)
	}
	msg, err := BuildMessage(rec)
	if err != nil {
		return nil, fmt.Errorf("build NDEF message: %w", err)
	}
	return msg, nil
}

// verifyWrite reads the message back when the tag supports reading
func verifyWrite(ctx context.Context, tag Transport, want []byte) error {
	r, ok := tag.(MessageReader)
	if !ok {
		return nil
	}
	got, err := r.ReadMessage(ctx)
	if err != nil {
		return asTransportError("verify", err)
	}
	if !bytes.Equal(got, want) {
		return fmt.Errorf("%w: read back %d bytes, wrote %d", ErrWriteVerification, len(got), len(want))
	}
	return nil
}

func (w *Writer) connect(ctx context.Context, tag Transport) error {
	cfg := w.retry
	cfg.OnRetry = func(attempt int, err error) {
		w.logger().Debug().Int("attempt", attempt).Err(err).Msg("retrying tag connect")
	}

	_, err := retry.Do(ctx, cfg, func(ctx context.Context) (struct{}, bool, error) {
		if err := tag.Connect(ctx); err != nil {
			err = asTransportError("connect", err)
			return struct{}{}, IsRetryable(err), err
		}
		return struct{}{}, false, nil
	})
	return err
}
