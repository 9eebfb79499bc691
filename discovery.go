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
	"sync"

	"github.com/rs/zerolog"
)

// DiscoveryEvent carries the NDEF messages read from a tag when it is
// discovered. It may hold zero messages.
type DiscoveryEvent struct {
	Messages []Message
}

// EventFromMessages builds a DiscoveryEvent from raw NDEF message bytes.
func EventFromMessages(raw ...[]byte) (DiscoveryEvent, error) {
	ev := DiscoveryEvent{Messages: make([]Message, 0, len(raw))}
	for i, data := range raw {
		msg, err := ParseMessage(data)
		if err != nil {
			return DiscoveryEvent{}, fmt.Errorf("message %d: %w", i, err)
		}
		ev.Messages = append(ev.Messages, *msg)
	}
	return ev, nil
}

// FirstPayload returns the payload of the first record of the first message.
// Every other record and message is ignored.
func (ev DiscoveryEvent) FirstPayload() ([]byte, bool) {
	if len(ev.Messages) == 0 || len(ev.Messages[0].Records) == 0 {
		return nil, false
	}
	return ev.Messages[0].Records[0].Payload, true
}

// DecodeFunc decodes a Text record payload
type DecodeFunc func(payload []byte) (*TextRecord, error)

// ReaderOption configures a Reader
type ReaderOption func(*Reader) error

// WithDecoder replaces the payload decoder used by a Reader
func WithDecoder(decode DecodeFunc) ReaderOption {
	return func(r *Reader) error {
		if decode == nil {
			return errors.New("nil decoder")
		}
		r.decode = decode
		return nil
	}
}

// WithReaderLogger sets the logger used by a Reader
func WithReaderLogger(l zerolog.Logger) ReaderOption {
	return func(r *Reader) error {
		r.log = &l
		return nil
	}
}

// Reader keeps the most recent Text record decoded from discovery events.
// It is safe for concurrent use.
type Reader struct {
	decode  DecodeFunc
	log     *zerolog.Logger
	current *TextRecord
	mu      sync.RWMutex
}

// NewReader creates a Reader using Decode unless WithDecoder is given
func NewReader(opts ...ReaderOption) (*Reader, error) {
	r := &Reader{decode: Decode}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Reader) logger() *zerolog.Logger {
	if r.log != nil {
		return r.log
	}
	return logger()
}

// HandleDiscovery decodes the first record of the first message in ev and
// makes it current. An event with no message, or whose first message has no
// records, is a no-op: it returns nil, nil and keeps the current record.
// Decode failures are returned and also keep the current record.
func (r *Reader) HandleDiscovery(ev DiscoveryEvent) (*TextRecord, error) {
	payload, ok := ev.FirstPayload()
	if !ok {
		r.logger().Debug().Int("messages", len(ev.Messages)).Msg("discovery event without records")
		return nil, nil
	}

	rec, err := r.decode(payload)
	if err != nil {
		r.logger().Debug().Err(err).Msg("failed to decode first record")
		return nil, err
	}

	r.mu.Lock()
	r.current = rec
	r.mu.Unlock()

	r.logger().Debug().Str("lang", rec.Language).Msg("text record updated")
	return rec, nil
}

// Current returns the last successfully decoded record
func (r *Reader) Current() (*TextRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return nil, false
	}
	rec := *r.current
	return &rec, true
}
