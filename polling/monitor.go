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

// Package polling watches a reader for tags and turns every newly presented
// tag into a discovery event
package polling

import (
	"context"
	"errors"
	"time"

	ndeftext "github.com/ZaparooProject/go-ndeftext"
	"github.com/rs/zerolog"
)

// Source is a tag that can be selected, read and released repeatedly.
// transport/pn532.Tag and the virtual tag both satisfy it.
type Source interface {
	ndeftext.Transport
	ndeftext.MessageReader
	UID() string
}

// Config controls polling timing
type Config struct {
	// PollInterval is the pause between two polls
	PollInterval time.Duration
	// RemovalTimeout is how long a tag may go unseen before it counts as removed
	RemovalTimeout time.Duration
}

// DefaultConfig returns the default polling timing
func DefaultConfig() *Config {
	return &Config{
		PollInterval:   250 * time.Millisecond,
		RemovalTimeout: 600 * time.Millisecond,
	}
}

// Monitor polls a Source and reports tag arrivals and removals. Callbacks run
// on the polling goroutine.
type Monitor struct {
	source Source
	config *Config
	log    *zerolog.Logger
	now    func() time.Time

	// OnDiscovery receives the event for each newly presented tag. Tags
	// without a readable NDEF message produce an event with no messages.
	OnDiscovery func(ev ndeftext.DiscoveryEvent)
	OnRemoved   func()

	state TagState
}

// NewMonitor creates a monitor; a nil config uses DefaultConfig
func NewMonitor(source Source, config *Config) *Monitor {
	if config == nil {
		config = DefaultConfig()
	}
	l := zerolog.Nop()
	return &Monitor{
		source: source,
		config: config,
		log:    &l,
		now:    time.Now,
	}
}

// SetLogger sets the logger used for polling diagnostics
func (m *Monitor) SetLogger(l zerolog.Logger) {
	m.log = &l
}

// GetState returns the current tag state
func (m *Monitor) GetState() TagState {
	return m.state
}

// Start polls until ctx is done
func (m *Monitor) Start(ctx context.Context) error {
	ticker := time.NewTicker(m.config.PollInterval)
	defer ticker.Stop()

	for {
		if err := m.Poll(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Poll runs one detection cycle. It only returns an error when ctx is done;
// reader failures are logged and treated as an empty field.
func (m *Monitor) Poll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := m.source.Connect(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !errors.Is(err, ndeftext.ErrNoTagDetected) {
			m.log.Debug().Err(err).Msg("poll failed")
		}
		m.handleMissing()
		return nil
	}

	uid := m.source.UID()
	if !m.state.TransitionToPresent(uid, m.now()) {
		m.release()
		return nil
	}

	m.log.Debug().Str("uid", uid).Msg("tag detected")
	ev := m.readEvent(ctx)
	m.release()

	if m.OnDiscovery != nil {
		m.OnDiscovery(ev)
	}
	return nil
}

func (m *Monitor) readEvent(ctx context.Context) ndeftext.DiscoveryEvent {
	msg, err := m.source.ReadMessage(ctx)
	if err != nil {
		m.log.Debug().Err(err).Msg("tag has no readable NDEF message")
		return ndeftext.DiscoveryEvent{}
	}
	if len(msg) == 0 {
		return ndeftext.DiscoveryEvent{}
	}

	ev, err := ndeftext.EventFromMessages(msg)
	if err != nil {
		m.log.Debug().Err(err).Msg("failed to parse NDEF message")
		return ndeftext.DiscoveryEvent{}
	}
	return ev
}

func (m *Monitor) release() {
	if err := m.source.Close(); err != nil {
		m.log.Debug().Err(err).Msg("tag release failed")
	}
}

func (m *Monitor) handleMissing() {
	if !m.state.RemovalDue(m.now(), m.config.RemovalTimeout) {
		return
	}
	m.log.Debug().Str("uid", m.state.LastUID).Msg("tag removed")
	m.state.TransitionToIdle()
	if m.OnRemoved != nil {
		m.OnRemoved()
	}
}
