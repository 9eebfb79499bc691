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

package polling

import (
	"context"
	"errors"
	"testing"
	"time"

	ndeftext "github.com/ZaparooProject/go-ndeftext"
	"github.com/ZaparooProject/go-ndeftext/internal/virtualtag"
	"github.com/ZaparooProject/go-ndeftext/transport/pn532"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is advanced by hand
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func textMessage(t *testing.T, text string) []byte {
	t.Helper()
	rec, err := ndeftext.EncodeText(text)
	require.NoError(t, err)
	msg, err := ndeftext.BuildMessage(rec)
	require.NoError(t, err)
	return msg
}

func newTestMonitor(source Source) (*Monitor, *fakeClock, *[]ndeftext.DiscoveryEvent, *int) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	m := NewMonitor(source, &Config{PollInterval: time.Millisecond, RemovalTimeout: 100 * time.Millisecond})
	m.now = clock.now

	events := &[]ndeftext.DiscoveryEvent{}
	removed := new(int)
	m.OnDiscovery = func(ev ndeftext.DiscoveryEvent) { *events = append(*events, ev) }
	m.OnRemoved = func() { *removed++ }
	return m, clock, events, removed
}

func TestNewMonitor(t *testing.T) {
	t.Parallel()

	t.Run("WithDefaultConfig", func(t *testing.T) {
		t.Parallel()
		m := NewMonitor(virtualtag.NewNTAG213(nil), nil)
		assert.Equal(t, DefaultConfig(), m.config)
		assert.False(t, m.GetState().Present)
	})

	t.Run("WithCustomConfig", func(t *testing.T) {
		t.Parallel()
		cfg := &Config{PollInterval: 50 * time.Millisecond}
		m := NewMonitor(virtualtag.NewNTAG213(nil), cfg)
		assert.Equal(t, cfg, m.config)
	})
}

func TestMonitor_Poll_Discovery(t *testing.T) {
	t.Parallel()

	vt := virtualtag.NewNTAG213(nil)
	require.NoError(t, vt.SetMessage(textMessage(t, "hello")))

	m, _, events, _ := newTestMonitor(vt)
	ctx := context.Background()

	require.NoError(t, m.Poll(ctx))
	require.Len(t, *events, 1)

	payload, ok := (*events)[0].FirstPayload()
	require.True(t, ok)
	rec, err := ndeftext.Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, "hello", rec.Text)

	state := m.GetState()
	assert.True(t, state.Present)
	assert.Equal(t, vt.UID(), state.LastUID)
	assert.False(t, vt.Connected())

	// Same tag still present: no new event
	require.NoError(t, m.Poll(ctx))
	assert.Len(t, *events, 1)
}

func TestMonitor_Poll_Removal(t *testing.T) {
	t.Parallel()

	vt := virtualtag.NewNTAG213(nil)
	m, clock, events, removed := newTestMonitor(vt)
	ctx := context.Background()

	require.NoError(t, m.Poll(ctx))
	require.Len(t, *events, 1)
	assert.Empty(t, (*events)[0].Messages)

	vt.Remove()
	clock.advance(50 * time.Millisecond)
	require.NoError(t, m.Poll(ctx))
	assert.Zero(t, *removed, "removal before timeout")

	clock.advance(60 * time.Millisecond)
	require.NoError(t, m.Poll(ctx))
	assert.Equal(t, 1, *removed)
	assert.False(t, m.GetState().Present)

	// Returning tag is reported again
	vt.Insert()
	require.NoError(t, m.Poll(ctx))
	assert.Len(t, *events, 2)
}

func TestMonitor_Poll_ChangedTag(t *testing.T) {
	t.Parallel()

	first := virtualtag.NewNTAG213([]byte{0x04, 0x01})
	second := virtualtag.NewNTAG213([]byte{0x04, 0x02})
	require.NoError(t, second.SetMessage(textMessage(t, "second")))

	src := &switchingSource{Source: first}
	m, _, events, _ := newTestMonitor(src)
	ctx := context.Background()

	require.NoError(t, m.Poll(ctx))
	src.Source = second
	require.NoError(t, m.Poll(ctx))

	require.Len(t, *events, 2)
	assert.Len(t, (*events)[1].Messages, 1)
	assert.Equal(t, second.UID(), m.GetState().LastUID)
}

// switchingSource lets a test swap the tag on the reader
type switchingSource struct {
	Source
}

func TestMonitor_Poll_ThroughPN532(t *testing.T) {
	t.Parallel()

	vt := virtualtag.NewNTAG213(nil)
	require.NoError(t, vt.SetMessage(textMessage(t, "via pn532")))
	tag, err := pn532.NewTag(virtualtag.NewLink(vt))
	require.NoError(t, err)

	m, _, events, _ := newTestMonitor(tag)
	require.NoError(t, m.Poll(context.Background()))
	require.Len(t, *events, 1)

	reader, err := ndeftext.NewReader()
	require.NoError(t, err)
	rec, err := reader.HandleDiscovery((*events)[0])
	require.NoError(t, err)
	assert.Equal(t, "via pn532", rec.Text)
}

func TestMonitor_Poll_ReaderError(t *testing.T) {
	t.Parallel()

	vt := virtualtag.NewNTAG213(nil)
	vt.FailConnect(1, errors.New("bus fault"))
	m, _, events, _ := newTestMonitor(vt)

	require.NoError(t, m.Poll(context.Background()))
	assert.Empty(t, *events)
	assert.False(t, m.GetState().Present)
}

func TestMonitor_Start_StopsOnCancel(t *testing.T) {
	t.Parallel()

	vt := virtualtag.NewNTAG213(nil)
	m, _, _, _ := newTestMonitor(vt)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := m.Start(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	connects, _, closes := vt.Counts()
	assert.Positive(t, connects)
	assert.Equal(t, connects, closes)
}

func TestTagState(t *testing.T) {
	t.Parallel()

	now := time.Unix(100, 0)
	var s TagState

	assert.True(t, s.TransitionToPresent("a", now))
	assert.False(t, s.TransitionToPresent("a", now))
	assert.True(t, s.TransitionToPresent("b", now))

	assert.False(t, s.RemovalDue(now.Add(time.Second-1), time.Second))
	assert.True(t, s.RemovalDue(now.Add(time.Second), time.Second))

	s.TransitionToIdle()
	assert.False(t, s.Present)
	assert.False(t, s.RemovalDue(now.Add(time.Hour), time.Second))
}
