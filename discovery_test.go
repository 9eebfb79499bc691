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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMessage(t *testing.T, text, lang string) []byte {
	t.Helper()
	rec, err := Encode(text, lang)
	require.NoError(t, err)
	msg, err := BuildMessage(rec)
	require.NoError(t, err)
	return msg
}

// recordingDecoder remembers every payload it was asked to decode
type recordingDecoder struct {
	seen [][]byte
	mu   sync.Mutex
}

func (d *recordingDecoder) decode(payload []byte) (*TextRecord, error) {
	d.mu.Lock()
	d.seen = append(d.seen, append([]byte{}, payload...))
	d.mu.Unlock()
	return Decode(payload)
}

func TestReader_HandleDiscovery_FirstRecordOnly(t *testing.T) {
	t.Parallel()

	first := mustMessage(t, "first", "en")
	second := mustMessage(t, "second", "de")

	// Second record appended to the first message
	combined := append([]byte{}, first...)
	combined[0] &^= flagME
	tail := append([]byte{}, mustMessage(t, "trailing", "fr")...)
	tail[0] &^= flagMB
	combined = append(combined, tail...)

	ev, err := EventFromMessages(combined, second)
	require.NoError(t, err)
	require.Len(t, ev.Messages, 2)
	require.Len(t, ev.Messages[0].Records, 2)

	dec := &recordingDecoder{}
	reader, err := NewReader(WithDecoder(dec.decode))
	require.NoError(t, err)

	rec, err := reader.HandleDiscovery(ev)
	require.NoError(t, err)
	assert.Equal(t, "first", rec.Text)
	assert.Equal(t, "en", rec.Language)

	require.Len(t, dec.seen, 1)
	assert.Equal(t, ev.Messages[0].Records[0].Payload, dec.seen[0])

	current, ok := reader.Current()
	require.True(t, ok)
	assert.Equal(t, "first", current.Text)
}

func TestReader_HandleDiscovery_Empty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ev   DiscoveryEvent
	}{
		{name: "No_Messages", ev: DiscoveryEvent{}},
		{name: "Message_Without_Records", ev: DiscoveryEvent{Messages: []Message{{}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dec := &recordingDecoder{}
			reader, err := NewReader(WithDecoder(dec.decode))
			require.NoError(t, err)

			rec, err := reader.HandleDiscovery(tt.ev)
			require.NoError(t, err)
			assert.Nil(t, rec)
			assert.Empty(t, dec.seen)

			_, ok := reader.Current()
			assert.False(t, ok)
		})
	}
}

func TestReader_HandleDiscovery_KeepsCurrentOnFailure(t *testing.T) {
	t.Parallel()

	reader, err := NewReader()
	require.NoError(t, err)

	good, err := EventFromMessages(mustMessage(t, "kept", "en"))
	require.NoError(t, err)
	_, err = reader.HandleDiscovery(good)
	require.NoError(t, err)

	bad := DiscoveryEvent{Messages: []Message{{Records: []Record{{Payload: []byte{0x09, 'e'}}}}}}
	rec, err := reader.HandleDiscovery(bad)
	require.ErrorIs(t, err, ErrMalformedPayload)
	assert.Nil(t, rec)

	_, err = reader.HandleDiscovery(DiscoveryEvent{})
	require.NoError(t, err)

	current, ok := reader.Current()
	require.True(t, ok)
	assert.Equal(t, "kept", current.Text)
}

func TestReader_CurrentReturnsCopy(t *testing.T) {
	t.Parallel()

	reader, err := NewReader()
	require.NoError(t, err)

	ev, err := EventFromMessages(mustMessage(t, "original", "en"))
	require.NoError(t, err)
	_, err = reader.HandleDiscovery(ev)
	require.NoError(t, err)

	rec, ok := reader.Current()
	require.True(t, ok)
	rec.Text = "changed"

	again, _ := reader.Current()
	assert.Equal(t, "original", again.Text)
}

func TestNewReader_NilDecoder(t *testing.T) {
	t.Parallel()

	reader, err := NewReader(WithDecoder(nil))
	require.Error(t, err)
	assert.Nil(t, reader)
}

func TestReader_CustomDecoderError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	reader, err := NewReader(WithDecoder(func([]byte) (*TextRecord, error) {
		return nil, boom
	}))
	require.NoError(t, err)

	ev, err := EventFromMessages(mustMessage(t, "x", "en"))
	require.NoError(t, err)

	_, err = reader.HandleDiscovery(ev)
	require.ErrorIs(t, err, boom)
}

func TestEventFromMessages_Malformed(t *testing.T) {
	t.Parallel()

	_, err := EventFromMessages([]byte{0xD1, 0x01})
	require.ErrorIs(t, err, ErrMalformedMessage)
}

func TestDiscoveryEvent_FirstPayload(t *testing.T) {
	t.Parallel()

	_, ok := DiscoveryEvent{}.FirstPayload()
	assert.False(t, ok)

	ev, err := EventFromMessages(mustMessage(t, "Hi", "en"))
	require.NoError(t, err)
	payload, ok := ev.FirstPayload()
	require.True(t, ok)
	assert.Equal(t, []byte{0x02, 'e', 'n', 'H', 'i'}, payload)
}
