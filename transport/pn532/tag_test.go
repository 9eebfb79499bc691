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

package pn532

import (
	"context"
	"errors"
	"testing"

	ndeftext "github.com/ZaparooProject/go-ndeftext"
	"github.com/ZaparooProject/go-ndeftext/internal/virtualtag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedLink answers commands from a fixed table
type scriptedLink struct {
	responses map[byte][]byte
	errs      map[byte]error
	sent      []byte
}

func (s *scriptedLink) SendCommand(_ context.Context, cmd byte, _ []byte) ([]byte, error) {
	s.sent = append(s.sent, cmd)
	if err := s.errs[cmd]; err != nil {
		return nil, err
	}
	return s.responses[cmd], nil
}

func (*scriptedLink) Close() error { return nil }

func newVirtualTag(t *testing.T, opts ...TagOption) (*Tag, *virtualtag.Tag, *virtualtag.Link) {
	t.Helper()
	vt := virtualtag.NewNTAG213(nil)
	link := virtualtag.NewLink(vt)
	tag, err := NewTag(link, opts...)
	require.NoError(t, err)
	return tag, vt, link
}

func TestTag_Connect(t *testing.T) {
	t.Parallel()

	tag, vt, link := newVirtualTag(t)
	require.NoError(t, tag.Connect(context.Background()))

	assert.Equal(t, vt.UID(), tag.UID())
	assert.Equal(t, virtualtag.UserCapacity, tag.Capacity())
	assert.Equal(t, []byte{cmdSamConfiguration, cmdInListPassiveTarget, cmdInDataExchange}, link.Commands())

	// Connecting twice is a no-op
	require.NoError(t, tag.Connect(context.Background()))
	assert.Len(t, link.Commands(), 3)
}

func TestTag_Connect_NoTarget(t *testing.T) {
	t.Parallel()

	tag, vt, _ := newVirtualTag(t)
	vt.Remove()

	err := tag.Connect(context.Background())
	require.ErrorIs(t, err, ndeftext.ErrNoTagDetected)
	assert.True(t, ndeftext.IsRetryable(err))
}

func TestTag_Connect_Errors(t *testing.T) {
	t.Parallel()

	target := []byte{0x01, 0x01, 0x00, 0x44, 0x00, 0x04, 0xDE, 0xAD, 0xBE, 0xEF}
	unformatted := append([]byte{0x00}, make([]byte, 16)...)

	tests := []struct {
		link     *scriptedLink
		wantErr  error
		name     string
		contains string
	}{
		{
			name:     "SAM_Failure",
			link:     &scriptedLink{errs: map[byte]error{cmdSamConfiguration: errors.New("timeout")}},
			contains: "SAMConfiguration",
		},
		{
			name: "Short_Target_Response",
			link: &scriptedLink{responses: map[byte][]byte{
				cmdInListPassiveTarget: {0x01, 0x01, 0x00},
			}},
			contains: "short InListPassiveTarget",
		},
		{
			name: "Truncated_UID",
			link: &scriptedLink{responses: map[byte][]byte{
				cmdInListPassiveTarget: {0x01, 0x01, 0x00, 0x44, 0x00, 0x07, 0x04},
			}},
			contains: "truncated UID",
		},
		{
			name: "Not_Formatted",
			link: &scriptedLink{responses: map[byte][]byte{
				cmdInListPassiveTarget: target,
				cmdInDataExchange:      unformatted,
			}},
			wantErr: ErrNotFormatted,
		},
		{
			name: "Exchange_Status",
			link: &scriptedLink{responses: map[byte][]byte{
				cmdInListPassiveTarget: target,
				cmdInDataExchange:      {0x01},
			}},
			contains: "status 0x01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tag, err := NewTag(tt.link)
			require.NoError(t, err)

			err = tag.Connect(context.Background())
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}

			var te *ndeftext.TransportError
			require.ErrorAs(t, err, &te)
		})
	}
}

func TestTag_Connect_ReleasesOnCapabilityFailure(t *testing.T) {
	t.Parallel()

	link := &scriptedLink{responses: map[byte][]byte{
		cmdInListPassiveTarget: {0x01, 0x01, 0x00, 0x44, 0x00, 0x01, 0x04},
		cmdInDataExchange:      append([]byte{0x00}, make([]byte, 16)...),
	}}
	tag, err := NewTag(link)
	require.NoError(t, err)

	require.Error(t, tag.Connect(context.Background()))
	assert.Equal(t, byte(cmdInRelease), link.sent[len(link.sent)-1])
}

func TestTag_WriteReadRoundTrip(t *testing.T) {
	t.Parallel()

	tag, vt, _ := newVirtualTag(t)
	require.NoError(t, tag.Connect(context.Background()))

	rec, err := ndeftext.Encode("round trip", "en")
	require.NoError(t, err)
	msg, err := ndeftext.BuildMessage(rec)
	require.NoError(t, err)

	require.NoError(t, tag.WriteMessage(context.Background(), msg))

	got, err := tag.ReadMessage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, msg, got)

	direct, err := vt.ReadMessage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, msg, direct)
}

func TestTag_WriteMessage_Errors(t *testing.T) {
	t.Parallel()

	t.Run("Not_Connected", func(t *testing.T) {
		t.Parallel()
		tag, _, _ := newVirtualTag(t)
		err := tag.WriteMessage(context.Background(), []byte{0xD1})
		require.ErrorIs(t, err, ndeftext.ErrTagNotConnected)
	})

	t.Run("Too_Large", func(t *testing.T) {
		t.Parallel()
		tag, _, _ := newVirtualTag(t)
		require.NoError(t, tag.Connect(context.Background()))
		err := tag.WriteMessage(context.Background(), make([]byte, virtualtag.UserCapacity))
		require.ErrorIs(t, err, ndeftext.ErrTagFull)
	})

	t.Run("Tag_Removed_Mid_Write", func(t *testing.T) {
		t.Parallel()
		tag, vt, _ := newVirtualTag(t)
		require.NoError(t, tag.Connect(context.Background()))
		vt.Remove()
		err := tag.WriteMessage(context.Background(), []byte{0xD1, 0x01, 0x01, 'T', 0x00})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "write page 4")
	})
}

func TestTag_ReadMessage_Empty(t *testing.T) {
	t.Parallel()

	tag, _, _ := newVirtualTag(t)
	require.NoError(t, tag.Connect(context.Background()))

	msg, err := tag.ReadMessage(context.Background())
	require.NoError(t, err)
	assert.Empty(t, msg)
}

func TestTag_Close(t *testing.T) {
	t.Parallel()

	tag, _, link := newVirtualTag(t)
	require.NoError(t, tag.Close())
	assert.Empty(t, link.Commands())

	require.NoError(t, tag.Connect(context.Background()))
	require.NoError(t, tag.Close())
	cmds := link.Commands()
	assert.Equal(t, byte(cmdInRelease), cmds[len(cmds)-1])

	_, err := tag.ReadMessage(context.Background())
	require.ErrorIs(t, err, ndeftext.ErrTagNotConnected)
}

func TestTag_WithCapacity(t *testing.T) {
	t.Parallel()

	tag, _, link := newVirtualTag(t, WithCapacity(48))
	require.NoError(t, tag.Connect(context.Background()))
	assert.Equal(t, 48, tag.Capacity())
	assert.NotContains(t, link.Commands(), byte(cmdInDataExchange))

	_, err := NewTag(link, WithCapacity(0))
	require.Error(t, err)
}

func TestNewTag_NilLink(t *testing.T) {
	t.Parallel()

	tag, err := NewTag(nil)
	require.Error(t, err)
	assert.Nil(t, tag)
}
