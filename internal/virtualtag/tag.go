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

// Package virtualtag provides an in-memory NTAG213 used in tests and by the
// CLI's virtual mode
package virtualtag

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"

	ndeftext "github.com/ZaparooProject/go-ndeftext"
)

// NTAG213 memory layout
const (
	PageSize      = 4
	PageCount     = 45
	UserStartPage = 4
	UserEndPage   = 40 // exclusive
	UserCapacity  = (UserEndPage - UserStartPage) * PageSize
	ccPage        = 3
)

// DefaultUID is the UID used when NewNTAG213 is given nil
var DefaultUID = []byte{0x04, 0x12, 0x34, 0x56, 0x78, 0x9A, 0xBC}

// Tag is a simulated NTAG213. It implements ndeftext.Transport and
// ndeftext.MessageReader and is safe for concurrent use.
type Tag struct {
	connectErr   error
	writeErr     error
	closeErr     error
	uid          []byte
	memory       []byte
	failConnects int
	connects     int
	writes       int
	closes       int
	mu           sync.Mutex
	present      bool
	connected    bool
}

// NewNTAG213 creates a present, NDEF formatted, empty NTAG213
func NewNTAG213(uid []byte) *Tag {
	if uid == nil {
		uid = DefaultUID
	}

	t := &Tag{
		uid:     append([]byte{}, uid...),
		memory:  make([]byte, PageCount*PageSize),
		present: true,
	}
	copy(t.memory, t.uid)
	// Capability container: NDEF magic, version 1.0, 144 byte data area, read/write
	copy(t.memory[ccPage*PageSize:], []byte{0xE1, 0x10, UserCapacity / 8, 0x00})
	// Empty NDEF TLV followed by a terminator
	copy(t.memory[UserStartPage*PageSize:], []byte{ndeftext.TLVTypeNDEF, 0x00, ndeftext.TLVTypeTerminator})
	return t
}

// UID returns the tag UID as a hex string
func (t *Tag) UID() string {
	return hex.EncodeToString(t.uid)
}

// Remove simulates the tag leaving the field
func (t *Tag) Remove() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.present = false
	t.connected = false
}

// Insert simulates the tag entering the field
func (t *Tag) Insert() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.present = true
}

// FailConnect makes the next n Connect calls fail with err
func (t *Tag) FailConnect(n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failConnects = n
	t.connectErr = err
}

// FailWrite makes every WriteMessage call fail with err; nil clears it
func (t *Tag) FailWrite(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writeErr = err
}

// FailClose makes every Close call fail with err; nil clears it
func (t *Tag) FailClose(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeErr = err
}

// Counts returns how many times Connect, WriteMessage and Close were called
func (t *Tag) Counts() (connects, writes, closes int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connects, t.writes, t.closes
}

// Connected reports whether a connection is currently held
func (t *Tag) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

// Connect implements ndeftext.Transport
func (t *Tag) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.connects++

	if !t.present {
		return ndeftext.NewTransportError("connect", t.UID(), ndeftext.ErrNoTagDetected, true)
	}
	if t.failConnects > 0 {
		t.failConnects--
		return t.connectErr
	}
	t.connected = true
	return nil
}

// WriteMessage implements ndeftext.Transport
func (t *Tag) WriteMessage(ctx context.Context, msg []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.writes++

	switch {
	case !t.present:
		return ndeftext.NewTransportError("write", t.UID(), ndeftext.ErrTagRemoved, false)
	case !t.connected:
		return ndeftext.NewTransportError("write", t.UID(), ndeftext.ErrTagNotConnected, false)
	case t.writeErr != nil:
		return t.writeErr
	}

	return t.storeMessage(msg)
}

func (t *Tag) storeMessage(msg []byte) error {
	data, err := ndeftext.WrapTLV(msg)
	if err != nil {
		return err
	}
	if len(data) > UserCapacity {
		return fmt.Errorf("%w: %d bytes, capacity %d", ndeftext.ErrTagFull, len(data), UserCapacity)
	}

	user := t.memory[UserStartPage*PageSize : UserEndPage*PageSize]
	clear(user)
	copy(user, data)
	return nil
}

// ReadMessage implements ndeftext.MessageReader
func (t *Tag) ReadMessage(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.present {
		return nil, ndeftext.NewTransportError("read", t.UID(), ndeftext.ErrTagRemoved, false)
	}
	return ndeftext.UnwrapTLV(t.memory[UserStartPage*PageSize : UserEndPage*PageSize])
}

// Close implements ndeftext.Transport
func (t *Tag) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closes++
	t.connected = false
	return t.closeErr
}

// SetMessage stores a raw NDEF message without going through Connect
func (t *Tag) SetMessage(msg []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.storeMessage(msg)
}

// Event returns the discovery event a phone would receive for this tag.
// A tag without a readable NDEF message yields an event with no messages.
func (t *Tag) Event() ndeftext.DiscoveryEvent {
	msg, err := t.ReadMessage(context.Background())
	if err != nil || len(msg) == 0 {
		return ndeftext.DiscoveryEvent{}
	}
	ev, err := ndeftext.EventFromMessages(msg)
	if err != nil {
		return ndeftext.DiscoveryEvent{}
	}
	return ev
}

// ReadPage returns a copy of one 4-byte page
func (t *Tag) ReadPage(page int) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if page < 0 || page >= PageCount {
		return nil, fmt.Errorf("page %d out of range", page)
	}
	return append([]byte{}, t.memory[page*PageSize:(page+1)*PageSize]...), nil
}

// readPages returns 16 bytes from page, wrapping at the end of memory like NTAG READ
func (t *Tag) readPages(page int) ([]byte, error) {
	if page < 0 || page >= PageCount {
		return nil, fmt.Errorf("page %d out of range", page)
	}
	out := make([]byte, 0, 4*PageSize)
	for i := range 4 {
		p := (page + i) % PageCount
		out = append(out, t.memory[p*PageSize:(p+1)*PageSize]...)
	}
	return out, nil
}

// writePage writes one page, refusing the UID, lock and configuration pages
func (t *Tag) writePage(page int, data []byte) error {
	if page < UserStartPage || page >= UserEndPage {
		return fmt.Errorf("page %d is write protected", page)
	}
	if len(data) != PageSize {
		return fmt.Errorf("data must be exactly %d bytes, got %d", PageSize, len(data))
	}
	copy(t.memory[page*PageSize:], data)
	return nil
}

var (
	_ ndeftext.Transport     = (*Tag)(nil)
	_ ndeftext.MessageReader = (*Tag)(nil)
)
