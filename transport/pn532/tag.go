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

// Package pn532 implements the tag Transport for NTAG21x tags behind a PN532
// controller. The controller is reached through a Link such as uart.Link or
// i2c.Link.
package pn532

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	ndeftext "github.com/ZaparooProject/go-ndeftext"
)

// PN532 command codes
const (
	cmdSamConfiguration    = 0x14
	cmdInListPassiveTarget = 0x4A
	cmdInDataExchange      = 0x40
	cmdInRelease           = 0x52
)

// NTAG21x layout and commands
const (
	ntagCmdRead   = 0x30
	ntagCmdWrite  = 0xA2
	ntagPageSize  = 4
	ntagReadSize  = 16
	ntagCCPage    = 3
	ntagUserStart = 4
	ccMagic       = 0xE1
)

// ErrNotFormatted is returned when the capability container does not carry
// the NDEF magic number.
var ErrNotFormatted = errors.New("tag is not NDEF formatted")

// Link sends a single PN532 command and returns the response data following
// the response code.
type Link interface {
	SendCommand(ctx context.Context, cmd byte, args []byte) ([]byte, error)
	Close() error
}

// TagOption configures a Tag
type TagOption func(*Tag) error

// WithName sets the device name reported in transport errors
func WithName(name string) TagOption {
	return func(t *Tag) error {
		t.name = name
		return nil
	}
}

// WithCapacity overrides the data area size read from the capability container
func WithCapacity(size int) TagOption {
	return func(t *Tag) error {
		if size <= 0 {
			return fmt.Errorf("invalid capacity %d", size)
		}
		t.capacity = size
		t.fixedCapacity = true
		return nil
	}
}

// Tag is an NTAG21x tag selected through a PN532. It implements
// ndeftext.Transport and ndeftext.MessageReader. The Link stays owned by the
// caller; Close only releases the selected target.
type Tag struct {
	link          Link
	name          string
	uid           []byte
	capacity      int
	target        byte
	connected     bool
	fixedCapacity bool
}

// NewTag creates a Tag using link
func NewTag(link Link, opts ...TagOption) (*Tag, error) {
	if link == nil {
		return nil, errors.New("nil link")
	}
	t := &Tag{link: link, name: "pn532"}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// UID returns the hex UID of the selected tag, empty before Connect
func (t *Tag) UID() string {
	return hex.EncodeToString(t.uid)
}

// Capacity returns the size of the NDEF data area in bytes
func (t *Tag) Capacity() int {
	return t.capacity
}

// Connect configures the PN532 and selects one ISO14443A target
func (t *Tag) Connect(ctx context.Context) error {
	if t.connected {
		return nil
	}

	if _, err := t.link.SendCommand(ctx, cmdSamConfiguration, []byte{0x01, 0x14, 0x01}); err != nil {
		return t.wrap("SAMConfiguration", err)
	}

	// MaxTg = 1, BrTy = 106 kbps type A
	resp, err := t.link.SendCommand(ctx, cmdInListPassiveTarget, []byte{0x01, 0x00})
	if err != nil {
		return t.wrap("InListPassiveTarget", err)
	}
	if err := t.selectTarget(resp); err != nil {
		return err
	}
	t.connected = true

	if t.fixedCapacity {
		return nil
	}
	if err := t.readCapability(ctx); err != nil {
		_ = t.Close()
		return err
	}
	return nil
}

// selectTarget parses an InListPassiveTarget response:
// NbTg, Tg, SENS_RES(2), SEL_RES, NFCIDLength, NFCID...
func (t *Tag) selectTarget(resp []byte) error {
	if len(resp) == 0 || resp[0] == 0 {
		return ndeftext.NewTransportError("connect", t.name, ndeftext.ErrNoTagDetected, true)
	}
	if len(resp) < 6 {
		return ndeftext.NewTransportError("connect", t.name,
			fmt.Errorf("short InListPassiveTarget response: %d bytes", len(resp)), false)
	}
	uidLen := int(resp[5])
	if len(resp) < 6+uidLen {
		return ndeftext.NewTransportError("connect", t.name,
			fmt.Errorf("truncated UID: want %d bytes", uidLen), false)
	}

	t.target = resp[1]
	t.uid = append([]byte{}, resp[6:6+uidLen]...)
	return nil
}

func (t *Tag) readCapability(ctx context.Context) error {
	data, err := t.readPages(ctx, ntagCCPage)
	if err != nil {
		return err
	}
	if data[0] != ccMagic {
		return ndeftext.NewTransportError("connect", t.name,
			fmt.Errorf("%w: CC magic 0x%02X", ErrNotFormatted, data[0]), false)
	}
	t.capacity = int(data[2]) * 8
	return nil
}

// WriteMessage writes msg inside an NDEF TLV starting at the first user page
func (t *Tag) WriteMessage(ctx context.Context, msg []byte) error {
	if !t.connected {
		return ndeftext.NewTransportError("write", t.name, ndeftext.ErrTagNotConnected, false)
	}

	data, err := ndeftext.WrapTLV(msg)
	if err != nil {
		return err
	}
	if len(data) > t.capacity {
		return fmt.Errorf("%w: %d bytes, capacity %d", ndeftext.ErrTagFull, len(data), t.capacity)
	}

	if pad := len(data) % ntagPageSize; pad != 0 {
		data = append(data, make([]byte, ntagPageSize-pad)...)
	}

	for off := 0; off < len(data); off += ntagPageSize {
		page := byte(ntagUserStart + off/ntagPageSize)
		args := []byte{t.target, ntagCmdWrite, page}
		args = append(args, data[off:off+ntagPageSize]...)
		if _, err := t.dataExchange(ctx, args); err != nil {
			return t.wrap(fmt.Sprintf("write page %d", page), err)
		}
	}
	return nil
}

// ReadMessage reads the user area until a complete NDEF TLV is found
func (t *Tag) ReadMessage(ctx context.Context) ([]byte, error) {
	if !t.connected {
		return nil, ndeftext.NewTransportError("read", t.name, ndeftext.ErrTagNotConnected, false)
	}

	var data []byte
	lastErr := ndeftext.ErrNoNDEF
	for off := 0; off < t.capacity; off += ntagReadSize {
		page := byte(ntagUserStart + off/ntagPageSize)
		chunk, err := t.readPages(ctx, page)
		if err != nil {
			return nil, err
		}
		data = append(data, chunk...)
		if len(data) > t.capacity {
			data = data[:t.capacity]
		}

		msg, err := ndeftext.UnwrapTLV(data)
		if err == nil {
			return msg, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// readPages reads four pages starting at page
func (t *Tag) readPages(ctx context.Context, page byte) ([]byte, error) {
	data, err := t.dataExchange(ctx, []byte{t.target, ntagCmdRead, page})
	if err != nil {
		return nil, t.wrap(fmt.Sprintf("read page %d", page), err)
	}
	if len(data) < ntagReadSize {
		return nil, ndeftext.NewTransportError("read", t.name,
			fmt.Errorf("short read at page %d: %d bytes", page, len(data)), true)
	}
	return data[:ntagReadSize], nil
}

// dataExchange runs InDataExchange and checks the status byte
func (t *Tag) dataExchange(ctx context.Context, args []byte) ([]byte, error) {
	resp, err := t.link.SendCommand(ctx, cmdInDataExchange, args)
	if err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return nil, errors.New("empty InDataExchange response")
	}
	if status := resp[0] & 0x3F; status != 0 {
		return nil, fmt.Errorf("InDataExchange status 0x%02X", status)
	}
	return resp[1:], nil
}

// Close releases the selected target
func (t *Tag) Close() error {
	if !t.connected {
		return nil
	}
	t.connected = false

	// Close may run after the caller's context ended; release regardless
	if _, err := t.link.SendCommand(context.Background(), cmdInRelease, []byte{t.target}); err != nil {
		return t.wrap("InRelease", err)
	}
	return nil
}

func (t *Tag) wrap(op string, err error) error {
	var te *ndeftext.TransportError
	if errors.As(err, &te) {
		return err
	}
	return ndeftext.NewTransportError(op, t.name, err, false)
}

var (
	_ ndeftext.Transport     = (*Tag)(nil)
	_ ndeftext.MessageReader = (*Tag)(nil)
)
