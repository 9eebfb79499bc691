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

package virtualtag

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// PN532 command codes answered by Link
const (
	cmdSamConfiguration    = 0x14
	cmdInListPassiveTarget = 0x4A
	cmdInDataExchange      = 0x40
	cmdInRelease           = 0x52

	ntagCmdRead  = 0x30
	ntagCmdWrite = 0xA2
)

// InDataExchange status codes
const (
	statusOK      = 0x00
	statusTimeout = 0x01
	statusNAK     = 0x14
)

// ErrLinkClosed is returned by SendCommand after Close
var ErrLinkClosed = errors.New("virtual link closed")

// Link emulates a PN532 with a single Tag in its field. It satisfies the
// link interface used by transport/pn532 so the whole stack can run
// without hardware.
type Link struct {
	tag      *Tag
	commands []byte
	mu       sync.Mutex
	closed   bool
}

// NewLink returns a Link serving tag. A nil tag behaves like an empty field.
func NewLink(tag *Tag) *Link {
	return &Link{tag: tag}
}

// Commands returns the command codes received so far
func (l *Link) Commands() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]byte{}, l.commands...)
}

// SendCommand answers one PN532 command
func (l *Link) SendCommand(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, ErrLinkClosed
	}
	l.commands = append(l.commands, cmd)

	switch cmd {
	case cmdSamConfiguration:
		return []byte{}, nil
	case cmdInListPassiveTarget:
		return l.listTarget(), nil
	case cmdInDataExchange:
		return l.dataExchange(args)
	case cmdInRelease:
		return []byte{statusOK}, nil
	default:
		return nil, fmt.Errorf("unsupported command 0x%02X", cmd)
	}
}

func (l *Link) listTarget() []byte {
	if l.tag == nil {
		return []byte{0x00}
	}

	l.tag.mu.Lock()
	defer l.tag.mu.Unlock()
	if !l.tag.present {
		return []byte{0x00}
	}

	// NbTg, Tg, SENS_RES, SEL_RES, NFCIDLength, NFCID
	resp := []byte{0x01, 0x01, 0x00, 0x44, 0x00, byte(len(l.tag.uid))}
	return append(resp, l.tag.uid...)
}

func (l *Link) dataExchange(args []byte) ([]byte, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("short InDataExchange arguments: %d bytes", len(args))
	}
	if l.tag == nil {
		return []byte{statusTimeout}, nil
	}

	l.tag.mu.Lock()
	defer l.tag.mu.Unlock()
	if !l.tag.present {
		return []byte{statusTimeout}, nil
	}

	page := int(args[2])
	switch args[1] {
	case ntagCmdRead:
		data, err := l.tag.readPages(page)
		if err != nil {
			return []byte{statusNAK}, nil
		}
		return append([]byte{statusOK}, data...), nil
	case ntagCmdWrite:
		if err := l.tag.writePage(page, args[3:]); err != nil {
			return []byte{statusNAK}, nil
		}
		return []byte{statusOK}, nil
	default:
		return []byte{statusNAK}, nil
	}
}

// Close shuts the link down
func (l *Link) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}
