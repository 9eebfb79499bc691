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

// Package i2c provides a PN532 link over an I2C bus
package i2c

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	ndeftext "github.com/ZaparooProject/go-ndeftext"
	"github.com/ZaparooProject/go-ndeftext/internal/frame"
	"github.com/ZaparooProject/go-ndeftext/internal/retry"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

const (
	// PN532 7-bit I2C address
	pn532Addr = 0x24

	// Status byte prefixed to every read
	pn532Ready = 0x01

	maxClockFreq   = 400 * physic.KiloHertz
	defaultTimeout = time.Second
	pollInterval   = time.Millisecond

	// ready byte + preamble/start/len/lcs + max data + dcs/postamble
	responseReadSize = 1 + 5 + frame.MaxDataLength + 2
)

// Conn is the part of an I2C device Link uses
type Conn interface {
	Tx(w, r []byte) error
}

// Link talks to a PN532 over I2C. Commands are serialized.
type Link struct {
	conn    Conn
	closer  func() error
	busName string
	timeout time.Duration
	mu      sync.Mutex
}

// New opens busName (empty for the first bus) and addresses the PN532
func New(busName string) (*Link, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %s: %w", busName, err)
	}

	// Keep the default speed when the bus refuses 400 kHz
	_ = bus.SetSpeed(maxClockFreq)

	link := NewWithConn(&i2c.Dev{Addr: pn532Addr, Bus: bus}, busName)
	link.closer = bus.Close
	return link, nil
}

// NewWithConn wraps an existing device connection
func NewWithConn(conn Conn, busName string) *Link {
	return &Link{
		conn:    conn,
		busName: busName,
		timeout: defaultTimeout,
	}
}

// SetTimeout sets how long to wait for the ACK and the response of a command
func (l *Link) SetTimeout(timeout time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.timeout = timeout
}

// SendCommand writes a command frame, waits for the ACK and returns the
// response data
func (l *Link) SendCommand(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	frm, err := frame.Build(cmd, args)
	if err != nil {
		return nil, ndeftext.NewTransportError("sendFrame", l.busName, err, false)
	}
	if err := l.conn.Tx(frm, nil); err != nil {
		return nil, ndeftext.NewTransportError("sendFrame", l.busName, err, true)
	}

	if err := l.waitAck(ctx); err != nil {
		return nil, err
	}

	f, err := l.receiveFrame(ctx)
	if err != nil {
		return nil, err
	}
	data, err := frame.ResponseData(f, cmd)
	if err != nil {
		return nil, ndeftext.NewTransportError("receiveFrame", l.busName, err, true)
	}
	return data, nil
}

// waitAck polls the ready byte and reads the ACK frame
func (l *Link) waitAck(ctx context.Context) error {
	buf := make([]byte, 1+len(frame.AckFrame))
	_, err := retry.Poll(ctx, l.timeout, pollInterval, func(_ context.Context) (struct{}, bool, error) {
		if err := l.conn.Tx(nil, buf); err != nil {
			return struct{}{}, false, fmt.Errorf("I2C ACK read failed: %w", err)
		}
		if buf[0] != pn532Ready {
			return struct{}{}, true, nil
		}
		if !bytes.Equal(buf[1:], frame.AckFrame) {
			return struct{}{}, false, errors.New("no ACK")
		}
		return struct{}{}, false, nil
	})
	if err != nil {
		return ndeftext.NewTransportError("waitAck", l.busName, err, true)
	}
	return nil
}

// receiveFrame polls the ready byte and parses the response frame
func (l *Link) receiveFrame(ctx context.Context) (frame.Frame, error) {
	buf := make([]byte, responseReadSize)
	f, err := retry.Poll(ctx, l.timeout, pollInterval, func(_ context.Context) (frame.Frame, bool, error) {
		if err := l.conn.Tx(nil, buf); err != nil {
			return frame.Frame{}, false, fmt.Errorf("I2C frame read failed: %w", err)
		}
		if buf[0] != pn532Ready {
			return frame.Frame{}, true, nil
		}
		f, _, err := frame.Extract(buf[1:])
		return f, false, err
	})
	if err != nil {
		retryable := !errors.Is(err, frame.ErrApplication)
		return frame.Frame{}, ndeftext.NewTransportError("receiveFrame", l.busName, err, retryable)
	}
	return f, nil
}

// Close closes the I2C bus when Link opened it
func (l *Link) Close() error {
	if l.closer == nil {
		return nil
	}
	if err := l.closer(); err != nil {
		return fmt.Errorf("failed to close I2C bus: %w", err)
	}
	return nil
}
