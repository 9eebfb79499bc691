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

// Package uart provides a PN532 link over a serial port
package uart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	ndeftext "github.com/ZaparooProject/go-ndeftext"
	"github.com/ZaparooProject/go-ndeftext/internal/frame"
	"github.com/ZaparooProject/go-ndeftext/internal/retry"
	"go.bug.st/serial"
)

const (
	defaultBaudRate = 115200
	defaultTimeout  = time.Second
	readInterval    = 10 * time.Millisecond
	readChunkSize   = 64
)

// HSU wake-up: two 0x55 bytes followed by enough zeros for the PN532 to leave
// power down.
var wakeSequence = []byte{
	0x55, 0x55, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

// Port is the subset of serial.Port used by Link
type Port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	ResetInputBuffer() error
	SetReadTimeout(t time.Duration) error
	Close() error
}

// Option configures a Link
type Option func(*Link) error

// WithTimeout sets how long to wait for the ACK and the response of a command
func WithTimeout(timeout time.Duration) Option {
	return func(l *Link) error {
		if timeout <= 0 {
			return fmt.Errorf("invalid timeout %s", timeout)
		}
		l.timeout = timeout
		return nil
	}
}

// Link talks to a PN532 over a serial port. It is safe for concurrent use;
// commands are serialized.
type Link struct {
	port     Port
	portName string
	pending  []byte
	timeout  time.Duration
	mu       sync.Mutex
}

// New opens portName at 115200 8N1 and wakes the PN532
func New(portName string, opts ...Option) (*Link, error) {
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: defaultBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}

	link, err := NewWithPort(port, portName, opts...)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	return link, nil
}

// NewWithPort wraps an already opened port
func NewWithPort(port Port, portName string, opts ...Option) (*Link, error) {
	l := &Link{
		port:     port,
		portName: portName,
		timeout:  defaultTimeout,
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}

	if err := port.SetReadTimeout(readInterval); err != nil {
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}
	if _, err := port.Write(wakeSequence); err != nil {
		return nil, ndeftext.NewTransportError("wakeup", portName, err, true)
	}
	return l, nil
}

// Name returns the serial port name
func (l *Link) Name() string {
	return l.portName
}

// SendCommand writes a command frame, waits for the ACK and returns the
// response data
func (l *Link) SendCommand(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	frm, err := frame.Build(cmd, args)
	if err != nil {
		return nil, ndeftext.NewTransportError("sendFrame", l.portName, err, false)
	}

	l.pending = l.pending[:0]
	if err := l.port.ResetInputBuffer(); err != nil {
		return nil, ndeftext.NewTransportError("sendFrame", l.portName, err, true)
	}
	if _, err := l.port.Write(frm); err != nil {
		return nil, ndeftext.NewTransportError("sendFrame", l.portName, err, true)
	}

	ack, err := l.readFrame(ctx)
	if err != nil {
		return nil, err
	}
	if !ack.Ack {
		return nil, ndeftext.NewTransportError("waitAck", l.portName, errors.New("no ACK"), true)
	}

	resp, err := l.readFrame(ctx)
	if err != nil {
		return nil, err
	}
	data, err := frame.ResponseData(resp, cmd)
	if err != nil {
		return nil, ndeftext.NewTransportError("receiveFrame", l.portName, err, true)
	}
	return data, nil
}

// readFrame reads until one complete frame is buffered or the timeout expires
func (l *Link) readFrame(ctx context.Context) (frame.Frame, error) {
	chunk := make([]byte, readChunkSize)

	f, err := retry.Poll(ctx, l.timeout, 0, func(_ context.Context) (frame.Frame, bool, error) {
		f, consumed, err := frame.Extract(l.pending)
		if !errors.Is(err, frame.ErrIncomplete) {
			l.pending = append(l.pending[:0], l.pending[consumed:]...)
			return f, false, err
		}

		n, err := l.port.Read(chunk)
		if err != nil {
			return frame.Frame{}, false, err
		}
		l.pending = append(l.pending, chunk[:n]...)
		return frame.Frame{}, true, nil
	})
	if err == nil {
		return f, nil
	}

	retryable := errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, frame.ErrNack) ||
		errors.Is(err, frame.ErrChecksumMismatch) ||
		errors.Is(err, frame.ErrFrameCorrupted)
	return frame.Frame{}, ndeftext.NewTransportError("receiveFrame", l.portName, err, retryable)
}

// Close closes the serial port
func (l *Link) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.port.Close(); err != nil {
		return fmt.Errorf("failed to close serial port: %w", err)
	}
	return nil
}
