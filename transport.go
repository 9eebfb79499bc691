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

import "context"

// Transport is the connection to a single detected tag. Implementations
// are not required to be safe for concurrent use.
type Transport interface {
	// Connect acquires the tag connection
	Connect(ctx context.Context) error

	// WriteMessage writes one raw NDEF message to the connected tag
	WriteMessage(ctx context.Context, msg []byte) error

	// Close releases the tag connection
	Close() error
}

// MessageReader is implemented by transports that can read back the NDEF
// message stored on a tag.
type MessageReader interface {
	ReadMessage(ctx context.Context) ([]byte, error)
}
