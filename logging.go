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
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	logMu     sync.RWMutex
	pkgLogger = zerolog.Nop()
)

// SetDebugEnabled switches package debug logging to stderr on or off.
func SetDebugEnabled(enabled bool) {
	if !enabled {
		SetLogger(zerolog.Nop())
		return
	}

	SetLogger(zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.DebugLevel).
		With().
		Timestamp().
		Str("component", "ndeftext").
		Logger())
}

// SetLogger replaces the package logger
func SetLogger(l zerolog.Logger) {
	logMu.Lock()
	defer logMu.Unlock()
	pkgLogger = l
}

func logger() *zerolog.Logger {
	logMu.RLock()
	defer logMu.RUnlock()
	l := pkgLogger
	return &l
}
