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

import "time"

// TagState tracks the tag currently on the reader
type TagState struct {
	LastSeenTime time.Time
	LastUID      string
	Present      bool
}

// TransitionToPresent records uid as present and reports whether it is a
// different tag from the last one seen
func (s *TagState) TransitionToPresent(uid string, now time.Time) bool {
	changed := !s.Present || s.LastUID != uid
	s.Present = true
	s.LastUID = uid
	s.LastSeenTime = now
	return changed
}

// RemovalDue reports whether a present tag has been missing for longer than timeout
func (s *TagState) RemovalDue(now time.Time, timeout time.Duration) bool {
	return s.Present && now.Sub(s.LastSeenTime) >= timeout
}

// TransitionToIdle resets to the empty state
func (s *TagState) TransitionToIdle() {
	s.Present = false
	s.LastUID = ""
	s.LastSeenTime = time.Time{}
}
