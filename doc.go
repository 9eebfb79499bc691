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

/*
Package ndeftext encodes and decodes NFC Forum Text records and writes them to
NFC tags as single-record NDEF messages.

A Text record payload is a status byte, an ASCII language code and the text:

	status | language code | text

Bit 7 of the status byte selects UTF-16 text, bits 0-5 hold the length of the
language code. Encode always produces UTF-8; Decode accepts both encodings and
treats UTF-16 without a byte order mark as big-endian.

Encoding and decoding:

	rec, err := ndeftext.Encode("Hello", "en")
	if err != nil {
	    return err
	}
	// rec.Payload == []byte{0x02, 'e', 'n', 'H', 'e', 'l', 'l', 'o'}

	text, err := ndeftext.Decode(rec.Payload)
	if err != nil {
	    return err
	}
	fmt.Println(text.Language, text.Text)

Reading discovered tags:

A Reader keeps the most recent record decoded from tag discovery events. Only
the first record of the first message is used; an event without records leaves
the current record untouched.

	reader, err := ndeftext.NewReader()
	if err != nil {
	    return err
	}
	rec, err := reader.HandleDiscovery(ev)

Writing tags:

A Writer takes the tag handle on every call. It encodes the text before the tag
is touched, connects, writes one message and always releases the tag once it
was connected. Any Transport works; transport/pn532 drives NTAG21x tags through
a PN532 attached over UART (transport/uart) or I2C (transport/i2c).

	link, err := uart.New("/dev/ttyUSB0")
	if err != nil {
	    return err
	}
	defer link.Close()

	tag, err := pn532.NewTag(link)
	if err != nil {
	    return err
	}

	w, err := ndeftext.NewWriter(ndeftext.WithLanguage("en"))
	if err != nil {
	    return err
	}
	err = w.Write(ctx, tag, "Hello")
	fmt.Println(ndeftext.Notice(err))

Debug logging goes through zerolog and is off by default; see SetDebugEnabled
and SetLogger.
*/
package ndeftext
