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

package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	ndeftext "github.com/ZaparooProject/go-ndeftext"
	"github.com/spf13/cobra"
)

// Output and input formats for encode and decode
const (
	formatPayload = "payload"
	formatMessage = "message"
	formatTLV     = "tlv"
)

var (
	encodeLang   string
	encodeFormat string
	decodeFormat string
)

var encodeCmd = &cobra.Command{
	Use:   "encode TEXT",
	Short: "Encode text as a Text record and print it as hex",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		lang := encodeLang
		if lang == "" {
			lang = cfg.Language
		}
		out, err := encodeText(args[0], lang, encodeFormat)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(outWriter, hex.EncodeToString(out))
		return nil
	},
}

var decodeCmd = &cobra.Command{
	Use:   "decode HEX",
	Short: "Decode a hex Text record payload or NDEF message",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		rec, err := decodeHex(args[0], decodeFormat)
		if err != nil {
			return err
		}
		printRecord(rec)
		return nil
	},
}

func init() {
	encodeCmd.Flags().StringVarP(&encodeLang, "lang", "l", "", "Language code (default from config)")
	encodeCmd.Flags().StringVarP(&encodeFormat, "format", "f", formatPayload, "Output format: payload, message or tlv")
	decodeCmd.Flags().StringVarP(&decodeFormat, "format", "f", formatPayload, "Input format: payload or message")

	rootCmd.AddCommand(encodeCmd, decodeCmd)
}

func encodeText(text, lang, format string) ([]byte, error) {
	rec, err := ndeftext.Encode(text, lang)
	if err != nil {
		return nil, err
	}

	switch format {
	case formatPayload:
		return rec.Payload, nil
	case formatMessage:
		return ndeftext.BuildMessage(rec)
	case formatTLV:
		msg, err := ndeftext.BuildMessage(rec)
		if err != nil {
			return nil, err
		}
		return ndeftext.WrapTLV(msg)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func decodeHex(s, format string) (*ndeftext.TextRecord, error) {
	s = strings.NewReplacer(" ", "", ":", "").Replace(strings.TrimSpace(s))
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex input: %w", err)
	}

	switch format {
	case formatPayload:
		return ndeftext.Decode(data)
	case formatMessage:
		ev, err := ndeftext.EventFromMessages(data)
		if err != nil {
			return nil, err
		}
		payload, ok := ev.FirstPayload()
		if !ok {
			return nil, errors.New("message has no records")
		}
		return ndeftext.Decode(payload)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func printRecord(rec *ndeftext.TextRecord) {
	_, _ = fmt.Fprintf(outWriter, "Text:     %s\n", rec.Text)
	_, _ = fmt.Fprintf(outWriter, "Language: %s\n", rec.Language)
	_, _ = fmt.Fprintf(outWriter, "Encoding: %s\n", rec.Encoding)
}
