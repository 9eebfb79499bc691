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
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	ndeftext "github.com/ZaparooProject/go-ndeftext"
	"github.com/ZaparooProject/go-ndeftext/internal/config"
	"github.com/ZaparooProject/go-ndeftext/internal/retry"
	"github.com/ZaparooProject/go-ndeftext/internal/virtualtag"
	"github.com/ZaparooProject/go-ndeftext/transport/i2c"
	"github.com/ZaparooProject/go-ndeftext/transport/pn532"
	"github.com/ZaparooProject/go-ndeftext/transport/uart"
	"github.com/spf13/cobra"
)

var (
	deviceFlag    string
	transportFlag string
	writeLang     string
	virtualFlag   bool
	verifyFlag    bool
)

var writeCmd = &cobra.Command{
	Use:   "write TEXT",
	Short: "Write text to the tag on the reader",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return runWrite(ctx, args[0])
	},
}

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read the text record from the tag on the reader",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return runRead(ctx)
	},
}

func init() {
	for _, c := range []*cobra.Command{writeCmd, readCmd} {
		c.Flags().StringVarP(&deviceFlag, "device", "d", "", "Serial port or I2C bus (default from config)")
		c.Flags().StringVarP(&transportFlag, "transport", "t", "", "Reader transport: uart or i2c (default from config)")
		c.Flags().BoolVar(&virtualFlag, "virtual", false, "Use an in-memory NTAG213 instead of hardware")
	}
	writeCmd.Flags().StringVarP(&writeLang, "lang", "l", "", "Language code (default from config)")
	writeCmd.Flags().BoolVar(&verifyFlag, "verify", true, "Read the message back after writing")

	rootCmd.AddCommand(writeCmd, readCmd)
}

// session is an opened reader with the tag it drives
type session struct {
	tag   *pn532.Tag
	close func() error
	name  string
}

func openSession(virtual *virtualtag.Tag) (*session, error) {
	if virtual != nil {
		link := virtualtag.NewLink(virtual)
		tag, err := pn532.NewTag(link, pn532.WithName("virtual"))
		if err != nil {
			return nil, err
		}
		return &session{tag: tag, close: link.Close, name: "virtual"}, nil
	}

	transport := cfg.Transport
	if transportFlag != "" {
		transport = transportFlag
	}
	device := cfg.Device
	if deviceFlag != "" {
		device = deviceFlag
	}

	var link pn532.Link
	switch transport {
	case config.TransportUART:
		if device == "" {
			return nil, errors.New("no serial device configured; use --device")
		}
		l, err := uart.New(device, uart.WithTimeout(cfg.Timeout))
		if err != nil {
			return nil, err
		}
		link = l
	case config.TransportI2C:
		l, err := i2c.New(device)
		if err != nil {
			return nil, err
		}
		l.SetTimeout(cfg.Timeout)
		link = l
	default:
		return nil, fmt.Errorf("unknown transport %q", transport)
	}

	tag, err := pn532.NewTag(link, pn532.WithName(device))
	if err != nil {
		_ = link.Close()
		return nil, err
	}
	return &session{tag: tag, close: link.Close, name: device}, nil
}

func runWrite(ctx context.Context, text string) error {
	lang := cfg.Language
	if writeLang != "" {
		lang = writeLang
	}

	w, err := ndeftext.NewWriter(
		ndeftext.WithLanguage(lang),
		ndeftext.WithRetry(cfg.Retries, 100*time.Millisecond),
		ndeftext.WithVerify(verifyFlag),
	)
	if err != nil {
		return err
	}

	var virtual *virtualtag.Tag
	if virtualFlag {
		virtual = virtualtag.NewNTAG213(nil)
	}
	s, err := openSession(virtual)
	if err != nil {
		return err
	}
	defer func() { _ = s.close() }()

	err = w.Write(ctx, s.tag, text)
	_, _ = fmt.Fprintln(outWriter, ndeftext.Notice(err))
	if err != nil {
		return err
	}

	if virtual != nil {
		return showRecord(virtual.Event())
	}
	return nil
}

func runRead(ctx context.Context) error {
	var virtual *virtualtag.Tag
	if virtualFlag {
		virtual = virtualtag.NewNTAG213(nil)
	}
	s, err := openSession(virtual)
	if err != nil {
		return err
	}
	defer func() { _ = s.close() }()

	msg, err := readMessage(ctx, s.tag)
	if errors.Is(err, ndeftext.ErrNoTagDetected) {
		_, _ = fmt.Fprintln(outWriter, ndeftext.MsgNoTag)
		return err
	}
	if err != nil && !errors.Is(err, ndeftext.ErrNoNDEF) {
		return err
	}

	ev := ndeftext.DiscoveryEvent{}
	if len(msg) > 0 {
		if ev, err = ndeftext.EventFromMessages(msg); err != nil {
			return err
		}
	}
	return showRecord(ev)
}

func readMessage(ctx context.Context, tag *pn532.Tag) ([]byte, error) {
	cfgRetry := retry.Config{
		Description: "connect",
		MaxRetries:  cfg.Retries,
		RetryDelay:  100 * time.Millisecond,
	}
	_, err := retry.Do(ctx, cfgRetry, func(ctx context.Context) (struct{}, bool, error) {
		err := tag.Connect(ctx)
		return struct{}{}, ndeftext.IsRetryable(err), err
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tag.Close() }()

	return tag.ReadMessage(ctx)
}

func showRecord(ev ndeftext.DiscoveryEvent) error {
	reader, err := ndeftext.NewReader()
	if err != nil {
		return err
	}
	rec, err := reader.HandleDiscovery(ev)
	if err != nil {
		return err
	}
	if rec == nil {
		_, _ = fmt.Fprintln(outWriter, "No text record on tag")
		return nil
	}
	printRecord(rec)
	return nil
}
