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
	"github.com/ZaparooProject/go-ndeftext/internal/virtualtag"
	"github.com/ZaparooProject/go-ndeftext/polling"
	"github.com/spf13/cobra"
)

var pollInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the text record of every tag presented to the reader",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		err := runWatch(ctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	},
}

func init() {
	watchCmd.Flags().StringVarP(&deviceFlag, "device", "d", "", "Serial port or I2C bus (default from config)")
	watchCmd.Flags().StringVarP(&transportFlag, "transport", "t", "", "Reader transport: uart or i2c (default from config)")
	watchCmd.Flags().BoolVar(&virtualFlag, "virtual", false, "Use an in-memory NTAG213 instead of hardware")
	watchCmd.Flags().DurationVar(&pollInterval, "poll-interval", polling.DefaultConfig().PollInterval,
		"Polling interval for tag detection")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(ctx context.Context) error {
	var virtual *virtualtag.Tag
	if virtualFlag {
		virtual = virtualtag.NewNTAG213(nil)
	}
	s, err := openSession(virtual)
	if err != nil {
		return err
	}
	defer func() { _ = s.close() }()

	reader, err := ndeftext.NewReader()
	if err != nil {
		return err
	}

	pcfg := polling.DefaultConfig()
	pcfg.PollInterval = pollInterval
	if pcfg.RemovalTimeout < 2*pollInterval {
		pcfg.RemovalTimeout = 2 * pollInterval
	}

	monitor := polling.NewMonitor(s.tag, pcfg)
	if cfg.Debug {
		monitor.SetLogger(newDebugLogger())
	}
	monitor.OnDiscovery = func(ev ndeftext.DiscoveryEvent) {
		rec, err := reader.HandleDiscovery(ev)
		switch {
		case err != nil:
			_, _ = fmt.Fprintf(errWriter, "Unreadable text record: %v\n", err)
		case rec == nil:
			_, _ = fmt.Fprintf(outWriter, "Tag %s: no text record\n", s.tag.UID())
		default:
			_, _ = fmt.Fprintf(outWriter, "Tag %s: %s\n", s.tag.UID(), rec)
		}
	}
	monitor.OnRemoved = func() {
		_, _ = fmt.Fprintln(outWriter, "Tag removed")
	}

	_, _ = fmt.Fprintf(outWriter, "Watching %s, press Ctrl-C to stop\n", s.name)
	return monitor.Start(ctx)
}
