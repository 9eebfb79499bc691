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

// Package config loads the ndeftext CLI configuration file
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	yaml "gopkg.in/yaml.v3"
)

// Transport names accepted in the config file and on the command line
const (
	TransportUART = "uart"
	TransportI2C  = "i2c"
)

// Config is the on-disk CLI configuration. Zero values fall back to Default.
type Config struct {
	Language  string        `yaml:"language"`
	Device    string        `yaml:"device"`
	Transport string        `yaml:"transport"`
	Timeout   time.Duration `yaml:"timeout"`
	Retries   int           `yaml:"retries"`
	Debug     bool          `yaml:"debug"`

	// path is the file this config was read from and is written back to
	path string `yaml:"-"`
}

// Default returns the configuration used when no file exists
func Default() Config {
	return Config{
		Language:  "en",
		Transport: TransportUART,
		Timeout:   5 * time.Second,
		Retries:   2,
	}
}

// Path returns the file the config is bound to
func (c *Config) Path() string {
	return c.path
}

// Validate checks field values
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportUART, TransportI2C:
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must not be negative, got %d", c.Retries)
	}
	return nil
}

// Read loads the config at cfgPath, or the default location when cfgPath is
// empty. A missing default file yields Default; a missing explicit file is an
// error.
func Read(cfgPath string) (Config, error) {
	resolved, err := resolvePath(cfgPath)
	if err != nil {
		return Config{}, err
	}

	c := Default()
	c.path = resolved

	data, err := os.ReadFile(resolved)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	c.path = resolved
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", resolved, err)
	}
	return c, nil
}

// Write stores the config atomically at its path
func (c *Config) Write() error {
	path := c.path
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return err
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "config.*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}
	tmpPath := tmp.Name()

	enc := yaml.NewEncoder(tmp)
	if err := enc.Encode(c); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("flush config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp config file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp config file: %w", err)
	}

	c.path = path
	return nil
}

// DefaultPath returns ~/.config/ndeftext/config.yaml
func DefaultPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "ndeftext", "config.yaml"), nil
}

func resolvePath(cfgPath string) (string, error) {
	if cfgPath == "" {
		return DefaultPath()
	}

	expanded, err := homedir.Expand(cfgPath)
	if err != nil {
		return "", fmt.Errorf("expand config path: %w", err)
	}
	info, err := os.Stat(expanded)
	if err != nil {
		return "", fmt.Errorf("config file %q: %w", cfgPath, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("config file %q is a directory", cfgPath)
	}
	return expanded, nil
}
