// SPDX-FileCopyrightText: Copyright (C) 2024  The loki-network authors
// SPDX-License-Identifier: AGPL-3.0-only

// Package config provides the router configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/tewinget/loki-network/core/rc"
)

const defaultLogLevel = "NOTICE"

// testnetLifetime is the aggressive descriptor lifetime used on test
// networks so that churn shakes out quickly.
const testnetLifetime = time.Minute

var defaultLogging = Logging{
	Disable: false,
	File:    "",
	Level:   defaultLogLevel,
}

// Router is the router identity configuration.
type Router struct {
	// DataDir is the absolute path to the router's state files.
	DataDir string

	// Nickname is the optional human readable display name advertised
	// in the router's descriptor.
	Nickname string

	// NetID is the network this router participates in.
	NetID string
}

func (rCfg *Router) validate() error {
	if rCfg.DataDir == "" {
		return errors.New("config: Router: DataDir is not set")
	}
	if !filepath.IsAbs(rCfg.DataDir) {
		return fmt.Errorf("config: Router: DataDir '%v' is not an absolute path", rCfg.DataDir)
	}
	if rCfg.NetID == "" {
		rCfg.NetID = rc.DefaultNetIDString
	}
	if _, err := rc.NetIDFromString(rCfg.NetID); err != nil {
		return fmt.Errorf("config: Router: NetID '%v' is invalid: %v", rCfg.NetID, err)
	}
	if len(rCfg.Nickname) > rc.NicknameSize {
		return fmt.Errorf("config: Router: Nickname '%v' exceeds %d bytes", rCfg.Nickname, rc.NicknameSize)
	}
	return nil
}

// Network is the network policy configuration.
type Network struct {
	// Testnet marks this as a non-production network: the bogon
	// filter is relaxed and descriptors expire aggressively.
	Testnet bool

	// AllowBogons disables the non-routable address filter.  Only
	// meaningful off testnet; testnet always allows bogons.
	AllowBogons bool
}

// Logging is the logging configuration.
type Logging struct {
	// Disable disables logging entirely.
	Disable bool

	// File specifies the log file, if omitted stdout is used.
	File string

	// Level specifies the log level.
	Level string
}

func (lCfg *Logging) validate() error {
	lvl := strings.ToUpper(lCfg.Level)
	switch lvl {
	case "ERROR", "WARNING", "NOTICE", "INFO", "DEBUG":
	case "":
		lvl = defaultLogLevel
	default:
		return fmt.Errorf("config: Logging: Level '%v' is invalid", lCfg.Level)
	}
	lCfg.Level = lvl // Force uppercase.
	return nil
}

// Config is the top level router configuration.
type Config struct {
	Router  *Router
	Network *Network
	Logging *Logging
}

// FixupAndValidate applies defaults to config entries and validates
// the configuration sections.
func (cfg *Config) FixupAndValidate() error {
	// The Router section is mandatory, everything else is optional.
	if cfg.Router == nil {
		return errors.New("config: No Router block was present")
	}
	if cfg.Network == nil {
		cfg.Network = &Network{}
	}
	if cfg.Logging == nil {
		cfg.Logging = &defaultLogging
	}

	if err := cfg.Router.validate(); err != nil {
		return err
	}
	return cfg.Logging.validate()
}

// NetID returns the configured network identifier.
func (cfg *Config) NetID() rc.NetID {
	id, err := rc.NetIDFromString(cfg.Router.NetID)
	if err != nil {
		// validate has already run.
		panic(err)
	}
	return id
}

// ApplyPolicy pushes the network policy knobs into the descriptor
// package.
func (cfg *Config) ApplyPolicy() {
	rc.BlockBogons = !(cfg.Network.Testnet || cfg.Network.AllowBogons)
	if cfg.Network.Testnet {
		rc.Lifetime = testnetLifetime
	}
}

// Load parses and validates the provided buffer b as a config file
// body and returns the Config.
func Load(b []byte) (*Config, error) {
	if b == nil {
		return nil, errors.New("No nil buffer as config file")
	}

	cfg := new(Config)
	err := toml.Unmarshal(b, cfg)
	if err != nil {
		return nil, err
	}
	if err := cfg.FixupAndValidate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile loads, parses and validates the provided file and returns
// the Config.
func LoadFile(f string) (*Config, error) {
	b, err := os.ReadFile(f)
	if err != nil {
		return nil, err
	}
	return Load(b)
}
