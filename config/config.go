// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads and validates rawtxlab settings from a key = value file.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bitfsorg/rawtxlab/planner"
)

// Config holds every tunable of a demo run. The defaults reproduce the
// regtest walkthrough: wallet "mywallet", 1 BTC funding, hops of 0.5 and
// 0.25 BTC and a flat 0.0001 BTC fee.
type Config struct {
	DataDir string

	Network    string
	RPCURL     string
	RPCUser    string
	RPCPass    string
	RPCTimeout time.Duration

	Wallet          string
	Fee             decimal.Decimal
	FundAmount      decimal.Decimal
	FirstPayment    decimal.Decimal
	SecondPayment   decimal.Decimal
	MinConf         int
	MaxConf         int
	MinBalance      decimal.Decimal
	BootstrapBlocks int

	// Journal is the bbolt file runs are recorded in. Empty disables it.
	Journal string

	LogLevel  string
	LogFormat string
}

// DefaultDataDir returns ~/.rawtxlab, or .rawtxlab when the home directory
// is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".rawtxlab"
	}
	return filepath.Join(home, ".rawtxlab")
}

// ConfigPath returns the config file location inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config")
}

// DefaultConfig returns the configuration used when no file or flag
// overrides a value. The node endpoint is left empty so the network's
// preset supplies it.
func DefaultConfig() Config {
	return Config{
		DataDir:         DefaultDataDir(),
		Network:         "regtest",
		RPCTimeout:      120 * time.Second,
		Wallet:          "mywallet",
		Fee:             decimal.RequireFromString("0.0001"),
		FundAmount:      decimal.RequireFromString("1.0"),
		FirstPayment:    decimal.RequireFromString("0.5"),
		SecondPayment:   decimal.RequireFromString("0.25"),
		MinConf:         1,
		MaxConf:         9999999,
		MinBalance:      decimal.NewFromInt(50),
		BootstrapBlocks: 101,
		LogLevel:        "info",
		LogFormat:       "console",
	}
}

// LoadConfig reads path on top of DefaultConfig. Blank lines and lines
// starting with '#' are skipped and unknown keys are ignored.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, err := parseKeyValue(line)
		if err != nil {
			return cfg, fmt.Errorf("%w: line %d: %q", ErrInvalidConfigLine, lineNo, line)
		}
		if err := cfg.set(key, value); err != nil {
			return cfg, fmt.Errorf("config: line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	return cfg, nil
}

// parseKeyValue splits "key = value" on the first '='.
func parseKeyValue(line string) (string, string, error) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", ErrInvalidConfigLine
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return "", "", ErrInvalidConfigLine
	}
	return key, strings.TrimSpace(value), nil
}

func (c *Config) set(key, value string) error {
	var err error
	switch key {
	case "datadir":
		c.DataDir = value
	case "network":
		c.Network = value
	case "rpcurl":
		c.RPCURL = value
	case "rpcuser":
		c.RPCUser = value
	case "rpcpass":
		c.RPCPass = value
	case "rpctimeout":
		c.RPCTimeout, err = time.ParseDuration(value)
	case "wallet":
		c.Wallet = value
	case "fee":
		c.Fee, err = parseAmount(key, value)
	case "fundamount":
		c.FundAmount, err = parseAmount(key, value)
	case "firstpayment":
		c.FirstPayment, err = parseAmount(key, value)
	case "secondpayment":
		c.SecondPayment, err = parseAmount(key, value)
	case "minbalance":
		c.MinBalance, err = parseAmount(key, value)
	case "minconf":
		c.MinConf, err = strconv.Atoi(value)
	case "maxconf":
		c.MaxConf, err = strconv.Atoi(value)
	case "bootstrapblocks":
		c.BootstrapBlocks, err = strconv.Atoi(value)
	case "journal":
		c.Journal = value
	case "loglevel":
		c.LogLevel = value
	case "logformat":
		c.LogFormat = value
	}
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func parseAmount(key, value string) (decimal.Decimal, error) {
	d, err := planner.ParseAmount(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %w", ErrInvalidAmount, err)
	}
	return d, nil
}

// SaveConfig writes cfg to path, creating parent directories as needed.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("# rawtxlab configuration\n\n")
	write := func(key, value string) { fmt.Fprintf(&b, "%s = %s\n", key, value) }
	write("datadir", cfg.DataDir)
	write("network", cfg.Network)
	write("rpcurl", cfg.RPCURL)
	write("rpcuser", cfg.RPCUser)
	write("rpcpass", cfg.RPCPass)
	write("rpctimeout", cfg.RPCTimeout.String())
	write("wallet", cfg.Wallet)
	write("fee", planner.FormatAmount(cfg.Fee))
	write("fundamount", planner.FormatAmount(cfg.FundAmount))
	write("firstpayment", planner.FormatAmount(cfg.FirstPayment))
	write("secondpayment", planner.FormatAmount(cfg.SecondPayment))
	write("minconf", strconv.Itoa(cfg.MinConf))
	write("maxconf", strconv.Itoa(cfg.MaxConf))
	write("minbalance", planner.FormatAmount(cfg.MinBalance))
	write("bootstrapblocks", strconv.Itoa(cfg.BootstrapBlocks))
	write("journal", cfg.Journal)
	write("loglevel", cfg.LogLevel)
	write("logformat", cfg.LogFormat)

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
