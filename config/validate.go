// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validNetworks = map[string]bool{
	"mainnet": true,
	"testnet": true,
	"signet":  true,
	"regtest": true,
}

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if !validNetworks[cfg.Network] {
		return ErrInvalidNetwork
	}

	// An empty URL defers to the network preset.
	if cfg.RPCURL != "" {
		if err := validateURL(cfg.RPCURL); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRPCURL, err)
		}
	}

	if cfg.Wallet == "" {
		return ErrEmptyWallet
	}

	// The fee may be zero; payments and funding must be positive.
	if cfg.Fee.IsNegative() {
		return fmt.Errorf("%w: fee %s is negative", ErrInvalidAmount, cfg.Fee)
	}
	for name, amt := range map[string]decimal.Decimal{
		"fundamount":    cfg.FundAmount,
		"firstpayment":  cfg.FirstPayment,
		"secondpayment": cfg.SecondPayment,
	} {
		if !amt.IsPositive() {
			return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidAmount, name, amt)
		}
	}

	if cfg.MinConf < 0 || cfg.MaxConf < cfg.MinConf {
		return fmt.Errorf("%w: minconf %d, maxconf %d", ErrInvalidConfRange, cfg.MinConf, cfg.MaxConf)
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	switch strings.ToLower(cfg.LogFormat) {
	case "console", "json":
	default:
		return ErrInvalidLogFormat
	}

	return nil
}

// validateURL checks that raw is an absolute http(s) URL with a host.
func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
