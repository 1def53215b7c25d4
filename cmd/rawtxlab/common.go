package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bitfsorg/rawtxlab/config"
	"github.com/bitfsorg/rawtxlab/journal"
	"github.com/bitfsorg/rawtxlab/logging"
	"github.com/bitfsorg/rawtxlab/network"
	"github.com/bitfsorg/rawtxlab/planner"
)

// environ returns the environment variables the CLI consults.
func environ() map[string]string {
	env := make(map[string]string)
	for _, key := range []string{network.EnvRPCURL, network.EnvRPCUser, network.EnvRPCPass} {
		if v, ok := os.LookupEnv(key); ok {
			env[key] = v
		}
	}
	return env
}

// loadSettings reads the config file and applies the command line on top.
// A missing file is only an error when --config named it explicitly.
func loadSettings(f *CommonFlags) (config.Config, error) {
	return layerSettings(f, f.ConfigFile != "")
}

func layerSettings(f *CommonFlags, requireFile bool) (config.Config, error) {
	cfg, err := config.LoadConfig(settingsPath(f))
	if err != nil {
		if !errors.Is(err, config.ErrConfigNotFound) || requireFile {
			return cfg, err
		}
		cfg = config.DefaultConfig()
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}

	// Switching network on the command line drops the file's node
	// settings so the new network's preset applies.
	if f.Network != "" && f.Network != cfg.Network {
		cfg.Network = f.Network
		cfg.RPCURL, cfg.RPCUser, cfg.RPCPass = "", "", ""
	}
	setString(&cfg.Wallet, f.Wallet)
	setString(&cfg.Journal, f.Journal)
	setString(&cfg.LogLevel, f.LogLevel)
	setString(&cfg.LogFormat, f.LogFormat)
	return cfg, nil
}

// settingsPath is --config, or the config file inside the data directory.
func settingsPath(f *CommonFlags) string {
	if f.ConfigFile != "" {
		return f.ConfigFile
	}
	dataDir := f.DataDir
	if dataDir == "" {
		dataDir = config.DefaultDataDir()
	}
	return config.ConfigPath(dataDir)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setAmount(dst *decimal.Decimal, flag, v string) error {
	if v == "" {
		return nil
	}
	amt, err := planner.ParseAmount(v)
	if err != nil {
		return fmt.Errorf("--%s: %w", flag, err)
	}
	*dst = amt
	return nil
}

// resolveRPC layers the node connection settings: flags, then environment,
// then config file, then the network preset. cfg.RPCURL is updated to the
// resolved URL.
func resolveRPC(cfg *config.Config, f *CommonFlags, env map[string]string) (*network.RPCConfig, error) {
	layer := network.RPCConfig{
		URL:      cfg.RPCURL,
		User:     cfg.RPCUser,
		Password: cfg.RPCPass,
		Timeout:  cfg.RPCTimeout,
	}
	setString(&layer.URL, env[network.EnvRPCURL])
	setString(&layer.User, env[network.EnvRPCUser])
	setString(&layer.Password, env[network.EnvRPCPass])
	setString(&layer.URL, f.RPCURL)
	setString(&layer.User, f.RPCUser)
	setString(&layer.Password, f.RPCPass)

	rpc, err := network.ResolveConfig(&layer, nil, cfg.Network)
	if err != nil {
		return nil, err
	}
	cfg.RPCURL, cfg.RPCUser, cfg.RPCPass = rpc.URL, rpc.User, rpc.Password
	return rpc, nil
}

func newLogger(cfg config.Config, stderr io.Writer) (*zap.Logger, error) {
	log, _, err := logging.New(stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	return log, nil
}

func openJournal(path string) (*journal.Store, error) {
	if path == "" {
		return nil, nil
	}
	store, err := journal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return store, nil
}
