package network

import (
	"fmt"
	"time"
)

// RPCConfig holds the connection parameters for a Bitcoin Core node's JSON-RPC interface.
type RPCConfig struct {
	URL      string        `json:"url"`
	User     string        `json:"user"`
	Password string        `json:"password"`
	Network  string        `json:"network"`
	Timeout  time.Duration `json:"timeout"`
}

// Environment variables consulted by ResolveConfig.
const (
	EnvRPCURL  = "RAWTXLAB_RPC_URL"
	EnvRPCUser = "RAWTXLAB_RPC_USER"
	EnvRPCPass = "RAWTXLAB_RPC_PASS"
)

// NetworkPresets contains default RPC configurations for known networks.
// Mainnet is intentionally omitted to require explicit configuration.
var NetworkPresets = map[string]RPCConfig{
	"regtest": {URL: "http://127.0.0.1:18443", User: "nipun", Password: "nipun"},
	"testnet": {URL: "http://127.0.0.1:18332"},
	"signet":  {URL: "http://127.0.0.1:38332"},
}

// ResolveConfig merges RPC configuration from three sources with decreasing priority:
//  1. CLI flags (highest priority)
//  2. Environment variables (RAWTXLAB_RPC_URL, RAWTXLAB_RPC_USER, RAWTXLAB_RPC_PASS)
//  3. Network presets (lowest priority, regtest/testnet/signet only)
//
// For mainnet, explicit configuration is required -- there is no preset.
func ResolveConfig(flags *RPCConfig, env map[string]string, network string) (*RPCConfig, error) {
	result := RPCConfig{Network: network, Timeout: DefaultTimeout}

	if preset, ok := NetworkPresets[network]; ok {
		result.URL = preset.URL
		result.User = preset.User
		result.Password = preset.Password
	}

	if env != nil {
		if v, ok := env[EnvRPCURL]; ok && v != "" {
			result.URL = v
		}
		if v, ok := env[EnvRPCUser]; ok && v != "" {
			result.User = v
		}
		if v, ok := env[EnvRPCPass]; ok && v != "" {
			result.Password = v
		}
	}

	if flags != nil {
		if flags.URL != "" {
			result.URL = flags.URL
		}
		if flags.User != "" {
			result.User = flags.User
		}
		if flags.Password != "" {
			result.Password = flags.Password
		}
		if flags.Timeout > 0 {
			result.Timeout = flags.Timeout
		}
	}

	if result.URL == "" {
		return nil, fmt.Errorf("network: %s requires explicit RPC configuration (set --rpcurl, %s, or config file)", network, EnvRPCURL)
	}

	return &result, nil
}
