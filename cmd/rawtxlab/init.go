package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bitfsorg/rawtxlab/config"
)

var errConfigExists = errors.New("config file already exists (use --force to overwrite)")

// initFile saves the layered settings, node endpoint flags included, so
// later runs need no flags.
func initFile(conf *initConfig, stdout io.Writer) error {
	f := &conf.CommonFlags
	// --config may name the file to create.
	cfg, err := layerSettings(f, false)
	if err != nil {
		return err
	}
	setString(&cfg.RPCURL, f.RPCURL)
	setString(&cfg.RPCUser, f.RPCUser)
	setString(&cfg.RPCPass, f.RPCPass)
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}

	path := settingsPath(f)
	if !conf.Force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", errConfigExists, path)
		}
	}
	if err := config.SaveConfig(path, cfg); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %s\n", path)
	return nil
}
