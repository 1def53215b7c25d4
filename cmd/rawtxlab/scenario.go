package main

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/bitfsorg/rawtxlab/chain"
	"github.com/bitfsorg/rawtxlab/config"
	"github.com/bitfsorg/rawtxlab/network"
)

func scenario(ctx context.Context, name string, conf *scenarioConfig, env map[string]string,
	stdout, stderr io.Writer) error {
	cfg, err := loadSettings(&conf.CommonFlags)
	if err != nil {
		return err
	}
	if err := applyAmounts(&cfg, conf); err != nil {
		return err
	}
	rpcCfg, err := resolveRPC(&cfg, &conf.CommonFlags, env)
	if err != nil {
		return err
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}

	log, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	store, err := openJournal(cfg.Journal)
	if err != nil {
		return err
	}
	opts := []chain.Option{chain.WithOutput(stdout), chain.WithLogger(log)}
	if store != nil {
		defer store.Close()
		opts = append(opts, chain.WithJournal(store))
	}

	client := network.NewRPCClient(*rpcCfg).WithWallet(cfg.Wallet)
	log.Info("using node", zap.String("url", rpcCfg.URL), zap.String("network", cfg.Network),
		zap.String("wallet", cfg.Wallet))
	fmt.Fprintf(stdout, "Using Bitcoin Core RPC at %s\n\n", rpcCfg.URL)

	runner := chain.NewRunner(client, chain.OptionsFromConfig(cfg), opts...)
	var rep *chain.Report
	if name == segwitSubCmd {
		rep, err = runner.RunSegWit(ctx)
	} else {
		rep, err = runner.RunLegacy(ctx)
	}
	if conf.Summary && rep != nil {
		if err := rep.Summary(stdout); err != nil {
			return err
		}
	}
	return err
}

func applyAmounts(cfg *config.Config, conf *scenarioConfig) error {
	if err := setAmount(&cfg.Fee, "fee", conf.Fee); err != nil {
		return err
	}
	if err := setAmount(&cfg.FundAmount, "fund", conf.FundAmount); err != nil {
		return err
	}
	if err := setAmount(&cfg.FirstPayment, "first", conf.FirstPayment); err != nil {
		return err
	}
	return setAmount(&cfg.SecondPayment, "second", conf.SecondPayment)
}
