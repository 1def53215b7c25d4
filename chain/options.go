package chain

import (
	"github.com/shopspring/decimal"

	"github.com/bitfsorg/rawtxlab/config"
)

// Options carries every constant a scenario uses.
type Options struct {
	Network string
	Wallet  string

	Fee           decimal.Decimal
	FundAmount    decimal.Decimal
	FirstPayment  decimal.Decimal
	SecondPayment decimal.Decimal

	// MinConf and MaxConf bound the confirmations listunspent accepts.
	MinConf int
	MaxConf int

	// MinBalance is the wallet balance below which the segwit scenario
	// mines BootstrapBlocks blocks before it starts.
	MinBalance      decimal.Decimal
	BootstrapBlocks int
}

// OptionsFromConfig copies the scenario settings out of cfg.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Network:         cfg.Network,
		Wallet:          cfg.Wallet,
		Fee:             cfg.Fee,
		FundAmount:      cfg.FundAmount,
		FirstPayment:    cfg.FirstPayment,
		SecondPayment:   cfg.SecondPayment,
		MinConf:         cfg.MinConf,
		MaxConf:         cfg.MaxConf,
		MinBalance:      cfg.MinBalance,
		BootstrapBlocks: cfg.BootstrapBlocks,
	}
}
