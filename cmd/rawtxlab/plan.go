package main

import (
	"fmt"
	"io"

	"github.com/bitfsorg/rawtxlab/planner"
	"github.com/bitfsorg/rawtxlab/tx"
)

// plan prints the createrawtransaction outputs object for a spend,
// followed by the change and implied fee.
func plan(conf *planConfig, stdout, stderr io.Writer) error {
	input, err := planner.ParseAmount(conf.Input)
	if err != nil {
		return fmt.Errorf("--input: %w", err)
	}
	amount, err := planner.ParseAmount(conf.Amount)
	if err != nil {
		return fmt.Errorf("--amount: %w", err)
	}
	fee, err := planner.ParseAmount(conf.Fee)
	if err != nil {
		return fmt.Errorf("--fee: %w", err)
	}

	p := planner.Plan(input, conf.PayTo, amount, conf.Change, fee)
	data, err := p.MarshalJSON()
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s\n", data)

	residual := planner.Residual(input, amount, fee)
	fmt.Fprintf(stdout, "residual %s\n", planner.FormatAmount(residual))
	fmt.Fprintf(stdout, "implied fee %s\n", planner.FormatAmount(tx.ImpliedFee(input, p)))
	if residual.IsNegative() {
		fmt.Fprintf(stderr, "warning: input %s does not cover payment %s plus fee %s\n",
			planner.FormatAmount(input), planner.FormatAmount(amount), planner.FormatAmount(fee))
	}
	return nil
}
