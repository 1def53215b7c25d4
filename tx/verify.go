// Package tx checks the unsigned transactions the node builds from an output
// plan before they are handed to the wallet for signing.
package tx

import (
	"fmt"
	"strings"

	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/shopspring/decimal"

	"github.com/bitfsorg/rawtxlab/network"
	"github.com/bitfsorg/rawtxlab/planner"
)

// ParseUnsigned decodes the hex returned by createrawtransaction.
func ParseUnsigned(rawHex string) (*transaction.Transaction, error) {
	t, err := transaction.NewTransactionFromHex(strings.TrimSpace(rawHex))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedTx, err)
	}
	return t, nil
}

// VerifyUnsigned checks that rawHex spends exactly spend, carries no
// unlocking script yet, and pays the plan's amounts in plan order.
//
// Addresses are not compared: the node already resolved them to scripts and
// the amounts plus order pin each output to its plan entry.
func VerifyUnsigned(rawHex string, spend network.OutPoint, plan planner.OutputPlan) error {
	t, err := ParseUnsigned(rawHex)
	if err != nil {
		return err
	}

	if len(t.Inputs) != 1 {
		return fmt.Errorf("%w: want 1 input, got %d", ErrInputMismatch, len(t.Inputs))
	}
	in := t.Inputs[0]
	if in.SourceTXID == nil || in.SourceTXID.String() != strings.ToLower(spend.TxID) || in.SourceTxOutIndex != spend.Vout {
		return fmt.Errorf("%w: got %s:%d, want %s:%d",
			ErrInputMismatch, in.SourceTXID, in.SourceTxOutIndex, spend.TxID, spend.Vout)
	}
	if in.UnlockingScript != nil && len(*in.UnlockingScript) > 0 {
		return ErrAlreadySigned
	}

	outputs := plan.Outputs()
	if len(t.Outputs) != len(outputs) {
		return fmt.Errorf("%w: want %d outputs, got %d", ErrOutputMismatch, len(outputs), len(t.Outputs))
	}
	for i, want := range outputs {
		sats, err := planner.ToSatoshis(want.Amount)
		if err != nil {
			return fmt.Errorf("%w: output %d: %w", ErrOutputMismatch, i, err)
		}
		if sats < 0 || t.Outputs[i].Satoshis != uint64(sats) {
			return fmt.Errorf("%w: output %d pays %s, plan has %s for %s", ErrOutputMismatch, i,
				planner.FormatAmount(planner.FromSatoshis(int64(t.Outputs[i].Satoshis))),
				planner.FormatAmount(want.Amount), want.Address)
		}
	}
	return nil
}

// ImpliedFee returns what the miner collects when inputAmount funds plan.
// It falls below the configured fee when the input cannot cover payment
// plus fee.
func ImpliedFee(inputAmount decimal.Decimal, plan planner.OutputPlan) decimal.Decimal {
	return inputAmount.Sub(plan.Total())
}
