package chain

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bitfsorg/rawtxlab/network"
	"github.com/bitfsorg/rawtxlab/planner"
	"github.com/bitfsorg/rawtxlab/script"
	"github.com/bitfsorg/rawtxlab/tx"
)

// HopSpec describes one spend from From to To.
type HopSpec struct {
	// Index is the hop's position in its chain, starting at 0.
	Index int
	// FromLabel and ToLabel name the addresses in the narrative ("A", "B'").
	FromLabel string
	ToLabel   string
	From      string
	To        string
	Amount    decimal.Decimal
	// Change receives the residual. Empty means From.
	Change string
	// DecodeSigned decodes the signed transaction before broadcast and reads
	// the unlocking script from it instead of the confirmed transaction.
	DecodeSigned bool

	// AfterDecode runs once the unsigned transaction is decoded and its
	// locking script described. AfterSign runs after signing, and after the
	// signed decode with DecodeSigned, before broadcast.
	AfterDecode func(*HopResult)
	AfterSign   func(*HopResult)
}

func (s HopSpec) change() string {
	if s.Change == "" {
		return s.From
	}
	return s.Change
}

// HopResult is everything a hop observed.
type HopResult struct {
	Spec HopSpec
	UTXO network.UnspentOutput
	Plan planner.OutputPlan
	// Fee is what the miner collects given UTXO and Plan.
	Fee decimal.Decimal

	UnsignedHex string
	Unsigned    *network.DecodedTx
	// LockingScript is vout[0] of the unsigned transaction: the script
	// paying To.
	LockingScript network.ScriptPubKey
	Locking       script.Info

	SignedHex string
	// Signed is only set with HopSpec.DecodeSigned.
	Signed *network.DecodedTx

	TxID      string
	BlockHash string
	Confirmed *network.DecodedTx
	Inclusion *Inclusion

	// UnlockingScript is vin[0].scriptSig; empty for native witness spends.
	UnlockingScript network.ScriptSig
	Unlocking       script.Info
	Witness         []string
}

// Hop spends the first confirmed output of spec.From: it plans the outputs,
// has the node build, sign and broadcast the transaction, mines it, fetches
// the confirmed form and checks it against the mining block's header.
//
// It returns ErrNoUnspent when From has nothing to spend and
// ErrSigningIncomplete when the wallet cannot sign; both are reported on
// the narrative before returning.
func (r *Runner) Hop(ctx context.Context, spec HopSpec) (*HopResult, error) {
	log := r.log.With(zap.Int("hop", spec.Index), zap.String("from", spec.From), zap.String("to", spec.To))

	unspent, err := r.node.ListUnspent(ctx, r.opts.MinConf, r.opts.MaxConf, []string{spec.From})
	if err != nil {
		return nil, fmt.Errorf("list unspent for %s: %w", spec.From, err)
	}
	if len(unspent) == 0 {
		r.out.line("No UTXOs found for address %s", spec.FromLabel)
		r.out.blank()
		log.Warn("no unspent output")
		return nil, fmt.Errorf("%w: address %s (%s)", ErrNoUnspent, spec.FromLabel, spec.From)
	}

	res := &HopResult{Spec: spec, UTXO: unspent[0]}
	r.out.line("UTXO for Address %s: %s:%d amount %s", spec.FromLabel,
		res.UTXO.TxID, res.UTXO.Vout, planner.FormatAmount(res.UTXO.Amount))
	r.out.blank()

	res.Plan = planner.Plan(res.UTXO.Amount, spec.To, spec.Amount, spec.change(), r.opts.Fee)
	res.Fee = tx.ImpliedFee(res.UTXO.Amount, res.Plan)
	if residual := planner.Residual(res.UTXO.Amount, spec.Amount, r.opts.Fee); residual.IsNegative() {
		log.Warn("input does not cover payment plus fee",
			zap.String("input", res.UTXO.Amount.String()),
			zap.String("residual", residual.String()))
	}
	log.Debug("planned outputs", zap.Int("outputs", res.Plan.Len()), zap.String("fee", res.Fee.String()))

	outpoint := res.UTXO.OutPoint()
	res.UnsignedHex, err = r.node.CreateRawTransaction(ctx, []network.OutPoint{outpoint}, res.Plan)
	if err != nil {
		return nil, fmt.Errorf("create raw transaction: %w", err)
	}
	if err := tx.VerifyUnsigned(res.UnsignedHex, outpoint, res.Plan); err != nil {
		return nil, fmt.Errorf("node built unexpected transaction: %w", err)
	}

	res.Unsigned, err = r.node.DecodeRawTransaction(ctx, res.UnsignedHex)
	if err != nil {
		return nil, fmt.Errorf("decode raw transaction: %w", err)
	}
	r.out.value(fmt.Sprintf("Decoded transaction from %s to %s:", spec.FromLabel, spec.ToLabel), res.Unsigned)
	if len(res.Unsigned.Vout) == 0 {
		return nil, fmt.Errorf("%w: decoded transaction has no outputs", ErrUnexpectedTx)
	}
	res.LockingScript = res.Unsigned.Vout[0].ScriptPubKey
	if res.Locking, err = script.Describe(res.LockingScript.Hex); err != nil {
		return nil, fmt.Errorf("locking script of %s: %w", spec.ToLabel, err)
	}
	log.Debug("locking script", zap.String("class", string(res.Locking.Class)))
	if spec.AfterDecode != nil {
		spec.AfterDecode(res)
	}

	signed, err := r.node.SignRawTransactionWithWallet(ctx, res.UnsignedHex)
	if err != nil {
		return nil, fmt.Errorf("sign raw transaction: %w", err)
	}
	if !signed.Complete {
		r.out.line("Transaction signing failed")
		r.out.blank()
		for _, e := range signed.Errors {
			log.Warn("sign error", zap.String("txid", e.TxID), zap.Uint32("vout", e.Vout), zap.String("error", e.Error))
		}
		return nil, fmt.Errorf("%w: %s to %s", ErrSigningIncomplete, spec.FromLabel, spec.ToLabel)
	}
	res.SignedHex = signed.Hex
	r.out.line("Transaction successfully signed")
	r.out.blank()

	if spec.DecodeSigned {
		res.Signed, err = r.node.DecodeRawTransaction(ctx, res.SignedHex)
		if err != nil {
			return nil, fmt.Errorf("decode signed transaction: %w", err)
		}
		r.out.value(fmt.Sprintf("Decoded signed transaction from %s to %s:", spec.FromLabel, spec.ToLabel), res.Signed)
		if err := res.setUnlocking(res.Signed); err != nil {
			return nil, err
		}
	}

	if spec.AfterSign != nil {
		spec.AfterSign(res)
	}

	res.TxID, err = r.node.SendRawTransaction(ctx, res.SignedHex)
	if err != nil {
		if network.KindOf(err) == network.KindTxRejected {
			r.out.line("Transaction %s to %s rejected by the node", spec.FromLabel, spec.ToLabel)
			r.out.blank()
			log.Warn("transaction rejected", zap.Error(err))
		}
		return nil, fmt.Errorf("send raw transaction: %w", err)
	}
	r.out.line("Transaction %s to %s: %s", spec.FromLabel, spec.ToLabel, res.TxID)
	r.out.blank()
	log.Info("broadcast transaction", zap.String("txid", res.TxID),
		zap.String("amount", spec.Amount.String()))

	if res.BlockHash, err = r.confirm(ctx); err != nil {
		return nil, err
	}

	res.Confirmed, err = r.node.GetRawTransaction(ctx, res.TxID)
	if err != nil {
		return nil, fmt.Errorf("get confirmed transaction %s: %w", res.TxID, err)
	}
	if res.Confirmed.BlockHash != "" {
		res.BlockHash = res.Confirmed.BlockHash
	}
	if len(res.Confirmed.Vout) == 0 || !script.Equal(res.Confirmed.Vout[0].ScriptPubKey.Hex, res.LockingScript.Hex) {
		return nil, fmt.Errorf("%w: confirmed %s does not pay the planned locking script", ErrUnexpectedTx, res.TxID)
	}
	if res.Inclusion, err = r.verifyInclusion(ctx, res.TxID, res.BlockHash); err != nil {
		return nil, err
	}
	if !spec.DecodeSigned {
		if err := res.setUnlocking(res.Confirmed); err != nil {
			return nil, err
		}
	}
	log.Debug("unlocking script", zap.String("class", string(res.Unlocking.Class)),
		zap.Int("witness_items", len(res.Witness)))

	r.recordHop(res)
	return res, nil
}

// setUnlocking reads the scriptSig and witness of vin[0] of decoded.
func (h *HopResult) setUnlocking(decoded *network.DecodedTx) error {
	if len(decoded.Vin) == 0 {
		return fmt.Errorf("%w: transaction %s has no inputs", ErrUnexpectedTx, decoded.TxID)
	}
	in := decoded.Vin[0]
	if in.ScriptSig != nil {
		h.UnlockingScript = *in.ScriptSig
	}
	h.Witness = in.TxInWitness
	info, err := script.DescribeUnlocking(h.UnlockingScript.Hex)
	if err != nil {
		return fmt.Errorf("unlocking script of %s: %w", h.Spec.FromLabel, err)
	}
	h.Unlocking = info
	return nil
}
