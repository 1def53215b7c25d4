package chain

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bitfsorg/rawtxlab/journal"
	"github.com/bitfsorg/rawtxlab/network"
	"github.com/bitfsorg/rawtxlab/script"
)

// Scenario names a payment chain.
type Scenario string

const (
	ScenarioLegacy Scenario = "legacy"
	ScenarioSegWit Scenario = "segwit"
)

// run wraps fn with run bookkeeping: a fresh run id, journal records and
// lifecycle logs. The report is returned even when fn fails.
func (r *Runner) run(ctx context.Context, scenario Scenario, fn func(context.Context, *Report) error) (*Report, error) {
	rep := &Report{
		RunID:    journal.NewRunID(),
		Scenario: scenario,
		Network:  r.opts.Network,
		Wallet:   r.opts.Wallet,
	}
	r.runID = rep.RunID
	defer func() { r.runID = "" }()

	log := r.log.With(zap.String("run", rep.RunID), zap.String("scenario", string(scenario)))
	log.Info("run started")
	rep.StartedAt = r.now()
	r.recordRun(rep, nil)

	err := fn(ctx, rep)

	rep.FinishedAt = r.now()
	r.recordRun(rep, err)
	switch {
	case err == nil:
		log.Info("run finished", zap.Int("hops", len(rep.Hops)))
	case Halted(err):
		log.Warn("run halted", zap.Error(err))
	default:
		log.Error("run failed", zap.Error(err))
	}
	return rep, err
}

// RunLegacy funds a legacy address A, pays B from A and C from B, and
// prints the locking script of B and the unlocking script B used to pay C.
func (r *Runner) RunLegacy(ctx context.Context) (*Report, error) {
	return r.run(ctx, ScenarioLegacy, func(ctx context.Context, rep *Report) error {
		if err := r.EnsureWallet(ctx); err != nil {
			return err
		}
		if err := r.setup(ctx, rep, network.AddressLegacy, "A", "B", "C"); err != nil {
			return err
		}
		a, b, c := rep.Addresses[0], rep.Addresses[1], rep.Addresses[2]

		first, err := r.Hop(ctx, HopSpec{
			Index: 0, FromLabel: "A", ToLabel: "B", From: a, To: b, Amount: r.opts.FirstPayment,
			AfterDecode: func(h *HopResult) {
				r.out.line("ScriptPubKey for Address B: %s", h.LockingScript.Hex)
				r.out.blank()
			},
		})
		if err != nil {
			return err
		}
		rep.Hops = append(rep.Hops, first)

		second, err := r.Hop(ctx, HopSpec{
			Index: 1, FromLabel: "B", ToLabel: "C", From: b, To: c, Amount: r.opts.SecondPayment,
			DecodeSigned: true,
			AfterSign: func(h *HopResult) {
				r.out.line("ScriptSig for Address B to C: %s", scriptSigOrNone(h.UnlockingScript))
				r.out.blank()
			},
		})
		if err != nil {
			return err
		}
		rep.Hops = append(rep.Hops, second)
		r.out.value("Complete transaction from B to C:", second.Confirmed)

		r.out.line("Analysis:")
		r.out.line("Transaction ID from A to B: %s", first.TxID)
		r.out.line("Transaction ID from B to C: %s", second.TxID)
		r.out.line("Raw Transaction Hex A to B: %s", first.UnsignedHex)
		r.out.line("Raw Transaction Hex B to C: %s", second.UnsignedHex)
		r.out.line("ScriptPubKey (locking script) from A to B: %s", first.LockingScript.Hex)
		r.out.line("ScriptSig (unlocking script) from B to C: %s", scriptSigOrNone(second.UnlockingScript))
		r.out.line("Locking script: %s", first.Locking)
		r.out.line("Unlocking script: %s", second.Unlocking)
		r.out.line("Use Bitcoin Debugger to validate these scripts.")
		r.out.blank()
		return nil
	})
}

// RunSegWit runs the same chain over P2SH-wrapped SegWit addresses A', B'
// and C', mining a mature balance first if needed, and prints both
// challenge/response script pairs, the confirmed sizes and node state.
func (r *Runner) RunSegWit(ctx context.Context) (*Report, error) {
	return r.run(ctx, ScenarioSegWit, func(ctx context.Context, rep *Report) error {
		if err := r.EnsureWallet(ctx); err != nil {
			return err
		}
		if err := r.EnsureMatureBalance(ctx); err != nil {
			return err
		}
		if err := r.setup(ctx, rep, network.AddressP2SHSegWit, "A'", "B'", "C'"); err != nil {
			return err
		}
		a, b, c := rep.Addresses[0], rep.Addresses[1], rep.Addresses[2]

		specs := []HopSpec{
			{Index: 0, FromLabel: "A'", ToLabel: "B'", From: a, To: b, Amount: r.opts.FirstPayment},
			{Index: 1, FromLabel: "B'", ToLabel: "C'", From: b, To: c, Amount: r.opts.SecondPayment},
		}
		for _, spec := range specs {
			spec.AfterDecode = func(h *HopResult) {
				r.out.value(fmt.Sprintf("ScriptPubKey (Challenge) for Address %s:", h.Spec.ToLabel), h.LockingScript)
			}
			hop, err := r.Hop(ctx, spec)
			if err != nil {
				return err
			}
			rep.Hops = append(rep.Hops, hop)
			r.out.value(fmt.Sprintf("ScriptSig (Response) from Address %s to Address %s:", spec.FromLabel, spec.ToLabel),
				hop.UnlockingScript)
			if !script.IsNestedSegWit(hop.UnlockingScript.Hex) {
				return fmt.Errorf("%w: %s spent %s without a nested SegWit scriptSig", ErrUnexpectedTx, hop.TxID, spec.FromLabel)
			}
		}

		r.out.line("Analysis:")
		for _, hop := range rep.Hops {
			r.out.line("Transaction ID from %s to %s: %s", hop.Spec.FromLabel, hop.Spec.ToLabel, hop.TxID)
		}
		r.out.blank()
		for _, hop := range rep.Hops {
			r.out.line("Final Transaction Size (%s to %s): %d bytes", hop.Spec.FromLabel, hop.Spec.ToLabel, hop.Confirmed.Size)
			r.out.line("Final Virtual Transaction Size (%s to %s): %d bytes", hop.Spec.FromLabel, hop.Spec.ToLabel, hop.Confirmed.VSize)
			r.out.blank()
		}
		r.out.line("Challenge and Response Scripts:")
		for _, hop := range rep.Hops {
			r.out.line("ScriptPubKey (Challenge) for Address %s: %s", hop.Spec.ToLabel, hop.Locking)
			r.out.line("ScriptSig (Response) from Address %s to Address %s: %s", hop.Spec.FromLabel, hop.Spec.ToLabel, hop.Unlocking)
			r.out.line("Witness: %v", hop.Witness)
			r.out.blank()
		}
		r.out.line("Use Bitcoin Debugger to validate these scripts.")
		r.out.blank()

		var err error
		if rep.Mempool, err = r.node.GetMempoolInfo(ctx); err != nil {
			return fmt.Errorf("get mempool info: %w", err)
		}
		r.out.value("Mempool info:", rep.Mempool)
		if rep.Blockchain, err = r.node.GetBlockchainInfo(ctx); err != nil {
			return fmt.Errorf("get blockchain info: %w", err)
		}
		r.out.value("Blockchain info:", rep.Blockchain)
		return nil
	})
}

// setup creates one address per label, prints them and funds the first.
func (r *Runner) setup(ctx context.Context, rep *Report, addrType network.AddressType, labels ...string) error {
	addrs, err := r.newAddresses(ctx, addrType, labels...)
	if err != nil {
		return err
	}
	rep.Labels = labels
	rep.Addresses = addrs
	for i, label := range labels {
		r.out.line("Address %s: %s", label, addrs[i])
	}
	r.out.blank()
	r.recordRun(rep, nil)

	rep.FundingTxID, err = r.fund(ctx, addrs[0])
	if err != nil {
		return err
	}
	r.recordRun(rep, nil)
	return nil
}

func scriptSigOrNone(s network.ScriptSig) string {
	if s.Hex == "" {
		return "No ScriptSig found"
	}
	return s.Hex
}
