package chain

import (
	"go.uber.org/zap"

	"github.com/bitfsorg/rawtxlab/journal"
)

// recordRun stores the current state of rep. err is the run's outcome
// once FinishedAt is set. Journal failures are logged, never returned.
func (r *Runner) recordRun(rep *Report, err error) {
	if r.journal == nil {
		return
	}
	run := &journal.Run{
		ID:          rep.RunID,
		Scenario:    string(rep.Scenario),
		Network:     rep.Network,
		Wallet:      rep.Wallet,
		Addresses:   rep.Addresses,
		FundingTxID: rep.FundingTxID,
		Status:      journal.StatusRunning,
		StartedAt:   rep.StartedAt,
		FinishedAt:  rep.FinishedAt,
	}
	if !rep.FinishedAt.IsZero() {
		run.Status = runStatus(err)
		if err != nil {
			run.Error = err.Error()
		}
	}
	if err := r.journal.PutRun(run); err != nil {
		r.log.Warn("journal run", zap.String("run", rep.RunID), zap.Error(err))
	}
}

func runStatus(err error) journal.Status {
	switch {
	case err == nil:
		return journal.StatusOK
	case Halted(err):
		return journal.StatusHalted
	}
	return journal.StatusFailed
}

func (r *Runner) recordHop(res *HopResult) {
	if r.journal == nil || r.runID == "" {
		return
	}
	hop := &journal.Hop{
		Index:           res.Spec.Index,
		From:            res.Spec.From,
		To:              res.Spec.To,
		InputTxID:       res.UTXO.TxID,
		InputVout:       res.UTXO.Vout,
		InputAmount:     res.UTXO.Amount,
		Fee:             res.Fee,
		UnsignedHex:     res.UnsignedHex,
		SignedHex:       res.SignedHex,
		TxID:            res.TxID,
		LockingScript:   res.LockingScript.Hex,
		UnlockingScript: res.UnlockingScript.Hex,
		Witness:         res.Witness,
		BlockHash:       res.BlockHash,
	}
	// What To actually receives; more than Spec.Amount when To is also
	// the change address.
	hop.Payment, _ = res.Plan.Amount(res.Spec.To)
	if change, ok := res.Plan.Change(); ok {
		hop.Change = change.Amount
	}
	if res.Inclusion != nil {
		hop.BlockHeight = res.Inclusion.Height
		hop.BlockIndex = res.Inclusion.Index
	}
	if res.Confirmed != nil {
		hop.Size = res.Confirmed.Size
		hop.VSize = res.Confirmed.VSize
	}
	if err := r.journal.PutHop(r.runID, hop); err != nil {
		r.log.Warn("journal hop", zap.String("run", r.runID), zap.Int("hop", hop.Index), zap.Error(err))
	}
}
