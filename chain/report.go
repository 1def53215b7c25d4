package chain

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/bitfsorg/rawtxlab/network"
	"github.com/bitfsorg/rawtxlab/planner"
)

// Report is what a scenario produced, possibly cut short by an error.
type Report struct {
	RunID      string
	Scenario   Scenario
	Network    string
	Wallet     string
	StartedAt  time.Time
	FinishedAt time.Time

	Labels      []string
	Addresses   []string
	FundingTxID string
	Hops        []*HopResult

	// Set by the segwit scenario only.
	Mempool    *network.MempoolInfo
	Blockchain *network.BlockchainInfo
}

// Summary writes a compact overview of rep to w.
func (rep *Report) Summary(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "run\t%s\n", rep.RunID)
	fmt.Fprintf(tw, "scenario\t%s\n", rep.Scenario)
	fmt.Fprintf(tw, "network\t%s\n", rep.Network)
	fmt.Fprintf(tw, "wallet\t%s\n", rep.Wallet)
	for i, addr := range rep.Addresses {
		label := fmt.Sprintf("#%d", i)
		if i < len(rep.Labels) {
			label = rep.Labels[i]
		}
		fmt.Fprintf(tw, "address %s\t%s\n", label, addr)
	}
	if rep.FundingTxID != "" {
		fmt.Fprintf(tw, "funding\t%s\n", rep.FundingTxID)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(rep.Hops) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "HOP\tTXID\tPAYMENT\tCHANGE\tFEE\tSIZE\tVSIZE\tBLOCK\tLOCKING\tUNLOCKING")
	for _, hop := range rep.Hops {
		change := "-"
		if c, ok := hop.Plan.Change(); ok {
			change = planner.FormatAmount(c.Amount)
		}
		var size, vsize int
		if hop.Confirmed != nil {
			size, vsize = hop.Confirmed.Size, hop.Confirmed.VSize
		}
		block := "-"
		if hop.Inclusion != nil {
			block = fmt.Sprintf("%d:%d", hop.Inclusion.Height, hop.Inclusion.Index)
		}
		fmt.Fprintf(tw, "%s->%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
			hop.Spec.FromLabel, hop.Spec.ToLabel, hop.TxID,
			planner.FormatAmount(hop.Spec.Amount), change, planner.FormatAmount(hop.Fee),
			size, vsize, block, hop.Locking.Class, hop.Unlocking.Class)
	}
	return tw.Flush()
}
