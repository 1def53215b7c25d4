package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/bitfsorg/rawtxlab/journal"
	"github.com/bitfsorg/rawtxlab/planner"
)

var errNoJournal = errors.New("no journal configured (set --journal or journal in the config file)")

func runs(conf *runsConfig, stdout io.Writer) error {
	cfg, err := loadSettings(&conf.CommonFlags)
	if err != nil {
		return err
	}
	if cfg.Journal == "" {
		return errNoJournal
	}
	store, err := journal.Open(cfg.Journal)
	if err != nil {
		return err
	}
	defer store.Close()

	if conf.RunID != "" {
		return showRun(store, conf.RunID, stdout)
	}

	all, err := store.ListRuns()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSCENARIO\tNETWORK\tSTATUS\tSTARTED\tERROR")
	for _, r := range all {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Scenario, r.Network, r.Status, r.StartedAt.Format(time.RFC3339), r.Error)
	}
	return tw.Flush()
}

func showRun(store *journal.Store, id string, stdout io.Writer) error {
	r, err := store.GetRun(id)
	if err != nil {
		return err
	}
	hops, err := store.Hops(id)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "run %s (%s, %s) %s\n", r.ID, r.Scenario, r.Network, r.Status)
	if r.Error != "" {
		fmt.Fprintf(stdout, "error: %s\n", r.Error)
	}
	for i, addr := range r.Addresses {
		fmt.Fprintf(stdout, "address %d: %s\n", i, addr)
	}
	for _, h := range hops {
		fmt.Fprintf(stdout, "\nhop %d: %s -> %s\n", h.Index, h.From, h.To)
		fmt.Fprintf(stdout, "  txid      %s\n", h.TxID)
		fmt.Fprintf(stdout, "  input     %s:%d %s\n", h.InputTxID, h.InputVout, planner.FormatAmount(h.InputAmount))
		fmt.Fprintf(stdout, "  payment   %s\n", planner.FormatAmount(h.Payment))
		fmt.Fprintf(stdout, "  change    %s\n", planner.FormatAmount(h.Change))
		fmt.Fprintf(stdout, "  fee       %s\n", planner.FormatAmount(h.Fee))
		fmt.Fprintf(stdout, "  size      %d vsize %d\n", h.Size, h.VSize)
		if h.BlockHash != "" {
			fmt.Fprintf(stdout, "  block     %s height %d index %d\n", h.BlockHash, h.BlockHeight, h.BlockIndex)
		}
		fmt.Fprintf(stdout, "  locking   %s\n", h.LockingScript)
		fmt.Fprintf(stdout, "  unlocking %s\n", h.UnlockingScript)
		for j, w := range h.Witness {
			fmt.Fprintf(stdout, "  witness %d %s\n", j, w)
		}
	}
	return nil
}
