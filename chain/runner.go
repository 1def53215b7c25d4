// Package chain runs the two-hop payment scenarios against a node: it
// funds a fresh address, spends that output to a second address and the
// second address's output to a third, and reports the scripts involved.
package chain

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/bitfsorg/rawtxlab/journal"
	"github.com/bitfsorg/rawtxlab/logging"
	"github.com/bitfsorg/rawtxlab/network"
)

// Runner drives one node through the scenarios. Calls are strictly
// sequential; a Runner must not be shared between goroutines.
type Runner struct {
	node    network.NodeService
	opts    Options
	out     printer
	log     *zap.Logger
	journal *journal.Store
	now     func() time.Time

	runID string
}

// Option configures a Runner.
type Option func(*Runner)

// WithOutput sets where the narrative is written. The default discards it.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) { r.out = printer{w: w} }
}

// WithLogger sets the structured logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Runner) { r.log = log }
}

// WithJournal records runs and hops in store.
func WithJournal(store *journal.Store) Option {
	return func(r *Runner) { r.journal = store }
}

// NewRunner returns a Runner for node. node must already be bound to the
// wallet named in opts.
func NewRunner(node network.NodeService, opts Options, options ...Option) *Runner {
	r := &Runner{
		node: node,
		opts: opts,
		out:  printer{w: io.Discard},
		log:  logging.Nop(),
		now:  time.Now,
	}
	for _, o := range options {
		o(r)
	}
	return r
}

// EnsureWallet loads the wallet, creating it when the node reports it
// missing or unreadable. A wallet that is already loaded is accepted.
func (r *Runner) EnsureWallet(ctx context.Context) error {
	name := r.opts.Wallet
	err := r.node.LoadWallet(ctx, name)
	if err == nil {
		r.out.line("Wallet '%s' loaded successfully", name)
		r.out.blank()
		r.log.Info("wallet loaded", zap.String("wallet", name))
		return nil
	}

	switch network.KindOf(err) {
	case network.KindWalletAlreadyLoaded:
		r.out.line("Wallet '%s' already loaded", name)
		r.out.blank()
		r.log.Info("wallet already loaded", zap.String("wallet", name))
		return nil
	case network.KindWalletNotFound, network.KindWalletVerificationFailed:
		r.log.Debug("load wallet failed, creating", zap.String("wallet", name), zap.Error(err))
		if err := r.node.CreateWallet(ctx, name); err != nil {
			return fmt.Errorf("create wallet %q: %w", name, err)
		}
		r.out.line("Wallet '%s' created successfully", name)
		r.out.blank()
		r.log.Info("wallet created", zap.String("wallet", name))
		return nil
	}
	r.out.line("Error with wallet: %v", err)
	return fmt.Errorf("load wallet %q: %w", name, err)
}

// EnsureMatureBalance mines BootstrapBlocks blocks to a fresh address when
// the wallet balance is below MinBalance, so coinbase outputs mature.
func (r *Runner) EnsureMatureBalance(ctx context.Context) error {
	balance, err := r.node.GetBalance(ctx)
	if err != nil {
		return fmt.Errorf("get balance: %w", err)
	}
	r.log.Debug("wallet balance", zap.String("balance", balance.String()))
	if !balance.LessThan(r.opts.MinBalance) {
		return nil
	}

	addr, err := r.node.GetNewAddress(ctx, "", network.AddressBech32)
	if err != nil {
		return fmt.Errorf("get mining address: %w", err)
	}
	r.out.line("Mining to address: %s", addr)
	r.out.blank()
	if _, err := r.node.GenerateToAddress(ctx, r.opts.BootstrapBlocks, addr); err != nil {
		return fmt.Errorf("generate %d blocks: %w", r.opts.BootstrapBlocks, err)
	}
	r.log.Info("mined bootstrap blocks",
		zap.Int("blocks", r.opts.BootstrapBlocks), zap.String("address", addr))
	return nil
}

// confirm mines one block to a fresh wallet address and returns its hash.
func (r *Runner) confirm(ctx context.Context) (string, error) {
	addr, err := r.node.GetNewAddress(ctx, "", network.AddressBech32)
	if err != nil {
		return "", fmt.Errorf("get confirmation address: %w", err)
	}
	hashes, err := r.node.GenerateToAddress(ctx, 1, addr)
	if err != nil {
		return "", fmt.Errorf("generate block: %w", err)
	}
	var hash string
	if len(hashes) > 0 {
		hash = hashes[0]
	}
	r.log.Debug("mined block", zap.String("hash", hash))
	return hash, nil
}

// newAddresses returns one fresh address of addrType per label.
func (r *Runner) newAddresses(ctx context.Context, addrType network.AddressType, labels ...string) ([]string, error) {
	addrs := make([]string, len(labels))
	for i, label := range labels {
		addr, err := r.node.GetNewAddress(ctx, "", addrType)
		if err != nil {
			return nil, fmt.Errorf("get address %s: %w", label, err)
		}
		r.log.Debug("new address", zap.String("label", label), zap.String("address", addr),
			zap.String("type", string(addrType)))
		addrs[i] = addr
	}
	return addrs, nil
}

// fund pays FundAmount to addr from the wallet and confirms it.
func (r *Runner) fund(ctx context.Context, addr string) (string, error) {
	txid, err := r.node.SendToAddress(ctx, addr, r.opts.FundAmount)
	if err != nil {
		return "", fmt.Errorf("fund %s: %w", addr, err)
	}
	r.out.line("Funding transaction: %s", txid)
	r.out.blank()
	r.log.Info("funded address", zap.String("address", addr), zap.String("txid", txid),
		zap.String("amount", r.opts.FundAmount.String()))
	if _, err := r.confirm(ctx); err != nil {
		return "", err
	}
	return txid, nil
}
