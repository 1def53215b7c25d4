package chain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/bitfsorg/rawtxlab/config"
	"github.com/bitfsorg/rawtxlab/journal"
	"github.com/bitfsorg/rawtxlab/network"
	"github.com/bitfsorg/rawtxlab/planner"
	"github.com/bitfsorg/rawtxlab/script"
	"github.com/bitfsorg/rawtxlab/spv"
	"github.com/bitfsorg/rawtxlab/tx"
)

func testOptions() Options {
	return OptionsFromConfig(config.DefaultConfig())
}

func newTestRunner(t *testing.T, node network.NodeService, opts ...Option) (*Runner, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return NewRunner(node, testOptions(), append([]Option{WithOutput(&out)}, opts...)...), &out
}

func TestEnsureWallet(t *testing.T) {
	tests := []struct {
		name       string
		loadErr    error
		wantCreate bool
		wantErr    bool
	}{
		{name: "loaded", loadErr: nil},
		{name: "not found", loadErr: &network.RPCError{Code: network.CodeWalletNotFound, Message: "Wallet not found"}, wantCreate: true},
		{name: "verification failed", loadErr: &network.RPCError{Code: network.CodeWalletNotFound, Message: "Wallet file verification failed. Refusing to load database."}, wantCreate: true},
		{name: "already loaded", loadErr: &network.RPCError{Code: network.CodeWalletAlreadyLoaded, Message: "Wallet \"mywallet\" is already loaded."}},
		{name: "other", loadErr: &network.RPCError{Code: network.CodeMiscError, Message: "boom"}, wantErr: true},
		{name: "transport", loadErr: network.ErrConnectionFailed, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created := false
			var loadedName string
			node := &network.MockNodeService{
				LoadWalletFn: func(_ context.Context, name string) error {
					loadedName = name
					return tt.loadErr
				},
				CreateWalletFn: func(_ context.Context, name string) error {
					created = true
					assert.Equal(t, "mywallet", name)
					return nil
				},
			}
			r, out := newTestRunner(t, node)
			err := r.EnsureWallet(context.Background())
			assert.Equal(t, "mywallet", loadedName)
			assert.Equal(t, tt.wantCreate, created)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.loadErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out.String(), "Wallet 'mywallet'")
		})
	}
}

func TestEnsureWalletCreateFails(t *testing.T) {
	createErr := &network.RPCError{Code: network.CodeWalletError, Message: "Database already exists."}
	node := &network.MockNodeService{
		LoadWalletFn: func(context.Context, string) error {
			return &network.RPCError{Code: network.CodeWalletNotFound, Message: "Wallet not found"}
		},
		CreateWalletFn: func(context.Context, string) error { return createErr },
	}
	r, _ := newTestRunner(t, node)
	err := r.EnsureWallet(context.Background())
	var rpcErr *network.RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, network.CodeWalletError, rpcErr.Code)
}

func TestEnsureMatureBalance(t *testing.T) {
	t.Run("rich wallet mines nothing", func(t *testing.T) {
		node := newFakeNode(t)
		node.balance = decimal.NewFromInt(50)
		r, _ := newTestRunner(t, node.mock())
		require.NoError(t, r.EnsureMatureBalance(context.Background()))
		assert.Zero(t, node.count("generatetoaddress"))
	})

	t.Run("poor wallet mines bootstrap blocks", func(t *testing.T) {
		node := newFakeNode(t)
		node.balance = decimal.RequireFromString("49.99999999")
		r, out := newTestRunner(t, node.mock())
		require.NoError(t, r.EnsureMatureBalance(context.Background()))
		assert.Equal(t, 1, node.count("generatetoaddress"))
		assert.Equal(t, 101, node.height)
		assert.Contains(t, out.String(), "Mining to address:")
	})
}

func TestHopNoUnspent(t *testing.T) {
	node := newFakeNode(t)
	m := node.mock()
	r, out := newTestRunner(t, m)
	ctx := context.Background()
	from, _ := m.GetNewAddress(ctx, "", network.AddressLegacy)
	to, _ := m.GetNewAddress(ctx, "", network.AddressLegacy)

	_, err := r.Hop(ctx, HopSpec{FromLabel: "A", ToLabel: "B", From: from, To: to, Amount: decimal.RequireFromString("0.5")})
	assert.ErrorIs(t, err, ErrNoUnspent)
	assert.True(t, Halted(err))
	assert.Contains(t, out.String(), "No UTXOs found for address A")
	assert.Zero(t, node.count("createrawtransaction"))
}

func TestHopUnconfirmedOutputIgnored(t *testing.T) {
	node := newFakeNode(t)
	m := node.mock()
	r, _ := newTestRunner(t, m)
	ctx := context.Background()
	from, _ := m.GetNewAddress(ctx, "", network.AddressLegacy)
	to, _ := m.GetNewAddress(ctx, "", network.AddressLegacy)
	_, err := m.SendToAddress(ctx, from, decimal.NewFromInt(1))
	require.NoError(t, err)

	_, err = r.Hop(ctx, HopSpec{From: from, To: to, Amount: decimal.RequireFromString("0.5")})
	assert.ErrorIs(t, err, ErrNoUnspent)
}

func TestHopSigningIncomplete(t *testing.T) {
	node := newFakeNode(t)
	node.signIncomplete = true
	m := node.mock()
	r, out := newTestRunner(t, m)
	ctx := context.Background()
	from, _ := m.GetNewAddress(ctx, "", network.AddressLegacy)
	to, _ := m.GetNewAddress(ctx, "", network.AddressLegacy)
	_, err := m.SendToAddress(ctx, from, decimal.NewFromInt(1))
	require.NoError(t, err)
	_, err = m.GenerateToAddress(ctx, 1, from)
	require.NoError(t, err)

	_, err = r.Hop(ctx, HopSpec{FromLabel: "A", ToLabel: "B", From: from, To: to, Amount: decimal.RequireFromString("0.5")})
	assert.ErrorIs(t, err, ErrSigningIncomplete)
	assert.Contains(t, out.String(), "Transaction signing failed")
	assert.Zero(t, node.count("sendrawtransaction"))
}

func TestHopPlansChange(t *testing.T) {
	node := newFakeNode(t)
	m := node.mock()
	r, _ := newTestRunner(t, m)
	ctx := context.Background()
	from, _ := m.GetNewAddress(ctx, "", network.AddressLegacy)
	to, _ := m.GetNewAddress(ctx, "", network.AddressLegacy)
	_, err := m.SendToAddress(ctx, from, decimal.NewFromInt(1))
	require.NoError(t, err)
	_, err = m.GenerateToAddress(ctx, 1, from)
	require.NoError(t, err)

	res, err := r.Hop(ctx, HopSpec{From: from, To: to, Amount: decimal.RequireFromString("0.5")})
	require.NoError(t, err)

	require.Equal(t, 2, res.Plan.Len())
	assert.Equal(t, to, res.Plan.Payment().Address)
	change, ok := res.Plan.Change()
	require.True(t, ok)
	assert.Equal(t, from, change.Address)
	assert.True(t, change.Amount.Equal(decimal.RequireFromString("0.4999")))
	assert.True(t, res.Fee.Equal(decimal.RequireFromString("0.0001")))

	assert.Equal(t, script.ClassP2PKH, res.Locking.Class)
	assert.Equal(t, script.ClassP2PKH, res.Unlocking.Class)
	assert.NotEmpty(t, res.TxID)
	assert.Equal(t, int64(1), res.Confirmed.Confirmations)
	assert.NotEmpty(t, res.BlockHash)

	require.NotNil(t, res.Inclusion)
	assert.Equal(t, res.BlockHash, res.Inclusion.BlockHash)
	assert.Equal(t, int64(2), res.Inclusion.Height)
	assert.Equal(t, uint32(1), res.Inclusion.Index)
	assert.Len(t, res.Inclusion.Branch, 1)
}

func TestHopRejectsForeignBlockHeader(t *testing.T) {
	node := newFakeNode(t)
	m := node.mock()
	ctx := context.Background()
	from, _ := m.GetNewAddress(ctx, "", network.AddressLegacy)
	to, _ := m.GetNewAddress(ctx, "", network.AddressLegacy)
	_, err := m.SendToAddress(ctx, from, decimal.NewFromInt(1))
	require.NoError(t, err)
	genesis, err := m.GenerateToAddress(ctx, 1, from)
	require.NoError(t, err)

	// Serve the funding block's header for every hash.
	m.GetBlockHeaderFn = func(context.Context, string) (string, error) {
		return node.blocks[genesis[0]].header, nil
	}
	r, _ := newTestRunner(t, m)
	_, err = r.Hop(ctx, HopSpec{From: from, To: to, Amount: decimal.RequireFromString("0.5")})
	require.ErrorIs(t, err, spv.ErrInvalidHeader)
}

func TestHopRejectsTxMissingFromBlock(t *testing.T) {
	node := newFakeNode(t)
	m := node.mock()
	ctx := context.Background()
	from, _ := m.GetNewAddress(ctx, "", network.AddressLegacy)
	to, _ := m.GetNewAddress(ctx, "", network.AddressLegacy)
	_, err := m.SendToAddress(ctx, from, decimal.NewFromInt(1))
	require.NoError(t, err)
	_, err = m.GenerateToAddress(ctx, 1, from)
	require.NoError(t, err)

	getBlock := m.GetBlockFn
	m.GetBlockFn = func(ctx context.Context, hash string) (*network.Block, error) {
		b, err := getBlock(ctx, hash)
		if err != nil {
			return nil, err
		}
		b.Tx = b.Tx[:1]
		return b, nil
	}
	r, _ := newTestRunner(t, m)
	_, err = r.Hop(ctx, HopSpec{From: from, To: to, Amount: decimal.RequireFromString("0.5")})
	require.ErrorIs(t, err, spv.ErrTxNotInBlock)
}

func TestHopUnderfunded(t *testing.T) {
	node := newFakeNode(t)
	m := node.mock()
	core, logs := observer.New(zap.WarnLevel)
	r, out := newTestRunner(t, m, WithLogger(zap.New(core)))
	ctx := context.Background()
	from, _ := m.GetNewAddress(ctx, "", network.AddressLegacy)
	to, _ := m.GetNewAddress(ctx, "", network.AddressLegacy)
	_, err := m.SendToAddress(ctx, from, decimal.RequireFromString("0.3"))
	require.NoError(t, err)
	_, err = m.GenerateToAddress(ctx, 1, from)
	require.NoError(t, err)

	var planned planner.OutputPlan
	create := m.CreateRawTransactionFn
	m.CreateRawTransactionFn = func(ctx context.Context, in []network.OutPoint, plan planner.OutputPlan) (string, error) {
		planned = plan
		return create(ctx, in, plan)
	}
	rejection := &network.RPCError{Code: network.CodeVerifyRejected, Message: "bad-txns-in-belowout"}
	m.SendRawTransactionFn = func(context.Context, string) (string, error) {
		return "", fmt.Errorf("%w: %w", network.ErrBroadcastRejected, rejection)
	}

	_, err = r.Hop(ctx, HopSpec{FromLabel: "A", ToLabel: "B", From: from, To: to, Amount: decimal.RequireFromString("0.5")})
	require.ErrorIs(t, err, network.ErrBroadcastRejected)
	assert.Equal(t, network.KindTxRejected, network.KindOf(err))
	assert.Contains(t, err.Error(), "send raw transaction")
	assert.Contains(t, err.Error(), "bad-txns-in-belowout")
	assert.False(t, Halted(err))

	require.Equal(t, 1, planned.Len())
	_, ok := planned.Change()
	assert.False(t, ok)

	short := logs.FilterMessage("input does not cover payment plus fee").All()
	require.Len(t, short, 1)
	assert.Equal(t, zap.WarnLevel, short[0].Level)
	assert.Equal(t, "-0.2001", short[0].ContextMap()["residual"])
	assert.Equal(t, 1, logs.FilterMessage("transaction rejected").Len())
	assert.Contains(t, out.String(), "Transaction A to B rejected by the node")
}

func TestHopExactFundsNoChange(t *testing.T) {
	node := newFakeNode(t)
	m := node.mock()
	r, _ := newTestRunner(t, m)
	ctx := context.Background()
	from, _ := m.GetNewAddress(ctx, "", network.AddressP2SHSegWit)
	to, _ := m.GetNewAddress(ctx, "", network.AddressP2SHSegWit)
	_, err := m.SendToAddress(ctx, from, decimal.RequireFromString("0.5001"))
	require.NoError(t, err)
	_, err = m.GenerateToAddress(ctx, 1, from)
	require.NoError(t, err)

	res, err := r.Hop(ctx, HopSpec{From: from, To: to, Amount: decimal.RequireFromString("0.5")})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Plan.Len())
	_, ok := res.Plan.Change()
	assert.False(t, ok)
	assert.Len(t, res.Confirmed.Vout, 1)
	assert.Equal(t, script.ClassP2SH, res.Locking.Class)
	assert.Equal(t, script.ClassNestedP2WPKH, res.Unlocking.Class)
	assert.Len(t, res.Witness, 2)
}

func TestHopCreateRawTransactionError(t *testing.T) {
	node := newFakeNode(t)
	m := node.mock()
	rpcErr := &network.RPCError{Code: -8, Message: "Invalid parameter, duplicated address"}
	m.CreateRawTransactionFn = func(context.Context, []network.OutPoint, planner.OutputPlan) (string, error) {
		return "", rpcErr
	}
	r, _ := newTestRunner(t, m)
	ctx := context.Background()
	from, _ := m.GetNewAddress(ctx, "", network.AddressLegacy)
	_, err := m.SendToAddress(ctx, from, decimal.NewFromInt(1))
	require.NoError(t, err)
	_, err = m.GenerateToAddress(ctx, 1, from)
	require.NoError(t, err)

	_, err = r.Hop(ctx, HopSpec{From: from, To: from, Amount: decimal.RequireFromString("0.5")})
	assert.ErrorIs(t, err, rpcErr)
	assert.False(t, Halted(err))
}

func TestHopRejectsUnexpectedTransaction(t *testing.T) {
	node := newFakeNode(t)
	m := node.mock()
	create := m.CreateRawTransactionFn
	// Drop the change output: the node's transaction no longer matches the plan.
	m.CreateRawTransactionFn = func(ctx context.Context, inputs []network.OutPoint, plan planner.OutputPlan) (string, error) {
		pay := plan.Payment()
		return create(ctx, inputs, planner.Plan(pay.Amount, pay.Address, pay.Amount, pay.Address, decimal.Zero))
	}
	r, _ := newTestRunner(t, m)
	ctx := context.Background()
	from, _ := m.GetNewAddress(ctx, "", network.AddressLegacy)
	to, _ := m.GetNewAddress(ctx, "", network.AddressLegacy)
	_, err := m.SendToAddress(ctx, from, decimal.NewFromInt(1))
	require.NoError(t, err)
	_, err = m.GenerateToAddress(ctx, 1, from)
	require.NoError(t, err)

	_, err = r.Hop(ctx, HopSpec{From: from, To: to, Amount: decimal.RequireFromString("0.5")})
	assert.ErrorIs(t, err, tx.ErrOutputMismatch)
	assert.Zero(t, node.count("signrawtransactionwithwallet"))
}

func TestRunnerJournal(t *testing.T) {
	store, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	node := newFakeNode(t)
	r, _ := newTestRunner(t, node.mock(), WithJournal(store))
	rep, err := r.RunLegacy(context.Background())
	require.NoError(t, err)

	run, err := store.GetRun(rep.RunID)
	require.NoError(t, err)
	assert.Equal(t, journal.StatusOK, run.Status)
	assert.Equal(t, "legacy", run.Scenario)
	assert.Equal(t, rep.Addresses, run.Addresses)
	assert.Equal(t, rep.FundingTxID, run.FundingTxID)
	assert.False(t, run.FinishedAt.IsZero())

	hops, err := store.Hops(rep.RunID)
	require.NoError(t, err)
	require.Len(t, hops, 2)
	assert.Equal(t, rep.Hops[0].TxID, hops[0].TxID)
	assert.Equal(t, rep.Hops[1].UnlockingScript.Hex, hops[1].UnlockingScript)
	assert.True(t, hops[0].Change.Equal(decimal.RequireFromString("0.4999")))
	assert.True(t, hops[0].Payment.Equal(decimal.RequireFromString("0.5")))
	assert.Equal(t, int64(2), hops[0].BlockHeight)
	assert.Equal(t, int64(3), hops[1].BlockHeight)
	assert.Equal(t, uint32(1), hops[1].BlockIndex)
}

func TestRunnerJournalHalted(t *testing.T) {
	store, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	node := newFakeNode(t)
	node.signIncomplete = true
	r, _ := newTestRunner(t, node.mock(), WithJournal(store))
	rep, err := r.RunLegacy(context.Background())
	require.ErrorIs(t, err, ErrSigningIncomplete)

	run, err := store.GetRun(rep.RunID)
	require.NoError(t, err)
	assert.Equal(t, journal.StatusHalted, run.Status)
	assert.Contains(t, run.Error, "signing incomplete")
}
