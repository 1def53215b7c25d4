package chain

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	sdkscript "github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/rawtxlab/network"
	"github.com/bitfsorg/rawtxlab/planner"
	"github.com/bitfsorg/rawtxlab/spv"
)

const (
	legacySigHex  = "304402"
	legacyPubKey  = "02" + "2222222222222222222222222222222222222222222222222222222222222222"
	witnessSigHex = "3044022011"
)

type fakeUTXO struct {
	out    network.UnspentOutput
	height int // 0 while unconfirmed
}

type fakeBlock struct {
	block  network.Block
	header string
}

type fakeTx struct {
	decoded *network.DecodedTx
	height  int
}

// fakeNode is an in-memory regtest node behind MockNodeService. Funding and
// spends land in a mempool; generatetoaddress confirms them.
type fakeNode struct {
	t *testing.T

	loaded  map[string]bool
	created map[string]bool
	loadErr error

	balance decimal.Decimal
	height  int
	nextID  int

	addrTypes map[string]network.AddressType
	scripts   map[string]string
	utxos     []*fakeUTXO
	txs       map[string]*fakeTx
	unsigned  map[string]*transaction.Transaction
	signed    map[string]string // signed hex -> unsigned hex
	mempool   []string
	blocks    map[string]*fakeBlock
	tip       []byte

	signIncomplete bool
	calls          []string
}

func newFakeNode(t *testing.T) *fakeNode {
	return &fakeNode{
		t:         t,
		loaded:    map[string]bool{},
		created:   map[string]bool{},
		balance:   decimal.NewFromInt(100),
		addrTypes: map[string]network.AddressType{},
		scripts:   map[string]string{},
		txs:       map[string]*fakeTx{},
		unsigned:  map[string]*transaction.Transaction{},
		signed:    map[string]string{},
		blocks:    map[string]*fakeBlock{},
		tip:       make([]byte, spv.HashSize),
	}
}

// mine builds a regtest block holding a coinbase and the mempool, with a
// header that satisfies its own proof of work.
func (f *fakeNode) mine() string {
	f.height++
	txids := append([]string{fmt.Sprintf("%064x", 0xc0b0000+f.height)}, f.mempool...)
	f.mempool = nil

	hashes := make([][]byte, len(txids))
	for i, txid := range txids {
		h, err := chainhash.NewHashFromHex(txid)
		require.NoError(f.t, err)
		hashes[i] = h[:]
	}
	header := &spv.BlockHeader{
		Version:    0x20000000,
		PrevBlock:  f.tip,
		MerkleRoot: spv.MerkleRoot(hashes),
		Timestamp:  uint32(1700000000 + f.height),
		Bits:       0x207fffff,
	}
	for {
		header.Hash = spv.ComputeHeaderHash(header)
		if spv.VerifyPoW(header) == nil {
			break
		}
		header.Nonce++
	}
	f.tip = header.Hash

	hash := spv.HashString(header.Hash)
	f.blocks[hash] = &fakeBlock{
		block: network.Block{
			Hash:       hash,
			Height:     int64(f.height),
			Version:    header.Version,
			MerkleRoot: spv.HashString(header.MerkleRoot),
			Tx:         txids,
			Time:       int64(header.Timestamp),
			Nonce:      header.Nonce,
			Bits:       fmt.Sprintf("%08x", header.Bits),
			NTx:        len(txids),
		},
		header: hex.EncodeToString(spv.SerializeHeader(header)),
	}
	return hash
}

func (f *fakeNode) id() int {
	f.nextID++
	return f.nextID
}

func (f *fakeNode) newTxID() string {
	return fmt.Sprintf("%064x", 0xabc000+f.id())
}

func (f *fakeNode) called(method string) {
	f.calls = append(f.calls, method)
}

func (f *fakeNode) count(method string) int {
	n := 0
	for _, c := range f.calls {
		if c == method {
			n++
		}
	}
	return n
}

func (f *fakeNode) lockingScript(addr string) string {
	h, ok := f.scripts[addr]
	require.True(f.t, ok, "unknown address %s", addr)
	return h
}

func (f *fakeNode) unlocking(addr string) (*network.ScriptSig, []string) {
	switch f.addrTypes[addr] {
	case network.AddressLegacy:
		sig := legacySigHex + strings.Repeat("11", 67) + "01"
		return &network.ScriptSig{Hex: "47" + sig + "21" + legacyPubKey}, nil
	case network.AddressP2SHSegWit:
		return &network.ScriptSig{Hex: "160014" + strings.Repeat("cd", 20)},
			[]string{witnessSigHex + "01", legacyPubKey}
	}
	return &network.ScriptSig{}, []string{witnessSigHex + "01", legacyPubKey}
}

func (f *fakeNode) confirmations(height int) int64 {
	if height == 0 {
		return 0
	}
	return int64(f.height - height + 1)
}

func (f *fakeNode) decode(sdkTx *transaction.Transaction, txid string, signedFor string) *network.DecodedTx {
	d := &network.DecodedTx{
		TxID:    txid,
		Hash:    txid,
		Version: 2,
		Size:    len(sdkTx.Bytes()),
		VSize:   len(sdkTx.Bytes()),
	}
	for _, in := range sdkTx.Inputs {
		vin := network.TxIn{TxID: in.SourceTXID.String(), Vout: in.SourceTxOutIndex, Sequence: in.SequenceNumber,
			ScriptSig: &network.ScriptSig{}}
		if signedFor != "" {
			vin.ScriptSig, vin.TxInWitness = f.unlocking(signedFor)
			if len(vin.TxInWitness) > 0 {
				d.Size += 107
				d.VSize += 27
			} else {
				d.Size += 106
				d.VSize += 106
			}
		}
		d.Vin = append(d.Vin, vin)
	}
	for i, out := range sdkTx.Outputs {
		h := hex.EncodeToString(out.LockingScript.Bytes())
		d.Vout = append(d.Vout, network.TxOut{
			Value: planner.FromSatoshis(int64(out.Satoshis)),
			N:     uint32(i),
			ScriptPubKey: network.ScriptPubKey{
				Hex:     h,
				Address: f.addressOf(h),
			},
		})
	}
	return d
}

func (f *fakeNode) addressOf(scriptHex string) string {
	for addr, h := range f.scripts {
		if h == scriptHex {
			return addr
		}
	}
	return ""
}

// spender returns the address owning the output spent by sdkTx's input.
func (f *fakeNode) spender(sdkTx *transaction.Transaction) string {
	in := sdkTx.Inputs[0]
	for _, u := range f.utxos {
		if u.out.TxID == in.SourceTXID.String() && u.out.Vout == in.SourceTxOutIndex {
			return u.out.Address
		}
	}
	f.t.Fatalf("input %s:%d is not a wallet output", in.SourceTXID, in.SourceTxOutIndex)
	return ""
}

func (f *fakeNode) mock() *network.MockNodeService {
	return &network.MockNodeService{
		LoadWalletFn: func(_ context.Context, name string) error {
			f.called("loadwallet")
			if f.loadErr != nil {
				return f.loadErr
			}
			if f.loaded[name] {
				return &network.RPCError{Code: network.CodeWalletAlreadyLoaded, Message: "Wallet \"" + name + "\" is already loaded."}
			}
			if !f.created[name] {
				return &network.RPCError{Code: network.CodeWalletNotFound, Message: "Wallet file verification failed. Failed to load database path '/x/" + name + "'. Path does not exist."}
			}
			f.loaded[name] = true
			return nil
		},
		CreateWalletFn: func(_ context.Context, name string) error {
			f.called("createwallet")
			f.created[name], f.loaded[name] = true, true
			return nil
		},
		GetBalanceFn: func(context.Context) (decimal.Decimal, error) {
			f.called("getbalance")
			return f.balance, nil
		},
		GetNewAddressFn: func(_ context.Context, _ string, addrType network.AddressType) (string, error) {
			f.called("getnewaddress")
			n := f.id()
			hash := fmt.Sprintf("%040x", n)
			var addr, h string
			switch addrType {
			case network.AddressLegacy:
				addr, h = fmt.Sprintf("mLegacy%d", n), "76a914"+hash+"88ac"
			case network.AddressP2SHSegWit:
				addr, h = fmt.Sprintf("2Nested%d", n), "a914"+hash+"87"
			default:
				addr, h = fmt.Sprintf("bcrt1q%d", n), "0014"+hash
			}
			f.addrTypes[addr], f.scripts[addr] = addrType, h
			return addr, nil
		},
		SendToAddressFn: func(_ context.Context, addr string, amount decimal.Decimal) (string, error) {
			f.called("sendtoaddress")
			txid := f.newTxID()
			f.mempool = append(f.mempool, txid)
			f.utxos = append(f.utxos, &fakeUTXO{out: network.UnspentOutput{
				TxID: txid, Vout: 1, Address: addr, Amount: amount, ScriptPubKey: f.scripts[addr],
				Spendable: true, Solvable: true, Safe: true,
			}})
			return txid, nil
		},
		GenerateToAddressFn: func(_ context.Context, n int, _ string) ([]string, error) {
			f.called("generatetoaddress")
			if n == 0 {
				return nil, nil
			}
			hashes := make([]string, n)
			first := f.height + 1
			for i := range hashes {
				hashes[i] = f.mine()
			}
			for _, u := range f.utxos {
				if u.height == 0 {
					u.height = first
				}
			}
			for _, tx := range f.txs {
				if tx.height == 0 {
					tx.height = first
					tx.decoded.BlockHash = hashes[0]
				}
			}
			if n > 100 {
				f.balance = f.balance.Add(decimal.NewFromInt(int64(50 * (n - 100))))
			}
			return hashes, nil
		},
		ListUnspentFn: func(_ context.Context, minConf, maxConf int, addrs []string) ([]network.UnspentOutput, error) {
			f.called("listunspent")
			var out []network.UnspentOutput
			for _, u := range f.utxos {
				conf := f.confirmations(u.height)
				if conf < int64(minConf) || conf > int64(maxConf) {
					continue
				}
				for _, a := range addrs {
					if a == u.out.Address {
						o := u.out
						o.Confirmations = conf
						out = append(out, o)
					}
				}
			}
			return out, nil
		},
		CreateRawTransactionFn: func(_ context.Context, inputs []network.OutPoint, plan planner.OutputPlan) (string, error) {
			f.called("createrawtransaction")
			sdkTx := transaction.NewTransaction()
			for _, in := range inputs {
				h, err := chainhash.NewHashFromHex(in.TxID)
				require.NoError(f.t, err)
				sdkTx.AddInput(&transaction.TransactionInput{
					SourceTXID: h, SourceTxOutIndex: in.Vout, SequenceNumber: transaction.DefaultSequenceNumber,
				})
			}
			for _, o := range plan.Outputs() {
				sats, err := planner.ToSatoshis(o.Amount)
				require.NoError(f.t, err)
				h := f.lockingScript(o.Address)
				lock, err := sdkscript.NewFromHex(h)
				require.NoError(f.t, err)
				sdkTx.AddOutput(&transaction.TransactionOutput{Satoshis: uint64(sats), LockingScript: lock})
			}
			raw := sdkTx.Hex()
			f.unsigned[raw] = sdkTx
			return raw, nil
		},
		DecodeRawTransactionFn: func(_ context.Context, raw string) (*network.DecodedTx, error) {
			f.called("decoderawtransaction")
			if unsigned, ok := f.signed[raw]; ok {
				sdkTx := f.unsigned[unsigned]
				return f.decode(sdkTx, "pending", f.spender(sdkTx)), nil
			}
			sdkTx, ok := f.unsigned[raw]
			require.True(f.t, ok, "decode of unknown transaction")
			return f.decode(sdkTx, "unsigned", ""), nil
		},
		SignRawTransactionWithWalletFn: func(_ context.Context, raw string) (*network.SignResult, error) {
			f.called("signrawtransactionwithwallet")
			if f.signIncomplete {
				return &network.SignResult{Hex: raw, Complete: false, Errors: []network.SignError{
					{TxID: "x", Vout: 0, Error: "Unable to sign input, invalid stack size"},
				}}, nil
			}
			signed := "5349474e" + raw
			f.signed[signed] = raw
			return &network.SignResult{Hex: signed, Complete: true}, nil
		},
		SendRawTransactionFn: func(_ context.Context, signed string) (string, error) {
			f.called("sendrawtransaction")
			unsigned, ok := f.signed[signed]
			require.True(f.t, ok, "broadcast of unsigned transaction")
			sdkTx := f.unsigned[unsigned]
			from := f.spender(sdkTx)

			in := sdkTx.Inputs[0]
			kept := f.utxos[:0]
			for _, u := range f.utxos {
				if u.out.TxID == in.SourceTXID.String() && u.out.Vout == in.SourceTxOutIndex {
					continue
				}
				kept = append(kept, u)
			}
			f.utxos = kept

			txid := f.newTxID()
			f.mempool = append(f.mempool, txid)
			f.txs[txid] = &fakeTx{decoded: f.decode(sdkTx, txid, from)}
			for i, out := range sdkTx.Outputs {
				h := hex.EncodeToString(out.LockingScript.Bytes())
				f.utxos = append(f.utxos, &fakeUTXO{out: network.UnspentOutput{
					TxID: txid, Vout: uint32(i), Address: f.addressOf(h), ScriptPubKey: h,
					Amount: planner.FromSatoshis(int64(out.Satoshis)), Spendable: true, Solvable: true, Safe: true,
				}})
			}
			return txid, nil
		},
		GetRawTransactionFn: func(_ context.Context, txid string) (*network.DecodedTx, error) {
			f.called("getrawtransaction")
			tx, ok := f.txs[txid]
			if !ok {
				return nil, network.ErrTxNotFound
			}
			d := *tx.decoded
			d.Confirmations = f.confirmations(tx.height)
			return &d, nil
		},
		GetBlockFn: func(_ context.Context, hash string) (*network.Block, error) {
			f.called("getblock")
			b, ok := f.blocks[hash]
			if !ok {
				return nil, &network.RPCError{Code: network.CodeInvalidAddressOrKey, Message: "Block not found"}
			}
			blk := b.block
			blk.Confirmations = int64(f.height) - blk.Height + 1
			return &blk, nil
		},
		GetBlockHeaderFn: func(_ context.Context, hash string) (string, error) {
			f.called("getblockheader")
			b, ok := f.blocks[hash]
			if !ok {
				return "", &network.RPCError{Code: network.CodeInvalidAddressOrKey, Message: "Block not found"}
			}
			return b.header, nil
		},
		GetMempoolInfoFn: func(context.Context) (*network.MempoolInfo, error) {
			f.called("getmempoolinfo")
			return &network.MempoolInfo{Loaded: true}, nil
		},
		GetBlockchainInfoFn: func(context.Context) (*network.BlockchainInfo, error) {
			f.called("getblockchaininfo")
			return &network.BlockchainInfo{Chain: "regtest", Blocks: int64(f.height)}, nil
		},
	}
}
