package network

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/bitfsorg/rawtxlab/planner"
)

// AddressType selects the script type of a new wallet address.
type AddressType string

const (
	AddressLegacy     AddressType = "legacy"
	AddressP2SHSegWit AddressType = "p2sh-segwit"
	AddressBech32     AddressType = "bech32"
)

// NodeService is the set of node RPCs the demo scenarios drive.
// RPCClient implements it against Bitcoin Core.
type NodeService interface {
	// LoadWallet loads an existing wallet by name.
	LoadWallet(ctx context.Context, name string) error

	// CreateWallet creates and loads a new wallet.
	CreateWallet(ctx context.Context, name string) error

	// GetBalance returns the wallet's trusted balance.
	GetBalance(ctx context.Context) (decimal.Decimal, error)

	// GetNewAddress returns a fresh wallet address of the given type.
	// An empty addrType lets the node pick its default.
	GetNewAddress(ctx context.Context, label string, addrType AddressType) (string, error)

	// SendToAddress pays amount to address from the wallet balance and returns the txid.
	SendToAddress(ctx context.Context, address string, amount decimal.Decimal) (string, error)

	// GenerateToAddress mines n blocks paying the coinbase to address.
	GenerateToAddress(ctx context.Context, n int, address string) ([]string, error)

	// ListUnspent lists wallet outputs with minConf..maxConf confirmations
	// paying to any of addresses.
	ListUnspent(ctx context.Context, minConf, maxConf int, addresses []string) ([]UnspentOutput, error)

	// CreateRawTransaction builds an unsigned transaction and returns its hex.
	CreateRawTransaction(ctx context.Context, inputs []OutPoint, outputs planner.OutputPlan) (string, error)

	// DecodeRawTransaction returns the node's view of a raw transaction.
	DecodeRawTransaction(ctx context.Context, rawTxHex string) (*DecodedTx, error)

	// SignRawTransactionWithWallet signs inputs with wallet keys.
	SignRawTransactionWithWallet(ctx context.Context, rawTxHex string) (*SignResult, error)

	// SendRawTransaction broadcasts a signed transaction and returns its txid.
	SendRawTransaction(ctx context.Context, rawTxHex string) (string, error)

	// GetRawTransaction returns the verbose form of a transaction.
	GetRawTransaction(ctx context.Context, txid string) (*DecodedTx, error)

	// GetBlock returns a block with its transaction ids.
	GetBlock(ctx context.Context, blockHash string) (*Block, error)

	// GetBlockHeader returns the serialized 80-byte header of a block as hex.
	GetBlockHeader(ctx context.Context, blockHash string) (string, error)

	// GetMempoolInfo returns a snapshot of the node's mempool state.
	GetMempoolInfo(ctx context.Context) (*MempoolInfo, error)

	// GetBlockchainInfo returns a snapshot of the node's chain state.
	GetBlockchainInfo(ctx context.Context) (*BlockchainInfo, error)
}

// OutPoint references a transaction output.
type OutPoint struct {
	TxID string `json:"txid"`
	Vout uint32 `json:"vout"`
}

// UnspentOutput is one entry of listunspent.
type UnspentOutput struct {
	TxID          string          `json:"txid"`
	Vout          uint32          `json:"vout"`
	Address       string          `json:"address"`
	Label         string          `json:"label,omitempty"`
	ScriptPubKey  string          `json:"scriptPubKey"`
	RedeemScript  string          `json:"redeemScript,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Confirmations int64           `json:"confirmations"`
	Spendable     bool            `json:"spendable"`
	Solvable      bool            `json:"solvable"`
	Desc          string          `json:"desc,omitempty"`
	Safe          bool            `json:"safe"`
}

// OutPoint returns the reference to this output.
func (u UnspentOutput) OutPoint() OutPoint {
	return OutPoint{TxID: u.TxID, Vout: u.Vout}
}

// ScriptSig is the unlocking script of an input as decoded by the node.
type ScriptSig struct {
	Asm string `json:"asm"`
	Hex string `json:"hex"`
}

// ScriptPubKey is the locking script of an output as decoded by the node.
type ScriptPubKey struct {
	Asm     string `json:"asm"`
	Desc    string `json:"desc,omitempty"`
	Hex     string `json:"hex"`
	Type    string `json:"type"`
	Address string `json:"address,omitempty"`
}

// TxIn is a decoded transaction input.
type TxIn struct {
	TxID        string     `json:"txid,omitempty"`
	Vout        uint32     `json:"vout"`
	Coinbase    string     `json:"coinbase,omitempty"`
	ScriptSig   *ScriptSig `json:"scriptSig,omitempty"`
	TxInWitness []string   `json:"txinwitness,omitempty"`
	Sequence    uint32     `json:"sequence"`
}

// TxOut is a decoded transaction output.
type TxOut struct {
	Value        decimal.Decimal `json:"value"`
	N            uint32          `json:"n"`
	ScriptPubKey ScriptPubKey    `json:"scriptPubKey"`
}

// DecodedTx is the result of decoderawtransaction and verbose getrawtransaction.
// Block fields are only set for confirmed transactions.
type DecodedTx struct {
	TxID          string  `json:"txid"`
	Hash          string  `json:"hash"`
	Version       int32   `json:"version"`
	Size          int     `json:"size"`
	VSize         int     `json:"vsize"`
	Weight        int     `json:"weight"`
	LockTime      uint32  `json:"locktime"`
	Vin           []TxIn  `json:"vin"`
	Vout          []TxOut `json:"vout"`
	Hex           string  `json:"hex,omitempty"`
	BlockHash     string  `json:"blockhash,omitempty"`
	Confirmations int64   `json:"confirmations,omitempty"`
	Time          int64   `json:"time,omitempty"`
	BlockTime     int64   `json:"blocktime,omitempty"`
}

// Block is the result of `getblock <hash> 1`: header fields plus the ids
// of every transaction in block order.
type Block struct {
	Hash              string   `json:"hash"`
	Confirmations     int64    `json:"confirmations"`
	Height            int64    `json:"height"`
	Version           int32    `json:"version"`
	MerkleRoot        string   `json:"merkleroot"`
	Tx                []string `json:"tx"`
	Time              int64    `json:"time"`
	Nonce             uint32   `json:"nonce"`
	Bits              string   `json:"bits"`
	NTx               int      `json:"nTx"`
	PreviousBlockHash string   `json:"previousblockhash,omitempty"`
}

// SignError describes an input the wallet could not sign.
type SignError struct {
	TxID      string `json:"txid"`
	Vout      uint32 `json:"vout"`
	ScriptSig string `json:"scriptSig"`
	Sequence  uint32 `json:"sequence"`
	Error     string `json:"error"`
}

// SignResult is the result of signrawtransactionwithwallet.
type SignResult struct {
	Hex      string      `json:"hex"`
	Complete bool        `json:"complete"`
	Errors   []SignError `json:"errors,omitempty"`
}

// MempoolInfo is the result of getmempoolinfo.
type MempoolInfo struct {
	Loaded        bool            `json:"loaded"`
	Size          int             `json:"size"`
	Bytes         int64           `json:"bytes"`
	Usage         int64           `json:"usage"`
	TotalFee      decimal.Decimal `json:"total_fee"`
	MaxMempool    int64           `json:"maxmempool"`
	MempoolMinFee decimal.Decimal `json:"mempoolminfee"`
	MinRelayTxFee decimal.Decimal `json:"minrelaytxfee"`
}

// BlockchainInfo is the result of getblockchaininfo.
type BlockchainInfo struct {
	Chain                string  `json:"chain"`
	Blocks               int64   `json:"blocks"`
	Headers              int64   `json:"headers"`
	BestBlockHash        string  `json:"bestblockhash"`
	Difficulty           float64 `json:"difficulty"`
	MedianTime           int64   `json:"mediantime"`
	VerificationProgress float64 `json:"verificationprogress"`
	InitialBlockDownload bool    `json:"initialblockdownload"`
	ChainWork            string  `json:"chainwork"`
	SizeOnDisk           int64   `json:"size_on_disk"`
	Pruned               bool    `json:"pruned"`
	Warnings             any     `json:"warnings,omitempty"`
}
