package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bitfsorg/rawtxlab/planner"
)

// Compile-time interface check.
var _ NodeService = (*RPCClient)(nil)

// amountParam encodes an amount as a JSON number with eight decimal places.
func amountParam(amount decimal.Decimal) json.Number {
	return json.Number(planner.FormatAmount(amount))
}

// LoadWallet calls `loadwallet "name"`.
func (c *RPCClient) LoadWallet(ctx context.Context, name string) error {
	return c.Call(ctx, "loadwallet", []interface{}{name}, nil)
}

// CreateWallet calls `createwallet "name"`.
func (c *RPCClient) CreateWallet(ctx context.Context, name string) error {
	return c.Call(ctx, "createwallet", []interface{}{name}, nil)
}

// GetBalance calls `getbalance`.
func (c *RPCClient) GetBalance(ctx context.Context) (decimal.Decimal, error) {
	var balance decimal.Decimal
	if err := c.Call(ctx, "getbalance", nil, &balance); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// GetNewAddress calls `getnewaddress "label" "type"`. The type argument is
// omitted when addrType is empty.
func (c *RPCClient) GetNewAddress(ctx context.Context, label string, addrType AddressType) (string, error) {
	params := []interface{}{label}
	if addrType != "" {
		params = append(params, string(addrType))
	}
	var addr string
	if err := c.Call(ctx, "getnewaddress", params, &addr); err != nil {
		return "", err
	}
	return addr, nil
}

// SendToAddress calls `sendtoaddress "address" amount`.
func (c *RPCClient) SendToAddress(ctx context.Context, address string, amount decimal.Decimal) (string, error) {
	var txid string
	if err := c.Call(ctx, "sendtoaddress", []interface{}{address, amountParam(amount)}, &txid); err != nil {
		return "", err
	}
	return txid, nil
}

// GenerateToAddress calls `generatetoaddress n "address"` and returns the new block hashes.
func (c *RPCClient) GenerateToAddress(ctx context.Context, n int, address string) ([]string, error) {
	var hashes []string
	if err := c.Call(ctx, "generatetoaddress", []interface{}{n, address}, &hashes); err != nil {
		return nil, err
	}
	return hashes, nil
}

// ListUnspent calls `listunspent minconf maxconf ["address",...]`.
// Amounts are decoded exactly.
func (c *RPCClient) ListUnspent(ctx context.Context, minConf, maxConf int, addresses []string) ([]UnspentOutput, error) {
	if addresses == nil {
		addresses = []string{}
	}
	var utxos []UnspentOutput
	if err := c.Call(ctx, "listunspent", []interface{}{minConf, maxConf, addresses}, &utxos); err != nil {
		return nil, err
	}
	return utxos, nil
}

// CreateRawTransaction calls `createrawtransaction [inputs] {outputs}`.
func (c *RPCClient) CreateRawTransaction(ctx context.Context, inputs []OutPoint, outputs planner.OutputPlan) (string, error) {
	if inputs == nil {
		inputs = []OutPoint{}
	}
	var rawHex string
	if err := c.Call(ctx, "createrawtransaction", []interface{}{inputs, outputs}, &rawHex); err != nil {
		return "", err
	}
	return rawHex, nil
}

// DecodeRawTransaction calls `decoderawtransaction "hex"`.
func (c *RPCClient) DecodeRawTransaction(ctx context.Context, rawTxHex string) (*DecodedTx, error) {
	var tx DecodedTx
	if err := c.Call(ctx, "decoderawtransaction", []interface{}{rawTxHex}, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// SignRawTransactionWithWallet calls `signrawtransactionwithwallet "hex"`.
// An incomplete signature is not an error; callers check SignResult.Complete.
func (c *RPCClient) SignRawTransactionWithWallet(ctx context.Context, rawTxHex string) (*SignResult, error) {
	var result SignResult
	if err := c.Call(ctx, "signrawtransactionwithwallet", []interface{}{rawTxHex}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SendRawTransaction calls `sendrawtransaction "hex"`. Node errors are
// wrapped with ErrBroadcastRejected.
func (c *RPCClient) SendRawTransaction(ctx context.Context, rawTxHex string) (string, error) {
	var txid string
	if err := c.Call(ctx, "sendrawtransaction", []interface{}{rawTxHex}, &txid); err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			return "", fmt.Errorf("%w: %w", ErrBroadcastRejected, err)
		}
		return "", err
	}
	return txid, nil
}

// GetRawTransaction calls `getrawtransaction "txid" true`. An unknown txid
// is reported as ErrTxNotFound.
func (c *RPCClient) GetRawTransaction(ctx context.Context, txid string) (*DecodedTx, error) {
	var tx DecodedTx
	if err := c.Call(ctx, "getrawtransaction", []interface{}{txid, true}, &tx); err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) && rpcErr.Code == CodeInvalidAddressOrKey {
			return nil, fmt.Errorf("%w: %s: %w", ErrTxNotFound, txid, err)
		}
		return nil, err
	}
	return &tx, nil
}

// GetBlock calls `getblock "hash" 1`.
func (c *RPCClient) GetBlock(ctx context.Context, blockHash string) (*Block, error) {
	var block Block
	if err := c.Call(ctx, "getblock", []interface{}{blockHash, 1}, &block); err != nil {
		return nil, err
	}
	return &block, nil
}

// GetBlockHeader calls `getblockheader "hash" false`.
func (c *RPCClient) GetBlockHeader(ctx context.Context, blockHash string) (string, error) {
	var header string
	if err := c.Call(ctx, "getblockheader", []interface{}{blockHash, false}, &header); err != nil {
		return "", err
	}
	return header, nil
}

// GetMempoolInfo calls `getmempoolinfo`.
func (c *RPCClient) GetMempoolInfo(ctx context.Context) (*MempoolInfo, error) {
	var info MempoolInfo
	if err := c.Call(ctx, "getmempoolinfo", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetBlockchainInfo calls `getblockchaininfo`.
func (c *RPCClient) GetBlockchainInfo(ctx context.Context) (*BlockchainInfo, error) {
	var info BlockchainInfo
	if err := c.Call(ctx, "getblockchaininfo", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
