package network

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/bitfsorg/rawtxlab/planner"
)

// MockNodeService is a test double for NodeService.
// All function fields must be set before the corresponding method is called.
type MockNodeService struct {
	LoadWalletFn                   func(ctx context.Context, name string) error
	CreateWalletFn                 func(ctx context.Context, name string) error
	GetBalanceFn                   func(ctx context.Context) (decimal.Decimal, error)
	GetNewAddressFn                func(ctx context.Context, label string, addrType AddressType) (string, error)
	SendToAddressFn                func(ctx context.Context, address string, amount decimal.Decimal) (string, error)
	GenerateToAddressFn            func(ctx context.Context, n int, address string) ([]string, error)
	ListUnspentFn                  func(ctx context.Context, minConf, maxConf int, addresses []string) ([]UnspentOutput, error)
	CreateRawTransactionFn         func(ctx context.Context, inputs []OutPoint, outputs planner.OutputPlan) (string, error)
	DecodeRawTransactionFn         func(ctx context.Context, rawTxHex string) (*DecodedTx, error)
	SignRawTransactionWithWalletFn func(ctx context.Context, rawTxHex string) (*SignResult, error)
	SendRawTransactionFn           func(ctx context.Context, rawTxHex string) (string, error)
	GetRawTransactionFn            func(ctx context.Context, txid string) (*DecodedTx, error)
	GetBlockFn                     func(ctx context.Context, blockHash string) (*Block, error)
	GetBlockHeaderFn               func(ctx context.Context, blockHash string) (string, error)
	GetMempoolInfoFn               func(ctx context.Context) (*MempoolInfo, error)
	GetBlockchainInfoFn            func(ctx context.Context) (*BlockchainInfo, error)
}

var _ NodeService = (*MockNodeService)(nil)

func (m *MockNodeService) LoadWallet(ctx context.Context, name string) error {
	return m.LoadWalletFn(ctx, name)
}
func (m *MockNodeService) CreateWallet(ctx context.Context, name string) error {
	return m.CreateWalletFn(ctx, name)
}
func (m *MockNodeService) GetBalance(ctx context.Context) (decimal.Decimal, error) {
	return m.GetBalanceFn(ctx)
}
func (m *MockNodeService) GetNewAddress(ctx context.Context, label string, addrType AddressType) (string, error) {
	return m.GetNewAddressFn(ctx, label, addrType)
}
func (m *MockNodeService) SendToAddress(ctx context.Context, address string, amount decimal.Decimal) (string, error) {
	return m.SendToAddressFn(ctx, address, amount)
}
func (m *MockNodeService) GenerateToAddress(ctx context.Context, n int, address string) ([]string, error) {
	return m.GenerateToAddressFn(ctx, n, address)
}
func (m *MockNodeService) ListUnspent(ctx context.Context, minConf, maxConf int, addresses []string) ([]UnspentOutput, error) {
	return m.ListUnspentFn(ctx, minConf, maxConf, addresses)
}
func (m *MockNodeService) CreateRawTransaction(ctx context.Context, inputs []OutPoint, outputs planner.OutputPlan) (string, error) {
	return m.CreateRawTransactionFn(ctx, inputs, outputs)
}
func (m *MockNodeService) DecodeRawTransaction(ctx context.Context, rawTxHex string) (*DecodedTx, error) {
	return m.DecodeRawTransactionFn(ctx, rawTxHex)
}
func (m *MockNodeService) SignRawTransactionWithWallet(ctx context.Context, rawTxHex string) (*SignResult, error) {
	return m.SignRawTransactionWithWalletFn(ctx, rawTxHex)
}
func (m *MockNodeService) SendRawTransaction(ctx context.Context, rawTxHex string) (string, error) {
	return m.SendRawTransactionFn(ctx, rawTxHex)
}
func (m *MockNodeService) GetRawTransaction(ctx context.Context, txid string) (*DecodedTx, error) {
	return m.GetRawTransactionFn(ctx, txid)
}
func (m *MockNodeService) GetBlock(ctx context.Context, blockHash string) (*Block, error) {
	return m.GetBlockFn(ctx, blockHash)
}
func (m *MockNodeService) GetBlockHeader(ctx context.Context, blockHash string) (string, error) {
	return m.GetBlockHeaderFn(ctx, blockHash)
}
func (m *MockNodeService) GetMempoolInfo(ctx context.Context) (*MempoolInfo, error) {
	return m.GetMempoolInfoFn(ctx)
}
func (m *MockNodeService) GetBlockchainInfo(ctx context.Context) (*BlockchainInfo, error) {
	return m.GetBlockchainInfoFn(ctx)
}
