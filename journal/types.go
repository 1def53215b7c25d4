package journal

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the outcome of a run.
type Status string

const (
	StatusRunning Status = "running"
	StatusOK      Status = "ok"
	// StatusHalted marks a run that stopped early without an RPC failure,
	// e.g. no spendable output or an incomplete signature.
	StatusHalted Status = "halted"
	StatusFailed Status = "failed"
)

// Run is one execution of a scenario.
type Run struct {
	ID          string
	Scenario    string
	Network     string
	Wallet      string
	Addresses   []string
	FundingTxID string
	Status      Status
	Error       string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Hop records one spend of a chain, from the selected output to the
// confirmed transaction.
type Hop struct {
	Index         int
	From          string
	To            string
	InputTxID     string
	InputVout     uint32
	InputAmount   decimal.Decimal
	Payment       decimal.Decimal
	Change        decimal.Decimal
	Fee           decimal.Decimal
	UnsignedHex   string
	SignedHex     string
	TxID          string
	LockingScript string
	// UnlockingScript is the scriptSig of input 0 of the confirmed tx.
	UnlockingScript string
	Witness         []string
	Size            int
	VSize           int
	BlockHash       string
	BlockHeight     int64
	// BlockIndex is the transaction's position in its block.
	BlockIndex uint32
}
