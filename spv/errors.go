package spv

import "errors"

var (
	// ErrMerkleProofInvalid indicates the computed Merkle root does not match the expected root.
	ErrMerkleProofInvalid = errors.New("spv: merkle proof invalid")

	// ErrInvalidHeader indicates the header fails deserialization or hash check.
	ErrInvalidHeader = errors.New("spv: invalid header")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("spv: required parameter is nil")

	// ErrInvalidTxID indicates the transaction ID is not a 32-byte hash.
	ErrInvalidTxID = errors.New("spv: invalid transaction ID")

	// ErrTxNotInBlock indicates the transaction is not listed in the block.
	ErrTxNotInBlock = errors.New("spv: transaction not in block")

	// ErrInsufficientPoW indicates the header hash does not meet the target difficulty.
	ErrInsufficientPoW = errors.New("spv: insufficient proof of work")
)
