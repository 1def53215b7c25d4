package chain

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bitfsorg/rawtxlab/spv"
)

// Inclusion is where a confirmed transaction sits in its block.
type Inclusion struct {
	BlockHash string
	Height    int64
	Index     uint32
	// Branch is the Merkle path from the transaction to the root,
	// bottom-up, in display byte order.
	Branch []string
}

// verifyInclusion checks that the block the node reports for txid has a
// valid header and commits to txid.
func (r *Runner) verifyInclusion(ctx context.Context, txid, blockHash string) (*Inclusion, error) {
	if blockHash == "" {
		return nil, fmt.Errorf("%w: %s has no block hash", ErrUnexpectedTx, txid)
	}
	block, err := r.node.GetBlock(ctx, blockHash)
	if err != nil {
		return nil, fmt.Errorf("get block %s: %w", blockHash, err)
	}
	rawHeader, err := r.node.GetBlockHeader(ctx, blockHash)
	if err != nil {
		return nil, fmt.Errorf("get block header %s: %w", blockHash, err)
	}
	header, err := spv.CheckHeader(rawHeader, blockHash)
	if err != nil {
		return nil, fmt.Errorf("block %s: %w", blockHash, err)
	}
	proof, err := spv.VerifyInclusion(txid, block.Tx, header)
	if err != nil {
		return nil, fmt.Errorf("inclusion of %s: %w", txid, err)
	}

	inc := &Inclusion{BlockHash: blockHash, Height: block.Height, Index: proof.Index}
	for _, h := range proof.Nodes {
		inc.Branch = append(inc.Branch, spv.HashString(h))
	}
	r.out.line("Transaction %s is in block %s (height %d) at index %d; Merkle path of %d hashes verified",
		txid, blockHash, block.Height, proof.Index, len(inc.Branch))
	r.out.blank()
	r.log.Debug("verified inclusion", zap.String("txid", txid), zap.String("block", blockHash),
		zap.Int64("height", block.Height), zap.Uint32("index", proof.Index))
	return inc, nil
}
