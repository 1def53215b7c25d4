// Package spv checks that a confirmed transaction is committed to by the
// block the node says mined it: the block header must hash to the block
// hash and meet its target, and the transaction must have a Merkle path to
// the header's root.
package spv

import (
	"bytes"
	"fmt"
)

// CheckHeader parses rawHeaderHex and verifies it hashes to blockHash
// (display order) and satisfies its proof of work.
func CheckHeader(rawHeaderHex, blockHash string) (*BlockHeader, error) {
	header, err := ParseHeaderHex(rawHeaderHex)
	if err != nil {
		return nil, err
	}
	want, err := parseHash(blockHash)
	if err != nil {
		return nil, fmt.Errorf("%w: block hash: %w", ErrInvalidHeader, err)
	}
	if !bytes.Equal(header.Hash, want) {
		return nil, fmt.Errorf("%w: header hashes to %s, want %s", ErrInvalidHeader, HashString(header.Hash), blockHash)
	}
	if err := VerifyPoW(header); err != nil {
		return nil, err
	}
	return header, nil
}

// VerifyInclusion builds the Merkle proof of txid from the block's
// transaction list and checks it against header's Merkle root. The block
// list must be complete and in block order, txids in display order.
func VerifyInclusion(txid string, blockTxIDs []string, header *BlockHeader) (*MerkleProof, error) {
	if header == nil {
		return nil, fmt.Errorf("%w: header", ErrNilParam)
	}
	target, err := parseHash(txid)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTxID, err)
	}

	hashes := make([][]byte, len(blockTxIDs))
	index := -1
	for i, id := range blockTxIDs {
		if hashes[i], err = parseHash(id); err != nil {
			return nil, fmt.Errorf("%w: block tx %d: %w", ErrInvalidTxID, i, err)
		}
		if index < 0 && bytes.Equal(hashes[i], target) {
			index = i
		}
	}
	if index < 0 {
		return nil, fmt.Errorf("%w: %s in block %s", ErrTxNotInBlock, txid, HashString(header.Hash))
	}

	if root := MerkleRoot(hashes); !bytes.Equal(root, header.MerkleRoot) {
		return nil, fmt.Errorf("%w: block transactions commit to %s, header has %s",
			ErrMerkleProofInvalid, HashString(root), HashString(header.MerkleRoot))
	}

	nodes, err := MerkleBranch(hashes, uint32(index))
	if err != nil {
		return nil, err
	}
	proof := &MerkleProof{TxID: target, Index: uint32(index), Nodes: nodes, BlockHash: header.Hash}
	if err := VerifyMerkleProof(proof, header.MerkleRoot); err != nil {
		return nil, err
	}
	return proof, nil
}
