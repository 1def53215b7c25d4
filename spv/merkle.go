package spv

import (
	"bytes"
	"crypto/sha256"
	"fmt"
)

// DoubleHash computes SHA256(SHA256(data)), matching Bitcoin's hash function.
func DoubleHash(data []byte) []byte {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return second[:]
}

// MerkleProof is a Merkle inclusion proof for a transaction.
type MerkleProof struct {
	TxID      []byte   // internal byte order
	Index     uint32   // position in the block's transaction list
	Nodes     [][]byte // branch hashes, bottom-up
	BlockHash []byte
}

func hashPair(left, right []byte) []byte {
	combined := make([]byte, 64)
	copy(combined[:32], left)
	copy(combined[32:], right)
	return DoubleHash(combined)
}

// ComputeMerkleRoot computes the Merkle root from a transaction hash,
// its index position in the block, and the proof branch nodes (bottom-up).
//
//	hash = txHash
//	for i, node in proofNodes:
//	    if bit i of index is 0:  hash = DoubleHash(hash || node)
//	    else:                     hash = DoubleHash(node || hash)
func ComputeMerkleRoot(txHash []byte, index uint32, proofNodes [][]byte) []byte {
	if len(txHash) != HashSize {
		return nil
	}

	hash := make([]byte, HashSize)
	copy(hash, txHash)

	for i, node := range proofNodes {
		if len(node) != HashSize {
			return nil
		}
		if (index>>uint(i))&1 == 0 {
			hash = hashPair(hash, node)
		} else {
			hash = hashPair(node, hash)
		}
	}

	return hash
}

// VerifyMerkleProof recomputes the Merkle path from the proof and checks it
// against expectedMerkleRoot.
func VerifyMerkleProof(proof *MerkleProof, expectedMerkleRoot []byte) error {
	if proof == nil {
		return fmt.Errorf("%w: proof", ErrNilParam)
	}
	if len(proof.TxID) != HashSize {
		return fmt.Errorf("%w: TxID must be %d bytes", ErrInvalidTxID, HashSize)
	}
	if len(expectedMerkleRoot) != HashSize {
		return fmt.Errorf("%w: expected merkle root must be %d bytes", ErrInvalidHeader, HashSize)
	}
	computedRoot := ComputeMerkleRoot(proof.TxID, proof.Index, proof.Nodes)
	if computedRoot == nil {
		return fmt.Errorf("%w: failed to compute merkle root", ErrMerkleProofInvalid)
	}
	if !bytes.Equal(computedRoot, expectedMerkleRoot) {
		return ErrMerkleProofInvalid
	}
	return nil
}

// BuildMerkleTree builds a full Merkle tree from a list of transaction hashes.
// Level 0 holds the leaves and the last level holds the root. Odd levels are
// padded by duplicating their last element.
func BuildMerkleTree(txHashes [][]byte) [][][]byte {
	if len(txHashes) == 0 {
		return nil
	}

	level := make([][]byte, len(txHashes))
	for i, h := range txHashes {
		level[i] = make([]byte, HashSize)
		copy(level[i], h)
	}
	levels := [][][]byte{level}

	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}
		next := make([][]byte, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next[i/2] = hashPair(level[i], level[i+1])
		}
		level = next
		levels = append(levels, level)
	}

	return levels
}

// MerkleRoot returns the root of txHashes, or nil for an empty list.
func MerkleRoot(txHashes [][]byte) []byte {
	levels := BuildMerkleTree(txHashes)
	if levels == nil {
		return nil
	}
	return levels[len(levels)-1][0]
}

// MerkleBranch returns the sibling hashes proving txHashes[index], bottom-up.
func MerkleBranch(txHashes [][]byte, index uint32) ([][]byte, error) {
	if int(index) >= len(txHashes) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrTxNotInBlock, index, len(txHashes))
	}
	levels := BuildMerkleTree(txHashes)
	var branch [][]byte
	pos := int(index)
	for _, level := range levels[:len(levels)-1] {
		sibling := pos ^ 1
		if sibling >= len(level) {
			sibling = pos
		}
		branch = append(branch, level[sibling])
		pos /= 2
	}
	return branch, nil
}
