package spv

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/bsv-blockchain/go-sdk/chainhash"
)

const (
	// BlockHeaderSize is the size of a serialized block header in bytes.
	BlockHeaderSize = 80

	// HashSize is the size of a SHA256 hash in bytes.
	HashSize = 32
)

// BlockHeader is a block header. Hashes are kept in internal byte order,
// the reverse of how the node displays them.
type BlockHeader struct {
	Version    int32
	PrevBlock  []byte
	MerkleRoot []byte
	Timestamp  uint32
	Bits       uint32
	Nonce      uint32
	Hash       []byte // double-SHA256 of the 80-byte header
}

// SerializeHeader serializes a BlockHeader to 80 bytes in wire format.
//
// Layout: version(4) | prevBlock(32) | merkleRoot(32) | timestamp(4) | bits(4) | nonce(4)
func SerializeHeader(h *BlockHeader) []byte {
	if h == nil {
		return nil
	}

	buf := make([]byte, BlockHeaderSize)

	binary.LittleEndian.PutUint32(buf[0:4], uint32(h.Version))
	copy(buf[4:36], h.PrevBlock)
	copy(buf[36:68], h.MerkleRoot)
	binary.LittleEndian.PutUint32(buf[68:72], h.Timestamp)
	binary.LittleEndian.PutUint32(buf[72:76], h.Bits)
	binary.LittleEndian.PutUint32(buf[76:80], h.Nonce)

	return buf
}

// DeserializeHeader deserializes 80 bytes into a BlockHeader.
// The Hash field is computed from the serialized data.
func DeserializeHeader(data []byte) (*BlockHeader, error) {
	if len(data) != BlockHeaderSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidHeader, BlockHeaderSize, len(data))
	}

	h := &BlockHeader{
		Version:    int32(binary.LittleEndian.Uint32(data[0:4])),
		PrevBlock:  make([]byte, HashSize),
		MerkleRoot: make([]byte, HashSize),
		Timestamp:  binary.LittleEndian.Uint32(data[68:72]),
		Bits:       binary.LittleEndian.Uint32(data[72:76]),
		Nonce:      binary.LittleEndian.Uint32(data[76:80]),
	}

	copy(h.PrevBlock, data[4:36])
	copy(h.MerkleRoot, data[36:68])
	h.Hash = DoubleHash(data)

	return h, nil
}

// ParseHeaderHex decodes the hex returned by `getblockheader <hash> false`.
func ParseHeaderHex(s string) (*BlockHeader, error) {
	data, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}
	return DeserializeHeader(data)
}

// ComputeHeaderHash computes and returns the double-SHA256 hash of a block header.
func ComputeHeaderHash(h *BlockHeader) []byte {
	raw := SerializeHeader(h)
	if raw == nil {
		return nil
	}
	return DoubleHash(raw)
}

// HashString renders an internal-order hash in display order.
func HashString(b []byte) string {
	h, err := chainhash.NewHash(b)
	if err != nil {
		return hex.EncodeToString(b)
	}
	return h.String()
}

// parseHash decodes a display-order hash into internal byte order.
func parseHash(s string) ([]byte, error) {
	h, err := chainhash.NewHashFromHex(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	b := make([]byte, HashSize)
	copy(b, h[:])
	return b, nil
}

// CompactToBig converts a compact (nBits) representation to a big.Int target value.
func CompactToBig(bits uint32) *big.Int {
	exponent := bits >> 24
	mantissa := int64(bits & 0x007fffff)
	if bits&0x00800000 != 0 {
		mantissa = 0 // negative flag: zero target
	}

	target := big.NewInt(mantissa)
	if exponent <= 3 {
		target.Rsh(target, uint(8*(3-exponent)))
	} else {
		target.Lsh(target, uint(8*(exponent-3)))
	}
	return target
}

// VerifyPoW checks that a block header's hash meets its stated difficulty
// target. The hash is read as a little-endian 256-bit integer.
func VerifyPoW(h *BlockHeader) error {
	if h == nil {
		return fmt.Errorf("%w: header", ErrNilParam)
	}
	hash := h.Hash
	if len(hash) == 0 {
		hash = ComputeHeaderHash(h)
	}

	be := make([]byte, len(hash))
	for i, b := range hash {
		be[len(hash)-1-i] = b
	}
	if new(big.Int).SetBytes(be).Cmp(CompactToBig(h.Bits)) > 0 {
		return fmt.Errorf("%w: hash %s exceeds target of bits %08x", ErrInsufficientPoW, HashString(hash), h.Bits)
	}
	return nil
}
