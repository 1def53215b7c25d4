// Package script disassembles and classifies the locking and unlocking
// scripts pulled out of node responses, so they can be checked locally
// before being pasted into a script debugger.
package script

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	sdkscript "github.com/bsv-blockchain/go-sdk/script"
)

// Class is the standard template a script matches.
type Class string

const (
	ClassEmpty        Class = "empty"
	ClassP2PKH        Class = "p2pkh"
	ClassP2SH         Class = "p2sh"
	ClassP2WPKH       Class = "p2wpkh"
	ClassP2WSH        Class = "p2wsh"
	ClassP2TR         Class = "p2tr"
	ClassNullData     Class = "nulldata"
	ClassNestedP2WPKH Class = "p2sh-p2wpkh"
	ClassNestedP2WSH  Class = "p2sh-p2wsh"
	ClassNonStandard  Class = "nonstandard"
)

// Info describes one script.
type Info struct {
	Hex   string
	ASM   string
	Class Class
	Size  int
}

func (i Info) String() string {
	if i.Class == ClassEmpty {
		return "(empty)"
	}
	return fmt.Sprintf("%s [%s] %s", i.Class, i.ASM, i.Hex)
}

func parse(h string) (*sdkscript.Script, error) {
	h = strings.TrimSpace(h)
	s, err := sdkscript.NewFromHex(h)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}
	return s, nil
}

// Describe disassembles and classifies a locking script (scriptPubKey).
func Describe(lockingHex string) (Info, error) {
	s, err := parse(lockingHex)
	if err != nil {
		return Info{}, err
	}
	b := []byte(*s)
	info := Info{Hex: hex.EncodeToString(b), Size: len(b), Class: classifyLocking(s)}
	if len(b) > 0 {
		info.ASM = s.ToASM()
	}
	return info, nil
}

func classifyLocking(s *sdkscript.Script) Class {
	b := []byte(*s)
	switch {
	case len(b) == 0:
		return ClassEmpty
	case s.IsP2PKH():
		return ClassP2PKH
	case isP2SH(b):
		return ClassP2SH
	case isWitnessProgram(b, 0x00, 20):
		return ClassP2WPKH
	case isWitnessProgram(b, 0x00, 32):
		return ClassP2WSH
	case isWitnessProgram(b, sdkscript.Op1, 32):
		return ClassP2TR
	case b[0] == sdkscript.OpRETURN:
		return ClassNullData
	}
	return ClassNonStandard
}

// DescribeUnlocking disassembles and classifies an unlocking script
// (scriptSig). Inputs spending native witness outputs have an empty
// scriptSig, reported as ClassEmpty.
func DescribeUnlocking(unlockingHex string) (Info, error) {
	s, err := parse(unlockingHex)
	if err != nil {
		return Info{}, err
	}
	b := []byte(*s)
	info := Info{Hex: hex.EncodeToString(b), Size: len(b), Class: ClassEmpty}
	if len(b) == 0 {
		return info, nil
	}
	info.ASM = s.ToASM()
	switch program := nestedWitnessProgram(s); {
	case len(program) == 22:
		info.Class = ClassNestedP2WPKH
	case len(program) == 34:
		info.Class = ClassNestedP2WSH
	case isSigPubKey(s):
		info.Class = ClassP2PKH
	default:
		info.Class = ClassNonStandard
	}
	return info, nil
}

// IsNestedSegWit reports whether scriptSig is the single redeem-script push
// used to spend a P2SH-wrapped witness output.
func IsNestedSegWit(unlockingHex string) bool {
	s, err := parse(unlockingHex)
	if err != nil {
		return false
	}
	return nestedWitnessProgram(s) != nil
}

// nestedWitnessProgram returns the pushed witness program when s consists of
// exactly one push of a v0 witness program.
func nestedWitnessProgram(s *sdkscript.Script) []byte {
	chunks, err := s.Chunks()
	if err != nil || len(chunks) != 1 {
		return nil
	}
	data := chunks[0].Data
	if isWitnessProgram(data, 0x00, 20) || isWitnessProgram(data, 0x00, 32) {
		return data
	}
	return nil
}

// isSigPubKey matches <sig> <pubkey>, the P2PKH spend.
func isSigPubKey(s *sdkscript.Script) bool {
	chunks, err := s.Chunks()
	if err != nil || len(chunks) != 2 {
		return false
	}
	sig, pub := chunks[0].Data, chunks[1].Data
	if len(sig) < 9 || len(sig) > 73 || sig[0] != 0x30 {
		return false
	}
	return len(pub) == 33 || len(pub) == 65
}

func isP2SH(b []byte) bool {
	return len(b) == 23 &&
		b[0] == sdkscript.OpHASH160 &&
		b[1] == sdkscript.OpDATA20 &&
		b[22] == sdkscript.OpEQUAL
}

// isWitnessProgram matches <version> <push of n bytes>.
func isWitnessProgram(b []byte, version byte, n int) bool {
	return len(b) == n+2 && b[0] == version && int(b[1]) == n
}

// Equal reports whether two script hex strings encode the same bytes.
func Equal(a, b string) bool {
	ab, errA := hex.DecodeString(strings.TrimSpace(a))
	bb, errB := hex.DecodeString(strings.TrimSpace(b))
	return errA == nil && errB == nil && bytes.Equal(ab, bb)
}
