package chain

import "errors"

var (
	// ErrNoUnspent indicates listunspent returned nothing for the spending address.
	ErrNoUnspent = errors.New("chain: no unspent output")

	// ErrSigningIncomplete indicates the wallet could not sign every input.
	ErrSigningIncomplete = errors.New("chain: signing incomplete")

	// ErrUnexpectedTx indicates a decoded transaction lacks the input or
	// output a scenario inspects.
	ErrUnexpectedTx = errors.New("chain: unexpected transaction shape")
)

// Halted reports whether err ended a run early without an RPC failure.
func Halted(err error) bool {
	return errors.Is(err, ErrNoUnspent) || errors.Is(err, ErrSigningIncomplete)
}
