package tx

import "errors"

var (
	// ErrMalformedTx indicates the raw transaction hex could not be parsed.
	ErrMalformedTx = errors.New("tx: malformed transaction")

	// ErrInputMismatch indicates the transaction does not spend exactly the selected outpoint.
	ErrInputMismatch = errors.New("tx: input does not match selected outpoint")

	// ErrOutputMismatch indicates the transaction outputs differ from the output plan.
	ErrOutputMismatch = errors.New("tx: outputs do not match output plan")

	// ErrAlreadySigned indicates an input already carries an unlocking script.
	ErrAlreadySigned = errors.New("tx: transaction is already signed")
)
