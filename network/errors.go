package network

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConnectionFailed indicates the client could not connect to the node.
	ErrConnectionFailed = errors.New("network: connection failed")

	// ErrAuthFailed indicates authentication (e.g., RPC credentials) was rejected.
	ErrAuthFailed = errors.New("network: authentication failed")

	// ErrTxNotFound indicates the requested transaction does not exist.
	ErrTxNotFound = errors.New("network: transaction not found")

	// ErrBroadcastRejected indicates the node rejected the broadcast transaction.
	ErrBroadcastRejected = errors.New("network: broadcast rejected")

	// ErrInvalidResponse indicates the node returned a malformed or unexpected response.
	ErrInvalidResponse = errors.New("network: invalid response")
)

// Bitcoin Core RPC error codes the client distinguishes.
const (
	CodeMiscError            = -1
	CodeWalletError          = -4
	CodeInvalidAddressOrKey  = -5
	CodeWalletNotFound       = -18
	CodeWalletAlreadyLoaded  = -35
	CodeVerifyRejected       = -26
	CodeVerifyAlreadyInChain = -27
)

// ErrorKind classifies node errors that callers branch on.
type ErrorKind int

const (
	// KindOther is any error the client does not single out.
	KindOther ErrorKind = iota
	// KindWalletNotFound means the named wallet does not exist on the node.
	KindWalletNotFound
	// KindWalletVerificationFailed means the wallet file exists but could not be verified.
	KindWalletVerificationFailed
	// KindWalletAlreadyLoaded means the wallet is already loaded.
	KindWalletAlreadyLoaded
	// KindTxRejected means the node refused a transaction for the mempool.
	KindTxRejected
)

func (k ErrorKind) String() string {
	switch k {
	case KindWalletNotFound:
		return "wallet not found"
	case KindWalletVerificationFailed:
		return "wallet verification failed"
	case KindWalletAlreadyLoaded:
		return "wallet already loaded"
	case KindTxRejected:
		return "transaction rejected"
	default:
		return "other"
	}
}

// RPCError is an error object returned by the node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("network: rpc error %d: %s", e.Code, e.Message)
}

// Kind classifies the error by code, falling back to the message text for
// node versions that report wallet problems under a generic code.
func (e *RPCError) Kind() ErrorKind {
	msg := strings.ToLower(e.Message)
	switch e.Code {
	case CodeWalletAlreadyLoaded:
		return KindWalletAlreadyLoaded
	case CodeWalletNotFound:
		if strings.Contains(msg, "verification failed") && !strings.Contains(msg, "not exist") {
			return KindWalletVerificationFailed
		}
		return KindWalletNotFound
	case CodeVerifyRejected, CodeVerifyAlreadyInChain:
		return KindTxRejected
	case CodeMiscError, CodeWalletError:
		// generic codes, classified by message below
	default:
		return KindOther
	}
	switch {
	case strings.Contains(msg, "already loaded"):
		return KindWalletAlreadyLoaded
	case strings.Contains(msg, "wallet not found"), strings.Contains(msg, "path does not exist"):
		return KindWalletNotFound
	case strings.Contains(msg, "wallet file verification failed"):
		return KindWalletVerificationFailed
	}
	return KindOther
}

// KindOf returns the kind of the RPCError wrapped in err, or KindOther.
func KindOf(err error) ErrorKind {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Kind()
	}
	return KindOther
}
