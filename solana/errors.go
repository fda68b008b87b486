package solana

import (
	"errors"
	"fmt"

	"github.com/AlexZinkM/zsol/internal/client"

	"github.com/gagliardetto/solana-go"
)

// TxErrorKind classifies transfer failures.
type TxErrorKind int

const (
	// KindInvalidRecipient and KindInvalidAmount are local validation
	// failures. Nothing was sent; retrying without new input is pointless.
	KindInvalidRecipient TxErrorKind = iota + 1
	KindInvalidAmount
	// KindRejected means the network refused the transaction.
	KindRejected
	// KindConfirmationTimedOut is ambiguous: the transaction may or may not
	// have landed. Check the signature before building a new transfer.
	KindConfirmationTimedOut
)

func (k TxErrorKind) String() string {
	switch k {
	case KindInvalidRecipient:
		return "INVALID_RECIPIENT"
	case KindInvalidAmount:
		return "INVALID_AMOUNT"
	case KindRejected:
		return "REJECTED"
	case KindConfirmationTimedOut:
		return "CONFIRMATION_TIMED_OUT"
	default:
		return "UNKNOWN"
	}
}

// TxError is returned by Wallet.Send and TransferBuilder.
type TxError struct {
	Kind      TxErrorKind
	Reason    string
	Signature solana.Signature // zero unless the transaction was broadcast
	Err       error
}

// Sentinels for errors.Is; matching is by Kind only.
var (
	ErrInvalidRecipient     = &TxError{Kind: KindInvalidRecipient}
	ErrInvalidAmount        = &TxError{Kind: KindInvalidAmount}
	ErrRejected             = &TxError{Kind: KindRejected}
	ErrConfirmationTimedOut = &TxError{Kind: KindConfirmationTimedOut}
)

// ErrInsufficientFunds is wrapped by a Rejected TxError when the local
// balance check fails before broadcasting.
var ErrInsufficientFunds = errors.New("insufficient SOL balance")

// NetworkError is an opaque transport or RPC failure from the ledger.
type NetworkError = client.NetworkError

func (e *TxError) Error() string {
	var msg string
	switch e.Kind {
	case KindInvalidRecipient:
		msg = "invalid recipient address"
	case KindInvalidAmount:
		msg = "invalid amount"
	case KindRejected:
		msg = "transaction rejected"
	case KindConfirmationTimedOut:
		msg = "transaction confirmation timed out"
		if !e.Signature.IsZero() {
			msg = fmt.Sprintf("%s; %s may still land, check it before sending again", msg, e.Signature)
		}
	default:
		msg = "transaction failed"
	}
	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	}
	return msg
}

func (e *TxError) Unwrap() error {
	return e.Err
}

// Is matches any *TxError of the same Kind.
func (e *TxError) Is(target error) bool {
	t, ok := target.(*TxError)
	return ok && t.Kind == e.Kind
}

// Retryable reports whether rebuilding with a fresh blockhash may succeed.
func (e *TxError) Retryable() bool {
	return e.Kind == KindRejected || e.Kind == KindConfirmationTimedOut
}

// Ambiguous reports whether the outcome on chain is unknown.
func (e *TxError) Ambiguous() bool {
	return e.Kind == KindConfirmationTimedOut
}
