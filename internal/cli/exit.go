package cli

import (
	"errors"

	"github.com/AlexZinkM/zsol/internal/crypto"
	"github.com/AlexZinkM/zsol/solana"
)

// Process exit codes.
const (
	ExitOK           = 0
	ExitGeneral      = 1
	ExitInvalidInput = 2
	ExitNetwork      = 3 // transport failure or rejected transaction
	ExitAmbiguous    = 4 // broadcast but unconfirmed
)

// errInvalidInput marks usage and configuration mistakes.
var errInvalidInput = errors.New("invalid input")

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var txErr *solana.TxError
	if errors.As(err, &txErr) {
		switch txErr.Kind {
		case solana.KindInvalidRecipient, solana.KindInvalidAmount:
			return ExitInvalidInput
		case solana.KindRejected:
			return ExitNetwork
		case solana.KindConfirmationTimedOut:
			return ExitAmbiguous
		}
	}

	switch {
	case errors.Is(err, errInvalidInput),
		errors.Is(err, crypto.ErrUnrecognizedEncoding),
		errors.Is(err, crypto.ErrInvalidLength),
		errors.Is(err, crypto.ErrPublicKeyMismatch):
		return ExitInvalidInput
	}

	var netErr *solana.NetworkError
	if errors.As(err, &netErr) {
		return ExitNetwork
	}
	return ExitGeneral
}
