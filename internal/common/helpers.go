package common

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	SOLDecimals       = 9             // SOL has 9 decimals (lamports)
	LamportsPerSOL    = 1_000_000_000 // 1 SOL = 10^9 lamports
	BaseFeeLamports   = 5000          // Fee per signature in lamports (0.000005 SOL)
	displayedDecimals = SOLDecimals
)

var (
	ErrEmptyAmount     = errors.New("amount is empty")
	ErrMalformedAmount = errors.New("amount is not a decimal number")
	ErrTooPrecise      = errors.New("amount has more precision than 1 lamport")
	ErrAmountOverflow  = errors.New("amount does not fit in 64-bit lamports")
)

// plain decimal text only: no sign, no exponent, no thousands separators
var amountPattern = regexp.MustCompile(`^([0-9]+\.?[0-9]*|\.[0-9]+)$`)

// LamportsToSOL converts lamports to an exact SOL decimal.
func LamportsToSOL(lamports uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -SOLDecimals)
}

// FormatLamports renders lamports as SOL text with all 9 decimals.
// Example: FormatLamports(24981836) = "0.024981836"
func FormatLamports(lamports uint64) string {
	return LamportsToSOL(lamports).StringFixed(displayedDecimals)
}

// SOLToLamports converts SOL decimal text to lamports without float precision loss.
// Amounts finer than one lamport are rejected rather than truncated.
func SOLToLamports(sol string) (uint64, error) {
	s := strings.TrimSpace(sol)
	if s == "" {
		return 0, ErrEmptyAmount
	}
	if !amountPattern.MatchString(s) {
		return 0, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedAmount, err)
	}

	// Shift the decimal point by 9: whole SOL -> lamports
	lamports := d.Shift(SOLDecimals)
	if !lamports.IsInteger() {
		return 0, fmt.Errorf("%w: %s SOL", ErrTooPrecise, s)
	}

	n := lamports.BigInt()
	if !n.IsUint64() {
		return 0, fmt.Errorf("%w: %s SOL", ErrAmountOverflow, s)
	}
	return n.Uint64(), nil
}
