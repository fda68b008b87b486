package solana

import (
	"context"
	"fmt"

	"github.com/AlexZinkM/zsol/internal/common"
	"github.com/AlexZinkM/zsol/internal/model"

	"github.com/shopspring/decimal"
)

// PriceSource quotes SOL in a fiat currency.
type PriceSource interface {
	GetSOLPrice(ctx context.Context, fiat string) (decimal.Decimal, error)
}

// GetBalance gets wallet balance, valued in fiat when prices and fiat are given
func GetBalance(ctx context.Context, w *Wallet, prices PriceSource, fiat string) (*model.BalanceResponse, error) {
	lamports, err := w.BalanceLamports(ctx)
	if err != nil {
		return nil, err
	}

	resp := &model.BalanceResponse{
		Address:  w.PublicKeyText(),
		Lamports: lamports,
		SOL:      common.LamportsToSOL(lamports).String(),
	}

	if prices == nil || fiat == "" {
		return resp, nil
	}

	rate, err := prices.GetSOLPrice(ctx, fiat)
	if err != nil {
		return nil, fmt.Errorf("failed to get rate: %w", err)
	}

	// Fiat value is for display only
	resp.Fiat = fiat
	resp.Rate = rate.String()
	resp.Value = common.LamportsToSOL(lamports).Mul(rate).StringFixed(2)

	return resp, nil
}
