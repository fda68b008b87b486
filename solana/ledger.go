// Package solana holds the wallet use cases: balance lookup and building,
// signing, submitting and confirming SOL transfers.
package solana

import (
	"context"

	"github.com/AlexZinkM/zsol/internal/client"

	"github.com/gagliardetto/solana-go"
)

// LedgerClient is the network access the wallet needs. It is passed in
// explicitly and shared read-only between balance checks and sends.
type LedgerClient interface {
	GetBalance(ctx context.Context, owner solana.PublicKey) (uint64, error)
	GetLatestBlockhash(ctx context.Context) (client.Blockhash, error)
	SendRawTransaction(ctx context.Context, raw []byte) (solana.Signature, error)
	ConfirmTransaction(ctx context.Context, sig solana.Signature, bh client.Blockhash) (client.Confirmation, error)
}

var _ LedgerClient = (*client.SolanaClient)(nil)
