package solana

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/AlexZinkM/zsol/internal/common"
	"github.com/AlexZinkM/zsol/internal/crypto"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Wallet owns one keypair for the session and talks to the ledger through
// an explicitly passed LedgerClient.
type Wallet struct {
	keypair *crypto.Keypair
	ledger  LedgerClient
	builder *TransferBuilder
	log     *zap.Logger
}

// Option configures a Wallet.
type Option func(*Wallet)

// WithLogger sets the logger used by the wallet and its transfer builder.
func WithLogger(l *zap.Logger) Option {
	return func(w *Wallet) {
		if l != nil {
			w.log = l
		}
	}
}

// WithConfirmTimeout bounds the confirmation wait independently of the caller's context.
func WithConfirmTimeout(d time.Duration) Option {
	return func(w *Wallet) { w.builder.confirmTimeout = d }
}

// WithBalanceCheck toggles the local funds check before each send.
func WithBalanceCheck(enabled bool) Option {
	return func(w *Wallet) { w.builder.checkBalance = enabled }
}

// NewWallet wraps kp, or a freshly generated keypair when kp is nil.
// The wallet takes ownership of kp; call Close to wipe it.
func NewWallet(ledger LedgerClient, kp *crypto.Keypair, opts ...Option) (*Wallet, error) {
	if ledger == nil {
		return nil, errors.New("ledger client is required")
	}

	if kp == nil {
		// Generate new Solana keypair
		generated, err := crypto.GenerateKeypair()
		if err != nil {
			return nil, err
		}
		kp = generated
	}

	w := &Wallet{
		keypair: kp,
		ledger:  ledger,
		builder: NewTransferBuilder(ledger, nil),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.builder.log = w.log

	return w, nil
}

// PublicKey returns the wallet address.
func (w *Wallet) PublicKey() solana.PublicKey {
	return w.keypair.PublicKey()
}

// PublicKeyText returns the base58 address.
func (w *Wallet) PublicKeyText() string {
	return w.keypair.PublicKey().String()
}

// PrivateKeyText returns the 64-byte private key (seed ‖ public key) as base64.
// Display and redaction are up to the caller.
func (w *Wallet) PrivateKeyText() string {
	return base64.StdEncoding.EncodeToString(w.keypair.PrivateKey())
}

// BalanceLamports returns the balance in lamports.
func (w *Wallet) BalanceLamports(ctx context.Context) (uint64, error) {
	lamports, err := w.ledger.GetBalance(ctx, w.keypair.PublicKey())
	if err != nil {
		return 0, fmt.Errorf("failed to get SOL balance: %w", err)
	}
	return lamports, nil
}

// Balance returns the balance in whole SOL, exactly.
func (w *Wallet) Balance(ctx context.Context) (decimal.Decimal, error) {
	lamports, err := w.BalanceLamports(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return common.LamportsToSOL(lamports), nil
}

// Send transfers amount SOL (decimal text) to recipient (base58) and waits
// for confirmation. See TransferBuilder.BuildAndSubmit for error semantics.
func (w *Wallet) Send(ctx context.Context, recipient, amount string) (solana.Signature, error) {
	w.log.Debug("sending SOL", zap.String("to", recipient), zap.String("amount", amount))
	return w.builder.BuildAndSubmit(ctx, w.keypair, recipient, amount)
}

// Prepare builds and signs a transfer without sending it.
func (w *Wallet) Prepare(ctx context.Context, recipient, amount string) (*SignedTransfer, error) {
	return w.builder.Build(ctx, w.keypair, recipient, amount)
}

// Submit broadcasts a transfer from Prepare and waits for confirmation.
func (w *Wallet) Submit(ctx context.Context, signed *SignedTransfer) (solana.Signature, error) {
	return w.builder.Submit(ctx, signed)
}

// Close wipes the private key. The wallet cannot sign afterwards.
func (w *Wallet) Close() {
	w.keypair.Destroy()
}
