package solana

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AlexZinkM/zsol/internal/client"
	"github.com/AlexZinkM/zsol/internal/common"
	"github.com/AlexZinkM/zsol/internal/crypto"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"go.uber.org/zap"
)

// SignedTransfer is a signed single-instruction SOL transfer and the
// blockhash it cites. It is only valid until Blockhash.LastValidBlockHeight.
type SignedTransfer struct {
	Transaction *solana.Transaction
	Blockhash   client.Blockhash
	From        solana.PublicKey
	To          solana.PublicKey
	Lamports    uint64
}

// Signature returns the fee payer's signature, which is also the transaction id.
func (s *SignedTransfer) Signature() solana.Signature {
	return s.Transaction.Signatures[0]
}

// TransferBuilder assembles, signs, broadcasts and confirms SOL transfers.
// It keeps no per-transfer state, so concurrent sends are independent.
type TransferBuilder struct {
	ledger         LedgerClient
	log            *zap.Logger
	checkBalance   bool
	confirmTimeout time.Duration
}

// NewTransferBuilder creates a builder on top of ledger.
func NewTransferBuilder(ledger LedgerClient, log *zap.Logger) *TransferBuilder {
	if log == nil {
		log = zap.NewNop()
	}
	return &TransferBuilder{
		ledger:       ledger,
		log:          log,
		checkBalance: true,
	}
}

// BuildAndSubmit sends amount SOL (decimal text) from sender to recipient
// and waits for confirmation.
//
// On KindConfirmationTimedOut, and on KindRejected after broadcast, the
// returned signature is the one that was sent.
func (b *TransferBuilder) BuildAndSubmit(ctx context.Context, sender *crypto.Keypair, recipient, amount string) (solana.Signature, error) {
	signed, err := b.Build(ctx, sender, recipient, amount)
	if err != nil {
		return solana.Signature{}, err
	}
	return b.Submit(ctx, signed)
}

// Build validates input, fetches a fresh blockhash and signs the transfer.
// Validation failures never touch the network.
func (b *TransferBuilder) Build(ctx context.Context, sender *crypto.Keypair, recipient, amount string) (*SignedTransfer, error) {
	if sender == nil {
		return nil, errors.New("sender keypair is required")
	}

	toPubkey, lamports, err := ParseTransfer(recipient, amount)
	if err != nil {
		return nil, err
	}

	fromPubkey := sender.PublicKey()
	wallet := sender.PrivateKey()
	if len(wallet) != crypto.PrivateKeySize {
		return nil, crypto.ErrKeypairDestroyed
	}

	if b.checkBalance {
		if err := b.ensureFunds(ctx, fromPubkey, lamports); err != nil {
			return nil, err
		}
	}

	// Create transfer instruction
	transferInstruction := system.NewTransferInstruction(
		lamports,
		fromPubkey,
		toPubkey,
	).Build()

	// Blockhashes expire: always fetch one right before signing
	recent, err := b.ledger.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	// Create transaction
	tx, err := solana.NewTransaction(
		[]solana.Instruction{transferInstruction},
		recent.Hash,
		solana.TransactionPayer(fromPubkey),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	// Sign transaction
	sigs, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if fromPubkey.Equals(key) {
			return &wallet
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	if len(sigs) != 1 {
		return nil, fmt.Errorf("expected exactly one signature, got %d", len(sigs))
	}

	b.log.Debug("transfer signed",
		zap.Stringer("from", fromPubkey),
		zap.Stringer("to", toPubkey),
		zap.Uint64("lamports", lamports),
		zap.Stringer("blockhash", recent.Hash))

	return &SignedTransfer{
		Transaction: tx,
		Blockhash:   recent,
		From:        fromPubkey,
		To:          toPubkey,
		Lamports:    lamports,
	}, nil
}

// ParseTransfer validates a base58 recipient and a decimal SOL amount
// without touching the network.
func ParseTransfer(recipient, amount string) (solana.PublicKey, uint64, error) {
	// Validate recipient address
	toPubkey, err := solana.PublicKeyFromBase58(strings.TrimSpace(recipient))
	if err != nil {
		return solana.PublicKey{}, 0, &TxError{Kind: KindInvalidRecipient, Reason: err.Error(), Err: err}
	}

	// Convert SOL to lamports (string-based, no float precision loss)
	lamports, err := common.SOLToLamports(amount)
	if err != nil {
		return solana.PublicKey{}, 0, &TxError{Kind: KindInvalidAmount, Reason: err.Error(), Err: err}
	}
	if lamports == 0 {
		return solana.PublicKey{}, 0, &TxError{Kind: KindInvalidAmount, Reason: "amount must be greater than zero"}
	}
	return toPubkey, lamports, nil
}

// Submit broadcasts a signed transfer once and waits for confirmation.
// An expired transfer must be rebuilt with Build, never resubmitted.
func (b *TransferBuilder) Submit(ctx context.Context, signed *SignedTransfer) (solana.Signature, error) {
	raw, err := signed.Transaction.MarshalBinary()
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to serialize transaction: %w", err)
	}

	// Send transaction
	sig, err := b.ledger.SendRawTransaction(ctx, raw)
	if err != nil {
		var rejected *client.RejectedError
		if errors.As(err, &rejected) {
			return solana.Signature{}, &TxError{Kind: KindRejected, Reason: rejected.Reason, Err: err}
		}
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}

	confirmCtx := ctx
	if b.confirmTimeout > 0 {
		var cancel context.CancelFunc
		confirmCtx, cancel = context.WithTimeout(ctx, b.confirmTimeout)
		defer cancel()
	}

	conf, err := b.ledger.ConfirmTransaction(confirmCtx, sig, signed.Blockhash)
	if err != nil {
		// Already broadcast: a failed status lookup says nothing about the outcome
		return sig, &TxError{Kind: KindConfirmationTimedOut, Signature: sig, Reason: err.Error(), Err: err}
	}

	switch conf.Status {
	case client.ConfirmationSucceeded:
		b.log.Debug("transfer confirmed", zap.Stringer("signature", sig), zap.Uint64("slot", conf.Slot))
		return sig, nil
	case client.ConfirmationFailed:
		return sig, &TxError{Kind: KindRejected, Signature: sig, Reason: conf.Reason}
	default:
		return sig, &TxError{Kind: KindConfirmationTimedOut, Signature: sig}
	}
}

// ensureFunds fails locally when the balance cannot cover amount plus the base fee.
func (b *TransferBuilder) ensureFunds(ctx context.Context, owner solana.PublicKey, lamports uint64) error {
	balance, err := b.ledger.GetBalance(ctx, owner)
	if err != nil {
		return fmt.Errorf("failed to check balance: %w", err)
	}

	required := lamports + common.BaseFeeLamports
	if required < lamports || balance < required {
		// Calculate max amount user can send
		var maxLamports uint64
		if balance > common.BaseFeeLamports {
			maxLamports = balance - common.BaseFeeLamports
		}
		return &TxError{
			Kind: KindRejected,
			Reason: fmt.Sprintf("have %s SOL, transaction fee %s SOL, max you can send %s SOL",
				common.FormatLamports(balance), common.FormatLamports(common.BaseFeeLamports), common.FormatLamports(maxLamports)),
			Err: ErrInsufficientFunds,
		}
	}
	return nil
}
