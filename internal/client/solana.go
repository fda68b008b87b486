package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultRateLimit    = 5 // requests per second
	defaultRateBurst    = 10
)

// Blockhash is a recent blockhash together with the last block height at
// which transactions citing it are still accepted.
type Blockhash struct {
	Hash                 solana.Hash
	LastValidBlockHeight uint64
}

// ConfirmationStatus is the outcome of waiting for a signature.
type ConfirmationStatus int

const (
	ConfirmationSucceeded ConfirmationStatus = iota + 1
	ConfirmationFailed
	// ConfirmationTimedOut means the blockhash expired or the wait was cut
	// short before the network reported anything final. The transaction may
	// or may not have landed.
	ConfirmationTimedOut
)

func (s ConfirmationStatus) String() string {
	switch s {
	case ConfirmationSucceeded:
		return "succeeded"
	case ConfirmationFailed:
		return "failed"
	case ConfirmationTimedOut:
		return "timed out"
	default:
		return "unknown"
	}
}

// Confirmation is the result of ConfirmTransaction.
type Confirmation struct {
	Status ConfirmationStatus
	Slot   uint64
	Reason string // set when Status is ConfirmationFailed
}

// SolanaClient is a client for working with Solana RPC
type SolanaClient struct {
	rpcClient    *rpc.Client
	rpcURL       string
	commitment   rpc.CommitmentType
	limiter      *rate.Limiter
	retry        RetryConfig
	pollInterval time.Duration
	log          *zap.Logger
}

// Option configures a SolanaClient.
type Option func(*SolanaClient)

// WithCommitment sets the commitment used for reads and confirmation.
func WithCommitment(c rpc.CommitmentType) Option {
	return func(s *SolanaClient) { s.commitment = c }
}

// WithRateLimit throttles outgoing RPC requests.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *SolanaClient) { s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

// WithRetry sets the retry policy for read-only calls.
func WithRetry(cfg RetryConfig) Option {
	return func(s *SolanaClient) { s.retry = cfg }
}

// WithPollInterval sets how often signature status is polled.
func WithPollInterval(d time.Duration) Option {
	return func(s *SolanaClient) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *SolanaClient) {
		if l != nil {
			s.log = l
		}
	}
}

// NewSolanaClient creates a new Solana client for the given RPC endpoint.
// The client holds no account state and is safe for concurrent use.
func NewSolanaClient(rpcURL string, opts ...Option) *SolanaClient {
	c := &SolanaClient{
		rpcClient:    rpc.New(rpcURL),
		rpcURL:       rpcURL,
		commitment:   rpc.CommitmentConfirmed,
		limiter:      rate.NewLimiter(defaultRateLimit, defaultRateBurst),
		retry:        DefaultRetryConfig(),
		pollInterval: defaultPollInterval,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RPCURL returns the endpoint this client talks to.
func (c *SolanaClient) RPCURL() string {
	return c.rpcURL
}

// GetBalance gets the SOL balance of owner in lamports
func (c *SolanaClient) GetBalance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	return Retry(ctx, c.retry, func() (uint64, error) {
		if err := c.wait(ctx, "getBalance"); err != nil {
			return 0, err
		}
		balance, err := c.rpcClient.GetBalance(ctx, owner, c.commitment)
		if err != nil {
			return 0, wrapRPCError("getBalance", err)
		}
		return balance.Value, nil
	})
}

// GetLatestBlockhash fetches a fresh blockhash and its validity horizon.
// Callers must fetch one per transaction build; blockhashes expire.
func (c *SolanaClient) GetLatestBlockhash(ctx context.Context) (Blockhash, error) {
	return Retry(ctx, c.retry, func() (Blockhash, error) {
		if err := c.wait(ctx, "getLatestBlockhash"); err != nil {
			return Blockhash{}, err
		}
		// GetRecentBlockhash is deprecated, use GetLatestBlockhash
		recent, err := c.rpcClient.GetLatestBlockhash(ctx, c.commitment)
		if err != nil {
			return Blockhash{}, wrapRPCError("getLatestBlockhash", err)
		}
		if recent == nil || recent.Value == nil {
			return Blockhash{}, &NetworkError{Op: "getLatestBlockhash", Err: fmt.Errorf("empty response"), RPC: true}
		}

		c.log.Debug("fetched blockhash",
			zap.Stringer("blockhash", recent.Value.Blockhash),
			zap.Uint64("lastValidBlockHeight", recent.Value.LastValidBlockHeight))

		return Blockhash{
			Hash:                 recent.Value.Blockhash,
			LastValidBlockHeight: recent.Value.LastValidBlockHeight,
		}, nil
	})
}

// SendRawTransaction broadcasts a serialized, signed transaction once.
// Node-side refusals come back as *RejectedError, transport failures as *NetworkError.
func (c *SolanaClient) SendRawTransaction(ctx context.Context, raw []byte) (solana.Signature, error) {
	if err := c.wait(ctx, "sendTransaction"); err != nil {
		return solana.Signature{}, err
	}

	sig, err := c.rpcClient.SendRawTransactionWithOpts(ctx, raw, rpc.TransactionOpts{
		SkipPreflight:       false, // Transaction validation before node
		PreflightCommitment: c.commitment,
	})
	if err != nil {
		return solana.Signature{}, wrapSendError(err)
	}

	c.log.Debug("transaction sent", zap.Stringer("signature", sig))
	return sig, nil
}

// ConfirmTransaction polls the signature status until it reaches the client's
// commitment, fails on chain, or the blockhash validity horizon passes.
// Transient lookup failures do not end the wait. Cancelling ctx ends it with
// ConfirmationTimedOut.
func (c *SolanaClient) ConfirmTransaction(ctx context.Context, sig solana.Signature, bh Blockhash) (Confirmation, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		conf, done, err := c.checkSignature(ctx, sig)
		switch {
		case err == nil && done:
			return conf, nil
		case err == nil:
		case waitEnded(ctx, err):
			return Confirmation{Status: ConfirmationTimedOut}, nil
		case !IsRetryable(err):
			return Confirmation{}, err
		default:
			c.log.Warn("signature status lookup failed, still polling",
				zap.Stringer("signature", sig), zap.Error(err))
		}

		height, err := c.getBlockHeight(ctx)
		switch {
		case err == nil:
			c.log.Debug("awaiting confirmation",
				zap.Stringer("signature", sig),
				zap.Uint64("blockHeight", height),
				zap.Uint64("lastValidBlockHeight", bh.LastValidBlockHeight))

			if height > bh.LastValidBlockHeight {
				// One last look: it may have landed right at the horizon
				if conf, done, err := c.checkSignature(ctx, sig); err == nil && done {
					return conf, nil
				}
				return Confirmation{Status: ConfirmationTimedOut}, nil
			}
		case waitEnded(ctx, err):
			return Confirmation{Status: ConfirmationTimedOut}, nil
		case !IsRetryable(err):
			return Confirmation{}, err
		default:
			c.log.Warn("block height lookup failed, still polling",
				zap.Stringer("signature", sig), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return Confirmation{Status: ConfirmationTimedOut}, nil
		case <-ticker.C:
		}
	}
}

// waitEnded reports whether err means the caller's deadline or cancellation
// cut the wait short, including the limiter refusing to wait past a deadline.
func waitEnded(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}

// checkSignature returns done=true once the status is final for our purposes.
func (c *SolanaClient) checkSignature(ctx context.Context, sig solana.Signature) (Confirmation, bool, error) {
	statuses, err := Retry(ctx, c.retry, func() (*rpc.GetSignatureStatusesResult, error) {
		if err := c.wait(ctx, "getSignatureStatuses"); err != nil {
			return nil, err
		}
		out, err := c.rpcClient.GetSignatureStatuses(ctx, false, sig)
		return out, wrapRPCError("getSignatureStatuses", err)
	})
	if err != nil {
		return Confirmation{}, false, err
	}
	if statuses == nil || len(statuses.Value) == 0 || statuses.Value[0] == nil {
		return Confirmation{}, false, nil
	}

	status := statuses.Value[0]
	if status.Err != nil {
		return Confirmation{
			Status: ConfirmationFailed,
			Slot:   status.Slot,
			Reason: fmt.Sprintf("%v", status.Err),
		}, true, nil
	}
	if reachedCommitment(status.ConfirmationStatus, c.commitment) {
		return Confirmation{Status: ConfirmationSucceeded, Slot: status.Slot}, true, nil
	}
	return Confirmation{}, false, nil
}

func (c *SolanaClient) getBlockHeight(ctx context.Context) (uint64, error) {
	return Retry(ctx, c.retry, func() (uint64, error) {
		if err := c.wait(ctx, "getBlockHeight"); err != nil {
			return 0, err
		}
		height, err := c.rpcClient.GetBlockHeight(ctx, c.commitment)
		return height, wrapRPCError("getBlockHeight", err)
	})
}

// wait blocks until the rate limiter admits one request. The limiter fails
// fast when the reservation would outlast ctx's deadline, before ctx itself
// is done, so that case is reported as a deadline too.
func (c *SolanaClient) wait(ctx context.Context, op string) error {
	err := c.limiter.Wait(ctx)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &NetworkError{Op: op, Err: ctxErr}
	}
	return &NetworkError{Op: op, Err: fmt.Errorf("%w: %v", context.DeadlineExceeded, err)}
}

// reachedCommitment reports whether status is at least as final as want.
func reachedCommitment(status rpc.ConfirmationStatusType, want rpc.CommitmentType) bool {
	switch status {
	case rpc.ConfirmationStatusFinalized:
		return true
	case rpc.ConfirmationStatusConfirmed:
		return want != rpc.CommitmentFinalized
	case rpc.ConfirmationStatusProcessed:
		return want == rpc.CommitmentProcessed
	default:
		return false
	}
}
