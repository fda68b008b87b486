package cli

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/AlexZinkM/zsol/internal/client"
	"github.com/AlexZinkM/zsol/internal/config"
	"github.com/AlexZinkM/zsol/solana"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// cliLedger is an in-memory LedgerClient.
type cliLedger struct {
	mu         sync.Mutex
	balance    uint64
	balanceErr error
	sendErr    error
	status     client.ConfirmationStatus
	sends      int
}

func (l *cliLedger) GetBalance(context.Context, solanago.PublicKey) (uint64, error) {
	return l.balance, l.balanceErr
}

func (l *cliLedger) GetLatestBlockhash(context.Context) (client.Blockhash, error) {
	return client.Blockhash{Hash: solanago.Hash{9}, LastValidBlockHeight: 50}, nil
}

func (l *cliLedger) SendRawTransaction(_ context.Context, raw []byte) (solanago.Signature, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sendErr != nil {
		return solanago.Signature{}, l.sendErr
	}
	l.sends++
	var sig solanago.Signature
	copy(sig[:], raw[1:65])
	return sig, nil
}

func (l *cliLedger) ConfirmTransaction(context.Context, solanago.Signature, client.Blockhash) (client.Confirmation, error) {
	status := l.status
	if status == 0 {
		status = client.ConfirmationSucceeded
	}
	return client.Confirmation{Status: status}, nil
}

type fixedPrices struct{ rate decimal.Decimal }

func (p fixedPrices) GetSOLPrice(context.Context, string) (decimal.Decimal, error) {
	return p.rate, nil
}

func testConfig() *config.Config {
	return &config.Config{
		RPCURL:              "http://127.0.0.1:8899",
		Commitment:          "confirmed",
		RequestTimeout:      5 * time.Second,
		ConfirmTimeout:      5 * time.Second,
		ConfirmPollInterval: 10 * time.Millisecond,
		RPCRateLimit:        100,
		RPCRateBurst:        100,
		VerifyKeypair:       true,
		Fiat:                "usd",
		LogLevel:            "warn",
		LogFormat:           "console",
		ListenAddr:          "127.0.0.1:0",
	}
}

// withTestEnv swaps the ledger and global state for the duration of a test.
func withTestEnv(t *testing.T, ledger *cliLedger) *config.Config {
	t.Helper()
	origLedger, origPrices := newLedgerFn, newPricesFn
	origCfg, origLog, origKeyFile := cfg, log, keyFile
	t.Cleanup(func() {
		newLedgerFn, newPricesFn = origLedger, origPrices
		cfg, log, keyFile = origCfg, origLog, origKeyFile
	})

	newLedgerFn = func(*config.Config, *zap.Logger) solana.LedgerClient { return ledger }
	newPricesFn = func(*config.Config) solana.PriceSource {
		return fixedPrices{rate: decimal.NewFromInt(150)}
	}
	cfg = testConfig()
	log = zap.NewNop()
	keyFile = ""
	return cfg
}

// withMockPrompts answers secret prompts with secret and line prompts with
// lines in order; once lines run out input behaves like EOF.
func withMockPrompts(t *testing.T, secret string, lines ...string) {
	t.Helper()
	origSecret, origLine := promptSecretFn, promptLineFn
	t.Cleanup(func() {
		promptSecretFn, promptLineFn = origSecret, origLine
	})

	promptSecretFn = func(string) ([]byte, error) {
		return []byte(secret), nil
	}
	var mu sync.Mutex
	promptLineFn = func(w io.Writer, prompt string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		out(w, "%s", prompt)
		if len(lines) == 0 {
			return "", errCancelled
		}
		line := lines[0]
		lines = lines[1:]
		return line, nil
	}
}
