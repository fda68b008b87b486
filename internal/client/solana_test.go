package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcHandler func(params json.RawMessage) (any, *rpcError)

// fakeRPC is a minimal JSON-RPC 2.0 node answering from per-method handlers.
type fakeRPC struct {
	mu       sync.Mutex
	handlers map[string]rpcHandler
	calls    map[string]int
	outages  map[string]int
}

func newFakeRPC(t *testing.T) (*fakeRPC, *httptest.Server) {
	t.Helper()
	f := &fakeRPC{handlers: map[string]rpcHandler{}, calls: map[string]int{}, outages: map[string]int{}}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeRPC) on(method string, h rpcHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method] = h
}

// failNext answers the next n calls of method with a bare HTTP 503.
func (f *fakeRPC) failNext(method string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outages[method] = n
}

func (f *fakeRPC) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeRPC) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     json.RawMessage `json:"id"`
		Method string          `json:"method"`
		Params json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.calls[req.Method]++
	h, ok := f.handlers[req.Method]
	down := f.outages[req.Method] > 0
	if down {
		f.outages[req.Method]--
	}
	f.mu.Unlock()

	if down {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if !ok {
		resp["error"] = rpcError{Code: -32601, Message: "Method not found"}
	} else if result, rpcErr := h(req.Params); rpcErr != nil {
		resp["error"] = rpcErr
	} else {
		resp["result"] = result
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func withContext(value any) map[string]any {
	return map[string]any{"context": map[string]any{"slot": 1}, "value": value}
}

func fastClient(url string) *SolanaClient {
	return NewSolanaClient(url,
		WithPollInterval(5*time.Millisecond),
		WithRateLimit(1000, 100),
		WithRetry(RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}),
	)
}

func TestSolanaClient_GetBalance(t *testing.T) {
	fake, srv := newFakeRPC(t)
	fake.on("getBalance", func(json.RawMessage) (any, *rpcError) {
		return withContext(5_000_000_000), nil
	})

	c := fastClient(srv.URL)
	bal, err := c.GetBalance(context.Background(), solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000_000_000), bal)
	assert.Equal(t, srv.URL, c.RPCURL())
}

func TestSolanaClient_GetLatestBlockhash(t *testing.T) {
	hash := solana.Hash{1, 2, 3}
	fake, srv := newFakeRPC(t)
	fake.on("getLatestBlockhash", func(json.RawMessage) (any, *rpcError) {
		return withContext(map[string]any{
			"blockhash":            hash.String(),
			"lastValidBlockHeight": 300,
		}), nil
	})

	bh, err := fastClient(srv.URL).GetLatestBlockhash(context.Background())
	require.NoError(t, err)
	assert.Equal(t, hash, bh.Hash)
	assert.Equal(t, uint64(300), bh.LastValidBlockHeight)
}

func TestSolanaClient_SendRawTransaction(t *testing.T) {
	sig := solana.Signature{9, 9, 9}
	fake, srv := newFakeRPC(t)
	fake.on("sendTransaction", func(json.RawMessage) (any, *rpcError) {
		return sig.String(), nil
	})

	got, err := fastClient(srv.URL).SendRawTransaction(context.Background(), []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, sig, got)
}

func TestSolanaClient_SendRawTransaction_Rejected(t *testing.T) {
	fake, srv := newFakeRPC(t)
	fake.on("sendTransaction", func(json.RawMessage) (any, *rpcError) {
		return nil, &rpcError{Code: -32002, Message: "Transaction simulation failed: insufficient lamports"}
	})

	_, err := fastClient(srv.URL).SendRawTransaction(context.Background(), []byte{1})
	require.Error(t, err)

	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, -32002, rejected.Code)
	assert.Contains(t, rejected.Reason, "insufficient lamports")
	assert.Equal(t, 1, fake.count("sendTransaction"), "broadcast must not be retried")
}

func TestSolanaClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := fastClient(url)
	_, err := c.GetBalance(context.Background(), solana.PublicKey{})
	require.Error(t, err)

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "getBalance", netErr.Op)
	assert.True(t, netErr.Temporary())

	_, err = c.SendRawTransaction(context.Background(), []byte{1})
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "sendTransaction", netErr.Op)
}

func TestSolanaClient_ConfirmTransaction(t *testing.T) {
	bh := Blockhash{Hash: solana.Hash{7}, LastValidBlockHeight: 100}

	t.Run("confirmed after polling", func(t *testing.T) {
		var polls atomic.Int32
		fake, srv := newFakeRPC(t)
		fake.on("getSignatureStatuses", func(json.RawMessage) (any, *rpcError) {
			if polls.Add(1) < 3 {
				return withContext([]any{nil}), nil
			}
			return withContext([]any{map[string]any{
				"slot": 42, "confirmations": 1, "err": nil, "confirmationStatus": "confirmed",
			}}), nil
		})
		fake.on("getBlockHeight", func(json.RawMessage) (any, *rpcError) { return 50, nil })

		conf, err := fastClient(srv.URL).ConfirmTransaction(context.Background(), solana.Signature{1}, bh)
		require.NoError(t, err)
		assert.Equal(t, ConfirmationSucceeded, conf.Status)
		assert.Equal(t, uint64(42), conf.Slot)
		assert.GreaterOrEqual(t, int(polls.Load()), 3)
	})

	t.Run("failed on chain", func(t *testing.T) {
		fake, srv := newFakeRPC(t)
		fake.on("getSignatureStatuses", func(json.RawMessage) (any, *rpcError) {
			return withContext([]any{map[string]any{
				"slot": 42, "confirmations": nil,
				"err":                map[string]any{"InstructionError": []any{0, "Custom"}},
				"confirmationStatus": "processed",
			}}), nil
		})

		conf, err := fastClient(srv.URL).ConfirmTransaction(context.Background(), solana.Signature{1}, bh)
		require.NoError(t, err)
		assert.Equal(t, ConfirmationFailed, conf.Status)
		assert.Contains(t, conf.Reason, "InstructionError")
	})

	t.Run("blockhash expired", func(t *testing.T) {
		fake, srv := newFakeRPC(t)
		fake.on("getSignatureStatuses", func(json.RawMessage) (any, *rpcError) {
			return withContext([]any{nil}), nil
		})
		fake.on("getBlockHeight", func(json.RawMessage) (any, *rpcError) { return 101, nil })

		conf, err := fastClient(srv.URL).ConfirmTransaction(context.Background(), solana.Signature{1}, bh)
		require.NoError(t, err)
		assert.Equal(t, ConfirmationTimedOut, conf.Status)
	})

	t.Run("context deadline", func(t *testing.T) {
		fake, srv := newFakeRPC(t)
		fake.on("getSignatureStatuses", func(json.RawMessage) (any, *rpcError) {
			return withContext([]any{nil}), nil
		})
		fake.on("getBlockHeight", func(json.RawMessage) (any, *rpcError) { return 10, nil })

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		conf, err := fastClient(srv.URL).ConfirmTransaction(ctx, solana.Signature{1}, bh)
		require.NoError(t, err)
		assert.Equal(t, ConfirmationTimedOut, conf.Status)
	})
}

func TestSolanaClient_ConfirmTransaction_TransientFailures(t *testing.T) {
	bh := Blockhash{Hash: solana.Hash{7}, LastValidBlockHeight: 100}

	t.Run("keeps polling through outages", func(t *testing.T) {
		fake, srv := newFakeRPC(t)
		fake.on("getSignatureStatuses", func(json.RawMessage) (any, *rpcError) {
			return withContext([]any{map[string]any{
				"slot": 42, "confirmations": 1, "err": nil, "confirmationStatus": "confirmed",
			}}), nil
		})
		fake.on("getBlockHeight", func(json.RawMessage) (any, *rpcError) { return 50, nil })
		// fastClient retries twice, so the first poll exhausts its attempts
		fake.failNext("getSignatureStatuses", 3)
		fake.failNext("getBlockHeight", 2)

		conf, err := fastClient(srv.URL).ConfirmTransaction(context.Background(), solana.Signature{1}, bh)
		require.NoError(t, err)
		assert.Equal(t, ConfirmationSucceeded, conf.Status)
		assert.Equal(t, 4, fake.count("getSignatureStatuses"))
	})

	t.Run("outage until deadline", func(t *testing.T) {
		fake, srv := newFakeRPC(t)
		fake.failNext("getSignatureStatuses", 1<<20)
		fake.failNext("getBlockHeight", 1<<20)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		conf, err := fastClient(srv.URL).ConfirmTransaction(ctx, solana.Signature{1}, bh)
		require.NoError(t, err)
		assert.Equal(t, ConfirmationTimedOut, conf.Status)
	})

	t.Run("node error is returned", func(t *testing.T) {
		fake, srv := newFakeRPC(t)
		fake.on("getSignatureStatuses", func(json.RawMessage) (any, *rpcError) {
			return nil, &rpcError{Code: -32602, Message: "Invalid params"}
		})

		_, err := fastClient(srv.URL).ConfirmTransaction(context.Background(), solana.Signature{1}, bh)
		var netErr *NetworkError
		require.ErrorAs(t, err, &netErr)
		assert.True(t, netErr.RPC)
		assert.Equal(t, 1, fake.count("getSignatureStatuses"))
	})
}

func TestSolanaClient_RateLimiterDeadline(t *testing.T) {
	fake, srv := newFakeRPC(t)
	fake.on("getBalance", func(json.RawMessage) (any, *rpcError) { return withContext(1), nil })
	fake.on("getSignatureStatuses", func(json.RawMessage) (any, *rpcError) {
		return withContext([]any{nil}), nil
	})
	fake.on("getBlockHeight", func(json.RawMessage) (any, *rpcError) { return 10, nil })

	// one token per second: the second request cannot be admitted within 200ms
	c := NewSolanaClient(srv.URL,
		WithRateLimit(1, 1),
		WithPollInterval(5*time.Millisecond),
		WithRetry(RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}),
	)
	owner := solana.NewWallet().PublicKey()

	_, err := c.GetBalance(context.Background(), owner)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err = c.GetBalance(ctx, owner)
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "getBalance", netErr.Op)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, netErr.Temporary())
	assert.Equal(t, 1, fake.count("getBalance"))

	_, err = c.SendRawTransaction(ctx, []byte{1})
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "sendTransaction", netErr.Op)
	assert.Zero(t, fake.count("sendTransaction"))

	conf, err := c.ConfirmTransaction(ctx, solana.Signature{1}, Blockhash{LastValidBlockHeight: 100})
	require.NoError(t, err)
	assert.Equal(t, ConfirmationTimedOut, conf.Status)
}

func TestReachedCommitment(t *testing.T) {
	assert.True(t, reachedCommitment(rpc.ConfirmationStatusFinalized, rpc.CommitmentFinalized))
	assert.True(t, reachedCommitment(rpc.ConfirmationStatusConfirmed, rpc.CommitmentConfirmed))
	assert.False(t, reachedCommitment(rpc.ConfirmationStatusConfirmed, rpc.CommitmentFinalized))
	assert.False(t, reachedCommitment(rpc.ConfirmationStatusProcessed, rpc.CommitmentConfirmed))
	assert.True(t, reachedCommitment(rpc.ConfirmationStatusProcessed, rpc.CommitmentProcessed))
	assert.False(t, reachedCommitment("", rpc.CommitmentConfirmed))
}

func TestConfirmationStatus_String(t *testing.T) {
	assert.Equal(t, "succeeded", ConfirmationSucceeded.String())
	assert.Equal(t, "failed", ConfirmationFailed.String())
	assert.Equal(t, "timed out", ConfirmationTimedOut.String())
	assert.Equal(t, "unknown", ConfirmationStatus(0).String())
}
