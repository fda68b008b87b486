package solana

import (
	"context"
	"sync"

	"github.com/AlexZinkM/zsol/internal/client"

	"github.com/gagliardetto/solana-go"
)

// fakeLedger is an in-memory LedgerClient.
type fakeLedger struct {
	mu sync.Mutex

	balance    uint64
	balanceErr error

	blockhashCalls int
	blockhashErr   error

	sendErr error
	sent    [][]byte

	// confirmations are returned in order; the last one repeats
	confirmations []client.Confirmation
	confirmErr    error
	confirmedWith []client.Blockhash
	// hangConfirm makes ConfirmTransaction wait for ctx like a stalled node
	hangConfirm bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		balance:       10 * 1_000_000_000,
		confirmations: []client.Confirmation{{Status: client.ConfirmationSucceeded, Slot: 1}},
	}
}

func (f *fakeLedger) GetBalance(_ context.Context, _ solana.PublicKey) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balance, f.balanceErr
}

func (f *fakeLedger) GetLatestBlockhash(_ context.Context) (client.Blockhash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.blockhashErr != nil {
		return client.Blockhash{}, f.blockhashErr
	}
	f.blockhashCalls++
	n := f.blockhashCalls
	return client.Blockhash{
		Hash:                 solana.Hash{byte(n), 0xbb},
		LastValidBlockHeight: uint64(100 + n),
	}, nil
}

func (f *fakeLedger) SendRawTransaction(_ context.Context, raw []byte) (solana.Signature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return solana.Signature{}, f.sendErr
	}
	f.sent = append(f.sent, raw)

	// wire format: compact-u16 signature count (1) then the 64-byte signature
	var sig solana.Signature
	copy(sig[:], raw[1:65])
	return sig, nil
}

func (f *fakeLedger) ConfirmTransaction(ctx context.Context, _ solana.Signature, bh client.Blockhash) (client.Confirmation, error) {
	f.mu.Lock()
	f.confirmedWith = append(f.confirmedWith, bh)
	hang := f.hangConfirm
	f.mu.Unlock()

	if hang {
		<-ctx.Done()
		return client.Confirmation{Status: client.ConfirmationTimedOut}, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.confirmErr != nil {
		return client.Confirmation{}, f.confirmErr
	}
	conf := f.confirmations[0]
	if len(f.confirmations) > 1 {
		f.confirmations = f.confirmations[1:]
	}
	return conf, nil
}

func (f *fakeLedger) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}
