package solana

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/AlexZinkM/zsol/internal/client"
	"github.com/AlexZinkM/zsol/internal/crypto"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWallet_GeneratesKeypair(t *testing.T) {
	w, err := NewWallet(newFakeLedger(), nil)
	require.NoError(t, err)
	defer w.Close()

	pub, err := solana.PublicKeyFromBase58(w.PublicKeyText())
	require.NoError(t, err)
	assert.Equal(t, w.PublicKey(), pub)

	priv, err := base64.StdEncoding.DecodeString(w.PrivateKeyText())
	require.NoError(t, err)
	require.Len(t, priv, crypto.PrivateKeySize)
	assert.Equal(t, pub.Bytes(), priv[crypto.SeedSize:])
}

func TestNewWallet_RequiresLedger(t *testing.T) {
	_, err := NewWallet(nil, nil)
	require.Error(t, err)
}

func TestWallet_PrivateKeyTextRoundTrip(t *testing.T) {
	raw := make([]byte, crypto.PrivateKeySize)
	_, err := rand.Read(raw)
	require.NoError(t, err)

	kp, err := crypto.Decode(base64.StdEncoding.EncodeToString(raw))
	require.NoError(t, err)

	w, err := NewWallet(newFakeLedger(), kp)
	require.NoError(t, err)

	got, err := base64.StdEncoding.DecodeString(w.PrivateKeyText())
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestWallet_Balance(t *testing.T) {
	ledger := newFakeLedger()
	ledger.balance = 5_000_000_000

	w, err := NewWallet(ledger, nil)
	require.NoError(t, err)

	bal, err := w.Balance(context.Background())
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.NewFromInt(5)), "got %s", bal)

	lamports, err := w.BalanceLamports(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000_000_000), lamports)
}

func TestWallet_BalanceNetworkError(t *testing.T) {
	ledger := newFakeLedger()
	ledger.balanceErr = &client.NetworkError{Op: "getBalance", Err: errors.New("connection refused")}

	w, err := NewWallet(ledger, nil)
	require.NoError(t, err)

	_, err = w.Balance(context.Background())
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "getBalance", netErr.Op)
}

func TestWallet_CloseWipesKey(t *testing.T) {
	ledger := newFakeLedger()
	w, err := NewWallet(ledger, nil)
	require.NoError(t, err)

	w.Close()

	_, err = w.Send(context.Background(), solana.NewWallet().PublicKey().String(), "1")
	assert.ErrorIs(t, err, crypto.ErrKeypairDestroyed)
	assert.Zero(t, ledger.sentCount())
}

type fakePrices struct {
	rate decimal.Decimal
	err  error
}

func (f fakePrices) GetSOLPrice(_ context.Context, _ string) (decimal.Decimal, error) {
	return f.rate, f.err
}

func TestGetBalance(t *testing.T) {
	ledger := newFakeLedger()
	ledger.balance = 2_500_000_000

	w, err := NewWallet(ledger, nil)
	require.NoError(t, err)

	resp, err := GetBalance(context.Background(), w, nil, "")
	require.NoError(t, err)
	assert.Equal(t, w.PublicKeyText(), resp.Address)
	assert.Equal(t, "2.5", resp.SOL)
	assert.Equal(t, uint64(2_500_000_000), resp.Lamports)
	assert.Empty(t, resp.Value)

	resp, err = GetBalance(context.Background(), w, fakePrices{rate: decimal.RequireFromString("140.10")}, "usd")
	require.NoError(t, err)
	assert.Equal(t, "usd", resp.Fiat)
	assert.Equal(t, "140.1", resp.Rate)
	assert.Equal(t, "350.25", resp.Value)

	_, err = GetBalance(context.Background(), w, fakePrices{err: errors.New("down")}, "usd")
	require.Error(t, err)
}

func TestQRHelpers(t *testing.T) {
	addr := solana.NewWallet().PublicKey().String()

	png, err := GenerateQRCode(addr)
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(png)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), raw[:4])

	text, err := QRText(addr)
	require.NoError(t, err)
	assert.NotEmpty(t, text)
}
