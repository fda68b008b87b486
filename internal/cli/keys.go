package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/AlexZinkM/zsol/internal/config"
	"github.com/AlexZinkM/zsol/internal/crypto"
	"github.com/AlexZinkM/zsol/solana"

	solanago "github.com/gagliardetto/solana-go"
)

// loadKeypair reads the key from --key-file, ZSOL_PRIVATE_KEY or a hidden
// prompt, in that order.
func loadKeypair(c *config.Config) (*crypto.Keypair, error) {
	if keyFile != "" {
		return keypairFromFile(keyFile, c.VerifyKeypair)
	}

	var secret []byte
	if c.PrivateKey != "" {
		secret = []byte(c.PrivateKey)
	} else {
		var err error
		secret, err = promptSecretFn("Enter your private key (base58 or base64): ")
		if err != nil {
			return nil, err
		}
	}
	defer clear(secret)

	return decodeSecret(secret, c.VerifyKeypair)
}

func decodeSecret(secret []byte, verify bool) (*crypto.Keypair, error) {
	dec := crypto.Decoder{VerifyPublicKey: verify}
	return dec.DecodeBytes(secret)
}

// keypairFromFile accepts encoded key text or a solana-keygen JSON byte array.
func keypairFromFile(path string, verify bool) (*crypto.Keypair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	defer clear(data)

	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		return decodeSecret(data, verify)
	}

	priv, err := solanago.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", crypto.ErrUnrecognizedEncoding, err)
	}
	defer clear(priv)

	kp, err := crypto.KeypairFromPrivateKey(priv)
	if err != nil {
		return nil, err
	}
	if verify && !kp.MatchesSeed() {
		kp.Destroy()
		return nil, crypto.ErrPublicKeyMismatch
	}
	return kp, nil
}

// openWallet loads the session key and connects it to the configured ledger.
func openWallet(c *config.Config) (*solana.Wallet, error) {
	kp, err := loadKeypair(c)
	if err != nil {
		return nil, err
	}
	return newWallet(c, kp)
}

// newWallet wraps kp, or a fresh keypair when kp is nil.
func newWallet(c *config.Config, kp *crypto.Keypair) (*solana.Wallet, error) {
	w, err := solana.NewWallet(newLedgerFn(c, log), kp,
		solana.WithLogger(log),
		solana.WithConfirmTimeout(c.ConfirmTimeout),
	)
	if err != nil {
		if kp != nil {
			kp.Destroy()
		}
		return nil, err
	}
	return w, nil
}
