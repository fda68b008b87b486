// Package crypto turns user supplied key text into Solana keypairs and keeps
// the private half in locked, zeroable memory.
package crypto

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

const (
	SeedSize       = ed25519.SeedSize       // 32
	PrivateKeySize = ed25519.PrivateKeySize // 64: seed ‖ public key
)

// ErrKeypairDestroyed is returned when signing with a destroyed keypair.
var ErrKeypairDestroyed = errors.New("keypair has been destroyed")

// Keypair is an immutable ed25519 keypair.
// The 64-byte private key lives in SecureBytes until Destroy is called.
type Keypair struct {
	publicKey solana.PublicKey
	secret    *SecureBytes
}

// GenerateKeypair creates a new random keypair.
func GenerateKeypair() (*Keypair, error) {
	priv, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate keypair: %w", err)
	}
	// Always clear the heap copy once it is in secure memory
	defer clear(priv)

	return newKeypair(priv), nil
}

// KeypairFromSeed derives the public key from a 32-byte seed.
func KeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != SeedSize {
		return nil, &InvalidLengthError{Length: len(seed)}
	}

	full := ed25519.NewKeyFromSeed(seed)
	defer clear(full)

	return newKeypair(full), nil
}

// KeypairFromPrivateKey takes a 64-byte seed ‖ public key as-is.
// The public half is trusted, not re-derived.
func KeypairFromPrivateKey(full []byte) (*Keypair, error) {
	if len(full) != PrivateKeySize {
		return nil, &InvalidLengthError{Length: len(full)}
	}
	return newKeypair(full), nil
}

func newKeypair(full []byte) *Keypair {
	var pub solana.PublicKey
	copy(pub[:], full[SeedSize:])

	return &Keypair{
		publicKey: pub,
		secret:    NewSecureBytes(full),
	}
}

// PublicKey returns the account address.
func (k *Keypair) PublicKey() solana.PublicKey {
	return k.publicKey
}

// PrivateKey returns a view of the 64-byte private key backed by secure memory.
// It is nil after Destroy and must not be retained.
func (k *Keypair) PrivateKey() solana.PrivateKey {
	return solana.PrivateKey(k.secret.Bytes())
}

// Sign signs payload with the private key.
func (k *Keypair) Sign(payload []byte) (solana.Signature, error) {
	priv := k.PrivateKey()
	if len(priv) != PrivateKeySize {
		return solana.Signature{}, ErrKeypairDestroyed
	}
	return priv.Sign(payload)
}

// MatchesSeed reports whether the public half equals the key derived from the seed.
func (k *Keypair) MatchesSeed() bool {
	priv := k.PrivateKey()
	if len(priv) != PrivateKeySize {
		return false
	}

	derived := ed25519.NewKeyFromSeed(priv[:SeedSize])
	defer clear(derived)

	return k.publicKey.Equals(solana.PublicKeyFromBytes(derived[SeedSize:]))
}

// Destroy zeroes the private key. The keypair cannot sign afterwards.
func (k *Keypair) Destroy() {
	k.secret.Destroy()
}
