package crypto

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"unicode"
	"unsafe"

	"github.com/mr-tron/base58"
)

var (
	// ErrUnrecognizedEncoding means the text is neither base58 nor base64.
	ErrUnrecognizedEncoding = errors.New("invalid private key format (not base58 or base64)")

	// ErrInvalidLength is matched by every *InvalidLengthError.
	ErrInvalidLength = errors.New("invalid private key length")

	// ErrPublicKeyMismatch means a 64-byte key carries a public half that
	// does not belong to its seed.
	ErrPublicKeyMismatch = errors.New("private key does not match its public key")
)

// InvalidLengthError reports decoded key bytes that are neither 32 nor 64 long.
type InvalidLengthError struct {
	Length int
}

func (e *InvalidLengthError) Error() string {
	return fmt.Sprintf("invalid private key length: %d bytes (expected %d or %d)", e.Length, SeedSize, PrivateKeySize)
}

func (e *InvalidLengthError) Is(target error) bool {
	return target == ErrInvalidLength
}

// decodeStrategy turns text into raw bytes or reports that it does not apply.
type decodeStrategy struct {
	name   string
	decode func([]byte) ([]byte, error)
}

// Order matters: base58 is the default wallet export format and wins ties.
var decodeStrategies = []decodeStrategy{
	{name: "base58", decode: decodeBase58},
	{name: "base64", decode: decodeBase64(base64.StdEncoding)},
	{name: "base64-raw", decode: decodeBase64(base64.RawStdEncoding)},
}

// decodeBase58 hands the decoder a string view of text rather than a copy,
// so clearing text also clears what the decoder saw. The view must not
// outlive the call.
func decodeBase58(text []byte) ([]byte, error) {
	return base58.Decode(unsafe.String(unsafe.SliceData(text), len(text)))
}

func decodeBase64(enc *base64.Encoding) func([]byte) ([]byte, error) {
	return func(text []byte) ([]byte, error) {
		raw := make([]byte, enc.DecodedLen(len(text)))
		n, err := enc.Decode(raw, text)
		if err != nil {
			clear(raw)
			return nil, err
		}
		return raw[:n], nil
	}
}

// Decoder converts key text into a Keypair.
type Decoder struct {
	// VerifyPublicKey rejects 64-byte keys whose public half is not derived
	// from their seed. Off by default for compatibility with exported keys
	// that are taken verbatim.
	VerifyPublicKey bool
}

// Decode parses key text with the permissive default Decoder.
func Decode(input string) (*Keypair, error) {
	return Decoder{}.Decode(input)
}

// Decode is DecodeBytes for key text held in a string.
func (d Decoder) Decode(input string) (*Keypair, error) {
	return d.DecodeBytes([]byte(input))
}

// DecodeBytes strips whitespace, tries each encoding in order and builds a
// keypair from the first successful decode. input is left untouched and every
// intermediate copy is zeroed, so callers holding the secret in a buffer can
// clear it afterwards.
func (d Decoder) DecodeBytes(input []byte) (*Keypair, error) {
	raw, err := decodeKeyBytes(input)
	if err != nil {
		return nil, err
	}
	defer clear(raw)

	switch len(raw) {
	case SeedSize:
		return KeypairFromSeed(raw)
	case PrivateKeySize:
		kp, err := KeypairFromPrivateKey(raw)
		if err != nil {
			return nil, err
		}
		if d.VerifyPublicKey && !kp.MatchesSeed() {
			kp.Destroy()
			return nil, ErrPublicKeyMismatch
		}
		return kp, nil
	default:
		return nil, &InvalidLengthError{Length: len(raw)}
	}
}

// decodeKeyBytes returns the bytes of the first strategy that accepts the text.
func decodeKeyBytes(input []byte) ([]byte, error) {
	sanitized := stripWhitespace(input)
	defer clear(sanitized)
	if len(sanitized) == 0 {
		return nil, ErrUnrecognizedEncoding
	}

	for _, s := range decodeStrategies {
		raw, err := s.decode(sanitized)
		if err == nil && len(raw) > 0 {
			return raw, nil
		}
		clear(raw)
	}
	return nil, ErrUnrecognizedEncoding
}

// stripWhitespace returns a new slice; input is not modified.
func stripWhitespace(input []byte) []byte {
	return bytes.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, input)
}
