package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

// EnvPrefix is prepended to every variable name, e.g. ZSOL_RPC_URL.
const EnvPrefix = "zsol"

// Config contains all configuration parameters for the application.
// Note: PrivateKey is optional; when empty the key is prompted at runtime.
type Config struct {
	RPCURL              string        `envconfig:"RPC_URL" default:"https://api.devnet.solana.com"`
	Commitment          string        `envconfig:"COMMITMENT" default:"confirmed"`
	RequestTimeout      time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	ConfirmTimeout      time.Duration `envconfig:"CONFIRM_TIMEOUT" default:"90s"`
	ConfirmPollInterval time.Duration `envconfig:"CONFIRM_POLL_INTERVAL" default:"2s"`
	RPCRateLimit        float64       `envconfig:"RPC_RATE_LIMIT" default:"5"`
	RPCRateBurst        int           `envconfig:"RPC_RATE_BURST" default:"10"`
	VerifyKeypair       bool          `envconfig:"VERIFY_KEYPAIR" default:"true"`
	PriceAPIURL         string        `envconfig:"PRICE_API_URL" default:"https://api.coingecko.com/api/v3"`
	Fiat                string        `envconfig:"FIAT" default:"usd"`
	LogLevel            string        `envconfig:"LOG_LEVEL" default:"warn"`
	LogFormat           string        `envconfig:"LOG_FORMAT" default:"console"`
	ListenAddr          string        `envconfig:"LISTEN_ADDR" default:"127.0.0.1:8080"`
	SendCooldown        time.Duration `envconfig:"SEND_COOLDOWN" default:"0s"`
	PrivateKey          string        `envconfig:"PRIVATE_KEY"`
}

// Load reads configuration from ZSOL_* environment variables and validates it.
func Load() (*Config, error) {
	c := &Config{}
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RPCURL) == "" {
		return errors.New("ZSOL_RPC_URL must not be empty")
	}
	switch c.Commitment {
	case string(rpc.CommitmentConfirmed), string(rpc.CommitmentFinalized):
	default:
		return fmt.Errorf("ZSOL_COMMITMENT must be confirmed or finalized, got %q", c.Commitment)
	}
	if c.RequestTimeout <= 0 || c.ConfirmTimeout <= 0 || c.ConfirmPollInterval <= 0 {
		return errors.New("timeouts and poll interval must be positive")
	}
	if c.RPCRateLimit <= 0 || c.RPCRateBurst <= 0 {
		return errors.New("ZSOL_RPC_RATE_LIMIT and ZSOL_RPC_RATE_BURST must be positive")
	}
	if c.SendCooldown < 0 {
		return errors.New("ZSOL_SEND_COOLDOWN must not be negative")
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("ZSOL_LOG_FORMAT must be console or json, got %q", c.LogFormat)
	}
	return nil
}

// RPCCommitment returns the configured commitment as an rpc type.
func (c *Config) RPCCommitment() rpc.CommitmentType {
	return rpc.CommitmentType(c.Commitment)
}

// PromptForSecret prompts in the terminal and reads a line without echoing it.
// Caller must zero the returned slice after use.
func PromptForSecret(prompt string) ([]byte, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("stdin is not a terminal: set ZSOL_PRIVATE_KEY or use --key-file")
	}
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("secret cannot be empty")
	}

	out := make([]byte, len(raw))
	copy(out, raw)
	clear(raw)
	return out, nil
}
