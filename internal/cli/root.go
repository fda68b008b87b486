// Package cli implements the zsol command-line interface.
//
// Cobra commands share package-level state: flags, the loaded config and the
// logger are set up in PersistentPreRunE and released in PersistentPostRun.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/AlexZinkM/zsol/internal/client"
	"github.com/AlexZinkM/zsol/internal/config"
	"github.com/AlexZinkM/zsol/internal/logger"
	"github.com/AlexZinkM/zsol/solana"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	keyFile string
	rpcURL  string
	verbose bool

	// Global state initialized in PersistentPreRunE
	cfg *config.Config
	log *zap.Logger
)

// Seams replaced in tests.
var (
	newLedgerFn = func(c *config.Config, l *zap.Logger) solana.LedgerClient {
		return client.NewSolanaClient(c.RPCURL,
			client.WithCommitment(c.RPCCommitment()),
			client.WithRateLimit(c.RPCRateLimit, c.RPCRateBurst),
			client.WithPollInterval(c.ConfirmPollInterval),
			client.WithLogger(l),
		)
	}
	newPricesFn = func(c *config.Config) solana.PriceSource {
		return client.NewCoinGeckoClient(c.PriceAPIURL)
	}
)

// rootCmd runs the interactive wallet when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "zsol",
	Short: "A minimal Solana wallet for the terminal",
	Long: `zsol loads or generates a Solana keypair, shows its SOL balance and
sends SOL transfers.

Run without arguments for the interactive menu. The private key is taken
from --key-file, then ZSOL_PRIVATE_KEY, and is otherwise prompted for with
hidden input.

Example:
  zsol keygen
  zsol balance --fiat usd
  zsol send --to 9xQe... --amount 0.25`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return initGlobals()
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup()
	},
	RunE: runInteractiveCmd,
}

// Execute runs the root command and prints any error to stderr.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

// initGlobals loads configuration and builds the logger.
func initGlobals() error {
	loaded, err := config.Load()
	if err != nil {
		return fmt.Errorf("%w: %w", errInvalidInput, err)
	}
	if rpcURL != "" {
		loaded.RPCURL = rpcURL
	}
	if verbose {
		loaded.LogLevel = "debug"
	}

	l, err := logger.New(loaded.LogLevel, loaded.LogFormat)
	if err != nil {
		return fmt.Errorf("%w: %w", errInvalidInput, err)
	}

	cfg = loaded
	log = l
	return nil
}

// cleanup releases resources.
func cleanup() {
	if log != nil {
		_ = log.Sync()
	}
}

func out(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

func outln(w io.Writer, args ...any) {
	_, _ = fmt.Fprintln(w, args...)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&keyFile, "key-file", "", "read the private key from this file (base58, base64 or solana-keygen JSON)")
	rootCmd.PersistentFlags().StringVar(&rpcURL, "rpc", "", "Solana RPC URL (overrides ZSOL_RPC_URL)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
