package cli

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/AlexZinkM/zsol/internal/config"
	"github.com/AlexZinkM/zsol/internal/crypto"
	"github.com/AlexZinkM/zsol/solana"

	"github.com/spf13/cobra"
)

const maxKeyAttempts = 3

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Run the interactive wallet (default)",
	Args:  cobra.NoArgs,
	RunE:  runInteractiveCmd,
}

func runInteractiveCmd(cmd *cobra.Command, _ []string) error {
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	return runInteractive(base, cmd.OutOrStdout(), cfg)
}

func runInteractive(ctx context.Context, dst io.Writer, c *config.Config) error {
	outln(dst, "Welcome to zsol, a Solana CLI wallet")

	have, err := promptConfirmFn(dst, "Do you already have a keypair?")
	if err != nil {
		return quietCancel(err)
	}

	var kp *crypto.Keypair
	if have {
		kp, err = promptKeypair(dst, c)
		if err != nil {
			return quietCancel(err)
		}
	}

	w, err := newWallet(c, kp)
	if err != nil {
		return err
	}
	defer w.Close()

	outln(dst, "Wallet successfully loaded!")
	printKeypair(dst, w)
	if qr, err := solana.QRText(w.PublicKeyText()); err == nil {
		out(dst, "%s", qr)
	}

	for {
		choice, err := promptLineFn(dst, "\nWhat do you want to do?\n  1) Show balance\n  2) Send SOL\n  3) Exit\n> ")
		if err != nil {
			return quietCancel(err)
		}

		switch strings.ToLower(choice) {
		case "1", "balance":
			opCtx, cancel := context.WithTimeout(ctx, c.RequestTimeout)
			err = runBalance(opCtx, dst, w, nil, "")
			cancel()
		case "2", "send":
			err = interactiveSend(ctx, dst, w, c)
		case "3", "exit", "quit", "q":
			outln(dst, "Exiting application.")
			return nil
		default:
			outln(dst, "Please choose 1, 2 or 3.")
			continue
		}

		if err != nil {
			if errors.Is(err, errCancelled) {
				outln(dst, "Cancelled.")
				continue
			}
			out(dst, "Error: %v\n", err)
		}
	}
}

func interactiveSend(ctx context.Context, dst io.Writer, w *solana.Wallet, c *config.Config) error {
	to, err := promptLineFn(dst, "Enter receiver's public key: ")
	if err != nil {
		return err
	}
	amount, err := promptLineFn(dst, "Enter amount in SOL: ")
	if err != nil {
		return err
	}

	opCtx, cancel := context.WithTimeout(ctx, c.RequestTimeout+c.ConfirmTimeout)
	defer cancel()
	return runSend(opCtx, dst, w, to, amount, false)
}

// promptKeypair loads the key, re-prompting on malformed input when it is typed in.
func promptKeypair(dst io.Writer, c *config.Config) (*crypto.Keypair, error) {
	for attempt := 1; ; attempt++ {
		kp, err := loadKeypair(c)
		if err == nil {
			return kp, nil
		}
		typed := keyFile == "" && c.PrivateKey == ""
		if !typed || attempt >= maxKeyAttempts || !isKeyFormatError(err) {
			return nil, err
		}
		out(dst, "Invalid private key: %v\n", err)
	}
}

func isKeyFormatError(err error) bool {
	return errors.Is(err, crypto.ErrUnrecognizedEncoding) ||
		errors.Is(err, crypto.ErrInvalidLength) ||
		errors.Is(err, crypto.ErrPublicKeyMismatch)
}

// quietCancel turns end of input into a clean exit.
func quietCancel(err error) error {
	if errors.Is(err, errCancelled) {
		return nil
	}
	return err
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}
