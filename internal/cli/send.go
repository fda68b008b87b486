package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/AlexZinkM/zsol/internal/common"
	"github.com/AlexZinkM/zsol/solana"

	"github.com/spf13/cobra"
)

var (
	sendTo     string
	sendAmount string
	sendYes    bool
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send SOL",
	Long: `Send SOL to a base58 address and wait for confirmation.

If confirmation times out the transaction may still land. The signature is
printed; check it before sending again.`,
	Example: `  zsol send --to 9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin --amount 0.5`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if sendTo == "" || sendAmount == "" {
			return fmt.Errorf("%w: --to and --amount are required", errInvalidInput)
		}

		w, err := openWallet(cfg)
		if err != nil {
			return err
		}
		defer w.Close()

		ctx, cancel := contextWithTimeout(cmd, cfg.RequestTimeout+cfg.ConfirmTimeout)
		defer cancel()

		return runSend(ctx, cmd.OutOrStdout(), w, sendTo, sendAmount, sendYes)
	},
}

// runSend validates, asks for confirmation unless skipConfirm, then signs and
// prints the signature before broadcasting so an interrupted wait can be traced.
func runSend(ctx context.Context, dst io.Writer, w *solana.Wallet, to, amount string, skipConfirm bool) error {
	recipient, lamports, err := solana.ParseTransfer(to, amount)
	if err != nil {
		return err
	}

	if !skipConfirm {
		ok, err := promptConfirmFn(dst, fmt.Sprintf("Send %s SOL to %s?", common.FormatLamports(lamports), recipient))
		if err != nil {
			return err
		}
		if !ok {
			return errCancelled
		}
	}

	signed, err := w.Prepare(ctx, recipient.String(), amount)
	if err != nil {
		return err
	}
	out(dst, "Broadcasting %s SOL to %s: %s\n",
		common.FormatLamports(signed.Lamports), signed.To, signed.Signature())

	sig, err := w.Submit(ctx, signed)
	if err != nil {
		var txErr *solana.TxError
		if errors.As(err, &txErr) && !sig.IsZero() {
			out(dst, "Signature: %s\n", sig)
		}
		return err
	}

	out(dst, "Transaction confirmed: %s\n", sig)
	return nil
}

func init() {
	sendCmd.Flags().StringVar(&sendTo, "to", "", "recipient address (base58)")
	sendCmd.Flags().StringVar(&sendAmount, "amount", "", "amount in SOL, e.g. 0.25")
	sendCmd.Flags().BoolVarP(&sendYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(sendCmd)
}
