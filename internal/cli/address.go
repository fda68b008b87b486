package cli

import (
	"io"

	"github.com/AlexZinkM/zsol/solana"

	"github.com/spf13/cobra"
)

var addressNoQR bool

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Show the wallet address",
	Long:  `Print the base58 address of the supplied key and a QR code for receiving funds.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		w, err := openWallet(cfg)
		if err != nil {
			return err
		}
		defer w.Close()

		return runAddress(cmd.OutOrStdout(), w, !addressNoQR)
	},
}

func runAddress(dst io.Writer, w *solana.Wallet, withQR bool) error {
	outln(dst, w.PublicKeyText())
	if !withQR {
		return nil
	}

	qr, err := solana.QRText(w.PublicKeyText())
	if err != nil {
		return err
	}
	out(dst, "%s", qr)
	return nil
}

func init() {
	addressCmd.Flags().BoolVar(&addressNoQR, "no-qr", false, "do not print the QR code")
	rootCmd.AddCommand(addressCmd)
}
