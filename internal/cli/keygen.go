package cli

import (
	"encoding/json"
	"io"

	"github.com/AlexZinkM/zsol/internal/model"
	"github.com/AlexZinkM/zsol/solana"

	"github.com/spf13/cobra"
)

var keygenJSON bool

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a new keypair",
	Long: `Generate a new ed25519 keypair and print the address and the base64
secret key. Nothing is written to disk.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		w, err := newWallet(cfg, nil)
		if err != nil {
			return err
		}
		defer w.Close()

		if keygenJSON {
			return writeJSON(cmd.OutOrStdout(), model.KeypairResponse{
				PublicKey:  w.PublicKeyText(),
				PrivateKey: w.PrivateKeyText(),
			})
		}
		printKeypair(cmd.OutOrStdout(), w)
		return nil
	},
}

// printKeypair shows the address and secret key with a warning.
func printKeypair(dst io.Writer, w *solana.Wallet) {
	outln(dst, "Public Key:")
	outln(dst, w.PublicKeyText())
	outln(dst, "Secret Key (base64):")
	outln(dst, w.PrivateKeyText())
	outln(dst, "WARNING: Keep your secret key safe. Do NOT share it with anyone.")
}

func writeJSON(dst io.Writer, v any) error {
	enc := json.NewEncoder(dst)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	keygenCmd.Flags().BoolVar(&keygenJSON, "json", false, "print the keypair as JSON")
	rootCmd.AddCommand(keygenCmd)
}
