package cli

import (
	"context"
	"io"
	"strings"

	"github.com/AlexZinkM/zsol/solana"

	"github.com/spf13/cobra"
)

var balanceFiat string

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the SOL balance",
	Long: `Show the SOL balance of the supplied key. With --fiat the balance is also
valued in that currency using CoinGecko prices (display only).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		w, err := openWallet(cfg)
		if err != nil {
			return err
		}
		defer w.Close()

		ctx, cancel := contextWithTimeout(cmd, cfg.RequestTimeout)
		defer cancel()

		var prices solana.PriceSource
		if balanceFiat != "" {
			prices = newPricesFn(cfg)
		}
		return runBalance(ctx, cmd.OutOrStdout(), w, prices, balanceFiat)
	},
}

func runBalance(ctx context.Context, dst io.Writer, w *solana.Wallet, prices solana.PriceSource, fiat string) error {
	fiat = strings.ToLower(strings.TrimSpace(fiat))

	balance, err := solana.GetBalance(ctx, w, prices, fiat)
	if err != nil {
		return err
	}

	out(dst, "%s SOL\n", balance.SOL)
	if balance.Value != "" {
		code := strings.ToUpper(balance.Fiat)
		out(dst, "~ %s %s (1 SOL = %s %s)\n", balance.Value, code, balance.Rate, code)
	}
	return nil
}

func init() {
	balanceCmd.Flags().StringVar(&balanceFiat, "fiat", "", "also value the balance in this currency, e.g. usd")
	rootCmd.AddCommand(balanceCmd)
}
