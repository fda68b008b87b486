package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AlexZinkM/zsol/internal/api"
	"github.com/AlexZinkM/zsol/internal/handler"
	"github.com/AlexZinkM/zsol/solana"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the local HTTP API",
	Long: `Serve a local HTTP API for the supplied key:

  GET  /solana/address   address and QR code
  GET  /solana/balance   balance, optionally valued in fiat
  POST /solana/pay/sol   send SOL
  GET  /swagger/         API documentation

Binds to loopback by default. Payments are spaced by ZSOL_SEND_COOLDOWN.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		w, err := openWallet(cfg)
		if err != nil {
			return err
		}
		defer w.Close()

		addr := cfg.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}

		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", addr, err)
		}

		base := cmd.Context()
		if base == nil {
			base = context.Background()
		}
		ctx, stop := signal.NotifyContext(base, os.Interrupt, syscall.SIGTERM)
		defer stop()

		settings := handler.Settings{
			Fiat:           cfg.Fiat,
			Cooldown:       cfg.SendCooldown,
			RequestTimeout: cfg.RequestTimeout,
		}
		return runServe(ctx, cmd.ErrOrStderr(), ln, w, newPricesFn(cfg), settings)
	},
}

// runServe serves the API on ln until ctx is done, then shuts down gracefully.
func runServe(ctx context.Context, dst io.Writer, ln net.Listener, w *solana.Wallet, prices solana.PriceSource, settings handler.Settings) error {
	h, err := handler.NewSolanaHandler(w, prices, settings, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           api.SetupRouter(h, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	out(dst, "Serving %s on http://%s (docs at /swagger/index.html)\n", w.PublicKeyText(), ln.Addr())
	log.Info("http api started", zap.Stringer("addr", ln.Addr()))

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	log.Info("http api stopped")
	return nil
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides ZSOL_LISTEN_ADDR)")
	rootCmd.AddCommand(serveCmd)
}
