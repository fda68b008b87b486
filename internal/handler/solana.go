package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/AlexZinkM/zsol/internal/model"
	"github.com/AlexZinkM/zsol/solana"

	"go.uber.org/zap"
)

// Settings tunes the HTTP API.
type Settings struct {
	Fiat           string        // default currency for /solana/balance
	Cooldown       time.Duration // minimum gap between broadcast payments
	RequestTimeout time.Duration // bound for balance and price lookups
}

// maxPayBodyBytes bounds a pay request body; a valid one is well under 200 bytes.
const maxPayBodyBytes = 4 << 10

// SolanaHandler serves the wallet loaded for this session.
type SolanaHandler struct {
	wallet   *solana.Wallet
	prices   solana.PriceSource
	settings Settings
	log      *zap.Logger

	payMu   sync.Mutex // guards lastPay only, never held across RPC calls
	lastPay time.Time
	now     func() time.Time
}

// NewSolanaHandler creates a new SolanaHandler. prices may be nil.
func NewSolanaHandler(wallet *solana.Wallet, prices solana.PriceSource, settings Settings, log *zap.Logger) (*SolanaHandler, error) {
	if wallet == nil {
		return nil, errors.New("wallet is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if settings.RequestTimeout <= 0 {
		settings.RequestTimeout = 30 * time.Second
	}

	return &SolanaHandler{
		wallet:   wallet,
		prices:   prices,
		settings: settings,
		log:      log,
		now:      time.Now,
	}, nil
}

// Address handles GET /solana/address
// @Summary      Get wallet address
// @Description  Returns the base58 address and a base64 PNG QR code of it
// @Tags         solana
// @Produce      json
// @Success      200  {object}  model.AddressResponse
// @Failure      500  {object}  model.ErrorResponse
// @Router       /solana/address [get]
func (h *SolanaHandler) Address(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	address := h.wallet.PublicKeyText()
	qr, err := solana.GenerateQRCode(address)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err, "")
		return
	}

	writeJSON(w, http.StatusOK, model.AddressResponse{Address: address, QR: qr})
}

// GetBalance handles GET /solana/balance
// @Summary      Get wallet balance
// @Description  Gets SOL balance, valued in fiat when a currency is configured or requested
// @Tags         solana
// @Produce      json
// @Param        fiat  query     string  false  "Fiat currency, e.g. usd"
// @Success      200   {object}  model.BalanceResponse
// @Failure      502   {object}  model.ErrorResponse
// @Router       /solana/balance [get]
func (h *SolanaHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	fiat := h.settings.Fiat
	if q := strings.TrimSpace(r.URL.Query().Get("fiat")); q != "" {
		fiat = strings.ToLower(q)
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.settings.RequestTimeout)
	defer cancel()

	balance, err := solana.GetBalance(ctx, h.wallet, h.prices, fiat)
	if err != nil {
		writeError(w, statusFor(err), err, "")
		return
	}

	writeJSON(w, http.StatusOK, balance)
}

// PaySOL handles POST /solana/pay/sol
// @Summary      Send SOL
// @Description  Sends a SOL transfer to the specified address and waits for confirmation
// @Tags         solana
// @Accept       json
// @Produce      json
// @Param        request  body      model.PayRequest  true  "Payment data"
// @Success      200      {object}  model.PayResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      413      {object}  model.ErrorResponse
// @Failure      422      {object}  model.ErrorResponse
// @Failure      429      {object}  model.ErrorResponse
// @Failure      502      {object}  model.ErrorResponse
// @Failure      504      {object}  model.ErrorResponse
// @Router       /solana/pay/sol [post]
func (h *SolanaHandler) PaySOL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.PayRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPayBodyBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit), "")
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err), "")
		return
	}

	reserved, prev, remaining := h.reservePay()
	if remaining > 0 {
		writeError(w, http.StatusTooManyRequests,
			fmt.Errorf("cooldown active, please wait %v", remaining.Round(time.Second)), "COOLDOWN")
		return
	}

	sig, err := h.wallet.Send(r.Context(), req.ToAddress, req.Amount)
	if sig.IsZero() {
		// Nothing was broadcast, so the slot is given back
		h.releasePay(reserved, prev)
	}
	if err != nil {
		h.log.Warn("payment failed", zap.String("to", req.ToAddress), zap.Error(err))
		writeError(w, statusFor(err), err, "")
		return
	}

	h.log.Info("payment confirmed", zap.String("to", req.ToAddress), zap.Stringer("signature", sig))
	writeJSON(w, http.StatusOK, model.PayResponse{TxID: sig.String()})
}

// reservePay claims the cooldown slot for one payment. It returns how long to
// wait instead when the previous payment is too recent.
func (h *SolanaHandler) reservePay() (reserved, prev time.Time, remaining time.Duration) {
	h.payMu.Lock()
	defer h.payMu.Unlock()

	now := h.now()
	if !h.lastPay.IsZero() && h.settings.Cooldown > 0 {
		if elapsed := now.Sub(h.lastPay); elapsed < h.settings.Cooldown {
			return time.Time{}, time.Time{}, h.settings.Cooldown - elapsed
		}
	}
	prev = h.lastPay
	h.lastPay = now
	return now, prev, 0
}

// releasePay undoes reservePay unless a later payment has claimed the slot.
func (h *SolanaHandler) releasePay(reserved, prev time.Time) {
	h.payMu.Lock()
	defer h.payMu.Unlock()
	if h.lastPay.Equal(reserved) {
		h.lastPay = prev
	}
}

// statusFor maps wallet errors to HTTP status codes.
func statusFor(err error) int {
	var txErr *solana.TxError
	if errors.As(err, &txErr) {
		switch txErr.Kind {
		case solana.KindInvalidRecipient, solana.KindInvalidAmount:
			return http.StatusBadRequest
		case solana.KindRejected:
			return http.StatusUnprocessableEntity
		case solana.KindConfirmationTimedOut:
			return http.StatusGatewayTimeout
		}
	}

	var netErr *solana.NetworkError
	if errors.As(err, &netErr) {
		return http.StatusBadGateway
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error, code string) {
	resp := model.ErrorResponse{Error: err.Error(), Code: code}

	var txErr *solana.TxError
	if errors.As(err, &txErr) {
		resp.Code = txErr.Kind.String()
		if !txErr.Signature.IsZero() {
			resp.Signature = txErr.Signature.String()
		}
	}
	if resp.Code == "" {
		var netErr *solana.NetworkError
		if errors.As(err, &netErr) {
			resp.Code = "NETWORK"
		}
	}

	writeJSON(w, status, resp)
}
