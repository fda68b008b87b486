package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	coingeckoAPI = "https://api.coingecko.com/api/v3"
	solanaCoinID = "solana"
)

// CoinGeckoClient client for CoinGecko API
type CoinGeckoClient struct {
	baseURL string
	client  *http.Client
}

// NewCoinGeckoClient creates a new CoinGecko client. An empty baseURL uses the public API.
func NewCoinGeckoClient(baseURL string) *CoinGeckoClient {
	if baseURL == "" {
		baseURL = coingeckoAPI
	}
	return &CoinGeckoClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// GetSOLPrice gets the price of 1 SOL in the given fiat currency (e.g. "usd")
func (c *CoinGeckoClient) GetSOLPrice(ctx context.Context, fiat string) (decimal.Decimal, error) {
	fiat = strings.ToLower(strings.TrimSpace(fiat))
	if fiat == "" {
		return decimal.Zero, fmt.Errorf("fiat currency is required")
	}

	q := url.Values{}
	q.Set("ids", solanaCoinID)
	q.Set("vs_currencies", fiat)
	endpoint := fmt.Sprintf("%s/simple/price?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to build rate request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("failed to get rate: status %d", resp.StatusCode)
	}

	// {"solana":{"usd":142.37}}
	var priceResp map[string]map[string]decimal.Decimal
	if err := json.NewDecoder(resp.Body).Decode(&priceResp); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode rate: %w", err)
	}

	rate, ok := priceResp[solanaCoinID][fiat]
	if !ok {
		return decimal.Zero, fmt.Errorf("no %s rate for %s", fiat, solanaCoinID)
	}
	return rate, nil
}
