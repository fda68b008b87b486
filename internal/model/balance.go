package model

// BalanceResponse represents response for GET /solana/balance
type BalanceResponse struct {
	Address  string `json:"address"`
	Lamports uint64 `json:"lamports"`
	SOL      string `json:"sol"`
	Fiat     string `json:"fiat,omitempty"`
	Rate     string `json:"rate,omitempty"`
	Value    string `json:"value,omitempty"` // SOL * rate, 2 decimals
}
