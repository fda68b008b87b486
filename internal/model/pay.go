package model

// PayRequest represents request for POST /solana/pay/sol
type PayRequest struct {
	ToAddress string `json:"toAddress" binding:"required"`
	Amount    string `json:"amount" binding:"required"` // SOL, decimal text
}

// PayResponse represents response for POST /solana/pay/sol
type PayResponse struct {
	TxID string `json:"txId"`
}
