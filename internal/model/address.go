package model

// AddressResponse represents response for GET /solana/address
type AddressResponse struct {
	Address string `json:"address"`
	QR      string `json:"QR"` // base64 PNG
}

// KeypairResponse is printed by `zsol keygen --json`
type KeypairResponse struct {
	PublicKey  string `json:"publicKey"`  // base58
	PrivateKey string `json:"privateKey"` // base64, 64 bytes
}
