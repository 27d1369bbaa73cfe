package domain

import "github.com/ethereum/go-ethereum/common"

// Fallback metadata values used when an on-chain read fails.
const (
	FallbackName     = "Unknown"
	FallbackSymbol   = "UNK"
	FallbackDecimals = uint8(18)
)

// TokenMetadata is best-effort ERC-20 metadata read from the chain.
type TokenMetadata struct {
	Token     common.Address
	Name      string
	Symbol    string
	Decimals  uint8
	FetchedAt int64 // Unix timestamp in milliseconds
}

// FallbackMetadata returns metadata with every field at its fallback value.
func FallbackMetadata(token common.Address) *TokenMetadata {
	return &TokenMetadata{
		Token:    token,
		Name:     FallbackName,
		Symbol:   FallbackSymbol,
		Decimals: FallbackDecimals,
	}
}
