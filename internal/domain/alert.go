package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// UnknownRouterLabel annotates spenders that match no registry entry.
const UnknownRouterLabel = "Unknown"

// Alert is a qualifying approval candidate ready for reporting: an approve
// call aimed at a token that looks freshly launched and unlisted.
type Alert struct {
	ID          string // deterministic hash, see idhash.ComputeAlertID
	Token       common.Address
	Metadata    TokenMetadata
	Spender     common.Address
	RouterLabel string // UnknownRouterLabel when the spender is not a known router
	Amount      *big.Int
	TxHash      common.Hash
	Height      uint64
	ObservedAt  int64 // Unix timestamp in milliseconds
}
