package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ComputeAlertID computes a deterministic alert identifier using SHA256.
// Formula: SHA256(tx_hash|token|spender)
// Returns hex-encoded hash (64 characters).
func ComputeAlertID(txHash common.Hash, token, spender common.Address) string {
	data := fmt.Sprintf("%s|%s|%s",
		txHash.Hex(),
		token.Hex(),
		spender.Hex(),
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
