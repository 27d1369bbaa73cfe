// Package decode extracts ERC-20 approve calls from raw transactions.
package decode

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"approval-watch/internal/domain"
)

// Selector is the 4-byte function selector of approve(address,uint256).
var Selector = crypto.Keccak256([]byte("approve(address,uint256)"))[:4]

// minInputLen is selector plus the full spender word plus at least one
// amount byte. Shorter calldata cannot be a usable approve call.
const minInputLen = 37

// Decoder recognizes approve calls addressed to token contracts.
type Decoder struct {
	weth common.Address
}

// NewDecoder creates a Decoder. Transactions sent to weth are ignored:
// approvals of the wrapped native token say nothing about new tokens.
func NewDecoder(weth common.Address) *Decoder {
	return &Decoder{weth: weth}
}

// Decode returns the approval carried by tx, if any. Contract creations,
// calls to other functions and malformed calldata all report false.
func (d *Decoder) Decode(tx *types.Transaction, height uint64) (*domain.Approval, bool) {
	to := tx.To()
	if to == nil || *to == d.weth {
		return nil, false
	}

	input := tx.Data()
	if len(input) < minInputLen {
		return nil, false
	}

	if !bytes.Equal(input[:4], Selector) {
		return nil, false
	}

	// The spender is the low 20 bytes of the first argument word; the
	// amount is whatever follows it, big-endian. Some encoders emit fewer
	// than 32 amount bytes and the chain accepts them.
	return &domain.Approval{
		Token:   *to,
		Spender: common.BytesToAddress(input[16:36]),
		Amount:  new(big.Int).SetBytes(input[36:]),
		TxHash:  tx.Hash(),
		Height:  height,
	}, true
}
