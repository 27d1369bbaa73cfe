package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Approval is a decoded ERC-20 approve(spender, amount) call.
type Approval struct {
	Token   common.Address // transaction destination, the token contract
	Spender common.Address // address word of the payload
	Amount  *big.Int       // big-endian unsigned integer over the payload tail
	TxHash  common.Hash    // transaction hash
	Height  uint64         // block height the transaction was observed at
}
