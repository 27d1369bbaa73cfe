// Package watch drives the block poll loop and per-transaction evaluation.
package watch

import (
	"context"

	"github.com/ethereum/go-ethereum/core/types"

	"approval-watch/internal/evm"
)

// HeadSource reports the chain's current head height.
type HeadSource interface {
	Head(ctx context.Context) (uint64, error)
}

// BlockFetcher fetches a full block, transaction bodies included.
type BlockFetcher interface {
	BlockByNumber(ctx context.Context, height uint64) (*types.Block, error)
}

// PollHeadSource reads the head over plain RPC.
type PollHeadSource struct {
	client *evm.Client
}

var _ HeadSource = (*PollHeadSource)(nil)

// NewPollHeadSource creates a PollHeadSource over an established client.
func NewPollHeadSource(client *evm.Client) *PollHeadSource {
	return &PollHeadSource{client: client}
}

// Head returns the node's current head height.
func (s *PollHeadSource) Head(ctx context.Context) (uint64, error) {
	return s.client.BlockNumber(ctx)
}
