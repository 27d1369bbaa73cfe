// Package holders estimates how widely a token is already distributed.
package holders

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultThreshold is the holder count above which a token is excluded.
const DefaultThreshold = 100

// Estimator approximates the number of distinct holders of a token.
// Estimates are best-effort; implementations resolve failures to a
// documented fallback value instead of returning an error.
type Estimator interface {
	Estimate(ctx context.Context, token common.Address) int
}

// Gate applies the popularity threshold to an estimate.
type Gate struct {
	threshold int
}

// NewGate creates a Gate. Non-positive thresholds fall back to the default.
func NewGate(threshold int) *Gate {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Gate{threshold: threshold}
}

// Exceeds reports whether the estimate disqualifies the token. The bound
// is strict: exactly threshold holders still passes.
func (g *Gate) Exceeds(estimate int) bool {
	return estimate > g.threshold
}
