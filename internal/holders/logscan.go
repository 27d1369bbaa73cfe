package holders

import (
	"context"
	"log"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"approval-watch/internal/evm"
	"approval-watch/internal/observability"
)

// DefaultWindow is how many recent blocks one scan covers.
const DefaultWindow = uint64(20000)

// ChainReader is the node access LogScanEstimator needs.
type ChainReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// LogScanEstimator counts distinct transfer participants over a recent
// block window. Any failure resolves to zero, which keeps the token in the
// pipeline rather than dropping it.
type LogScanEstimator struct {
	reader ChainReader
	window uint64
	logger *log.Logger
}

// NewLogScanEstimator creates a LogScanEstimator. A zero window falls back
// to the default.
func NewLogScanEstimator(reader ChainReader, window uint64, logger *log.Logger) *LogScanEstimator {
	if window == 0 {
		window = DefaultWindow
	}
	if logger == nil {
		logger = log.Default()
	}
	return &LogScanEstimator{
		reader: reader,
		window: window,
		logger: logger,
	}
}

// Estimate counts distinct senders and receivers of the token's Transfer
// events within the scan window.
func (e *LogScanEstimator) Estimate(ctx context.Context, token common.Address) int {
	head, err := e.reader.BlockNumber(ctx)
	if err != nil {
		e.logger.Printf("holder scan head for %s: %v", token.Hex(), err)
		observability.RecordHolderFallback(StrategyLogScan)
		return 0
	}

	from := uint64(0)
	if head > e.window {
		from = head - e.window
	}

	q := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(head),
		Addresses: []common.Address{token},
		Topics:    [][]common.Hash{{evm.TransferTopic}},
	}

	logs, err := e.reader.FilterLogs(ctx, q)
	if err != nil {
		e.logger.Printf("holder scan logs for %s: %v", token.Hex(), err)
		observability.RecordHolderFallback(StrategyLogScan)
		return 0
	}

	seen := make(map[common.Address]struct{})
	for _, entry := range logs {
		// Transfer(address indexed from, address indexed to, uint256 value)
		if len(entry.Topics) < 3 {
			continue
		}
		seen[common.BytesToAddress(entry.Topics[1].Bytes())] = struct{}{}
		seen[common.BytesToAddress(entry.Topics[2].Bytes())] = struct{}{}
	}

	return len(seen)
}
