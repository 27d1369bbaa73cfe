package watch

import (
	"context"
	"errors"
	"log"
	"math/big"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
)

func testLogger() *log.Logger {
	return log.New(os.Stderr, "[test] ", log.LstdFlags)
}

func makeTxs(n int) types.Transactions {
	to := common.HexToAddress("0x1111111111111111111111111111111111111111")
	txs := make(types.Transactions, 0, n)
	for i := 0; i < n; i++ {
		txs = append(txs, types.NewTx(&types.LegacyTx{
			Nonce:    uint64(i),
			GasPrice: big.NewInt(1),
			Gas:      21000,
			To:       &to,
		}))
	}
	return txs
}

func TestDispatcher_EvaluatesAllTransactions(t *testing.T) {
	dispatcher := NewDispatcher(4, testLogger())

	var evaluated atomic.Int32
	eval := func(_ context.Context, height uint64, _ *types.Transaction) error {
		assert.Equal(t, uint64(77), height)
		evaluated.Add(1)
		return nil
	}

	dispatcher.Dispatch(context.Background(), 77, makeTxs(9), eval)

	assert.Equal(t, int32(9), evaluated.Load(), "every transaction should be evaluated")
}

func TestDispatcher_BoundedConcurrency(t *testing.T) {
	dispatcher := NewDispatcher(2, testLogger())

	var current, max atomic.Int32
	eval := func(_ context.Context, _ uint64, _ *types.Transaction) error {
		n := current.Add(1)
		for {
			m := max.Load()
			if n <= m || max.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		current.Add(-1)
		return nil
	}

	dispatcher.Dispatch(context.Background(), 1, makeTxs(8), eval)

	assert.LessOrEqual(t, max.Load(), int32(2), "no more than two evaluations should run at once")
}

func TestDispatcher_PanicIsolation(t *testing.T) {
	dispatcher := NewDispatcher(3, testLogger())

	var completed atomic.Int32
	eval := func(_ context.Context, _ uint64, tx *types.Transaction) error {
		if tx.Nonce() == 2 {
			panic("corrupt calldata")
		}
		completed.Add(1)
		return nil
	}

	// Must not propagate the panic and must still finish the batch.
	dispatcher.Dispatch(context.Background(), 1, makeTxs(5), eval)

	assert.Equal(t, int32(4), completed.Load(), "remaining transactions should complete")
}

func TestDispatcher_ErrorIsolation(t *testing.T) {
	dispatcher := NewDispatcher(3, testLogger())

	var mu sync.Mutex
	var seen []uint64
	eval := func(_ context.Context, _ uint64, tx *types.Transaction) error {
		mu.Lock()
		seen = append(seen, tx.Nonce())
		mu.Unlock()
		if tx.Nonce()%2 == 0 {
			return errors.New("transient failure")
		}
		return nil
	}

	dispatcher.Dispatch(context.Background(), 1, makeTxs(6), eval)

	assert.Len(t, seen, 6, "failures must not starve other transactions")
}

func TestDispatcher_EmptyBlock(t *testing.T) {
	dispatcher := NewDispatcher(0, testLogger())

	var evaluated atomic.Int32
	dispatcher.Dispatch(context.Background(), 1, nil, func(_ context.Context, _ uint64, _ *types.Transaction) error {
		evaluated.Add(1)
		return nil
	})

	assert.Zero(t, evaluated.Load())
}
