// Package evm wraps JSON-RPC access to an EVM chain node.
package evm

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// DefaultDialRetry is the pause between connection attempts while the node
// is unreachable.
const DefaultDialRetry = 5 * time.Second

// Client is a thin wrapper over ethclient. Retry policy for steady-state
// polling lives in the caller; the client only retries the initial dial.
type Client struct {
	endpoint  string
	eth       *ethclient.Client
	dialRetry time.Duration
	logger    *log.Logger
}

// Option configures Client.
type Option func(*Client)

// WithDialRetry sets the pause between initial connection attempts.
func WithDialRetry(d time.Duration) Option {
	return func(c *Client) {
		c.dialRetry = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the given RPC endpoint. No connection is
// made until WaitConnected.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:  endpoint,
		dialRetry: DefaultDialRetry,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WaitConnected dials the endpoint and probes it with a head request,
// retrying until both succeed or ctx is cancelled. The process is not
// useful without a node, so there is no attempt cap.
func (c *Client) WaitConnected(ctx context.Context) error {
	for {
		eth, err := ethclient.DialContext(ctx, c.endpoint)
		if err == nil {
			if _, err = eth.BlockNumber(ctx); err == nil {
				c.eth = eth
				return nil
			}
			eth.Close()
		}

		c.logger.Printf("node unreachable, retrying in %s: %v", c.dialRetry, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.dialRetry):
		}
	}
}

// BlockNumber returns the current head height.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	height, err := c.eth.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("block number: %w", err)
	}
	return height, nil
}

// BlockByNumber fetches the full block at the given height, including
// transaction bodies.
func (c *Client) BlockByNumber(ctx context.Context, height uint64) (*types.Block, error) {
	block, err := c.eth.BlockByNumber(ctx, new(big.Int).SetUint64(height))
	if err != nil {
		return nil, fmt.Errorf("block %d: %w", height, err)
	}
	return block, nil
}

// CallContract executes a read-only call against the latest state.
func (c *Client) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	msg := ethereum.CallMsg{
		To:   &to,
		Data: data,
	}
	out, err := c.eth.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", to.Hex(), err)
	}
	return out, nil
}

// FilterLogs runs a log filter query against the node.
func (c *Client) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	logs, err := c.eth.FilterLogs(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("filter logs: %w", err)
	}
	return logs, nil
}

// Close releases the underlying connection.
func (c *Client) Close() {
	if c.eth != nil {
		c.eth.Close()
	}
}
