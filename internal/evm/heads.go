package evm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/websocket"

	"approval-watch/internal/observability"
)

// ErrNoHead is returned by Head before the first newHeads notification
// has arrived.
var ErrNoHead = errors.New("no head observed yet")

// WSConfig configures the newHeads subscription.
type WSConfig struct {
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the backoff between reconnect attempts.
	MaxReconnectDelay time.Duration
	// ReadTimeout bounds one read. Heads arrive every block, so a stalled
	// connection is indistinguishable from a dead one past this.
	ReadTimeout time.Duration
	// WriteTimeout bounds the subscribe write.
	WriteTimeout time.Duration
}

// DefaultWSConfig returns default subscription configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// WSHeadSource tracks the chain head over a newHeads WebSocket
// subscription. The poll loop reads the latest height through Head, so a
// dropped connection degrades to a stale head rather than an error in the
// hot path.
type WSHeadSource struct {
	endpoint string
	config   WSConfig
	logger   *log.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	latest atomic.Uint64
}

// NewWSHeadSource creates a head source for the given WebSocket endpoint.
// Nothing is dialed until Start.
func NewWSHeadSource(endpoint string, config *WSConfig, logger *log.Logger) *WSHeadSource {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	if logger == nil {
		logger = log.Default()
	}
	return &WSHeadSource{
		endpoint: endpoint,
		config:   cfg,
		logger:   logger,
	}
}

// Head returns the most recently observed head height.
func (s *WSHeadSource) Head(ctx context.Context) (uint64, error) {
	height := s.latest.Load()
	if height == 0 {
		return 0, ErrNoHead
	}
	return height, nil
}

// Start maintains the subscription until ctx is cancelled, reconnecting
// with exponential backoff. It blocks; run it in its own goroutine.
func (s *WSHeadSource) Start(ctx context.Context) error {
	delay := s.config.ReconnectDelay

	for {
		err := s.subscribe(ctx)
		if err == nil {
			err = s.readHeads(ctx)
			// A completed session resets the backoff.
			delay = s.config.ReconnectDelay
		}

		s.closeConn()

		if ctx.Err() != nil {
			return ctx.Err()
		}

		s.logger.Printf("newHeads subscription lost, reconnecting in %s: %v", delay, err)
		observability.RecordWSReconnect()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > s.config.MaxReconnectDelay {
			delay = s.config.MaxReconnectDelay
		}
	}
}

// subscribe dials the endpoint and sends the newHeads subscribe request.
func (s *WSHeadSource) subscribe(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	req := wsRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "eth_subscribe",
		Params:  []interface{}{"newHeads"},
	}

	conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := conn.WriteJSON(req); err != nil {
		conn.Close()
		return fmt.Errorf("write subscribe: %w", err)
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()
	return nil
}

// readHeads consumes notifications until the connection fails or ctx is
// cancelled.
func (s *WSHeadSource) readHeads(ctx context.Context) error {
	// Unblock the blocking read on cancellation.
	stop := context.AfterFunc(ctx, s.closeConn)
	defer stop()

	for {
		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()
		if conn == nil {
			return ctx.Err()
		}

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read: %w", err)
		}

		s.handleMessage(message)
	}
}

// handleMessage extracts the head number from a notification. Subscription
// confirmations and anything unrecognized are ignored; error responses are
// logged.
func (s *WSHeadSource) handleMessage(message []byte) {
	var notif wsNotification
	if err := json.Unmarshal(message, &notif); err == nil &&
		notif.Method == "eth_subscription" && notif.Params != nil {
		height, err := hexutil.DecodeUint64(notif.Params.Result.Number)
		if err != nil {
			s.logger.Printf("bad head number %q: %v", notif.Params.Result.Number, err)
			return
		}
		s.latest.Store(height)
		return
	}

	var errResp struct {
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(message, &errResp); err == nil && errResp.Error != nil {
		s.logger.Printf("subscription error response: code=%d msg=%s", errResp.Error.Code, errResp.Error.Message)
	}
}

func (s *WSHeadSource) closeConn() {
	s.connMu.Lock()
	if s.conn != nil {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()
}

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type wsNotification struct {
	JSONRPC string                `json:"jsonrpc"`
	Method  string                `json:"method"`
	Params  *wsNotificationParams `json:"params"`
}

type wsNotificationParams struct {
	Subscription string         `json:"subscription"`
	Result       wsHeadsPayload `json:"result"`
}

type wsHeadsPayload struct {
	Number string `json:"number"`
}
