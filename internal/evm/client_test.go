package evm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *log.Logger {
	return log.New(os.Stderr, "[test] ", log.LstdFlags)
}

func TestClient_WaitConnected(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("unmarshal request: %v", err)
			return
		}
		if req.Method != "eth_blockNumber" {
			t.Errorf("expected eth_blockNumber, got %s", req.Method)
		}

		// First probes hit a node that is still syncing.
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":"0x64"}`, req.ID)
	}))
	defer server.Close()

	client := NewClient(server.URL, WithDialRetry(10*time.Millisecond), WithLogger(testLogger()))
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.WaitConnected(ctx); err != nil {
		t.Fatalf("WaitConnected: %v", err)
	}
	if calls.Load() < 3 {
		t.Errorf("expected at least 3 probes, got %d", calls.Load())
	}

	head, err := client.BlockNumber(ctx)
	if err != nil {
		t.Fatalf("BlockNumber: %v", err)
	}
	if head != 100 {
		t.Errorf("expected head 100, got %d", head)
	}
}

func TestClient_WaitConnected_ContextCancelled(t *testing.T) {
	// Nothing listens here, so every probe fails until the deadline.
	client := NewClient("http://127.0.0.1:1", WithDialRetry(10*time.Millisecond), WithLogger(testLogger()))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := client.WaitConnected(ctx); err == nil {
		t.Fatal("expected error once the context expired")
	}
}
