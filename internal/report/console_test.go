package report

import (
	"bytes"
	"context"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"approval-watch/internal/domain"
)

func sampleAlert() *domain.Alert {
	return &domain.Alert{
		ID:    "abc123",
		Token: common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Metadata: domain.TokenMetadata{
			Token:    common.HexToAddress("0x1111111111111111111111111111111111111111"),
			Name:     "Degen Token",
			Symbol:   "DEGEN",
			Decimals: 6,
		},
		Spender:     common.HexToAddress("0x2222222222222222222222222222222222222222"),
		RouterLabel: "Universal Router",
		Amount:      big.NewInt(1500000),
		TxHash:      common.HexToHash("0xaaaa000000000000000000000000000000000000000000000000000000000001"),
		Height:      12345,
		ObservedAt:  1700000000000,
	}
}

func TestConsoleReporter_Report(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewConsoleReporter(&buf)

	if err := reporter.Report(context.Background(), sampleAlert()); err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	out := buf.String()
	checks := []string{
		"Token: Degen Token (DEGEN)",
		"Address: 0x1111111111111111111111111111111111111111",
		"(block 12345)",
		"Spender: 0x2222222222222222222222222222222222222222 (Universal Router)",
		"Amount:  1500000 (1.5 DEGEN)",
		strings.Repeat("-", 50),
	}
	for _, want := range checks {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestConsoleReporter_ConcurrentReports(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewConsoleReporter(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := reporter.Report(context.Background(), sampleAlert()); err != nil {
				t.Errorf("Report failed: %v", err)
			}
		}()
	}
	wg.Wait()

	// Each alert is one atomic write, so blocks must not interleave.
	if got := strings.Count(buf.String(), "] Token:"); got != 20 {
		t.Errorf("Expected 20 alert blocks, got %d", got)
	}
}

func TestFormatUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   *big.Int
		decimals uint8
		want     string
	}{
		{name: "no decimals", amount: big.NewInt(1000), decimals: 0, want: "1000"},
		{name: "fraction trimmed", amount: big.NewInt(1500000), decimals: 6, want: "1.5"},
		{name: "whole amount", amount: big.NewInt(1000000), decimals: 6, want: "1"},
		{name: "below one unit", amount: big.NewInt(1), decimals: 6, want: "0.000001"},
		{name: "zero", amount: big.NewInt(0), decimals: 18, want: "0"},
		{name: "mixed", amount: big.NewInt(123456789), decimals: 4, want: "12345.6789"},
		{name: "nil amount", amount: nil, decimals: 18, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatUnits(tt.amount, tt.decimals); got != tt.want {
				t.Errorf("formatUnits(%v, %d) = %q, want %q", tt.amount, tt.decimals, got, tt.want)
			}
		})
	}
}
