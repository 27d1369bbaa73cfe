package report

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"
	"sync"
	"time"

	"approval-watch/internal/domain"
)

// ConsoleReporter writes human-readable alert blocks to a writer.
type ConsoleReporter struct {
	mu sync.Mutex
	w  io.Writer
}

var _ Reporter = (*ConsoleReporter)(nil)

// NewConsoleReporter creates a ConsoleReporter. A nil writer falls back to
// stdout.
func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleReporter{w: w}
}

// Report writes one alert block. The lock keeps blocks from interleaving
// when evaluators report concurrently.
func (r *ConsoleReporter) Report(_ context.Context, alert *domain.Alert) error {
	var sb strings.Builder

	ts := time.UnixMilli(alert.ObservedAt).Format("15:04:05")
	sb.WriteString(fmt.Sprintf("[%s] Token: %s (%s)\n", ts, alert.Metadata.Name, alert.Metadata.Symbol))
	sb.WriteString(fmt.Sprintf("  Address: %s\n", alert.Token.Hex()))
	sb.WriteString(fmt.Sprintf("  Tx:      %s (block %d)\n", alert.TxHash.Hex(), alert.Height))
	sb.WriteString(fmt.Sprintf("  Spender: %s (%s)\n", alert.Spender.Hex(), alert.RouterLabel))
	sb.WriteString(fmt.Sprintf("  Amount:  %s (%s %s)\n", alert.Amount.String(),
		formatUnits(alert.Amount, alert.Metadata.Decimals), alert.Metadata.Symbol))
	sb.WriteString(strings.Repeat("-", 50))
	sb.WriteByte('\n')

	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := io.WriteString(r.w, sb.String())
	return err
}

// formatUnits renders a raw amount shifted by the token's decimals,
// trimming trailing fractional zeros.
func formatUnits(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	s := amount.String()
	if decimals == 0 {
		return s
	}

	d := int(decimals)
	if len(s) <= d {
		s = strings.Repeat("0", d-len(s)+1) + s
	}

	cut := len(s) - d
	whole, frac := s[:cut], strings.TrimRight(s[cut:], "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}
