package report

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"approval-watch/internal/domain"
)

// DefaultSubject is the subject alerts are published on.
const DefaultSubject = "approvalwatch.alerts"

// NATSReporter publishes alerts as JSON messages for downstream consumers.
type NATSReporter struct {
	conn    *nats.Conn
	subject string
}

var _ Reporter = (*NATSReporter)(nil)

// NewNATSReporter connects to the given NATS URL.
func NewNATSReporter(url, subject string) (*NATSReporter, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATSReporter{conn: conn, subject: subject}, nil
}

// wireAlert is the published message shape. The amount travels as a
// decimal string so consumers are not bound to native integer widths.
type wireAlert struct {
	ID          string `json:"id"`
	Token       string `json:"token"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    uint8  `json:"decimals"`
	Spender     string `json:"spender"`
	RouterLabel string `json:"router_label"`
	Amount      string `json:"amount"`
	TxHash      string `json:"tx_hash"`
	Height      uint64 `json:"height"`
	ObservedAt  int64  `json:"observed_at"`
}

// Report publishes one alert.
func (r *NATSReporter) Report(_ context.Context, alert *domain.Alert) error {
	payload, err := json.Marshal(wireAlert{
		ID:          alert.ID,
		Token:       alert.Token.Hex(),
		Name:        alert.Metadata.Name,
		Symbol:      alert.Metadata.Symbol,
		Decimals:    alert.Metadata.Decimals,
		Spender:     alert.Spender.Hex(),
		RouterLabel: alert.RouterLabel,
		Amount:      alert.Amount.String(),
		TxHash:      alert.TxHash.Hex(),
		Height:      alert.Height,
		ObservedAt:  alert.ObservedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	if err := r.conn.Publish(r.subject, payload); err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}
	return nil
}

// Close drains pending publishes and closes the connection.
func (r *NATSReporter) Close() error {
	return r.conn.Drain()
}
