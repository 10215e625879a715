package notification

import (
	"context"
	"log/slog"
)

// Event kinds emitted after a successful money movement.
const (
	KindTransferReceived = "transfer_received"
	KindCashbackAwarded  = "cashback_awarded"
)

// Event describes something a wallet owner should hear about. Amounts are
// minor units.
type Event struct {
	Kind     string
	WalletID string
	Amount   int64
	Currency string
}

// Notifier delivers owner-facing events. Delivery is best-effort and happens
// after commit; a failed notification never rolls back a ledger write.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

// LoggerNotifier writes events to the structured log. Stands in for a real
// push channel in dev and tests.
type LoggerNotifier struct {
	log *slog.Logger
}

// NewLoggerNotifier builds a log-backed notifier.
func NewLoggerNotifier(log *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{log: log}
}

// Notify implements Notifier.
func (n *LoggerNotifier) Notify(ctx context.Context, e Event) {
	n.log.InfoContext(ctx, "notification",
		slog.String("kind", e.Kind),
		slog.String("wallet_id", e.WalletID),
		slog.Int64("amount", e.Amount),
		slog.String("currency", e.Currency),
	)
}
