package services

import (
	"context"
	"time"

	"github.com/rentora/rentora-api/pkg/logger"
)

// ReconciliationEvent is one structured observation emitted during a
// reconciliation run.
type ReconciliationEvent struct {
	Kind         string    `json:"kind"`
	LeaseID      uint      `json:"lease_id"`
	ObligationID uint      `json:"obligation_id,omitempty"`
	Amount       float64   `json:"amount,omitempty"`
	Detail       string    `json:"detail,omitempty"`
	At           time.Time `json:"at"`
}

// Event kinds
const (
	EventDuplicateRemoved  = "duplicate_removed"
	EventDuplicateMerged   = "duplicate_merged"
	EventObligationCreated = "obligation_created"
	EventObligationUpdated = "obligation_updated"
	EventPaymentApplied    = "payment_applied"
	EventOverpayment       = "overpayment_recorded"
	EventItemSkipped       = "item_skipped"
)

// ReconciliationSink receives reconciliation events. Injected into the
// reconciliation service so concurrent runs never contend on shared mutable
// state; implementations must be safe for concurrent use.
type ReconciliationSink interface {
	Emit(ctx context.Context, event ReconciliationEvent)
}

// LogSink writes reconciliation events through the structured logger. It is
// the default sink.
type LogSink struct{}

// NewLogSink creates a logging event sink
func NewLogSink() *LogSink {
	return &LogSink{}
}

func (s *LogSink) Emit(ctx context.Context, event ReconciliationEvent) {
	logger.Info("Reconciliation event",
		"kind", event.Kind,
		"lease_id", event.LeaseID,
		"obligation_id", event.ObligationID,
		"amount", event.Amount,
		"detail", event.Detail,
		"at", event.At,
	)
}
