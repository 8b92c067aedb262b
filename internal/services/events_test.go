package services

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/rentora/rentora-api/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func TestLogSink_EmitsEventFields(t *testing.T) {
	var buf bytes.Buffer
	previous := logger.Log
	logger.Log = slog.New(slog.NewTextHandler(&buf, nil))
	defer func() { logger.Log = previous }()

	NewLogSink().Emit(context.Background(), ReconciliationEvent{
		Kind:         EventPaymentApplied,
		LeaseID:      7,
		ObligationID: 42,
		Amount:       250,
		At:           date(2025, time.April, 10),
	})

	out := buf.String()
	assert.Contains(t, out, "kind=payment_applied")
	assert.Contains(t, out, "lease_id=7")
	assert.Contains(t, out, "obligation_id=42")
	assert.Contains(t, out, "at=2025-04-10")
}
