package statemachine

import (
	"context"
	"testing"
	"time"

	"github.com/rentora/rentora-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func TestObligationFSM_PendingToOverdue(t *testing.T) {
	obligation := &models.PaymentObligation{Status: models.ObligationStatusPending}
	fsm := NewObligationFSM(obligation)

	err := fsm.MarkOverdue(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, models.ObligationStatusOverdue, obligation.Status)
}

func TestObligationFSM_SettleFromAnyOutstandingState(t *testing.T) {
	for _, status := range []string{
		models.ObligationStatusPending,
		models.ObligationStatusOverdue,
		models.ObligationStatusPartiallyPaid,
	} {
		obligation := &models.PaymentObligation{Status: status}
		fsm := NewObligationFSM(obligation)

		err := fsm.Settle(context.Background())
		assert.NoError(t, err, status)
		assert.Equal(t, models.ObligationStatusPaid, obligation.Status)
	}
}

func TestObligationFSM_CannotSettleTwice(t *testing.T) {
	obligation := &models.PaymentObligation{Status: models.ObligationStatusPaid}
	fsm := NewObligationFSM(obligation)

	err := fsm.Settle(context.Background())
	assert.Error(t, err)
}

func TestObligationFSM_LegacyCompletedBehavesAsPaid(t *testing.T) {
	obligation := &models.PaymentObligation{Status: models.ObligationStatusCompleted}
	fsm := NewObligationFSM(obligation)

	assert.Equal(t, models.ObligationStatusPaid, fsm.Current())
	assert.Error(t, fsm.Settle(context.Background()))
	assert.Error(t, fsm.ApplyPartial(context.Background()))
}

func TestObligationFSM_PartialFromOverdue(t *testing.T) {
	obligation := &models.PaymentObligation{Status: models.ObligationStatusOverdue}
	fsm := NewObligationFSM(obligation)

	err := fsm.ApplyPartial(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, models.ObligationStatusPartiallyPaid, obligation.Status)
}

func TestObligationFSM_RepeatPartialPayment(t *testing.T) {
	obligation := &models.PaymentObligation{Status: models.ObligationStatusPartiallyPaid}
	fsm := NewObligationFSM(obligation)

	err := fsm.ApplyPartial(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, models.ObligationStatusPartiallyPaid, obligation.Status)

	// A settling payment remains possible afterwards
	err = fsm.Settle(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, models.ObligationStatusPaid, obligation.Status)
}

func TestLeaseFSM_Lifecycle(t *testing.T) {
	start := date(2025, 1, 1)
	end := date(2025, 12, 31)
	lease := &models.Lease{
		Status:      models.LeaseStatusDraft,
		StartDate:   &start,
		EndDate:     &end,
		MonthlyRent: 500,
	}

	fsm := NewLeaseFSM(lease)
	assert.NoError(t, fsm.Activate(context.Background()))
	assert.Equal(t, models.LeaseStatusActive, lease.Status)
	assert.True(t, lease.Active)

	fsm = NewLeaseFSM(lease)
	assert.NoError(t, fsm.Close(context.Background()))
	assert.Equal(t, models.LeaseStatusClosed, lease.Status)
	assert.False(t, lease.Active)
}

func TestLeaseFSM_CannotActivateWithoutDates(t *testing.T) {
	lease := &models.Lease{Status: models.LeaseStatusDraft, MonthlyRent: 500}
	fsm := NewLeaseFSM(lease)

	assert.Error(t, fsm.Activate(context.Background()))
	assert.Equal(t, models.LeaseStatusDraft, lease.Status)
}
