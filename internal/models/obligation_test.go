package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, ObligationStatusPaid, NormalizeStatus(ObligationStatusCompleted))
	assert.Equal(t, ObligationStatusPaid, NormalizeStatus(ObligationStatusPaid))
	assert.Equal(t, ObligationStatusPending, NormalizeStatus(ObligationStatusPending))
	assert.Equal(t, ObligationStatusOverdue, NormalizeStatus(ObligationStatusOverdue))
}

func TestStatusRank_OrdersMostSettledFirst(t *testing.T) {
	assert.Equal(t, 0, StatusRank(ObligationStatusPaid))
	assert.Equal(t, 0, StatusRank(ObligationStatusCompleted))
	assert.Equal(t, 1, StatusRank(ObligationStatusPartiallyPaid))
	assert.Equal(t, 2, StatusRank(ObligationStatusOverdue))
	assert.Equal(t, 3, StatusRank(ObligationStatusPending))
	assert.Equal(t, 4, StatusRank("garbage"))
}

func TestRecalcBalance(t *testing.T) {
	paid := 200.0
	o := PaymentObligation{Amount: 500, PaidAmount: &paid}
	o.RecalcBalance()
	assert.Equal(t, 300.0, o.Balance)

	// Never negative
	overpaid := 600.0
	o.PaidAmount = &overpaid
	o.RecalcBalance()
	assert.Equal(t, 0.0, o.Balance)

	o.PaidAmount = nil
	o.RecalcBalance()
	assert.Equal(t, 500.0, o.Balance)
}

func TestHasPayment(t *testing.T) {
	o := PaymentObligation{Amount: 500}
	assert.False(t, o.HasPayment())

	zero := 0.0
	o.PaidAmount = &zero
	assert.False(t, o.HasPayment())

	paid := 100.0
	o.PaidAmount = &paid
	assert.True(t, o.HasPayment())
}

func TestIsOutstanding(t *testing.T) {
	for _, status := range []string{ObligationStatusPending, ObligationStatusOverdue, ObligationStatusPartiallyPaid} {
		o := PaymentObligation{Status: status}
		assert.True(t, o.IsOutstanding(), status)
	}
	for _, status := range []string{ObligationStatusPaid, ObligationStatusCompleted} {
		o := PaymentObligation{Status: status}
		assert.False(t, o.IsOutstanding(), status)
	}
}

func TestOverdueDaysAt(t *testing.T) {
	due := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	o := PaymentObligation{DueDate: &due}

	assert.Equal(t, 10, o.OverdueDaysAt(time.Date(2025, time.April, 11, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, o.OverdueDaysAt(time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, o.OverdueDaysAt(time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC)))

	o.DueDate = nil
	assert.Equal(t, 0, o.OverdueDaysAt(time.Date(2025, time.April, 11, 0, 0, 0, 0, time.UTC)))
}

func TestMonthKey(t *testing.T) {
	due := time.Date(2025, time.February, 15, 0, 0, 0, 0, time.UTC)
	o := PaymentObligation{DueDate: &due}

	year, month, ok := o.MonthKey()
	assert.True(t, ok)
	assert.Equal(t, 2025, year)
	assert.Equal(t, time.February, month)

	o.DueDate = nil
	_, _, ok = o.MonthKey()
	assert.False(t, ok)
}

func TestToResponse_NormalizesLegacyStatus(t *testing.T) {
	o := PaymentObligation{ID: 1, Amount: 500, Status: ObligationStatusCompleted}
	resp := o.ToResponse()
	assert.Equal(t, ObligationStatusPaid, resp.Status)
}
