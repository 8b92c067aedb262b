package services

import "github.com/rentora/rentora-api/internal/models"

// LateFee computes the late-payment fee for a number of days overdue: a
// daily rate capped at a maximum. The cap/rate policy lives only here; the
// schedule synchronizer and the manual payment-entry flow both call it.
func LateFee(daysLate int, dailyRate, cap float64) float64 {
	if daysLate <= 0 {
		return 0
	}
	fee := float64(daysLate) * dailyRate
	if fee > cap {
		return cap
	}
	return fee
}

// DefaultLateFee applies the default policy (120/day capped at 3000)
func DefaultLateFee(daysLate int) float64 {
	return LateFee(daysLate, models.DefaultLateFeeDailyRate, models.DefaultLateFeeCap)
}
