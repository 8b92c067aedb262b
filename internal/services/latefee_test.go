package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLateFee_AccruesDaily(t *testing.T) {
	assert.Equal(t, 1200.0, LateFee(10, 120, 3000))
}

func TestLateFee_CappedAtMaximum(t *testing.T) {
	// 30 * 120 = 3600, capped at 3000
	assert.Equal(t, 3000.0, LateFee(30, 120, 3000))
	assert.Equal(t, 3000.0, LateFee(365, 120, 3000))
}

func TestLateFee_ZeroDays(t *testing.T) {
	assert.Equal(t, 0.0, LateFee(0, 120, 3000))
	assert.Equal(t, 0.0, LateFee(-5, 120, 3000))
}

func TestLateFee_CustomPolicy(t *testing.T) {
	assert.Equal(t, 250.0, LateFee(5, 50, 1000))
	assert.Equal(t, 1000.0, LateFee(25, 50, 1000))
}

func TestDefaultLateFee(t *testing.T) {
	assert.Equal(t, 1200.0, DefaultLateFee(10))
	assert.Equal(t, 3000.0, DefaultLateFee(30))
	assert.Equal(t, 0.0, DefaultLateFee(0))
}
