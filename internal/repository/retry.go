package repository

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Default retry policy for store calls: 3 attempts, exponential backoff,
// bounded per-attempt timeout. Applied to transient transport failures only,
// never to business-rule violations.
const (
	DefaultRetryAttempts = 3
	DefaultRetryBackoff  = 100 * time.Millisecond
	DefaultCallTimeout   = 5 * time.Second
)

// WithRetry runs fn up to attempts times with exponential backoff, stopping
// early on success, on a non-transient error, or when ctx is done. Each
// attempt gets its own bounded timeout.
func WithRetry(ctx context.Context, attempts int, backoff time.Duration, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := backoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, DefaultCallTimeout)
		err = fn(attemptCtx)
		cancel()

		if err == nil || !IsTransient(err) {
			return err
		}
	}
	return err
}

// IsTransient reports whether an error looks like a transient transport
// failure worth retrying. Record-level and constraint errors are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrRecordNotFound) ||
		errors.Is(err, gorm.ErrDuplicatedKey) ||
		errors.Is(err, gorm.ErrForeignKeyViolated) ||
		errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	// Driver errors that don't implement net.Error but describe the transport
	msg := err.Error()
	for _, fragment := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"bad connection",
		"i/o timeout",
	} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}
