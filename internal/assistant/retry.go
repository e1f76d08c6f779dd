package assistant

import (
	"context"
	"strings"
	"time"
)

// IsQuotaError reports whether err comes from an exhausted quota or rate limit.
// Such errors are not retried.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "resource_exhausted") ||
		strings.Contains(msg, "rate limit")
}

// Retry runs op, retrying up to retries more times with a delay that doubles each
// attempt. Quota errors and context cancellation stop immediately.
func Retry[T any](ctx context.Context, retries int, delay time.Duration, op func() (T, error)) (T, error) {
	for {
		result, err := op()
		if err == nil || retries <= 0 || IsQuotaError(err) {
			return result, err
		}

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(delay):
		}
		retries--
		delay *= 2
	}
}
