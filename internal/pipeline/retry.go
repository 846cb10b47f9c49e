package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/dgallion1/puzzlegest/internal/extract"
)

// MaxRetries is the attempt limit for one model call.
const MaxRetries = 3

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *extract.RetryableError
	return errors.As(err, &retryErr)
}

// withRetry runs fn with jittered exponential backoff starting at base and
// capped at 30s. Only retryable errors are retried.
func withRetry(ctx context.Context, log *slog.Logger, base time.Duration, fn func() error) error {
	if base <= 0 {
		base = time.Second
	}
	jitter := base / 2
	if jitter <= 0 {
		jitter = 1
	}
	return retry.Do(fn,
		retry.Context(ctx),
		retry.Attempts(MaxRetries),
		retry.RetryIf(IsRetryable),
		retry.Delay(base),
		retry.MaxDelay(30*time.Second),
		retry.MaxJitter(jitter),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("retryable extraction error", "attempt", n+1, "error", err)
		}),
	)
}
