package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/mentorconnect/mentorconnect-api/pkg/logger"
	"go.uber.org/zap"
)

// Config controls exponential backoff. MaxRetries counts attempts after the
// first one, so fn runs at most MaxRetries+1 times.
type Config struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// Jitter spreads each delay by +/-25%
	Jitter bool
	// RetryableErrors decides whether err deserves another attempt; nil retries everything
	RetryableErrors func(error) bool
}

// DefaultConfig returns sensible retry defaults
func DefaultConfig() Config {
	return Config{
		MaxRetries:   3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// ListenerConfig is used when re-establishing the change feed connection
func ListenerConfig() Config {
	config := DefaultConfig()
	config.MaxRetries = 8
	config.InitialDelay = 250 * time.Millisecond
	config.MaxDelay = 15 * time.Second
	return config
}

// StorageConfig is used for object storage uploads
func StorageConfig() Config {
	config := DefaultConfig()
	config.MaxRetries = 3
	config.InitialDelay = 200 * time.Millisecond
	config.MaxDelay = 5 * time.Second
	config.RetryableErrors = IsRetryable
	return config
}

// SearchConfig is used for search index writes
func SearchConfig() Config {
	config := DefaultConfig()
	config.MaxRetries = 2
	config.InitialDelay = 300 * time.Millisecond
	config.MaxDelay = 2 * time.Second
	config.RetryableErrors = IsRetryable
	return config
}

// Do runs fn until it succeeds, returns a non-retryable error, or the
// attempts run out.
func Do(ctx context.Context, config Config, operation string, fn func() error) error {
	_, err := DoWithResult(ctx, config, operation, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// DoWithResult is Do for operations that produce a value
func DoWithResult[T any](ctx context.Context, config Config, operation string, fn func() (T, error)) (T, error) {
	var zero T
	log := logger.With(zap.String("operation", operation))

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		res, err := fn()
		if err == nil {
			if attempt > 0 {
				log.Info("Operation succeeded after retry", zap.Int("attempt", attempt))
			}
			return res, nil
		}

		if config.RetryableErrors != nil && !config.RetryableErrors(err) {
			log.Warn("Non-retryable error encountered", zap.Error(err))
			return zero, err
		}
		if attempt >= config.MaxRetries {
			log.Error("Operation failed after all retries",
				zap.Int("max_retries", config.MaxRetries), zap.Error(err))
			return zero, fmt.Errorf("operation failed after %d retries: %w", config.MaxRetries, err)
		}

		delay := calculateDelay(attempt, config)
		log.Warn("Operation failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", config.MaxRetries),
			zap.Duration("delay", delay),
			zap.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

// calculateDelay returns InitialDelay * Multiplier^attempt capped at MaxDelay
func calculateDelay(attempt int, config Config) time.Duration {
	delay := math.Min(
		float64(config.InitialDelay)*math.Pow(config.Multiplier, float64(attempt)),
		float64(config.MaxDelay),
	)
	if config.Jitter {
		//nolint:gosec // G404: jitter does not need crypto/rand
		delay += delay * 0.25 * (rand.Float64()*2 - 1)
	}
	return time.Duration(delay)
}

// IsRetryable reports whether an error is worth another attempt.
// Context cancellation and deadline errors are final.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
