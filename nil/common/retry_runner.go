package common

import (
	"context"
	"time"

	"github.com/NilFoundation/receipts/nil/common/check"
	"github.com/NilFoundation/receipts/nil/common/logging"
	"github.com/rs/zerolog"
)

type RetryConfig struct {
	ShouldRetry func(attemptNumber uint32, err error) bool
	NextDelay   func(attemptNumber uint32) time.Duration
}

// RetryRunner repeats an action until it succeeds, the config gives up or the context is done.
type RetryRunner struct {
	config RetryConfig
	logger zerolog.Logger
}

func NewRetryRunner(config RetryConfig, logger zerolog.Logger) RetryRunner {
	return RetryRunner{
		config: config,
		logger: logger,
	}
}

func (r *RetryRunner) Do(ctx context.Context, action func(ctx context.Context) error) error {
	for attemptNumber := uint32(1); ; attemptNumber++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := action(ctx)
		if err == nil || !r.config.ShouldRetry(attemptNumber, err) {
			return err
		}

		delay := r.config.NextDelay(attemptNumber)
		r.logger.Warn().Err(err).Uint32(logging.FieldAttempt, attemptNumber).Msgf("Operation failed, retrying in %s", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// LimitRetries allows maxAttempts attempts in total.
func LimitRetries(maxAttempts uint32) func(attemptNumber uint32, err error) bool {
	return func(attemptNumber uint32, _ error) bool {
		return attemptNumber < maxAttempts
	}
}

// RetryIf narrows another policy to the errors accepted by match.
func RetryIf(policy func(uint32, error) bool, match func(error) bool) func(uint32, error) bool {
	return func(attemptNumber uint32, err error) bool {
		return match(err) && policy(attemptNumber, err)
	}
}

// ExponentialDelay doubles baseDelay after every attempt, up to maxDelay.
func ExponentialDelay(baseDelay, maxDelay time.Duration) func(attemptNumber uint32) time.Duration {
	check.PanicIfNotf(baseDelay <= maxDelay, "baseDelay %s > maxDelay %s", baseDelay, maxDelay)

	return func(attemptNumber uint32) time.Duration {
		result := baseDelay
		for i := uint32(1); i < attemptNumber && result < maxDelay; i++ {
			result *= 2
		}
		return min(result, maxDelay)
	}
}
