package bridge

import (
	"context"
	"math"
	"math/rand"
	"time"

	domainerrors "github.com/qj0r9j0vc2/modlog-bridge/internal/domain/errors"
)

// RetryPolicy defines the retry behavior for failed chat posts.
type RetryPolicy struct {
	MaxAttempts     int           // Maximum number of attempts (including first try)
	InitialInterval time.Duration // Initial backoff interval
	MaxInterval     time.Duration // Maximum backoff interval
	Multiplier      float64       // Backoff multiplier
	JitterFactor    float64       // Random jitter factor (0.0-1.0)
}

// DefaultRetryPolicy returns the policy used for replies.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.1,
	}
}

// RetryablePoster wraps a ChatPoster and retries transient failures.
type RetryablePoster struct {
	poster ChatPoster
	policy RetryPolicy
	logger Logger
}

// NewRetryablePoster creates a RetryablePoster with the given policy.
func NewRetryablePoster(poster ChatPoster, policy RetryPolicy, logger Logger) *RetryablePoster {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &RetryablePoster{
		poster: poster,
		policy: policy,
		logger: logger,
	}
}

// PostMessage posts text, retrying with backoff while the error is transient.
func (r *RetryablePoster) PostMessage(ctx context.Context, channelID, text string) error {
	var lastErr error

	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		lastErr = r.poster.PostMessage(ctx, channelID, text)
		if lastErr == nil {
			if attempt > 1 {
				r.logger.Info("Post succeeded after retry",
					"channel_id", channelID,
					"attempt", attempt,
				)
			}
			return nil
		}

		if !domainerrors.IsTransientError(lastErr) {
			return lastErr
		}

		if attempt == r.policy.MaxAttempts {
			r.logger.Error("Post failed after max retries",
				"channel_id", channelID,
				"attempts", attempt,
				"error", lastErr,
			)
			break
		}

		backoff := r.calculateBackoff(attempt)
		r.logger.Warn("Post failed, retrying",
			"channel_id", channelID,
			"attempt", attempt,
			"backoff", backoff,
			"error", lastErr,
		)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return lastErr
}

// calculateBackoff returns min(InitialInterval * Multiplier^(attempt-1) * (1 ± jitter), MaxInterval).
func (r *RetryablePoster) calculateBackoff(attempt int) time.Duration {
	backoff := float64(r.policy.InitialInterval) * math.Pow(r.policy.Multiplier, float64(attempt-1))

	jitter := 1.0 + (rand.Float64()*2.0-1.0)*r.policy.JitterFactor
	backoff *= jitter

	if backoff > float64(r.policy.MaxInterval) {
		backoff = float64(r.policy.MaxInterval)
	}

	return time.Duration(backoff)
}
