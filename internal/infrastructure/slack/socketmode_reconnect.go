package slack

import (
	"math"
	"math/rand"
	"time"
)

// ReconnectionConfig holds configuration for reconnection logic.
type ReconnectionConfig struct {
	InitialBackoff    time.Duration // Initial backoff delay (default: 500ms)
	MaxBackoff        time.Duration // Maximum backoff delay (default: 60s)
	BackoffMultiplier float64       // Backoff multiplier (default: 1.5)
	JitterFactor      float64       // Random jitter factor (default: 0.2)
	MaxRetries        int           // Consecutive failures before the circuit breaker opens (default: 5)
}

// DefaultReconnectionConfig returns default reconnection configuration.
func DefaultReconnectionConfig() ReconnectionConfig {
	return ReconnectionConfig{
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        60 * time.Second,
		BackoffMultiplier: 1.5,
		JitterFactor:      0.2,
		MaxRetries:        5,
	}
}

// CalculateBackoff returns the delay before reconnection attempt number attempt
// (zero-based): exponential growth with jitter, capped at MaxBackoff.
func CalculateBackoff(cfg ReconnectionConfig, attempt int) time.Duration {
	backoff := float64(cfg.InitialBackoff) * math.Pow(cfg.BackoffMultiplier, float64(attempt))

	if cfg.JitterFactor > 0 {
		backoff *= 1.0 + (rand.Float64()*2.0-1.0)*cfg.JitterFactor
	}

	if backoff > float64(cfg.MaxBackoff) {
		backoff = float64(cfg.MaxBackoff)
	}

	return time.Duration(backoff)
}
