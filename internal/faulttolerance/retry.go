// Package faulttolerance provides bounded fixed-delay retry execution for
// pull-based collaborators (reference data, instrument list).
package faulttolerance

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// RetryConfig holds configuration for a retry loop.
type RetryConfig struct {
	MaxAttempts int           // Maximum number of attempts
	Delay       time.Duration // Fixed delay between attempts
	Name        string        // Name for logging
}

// DefaultRetryConfig returns the defaults used by reference-data fetches.
func DefaultRetryConfig(name string) RetryConfig {
	return RetryConfig{
		MaxAttempts: 10,
		Delay:       1 * time.Second,
		Name:        name,
	}
}

// RetryableFunc is a function that can be retried.
type RetryableFunc func() error

// Retryer executes functions with a fixed delay between attempts.
type Retryer struct {
	config RetryConfig
	logger *logrus.Logger
}

// NewRetryer creates a new retryer, filling unset config fields.
func NewRetryer(config RetryConfig, logger *logrus.Logger) *Retryer {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.Delay <= 0 {
		config.Delay = 1 * time.Second
	}
	if config.Name == "" {
		config.Name = "Retryer"
	}
	return &Retryer{config: config, logger: logger}
}

// Execute runs fn until it succeeds, the attempt budget is exhausted, or the
// context is cancelled.
func (r *Retryer) Execute(ctx context.Context, fn RetryableFunc) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			if attempt > 1 {
				r.logger.Infof("[%s] Operation succeeded on attempt %d", r.config.Name, attempt)
			}
			return nil
		}
		lastErr = err

		if attempt == r.config.MaxAttempts {
			r.logger.Errorf("[%s] All %d attempts failed, last error: %v", r.config.Name, attempt, err)
			break
		}

		r.logger.Warnf("[%s] Attempt %d failed: %v. Retrying in %v...", r.config.Name, attempt, err, r.config.Delay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.config.Delay):
		}
	}

	return fmt.Errorf("max retry attempts (%d) exceeded: %w", r.config.MaxAttempts, lastErr)
}
