package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

type RetryPolicy interface {
	Execute(func() error) error
	ExecuteContext(ctx context.Context, fn func(context.Context) error) error
}

type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	// OnRetry, when set, is called before each wait with the failed attempt
	// number and its error.
	OnRetry func(attempt int, err error)
}

func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
	}
}

// Policy runs a function until it succeeds, fails permanently, runs out of
// attempts or its context ends.
type Policy struct {
	config *Config
	delay  func(attempt int) time.Duration
}

// NewExponentialBackoff waits BaseDelay*Multiplier^(n-1), capped at MaxDelay.
// A nil config uses DefaultConfig.
func NewExponentialBackoff(config *Config) *Policy {
	p := newPolicy(config)
	p.delay = p.exponentialDelay
	return p
}

// NewFixedDelay waits BaseDelay between every attempt.
func NewFixedDelay(config *Config) *Policy {
	p := newPolicy(config)
	p.delay = func(int) time.Duration { return p.config.BaseDelay }
	return p
}

func newPolicy(config *Config) *Policy {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	return &Policy{config: config}
}

func (p *Policy) exponentialDelay(attempt int) time.Duration {
	d := float64(p.config.BaseDelay) * math.Pow(p.config.Multiplier, float64(attempt-1))
	if limit := float64(p.config.MaxDelay); p.config.MaxDelay > 0 && d > limit {
		d = limit
	}
	return time.Duration(d)
}

func (p *Policy) Execute(fn func() error) error {
	return p.ExecuteContext(context.Background(), func(context.Context) error { return fn() })
}

func (p *Policy) ExecuteContext(ctx context.Context, fn func(context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= p.config.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == p.config.MaxAttempts {
			break
		}
		if !IsRetryable(err) {
			return err
		}

		if p.config.OnRetry != nil {
			p.config.OnRetry(attempt, err)
		}

		timer := time.NewTimer(p.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted after %d attempts: %w", attempt, errors.Join(ctx.Err(), lastErr))
		case <-timer.C:
		}
	}

	return &MaxRetriesExceededError{
		LastError:   lastErr,
		MaxAttempts: p.config.MaxAttempts,
	}
}

type MaxRetriesExceededError struct {
	LastError   error
	MaxAttempts int
}

func (e *MaxRetriesExceededError) Error() string {
	return fmt.Sprintf("max retries exceeded after %d attempts: %v", e.MaxAttempts, e.LastError)
}

func (e *MaxRetriesExceededError) Unwrap() error {
	return e.LastError
}

func IsMaxRetriesExceeded(err error) bool {
	var maxRetriesErr *MaxRetriesExceededError
	return errors.As(err, &maxRetriesErr)
}
