package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// DefaultConfig returns conservative defaults for backoff retries.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = d.BaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = d.MaxDelay
	}
	if c.Multiplier < 1 {
		c.Multiplier = d.Multiplier
	}
	return c
}

// Delay is the wait before the attempt following the given one (1-based).
func (c Config) Delay(attempt int) time.Duration {
	c = c.withDefaults()

	delay := float64(c.BaseDelay)
	for i := 1; i < attempt; i++ {
		delay *= c.Multiplier
		if delay >= float64(c.MaxDelay) {
			return c.MaxDelay
		}
	}
	return time.Duration(delay)
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying; Do returns it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// ExhaustedError is returned once every attempt has failed.
type ExhaustedError struct {
	Attempts  int
	LastError error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.LastError)
}

func (e *ExhaustedError) Unwrap() error {
	return e.LastError
}

// Do calls fn until it succeeds, returns a Permanent error, the attempts run
// out, or ctx is done. Waits between attempts grow exponentially.
func Do(ctx context.Context, config Config, fn func(ctx context.Context, attempt int) error) error {
	config = config.withDefaults()

	var lastErr error
	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return nil
		}

		var permanent *permanentError
		if errors.As(lastErr, &permanent) {
			return permanent.err
		}

		if attempt == config.MaxAttempts {
			break
		}

		timer := time.NewTimer(config.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return &ExhaustedError{Attempts: config.MaxAttempts, LastError: lastErr}
}
