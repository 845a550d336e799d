package retry

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	defaultAttempts = 3
	defaultMaxDelay = 2 * time.Second
	defaultDelay    = 100 * time.Millisecond
)

type RetryConfig struct {
	Attempts uint          `env:"ATTEMPTS"`
	Delay    time.Duration `env:"DELAY"`
	MaxDelay time.Duration `env:"MAX_DELAY"`
	Timeout  time.Duration `env:"TIMEOUT"`
}

// ToRetryOptions builds retry-go options bound to ctx; cancellation stops further attempts.
// Zero attempts means one attempt, never retry-go's unlimited mode.
func (rc *RetryConfig) ToRetryOptions(ctx context.Context) []retry.Option {
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(max(rc.Attempts, 1)),
		retry.MaxDelay(rc.MaxDelay),
		retry.Delay(rc.Delay),
		retry.LastErrorOnly(true),
	}
}

// WithDefaults fills zero fields from def.
func (rc RetryConfig) WithDefaults(def *RetryConfig) RetryConfig {
	if rc.Attempts == 0 {
		rc.Attempts = def.Attempts
	}
	if rc.Delay == 0 {
		rc.Delay = def.Delay
	}
	if rc.MaxDelay == 0 {
		rc.MaxDelay = def.MaxDelay
	}
	if rc.Timeout == 0 {
		rc.Timeout = def.Timeout
	}
	return rc
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		Attempts: defaultAttempts,
		Delay:    defaultDelay,
		MaxDelay: defaultMaxDelay,
	}
}

// SingleAttemptConfig disables retries.
func SingleAttemptConfig() *RetryConfig {
	return &RetryConfig{
		Attempts: 1,
		Delay:    defaultDelay,
		MaxDelay: defaultMaxDelay,
	}
}

// Do runs fn under the policy, optionally bounding each attempt with Timeout.
func Do(ctx context.Context, rc RetryConfig, fn func(ctx context.Context) error, opts ...retry.Option) error {
	options := append(rc.ToRetryOptions(ctx), opts...)
	return retry.Do(func() error {
		attemptCtx := ctx
		if rc.Timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, rc.Timeout)
			defer cancel()
		}
		return fn(attemptCtx)
	}, options...)
}

// DoWithData is Do for functions returning a value.
func DoWithData[T any](ctx context.Context, rc RetryConfig, fn func(ctx context.Context) (T, error), opts ...retry.Option) (T, error) {
	var out T
	err := Do(ctx, rc, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	}, opts...)
	return out, err
}
