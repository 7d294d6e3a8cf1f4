package ratelimit

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrTooManyRequests marks a response the caller should retry after backing off.
var ErrTooManyRequests = errors.New("too many requests")

// Policy controls how rate-limited requests are retried.
type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	Multiplier      float64
	MaxJitter       time.Duration
}

// DefaultPolicy retries up to 5 times starting at 1s, doubling each time,
// with up to half a second of jitter.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     5,
		InitialInterval: time.Second,
		Multiplier:      2,
		MaxJitter:       500 * time.Millisecond,
	}
}

// Retry runs op until it succeeds, returns an error other than
// ErrTooManyRequests, or the policy runs out of attempts. notify, if
// set, is called before each wait.
func Retry(ctx context.Context, p Policy, op func() error, notify func(err error, wait time.Duration)) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Multiplier < 1 {
		p.Multiplier = 1
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.InitialInterval
	exp.Multiplier = p.Multiplier
	exp.RandomizationFactor = 0
	exp.MaxInterval = p.InitialInterval * time.Duration(1<<min(p.MaxAttempts, 16))
	exp.MaxElapsedTime = 0

	var b backoff.BackOff = &jittered{inner: exp, max: p.MaxJitter}
	b = backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1))
	b = backoff.WithContext(b, ctx)

	wrapped := func() error {
		err := op()
		if err == nil || errors.Is(err, ErrTooManyRequests) {
			return err
		}
		return backoff.Permanent(err)
	}
	return backoff.RetryNotify(wrapped, b, notify)
}

// jittered adds a uniform random delay in [0, max) to each backoff.
type jittered struct {
	inner backoff.BackOff
	max   time.Duration
}

func (j *jittered) NextBackOff() time.Duration {
	d := j.inner.NextBackOff()
	if d == backoff.Stop || j.max <= 0 {
		return d
	}
	return d + rand.N(j.max)
}

func (j *jittered) Reset() { j.inner.Reset() }
