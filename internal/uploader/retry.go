package uploader

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/bstardust/photo-atlas/internal/logger"
	"github.com/bstardust/photo-atlas/pkg/s3client"
)

// RetryConfig controls how a failed upload is attempted again
type RetryConfig struct {
	// MaxRetries is the number of attempts after the first one
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns a default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     5,
		InitialBackoff: time.Second,
		MaxBackoff:     time.Minute,
	}
}

// backoff returns the wait before the given retry: the initial backoff
// doubled for each earlier retry, capped at MaxBackoff, with ±20% jitter
func (rc RetryConfig) backoff(retry int) time.Duration {
	d := rc.InitialBackoff
	for i := 1; i < retry && d < rc.MaxBackoff; i++ {
		d *= 2
	}
	if d > rc.MaxBackoff {
		d = rc.MaxBackoff
	}
	jitter := 0.8 + rand.Float64()*0.4
	return time.Duration(float64(d) * jitter)
}

// retryable reports whether a failed upload is worth another attempt
func retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case s3client.IsAuthError(err):
		return false
	}
	return s3client.IsTransient(err)
}

// withRetry calls upload until it succeeds, fails with a permanent error
// or runs out of retries
func (u *Uploader) withRetry(key string, upload func() error) error {
	rc := u.opts.Retry

	var err error
	attempts := 0
	for {
		attempts++
		if err = upload(); err == nil {
			if attempts > 1 {
				logger.Info("Uploaded %s after %d attempts", key, attempts)
			}
			return nil
		}
		if !retryable(err) || attempts > rc.MaxRetries {
			break
		}

		wait := rc.backoff(attempts)
		logger.Debug("Retrying %s in %v: %s", key, wait, s3client.FormatError(err))

		select {
		case <-time.After(wait):
		case <-u.ctx.Done():
			return fmt.Errorf("canceled while retrying: %w", u.ctx.Err())
		}
	}

	if attempts > 1 {
		return fmt.Errorf("gave up after %d attempts: %w", attempts, err)
	}
	return err
}
