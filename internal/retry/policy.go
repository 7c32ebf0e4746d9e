// Package retry decides when a failed file operation is worth repeating and
// how long to wait before doing so.
package retry

import (
	"context"
	"crypto/rand"
	"errors"
	"io/fs"
	"math"
	"math/big"
	"net"
	"syscall"
	"time"
)

// Policy decides whether and when to retry.
type Policy interface {
	ShouldRetry(err error, attempt int) bool
	Backoff(attempt int) time.Duration
}

// ExponentialPolicy implements Policy with jittered exponential backoff.
type ExponentialPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

// NewExponentialPolicy builds a policy suited to local file reads: a few quick
// attempts, never waiting more than half a second.
func NewExponentialPolicy() *ExponentialPolicy {
	return &ExponentialPolicy{
		maxAttempts: 3,
		baseDelay:   25 * time.Millisecond,
		maxDelay:    500 * time.Millisecond,
	}
}

// NewExponentialPolicyWith builds a policy with explicit limits.
func NewExponentialPolicyWith(maxAttempts int, baseDelay, maxDelay time.Duration) *ExponentialPolicy {
	return &ExponentialPolicy{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		maxDelay:    maxDelay,
	}
}

// ShouldRetry reports whether err after the given attempt (1-based) is transient.
// Missing files, permission problems and directories are permanent.
func (p *ExponentialPolicy) ShouldRetry(err error, attempt int) bool {
	if err == nil {
		return false
	}
	if attempt >= p.maxAttempts {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) ||
		errors.Is(err, fs.ErrInvalid) || errors.Is(err, fs.ErrClosed) ||
		errors.Is(err, syscall.EISDIR) {
		return false
	}
	if errors.Is(err, syscall.EINTR) || errors.Is(err, syscall.EAGAIN) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return true
}

// Backoff returns the wait duration before the next attempt.
func (p *ExponentialPolicy) Backoff(attempt int) time.Duration {
	delay := float64(p.baseDelay) * math.Pow(2, float64(attempt))
	if delay > float64(p.maxDelay) {
		delay = float64(p.maxDelay)
	}
	jitter := p.randomJitter(time.Duration(delay) / 2)
	return time.Duration(delay/2) + jitter
}

func (p *ExponentialPolicy) randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	bound := big.NewInt(int64(limit))
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}
