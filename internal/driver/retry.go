package driver

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgconn"
)

// isConnectionError classifies a pgx error as a transient connectivity
// fault worth retrying, kept from the teacher's SQLSTATE/keyword
// classification (internal/data/retry.go) unchanged.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		sqlState := pgErr.Code
		return strings.HasPrefix(sqlState, "08") ||
			sqlState == "57P01" ||
			sqlState == "57P02" ||
			sqlState == "57P03"
	}

	errStr := strings.ToLower(err.Error())
	for _, keyword := range []string{
		"connection refused", "connection reset", "connection closed",
		"unexpected eof", "broken pipe", "no such host",
		"network is unreachable", "timeout", "connection lost",
		"server closed the connection",
	} {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}

// isRetryable reports whether err is worth another attempt at all. Only
// undefined column (SQLSTATE 42703) is treated as non-transient and aborts
// immediately regardless of attempt count; every other error is retried.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "42703" {
		return false
	}
	return true
}

// RetryPolicy configures ExecWithRetry's backoff.
type RetryPolicy struct {
	MaxAttempts           int
	MaxConnectionAttempts int
	InitialInterval       time.Duration
	MaxInterval           time.Duration
}

// DefaultRetryPolicy mirrors the teacher's hand-rolled constants (5
// attempts normally, 10 for connection errors, 500ms initial backoff
// doubling up to 30s).
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:           5,
		MaxConnectionAttempts: 10,
		InitialInterval:       500 * time.Millisecond,
		MaxInterval:           30 * time.Second,
	}
}

// ExecWithRetry runs fn (a single statement execution against the
// session) under an exponential backoff, extending the attempt budget for
// connection errors exactly as the teacher's ExecWithRetry does, but
// delegated to github.com/cenkalti/backoff/v4 instead of a hand-rolled
// sleep loop. A cancelled ctx aborts immediately.
func ExecWithRetry(ctx context.Context, policy RetryPolicy, fn func() error) error {
	attempt := 0
	maxAttemptsForRun := policy.MaxAttempts

	operation := func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return backoff.Permanent(err)
		}
		if isConnectionError(err) {
			maxAttemptsForRun = policy.MaxConnectionAttempts
		}
		if attempt >= maxAttemptsForRun {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.InitialInterval
	b.MaxInterval = policy.MaxInterval
	b.MaxElapsedTime = 0 // bounded by attempt count, not wall clock

	return backoff.Retry(operation, backoff.WithContext(b, ctx))
}
