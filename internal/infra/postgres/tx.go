package postgres

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"fleet-match/internal/infra"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgErrCodeSerializationFailure = "40001"
	pgErrCodeDeadlockDetected     = "40P01"
)

// RetryPolicy bounds the backoff applied to retryable transaction failures.
// This is the only retry loop in the system; business-level race losses
// (AlreadyMatched, Expired) are never retried here.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// NextDelay returns the delay for a given attempt (1-based) with clamping.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = 100 * time.Millisecond
	}
	if r.BackoffFactor <= 0 {
		r.BackoffFactor = 2
	}

	delay := float64(r.InitialDelay) * math.Pow(r.BackoffFactor, float64(attempt-1))
	d := time.Duration(delay)
	if r.MaxDelay > 0 && d > r.MaxDelay {
		d = r.MaxDelay
	}
	if d <= 0 {
		d = r.InitialDelay
	}
	return d
}

func runInTx(ctx context.Context, pool *pgxpool.Pool, policy RetryPolicy, logger *slog.Logger, fn func(tx pgx.Tx) error) error {
	for attempt := 0; ; attempt++ {
		err := runOnce(ctx, pool, fn)
		if err == nil {
			return nil
		}
		if !isRetryableError(err) {
			return err
		}
		if attempt >= policy.MaxRetries {
			logger.Error("transaction failed after max retries", "attempts", attempt+1, "error", err)
			return infra.WrapRepoErr(infra.KindUnavailable, "transaction failed after max retries", err)
		}

		wait := policy.NextDelay(attempt + 1)
		logger.Warn("retrying transaction", "attempt", attempt+1, "wait", wait.String(), "error", err)
		select {
		case <-ctx.Done():
			return infra.WrapRepoErr(infra.KindUnavailable, "context cancelled during retry", ctx.Err())
		case <-time.After(wait):
		}
	}
}

func runOnce(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return infra.WrapRepoErr(infra.KindUnavailable, "failed to begin transaction", err)
	}

	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			slog.Warn("failed to rollback transaction", "error", rollbackErr)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return infra.WrapRepoErr(infra.KindDBFailure, "failed to commit transaction", err)
	}
	return nil
}

// PostgreSQL error codes for retryable conditions:
// 40001: serialization_failure
// 40P01: deadlock_detected
func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgErrCodeSerializationFailure, pgErrCodeDeadlockDetected:
		return true
	default:
		return false
	}
}
