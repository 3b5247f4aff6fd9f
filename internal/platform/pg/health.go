package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"bizflow/internal/shared"
	"bizflow/pkg/retry"
)

// uniqueViolation - SQLSTATE нарушения уникальности.
const uniqueViolation = "23505"

// Ping проверяет пул запросом SELECT 1.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return errors.New("pg: pool is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var one int
	if err := pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("pg ping: %w", err)
	}
	return nil
}

// WaitForDB ждёт, пока база начнёт отвечать, с экспоненциальной задержкой.
func WaitForDB(ctx context.Context, dsn string, attempts int) error {
	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = attempts
	cfg.InitialDelay = time.Second
	cfg.MaxDelay = 30 * time.Second

	return retry.DoWithRetryable(ctx, cfg, func(ctx context.Context) error {
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return err
		}
		defer pool.Close()
		return Ping(ctx, pool)
	}, func(err error) bool { return !shared.IsCanceled(err) })
}

// Classify помечает ошибку pgx видом из shared:
// pgx.ErrNoRows -> NotFound, 23505 -> Conflict, остальное -> DependencyFailure.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.MarkKind(err, shared.KindNotFound)
	}
	if shared.IsCanceled(err) || shared.IsTimeout(err) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return shared.MarkKind(err, shared.KindConflict)
	}
	return shared.MarkKind(err, shared.KindDependencyFailure)
}
