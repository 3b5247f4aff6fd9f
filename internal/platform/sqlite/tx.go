package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bizflow/pkg/retry"
)

// txKey используется как ключ транзакции в context.Context
type txKey struct{}

// ErrNestedTx возвращается при попытке открыть транзакцию внутри транзакции.
var ErrNestedTx = errors.New("sqlite: nested transactions are not supported")

// Querier объединяет методы, общие для *sql.DB и *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// BusyRetry возвращает политику повторов для SQLITE_BUSY.
func BusyRetry() retry.Config {
	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = 3
	cfg.InitialDelay = 10 * time.Millisecond
	cfg.MaxDelay = 500 * time.Millisecond
	return cfg
}

// TxRunner выполняет функции внутри транзакции и повторяет их при SQLITE_BUSY.
type TxRunner struct {
	DB    *sql.DB
	Retry retry.Config
}

// NewTxRunner создаёт TxRunner. nil cfg означает BusyRetry().
func NewTxRunner(db *sql.DB, cfg *retry.Config) *TxRunner {
	r := &TxRunner{DB: db, Retry: BusyRetry()}
	if cfg != nil {
		r.Retry = *cfg
	}
	return r
}

// WithinTx выполняет fn в транзакции: ошибка fn откатывает, nil коммитит.
// Транзакция доступна внутри fn через Querier(ctx).
func (r *TxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := TxFrom(ctx); ok {
		return ErrNestedTx
	}
	return retry.DoWithRetryable(ctx, r.Retry, func(ctx context.Context) error {
		return r.runTx(ctx, fn)
	}, IsBusy)
}

func (r *TxRunner) runTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// TxFrom извлекает активную транзакцию из контекста.
func TxFrom(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sql.Tx)
	return tx, ok
}

// Querier возвращает транзакцию из контекста или саму базу.
func (r *TxRunner) Querier(ctx context.Context) Querier {
	if tx, ok := TxFrom(ctx); ok {
		return tx
	}
	return r.DB
}
