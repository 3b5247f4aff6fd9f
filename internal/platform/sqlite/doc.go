// Package sqlite предоставляет инфраструктуру для работы с SQLite
// (драйвер modernc.org/sqlite, без cgo).
//
// Открытие базы:
//
//	db, err := sqlite.Open(ctx, "data/bizflow.db", sqlite.DefaultOptions())
//
// Транзакции с повтором при SQLITE_BUSY:
//
//	runner := sqlite.NewTxRunner(db, nil)
//	err = runner.WithinTx(ctx, func(ctx context.Context) error {
//		_, err := runner.Querier(ctx).ExecContext(ctx, "DELETE FROM items WHERE id = ?", id)
//		return err
//	})
//
// Миграции из embed.FS:
//
//	err = sqlite.ApplyMigrations(db, migrations.SQLite, ".")
//
// Ошибки драйвера классифицируются через Classify: отсутствие строки
// становится shared.ErrNotFound, нарушение уникальности shared.ErrConflict,
// остальное shared.ErrDependencyFailure.
package sqlite
