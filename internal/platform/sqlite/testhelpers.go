package sqlite

import (
	"context"
	"database/sql"
	"io/fs"
	"testing"
)

// TestDB - база в памяти для тестов.
type TestDB struct {
	DB       *sql.DB
	TxRunner *TxRunner
}

// NewTestDB открывает базу в памяти и применяет миграции из fsys/dir,
// если fsys не nil. База закрывается по завершении теста.
func NewTestDB(t testing.TB, fsys fs.FS, dir string) *TestDB {
	t.Helper()

	db, err := OpenMemory(context.Background())
	if err != nil {
		t.Fatalf("open in-memory test DB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if fsys != nil {
		if err := ApplyMigrations(db, fsys, dir); err != nil {
			t.Fatalf("apply test migrations: %v", err)
		}
	}
	return &TestDB{DB: db, TxRunner: NewTxRunner(db, nil)}
}

// Exec выполняет запрос и валит тест при ошибке.
func (tdb *TestDB) Exec(t testing.TB, query string, args ...any) sql.Result {
	t.Helper()
	res, err := tdb.DB.ExecContext(context.Background(), query, args...)
	if err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
	return res
}

// CountRows возвращает число строк в таблице.
func (tdb *TestDB) CountRows(t testing.TB, table string) int {
	t.Helper()
	var n int
	if err := tdb.DB.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		t.Fatalf("count rows in %s: %v", table, err)
	}
	return n
}
