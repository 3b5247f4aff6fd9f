package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite драйвер
)

// MemoryPath открывает базу в памяти.
const MemoryPath = ":memory:"

// TxLock определяет, как BEGIN захватывает блокировку.
type TxLock string

const (
	// TxLockDeferred откладывает блокировку до первой записи (по умолчанию SQLite)
	TxLockDeferred TxLock = "deferred"
	// TxLockImmediate сразу берёт RESERVED блокировку, снижая SQLITE_BUSY при записи
	TxLockImmediate TxLock = "immediate"
)

// Options содержит настройки подключения.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
	// BusyTimeout - сколько драйвер ждёт снятия блокировки
	BusyTimeout time.Duration
	WALMode     bool
	ForeignKeys bool
	TxLock      TxLock
}

// DefaultOptions возвращает настройки для файловой базы с одним писателем.
func DefaultOptions() Options {
	return Options{
		MaxOpenConns:    4,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
		PingTimeout:     5 * time.Second,
		BusyTimeout:     5 * time.Second,
		WALMode:         true,
		ForeignKeys:     true,
		TxLock:          TxLockImmediate,
	}
}

// MemoryOptions возвращает настройки для базы в памяти. Соединение одно и
// не пересоздаётся, иначе схема пропадёт.
func MemoryOptions() Options {
	opts := DefaultOptions()
	opts.MaxOpenConns = 1
	opts.MaxIdleConns = 1
	opts.ConnMaxLifetime = 0
	opts.WALMode = false
	return opts
}

// Open открывает базу по пути path, создаёт каталог при необходимости,
// проверяет соединение и применяет PRAGMA.
func Open(ctx context.Context, path string, opts Options) (*sql.DB, error) {
	if path != MemoryPath {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create directory %s: %w", dir, err)
			}
		}
	}

	db, err := sql.Open("sqlite", buildDSN(path, opts))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, opts.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	if err := applyPragmas(ctx, db, opts); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenMemory открывает пустую базу в памяти.
func OpenMemory(ctx context.Context) (*sql.DB, error) {
	return Open(ctx, MemoryPath, MemoryOptions())
}

func buildDSN(path string, opts Options) string {
	var params []string
	if opts.TxLock != "" && opts.TxLock != TxLockDeferred {
		params = append(params, "_txlock="+string(opts.TxLock))
	}
	if len(params) == 0 {
		return path
	}
	return path + "?" + strings.Join(params, "&")
}

func applyPragmas(ctx context.Context, db *sql.DB, opts Options) error {
	pragmas := []string{"PRAGMA synchronous = NORMAL"}
	if opts.ForeignKeys {
		pragmas = append(pragmas, "PRAGMA foreign_keys = ON")
	}
	if opts.WALMode {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	if opts.BusyTimeout > 0 {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA busy_timeout = %d", opts.BusyTimeout.Milliseconds()))
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("execute %s: %w", p, err)
		}
	}
	return nil
}
