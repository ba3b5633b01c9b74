package base

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// sqlQuerier общий набор методов *sql.DB и *sql.Tx
type sqlQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SQLiteStore хранилище поверх встроенного SQLite (совместимо с D1 на edge)
type SQLiteStore struct {
	db    *sql.DB
	q     sqlQuerier
	inTx  bool
	guard guard
}

// NewSQLiteStore открывает файл базы. Одно соединение: SQLite сериализует запись.
func NewSQLiteStore(ctx context.Context, dsn string, timeout time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{
		db:    db,
		q:     db,
		guard: guard{timeout: timeout, classify: classifySQLite},
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return s, nil
}

// SQLDB возвращает исходный *sql.DB (нужен goose)
func (s *SQLiteStore) SQLDB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) Dialect() string {
	return DialectSQLite
}

func (s *SQLiteStore) QueryAll(ctx context.Context, query string, args ...any) ([]Row, error) {
	cctx, cancel := s.guard.bound(ctx)
	defer cancel()

	rows, err := s.q.QueryContext(cctx, query, args...)
	if err != nil {
		return nil, s.guard.wrap(cctx, "query", err)
	}
	defer rows.Close()

	result, err := scanRows(rows)
	if err != nil {
		return nil, s.guard.wrap(cctx, "scan", err)
	}
	return result, nil
}

func (s *SQLiteStore) QueryOne(ctx context.Context, query string, args ...any) (Row, error) {
	rows, err := s.QueryAll(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (s *SQLiteStore) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	cctx, cancel := s.guard.bound(ctx)
	defer cancel()

	res, err := s.q.ExecContext(cctx, query, args...)
	if err != nil {
		return Result{}, s.guard.wrap(cctx, "exec", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return Result{}, s.guard.wrap(cctx, "rows affected", err)
	}
	return Result{RowsAffected: affected}, nil
}

func (s *SQLiteStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.guard.wrap(ctx, "begin", err)
	}
	defer tx.Rollback()

	if err := fn(&SQLiteStore{db: s.db, q: tx, inTx: true, guard: s.guard}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return s.guard.wrap(ctx, "commit", err)
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	if s.inTx {
		return nil
	}
	cctx, cancel := s.guard.bound(ctx)
	defer cancel()
	return s.guard.wrap(cctx, "ping", s.db.PingContext(cctx))
}

func (s *SQLiteStore) Close() error {
	if s.inTx {
		return nil
	}
	return s.db.Close()
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := make([]Row, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		result = append(result, row)
	}

	return result, rows.Err()
}

func classifySQLite(err error) ErrorKind {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return KindOther
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return KindUnique
	}
	if se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return KindConstraint
	}
	return KindOther
}
