package base

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// pgxQuerier общий набор методов pgxpool.Pool и pgx.Tx
type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresStore хранилище поверх пула pgx
type PostgresStore struct {
	pool  *pgxpool.Pool
	q     pgxQuerier
	guard guard
}

// NewPostgresStore создаёт пул соединений и проверяет доступность базы
func NewPostgresStore(ctx context.Context, dsn string, timeout time.Duration) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	s := &PostgresStore{
		pool:  pool,
		q:     pool,
		guard: guard{timeout: timeout, classify: classifyPg},
	}

	if err := s.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return s, nil
}

// Pool возвращает пул соединений
func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

// SQLDB открывает *sql.DB поверх пула (нужен goose)
func (s *PostgresStore) SQLDB() *sql.DB {
	return stdlib.OpenDBFromPool(s.pool)
}

func (s *PostgresStore) Dialect() string {
	return DialectPostgres
}

func (s *PostgresStore) QueryAll(ctx context.Context, query string, args ...any) ([]Row, error) {
	cctx, cancel := s.guard.bound(ctx)
	defer cancel()

	rows, err := s.q.Query(cctx, query, args...)
	if err != nil {
		return nil, s.guard.wrap(cctx, "query", err)
	}

	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, s.guard.wrap(cctx, "scan", err)
	}

	result := make([]Row, 0, len(maps))
	for _, m := range maps {
		result = append(result, Row(m))
	}
	return result, nil
}

func (s *PostgresStore) QueryOne(ctx context.Context, query string, args ...any) (Row, error) {
	rows, err := s.QueryAll(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (s *PostgresStore) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	cctx, cancel := s.guard.bound(ctx)
	defer cancel()

	tag, err := s.q.Exec(cctx, query, args...)
	if err != nil {
		return Result{}, s.guard.wrap(cctx, "exec", err)
	}
	return Result{RowsAffected: tag.RowsAffected()}, nil
}

func (s *PostgresStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	// Уже внутри транзакции
	if s.pool == nil {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return s.guard.wrap(ctx, "begin", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&PostgresStore{q: tx, guard: s.guard}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return s.guard.wrap(ctx, "commit", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if s.pool == nil {
		return nil
	}
	cctx, cancel := s.guard.bound(ctx)
	defer cancel()
	return s.guard.wrap(cctx, "ping", s.pool.Ping(cctx))
}

func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func classifyPg(err error) ErrorKind {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return KindOther
	}
	switch {
	case pgErr.Code == "23505":
		return KindUnique
	case strings.HasPrefix(pgErr.Code, "23"):
		return KindConstraint
	default:
		return KindOther
	}
}
