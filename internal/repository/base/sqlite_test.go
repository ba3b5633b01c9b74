package base

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

const itemsTable = `CREATE TABLE items (
	id INTEGER PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	qty INTEGER NOT NULL CHECK (qty >= 0)
)`

func newTestSQLite(t *testing.T, timeout time.Duration) *SQLiteStore {
	t.Helper()
	ctx := context.Background()

	dsn := filepath.Join(t.TempDir(), "store.db")
	s, err := NewSQLiteStore(ctx, dsn, timeout)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if _, err := s.Exec(ctx, itemsTable); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return s
}

func countItems(t *testing.T, s Store) int64 {
	t.Helper()
	row, err := s.QueryOne(context.Background(), "SELECT COUNT(*) AS n FROM items")
	if err != nil {
		t.Fatalf("count items: %v", err)
	}
	return row.Int64("n")
}

func TestSQLiteTimeout(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "slow.db")

	s, err := NewSQLiteStore(ctx, dsn, time.Nanosecond)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer s.Close()

	_, err = s.QueryAll(ctx, "SELECT 1 AS one")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("QueryAll() error = %v, want ErrTimeout", err)
	}
	var se *StoreError
	if errors.As(err, &se) {
		t.Errorf("timeout must not be reported as StoreError: %v", se)
	}

	_, err = s.Exec(ctx, "SELECT 1")
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Exec() error = %v, want ErrTimeout", err)
	}
}

func TestSQLiteCanceledContext(t *testing.T) {
	s := newTestSQLite(t, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.QueryAll(ctx, "SELECT 1 AS one")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("QueryAll() error = %v, want context.Canceled", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Errorf("cancellation must not be reported as timeout")
	}
}

func TestSQLiteUniqueViolation(t *testing.T) {
	s := newTestSQLite(t, time.Second)
	ctx := context.Background()

	if _, err := s.Exec(ctx, "INSERT INTO items (code, qty) VALUES ($1, $2)", "a", 1); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	_, err := s.Exec(ctx, "INSERT INTO items (code, qty) VALUES ($1, $2)", "a", 2)
	if !IsUniqueViolation(err) {
		t.Fatalf("IsUniqueViolation(%v) = false", err)
	}
	if !IsConstraint(err) {
		t.Errorf("IsConstraint(%v) = false", err)
	}

	var se *StoreError
	if !errors.As(err, &se) || se.Op != "exec" || se.Message == "" {
		t.Errorf("err = %#v, want StoreError with op and driver message", err)
	}

	_, err = s.Exec(ctx, "INSERT INTO items (id, code, qty) VALUES ($1, $2, $3)", 1, "b", 1)
	if !IsUniqueViolation(err) {
		t.Errorf("primary key clash: IsUniqueViolation(%v) = false", err)
	}
}

func TestSQLiteCheckViolation(t *testing.T) {
	s := newTestSQLite(t, time.Second)

	_, err := s.Exec(context.Background(), "INSERT INTO items (code, qty) VALUES ($1, $2)", "neg", -1)
	if err == nil {
		t.Fatal("Exec() error = nil, want check violation")
	}
	if !IsConstraint(err) {
		t.Errorf("IsConstraint(%v) = false", err)
	}
	if IsUniqueViolation(err) {
		t.Errorf("IsUniqueViolation(%v) = true for a check constraint", err)
	}
}

func TestSQLiteSyntaxErrorIsNotConstraint(t *testing.T) {
	s := newTestSQLite(t, time.Second)

	_, err := s.QueryAll(context.Background(), "SELEC 1")
	var se *StoreError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want StoreError", err)
	}
	if se.Kind != KindOther || IsConstraint(err) {
		t.Errorf("Kind = %v, want KindOther", se.Kind)
	}
}

func TestSQLiteQueryOneNoRows(t *testing.T) {
	s := newTestSQLite(t, time.Second)

	row, err := s.QueryOne(context.Background(), "SELECT id FROM items WHERE code = $1", "missing")
	if err != nil {
		t.Fatalf("QueryOne() error = %v", err)
	}
	if row != nil {
		t.Errorf("QueryOne() = %v, want nil", row)
	}
}

func TestSQLiteQueryRows(t *testing.T) {
	s := newTestSQLite(t, time.Second)
	ctx := context.Background()

	for i, code := range []string{"a", "b"} {
		if _, err := s.Exec(ctx, "INSERT INTO items (code, qty) VALUES ($1, $2)", code, i+1); err != nil {
			t.Fatalf("insert %s: %v", code, err)
		}
	}

	rows, err := s.QueryAll(ctx, "SELECT id, code, qty FROM items ORDER BY code")
	if err != nil {
		t.Fatalf("QueryAll() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[1].String("code") != "b" || rows[1].Int64("qty") != 2 {
		t.Errorf("rows[1] = %v", rows[1])
	}

	res, err := s.Exec(ctx, "UPDATE items SET qty = qty + 1")
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if res.RowsAffected != 2 {
		t.Errorf("RowsAffected = %d, want 2", res.RowsAffected)
	}
}

func TestSQLiteInTxRollback(t *testing.T) {
	s := newTestSQLite(t, time.Second)
	ctx := context.Background()
	errBoom := errors.New("boom")

	err := s.InTx(ctx, func(tx Store) error {
		if _, err := tx.Exec(ctx, "INSERT INTO items (code, qty) VALUES ($1, $2)", "a", 1); err != nil {
			return err
		}
		// Вложенный вызов присоединяется к той же транзакции
		return tx.InTx(ctx, func(inner Store) error {
			if _, err := inner.Exec(ctx, "INSERT INTO items (code, qty) VALUES ($1, $2)", "b", 1); err != nil {
				return err
			}
			return errBoom
		})
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("InTx() error = %v, want %v", err, errBoom)
	}
	if n := countItems(t, s); n != 0 {
		t.Errorf("items after rollback = %d, want 0", n)
	}
}

func TestSQLiteInTxCommit(t *testing.T) {
	s := newTestSQLite(t, time.Second)
	ctx := context.Background()

	err := s.InTx(ctx, func(tx Store) error {
		_, err := tx.Exec(ctx, "INSERT INTO items (code, qty) VALUES ($1, $2)", "a", 1)
		return err
	})
	if err != nil {
		t.Fatalf("InTx() error = %v", err)
	}
	if n := countItems(t, s); n != 1 {
		t.Errorf("items after commit = %d, want 1", n)
	}
}

func TestRowAccessors(t *testing.T) {
	at := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	row := Row{
		"i64":  int64(7),
		"f":    float64(3),
		"s":    "12",
		"b":    []byte("hi"),
		"ts":   "2025-06-02 10:00:00",
		"tt":   at,
		"none": nil,
	}

	if row.Int64("i64") != 7 || row.Int64("f") != 3 || row.Int64("s") != 12 || row.Int64("none") != 0 {
		t.Errorf("Int64 accessors = %d %d %d %d", row.Int64("i64"), row.Int64("f"), row.Int64("s"), row.Int64("none"))
	}
	if row.String("b") != "hi" || row.String("none") != "" || row.String("i64") != "7" {
		t.Errorf("String accessors = %q %q %q", row.String("b"), row.String("none"), row.String("i64"))
	}
	if !row.Time("ts").Equal(at) || !row.Time("tt").Equal(at) || !row.Time("none").IsZero() {
		t.Errorf("Time accessors = %v %v %v", row.Time("ts"), row.Time("tt"), row.Time("none"))
	}
}
