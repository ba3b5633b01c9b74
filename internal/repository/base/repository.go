package base

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Row строка результата: имя колонки -> значение
type Row map[string]any

// Result результат команды без строк
type Result struct {
	RowsAffected int64
}

// Store общий контракт доступа к хранилищу.
// Параметры всегда передаются позиционно ($1, $2, ...), без интерполяции в текст запроса.
type Store interface {
	// QueryAll выполняет запрос и возвращает все строки
	QueryAll(ctx context.Context, query string, args ...any) ([]Row, error)
	// QueryOne возвращает первую строку или nil, если строк нет
	QueryOne(ctx context.Context, query string, args ...any) (Row, error)
	// Exec выполняет команду и возвращает количество затронутых строк
	Exec(ctx context.Context, query string, args ...any) (Result, error)
	// InTx выполняет fn в транзакции. Вложенный вызов присоединяется к текущей транзакции.
	InTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
	Close() error
	Dialect() string
}

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// Open открывает хранилище по имени драйвера
func Open(ctx context.Context, driver, dsn string, timeout time.Duration) (Store, error) {
	switch driver {
	case DialectPostgres:
		return NewPostgresStore(ctx, dsn, timeout)
	case DialectSQLite:
		return NewSQLiteStore(ctx, dsn, timeout)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

// Int64 читает целочисленную колонку независимо от драйвера
func (r Row) Int64(key string) int64 {
	switch v := r[key].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	case []byte:
		n, _ := strconv.ParseInt(string(v), 10, 64)
		return n
	default:
		return 0
	}
}

// String читает текстовую колонку
func (r Row) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// Time читает колонку времени. SQLite может вернуть её строкой.
func (r Row) Time(key string) time.Time {
	switch v := r[key].(type) {
	case time.Time:
		return v.UTC()
	case string:
		return parseTime(v)
	case []byte:
		return parseTime(string(v))
	default:
		return time.Time{}
	}
}

func parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
