package app

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/Freeeeeet/booking_bot/internal/repository/base"
	"github.com/Freeeeeet/booking_bot/migrations"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// goose хранит диалект и FS в глобальном состоянии
var gooseMu sync.Mutex

// Migrator обёртка над goose
type Migrator struct {
	db      *sql.DB
	ownsDB  bool
	dialect string
	dir     string
	logger  *zap.Logger
}

// NewMigrator создаёт мигратор для открытого хранилища
func NewMigrator(store base.Store, logger *zap.Logger) (*Migrator, error) {
	mg := &Migrator{logger: logger}

	switch s := store.(type) {
	case *base.PostgresStore:
		// Goose работает с *sql.DB, поэтому создаём его из пула
		mg.db = s.SQLDB()
		mg.ownsDB = true
		mg.dialect = "postgres"
		mg.dir = "postgres"
	case *base.SQLiteStore:
		mg.db = s.SQLDB()
		mg.dialect = "sqlite3"
		mg.dir = "sqlite"
	default:
		return nil, fmt.Errorf("migrations are not supported for %T", store)
	}

	return mg, nil
}

// Run применяет все pending миграции
func (mg *Migrator) Run(ctx context.Context) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := mg.setup(); err != nil {
		return err
	}

	mg.logger.Info("Applying database migrations", zap.String("dialect", mg.dialect))

	if err := goose.UpContext(ctx, mg.db, mg.dir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	mg.logger.Info("Migrations applied successfully")
	return nil
}

// Version показывает текущую версию миграций
func (mg *Migrator) Version(ctx context.Context) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := mg.setup(); err != nil {
		return 0, err
	}

	version, err := goose.GetDBVersionContext(ctx, mg.db)
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	return version, nil
}

// Close закрывает соединение мигратора, если оно было создано им
func (mg *Migrator) Close() error {
	// Пул и файл SQLite управляются хранилищем
	if mg.ownsDB && mg.db != nil {
		return mg.db.Close()
	}
	return nil
}

func (mg *Migrator) setup() error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(gooseLogger{mg.logger.Sugar()})

	if err := goose.SetDialect(mg.dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}

// gooseLogger направляет вывод goose в zap
type gooseLogger struct {
	s *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.s.Debugf(format, v...)
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.s.Fatalf(format, v...)
}
