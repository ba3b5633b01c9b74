package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/Freeeeeet/booking_bot/internal/config"
	"github.com/sethvargo/go-envconfig"
	"go.uber.org/zap"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg, err := config.LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"DB_DRIVER": "sqlite",
		"DB_DSN":    filepath.Join(t.TempDir(), "app.db"),
	}))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func TestApp_MigrateAndServe(t *testing.T) {
	ctx := context.Background()

	a, err := New(ctx, testConfig(t), zap.NewNop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()

	if err := a.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Повторный запуск ничего не делает
	if err := a.Migrate(ctx); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	mg, err := NewMigrator(a.store, zap.NewNop())
	if err != nil {
		t.Fatalf("new migrator: %v", err)
	}
	version, err := mg.Version(ctx)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected schema version 1, got %d", version)
	}

	for _, path := range []string{"/health", "/api/users", "/api/slots?date=2025-06-02"} {
		rec := httptest.NewRecorder()
		a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s: status %d, body %s", path, rec.Code, rec.Body.String())
		}
	}
}

func TestApp_UnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.DB.Driver = "mysql"

	if _, err := New(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
