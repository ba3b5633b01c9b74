package service_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/Freeeeeet/booking_bot/internal/app"
	"github.com/Freeeeeet/booking_bot/internal/lock"
	"github.com/Freeeeeet/booking_bot/internal/model"
	"github.com/Freeeeeet/booking_bot/internal/repository"
	"github.com/Freeeeeet/booking_bot/internal/repository/base"
	"github.com/Freeeeeet/booking_bot/internal/service"
	"go.uber.org/zap"
)

// 2 июня 2025 - понедельник
var monday = time.Date(2025, time.June, 2, 9, 30, 0, 0, time.UTC)

type fixture struct {
	store    base.Store
	users    *service.UserService
	bookings *service.BookingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store, err := base.NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "booking.db"), 5*time.Second)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	mg, err := app.NewMigrator(store, zap.NewNop())
	if err != nil {
		t.Fatalf("new migrator: %v", err)
	}
	if err := mg.Run(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	userRepo := repository.NewUserRepository(store)
	bookingRepo := repository.NewBookingRepository(store)

	bookings := service.NewBookingService(store, userRepo, bookingRepo, lock.NewMemory(), model.DefaultSlotTimes, zap.NewNop())
	bookings.SetClock(func() time.Time { return monday })

	return &fixture{
		store:    store,
		users:    service.NewUserService(store, userRepo, bookingRepo, zap.NewNop()),
		bookings: bookings,
	}
}

func (f *fixture) user(t *testing.T, telegramID int64, role model.Role) *model.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), service.UserInput{
		TelegramID: telegramID,
		Phone:      fmt.Sprintf("+7900%07d", telegramID),
		Name:       fmt.Sprintf("user %d", telegramID),
		Role:       role,
	})
	if err != nil {
		t.Fatalf("create user %d: %v", telegramID, err)
	}
	return u
}
