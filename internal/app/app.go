package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Freeeeeet/booking_bot/internal/config"
	"github.com/Freeeeeet/booking_bot/internal/httpapi"
	"github.com/Freeeeeet/booking_bot/internal/lock"
	"github.com/Freeeeeet/booking_bot/internal/repository"
	"github.com/Freeeeeet/booking_bot/internal/repository/base"
	"github.com/Freeeeeet/booking_bot/internal/service"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// App собранный API сервис
type App struct {
	cfg      *config.Config
	store    base.Store
	users    *service.UserService
	bookings *service.BookingService
	server   *httpapi.Server
	logger   *zap.Logger
	closers  []func() error
}

// New открывает хранилище и собирает сервисы
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	store, err := base.Open(ctx, cfg.DB.Driver, cfg.DB.DSN, cfg.DB.StoreTimeout)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &App{cfg: cfg, store: store, logger: logger}
	a.closers = append(a.closers, store.Close)

	locker, err := a.newLocker(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	userRepo := repository.NewUserRepository(store)
	bookingRepo := repository.NewBookingRepository(store)

	a.users = service.NewUserService(store, userRepo, bookingRepo, logger)
	a.bookings = service.NewBookingService(store, userRepo, bookingRepo, locker, cfg.Slots.Times, logger)

	if cfg.HTTP.AdminToken == "" {
		logger.Warn("ADMIN_TOKEN is empty, admin routes are not protected")
	}

	a.server = httpapi.NewServer(a.users, a.bookings, store, httpapi.Options{
		AdminToken:     cfg.HTTP.AdminToken,
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
		DefaultDays:    cfg.Slots.DaysAhead,
	}, logger)

	logger.Info("Application initialized",
		zap.String("driver", store.Dialect()),
		zap.Strings("slot_times", cfg.Slots.Times))

	return a, nil
}

func (a *App) newLocker(ctx context.Context) (lock.Locker, error) {
	if a.cfg.Redis.Addr == "" {
		return lock.NewMemory(), nil
	}

	client, err := lock.ConnectRedis(ctx, a.cfg.Redis.Addr, a.cfg.Redis.DB)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	a.closers = append(a.closers, client.Close)

	a.logger.Info("Using redis locks", zap.String("addr", a.cfg.Redis.Addr))
	return lock.NewRedis(client, a.cfg.Redis.LockTTL), nil
}

// Handler HTTP обработчик API
func (a *App) Handler() http.Handler {
	return a.server
}

// Bookings сервис бронирований (нужен CLI)
func (a *App) Bookings() *service.BookingService {
	return a.bookings
}

// Migrate применяет схему
func (a *App) Migrate(ctx context.Context) error {
	mg, err := NewMigrator(a.store, a.logger)
	if err != nil {
		return err
	}
	defer mg.Close()

	return mg.Run(ctx)
}

// Serve запускает HTTP сервер и, если включено, фоновую генерацию слотов.
// Завершается при отмене ctx с graceful shutdown.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           a.server,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if a.cfg.Slots.AutoGenerate {
		scheduler := NewScheduler(a.bookings, a.cfg.Slots.DaysAhead, a.cfg.Slots.GenerateInterval, a.logger)
		g.Go(func() error {
			return scheduler.Run(gctx)
		})
	}

	return g.Wait()
}

// Close освобождает ресурсы в обратном порядке
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
