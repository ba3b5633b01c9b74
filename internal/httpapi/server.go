// Package httpapi HTTP слой сервиса бронирований: маршруты, обработчики,
// middleware и единый JSON формат ответов.
package httpapi

import (
	"context"
	"net/http"

	"github.com/Freeeeeet/booking_bot/internal/httpapi/router"
	"github.com/Freeeeeet/booking_bot/internal/model"
	"github.com/Freeeeeet/booking_bot/internal/service"
	"go.uber.org/zap"
)

type UserService interface {
	Resolve(ctx context.Context, in service.UserInput) (*model.User, bool, error)
	Create(ctx context.Context, in service.UserInput) (*model.User, error)
	Update(ctx context.Context, id int64, patch model.UserPatch) (*model.User, error)
	List(ctx context.Context, filter model.UserFilter) ([]*model.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	DeleteByTelegramID(ctx context.Context, telegramID int64) error
}

type BookingService interface {
	ListAvailableSlots(ctx context.Context, date string) (*model.Availability, error)
	CreateBooking(ctx context.Context, userID int64, date, slotTime string) (*model.Booking, error)
	AssignSlot(ctx context.Context, userID int64, date, slotTime string) (*model.Booking, error)
	GenerateSlots(ctx context.Context, daysAhead int, times []string) (*model.SlotGeneration, error)
	CancelBooking(ctx context.Context, bookingID int64) error
	GetByID(ctx context.Context, bookingID int64) (*model.Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.Booking, error)
	ListByTelegramID(ctx context.Context, telegramID int64) ([]*model.Booking, error)
}

// Pinger проверка доступности хранилища для /health
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options настройки HTTP слоя
type Options struct {
	AdminToken     string
	RateLimitRPS   float64 // 0 - без ограничения
	RateLimitBurst int
	DefaultDays    int
	Version        string
}

// Server собирает маршруты и middleware в http.Handler
type Server struct {
	router   *router.Router
	handler  http.Handler
	users    UserService
	bookings BookingService
	store    Pinger
	validate *requestValidator
	opts     Options
	logger   *zap.Logger
}

func NewServer(users UserService, bookings BookingService, store Pinger, opts Options, logger *zap.Logger) *Server {
	if opts.DefaultDays <= 0 {
		opts.DefaultDays = 14
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}

	s := &Server{
		router:   router.New(),
		users:    users,
		bookings: bookings,
		store:    store,
		validate: newRequestValidator(),
		opts:     opts,
		logger:   logger,
	}

	s.registerRoutes()
	s.router.Seal()

	mws := []middleware{requestID, observe(logger), recoverer(logger)}
	if opts.RateLimitRPS > 0 {
		mws = append(mws, newRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst).middleware)
	}
	s.handler = chain(http.HandlerFunc(s.dispatch), mws...)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Router таблица маршрутов (уже запечатана)
func (s *Server) Router() *router.Router {
	return s.router
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) {
	route, params, ok := s.router.Match(r.Method, r.URL.Path)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	setRoute(r.Context(), route.Pattern)

	if err := route.Handler(w, r, params); err != nil {
		s.handleError(w, r, route.Pattern, err)
	}
}

func (s *Server) handleError(w http.ResponseWriter, r *http.Request, pattern string, err error) {
	status, msg, expected := resolveError(err)
	if !expected {
		s.logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("route", pattern),
			zap.Int("status", status),
			zap.String("request_id", RequestIDFrom(r.Context())),
			zap.Error(err),
		)
	}
	writeError(w, status, msg)
}
