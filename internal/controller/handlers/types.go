package handlers

import (
	"context"

	"github.com/Freeeeeet/booking_bot/internal/controller/state"
	"github.com/Freeeeeet/booking_bot/internal/model"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// API операции сервиса бронирований, которые нужны боту
type API interface {
	FindUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	FindUserByPhone(ctx context.Context, phone string) (*model.User, error)
	ResolveUser(ctx context.Context, telegramID int64, phone, name string) (*model.User, error)
	Slots(ctx context.Context, date string) ([]string, error)
	CreateBooking(ctx context.Context, userID int64, date, slotTime string) (*model.Booking, error)
	BookingsByTelegramID(ctx context.Context, telegramID int64) ([]*model.Booking, error)
	CancelBooking(ctx context.Context, bookingID int64) error
}

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	api          API
	stateManager *state.Manager
	miniAppURL   string
	logger       *zap.Logger
}

func NewHandlers(api API, stateManager *state.Manager, miniAppURL string, logger *zap.Logger) *Handlers {
	return &Handlers{
		api:          api,
		stateManager: stateManager,
		miniAppURL:   miniAppURL,
		logger:       logger,
	}
}

// reply одно исходящее сообщение
type reply struct {
	text      string
	markup    models.ReplyMarkup
	parseMode models.ParseMode
}

func textReply(text string) reply {
	return reply{text: text}
}
