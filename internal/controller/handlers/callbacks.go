package handlers

import (
	"context"
	"net/http"
	"slices"

	"github.com/Freeeeeet/booking_bot/internal/apiclient"
	"github.com/Freeeeeet/booking_bot/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleCallbackQuery обрабатывает нажатия на inline кнопки
func (h *Handlers) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	query := update.CallbackQuery
	if query == nil {
		return
	}
	msg := query.Message.Message

	switch {
	case query.Data == callbackShowBookings:
		h.answer(ctx, b, query.ID, "")
		if msg == nil {
			return
		}
		h.send(ctx, b, msg.Chat.ID, h.bookingsFor(ctx, query.From.ID)...)

	default:
		bookingID, ok := parseDeleteCallback(query.Data)
		if !ok {
			h.answer(ctx, b, query.ID, "❌ Неизвестное действие")
			return
		}
		h.answer(ctx, b, query.ID, "")
		text := h.deleteBooking(ctx, query.From.ID, bookingID)
		if msg != nil {
			h.editText(ctx, b, msg, text)
		}
	}
}

// bookingsFor сообщения со списком записей пользователя
func (h *Handlers) bookingsFor(ctx context.Context, telegramID int64) []reply {
	bookings, err := h.api.BookingsByTelegramID(ctx, telegramID)
	if err != nil {
		// Пользователь ещё ни разу не записывался
		if apiclient.StatusOf(err) == http.StatusNotFound {
			return bookingReplies(nil)
		}
		h.logger.Error("Failed to load bookings", zap.Int64("telegram_id", telegramID), zap.Error(err))
		return []reply{textReply("❌ Ошибка при получении записей. Попробуйте позже.")}
	}
	return bookingReplies(bookings)
}

// deleteBooking отменяет запись, только если она принадлежит нажавшему кнопку
func (h *Handlers) deleteBooking(ctx context.Context, telegramID, bookingID int64) string {
	bookings, err := h.api.BookingsByTelegramID(ctx, telegramID)
	if err != nil && apiclient.StatusOf(err) != http.StatusNotFound {
		h.logger.Error("Failed to load bookings", zap.Int64("telegram_id", telegramID), zap.Error(err))
		return "❌ Ошибка при удалении."
	}
	owned := slices.ContainsFunc(bookings, func(b *model.Booking) bool { return b.ID == bookingID })
	if !owned {
		return "❌ Запись уже удалена."
	}

	if err := h.api.CancelBooking(ctx, bookingID); err != nil {
		if apiclient.StatusOf(err) == http.StatusNotFound {
			return "❌ Запись уже удалена."
		}
		h.logger.Error("Failed to cancel booking",
			zap.Int64("telegram_id", telegramID),
			zap.Int64("booking_id", bookingID),
			zap.Error(err))
		return "❌ Ошибка при удалении."
	}

	h.logger.Info("Booking canceled via bot",
		zap.Int64("telegram_id", telegramID),
		zap.Int64("booking_id", bookingID))
	return "✅ Запись удалена."
}
