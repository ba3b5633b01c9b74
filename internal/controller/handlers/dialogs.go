package handlers

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/Freeeeeet/booking_bot/internal/apiclient"
	"github.com/Freeeeeet/booking_bot/internal/controller/keyboard"
	"github.com/Freeeeeet/booking_bot/internal/controller/state"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// advance обрабатывает ответ пользователя на текущем шаге записи
// Возвращает сообщения для отправки, nil если диалога нет
func (h *Handlers) advance(ctx context.Context, telegramID int64, text string) []reply {
	draft, ok := h.stateManager.Get(telegramID)
	if !ok {
		return nil
	}
	text = strings.TrimSpace(text)

	switch draft.Step {
	case state.StepDate:
		return h.handleDate(ctx, telegramID, draft, text)
	case state.StepTime:
		return h.handleTime(telegramID, draft, text)
	case state.StepName:
		if text == "" {
			return []reply{textReply("Имя не может быть пустым. Введите ваше имя:")}
		}
		draft.Name = text
		draft.Step = state.StepPhone
		h.stateManager.Save(telegramID, draft)
		return []reply{textReply("Введите ваш телефон (например, +37120000000):")}
	case state.StepPhone:
		if text == "" {
			return []reply{textReply("Телефон не может быть пустым. Введите ваш телефон:")}
		}
		draft.Phone = text
		return h.finishBooking(ctx, telegramID, draft)
	default:
		h.stateManager.Clear(telegramID)
		return nil
	}
}

func (h *Handlers) handleDate(ctx context.Context, telegramID int64, draft state.Draft, text string) []reply {
	if !validDate(text) {
		return []reply{textReply("Дата в неверном формате. Попробуйте ещё раз: YYYY-MM-DD")}
	}

	slots, err := h.api.Slots(ctx, text)
	if err != nil {
		h.logger.Error("Failed to load slots", zap.String("date", text), zap.Error(err))
		h.stateManager.Clear(telegramID)
		return []reply{textReply("❌ Не удалось загрузить слоты. Попробуйте позже.")}
	}
	if len(slots) == 0 {
		h.stateManager.Clear(telegramID)
		return []reply{textReply("⚠️ На выбранную дату нет свободных слотов.")}
	}

	draft.Date = text
	draft.Slots = slots
	draft.Step = state.StepTime
	h.stateManager.Save(telegramID, draft)

	return []reply{
		{text: formatSlotsTable(slots), parseMode: models.ParseModeMarkdownV1},
		{text: "Выберите время:", markup: keyboard.Choices(slots)},
	}
}

func (h *Handlers) handleTime(telegramID int64, draft state.Draft, text string) []reply {
	if !slices.Contains(draft.Slots, text) {
		return []reply{textReply("Такого слота нет. Выберите из списка.")}
	}

	draft.Time = text
	draft.Step = state.StepName
	h.stateManager.Save(telegramID, draft)
	return []reply{{text: "Введите ваше имя:", markup: keyboard.Remove()}}
}

// finishBooking находит или регистрирует пользователя и создаёт запись.
// Диалог завершается при любом исходе.
func (h *Handlers) finishBooking(ctx context.Context, telegramID int64, draft state.Draft) []reply {
	h.stateManager.Clear(telegramID)

	userID, err := h.resolveUserID(ctx, telegramID, draft)
	if err != nil {
		h.logger.Error("Failed to resolve user", zap.Int64("telegram_id", telegramID), zap.Error(err))
		return []reply{textReply("❌ Ошибка при регистрации. Попробуйте позже.")}
	}

	booking, err := h.api.CreateBooking(ctx, userID, draft.Date, draft.Time)
	if err != nil {
		var apiErr *apiclient.Error
		if errors.As(err, &apiErr) {
			h.logger.Info("Booking rejected",
				zap.Int64("telegram_id", telegramID),
				zap.Int("status", apiErr.Status),
				zap.String("reason", apiErr.Message))
			return []reply{textReply(ErrorMessage(err))}
		}
		h.logger.Error("Failed to create booking", zap.Int64("telegram_id", telegramID), zap.Error(err))
		return []reply{textReply("❌ Ошибка при бронировании. Попробуйте позже.")}
	}

	h.logger.Info("Booking created via bot",
		zap.Int64("telegram_id", telegramID),
		zap.Int64("booking_id", booking.ID),
		zap.String("date", booking.Date),
		zap.String("time", booking.Time))

	kb := keyboard.NewBuilder().Row(keyboard.Button("📋 Мои записи", callbackShowBookings)).Build()
	return []reply{
		textReply("✅ Вы успешно записаны!\n\n" + formatBooking(booking)),
		{text: "Что дальше?", markup: kb},
	}
}

// resolveUserID ищет пользователя по Telegram ID, затем по телефону, иначе регистрирует
func (h *Handlers) resolveUserID(ctx context.Context, telegramID int64, draft state.Draft) (int64, error) {
	user, err := h.api.FindUserByTelegramID(ctx, telegramID)
	if err != nil {
		return 0, err
	}
	if user == nil {
		user, err = h.api.FindUserByPhone(ctx, draft.Phone)
		if err != nil {
			return 0, err
		}
	}
	if user == nil {
		user, err = h.api.ResolveUser(ctx, telegramID, draft.Phone, draft.Name)
		if err != nil {
			return 0, err
		}
	}
	return user.ID, nil
}
