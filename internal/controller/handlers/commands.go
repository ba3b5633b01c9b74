package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/booking_bot/internal/controller/keyboard"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const helpText = "📚 Справка по командам:\n\n" +
	"/book - Записаться на свободное время\n" +
	"/mybookings - Мои записи\n" +
	"/cancel - Прервать запись\n" +
	"/help - Показать эту справку"

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	h.send(ctx, b, update.Message.Chat.ID, h.startReply(update.Message.From))
}

func (h *Handlers) startReply(from *models.User) reply {
	name := fullName(from)

	if h.miniAppURL != "" {
		link, err := miniAppLink(h.miniAppURL, name, from.ID)
		if err == nil {
			return reply{
				text:   fmt.Sprintf("👋 Добро пожаловать, %s! Открой мини-приложение для записи или используй /book.", name),
				markup: keyboard.WebApp("📲 Открыть мини-приложение", link),
			}
		}
		h.logger.Warn("Invalid mini app url", zap.Error(err))
	}

	return textReply(fmt.Sprintf("👋 Добро пожаловать, %s!\n\n%s", name, helpText))
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.send(ctx, b, update.Message.Chat.ID, textReply(helpText))
}

// HandleBook начинает диалог записи
func (h *Handlers) HandleBook(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	h.stateManager.Start(update.Message.From.ID)
	h.send(ctx, b, update.Message.Chat.ID,
		textReply("На какую дату хотите записаться? Введите в формате YYYY-MM-DD (например, 2025-11-20)"))
}

// HandleCancel прерывает диалог записи
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	h.stateManager.Clear(update.Message.From.ID)
	h.send(ctx, b, update.Message.Chat.ID, reply{
		text:   "Запись отменена. Напишите /book, чтобы начать заново.",
		markup: keyboard.Remove(),
	})
}

// HandleMyBookings обрабатывает команду /mybookings
func (h *Handlers) HandleMyBookings(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	h.send(ctx, b, update.Message.Chat.ID, h.bookingsFor(ctx, update.Message.From.ID)...)
}

// HandleTextMessage обрабатывает ответы внутри диалога записи
func (h *Handlers) HandleTextMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	text := update.Message.Text

	// Известные команды сюда не доходят
	if strings.HasPrefix(text, "/") {
		h.send(ctx, b, update.Message.Chat.ID, textReply("Неизвестная команда. Справка: /help"))
		return
	}

	replies := h.advance(ctx, update.Message.From.ID, text)
	if replies == nil {
		replies = []reply{textReply("Чтобы записаться, отправьте /book. Справка: /help")}
	}
	h.send(ctx, b, update.Message.Chat.ID, replies...)
}
