package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// send отправляет ответы по порядку и логирует если не удалось
func (h *Handlers) send(ctx context.Context, b *bot.Bot, chatID int64, replies ...reply) {
	for _, r := range replies {
		_, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      chatID,
			Text:        r.text,
			ParseMode:   r.parseMode,
			ReplyMarkup: r.markup,
		})
		if err != nil {
			h.logger.Error("Failed to send message",
				zap.Int64("chat_id", chatID),
				zap.Error(err),
			)
			return
		}
	}
}

// answer отвечает на callback query, чтобы у кнопки пропали часики
func (h *Handlers) answer(ctx context.Context, b *bot.Bot, callbackID, text string) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	})
	if err != nil {
		h.logger.Warn("Failed to answer callback", zap.Error(err))
	}
}

// editText заменяет текст сообщения с кнопкой
func (h *Handlers) editText(ctx context.Context, b *bot.Bot, msg *models.Message, text string) {
	_, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Text:      text,
	})
	if err != nil {
		h.logger.Error("Failed to edit message",
			zap.Int64("chat_id", msg.Chat.ID),
			zap.Int("message_id", msg.ID),
			zap.Error(err),
		)
	}
}
