package controller

import (
	"context"
	"time"

	"github.com/Freeeeeet/booking_bot/internal/controller/handlers"
	"github.com/Freeeeeet/booking_bot/internal/controller/state"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const pruneInterval = 5 * time.Minute

type BotController struct {
	bot          *bot.Bot
	handlers     *handlers.Handlers
	stateManager *state.Manager
	logger       *zap.Logger
}

func NewBotController(botInstance *bot.Bot, api handlers.API, miniAppURL string, logger *zap.Logger) *BotController {
	stateManager := state.NewManager(state.DefaultTTL)

	return &BotController{
		bot:          botInstance,
		handlers:     handlers.NewHandlers(api, stateManager, miniAppURL, logger),
		stateManager: stateManager,
		logger:       logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.handlers.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.handlers.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/book", bot.MatchTypeExact, c.handlers.HandleBook)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/mybookings", bot.MatchTypeExact, c.handlers.HandleMyBookings)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/cancel", bot.MatchTypeExact, c.handlers.HandleCancel)

	// Обработчик нажатий на inline кнопки
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, c.handlers.HandleCallbackQuery)

	return c.setCommands(ctx)
}

// DefaultHandler получает все сообщения без своего обработчика, это ответы внутри диалога
func (c *BotController) DefaultHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	c.handlers.HandleTextMessage(ctx, b, update)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Начать работу с ботом"},
		{Command: "book", Description: "📝 Записаться"},
		{Command: "mybookings", Description: "📅 Мои записи"},
		{Command: "cancel", Description: "✖️ Прервать запись"},
		{Command: "help", Description: "❓ Справка по командам"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает бота и чистку брошенных диалогов, блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) error {
	go c.pruneLoop(ctx)

	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}

func (c *BotController) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.stateManager.Prune(); n > 0 {
				c.logger.Debug("Pruned stale dialogs", zap.Int("count", n))
			}
		}
	}
}
