package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/booking_bot/internal/apiclient"
	"github.com/Freeeeeet/booking_bot/internal/app"
	"github.com/Freeeeeet/booking_bot/internal/config"
	"github.com/Freeeeeet/booking_bot/internal/controller"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ValidateBot(); err != nil {
		log.Fatalf("Invalid bot config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()

	logger.Sugar().Infow("Starting booking bot",
		"environment", cfg.Environment,
		"api_url", cfg.Bot.APIURL,
		"mini_app", cfg.Bot.MiniAppURL != "",
		"token_length", len(cfg.Bot.TelegramToken))

	var ctrl *controller.BotController

	b, err := bot.New(cfg.Bot.TelegramToken,
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			ctrl.DefaultHandler(ctx, b, update)
		}),
	)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	ctrl = controller.NewBotController(b, apiclient.New(cfg.Bot.APIURL, nil), cfg.Bot.MiniAppURL, logger)

	if err := ctrl.RegisterHandlers(ctx); err != nil {
		// Меню команд не критично, бот работает и без него
		logger.Warn("Bot commands menu not set", zap.Error(err))
	}

	if err := ctrl.Start(ctx); err != nil {
		logger.Fatal("Bot stopped with error", zap.Error(err))
	}
	logger.Info("Booking bot stopped")
}
