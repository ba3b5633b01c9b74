package app

import (
	"context"
	"time"

	"github.com/Freeeeeet/booking_bot/internal/model"
	"go.uber.org/zap"
)

// SlotGenerator открывает слоты на дни вперёд
type SlotGenerator interface {
	GenerateSlots(ctx context.Context, daysAhead int, times []string) (*model.SlotGeneration, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	generator SlotGenerator
	daysAhead int
	interval  time.Duration
	logger    *zap.Logger
	stopChan  chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(generator SlotGenerator, daysAhead int, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		generator: generator,
		daysAhead: daysAhead,
		interval:  interval,
		logger:    logger,
		stopChan:  make(chan struct{}),
	}
}

// Run генерирует слоты сразу и затем по тикеру, пока не отменён ctx или не вызван Stop
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("Starting background scheduler",
		zap.Int("days_ahead", s.daysAhead),
		zap.Duration("interval", s.interval))

	// Первый запуск сразу при старте
	s.generateSlots(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.generateSlots(ctx)
		case <-s.stopChan:
			s.logger.Info("Slot generation task stopped")
			return nil
		case <-ctx.Done():
			s.logger.Info("Slot generation task cancelled")
			return nil
		}
	}
}

// Stop останавливает фоновые задачи
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
}

func (s *Scheduler) generateSlots(ctx context.Context) {
	// Пустой список времени - сетка из конфигурации
	result, err := s.generator.GenerateSlots(ctx, s.daysAhead, nil)
	if err != nil {
		// Ошибка не останавливает планировщик, попробуем на следующем тике
		s.logger.Error("Failed to generate slots", zap.Error(err))
		return
	}

	s.logger.Info("Automatic slot generation completed",
		zap.Int("generated", result.Generated),
		zap.Int("skipped_existing_slots", result.SkippedExistingSlots))
}
