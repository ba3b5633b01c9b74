package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/booking_bot/internal/lock"
	"github.com/Freeeeeet/booking_bot/internal/metrics"
	"github.com/Freeeeeet/booking_bot/internal/model"
	"github.com/Freeeeeet/booking_bot/internal/repository"
	"github.com/Freeeeeet/booking_bot/internal/repository/base"
	"go.uber.org/zap"
)

const maxDaysAhead = 366

type BookingService struct {
	store       base.Store
	userRepo    *repository.UserRepository
	bookingRepo *repository.BookingRepository
	locker      lock.Locker
	slotTimes   []string
	now         func() time.Time
	logger      *zap.Logger
}

func NewBookingService(
	store base.Store,
	userRepo *repository.UserRepository,
	bookingRepo *repository.BookingRepository,
	locker lock.Locker,
	slotTimes []string,
	logger *zap.Logger,
) *BookingService {
	if len(slotTimes) == 0 {
		slotTimes = model.DefaultSlotTimes
	}
	return &BookingService{
		store:       store,
		userRepo:    userRepo,
		bookingRepo: bookingRepo,
		locker:      locker,
		slotTimes:   append([]string(nil), slotTimes...),
		now:         time.Now,
		logger:      logger,
	}
}

// SetClock подменяет источник текущего времени (генерация слотов считает дни от "сегодня")
func (s *BookingService) SetClock(now func() time.Time) {
	s.now = now
}

// SlotTimes возвращает дневную сетку слотов
func (s *BookingService) SlotTimes() []string {
	return append([]string(nil), s.slotTimes...)
}

// ListAvailableSlots возвращает свободное время на дату в порядке сетки
func (s *BookingService) ListAvailableSlots(ctx context.Context, date string) (*model.Availability, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}

	adminID, err := s.adminID(ctx, s.userRepo)
	if err != nil {
		return nil, err
	}

	taken, err := s.bookingRepo.TakenTimes(ctx, date, adminID)
	if err != nil {
		return nil, fmt.Errorf("list available slots: %w", err)
	}

	busy := make(map[string]struct{}, len(taken))
	for _, t := range taken {
		busy[t] = struct{}{}
	}

	available := make([]string, 0, len(s.slotTimes))
	for _, t := range s.slotTimes {
		if _, ok := busy[t]; !ok {
			available = append(available, t)
		}
	}

	return &model.Availability{Date: date, Available: available}, nil
}

// CreateBooking бронирует слот: создаёт строку или забирает открытый слот администратора
func (s *BookingService) CreateBooking(ctx context.Context, userID int64, date, slotTime string) (*model.Booking, error) {
	return s.reserve(ctx, "book", userID, date, slotTime)
}

// AssignSlot отдаёт пользователю только заранее открытый слот
func (s *BookingService) AssignSlot(ctx context.Context, userID int64, date, slotTime string) (*model.Booking, error) {
	return s.reserve(ctx, "claim", userID, date, slotTime)
}

func (s *BookingService) reserve(ctx context.Context, mode string, userID int64, date, slotTime string) (*model.Booking, error) {
	if userID <= 0 {
		return nil, validationf("user_id is required")
	}
	if err := validateDate(date); err != nil {
		return nil, err
	}
	if err := validateSlotTime(slotTime, s.slotTimes); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.IsAdmin() {
		return nil, validationf("admin user cannot hold bookings")
	}

	// Одна запись в день на пользователя: проверка и вставка под общей блокировкой
	unlock, err := s.locker.Lock(ctx, fmt.Sprintf("user:%d:date:%s", userID, date))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: lock user date", base.ErrTimeout)
		}
		return nil, fmt.Errorf("lock user date: %w", err)
	}
	defer unlock()

	var booking *model.Booking
	err = s.store.InTx(ctx, func(tx base.Store) error {
		bookings := s.bookingRepo.With(tx)

		adminID, err := s.adminID(ctx, s.userRepo.With(tx))
		if err != nil {
			return err
		}

		has, err := bookings.HasBookingOnDate(ctx, userID, date)
		if err != nil {
			return err
		}
		if has {
			return ErrAlreadyBookedThatDay
		}

		if mode == "claim" {
			booking, err = bookings.Claim(ctx, userID, date, slotTime, adminID)
			if err != nil {
				return err
			}
			if booking == nil {
				return ErrNoOpenSlot
			}
			return nil
		}

		booking, err = bookings.Book(ctx, userID, date, slotTime, adminID)
		if err != nil {
			if base.IsUniqueViolation(err) {
				return ErrSlotTaken
			}
			return err
		}
		if booking == nil {
			return ErrSlotTaken
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrSlotTaken):
			metrics.BookingConflictsTotal.WithLabelValues("slot_taken").Inc()
		case errors.Is(err, ErrAlreadyBookedThatDay):
			metrics.BookingConflictsTotal.WithLabelValues("same_day").Inc()
		}
		return nil, err
	}

	metrics.BookingsCreatedTotal.WithLabelValues(mode).Inc()
	s.logger.Info("Booking created",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("user_id", userID),
		zap.String("date", date),
		zap.String("time", slotTime),
		zap.String("mode", mode),
	)

	return booking, nil
}

// GenerateSlots открывает слоты администратора на daysAhead дней вперёд, начиная с сегодня.
// Выходные пропускаются, существующие строки не трогаются.
func (s *BookingService) GenerateSlots(ctx context.Context, daysAhead int, times []string) (*model.SlotGeneration, error) {
	if daysAhead < 1 || daysAhead > maxDaysAhead {
		return nil, validationf("days must be between 1 and %d", maxDaysAhead)
	}
	if len(times) == 0 {
		times = s.slotTimes
	}

	seen := make(map[string]bool, len(times))
	unique := make([]string, 0, len(times))
	for _, t := range times {
		if err := validateClock(t); err != nil {
			return nil, err
		}
		// Слот вне сетки нельзя ни показать, ни забронировать
		if err := validateSlotTime(t, s.slotTimes); err != nil {
			return nil, err
		}
		if !seen[t] {
			seen[t] = true
			unique = append(unique, t)
		}
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	result := &model.SlotGeneration{Days: daysAhead}
	err := s.store.InTx(ctx, func(tx base.Store) error {
		admin, err := s.userRepo.With(tx).GetAdmin(ctx)
		if err != nil {
			return err
		}
		if admin == nil {
			return ErrNoAdmin
		}

		bookings := s.bookingRepo.With(tx)
		for i := 0; i < daysAhead; i++ {
			day := today.AddDate(0, 0, i)
			if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
				result.SkippedWeekendDays++
				continue
			}

			date := day.Format(model.DateLayout)
			for _, t := range unique {
				inserted, err := bookings.InsertOpen(ctx, admin.ID, date, t)
				if err != nil {
					return err
				}
				if inserted {
					result.Generated++
				} else {
					result.SkippedExistingSlots++
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.SlotsGeneratedTotal.Add(float64(result.Generated))
	s.logger.Info("Slots generated",
		zap.Int("days", result.Days),
		zap.Int("generated", result.Generated),
		zap.Int("skipped_weekend_days", result.SkippedWeekendDays),
		zap.Int("skipped_existing_slots", result.SkippedExistingSlots),
	)

	return result, nil
}

// CancelBooking удаляет бронирование
func (s *BookingService) CancelBooking(ctx context.Context, bookingID int64) error {
	deleted, err := s.bookingRepo.Delete(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	if !deleted {
		return ErrBookingNotFound
	}

	metrics.BookingsCanceledTotal.Inc()
	s.logger.Info("Booking canceled", zap.Int64("booking_id", bookingID))
	return nil
}

// GetByID возвращает бронирование по ID
func (s *BookingService) GetByID(ctx context.Context, bookingID int64) (*model.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}

// ListByUser бронирования пользователя по его внутреннему ID
func (s *BookingService) ListByUser(ctx context.Context, userID int64) ([]*model.Booking, error) {
	if userID <= 0 {
		return nil, validationf("user_id is required")
	}
	return s.bookingRepo.GetByUserID(ctx, userID)
}

// ListByTelegramID бронирования пользователя по Telegram ID
func (s *BookingService) ListByTelegramID(ctx context.Context, telegramID int64) ([]*model.Booking, error) {
	user, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return s.bookingRepo.GetByUserID(ctx, user.ID)
}

// adminID ID владельца открытых слотов, 0 если администратора нет
func (s *BookingService) adminID(ctx context.Context, users *repository.UserRepository) (int64, error) {
	admin, err := users.GetAdmin(ctx)
	if err != nil {
		return 0, err
	}
	if admin == nil {
		return 0, nil
	}
	return admin.ID, nil
}
