package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/booking_bot/internal/model"
	"github.com/Freeeeeet/booking_bot/internal/repository"
	"github.com/Freeeeeet/booking_bot/internal/repository/base"
	"go.uber.org/zap"
)

// UserInput данные для создания пользователя
type UserInput struct {
	TelegramID int64
	Phone      string
	Name       string
	Role       model.Role
}

type UserService struct {
	store       base.Store
	userRepo    *repository.UserRepository
	bookingRepo *repository.BookingRepository
	logger      *zap.Logger
}

func NewUserService(
	store base.Store,
	userRepo *repository.UserRepository,
	bookingRepo *repository.BookingRepository,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		store:       store,
		userRepo:    userRepo,
		bookingRepo: bookingRepo,
		logger:      logger,
	}
}

// Resolve находит пользователя по Telegram ID или телефону, иначе создаёт.
// created сообщает, был ли пользователь создан этим вызовом.
func (s *UserService) Resolve(ctx context.Context, in UserInput) (user *model.User, created bool, err error) {
	in, err = normalizeInput(in)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.findExisting(ctx, in)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	user = &model.User{TelegramID: in.TelegramID, Phone: in.Phone, Name: in.Name, Role: in.Role}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if !base.IsUniqueViolation(err) {
			return nil, false, err
		}

		// Параллельный Resolve успел создать пользователя раньше
		existing, findErr := s.findExisting(ctx, in)
		if findErr != nil {
			return nil, false, findErr
		}
		if existing == nil {
			return nil, false, ErrDuplicateUser
		}
		return existing, false, nil
	}

	s.logger.Info("User created",
		zap.Int64("user_id", user.ID),
		zap.Int64("telegram_id", user.TelegramID),
		zap.String("role", string(user.Role)),
	)

	return user, true, nil
}

// Create строгое создание: занятый Telegram ID или телефон - ошибка
func (s *UserService) Create(ctx context.Context, in UserInput) (*model.User, error) {
	in, err := normalizeInput(in)
	if err != nil {
		return nil, err
	}

	existing, err := s.findExisting(ctx, in)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateUser
	}

	user := &model.User{TelegramID: in.TelegramID, Phone: in.Phone, Name: in.Name, Role: in.Role}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if base.IsUniqueViolation(err) {
			return nil, ErrDuplicateUser
		}
		return nil, err
	}

	s.logger.Info("User created",
		zap.Int64("user_id", user.ID),
		zap.Int64("telegram_id", user.TelegramID),
		zap.String("role", string(user.Role)),
	)

	return user, nil
}

// Update применяет патч к пользователю. Пустой патч возвращает текущее состояние.
func (s *UserService) Update(ctx context.Context, id int64, patch model.UserPatch) (*model.User, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, validationf("name must not be empty")
		}
		patch.Name = &name
	}
	if patch.Phone != nil {
		phone := strings.TrimSpace(*patch.Phone)
		if phone == "" {
			return nil, validationf("phone must not be empty")
		}
		patch.Phone = &phone
	}
	if patch.Role != nil && !patch.Role.Valid() {
		return nil, validationf("role must be admin or user")
	}

	var user *model.User
	err := s.store.InTx(ctx, func(tx base.Store) error {
		users := s.userRepo.With(tx)

		current, err := users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrUserNotFound
		}
		if patch.Empty() {
			user = current
			return nil
		}

		// Строки администратора - открытые слоты, поэтому смена роли не должна
		// превращать чужие записи в открытые слоты и наоборот
		if patch.Role != nil && *patch.Role != current.Role {
			owned, err := s.bookingRepo.With(tx).CountByUserID(ctx, id)
			if err != nil {
				return err
			}
			if owned > 0 {
				if current.IsAdmin() {
					return ErrAdminOwnsSlots
				}
				return ErrUserHasBookings
			}
		}

		if patch.Phone != nil {
			taken, err := users.PhoneTaken(ctx, *patch.Phone, id)
			if err != nil {
				return err
			}
			if taken {
				return ErrPhoneTaken
			}
		}

		found, err := users.Update(ctx, id, patch)
		if err != nil {
			if base.IsUniqueViolation(err) {
				return ErrPhoneTaken
			}
			return err
		}
		if !found {
			return ErrUserNotFound
		}

		user, err = users.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	if !patch.Empty() {
		s.logger.Info("User updated", zap.Int64("user_id", id))
	}
	return user, nil
}

// List возвращает пользователей с фильтрами по Telegram ID и телефону
func (s *UserService) List(ctx context.Context, filter model.UserFilter) ([]*model.User, error) {
	return s.userRepo.List(ctx, filter)
}

// GetByID получает пользователя по внутреннему ID
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// GetByTelegramID получает пользователя по Telegram ID
func (s *UserService) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// DeleteByTelegramID удаляет пользователя вместе с его бронированиями одной транзакцией
func (s *UserService) DeleteByTelegramID(ctx context.Context, telegramID int64) error {
	var (
		userID   int64
		canceled int64
	)
	err := s.store.InTx(ctx, func(tx base.Store) error {
		users := s.userRepo.With(tx)

		user, err := users.GetByTelegramID(ctx, telegramID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}
		userID = user.ID

		canceled, err = s.bookingRepo.With(tx).DeleteByUserID(ctx, user.ID)
		if err != nil {
			return err
		}

		deleted, err := users.Delete(ctx, user.ID)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("User deleted",
		zap.Int64("user_id", userID),
		zap.Int64("telegram_id", telegramID),
		zap.Int64("bookings_deleted", canceled),
	)
	return nil
}

func (s *UserService) findExisting(ctx context.Context, in UserInput) (*model.User, error) {
	user, err := s.userRepo.GetByTelegramID(ctx, in.TelegramID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user != nil {
		return user, nil
	}

	user, err = s.userRepo.GetByPhone(ctx, in.Phone)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func normalizeInput(in UserInput) (UserInput, error) {
	in.Phone = strings.TrimSpace(in.Phone)
	in.Name = strings.TrimSpace(in.Name)

	var missing []string
	if in.TelegramID == 0 {
		missing = append(missing, "telegram_id")
	}
	if in.Phone == "" {
		missing = append(missing, "phone")
	}
	if in.Name == "" {
		missing = append(missing, "name")
	}
	if len(missing) > 0 {
		return in, validationf("missing fields: %s", strings.Join(missing, ", "))
	}

	if in.Role == "" {
		in.Role = model.RoleUser
	}
	if !in.Role.Valid() {
		return in, validationf("role must be admin or user")
	}
	return in, nil
}
