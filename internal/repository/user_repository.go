package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/booking_bot/internal/model"
	"github.com/Freeeeeet/booking_bot/internal/repository/base"
)

const userColumns = "id, telegram_id, phone, name, role, created_at"

// Колонки, которые разрешено менять через Update
var updatableUserColumns = map[string]bool{
	"name":  true,
	"phone": true,
	"role":  true,
}

type UserRepository struct {
	db base.Store
}

func NewUserRepository(db base.Store) *UserRepository {
	return &UserRepository{db: db}
}

// With возвращает репозиторий, работающий внутри транзакции tx
func (r *UserRepository) With(tx base.Store) *UserRepository {
	return &UserRepository{db: tx}
}

// Create создаёт нового пользователя
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (telegram_id, phone, name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	row, err := r.db.QueryOne(ctx, query, user.TelegramID, user.Phone, user.Name, string(user.Role))
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	*user = *scanUser(row)
	return nil
}

// GetByID получает пользователя по ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row, err := r.db.QueryOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return scanUser(row), nil
}

// GetByTelegramID получает пользователя по Telegram ID
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	row, err := r.db.QueryOne(ctx, `SELECT `+userColumns+` FROM users WHERE telegram_id = $1`, telegramID)
	if err != nil {
		return nil, fmt.Errorf("get user by telegram id: %w", err)
	}
	return scanUser(row), nil
}

// GetByPhone получает пользователя по телефону
func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*model.User, error) {
	row, err := r.db.QueryOne(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone)
	if err != nil {
		return nil, fmt.Errorf("get user by phone: %w", err)
	}
	return scanUser(row), nil
}

// GetAdmin возвращает администратора (владельца открытых слотов)
func (r *UserRepository) GetAdmin(ctx context.Context) (*model.User, error) {
	row, err := r.db.QueryOne(ctx, `SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY id LIMIT 1`, string(model.RoleAdmin))
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return scanUser(row), nil
}

// List возвращает пользователей, новые первыми
func (r *UserRepository) List(ctx context.Context, filter model.UserFilter) ([]*model.User, error) {
	var (
		conds []string
		args  []any
	)
	if filter.TelegramID != nil {
		args = append(args, *filter.TelegramID)
		conds = append(conds, fmt.Sprintf("telegram_id = $%d", len(args)))
	}
	if filter.Phone != "" {
		args = append(args, filter.Phone)
		conds = append(conds, fmt.Sprintf("phone = $%d", len(args)))
	}

	query := `SELECT ` + userColumns + ` FROM users`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id DESC"

	rows, err := r.db.QueryAll(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	users := make([]*model.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, scanUser(row))
	}
	return users, nil
}

// PhoneTaken проверяет занят ли телефон другим пользователем
func (r *UserRepository) PhoneTaken(ctx context.Context, phone string, exceptID int64) (bool, error) {
	row, err := r.db.QueryOne(ctx, `SELECT COUNT(*) AS n FROM users WHERE phone = $1 AND id <> $2`, phone, exceptID)
	if err != nil {
		return false, fmt.Errorf("check phone: %w", err)
	}
	return row.Int64("n") > 0, nil
}

// Update применяет патч. Возвращает false, если пользователь не найден.
func (r *UserRepository) Update(ctx context.Context, id int64, patch model.UserPatch) (bool, error) {
	fields := make(map[string]any)
	if patch.Name != nil {
		fields["name"] = *patch.Name
	}
	if patch.Phone != nil {
		fields["phone"] = *patch.Phone
	}
	if patch.Role != nil {
		fields["role"] = string(*patch.Role)
	}

	set, args, err := buildSet(fields, updatableUserColumns)
	if err != nil {
		return false, fmt.Errorf("update user: %w", err)
	}
	if set == "" {
		return true, nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", set, len(args))

	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update user: %w", err)
	}
	return result.RowsAffected > 0, nil
}

// Delete удаляет пользователя
func (r *UserRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	return result.RowsAffected > 0, nil
}

func scanUser(row base.Row) *model.User {
	if row == nil {
		return nil
	}
	return &model.User{
		ID:         row.Int64("id"),
		TelegramID: row.Int64("telegram_id"),
		Phone:      row.String("phone"),
		Name:       row.String("name"),
		Role:       model.Role(row.String("role")),
		CreatedAt:  row.Time("created_at"),
	}
}
