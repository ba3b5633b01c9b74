package model

import "time"

type Role string

const (
	RoleAdmin Role = "admin" // Владелец открытых слотов
	RoleUser  Role = "user"
)

// Valid проверяет что роль из допустимого набора
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

type User struct {
	ID         int64     `json:"id"`
	TelegramID int64     `json:"telegram_id"` // внешний идентификатор, уникален
	Phone      string    `json:"phone"`       // уникален среди пользователей
	Name       string    `json:"name"`
	Role       Role      `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsAdmin проверяет является ли пользователь администратором
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserPatch частичное обновление пользователя. nil - поле не меняется.
type UserPatch struct {
	Name  *string
	Phone *string
	Role  *Role
}

// Empty проверяет что в патче нет ни одного поля
func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Phone == nil && p.Role == nil
}

// UserFilter фильтр списка пользователей
type UserFilter struct {
	TelegramID *int64
	Phone      string
}
