package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/booking_bot/internal/model"
)

// Базовые категории ошибок. HTTP слой сопоставляет их со статусами через errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// Конкретные ошибки, каждая относится к одной из категорий
var (
	ErrSlotTaken            = &kindError{kind: ErrConflict, msg: "slot already taken"}
	ErrAlreadyBookedThatDay = &kindError{kind: ErrConflict, msg: "user already has a booking on this date"}
	ErrDuplicateUser        = &kindError{kind: ErrConflict, msg: "user with this telegram_id or phone already exists"}
	ErrPhoneTaken           = &kindError{kind: ErrDuplicateUser, msg: "phone already in use"}
	ErrNoAdmin              = &kindError{kind: ErrValidation, msg: "no admin user"}
	ErrUserNotFound         = &kindError{kind: ErrNotFound, msg: "user not found"}
	ErrBookingNotFound      = &kindError{kind: ErrNotFound, msg: "booking not found"}
	ErrNoOpenSlot           = &kindError{kind: ErrNotFound, msg: "no open slot at this date and time"}
	ErrUserHasBookings      = &kindError{kind: ErrConflict, msg: "user holds bookings and cannot become admin"}
	ErrAdminOwnsSlots       = &kindError{kind: ErrConflict, msg: "admin owns open slots and cannot be demoted"}
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// validateDate проверяет дату в формате YYYY-MM-DD
func validateDate(date string) error {
	if date == "" {
		return validationf("date is required")
	}
	d, err := time.Parse(model.DateLayout, date)
	if err != nil || d.Format(model.DateLayout) != date {
		return validationf("date must be YYYY-MM-DD, got %q", date)
	}
	return nil
}

// validateClock проверяет время в формате HH:MM
func validateClock(slotTime string) error {
	t, err := time.Parse(model.TimeLayout, slotTime)
	if err != nil || t.Format(model.TimeLayout) != slotTime {
		return validationf("time must be HH:MM, got %q", slotTime)
	}
	return nil
}

// validateSlotTime проверяет что время входит в сетку
func validateSlotTime(slotTime string, candidates []string) error {
	if slotTime == "" {
		return validationf("time is required")
	}
	for _, c := range candidates {
		if c == slotTime {
			return nil
		}
	}
	return validationf("time must be one of %s", strings.Join(candidates, ", "))
}
