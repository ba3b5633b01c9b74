package model

import "time"

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// DefaultSlotTimes дневная сетка слотов по умолчанию
var DefaultSlotTimes = []string{"10:00", "11:00", "12:00", "14:00", "15:00", "16:00"}

// Booking строка сетки (date, time). Если владелец - администратор, слот открыт,
// иначе занят этим пользователем.
type Booking struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	CreatedAt time.Time `json:"created_at"`
}

// Availability свободные слоты на дату
type Availability struct {
	Date      string   `json:"date"`
	Available []string `json:"available"`
}

// SlotGeneration итог массового открытия слотов
type SlotGeneration struct {
	Days                 int `json:"days"`
	Generated            int `json:"generated"`
	SkippedWeekendDays   int `json:"skipped_weekend_days"`
	SkippedExistingSlots int `json:"skipped_existing_slots"`
}
