package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/booking_bot/internal/controller/keyboard"
	"github.com/Freeeeeet/booking_bot/internal/model"
	"github.com/go-telegram/bot/models"
)

const (
	callbackShowBookings = "show_bookings"
	callbackDeletePrefix = "delete:" // delete:<booking id>
	slotsPerRow          = 3
	slotCellWidth        = 8
)

// formatSlotsTable таблица свободного времени по три слота в ряд, в блоке кода
func formatSlotsTable(slots []string) string {
	var sb strings.Builder
	sb.WriteString("🗓️ Доступные слоты:\n\n```\n")
	for i := 0; i < len(slots); i += slotsPerRow {
		end := min(i+slotsPerRow, len(slots))
		cells := make([]string, 0, slotsPerRow)
		for _, slot := range slots[i:end] {
			cells = append(cells, center(slot, slotCellWidth))
		}
		sb.WriteString(strings.Join(cells, " | "))
		sb.WriteString("\n")
	}
	sb.WriteString("```")
	return sb.String()
}

func center(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	left := (width - n) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-n-left)
}

// validDate строгая проверка YYYY-MM-DD, 2025-02-30 не проходит
func validDate(s string) bool {
	t, err := time.Parse(model.DateLayout, s)
	return err == nil && t.Format(model.DateLayout) == s
}

func formatBooking(b *model.Booking) string {
	return fmt.Sprintf("📅 %s в %s", b.Date, b.Time)
}

// bookingReplies по сообщению на запись, у каждого кнопка удаления
func bookingReplies(bookings []*model.Booking) []reply {
	if len(bookings) == 0 {
		return []reply{textReply("У вас нет записей.")}
	}

	replies := make([]reply, 0, len(bookings))
	for _, b := range bookings {
		kb := keyboard.NewBuilder().
			Row(keyboard.Button("❌ Удалить", callbackDeletePrefix+strconv.FormatInt(b.ID, 10))).
			Build()
		replies = append(replies, reply{text: formatBooking(b), markup: kb})
	}
	return replies
}

// parseDeleteCallback извлекает id записи из "delete:<id>"
func parseDeleteCallback(data string) (int64, bool) {
	raw, ok := strings.CutPrefix(data, callbackDeletePrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// miniAppLink ссылка на мини-приложение с именем и Telegram ID пользователя
func miniAppLink(base, name string, telegramID int64) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse mini app url: %w", err)
	}
	q := u.Query()
	q.Set("name", name)
	q.Set("user_id", strconv.FormatInt(telegramID, 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func fullName(u *models.User) string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
