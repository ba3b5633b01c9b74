package handlers

import (
	"errors"
	"net/http"

	"github.com/Freeeeeet/booking_bot/internal/apiclient"
	"github.com/Freeeeeet/booking_bot/internal/service"
)

// ErrorMessage возвращает пользовательское сообщение для ошибки API
func ErrorMessage(err error) string {
	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) {
		return "❌ Сервис недоступен. Попробуйте позже."
	}

	switch apiErr.Status {
	case http.StatusConflict:
		if apiErr.Message == service.ErrSlotTaken.Error() {
			return "❌ Это время уже занято. Выберите другое: /book"
		}
		return "❌ У вас уже есть запись на этот день"
	case http.StatusNotFound:
		if apiErr.Message == service.ErrUserNotFound.Error() {
			return "❌ Пользователь не найден. Запишитесь через /book"
		}
		return "❌ Запись не найдена"
	case http.StatusBadRequest:
		return "❌ Ошибка: " + apiErr.Message
	case http.StatusTooManyRequests:
		return "⏳ Слишком много запросов. Попробуйте через минуту."
	default:
		return "❌ Произошла ошибка. Попробуйте позже."
	}
}
