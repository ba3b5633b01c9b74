package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Freeeeeet/booking_bot/internal/repository/base"
	"github.com/Freeeeeet/booking_bot/internal/service"
)

const internalErrorMessage = "internal server error"

// errorResponse единый формат ошибки: {"error": "..."}
type errorResponse struct {
	Error string `json:"error"`
}

// okResponse ответ операций без тела
type okResponse struct {
	OK bool `json:"ok"`
}

// setCORS одинаковые CORS заголовки для успешных ответов и ошибок
func setCORS(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Admin-Token, X-Request-ID")
}

// writeJSON сериализует до записи заголовков, чтобы ошибку кодирования ещё можно было вернуть как 500
func writeJSON(w http.ResponseWriter, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	setCORS(w.Header())
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
	return nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	_ = writeJSON(w, status, errorResponse{Error: msg})
}

// resolveError сопоставляет ошибку со статусом и текстом для клиента.
// expected=false значит ошибка непредвиденная и её нужно залогировать.
func resolveError(err error) (status int, msg string, expected bool) {
	var se *base.StoreError

	switch {
	case errors.Is(err, service.ErrDuplicateUser):
		return http.StatusBadRequest, err.Error(), true
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, err.Error(), true
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, err.Error(), true
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, err.Error(), true
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusForbidden, err.Error(), true
	case errors.Is(err, base.ErrTimeout):
		return http.StatusGatewayTimeout, "store timeout", false
	case errors.As(err, &se) && se.Kind != base.KindOther:
		return http.StatusBadRequest, se.Message, true
	case errors.As(err, &se):
		return http.StatusInternalServerError, se.Message, false
	}

	return http.StatusInternalServerError, internalErrorMessage, false
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", service.ErrValidation, fmt.Sprintf(format, args...))
}
