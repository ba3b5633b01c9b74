package httpapi

import (
	"net/http"
	"strconv"

	"github.com/Freeeeeet/booking_bot/internal/httpapi/router"
	"github.com/Freeeeeet/booking_bot/internal/model"
	"github.com/Freeeeeet/booking_bot/internal/service"
)

type userRequest struct {
	TelegramID int64  `json:"telegram_id" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Role       string `json:"role" validate:"omitempty,oneof=admin user"`
}

func (req userRequest) input() service.UserInput {
	return service.UserInput{
		TelegramID: req.TelegramID,
		Phone:      req.Phone,
		Name:       req.Name,
		Role:       model.Role(req.Role),
	}
}

// userPatchRequest только разрешённые для изменения поля, остальные отклоняются декодером
type userPatchRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
	Role  *string `json:"role"`
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	q := r.URL.Query()

	var filter model.UserFilter
	if v := q.Get("telegram_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return badRequest("telegram_id must be an integer")
		}
		filter.TelegramID = &id
	}
	filter.Phone = q.Get("phone")

	users, err := s.users.List(r.Context(), filter)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, users)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request, p router.Params) error {
	telegramID, err := p.Int64("external_id")
	if err != nil {
		return badRequest("%v", err)
	}

	user, err := s.users.GetByTelegramID(r.Context(), telegramID)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, user)
}

func (s *Server) resolveUser(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	var req userRequest
	if err := s.validate.decodeBody(r, &req, false, false); err != nil {
		return err
	}

	user, created, err := s.users.Resolve(r.Context(), req.input())
	if err != nil {
		return err
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return writeJSON(w, status, user)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	var req userRequest
	if err := s.validate.decodeBody(r, &req, false, false); err != nil {
		return err
	}

	user, err := s.users.Create(r.Context(), req.input())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, user)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request, p router.Params) error {
	id, err := p.Int64("id")
	if err != nil {
		return badRequest("%v", err)
	}

	var req userPatchRequest
	if err := s.validate.decodeBody(r, &req, true, true); err != nil {
		return err
	}

	patch := model.UserPatch{Name: req.Name, Phone: req.Phone}
	if req.Role != nil {
		role := model.Role(*req.Role)
		patch.Role = &role
	}

	user, err := s.users.Update(r.Context(), id, patch)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, user)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request, p router.Params) error {
	telegramID, err := p.Int64("external_id")
	if err != nil {
		return badRequest("%v", err)
	}

	if err := s.users.DeleteByTelegramID(r.Context(), telegramID); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, okResponse{OK: true})
}
