package httpapi

import (
	"net/http"
	"strconv"

	"github.com/Freeeeeet/booking_bot/internal/httpapi/router"
)

type bookingRequest struct {
	UserID int64  `json:"user_id" validate:"required,gt=0"`
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
	Time   string `json:"time" validate:"required,datetime=15:04"`
}

type generateSlotsRequest struct {
	Days  int      `json:"days" validate:"omitempty,min=1,max=366"`
	Times []string `json:"times" validate:"omitempty,dive,datetime=15:04"`
}

func (s *Server) listSlots(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	date := r.URL.Query().Get("date")
	if date == "" {
		return badRequest("date query parameter is required")
	}

	availability, err := s.bookings.ListAvailableSlots(r.Context(), date)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, availability)
}

func (s *Server) claimSlot(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	var req bookingRequest
	if err := s.validate.decodeBody(r, &req, false, false); err != nil {
		return err
	}

	booking, err := s.bookings.AssignSlot(r.Context(), req.UserID, req.Date, req.Time)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, booking)
}

func (s *Server) generateSlots(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	var req generateSlotsRequest
	if err := s.validate.decodeBody(r, &req, true, false); err != nil {
		return err
	}
	if req.Days == 0 {
		req.Days = s.opts.DefaultDays
	}

	result, err := s.bookings.GenerateSlots(r.Context(), req.Days, req.Times)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, result)
}

func (s *Server) listBookings(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		return badRequest("user_id query parameter is required")
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return badRequest("user_id must be an integer")
	}

	bookings, err := s.bookings.ListByUser(r.Context(), userID)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, bookings)
}

func (s *Server) bookingsByTelegramID(w http.ResponseWriter, r *http.Request, p router.Params) error {
	telegramID, err := p.Int64("external_id")
	if err != nil {
		return badRequest("%v", err)
	}

	bookings, err := s.bookings.ListByTelegramID(r.Context(), telegramID)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, bookings)
}

func (s *Server) getBooking(w http.ResponseWriter, r *http.Request, p router.Params) error {
	id, err := p.Int64("id")
	if err != nil {
		return badRequest("%v", err)
	}

	booking, err := s.bookings.GetByID(r.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, booking)
}

func (s *Server) createBooking(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	var req bookingRequest
	if err := s.validate.decodeBody(r, &req, false, false); err != nil {
		return err
	}

	booking, err := s.bookings.CreateBooking(r.Context(), req.UserID, req.Date, req.Time)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, booking)
}

func (s *Server) cancelBooking(w http.ResponseWriter, r *http.Request, p router.Params) error {
	id, err := p.Int64("id")
	if err != nil {
		return badRequest("%v", err)
	}

	if err := s.bookings.CancelBooking(r.Context(), id); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, okResponse{OK: true})
}
