package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/", nil)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestFindUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users" {
			t.Errorf("path = %s", r.URL.Path)
		}
		switch {
		case r.URL.Query().Get("telegram_id") == "42":
			writeJSON(w, http.StatusOK, []map[string]any{{"id": 7, "telegram_id": 42, "phone": "+1", "name": "Ann", "role": "user"}})
		case r.URL.Query().Get("phone") == "+1 555":
			writeJSON(w, http.StatusOK, []map[string]any{{"id": 8, "telegram_id": 43}})
		default:
			writeJSON(w, http.StatusOK, []any{})
		}
	})
	ctx := context.Background()

	user, err := c.FindUserByTelegramID(ctx, 42)
	if err != nil {
		t.Fatalf("FindUserByTelegramID() error = %v", err)
	}
	if user == nil || user.ID != 7 || user.Name != "Ann" {
		t.Errorf("FindUserByTelegramID() = %+v", user)
	}

	user, err = c.FindUserByPhone(ctx, "+1 555")
	if err != nil {
		t.Fatalf("FindUserByPhone() error = %v", err)
	}
	if user == nil || user.ID != 8 {
		t.Errorf("FindUserByPhone() = %+v", user)
	}

	user, err = c.FindUserByTelegramID(ctx, 1)
	if err != nil || user != nil {
		t.Errorf("FindUserByTelegramID(unknown) = %+v, %v; want nil, nil", user, err)
	}
}

func TestResolveUserSendsBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/users" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["telegram_id"] != float64(42) || body["phone"] != "+100" || body["name"] != "Ann" || body["role"] != "user" {
			t.Errorf("body = %v", body)
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": 3, "telegram_id": 42})
	})

	user, err := c.ResolveUser(context.Background(), 42, "+100", "Ann")
	if err != nil {
		t.Fatalf("ResolveUser() error = %v", err)
	}
	if user.ID != 3 {
		t.Errorf("ID = %d, want 3", user.ID)
	}
}

func TestSlots(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("date"); got != "2025-06-02" {
			t.Errorf("date = %q", got)
		}
		writeJSON(w, http.StatusOK, map[string]any{"date": "2025-06-02", "available": []string{"10:00", "12:00"}})
	})

	slots, err := c.Slots(context.Background(), "2025-06-02")
	if err != nil {
		t.Fatalf("Slots() error = %v", err)
	}
	if len(slots) != 2 || slots[0] != "10:00" || slots[1] != "12:00" {
		t.Errorf("Slots() = %v", slots)
	}
}

func TestCreateBookingConflict(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "slot already taken"})
	})

	_, err := c.CreateBooking(context.Background(), 1, "2025-06-02", "10:00")
	if err == nil {
		t.Fatal("CreateBooking() error = nil, want conflict")
	}
	if StatusOf(err) != http.StatusConflict {
		t.Errorf("StatusOf() = %d, want 409", StatusOf(err))
	}
	apiErr, ok := err.(*Error)
	if !ok || apiErr.Message != "slot already taken" {
		t.Errorf("err = %#v", err)
	}
}

func TestBookingsAndCancel(t *testing.T) {
	var deleted string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/bookings/by-user/42":
			writeJSON(w, http.StatusOK, []map[string]any{
				{"id": 1, "user_id": 5, "date": "2025-06-02", "time": "10:00"},
				{"id": 2, "user_id": 5, "date": "2025-06-03", "time": "11:00"},
			})
		case r.Method == http.MethodDelete:
			deleted = r.URL.Path
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	bookings, err := c.BookingsByTelegramID(ctx, 42)
	if err != nil {
		t.Fatalf("BookingsByTelegramID() error = %v", err)
	}
	if len(bookings) != 2 || bookings[1].Time != "11:00" {
		t.Errorf("bookings = %+v", bookings)
	}

	if err := c.CancelBooking(ctx, 2); err != nil {
		t.Fatalf("CancelBooking() error = %v", err)
	}
	if deleted != "/api/bookings/2" {
		t.Errorf("deleted path = %q", deleted)
	}
}

func TestPlainTextError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	err := c.CancelBooking(context.Background(), 1)
	apiErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("err = %#v, want *Error", err)
	}
	if apiErr.Status != http.StatusBadGateway || apiErr.Message != "bad gateway" {
		t.Errorf("err = %+v", apiErr)
	}
}
