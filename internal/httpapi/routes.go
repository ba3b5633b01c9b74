package httpapi

import (
	"net/http"

	"github.com/Freeeeeet/booking_bot/internal/httpapi/router"
)

var (
	userSchema = router.Object(
		[]string{"telegram_id", "phone", "name"},
		map[string]string{"telegram_id": "integer", "phone": "string", "name": "string", "role": "string"},
	)
	userPatchSchema = router.Object(nil, map[string]string{"name": "string", "phone": "string", "role": "string"})
	bookingSchema   = router.Object(
		[]string{"user_id", "date", "time"},
		map[string]string{"user_id": "integer", "date": "string", "time": "string"},
	)
	generateSchema = router.Object(nil, map[string]string{"days": "integer", "times": "[]string"})
)

func (s *Server) registerRoutes() {
	r := s.router
	usersTag := []string{"users"}
	bookingsTag := []string{"bookings"}
	slotsTag := []string{"slots"}
	metaTag := []string{"meta"}

	r.Options("/{path...}", s.preflight, router.Meta{Hidden: true})

	r.Get("/health", s.health, router.Meta{
		Summary:   "Health check",
		Tags:      metaTag,
		Responses: map[int]string{200: "Store is reachable", 503: "Store is unavailable"},
	})
	r.Get("/openapi.json", s.openAPI, router.Meta{Hidden: true})
	r.Get("/docs", s.docs, router.Meta{Hidden: true})
	r.Get("/metrics", s.metrics, router.Meta{Hidden: true})

	r.Get("/api/users", s.listUsers, router.Meta{
		Summary: "List users",
		Tags:    usersTag,
		Query: []router.QueryParam{
			{Name: "telegram_id", Type: "integer", Description: "Filter by Telegram ID"},
			{Name: "phone", Description: "Filter by phone"},
		},
		Responses: map[int]string{200: "Users, newest first", 400: "Invalid filter"},
	})
	r.Get("/api/users/{external_id}", s.getUser, router.Meta{
		Summary:   "Get user by Telegram ID",
		Tags:      usersTag,
		Responses: map[int]string{200: "User", 404: "User not found"},
	})
	r.Post("/api/users", s.resolveUser, router.Meta{
		Summary:     "Resolve or create user",
		Tags:        usersTag,
		RequestBody: userSchema,
		Responses:   map[int]string{200: "Existing user", 201: "User created", 400: "Missing fields"},
	})
	r.Post("/api/users/strict", s.createUser, router.Meta{
		Summary:     "Create user, rejecting duplicates",
		Tags:        usersTag,
		RequestBody: userSchema,
		Responses:   map[int]string{201: "User created", 400: "Missing fields or duplicate user"},
	})
	r.Put("/api/users/{id}", s.updateUser, router.Meta{
		Summary:     "Update user",
		Tags:        usersTag,
		RequestBody: userPatchSchema,
		Responses: map[int]string{
			200: "Updated user",
			400: "Invalid patch or phone in use",
			404: "User not found",
			409: "Role change conflicts with owned slots or bookings",
		},
	})
	r.Delete("/api/users/{external_id}", requireAdmin(s.opts.AdminToken, s.deleteUser), router.Meta{
		Summary:   "Delete user and their bookings",
		Tags:      usersTag,
		Responses: map[int]string{200: "Deleted", 403: "Admin token required", 404: "User not found"},
	})

	r.Get("/api/slots", s.listSlots, router.Meta{
		Summary:   "Available times for a date",
		Tags:      slotsTag,
		Query:     []router.QueryParam{{Name: "date", Required: true, Description: "YYYY-MM-DD"}},
		Responses: map[int]string{200: "Available times", 400: "Missing or malformed date"},
	})
	r.Post("/api/slots/claim", s.claimSlot, router.Meta{
		Summary:     "Claim a pre-opened slot",
		Tags:        slotsTag,
		RequestBody: bookingSchema,
		Responses:   map[int]string{201: "Slot claimed", 400: "Invalid request", 404: "No open slot", 409: "Already booked that day"},
	})
	r.Post("/api/generate-slots", requireAdmin(s.opts.AdminToken, s.generateSlots), router.Meta{
		Summary:     "Open slots for the coming days",
		Tags:        slotsTag,
		RequestBody: generateSchema,
		Responses:   map[int]string{200: "Generation counts", 400: "No admin user or invalid request", 403: "Admin token required"},
	})

	r.Get("/api/bookings", s.listBookings, router.Meta{
		Summary:   "Bookings of a user",
		Tags:      bookingsTag,
		Query:     []router.QueryParam{{Name: "user_id", Type: "integer", Required: true}},
		Responses: map[int]string{200: "Bookings ordered by date and time", 400: "Missing user_id"},
	})
	r.Get("/api/bookings/by-user/{external_id}", s.bookingsByTelegramID, router.Meta{
		Summary:   "Bookings of a user by Telegram ID",
		Tags:      bookingsTag,
		Responses: map[int]string{200: "Bookings ordered by date and time", 404: "User not found"},
	})
	r.Get("/api/bookings/{id}", s.getBooking, router.Meta{
		Summary:   "Get booking",
		Tags:      bookingsTag,
		Responses: map[int]string{200: "Booking", 404: "Booking not found"},
	})
	r.Post("/api/bookings", s.createBooking, router.Meta{
		Summary:     "Book a slot",
		Tags:        bookingsTag,
		RequestBody: bookingSchema,
		Responses: map[int]string{
			201: "Booking created",
			400: "Invalid request",
			404: "User not found",
			409: "Slot taken or already booked that day",
		},
	})
	r.Delete("/api/bookings/{id}", s.cancelBooking, router.Meta{
		Summary:   "Cancel booking",
		Tags:      bookingsTag,
		Responses: map[int]string{200: "Canceled", 404: "Booking not found"},
	})
}

func (s *Server) preflight(w http.ResponseWriter, _ *http.Request, _ router.Params) error {
	setCORS(w.Header())
	w.Header().Set("Access-Control-Max-Age", "86400")
	w.WriteHeader(http.StatusNoContent)
	return nil
}
