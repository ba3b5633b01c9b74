package service_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/booking_bot/internal/lock"
	"github.com/Freeeeeet/booking_bot/internal/model"
	"github.com/Freeeeeet/booking_bot/internal/repository"
	"github.com/Freeeeeet/booking_bot/internal/repository/base"
	"github.com/Freeeeeet/booking_bot/internal/service"
	"go.uber.org/zap"
)

func TestGenerateSlots_MondayWeek(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, 1, model.RoleAdmin)

	got, err := f.bookings.GenerateSlots(ctx, 7, []string{"10:00", "11:00"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	want := &model.SlotGeneration{Days: 7, Generated: 10, SkippedWeekendDays: 2, SkippedExistingSlots: 0}
	if *got != *want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestGenerateSlots_SecondRunInsertsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, 1, model.RoleAdmin)

	if _, err := f.bookings.GenerateSlots(ctx, 7, []string{"10:00", "11:00"}); err != nil {
		t.Fatalf("first run: %v", err)
	}

	got, err := f.bookings.GenerateSlots(ctx, 7, []string{"11:00", "10:00"})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if got.Generated != 0 || got.SkippedExistingSlots != 10 || got.SkippedWeekendDays != 2 {
		t.Fatalf("unexpected second run result %+v", got)
	}

	rows, err := f.store.QueryAll(ctx, `SELECT id FROM bookings`)
	if err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if len(rows) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(rows))
	}
}

func TestGenerateSlots_NeverOnWeekends(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, 1, model.RoleAdmin)

	for _, start := range []time.Time{monday, monday.AddDate(0, 0, 4), monday.AddDate(0, 0, 5), monday.AddDate(0, 0, 6)} {
		start := start
		f.bookings.SetClock(func() time.Time { return start })
		if _, err := f.bookings.GenerateSlots(ctx, 30, nil); err != nil {
			t.Fatalf("generate from %s: %v", start.Format(model.DateLayout), err)
		}
	}

	rows, err := f.store.QueryAll(ctx, `SELECT date FROM bookings`)
	if err != nil {
		t.Fatalf("list rows: %v", err)
	}
	if len(rows) == 0 {
		t.Fatal("expected generated rows")
	}
	for _, row := range rows {
		d, err := time.Parse(model.DateLayout, row.String("date"))
		if err != nil {
			t.Fatalf("bad date %q: %v", row.String("date"), err)
		}
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Fatalf("slot generated on %s (%s)", row.String("date"), wd)
		}
	}
}

func TestGenerateSlots_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.bookings.GenerateSlots(ctx, 7, nil); !errors.Is(err, service.ErrNoAdmin) || !errors.Is(err, service.ErrValidation) {
		t.Fatalf("expected no admin validation error, got %v", err)
	}

	f.user(t, 1, model.RoleAdmin)

	tests := []struct {
		name  string
		days  int
		times []string
	}{
		{name: "zero days", days: 0},
		{name: "too many days", days: 1000},
		{name: "bad time", days: 3, times: []string{"25:00"}},
		{name: "time without padding", days: 3, times: []string{"9:00"}},
		{name: "time outside the grid", days: 3, times: []string{"10:00", "09:30"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.bookings.GenerateSlots(ctx, tt.days, tt.times); !errors.Is(err, service.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestGenerateSlots_OffGridTimeInsertsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, 1, model.RoleAdmin)

	if _, err := f.bookings.GenerateSlots(ctx, 1, []string{"09:30"}); !errors.Is(err, service.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	// Ни одной строки не создано: следующая генерация вставляет всю сетку
	got, err := f.bookings.GenerateSlots(ctx, 1, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got.Generated != len(model.DefaultSlotTimes) || got.SkippedExistingSlots != 0 {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestListAvailableSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, 1, model.RoleAdmin)
	alice := f.user(t, 2, model.RoleUser)

	// Открытые слоты администратора не занимают сетку
	if _, err := f.bookings.GenerateSlots(ctx, 1, nil); err != nil {
		t.Fatalf("generate: %v", err)
	}

	all, err := f.bookings.ListAvailableSlots(ctx, "2025-06-02")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !reflect.DeepEqual(all.Available, model.DefaultSlotTimes) {
		t.Fatalf("expected full grid, got %v", all.Available)
	}

	if _, err := f.bookings.CreateBooking(ctx, alice.ID, "2025-06-02", "11:00"); err != nil {
		t.Fatalf("book: %v", err)
	}

	want := []string{"10:00", "12:00", "14:00", "15:00", "16:00"}
	for i := 0; i < 2; i++ {
		got, err := f.bookings.ListAvailableSlots(ctx, "2025-06-02")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if got.Date != "2025-06-02" || !reflect.DeepEqual(got.Available, want) {
			t.Fatalf("call %d: got %+v, want %v", i, got, want)
		}
	}

	other, err := f.bookings.ListAvailableSlots(ctx, "2025-06-03")
	if err != nil {
		t.Fatalf("list other date: %v", err)
	}
	if !reflect.DeepEqual(other.Available, model.DefaultSlotTimes) {
		t.Fatalf("other date should be free, got %v", other.Available)
	}
}

func TestListAvailableSlots_InvalidDate(t *testing.T) {
	f := newFixture(t)

	for _, date := range []string{"", "2025-6-2", "02.06.2025", "2025-02-30"} {
		if _, err := f.bookings.ListAvailableSlots(context.Background(), date); !errors.Is(err, service.ErrValidation) {
			t.Fatalf("date %q: expected validation error, got %v", date, err)
		}
	}
}

func TestCreateBooking_SlotTaken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1 := f.user(t, 1, model.RoleUser)
	u2 := f.user(t, 2, model.RoleUser)

	if _, err := f.bookings.CreateBooking(ctx, u1.ID, "2025-06-02", "10:00"); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	_, err := f.bookings.CreateBooking(ctx, u2.ID, "2025-06-02", "10:00")
	if !errors.Is(err, service.ErrSlotTaken) || !errors.Is(err, service.ErrConflict) {
		t.Fatalf("expected slot taken conflict, got %v", err)
	}
}

func TestCreateBooking_OnePerDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, 1, model.RoleUser)

	if _, err := f.bookings.CreateBooking(ctx, u.ID, "2025-06-02", "10:00"); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	_, err := f.bookings.CreateBooking(ctx, u.ID, "2025-06-02", "15:00")
	if !errors.Is(err, service.ErrAlreadyBookedThatDay) || !errors.Is(err, service.ErrConflict) {
		t.Fatalf("expected same day conflict, got %v", err)
	}

	if _, err := f.bookings.CreateBooking(ctx, u.ID, "2025-06-03", "15:00"); err != nil {
		t.Fatalf("next day should be allowed: %v", err)
	}
}

func TestCreateBooking_ConcurrentSameSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 10
	users := make([]*model.User, n)
	for i := range users {
		users[i] = f.user(t, int64(100+i), model.RoleUser)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for _, u := range users {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := f.bookings.CreateBooking(ctx, userID, "2025-06-04", "12:00")

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, service.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(u.ID)
	}
	wg.Wait()

	if successes != 1 || conflicts != n-1 {
		t.Fatalf("expected 1 success and %d conflicts, got %d and %d", n-1, successes, conflicts)
	}
}

func TestCreateBooking_ConcurrentSameUserSameDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, 1, model.RoleUser)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for _, slot := range model.DefaultSlotTimes {
		wg.Add(1)
		go func(slot string) {
			defer wg.Done()
			_, err := f.bookings.CreateBooking(ctx, u.ID, "2025-06-05", slot)
			if err != nil && !errors.Is(err, service.ErrAlreadyBookedThatDay) {
				t.Errorf("unexpected error: %v", err)
			}
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}(slot)
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly one booking for the day, got %d", successes)
	}
}

func TestCreateBooking_ClaimsOpenSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, 1, model.RoleAdmin)
	u := f.user(t, 2, model.RoleUser)

	if _, err := f.bookings.GenerateSlots(ctx, 1, []string{"10:00"}); err != nil {
		t.Fatalf("generate: %v", err)
	}

	open, err := f.store.QueryOne(ctx, `SELECT id, user_id FROM bookings WHERE date = $1 AND time = $2`, "2025-06-02", "10:00")
	if err != nil || open == nil {
		t.Fatalf("open slot missing: %v", err)
	}
	if open.Int64("user_id") != admin.ID {
		t.Fatalf("open slot should belong to admin")
	}

	b, err := f.bookings.CreateBooking(ctx, u.ID, "2025-06-02", "10:00")
	if err != nil {
		t.Fatalf("book open slot: %v", err)
	}
	if b.ID != open.Int64("id") || b.UserID != u.ID {
		t.Fatalf("expected claimed row %d for user %d, got %+v", open.Int64("id"), u.ID, b)
	}
}

func TestAssignSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, 1, model.RoleAdmin)
	u1 := f.user(t, 2, model.RoleUser)
	u2 := f.user(t, 3, model.RoleUser)

	_, err := f.bookings.AssignSlot(ctx, u1.ID, "2025-06-02", "10:00")
	if !errors.Is(err, service.ErrNoOpenSlot) || !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected not found without open slot, got %v", err)
	}

	if _, err := f.bookings.GenerateSlots(ctx, 1, nil); err != nil {
		t.Fatalf("generate: %v", err)
	}

	b, err := f.bookings.AssignSlot(ctx, u1.ID, "2025-06-02", "10:00")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if b.UserID != u1.ID {
		t.Fatalf("expected owner %d, got %d", u1.ID, b.UserID)
	}

	if _, err := f.bookings.AssignSlot(ctx, u2.ID, "2025-06-02", "10:00"); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("claimed slot is no longer open, got %v", err)
	}
}

func TestCreateBooking_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, 1, model.RoleAdmin)
	u := f.user(t, 2, model.RoleUser)

	tests := []struct {
		name    string
		userID  int64
		date    string
		time    string
		wantErr error
	}{
		{name: "missing user", userID: 0, date: "2025-06-02", time: "10:00", wantErr: service.ErrValidation},
		{name: "bad date", userID: u.ID, date: "2025/06/02", time: "10:00", wantErr: service.ErrValidation},
		{name: "time outside grid", userID: u.ID, date: "2025-06-02", time: "13:00", wantErr: service.ErrValidation},
		{name: "unknown user", userID: 999, date: "2025-06-02", time: "10:00", wantErr: service.ErrNotFound},
		{name: "admin cannot book", userID: admin.ID, date: "2025-06-02", time: "10:00", wantErr: service.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.bookings.CreateBooking(ctx, tt.userID, tt.date, tt.time)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCreateBooking_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, 1, model.RoleUser)

	created, err := f.bookings.CreateBooking(ctx, u.ID, "2025-06-06", "16:00")
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	got, err := f.bookings.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Date != created.Date || got.Time != created.Time || got.UserID != created.UserID {
		t.Fatalf("round trip mismatch: created %+v, got %+v", created, got)
	}
}

func TestCancelBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, 1, model.RoleUser)

	b, err := f.bookings.CreateBooking(ctx, u.ID, "2025-06-02", "10:00")
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	if err := f.bookings.CancelBooking(ctx, b.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := f.bookings.CancelBooking(ctx, b.ID); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("second cancel should be not found, got %v", err)
	}
	if _, err := f.bookings.GetByID(ctx, b.ID); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("canceled booking should be gone, got %v", err)
	}

	// После отмены слот снова свободен
	if _, err := f.bookings.CreateBooking(ctx, u.ID, "2025-06-02", "10:00"); err != nil {
		t.Fatalf("rebook after cancel: %v", err)
	}
}

func TestListBookings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, 42, model.RoleUser)

	for _, d := range []struct{ date, time string }{
		{"2025-06-04", "10:00"},
		{"2025-06-02", "15:00"},
		{"2025-06-03", "11:00"},
	} {
		if _, err := f.bookings.CreateBooking(ctx, u.ID, d.date, d.time); err != nil {
			t.Fatalf("book %s %s: %v", d.date, d.time, err)
		}
	}

	byID, err := f.bookings.ListByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	byTelegram, err := f.bookings.ListByTelegramID(ctx, 42)
	if err != nil {
		t.Fatalf("list by telegram id: %v", err)
	}

	wantDates := []string{"2025-06-02", "2025-06-03", "2025-06-04"}
	for _, list := range [][]*model.Booking{byID, byTelegram} {
		if len(list) != len(wantDates) {
			t.Fatalf("expected %d bookings, got %d", len(wantDates), len(list))
		}
		for i, b := range list {
			if b.Date != wantDates[i] {
				t.Fatalf("bookings not ordered by date: %v", list)
			}
		}
	}

	if _, err := f.bookings.ListByTelegramID(ctx, 7); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("unknown telegram id should be not found, got %v", err)
	}
	if _, err := f.bookings.ListByUser(ctx, 0); !errors.Is(err, service.ErrValidation) {
		t.Fatalf("missing user id should be validation error, got %v", err)
	}
}

// stuckLocker никогда не отдаёт блокировку, ждёт отмены контекста
type stuckLocker struct{}

func (stuckLocker) Lock(ctx context.Context, _ string) (func(), error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

var _ lock.Locker = stuckLocker{}

func TestCreateBooking_LockWaitDeadlineIsTimeout(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, 1, model.RoleUser)

	bookings := service.NewBookingService(f.store,
		repository.NewUserRepository(f.store),
		repository.NewBookingRepository(f.store),
		stuckLocker{}, model.DefaultSlotTimes, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := bookings.CreateBooking(ctx, u.ID, "2025-06-02", "10:00")
	if !errors.Is(err, base.ErrTimeout) {
		t.Fatalf("expected store timeout, got %v", err)
	}
}
