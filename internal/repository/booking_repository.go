package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/booking_bot/internal/model"
	"github.com/Freeeeeet/booking_bot/internal/repository/base"
)

const bookingColumns = "id, user_id, date, time, created_at"

type BookingRepository struct {
	db base.Store
}

func NewBookingRepository(db base.Store) *BookingRepository {
	return &BookingRepository{db: db}
}

// With возвращает репозиторий, работающий внутри транзакции tx
func (r *BookingRepository) With(tx base.Store) *BookingRepository {
	return &BookingRepository{db: tx}
}

// Book занимает слот одной командой: вставляет строку или забирает открытый слот
// владельца openOwnerID. Возвращает nil, если слот уже занят кем-то другим.
func (r *BookingRepository) Book(ctx context.Context, userID int64, date, slotTime string, openOwnerID int64) (*model.Booking, error) {
	query := `
		INSERT INTO bookings (user_id, date, time)
		VALUES ($1, $2, $3)
		ON CONFLICT (date, time) DO UPDATE SET user_id = excluded.user_id
		WHERE bookings.user_id = $4
		RETURNING ` + bookingColumns

	row, err := r.db.QueryOne(ctx, query, userID, date, slotTime, openOwnerID)
	if err != nil {
		return nil, fmt.Errorf("book slot: %w", err)
	}
	return scanBooking(row), nil
}

// Claim передаёт существующий открытый слот пользователю. nil - открытого слота нет.
func (r *BookingRepository) Claim(ctx context.Context, userID int64, date, slotTime string, openOwnerID int64) (*model.Booking, error) {
	query := `
		UPDATE bookings
		SET user_id = $1
		WHERE date = $2 AND time = $3 AND user_id = $4
		RETURNING ` + bookingColumns

	row, err := r.db.QueryOne(ctx, query, userID, date, slotTime, openOwnerID)
	if err != nil {
		return nil, fmt.Errorf("claim slot: %w", err)
	}
	return scanBooking(row), nil
}

// InsertOpen открывает слот от имени ownerID. false - слот уже существует.
func (r *BookingRepository) InsertOpen(ctx context.Context, ownerID int64, date, slotTime string) (bool, error) {
	query := `
		INSERT INTO bookings (user_id, date, time)
		VALUES ($1, $2, $3)
		ON CONFLICT (date, time) DO NOTHING
		RETURNING id`

	row, err := r.db.QueryOne(ctx, query, ownerID, date, slotTime)
	if err != nil {
		return false, fmt.Errorf("insert open slot: %w", err)
	}
	return row != nil, nil
}

// GetByID получает бронирование по ID
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	row, err := r.db.QueryOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get booking by id: %w", err)
	}
	return scanBooking(row), nil
}

// GetByUserID получает все бронирования пользователя по порядку сетки
func (r *BookingRepository) GetByUserID(ctx context.Context, userID int64) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1
		ORDER BY date, time`

	rows, err := r.db.QueryAll(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get bookings by user: %w", err)
	}

	bookings := make([]*model.Booking, 0, len(rows))
	for _, row := range rows {
		bookings = append(bookings, scanBooking(row))
	}
	return bookings, nil
}

// HasBookingOnDate проверяет есть ли у пользователя запись на дату
func (r *BookingRepository) HasBookingOnDate(ctx context.Context, userID int64, date string) (bool, error) {
	row, err := r.db.QueryOne(ctx, `SELECT COUNT(*) AS n FROM bookings WHERE user_id = $1 AND date = $2`, userID, date)
	if err != nil {
		return false, fmt.Errorf("check user booking on date: %w", err)
	}
	return row.Int64("n") > 0, nil
}

// CountByUserID количество строк сетки, принадлежащих пользователю
func (r *BookingRepository) CountByUserID(ctx context.Context, userID int64) (int64, error) {
	row, err := r.db.QueryOne(ctx, `SELECT COUNT(*) AS n FROM bookings WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("count bookings by user: %w", err)
	}
	return row.Int64("n"), nil
}

// TakenTimes возвращает время занятых слотов на дату. Строки openOwnerID не считаются занятыми.
func (r *BookingRepository) TakenTimes(ctx context.Context, date string, openOwnerID int64) ([]string, error) {
	rows, err := r.db.QueryAll(ctx, `SELECT time FROM bookings WHERE date = $1 AND user_id <> $2`, date, openOwnerID)
	if err != nil {
		return nil, fmt.Errorf("get taken times: %w", err)
	}

	times := make([]string, 0, len(rows))
	for _, row := range rows {
		times = append(times, row.String("time"))
	}
	return times, nil
}

// Delete удаляет бронирование
func (r *BookingRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete booking: %w", err)
	}
	return result.RowsAffected > 0, nil
}

// DeleteByUserID удаляет все бронирования пользователя
func (r *BookingRepository) DeleteByUserID(ctx context.Context, userID int64) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete bookings by user: %w", err)
	}
	return result.RowsAffected, nil
}

func scanBooking(row base.Row) *model.Booking {
	if row == nil {
		return nil
	}
	return &model.Booking{
		ID:        row.Int64("id"),
		UserID:    row.Int64("user_id"),
		Date:      row.String("date"),
		Time:      row.String("time"),
		CreatedAt: row.Time("created_at"),
	}
}
