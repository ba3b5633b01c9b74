// Package apiclient HTTP клиент API бронирований, через него работает бот.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/booking_bot/internal/model"
)

const defaultTimeout = 10 * time.Second

// Error ответ API со статусом не 2xx
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// StatusOf возвращает HTTP статус ошибки API, 0 - ошибка не от API
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New создаёт клиент. baseURL указывает на префикс /api, например http://localhost:8080/api
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// FindUserByTelegramID ищет пользователя по Telegram ID, nil если нет
func (c *Client) FindUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	return c.findUser(ctx, url.Values{"telegram_id": {strconv.FormatInt(telegramID, 10)}})
}

// FindUserByPhone ищет пользователя по телефону, nil если нет
func (c *Client) FindUserByPhone(ctx context.Context, phone string) (*model.User, error) {
	return c.findUser(ctx, url.Values{"phone": {phone}})
}

func (c *Client) findUser(ctx context.Context, query url.Values) (*model.User, error) {
	var users []*model.User
	if err := c.do(ctx, http.MethodGet, "/users?"+query.Encode(), nil, &users); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return users[0], nil
}

// ResolveUser возвращает существующего пользователя (по telegram_id или телефону) или создаёт нового
func (c *Client) ResolveUser(ctx context.Context, telegramID int64, phone, name string) (*model.User, error) {
	body := map[string]any{
		"telegram_id": telegramID,
		"phone":       phone,
		"name":        name,
		"role":        model.RoleUser,
	}

	var user model.User
	if err := c.do(ctx, http.MethodPost, "/users", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Slots свободное время на дату
func (c *Client) Slots(ctx context.Context, date string) ([]string, error) {
	var availability model.Availability
	path := "/slots?" + url.Values{"date": {date}}.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &availability); err != nil {
		return nil, err
	}
	return availability.Available, nil
}

// CreateBooking бронирует слот
func (c *Client) CreateBooking(ctx context.Context, userID int64, date, slotTime string) (*model.Booking, error) {
	body := map[string]any{"user_id": userID, "date": date, "time": slotTime}

	var booking model.Booking
	if err := c.do(ctx, http.MethodPost, "/bookings", body, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// BookingsByTelegramID записи пользователя по Telegram ID
func (c *Client) BookingsByTelegramID(ctx context.Context, telegramID int64) ([]*model.Booking, error) {
	var bookings []*model.Booking
	path := "/bookings/by-user/" + strconv.FormatInt(telegramID, 10)
	if err := c.do(ctx, http.MethodGet, path, nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// CancelBooking удаляет запись
func (c *Client) CancelBooking(ctx context.Context, bookingID int64) error {
	return c.do(ctx, http.MethodDelete, "/bookings/"+strconv.FormatInt(bookingID, 10), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var envelope struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error != "" {
		msg = envelope.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &Error{Status: resp.StatusCode, Message: msg}
}
