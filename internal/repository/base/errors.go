package base

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout возвращается, когда вызов хранилища не уложился в отведённое время
var ErrTimeout = errors.New("store call timed out")

// ErrorKind категория ошибки хранилища
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindConstraint
	KindUnique
)

// StoreError ошибка хранилища. Message содержит исходное сообщение драйвера.
type StoreError struct {
	Op      string
	Message string
	Kind    ErrorKind
	Err     error
}

func (e *StoreError) Error() string {
	return e.Message
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsUniqueViolation проверяет нарушение уникального ограничения
func IsUniqueViolation(err error) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Kind == KindUnique
}

// IsConstraint проверяет нарушение любого ограничения (unique, foreign key, check)
func IsConstraint(err error) bool {
	var se *StoreError
	return errors.As(err, &se) && (se.Kind == KindConstraint || se.Kind == KindUnique)
}

// guard ограничивает каждый вызов по времени и приводит ошибки драйвера к StoreError
type guard struct {
	timeout  time.Duration
	classify func(error) ErrorKind
}

func (g guard) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g guard) wrap(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrTimeout, op)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &StoreError{Op: op, Message: err.Error(), Kind: g.classify(err), Err: err}
}
