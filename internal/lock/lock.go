// Package lock сериализует операции по ключу: в пределах процесса (Memory)
// или между экземплярами через Redis.
package lock

import (
	"context"
	"sync"
)

// Locker захватывает блокировку по ключу. Возвращённую функцию нужно вызвать для освобождения.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Memory блокировки внутри одного процесса
type Memory struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func NewMemory() *Memory {
	return &Memory{locks: make(map[string]*keyLock)}
}

func (m *Memory) Lock(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		m.locks[key] = l
	}
	l.refs++
	m.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		m.release(key, l)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-l.ch
			m.release(key, l)
		})
	}, nil
}

func (m *Memory) release(key string, l *keyLock) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(m.locks, key)
	}
}

// Size количество ключей, по которым кто-то держит или ждёт блокировку
func (m *Memory) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
