package state

import (
	"sync"
	"time"
)

// DefaultTTL через сколько брошенный диалог забывается
const DefaultTTL = 30 * time.Minute

// Manager хранит черновики записи пользователей
type Manager struct {
	mu     sync.RWMutex
	drafts map[int64]*Draft // telegramID -> Draft
	ttl    time.Duration
	now    func() time.Time
}

// NewManager создаёт новый менеджер состояний
func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		drafts: make(map[int64]*Draft),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Get возвращает копию черновика. Просроченный черновик считается отсутствующим.
func (sm *Manager) Get(telegramID int64) (Draft, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	d, ok := sm.drafts[telegramID]
	if !ok || sm.expired(d) {
		return Draft{}, false
	}
	cp := *d
	cp.Slots = append([]string(nil), d.Slots...)
	return cp, true
}

// Step текущий шаг пользователя
func (sm *Manager) Step(telegramID int64) Step {
	d, ok := sm.Get(telegramID)
	if !ok {
		return StepNone
	}
	return d.Step
}

// Start начинает новый диалог, старый черновик отбрасывается
func (sm *Manager) Start(telegramID int64) {
	sm.Save(telegramID, Draft{Step: StepDate})
}

// Save сохраняет черновик. StepNone удаляет запись.
func (sm *Manager) Save(telegramID int64, d Draft) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if d.Step == StepNone {
		delete(sm.drafts, telegramID)
		return
	}
	d.Slots = append([]string(nil), d.Slots...)
	d.UpdatedAt = sm.now()
	sm.drafts[telegramID] = &d
}

// Clear очищает диалог пользователя
func (sm *Manager) Clear(telegramID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	delete(sm.drafts, telegramID)
}

// Prune удаляет просроченные черновики, возвращает сколько удалено
func (sm *Manager) Prune() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	removed := 0
	for id, d := range sm.drafts {
		if sm.expired(d) {
			delete(sm.drafts, id)
			removed++
		}
	}
	return removed
}

// Len количество хранимых черновиков
func (sm *Manager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.drafts)
}

func (sm *Manager) expired(d *Draft) bool {
	return sm.now().Sub(d.UpdatedAt) > sm.ttl
}
