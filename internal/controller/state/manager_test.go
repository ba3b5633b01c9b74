package state

import (
	"testing"
	"time"
)

func newTestManager(ttl time.Duration) (*Manager, *time.Time) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	m := NewManager(ttl)
	m.now = func() time.Time { return now }
	return m, &now
}

func TestManagerLifecycle(t *testing.T) {
	m, _ := newTestManager(time.Minute)

	if got := m.Step(1); got != StepNone {
		t.Fatalf("Step() = %q, want none", got)
	}

	m.Start(1)
	if got := m.Step(1); got != StepDate {
		t.Fatalf("Step() after Start = %q, want %q", got, StepDate)
	}

	d, _ := m.Get(1)
	d.Step = StepTime
	d.Date = "2025-06-03"
	d.Slots = []string{"10:00", "11:00"}
	m.Save(1, d)

	got, ok := m.Get(1)
	if !ok || got.Step != StepTime || got.Date != "2025-06-03" || len(got.Slots) != 2 {
		t.Fatalf("Get() = %+v, %v", got, ok)
	}

	// копия не влияет на хранимый черновик
	got.Slots[0] = "changed"
	again, _ := m.Get(1)
	if again.Slots[0] != "10:00" {
		t.Errorf("stored draft was mutated through a copy")
	}

	m.Save(1, Draft{Step: StepNone})
	if _, ok := m.Get(1); ok {
		t.Error("Save(StepNone) must remove the draft")
	}
}

func TestManagerIsolatesUsers(t *testing.T) {
	m, _ := newTestManager(time.Minute)

	m.Start(1)
	m.Save(2, Draft{Step: StepName, Date: "2025-06-03", Time: "10:00"})
	m.Clear(1)

	if m.Step(1) != StepNone {
		t.Error("user 1 must have no dialog after Clear")
	}
	if m.Step(2) != StepName {
		t.Error("user 2 dialog must survive Clear of user 1")
	}
}

func TestManagerTTL(t *testing.T) {
	m, now := newTestManager(time.Minute)

	m.Start(1)
	m.Start(2)
	*now = now.Add(30 * time.Second)
	m.Save(2, Draft{Step: StepTime})

	*now = now.Add(45 * time.Second)
	if _, ok := m.Get(1); ok {
		t.Error("draft older than ttl must be treated as absent")
	}
	if m.Step(2) != StepTime {
		t.Error("recently saved draft must be kept")
	}

	if removed := m.Prune(); removed != 1 {
		t.Errorf("Prune() = %d, want 1", removed)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
}
