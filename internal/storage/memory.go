package storage

import (
	"context"
	"sort"
	"sync"

	"supplyguard/internal/models"
)

// MemoryStore is the in-process Store used by tests and local seeds.
type MemoryStore struct {
	mu        sync.RWMutex
	equipment []models.Equipment
	schedules []models.Schedule
	events    []models.NewsEvent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) SeedEquipment(items ...models.Equipment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.equipment = append(m.equipment, items...)
}

func (m *MemoryStore) SeedSchedules(items ...models.Schedule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules = append(m.schedules, items...)
}

func (m *MemoryStore) SeedNewsEvents(items ...models.NewsEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, items...)
}

func (m *MemoryStore) Equipment(ctx context.Context, f Filter) ([]models.Equipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Equipment
	for _, eq := range m.equipment {
		if matchesEquipment(eq, f) {
			out = append(out, eq)
		}
	}
	return limit(out, f.Limit), nil
}

func (m *MemoryStore) Schedules(ctx context.Context, f Filter) ([]models.Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Country and category filters on schedules go through the owning
	// equipment.
	byID := make(map[string]models.Equipment, len(m.equipment))
	for _, eq := range m.equipment {
		byID[eq.ID] = eq
	}

	var out []models.Schedule
	for _, s := range m.schedules {
		if f.Country != "" || f.Category != "" {
			eq, ok := byID[s.EquipmentID]
			if !ok || !matchesEquipment(eq, f) {
				continue
			}
		}
		out = append(out, s)
	}
	return limit(out, f.Limit), nil
}

func (m *MemoryStore) NewsEvents(ctx context.Context, f Filter) ([]models.NewsEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.NewsEvent
	for _, ev := range m.events {
		if matchesNews(ev, f) {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedDate.After(out[j].PublishedDate)
	})
	return limit(out, f.Limit), nil
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
