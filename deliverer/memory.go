package deliverer

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu        sync.RWMutex
	nextID    int64
	byID      map[int64]Deliverer
	byName    map[string]int64
	locations map[int64][]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:    1,
		byID:      make(map[int64]Deliverer),
		byName:    make(map[string]int64),
		locations: make(map[int64][]string),
	}
}

// CreateDeliverer implements Store.
func (m *MemoryStore) CreateDeliverer(ctx context.Context, name string) (Deliverer, error) {
	name, err := normalizeName(name)
	if err != nil {
		return Deliverer{}, err
	}
	if err := ctx.Err(); err != nil {
		return Deliverer{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[name]; ok {
		return Deliverer{}, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	d := Deliverer{ID: m.nextID, Name: name}
	m.nextID++
	m.byID[d.ID] = d
	m.byName[name] = d.ID
	return d, nil
}

// ByName implements Store.
func (m *MemoryStore) ByName(ctx context.Context, name string) (Deliverer, error) {
	name, err := normalizeName(name)
	if err != nil {
		return Deliverer{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byName[name]
	if !ok {
		return Deliverer{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return m.byID[id], nil
}

// AddLocation implements Store.
func (m *MemoryStore) AddLocation(ctx context.Context, delivererID int64, location string) error {
	if err := checkLocation(location); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[delivererID]; !ok {
		return fmt.Errorf("%w: id %d", ErrNotFound, delivererID)
	}
	m.locations[delivererID] = append(m.locations[delivererID], location)
	return nil
}

// Locations implements Store.
func (m *MemoryStore) Locations(ctx context.Context, delivererID int64) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.byID[delivererID]; !ok {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, delivererID)
	}
	return slices.Clone(m.locations[delivererID]), nil
}

// List implements Store.
func (m *MemoryStore) List(ctx context.Context) ([]Deliverer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Deliverer, 0, len(m.byID))
	for _, d := range m.byID {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b Deliverer) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out, nil
}

var _ Store = (*MemoryStore)(nil)
