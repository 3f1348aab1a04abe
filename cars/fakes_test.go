package cars

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memStore is an in-memory Store for tests. It mirrors the ownership-scoped
// semantics of PGStore: updates and deletes match on id AND owner, and a miss
// is a silent no-op.
type memStore struct {
	mu   sync.Mutex
	cars map[uuid.UUID]*Car
	// clock makes creation order deterministic even within one nanosecond.
	clock int64
}

func newMemStore() *memStore {
	return &memStore{cars: make(map[uuid.UUID]*Car)}
}

func (s *memStore) Insert(_ context.Context, car *Car) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock++
	car.CreatedAt = time.Unix(0, s.clock)
	car.UpdatedAt = car.CreatedAt
	c := *car
	s.cars[car.ID] = &c
	return nil
}

func (s *memStore) Update(_ context.Context, car *Car) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.cars[car.ID]
	if !ok || existing.UserID != car.UserID {
		return nil
	}
	existing.Model = car.Model
	existing.Year = car.Year
	existing.MPG = car.MPG
	existing.Notes = car.Notes
	existing.Fuel = car.Fuel
	existing.IsElectric = car.IsElectric
	existing.Transmission = car.Transmission
	existing.UpdatedAt = time.Now()
	return nil
}

func (s *memStore) Delete(_ context.Context, id uuid.UUID, ownerID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.cars[id]; ok && existing.UserID == ownerID {
		delete(s.cars, id)
	}
	return nil
}

func (s *memStore) ListByOwner(_ context.Context, ownerID int) ([]Car, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := []Car{}
	for _, car := range s.cars {
		if car.UserID == ownerID {
			list = append(list, *car)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

// Helpers for building pointer-typed inputs in tests.
func strPtr(s string) *string     { return &s }
func intPtr(i int) *int           { return &i }
func floatPtr(f float64) *float64 { return &f }

func validInput() *CarInput {
	return &CarInput{
		Model: strPtr("Civic"),
		Year:  intPtr(2020),
		MPG:   floatPtr(35),
	}
}
