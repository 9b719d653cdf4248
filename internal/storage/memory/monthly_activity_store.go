package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"linea-analytics/internal/domain"
	"linea-analytics/internal/storage"
)

// MonthlyActivityStore is an in-memory implementation of
// storage.MonthlyActivityStore.
type MonthlyActivityStore struct {
	mu   sync.RWMutex
	data map[string]*domain.MonthlyActivity // keyed by (user, month)
}

// NewMonthlyActivityStore creates a new in-memory monthly activity store.
func NewMonthlyActivityStore() *MonthlyActivityStore {
	return &MonthlyActivityStore{data: make(map[string]*domain.MonthlyActivity)}
}

var _ storage.MonthlyActivityStore = (*MonthlyActivityStore)(nil)

func activityKey(a *domain.MonthlyActivity) string {
	return fmt.Sprintf("%s/%s", a.UserAddress, a.ActivityMonth)
}

// InsertBulk adds activity rows atomically. Fails the entire batch on any
// duplicate (user, month).
func (s *MonthlyActivityStore) InsertBulk(_ context.Context, rows []*domain.MonthlyActivity) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[string]struct{}, len(rows))
	for _, a := range rows {
		if a == nil || a.UserAddress == "" {
			return storage.ErrInvalidInput
		}
		key := activityKey(a)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batch[key]; exists {
			return storage.ErrDuplicateKey
		}
		batch[key] = struct{}{}
	}

	for _, a := range rows {
		cp := *a
		s.data[activityKey(a)] = &cp
	}
	return nil
}

// GetAll retrieves all rows ordered by user address, activity month.
func (s *MonthlyActivityStore) GetAll(_ context.Context) ([]*domain.MonthlyActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.MonthlyActivity, 0, len(s.data))
	for _, a := range s.data {
		cp := *a
		result = append(result, &cp)
	}
	sortActivity(result)
	return result, nil
}

// GetByUser retrieves one user's activity ordered by month.
func (s *MonthlyActivityStore) GetByUser(_ context.Context, userAddress string) ([]*domain.MonthlyActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MonthlyActivity
	for _, a := range s.data {
		if a.UserAddress == userAddress {
			cp := *a
			result = append(result, &cp)
		}
	}
	sortActivity(result)
	return result, nil
}

// Truncate removes all rows.
func (s *MonthlyActivityStore) Truncate(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]*domain.MonthlyActivity)
	return nil
}

func sortActivity(rows []*domain.MonthlyActivity) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].UserAddress != rows[j].UserAddress {
			return rows[i].UserAddress < rows[j].UserAddress
		}
		return rows[i].ActivityMonth.Before(rows[j].ActivityMonth)
	})
}
