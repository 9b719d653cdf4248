package memory

import (
	"context"
	"sort"
	"sync"

	"linea-analytics/internal/domain"
	"linea-analytics/internal/storage"
)

// UserSegmentStore is an in-memory implementation of storage.UserSegmentStore.
type UserSegmentStore struct {
	mu   sync.RWMutex
	data map[string]*domain.UserSegment // keyed by user address
}

// NewUserSegmentStore creates a new in-memory user segment store.
func NewUserSegmentStore() *UserSegmentStore {
	return &UserSegmentStore{data: make(map[string]*domain.UserSegment)}
}

var _ storage.UserSegmentStore = (*UserSegmentStore)(nil)

// InsertBulk adds segments atomically. Fails the entire batch on any
// duplicate user address.
func (s *UserSegmentStore) InsertBulk(_ context.Context, users []*domain.UserSegment) error {
	if len(users) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[string]struct{}, len(users))
	for _, u := range users {
		if u == nil || u.UserAddress == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[u.UserAddress]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batch[u.UserAddress]; exists {
			return storage.ErrDuplicateKey
		}
		batch[u.UserAddress] = struct{}{}
	}

	for _, u := range users {
		cp := *u
		s.data[u.UserAddress] = &cp
	}
	return nil
}

// GetAll retrieves all user segments ordered by user address.
func (s *UserSegmentStore) GetAll(_ context.Context) ([]*domain.UserSegment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.UserSegment, 0, len(s.data))
	for _, u := range s.data {
		cp := *u
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UserAddress < result[j].UserAddress
	})
	return result, nil
}

// GetByUser retrieves one user's segment. Returns ErrNotFound if absent.
func (s *UserSegmentStore) GetByUser(_ context.Context, userAddress string) (*domain.UserSegment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, exists := s.data[userAddress]
	if !exists {
		return nil, storage.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// GetByCohort retrieves all users of a cohort month, ordered by volume rank.
func (s *UserSegmentStore) GetByCohort(_ context.Context, month domain.Month) ([]*domain.UserSegment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.UserSegment
	for _, u := range s.data {
		if u.CohortMonth == month {
			cp := *u
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].VolumeRankInCohort < result[j].VolumeRankInCohort
	})
	return result, nil
}

// Truncate removes all rows.
func (s *UserSegmentStore) Truncate(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]*domain.UserSegment)
	return nil
}
