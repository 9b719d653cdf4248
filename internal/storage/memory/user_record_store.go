package memory

import (
	"context"
	"sort"
	"sync"

	"linea-analytics/internal/domain"
	"linea-analytics/internal/storage"
)

// UserRecordStore is an in-memory implementation of storage.UserRecordStore.
type UserRecordStore struct {
	mu   sync.RWMutex
	data map[string]*domain.UserRecord // keyed by user address
}

// NewUserRecordStore creates a new in-memory user record store.
func NewUserRecordStore() *UserRecordStore {
	return &UserRecordStore{data: make(map[string]*domain.UserRecord)}
}

var _ storage.UserRecordStore = (*UserRecordStore)(nil)

// InsertBulk adds records atomically. Fails the entire batch on any
// duplicate user address.
func (s *UserRecordStore) InsertBulk(_ context.Context, records []*domain.UserRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r == nil || r.UserAddress == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[r.UserAddress]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batch[r.UserAddress]; exists {
			return storage.ErrDuplicateKey
		}
		batch[r.UserAddress] = struct{}{}
	}

	for _, r := range records {
		cp := *r
		s.data[r.UserAddress] = &cp
	}
	return nil
}

// GetAll retrieves all records ordered by user address.
func (s *UserRecordStore) GetAll(_ context.Context) ([]*domain.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.UserRecord, 0, len(s.data))
	for _, r := range s.data {
		cp := *r
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UserAddress < result[j].UserAddress
	})
	return result, nil
}

// GetByUser retrieves one record. Returns ErrNotFound if absent.
func (s *UserRecordStore) GetByUser(_ context.Context, userAddress string) (*domain.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[userAddress]
	if !exists {
		return nil, storage.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

// Truncate removes all rows.
func (s *UserRecordStore) Truncate(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]*domain.UserRecord)
	return nil
}
