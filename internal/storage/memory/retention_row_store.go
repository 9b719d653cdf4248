package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"linea-analytics/internal/domain"
	"linea-analytics/internal/storage"
)

// RetentionRowStore is an in-memory implementation of
// storage.RetentionRowStore.
type RetentionRowStore struct {
	mu   sync.RWMutex
	data map[string]*domain.RetentionRow // keyed by (cohort, segment, offset)
}

// NewRetentionRowStore creates a new in-memory retention row store.
func NewRetentionRowStore() *RetentionRowStore {
	return &RetentionRowStore{data: make(map[string]*domain.RetentionRow)}
}

var _ storage.RetentionRowStore = (*RetentionRowStore)(nil)

func retentionKey(r *domain.RetentionRow) string {
	return fmt.Sprintf("%s/%s/%d", r.CohortMonth, r.Segment, r.MonthsSinceBridge)
}

// InsertBulk adds matrix rows atomically. Fails the entire batch on any
// duplicate (cohort, segment, offset).
func (s *RetentionRowStore) InsertBulk(_ context.Context, rows []*domain.RetentionRow) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if r == nil || r.Segment == "" {
			return storage.ErrInvalidInput
		}
		key := retentionKey(r)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batch[key]; exists {
			return storage.ErrDuplicateKey
		}
		batch[key] = struct{}{}
	}

	for _, r := range rows {
		cp := *r
		s.data[retentionKey(r)] = &cp
	}
	return nil
}

// GetAll retrieves all rows ordered by cohort month, segment, offset.
func (s *RetentionRowStore) GetAll(_ context.Context) ([]*domain.RetentionRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.RetentionRow, 0, len(s.data))
	for _, r := range s.data {
		cp := *r
		result = append(result, &cp)
	}
	sortRetentionRows(result)
	return result, nil
}

// GetByCohort retrieves one cohort's rows ordered by segment, offset.
func (s *RetentionRowStore) GetByCohort(_ context.Context, month domain.Month) ([]*domain.RetentionRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RetentionRow
	for _, r := range s.data {
		if r.CohortMonth == month {
			cp := *r
			result = append(result, &cp)
		}
	}
	sortRetentionRows(result)
	return result, nil
}

// Truncate removes all rows.
func (s *RetentionRowStore) Truncate(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]*domain.RetentionRow)
	return nil
}

func sortRetentionRows(rows []*domain.RetentionRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CohortMonth != rows[j].CohortMonth {
			return rows[i].CohortMonth.Before(rows[j].CohortMonth)
		}
		if rows[i].Segment != rows[j].Segment {
			return rows[i].Segment < rows[j].Segment
		}
		return rows[i].MonthsSinceBridge < rows[j].MonthsSinceBridge
	})
}
