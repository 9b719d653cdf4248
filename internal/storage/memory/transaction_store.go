package memory

import (
	"context"
	"sort"
	"sync"

	"linea-analytics/internal/domain"
	"linea-analytics/internal/storage"
)

// TransactionStore is an in-memory implementation of storage.TransactionStore.
type TransactionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Transaction // keyed by hash
}

// NewTransactionStore creates a new in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{data: make(map[string]*domain.Transaction)}
}

var _ storage.TransactionStore = (*TransactionStore)(nil)

// InsertBulk adds transactions atomically. Fails the entire batch on any
// duplicate hash.
func (s *TransactionStore) InsertBulk(_ context.Context, txs []*domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[string]struct{}, len(txs))
	for _, tx := range txs {
		if tx == nil || tx.Hash == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[tx.Hash]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batch[tx.Hash]; exists {
			return storage.ErrDuplicateKey
		}
		batch[tx.Hash] = struct{}{}
	}

	for _, tx := range txs {
		cp := *tx
		s.data[tx.Hash] = &cp
	}
	return nil
}

// GetAll retrieves all transactions ordered by timestamp, hash.
func (s *TransactionStore) GetAll(_ context.Context) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Transaction, 0, len(s.data))
	for _, tx := range s.data {
		cp := *tx
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].Timestamp.Before(result[j].Timestamp)
		}
		return result[i].Hash < result[j].Hash
	})
	return result, nil
}

// Count returns the number of stored transactions.
func (s *TransactionStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.data)), nil
}

// Truncate removes all rows.
func (s *TransactionStore) Truncate(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]*domain.Transaction)
	return nil
}
