// Package memory provides in-memory store implementations used by tests
// and fixture pipeline runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"linea-analytics/internal/domain"
	"linea-analytics/internal/storage"
)

// BridgeDepositStore is an in-memory implementation of
// storage.BridgeDepositStore.
type BridgeDepositStore struct {
	mu   sync.RWMutex
	data map[string]*domain.BridgeDeposit // keyed by (tx_hash, log_index)
}

// NewBridgeDepositStore creates a new in-memory bridge deposit store.
func NewBridgeDepositStore() *BridgeDepositStore {
	return &BridgeDepositStore{data: make(map[string]*domain.BridgeDeposit)}
}

var _ storage.BridgeDepositStore = (*BridgeDepositStore)(nil)

func depositKey(d *domain.BridgeDeposit) string {
	return fmt.Sprintf("%s/%d", d.TxHash, d.LogIndex)
}

// InsertBulk adds deposits atomically. Fails the entire batch on any
// duplicate (existing or intra-batch).
func (s *BridgeDepositStore) InsertBulk(_ context.Context, deposits []*domain.BridgeDeposit) error {
	if len(deposits) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[string]struct{}, len(deposits))
	for _, d := range deposits {
		if d == nil || d.TxHash == "" {
			return storage.ErrInvalidInput
		}
		key := depositKey(d)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batch[key]; exists {
			return storage.ErrDuplicateKey
		}
		batch[key] = struct{}{}
	}

	for _, d := range deposits {
		cp := *d
		s.data[depositKey(d)] = &cp
	}
	return nil
}

// GetAll retrieves all deposits ordered by timestamp, tx_hash, log_index.
func (s *BridgeDepositStore) GetAll(_ context.Context) ([]*domain.BridgeDeposit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.BridgeDeposit, 0, len(s.data))
	for _, d := range s.data {
		cp := *d
		result = append(result, &cp)
	}
	sortDeposits(result)
	return result, nil
}

// GetByUser retrieves all deposits made by an address, ordered by timestamp.
func (s *BridgeDepositStore) GetByUser(_ context.Context, userAddress string) ([]*domain.BridgeDeposit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BridgeDeposit
	for _, d := range s.data {
		if d.FromAddress == userAddress {
			cp := *d
			result = append(result, &cp)
		}
	}
	sortDeposits(result)
	return result, nil
}

// Count returns the number of stored deposits.
func (s *BridgeDepositStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.data)), nil
}

// Truncate removes all rows.
func (s *BridgeDepositStore) Truncate(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]*domain.BridgeDeposit)
	return nil
}

func sortDeposits(deposits []*domain.BridgeDeposit) {
	sort.Slice(deposits, func(i, j int) bool {
		if !deposits[i].Timestamp.Equal(deposits[j].Timestamp) {
			return deposits[i].Timestamp.Before(deposits[j].Timestamp)
		}
		if deposits[i].TxHash != deposits[j].TxHash {
			return deposits[i].TxHash < deposits[j].TxHash
		}
		return deposits[i].LogIndex < deposits[j].LogIndex
	})
}
