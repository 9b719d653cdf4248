package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"linea-analytics/internal/domain"
	"linea-analytics/internal/storage"
)

func makeDeposit(txHash string, logIndex int32, from string, ts time.Time) *domain.BridgeDeposit {
	return &domain.BridgeDeposit{
		TxHash:      txHash,
		LogIndex:    logIndex,
		FromAddress: from,
		Timestamp:   ts,
		ValueETH:    1,
	}
}

func TestBridgeDepositStore_InsertAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewBridgeDepositStore()

	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	err := store.InsertBulk(ctx, []*domain.BridgeDeposit{
		makeDeposit("0x2", 0, "0xbbb", t2),
		makeDeposit("0x1", 0, "0xaaa", t1),
	})
	if err != nil {
		t.Fatalf("InsertBulk: %v", err)
	}

	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d deposits, want 2", len(all))
	}
	if all[0].TxHash != "0x1" {
		t.Errorf("GetAll not ordered by timestamp, first = %s", all[0].TxHash)
	}

	byUser, err := store.GetByUser(ctx, "0xaaa")
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	if len(byUser) != 1 || byUser[0].TxHash != "0x1" {
		t.Errorf("GetByUser returned %d rows", len(byUser))
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestBridgeDepositStore_DuplicateRejectsWholeBatch(t *testing.T) {
	ctx := context.Background()
	store := NewBridgeDepositStore()
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := store.InsertBulk(ctx, []*domain.BridgeDeposit{makeDeposit("0x1", 0, "0xaaa", ts)}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Cross-call duplicate.
	err := store.InsertBulk(ctx, []*domain.BridgeDeposit{
		makeDeposit("0x9", 0, "0xbbb", ts),
		makeDeposit("0x1", 0, "0xaaa", ts),
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("err = %v, want ErrDuplicateKey", err)
	}

	// The new row from the failed batch must not have landed.
	count, _ := store.Count(ctx)
	if count != 1 {
		t.Errorf("count = %d after failed batch, want 1", count)
	}

	// Intra-batch duplicate.
	err = store.InsertBulk(ctx, []*domain.BridgeDeposit{
		makeDeposit("0x5", 2, "0xccc", ts),
		makeDeposit("0x5", 2, "0xccc", ts),
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("intra-batch err = %v, want ErrDuplicateKey", err)
	}
}

func TestBridgeDepositStore_SameTxDifferentLogIndex(t *testing.T) {
	ctx := context.Background()
	store := NewBridgeDepositStore()
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	err := store.InsertBulk(ctx, []*domain.BridgeDeposit{
		makeDeposit("0x1", 0, "0xaaa", ts),
		makeDeposit("0x1", 1, "0xaaa", ts),
	})
	if err != nil {
		t.Fatalf("two log indexes in one tx should both insert: %v", err)
	}
}

func TestBridgeDepositStore_CopyOnRead(t *testing.T) {
	ctx := context.Background()
	store := NewBridgeDepositStore()
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := store.InsertBulk(ctx, []*domain.BridgeDeposit{makeDeposit("0x1", 0, "0xaaa", ts)}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	first, _ := store.GetAll(ctx)
	first[0].ValueETH = 999

	again, _ := store.GetAll(ctx)
	if again[0].ValueETH != 1 {
		t.Errorf("mutating a returned row leaked into the store")
	}
}

func TestBridgeDepositStore_Truncate(t *testing.T) {
	ctx := context.Background()
	store := NewBridgeDepositStore()
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := store.InsertBulk(ctx, []*domain.BridgeDeposit{makeDeposit("0x1", 0, "0xaaa", ts)}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.Truncate(ctx); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	count, _ := store.Count(ctx)
	if count != 0 {
		t.Errorf("count = %d after truncate, want 0", count)
	}

	// The same key inserts cleanly after a truncate.
	if err := store.InsertBulk(ctx, []*domain.BridgeDeposit{makeDeposit("0x1", 0, "0xaaa", ts)}); err != nil {
		t.Errorf("reinsert after truncate: %v", err)
	}
}

func TestBridgeDepositStore_InvalidInput(t *testing.T) {
	store := NewBridgeDepositStore()

	err := store.InsertBulk(context.Background(), []*domain.BridgeDeposit{{}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}
