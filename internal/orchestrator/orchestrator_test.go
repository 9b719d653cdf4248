package orchestrator

import (
	"context"
	"testing"
	"time"

	"linea-analytics/internal/domain"
	"linea-analytics/internal/storage/memory"
)

type pipelineFixture struct {
	deposits   *memory.BridgeDepositStore
	txs        *memory.TransactionStore
	segments   *memory.UserSegmentStore
	activities *memory.MonthlyActivityStore
	retention  *memory.RetentionRowStore
	records    *memory.UserRecordStore
}

func newFixture() *pipelineFixture {
	return &pipelineFixture{
		deposits:   memory.NewBridgeDepositStore(),
		txs:        memory.NewTransactionStore(),
		segments:   memory.NewUserSegmentStore(),
		activities: memory.NewMonthlyActivityStore(),
		retention:  memory.NewRetentionRowStore(),
		records:    memory.NewUserRecordStore(),
	}
}

func (f *pipelineFixture) orchestrator(asOf time.Time) *Orchestrator {
	return New(Options{
		DepositStore:     f.deposits,
		TransactionStore: f.txs,
		SegmentStore:     f.segments,
		ActivityStore:    f.activities,
		RetentionStore:   f.retention,
		RecordStore:      f.records,
		Config:           domain.DefaultConfig(),
		Now:              func() time.Time { return asOf },
	})
}

func makeDeposit(txHash, from string, ts time.Time, value float64) *domain.BridgeDeposit {
	return &domain.BridgeDeposit{
		TxHash:      txHash,
		FromAddress: from,
		Timestamp:   ts,
		ValueETH:    value,
	}
}

func makeTx(hash, from string, ts time.Time) *domain.Transaction {
	return &domain.Transaction{
		Hash:        hash,
		FromAddress: from,
		ToAddress:   "0x111",
		Timestamp:   ts,
		ValueETH:    0.1,
		TxStatus:    true,
	}
}

func TestRun_FullPipeline(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)

	err := f.deposits.InsertBulk(ctx, []*domain.BridgeDeposit{
		makeDeposit("0x1", "0xwhale", jan, 50),
		makeDeposit("0x2", "0xretail", jan, 0.5),
	})
	if err != nil {
		t.Fatalf("seed deposits: %v", err)
	}
	err = f.txs.InsertBulk(ctx, []*domain.Transaction{
		makeTx("0xt1", "0xwhale", jan),
		makeTx("0xt2", "0xwhale", feb),
		makeTx("0xt3", "0xretail", jan),
	})
	if err != nil {
		t.Fatalf("seed txs: %v", err)
	}

	result, err := f.orchestrator(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)).Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.DepositsLoaded != 2 || result.TransactionsLoaded != 3 {
		t.Errorf("loaded = %d deposits, %d txs, want 2/3", result.DepositsLoaded, result.TransactionsLoaded)
	}
	if result.UsersSegmented != 2 {
		t.Errorf("users segmented = %d, want 2", result.UsersSegmented)
	}
	if result.CohortsAssigned != 1 {
		t.Errorf("cohorts assigned = %d, want 1", result.CohortsAssigned)
	}
	if result.ActivityRows != 3 {
		t.Errorf("activity rows = %d, want 3", result.ActivityRows)
	}
	// Whale series has offsets 0..1, retail offset 0 only.
	if result.RetentionRows != 3 {
		t.Errorf("retention rows = %d, want 3", result.RetentionRows)
	}
	if result.UserRecords != 2 {
		t.Errorf("user records = %d, want 2", result.UserRecords)
	}
	if !result.QualityPassed {
		t.Errorf("quality checks failed: %v", result.Errors)
	}

	segments, err := f.segments.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll segments: %v", err)
	}
	for _, s := range segments {
		switch s.UserAddress {
		case "0xwhale":
			if s.Segment != domain.SegmentWhale {
				t.Errorf("0xwhale segment = %q", s.Segment)
			}
		case "0xretail":
			if s.Segment != domain.SegmentRetail {
				t.Errorf("0xretail segment = %q", s.Segment)
			}
		}
	}

	records, err := f.records.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("stored %d records, want 2", len(records))
	}
}

func TestRun_NoDeposits(t *testing.T) {
	f := newFixture()

	result, err := f.orchestrator(time.Now()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.DepositsLoaded != 0 || result.UsersSegmented != 0 || result.RetentionRows != 0 {
		t.Errorf("empty run produced output: %+v", result)
	}
}

func TestRun_Rerunnable(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	err := f.deposits.InsertBulk(ctx, []*domain.BridgeDeposit{
		makeDeposit("0x1", "0xaaa", jan, 1),
	})
	if err != nil {
		t.Fatalf("seed deposits: %v", err)
	}
	err = f.txs.InsertBulk(ctx, []*domain.Transaction{makeTx("0xt1", "0xaaa", jan)})
	if err != nil {
		t.Fatalf("seed txs: %v", err)
	}

	o := f.orchestrator(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	first, err := o.Run(ctx)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	// Derived tables are truncated each run, so a rerun must not hit
	// duplicate key errors and must produce identical counts.
	second, err := o.Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if first.UsersSegmented != second.UsersSegmented ||
		first.ActivityRows != second.ActivityRows ||
		first.RetentionRows != second.RetentionRows ||
		first.UserRecords != second.UserRecords {
		t.Errorf("rerun diverged: %+v vs %+v", first, second)
	}
}
