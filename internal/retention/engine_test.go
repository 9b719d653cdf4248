package retention

import (
	"context"
	"errors"
	"testing"
	"time"

	"linea-analytics/internal/domain"
	"linea-analytics/internal/storage/memory"
)

func TestEngine_ComputeAndStore(t *testing.T) {
	ctx := context.Background()
	segments := memory.NewUserSegmentStore()
	activities := memory.NewMonthlyActivityStore()
	rows := memory.NewRetentionRowStore()

	jan := domain.Month{Year: 2024, Month: time.January}
	feb := domain.Month{Year: 2024, Month: time.February}

	err := segments.InsertBulk(ctx, []*domain.UserSegment{
		makeUser("0xaaa", jan, domain.SegmentWhale),
	})
	if err != nil {
		t.Fatalf("seed segments: %v", err)
	}
	err = activities.InsertBulk(ctx, []*domain.MonthlyActivity{
		makeActivity("0xaaa", jan, 3, 0),
		makeActivity("0xaaa", feb, 1, 0),
	})
	if err != nil {
		t.Fatalf("seed activity: %v", err)
	}

	engine := NewEngine(segments, activities, rows, domain.DefaultConfig())
	result, err := engine.ComputeAndStore(ctx)
	if err != nil {
		t.Fatalf("ComputeAndStore: %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(result.Rows))
	}

	stored, err := rows.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored %d rows, want 2", len(stored))
	}
}

func TestEngine_NoUsers(t *testing.T) {
	engine := NewEngine(memory.NewUserSegmentStore(), memory.NewMonthlyActivityStore(), memory.NewRetentionRowStore(), domain.DefaultConfig())

	_, err := engine.Compute(context.Background())
	if !errors.Is(err, ErrNoUsers) {
		t.Fatalf("err = %v, want ErrNoUsers", err)
	}
}
