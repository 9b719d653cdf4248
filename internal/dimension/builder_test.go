package dimension

import (
	"testing"
	"time"

	"linea-analytics/internal/domain"
)

var (
	jan = domain.Month{Year: 2024, Month: time.January}
	feb = domain.Month{Year: 2024, Month: time.February}
	mar = domain.Month{Year: 2024, Month: time.March}
)

func fixedClock(m domain.Month) func() time.Time {
	return func() time.Time { return m.Time() }
}

func makeUser(addr string, cohort domain.Month, segment domain.Segment) *domain.UserSegment {
	return &domain.UserSegment{
		UserAddress:        addr,
		CohortMonth:        cohort,
		FirstBridgeDate:    cohort.Time().Add(24 * time.Hour),
		TotalBridgedAmount: 5,
		TotalBridgeCount:   1,
		Segment:            segment,
		Tier:               domain.TierMidTier,
	}
}

func makeActivity(addr string, month domain.Month, txCount int, volume float64) *domain.MonthlyActivity {
	return &domain.MonthlyActivity{
		UserAddress:      addr,
		ActivityMonth:    month,
		TransactionCount: txCount,
		TotalVolume:      volume,
	}
}

func TestBuild_JoinsActivity(t *testing.T) {
	b := NewBuilder(domain.DefaultConfig()).WithClock(fixedClock(mar))

	users := []*domain.UserSegment{makeUser("0xaaa", jan, domain.SegmentRetail)}
	activities := []*domain.MonthlyActivity{
		makeActivity("0xaaa", feb, 3, 1.5),
		makeActivity("0xaaa", jan, 7, 0.5),
	}

	records := b.Build(users, activities)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	r := records[0]
	if r.FirstActivityMonth == nil || *r.FirstActivityMonth != jan {
		t.Errorf("first activity month = %v, want 2024-01", r.FirstActivityMonth)
	}
	if r.LastActivityMonth == nil || *r.LastActivityMonth != feb {
		t.Errorf("last activity month = %v, want 2024-02", r.LastActivityMonth)
	}
	if r.ActiveMonthCount != 2 {
		t.Errorf("active months = %d, want 2", r.ActiveMonthCount)
	}
	if r.LifetimeTxCount != 10 {
		t.Errorf("lifetime txs = %d, want 10", r.LifetimeTxCount)
	}
	if r.LifetimeVolume != 2.0 {
		t.Errorf("lifetime volume = %v, want 2.0", r.LifetimeVolume)
	}
	if r.IsChurned {
		t.Errorf("user active in february should not be churned as of march")
	}
}

func TestBuild_ChurnBoundary(t *testing.T) {
	cfg := domain.DefaultConfig() // churn after more than 2 inactive months

	cases := []struct {
		name        string
		lastActive  domain.Month
		now         domain.Month
		wantChurned bool
	}{
		{"active this month", mar, mar, false},
		{"two months ago is still within window", jan, mar, false},
		{"three months ago is churned", jan, domain.Month{Year: 2024, Month: time.April}, true},
	}

	for _, tc := range cases {
		b := NewBuilder(cfg).WithClock(fixedClock(tc.now))
		users := []*domain.UserSegment{makeUser("0xaaa", jan, domain.SegmentRetail)}
		activities := []*domain.MonthlyActivity{makeActivity("0xaaa", tc.lastActive, 1, 0)}

		records := b.Build(users, activities)
		if records[0].IsChurned != tc.wantChurned {
			t.Errorf("%s: churned = %v, want %v", tc.name, records[0].IsChurned, tc.wantChurned)
		}
	}
}

func TestBuild_NoActivityIsBridgeOnlyAndChurned(t *testing.T) {
	b := NewBuilder(domain.DefaultConfig()).WithClock(fixedClock(mar))

	records := b.Build([]*domain.UserSegment{makeUser("0xaaa", jan, domain.SegmentWhale)}, nil)
	r := records[0]

	if r.FirstActivityMonth != nil || r.LastActivityMonth != nil {
		t.Errorf("activity months = %v/%v, want nil/nil", r.FirstActivityMonth, r.LastActivityMonth)
	}
	if !r.IsChurned {
		t.Errorf("user with no activity should be churned")
	}
	if r.EngagementStatus != domain.EngagementBridgeOnly {
		t.Errorf("engagement = %q, want Bridge Only", r.EngagementStatus)
	}
}

func TestBuild_EngagementLadder(t *testing.T) {
	cases := []struct {
		activeMonths int
		segment      domain.Segment
		want         domain.EngagementStatus
	}{
		{3, domain.SegmentWhale, domain.EngagementHighValueRetained},
		{5, domain.SegmentWhale, domain.EngagementHighValueRetained},
		{3, domain.SegmentRetail, domain.EngagementRetained},
		{2, domain.SegmentWhale, domain.EngagementEngaged},
		{1, domain.SegmentRetail, domain.EngagementEngaged},
		{0, domain.SegmentRetail, domain.EngagementBridgeOnly},
	}
	for _, tc := range cases {
		if got := engagementFor(tc.activeMonths, tc.segment); got != tc.want {
			t.Errorf("engagementFor(%d, %s) = %q, want %q", tc.activeMonths, tc.segment, got, tc.want)
		}
	}
}

func TestBuild_SortedByAddress(t *testing.T) {
	b := NewBuilder(domain.DefaultConfig()).WithClock(fixedClock(mar))

	users := []*domain.UserSegment{
		makeUser("0xccc", jan, domain.SegmentRetail),
		makeUser("0xaaa", jan, domain.SegmentRetail),
		makeUser("0xbbb", jan, domain.SegmentRetail),
	}

	records := b.Build(users, nil)
	for i, want := range []string{"0xaaa", "0xbbb", "0xccc"} {
		if records[i].UserAddress != want {
			t.Errorf("records[%d] = %q, want %q", i, records[i].UserAddress, want)
		}
	}
}
