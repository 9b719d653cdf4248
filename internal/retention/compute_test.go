package retention

import (
	"math"
	"testing"
	"time"

	"linea-analytics/internal/domain"
)

var (
	jan = domain.Month{Year: 2024, Month: time.January}
	feb = domain.Month{Year: 2024, Month: time.February}
	mar = domain.Month{Year: 2024, Month: time.March}
)

func makeUser(addr string, cohort domain.Month, segment domain.Segment) *domain.UserSegment {
	return &domain.UserSegment{
		UserAddress: addr,
		CohortMonth: cohort,
		Segment:     segment,
	}
}

func makeActivity(addr string, month domain.Month, txCount, bridgeClaims int) *domain.MonthlyActivity {
	return &domain.MonthlyActivity{
		UserAddress:      addr,
		ActivityMonth:    month,
		TransactionCount: txCount,
		BridgeClaimCount: bridgeClaims,
	}
}

func findRow(t *testing.T, rows []*domain.RetentionRow, cohort domain.Month, segment domain.Segment, offset int) *domain.RetentionRow {
	t.Helper()
	for _, r := range rows {
		if r.CohortMonth == cohort && r.Segment == segment && r.MonthsSinceBridge == offset {
			return r
		}
	}
	t.Fatalf("no row for %s/%s offset %d", cohort, segment, offset)
	return nil
}

func rateEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// A whale active in January and March but not February: month 1 has a gap,
// so cumulative retention stops growing after month 0 while the
// month-specific rate recovers at month 2.
func TestComputeMatrix_GapBreaksCumulative(t *testing.T) {
	users := []*domain.UserSegment{makeUser("0xaaa", jan, domain.SegmentWhale)}
	activities := []*domain.MonthlyActivity{
		makeActivity("0xaaa", jan, 5, 1),
		makeActivity("0xaaa", mar, 3, 0),
	}

	result := ComputeMatrix(users, activities, domain.DefaultConfig())
	if len(result.Rows) != 3 {
		t.Fatalf("got %d rows, want 3 (offsets 0..2)", len(result.Rows))
	}

	m0 := findRow(t, result.Rows, jan, domain.SegmentWhale, 0)
	if m0.MetricType != domain.MetricTypeActivation {
		t.Errorf("offset 0 metric type = %q, want ACTIVATION", m0.MetricType)
	}
	if m0.ActiveUsers != 1 || m0.CumulativeUsers != 1 {
		t.Errorf("offset 0 active/cumulative = %d/%d, want 1/1", m0.ActiveUsers, m0.CumulativeUsers)
	}
	if !rateEq(m0.RetentionRate, 1.0) {
		t.Errorf("offset 0 retention rate = %v, want 1.0", m0.RetentionRate)
	}

	m1 := findRow(t, result.Rows, jan, domain.SegmentWhale, 1)
	if m1.ActiveUsers != 0 || m1.CumulativeUsers != 0 {
		t.Errorf("offset 1 active/cumulative = %d/%d, want 0/0", m1.ActiveUsers, m1.CumulativeUsers)
	}

	m2 := findRow(t, result.Rows, jan, domain.SegmentWhale, 2)
	if m2.ActiveUsers != 1 {
		t.Errorf("offset 2 active = %d, want 1 (user returned)", m2.ActiveUsers)
	}
	if m2.CumulativeUsers != 0 {
		t.Errorf("offset 2 cumulative = %d, want 0 (february gap)", m2.CumulativeUsers)
	}
	if m2.MetricType != domain.MetricTypeRetention {
		t.Errorf("offset 2 metric type = %q, want RETENTION", m2.MetricType)
	}
}

// Two users in the same cohort but opposite segments each stay active one
// month past the bridge: both series report 100% retention independently.
func TestComputeMatrix_SegmentsSeparate(t *testing.T) {
	users := []*domain.UserSegment{
		makeUser("0xaaa", jan, domain.SegmentWhale),
		makeUser("0xbbb", jan, domain.SegmentRetail),
	}
	activities := []*domain.MonthlyActivity{
		makeActivity("0xaaa", jan, 4, 0),
		makeActivity("0xaaa", feb, 2, 0),
		makeActivity("0xbbb", jan, 4, 0),
		makeActivity("0xbbb", feb, 2, 0),
	}

	result := ComputeMatrix(users, activities, domain.DefaultConfig())
	if len(result.Rows) != 4 {
		t.Fatalf("got %d rows, want 4 (2 segments x offsets 0..1)", len(result.Rows))
	}

	for _, segment := range []domain.Segment{domain.SegmentWhale, domain.SegmentRetail} {
		r := findRow(t, result.Rows, jan, segment, 1)
		if r.CohortSize != 1 {
			t.Errorf("%s cohort size = %d, want 1", segment, r.CohortSize)
		}
		if !rateEq(r.RetentionRate, 1.0) || !rateEq(r.CumulativeRetentionRate, 1.0) {
			t.Errorf("%s offset 1 rates = %v/%v, want 1.0/1.0", segment, r.RetentionRate, r.CumulativeRetentionRate)
		}
	}
}

// A user whose only month-0 transactions are bridge claims counts in the
// cohort size and the month-0 baseline but not in the activation rate.
func TestComputeMatrix_BridgeOnlyUser(t *testing.T) {
	users := []*domain.UserSegment{
		makeUser("0xaaa", jan, domain.SegmentRetail),
		makeUser("0xbbb", jan, domain.SegmentRetail),
	}
	activities := []*domain.MonthlyActivity{
		makeActivity("0xaaa", jan, 2, 2), // claims only
		makeActivity("0xbbb", jan, 5, 1), // organic activity too
	}

	result := ComputeMatrix(users, activities, domain.DefaultConfig())
	m0 := findRow(t, result.Rows, jan, domain.SegmentRetail, 0)

	if m0.CohortSize != 2 {
		t.Errorf("cohort size = %d, want 2", m0.CohortSize)
	}
	if m0.Month0ActiveUsers != 2 {
		t.Errorf("month-0 active = %d, want 2 (claims still count as presence)", m0.Month0ActiveUsers)
	}
	if !rateEq(m0.ActivationRate, 0.5) {
		t.Errorf("activation rate = %v, want 0.5 (one of two organically active)", m0.ActivationRate)
	}
	if !rateEq(m0.RetentionRate, m0.ActivationRate) {
		t.Errorf("offset-0 retention rate %v != activation rate %v", m0.RetentionRate, m0.ActivationRate)
	}
}

// A user who bridges but never transacts afterward inflates the cohort size
// and nothing else.
func TestComputeMatrix_InactiveUserOnlyInDenominator(t *testing.T) {
	users := []*domain.UserSegment{
		makeUser("0xactive", jan, domain.SegmentRetail),
		makeUser("0xsilent", jan, domain.SegmentRetail),
	}
	activities := []*domain.MonthlyActivity{
		makeActivity("0xactive", jan, 4, 0),
		makeActivity("0xactive", feb, 2, 0),
	}

	result := ComputeMatrix(users, activities, domain.DefaultConfig())
	for _, offset := range []int{0, 1} {
		r := findRow(t, result.Rows, jan, domain.SegmentRetail, offset)
		if r.CohortSize != 2 {
			t.Errorf("offset %d cohort size = %d, want 2", offset, r.CohortSize)
		}
		if r.ActiveUsers != 1 || r.CumulativeUsers != 1 {
			t.Errorf("offset %d active/cumulative = %d/%d, want 1/1", offset, r.ActiveUsers, r.CumulativeUsers)
		}
		if !rateEq(r.RetentionRate, 0.5) {
			t.Errorf("offset %d retention rate = %v, want 0.5", offset, r.RetentionRate)
		}
	}
}

func TestComputeMatrix_WindowGuards(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.RetentionHorizonMonths = 3

	users := []*domain.UserSegment{makeUser("0xaaa", feb, domain.SegmentRetail)}
	activities := []*domain.MonthlyActivity{
		makeActivity("0xaaa", jan, 1, 0), // before own cohort
		makeActivity("0xaaa", feb, 1, 0),
		makeActivity("0xaaa", domain.Month{Year: 2024, Month: time.June}, 1, 0), // offset 4 > horizon
		makeActivity("0xzzz", feb, 1, 0),                                        // never bridged
	}

	result := ComputeMatrix(users, activities, cfg)
	if result.DroppedNegativeOffsets != 1 {
		t.Errorf("dropped negative = %d, want 1", result.DroppedNegativeOffsets)
	}
	if result.DroppedBeyondHorizon != 1 {
		t.Errorf("dropped beyond horizon = %d, want 1", result.DroppedBeyondHorizon)
	}
	if result.SkippedNonBridgers != 1 {
		t.Errorf("skipped non-bridgers = %d, want 1", result.SkippedNonBridgers)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("got %d rows, want 1 (only offset 0 survives)", len(result.Rows))
	}
}

func TestComputeMatrix_NoMonth0BaselineWarns(t *testing.T) {
	users := []*domain.UserSegment{makeUser("0xaaa", jan, domain.SegmentRetail)}
	// Active only one month after bridging: outside the baseline forever.
	activities := []*domain.MonthlyActivity{makeActivity("0xaaa", feb, 10, 0)}

	result := ComputeMatrix(users, activities, domain.DefaultConfig())
	if len(result.Warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(result.Warnings))
	}

	m1 := findRow(t, result.Rows, jan, domain.SegmentRetail, 1)
	if m1.Month0ActiveUsers != 0 {
		t.Errorf("month-0 active = %d, want 0", m1.Month0ActiveUsers)
	}
	if m1.ActiveUsers != 0 {
		t.Errorf("offset 1 active = %d, want 0 (not in baseline)", m1.ActiveUsers)
	}
}

func TestComputeMatrix_InactiveCohortEmitsNoRows(t *testing.T) {
	users := []*domain.UserSegment{makeUser("0xaaa", jan, domain.SegmentRetail)}

	result := ComputeMatrix(users, nil, domain.DefaultConfig())
	if len(result.Rows) != 0 {
		t.Fatalf("got %d rows for activity-free cohort, want 0", len(result.Rows))
	}
}

func TestComputeMatrix_Invariants(t *testing.T) {
	users := []*domain.UserSegment{
		makeUser("0xaaa", jan, domain.SegmentWhale),
		makeUser("0xbbb", jan, domain.SegmentWhale),
		makeUser("0xccc", jan, domain.SegmentRetail),
		makeUser("0xddd", feb, domain.SegmentRetail),
	}
	activities := []*domain.MonthlyActivity{
		makeActivity("0xaaa", jan, 5, 1),
		makeActivity("0xaaa", feb, 2, 0),
		makeActivity("0xaaa", mar, 2, 0),
		makeActivity("0xbbb", jan, 3, 3),
		makeActivity("0xbbb", mar, 1, 0),
		makeActivity("0xccc", jan, 1, 0),
		makeActivity("0xddd", feb, 2, 0),
		makeActivity("0xddd", mar, 2, 0),
	}
	cfg := domain.DefaultConfig()

	result := ComputeMatrix(users, activities, cfg)

	cumByKey := make(map[cohortSegment][]int)
	for _, r := range result.Rows {
		if r.ActiveUsers > r.CohortSize {
			t.Errorf("%s/%s offset %d: active %d > cohort size %d", r.CohortMonth, r.Segment, r.MonthsSinceBridge, r.ActiveUsers, r.CohortSize)
		}
		if r.CumulativeUsers > r.Month0ActiveUsers {
			t.Errorf("%s/%s offset %d: cumulative %d > baseline %d", r.CohortMonth, r.Segment, r.MonthsSinceBridge, r.CumulativeUsers, r.Month0ActiveUsers)
		}
		if r.MonthsSinceBridge < 0 || r.MonthsSinceBridge > cfg.RetentionHorizonMonths {
			t.Errorf("offset %d outside horizon", r.MonthsSinceBridge)
		}
		key := cohortSegment{month: r.CohortMonth, segment: r.Segment}
		cumByKey[key] = append(cumByKey[key], r.CumulativeUsers)
	}

	// Rows arrive sorted per series, so appended order is offset order.
	for key, cum := range cumByKey {
		for i := 1; i < len(cum); i++ {
			if cum[i] > cum[i-1] {
				t.Errorf("%s/%s: cumulative users increased %d -> %d at offset %d", key.month, key.segment, cum[i-1], cum[i], i)
			}
		}
	}
}

func TestComputeMatrix_Deterministic(t *testing.T) {
	users := []*domain.UserSegment{
		makeUser("0xccc", jan, domain.SegmentRetail),
		makeUser("0xaaa", jan, domain.SegmentWhale),
		makeUser("0xbbb", feb, domain.SegmentRetail),
	}
	activities := []*domain.MonthlyActivity{
		makeActivity("0xccc", jan, 1, 0),
		makeActivity("0xaaa", jan, 1, 0),
		makeActivity("0xbbb", feb, 1, 0),
	}
	cfg := domain.DefaultConfig()

	first := ComputeMatrix(users, activities, cfg)
	for run := 0; run < 5; run++ {
		again := ComputeMatrix(users, activities, cfg)
		if len(again.Rows) != len(first.Rows) {
			t.Fatalf("run %d: %d rows, want %d", run, len(again.Rows), len(first.Rows))
		}
		for i := range first.Rows {
			if *again.Rows[i] != *first.Rows[i] {
				t.Fatalf("run %d: row %d differs: %+v vs %+v", run, i, again.Rows[i], first.Rows[i])
			}
		}
	}
}

func TestMonthLabel(t *testing.T) {
	if got := monthLabel(0); got != "Month 0 (Bridge Month)" {
		t.Errorf("monthLabel(0) = %q", got)
	}
	if got := monthLabel(7); got != "Month 7" {
		t.Errorf("monthLabel(7) = %q", got)
	}
}
