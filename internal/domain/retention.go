package domain

// Metric type constants for RetentionRow.MetricType. Offset 0 reports
// activation (non-bridge engagement in the arrival month); later offsets
// report true retention over the Month-0 baseline.
const (
	MetricTypeActivation = "ACTIVATION"
	MetricTypeRetention  = "RETENTION"
)

// RetentionRow is one cell of the retention matrix: a (cohort month,
// segment, month offset) combination. Corresponds to the retention_matrix
// table.
//
// Invariants: ActiveUsers <= CohortSize; CumulativeUsers is non-increasing
// in MonthsSinceBridge for a fixed (cohort, segment); at offset 0
// RetentionRate equals ActivationRate.
type RetentionRow struct {
	CohortMonth       Month
	Segment           Segment
	MonthsSinceBridge int // 0..horizon

	CohortSize       int // distinct users in (cohort, segment), activity-independent
	Month0ActiveUsers int // baseline: users with any activity at offset 0
	ActiveUsers       int // baseline users with activity at this offset
	CumulativeUsers   int // baseline users active at every offset in [0, this]

	MetricType              string
	ActivationRate          float64 // month-0 non-bridge active / cohort size
	RetentionRate           float64 // active / cohort size (activation at offset 0)
	CumulativeRetentionRate float64 // cumulative / cohort size

	MonthLabel string // "Month 0 (Bridge Month)", "Month 1", ...
}
