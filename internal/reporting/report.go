package reporting

import (
	"time"

	"linea-analytics/internal/domain"
)

// Report represents the cohort retention report structure.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	CohortCount int
	UserCount   int

	// Data Summary
	DataSummary DataSummary

	// Data Quality, filled in by the caller from the quality checker.
	DataQuality DataQualitySection

	// Cohort Summary (sorted by cohort_month, segment)
	CohortSummary []CohortSummaryRow

	// Retention Matrix (sorted by cohort_month, segment, months_since_bridge)
	RetentionMatrix []RetentionMatrixRow

	// Engagement Summary (sorted by status)
	EngagementSummary []EngagementSummaryRow
}

// DataSummary describes the input data.
type DataSummary struct {
	TotalDeposits     int
	TotalTransactions int
	UniqueBridgers    int
	UniqueActiveUsers int
	FirstDepositAt    time.Time
	LastDepositAt     time.Time
}

// DataQualitySection contains quality checks, integrity errors and warnings.
type DataQualitySection struct {
	Checks          []QualityCheckRow
	IntegrityErrors []string
	Warnings        []string
	AllChecksPassed bool
}

// QualityCheckRow represents one quality criterion.
type QualityCheckRow struct {
	Name        string
	Expectation string
	Actual      string
	Pass        bool
}

// CohortSummaryRow aggregates one (cohort, segment) group.
type CohortSummaryRow struct {
	CohortMonth   domain.Month
	Segment       domain.Segment
	UserCount     int
	TotalBridged  float64
	MedianBridged float64
	TopRankUser   string
}

// RetentionMatrixRow is one matrix cell for rendering.
type RetentionMatrixRow struct {
	CohortMonth             domain.Month
	Segment                 domain.Segment
	MonthsSinceBridge       int
	MonthLabel              string
	CohortSize              int
	ActiveUsers             int
	CumulativeUsers         int
	MetricType              string
	ActivationRate          float64
	RetentionRate           float64
	CumulativeRetentionRate float64
}

// EngagementSummaryRow counts users per engagement status.
type EngagementSummaryRow struct {
	Status       domain.EngagementStatus
	UserCount    int
	ChurnedCount int
}
