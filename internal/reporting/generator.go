package reporting

import (
	"context"
	"sort"
	"time"

	"linea-analytics/internal/domain"
	"linea-analytics/internal/storage"
)

// Generator produces reports from stored data.
type Generator struct {
	depositStore   storage.BridgeDepositStore
	txStore        storage.TransactionStore
	segmentStore   storage.UserSegmentStore
	activityStore  storage.MonthlyActivityStore
	retentionStore storage.RetentionRowStore
	recordStore    storage.UserRecordStore
	now            func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(
	depositStore storage.BridgeDepositStore,
	txStore storage.TransactionStore,
	segmentStore storage.UserSegmentStore,
	activityStore storage.MonthlyActivityStore,
	retentionStore storage.RetentionRowStore,
	recordStore storage.UserRecordStore,
) *Generator {
	return &Generator{
		depositStore:   depositStore,
		txStore:        txStore,
		segmentStore:   segmentStore,
		activityStore:  activityStore,
		retentionStore: retentionStore,
		recordStore:    recordStore,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a complete report. DataQuality is left for the caller.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	deposits, err := g.depositStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	segments, err := g.segmentStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	activities, err := g.activityStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	retentionRows, err := g.retentionStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	records, err := g.recordStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	txCount, err := g.txStore.Count(ctx)
	if err != nil {
		return nil, err
	}

	cohortSet := make(map[domain.Month]struct{})
	for _, s := range segments {
		cohortSet[s.CohortMonth] = struct{}{}
	}

	return &Report{
		GeneratedAt:       g.now(),
		CohortCount:       len(cohortSet),
		UserCount:         len(segments),
		DataSummary:       g.generateDataSummary(deposits, segments, activities, int(txCount)),
		CohortSummary:     generateCohortSummary(segments),
		RetentionMatrix:   generateRetentionMatrix(retentionRows),
		EngagementSummary: generateEngagementSummary(records),
	}, nil
}

// generateDataSummary computes counts and the deposit date range.
func (g *Generator) generateDataSummary(
	deposits []*domain.BridgeDeposit,
	segments []*domain.UserSegment,
	activities []*domain.MonthlyActivity,
	txCount int,
) DataSummary {
	summary := DataSummary{
		TotalDeposits:     len(deposits),
		TotalTransactions: txCount,
		UniqueBridgers:    len(segments),
	}

	activeSet := make(map[string]struct{})
	for _, a := range activities {
		activeSet[a.UserAddress] = struct{}{}
	}
	summary.UniqueActiveUsers = len(activeSet)

	if len(deposits) > 0 {
		summary.FirstDepositAt = deposits[0].Timestamp
		summary.LastDepositAt = deposits[0].Timestamp
		for _, d := range deposits {
			if d.Timestamp.Before(summary.FirstDepositAt) {
				summary.FirstDepositAt = d.Timestamp
			}
			if d.Timestamp.After(summary.LastDepositAt) {
				summary.LastDepositAt = d.Timestamp
			}
		}
	}

	return summary
}

// generateCohortSummary aggregates segments per (cohort, segment) group.
func generateCohortSummary(segments []*domain.UserSegment) []CohortSummaryRow {
	type key struct {
		month   domain.Month
		segment domain.Segment
	}
	groups := make(map[key][]*domain.UserSegment)
	for _, s := range segments {
		k := key{s.CohortMonth, s.Segment}
		groups[k] = append(groups[k], s)
	}

	var rows []CohortSummaryRow
	for k, members := range groups {
		row := CohortSummaryRow{
			CohortMonth: k.month,
			Segment:     k.segment,
			UserCount:   len(members),
		}

		amounts := make([]float64, 0, len(members))
		for _, m := range members {
			row.TotalBridged += m.TotalBridgedAmount
			amounts = append(amounts, m.TotalBridgedAmount)
			if m.VolumeRankInCohort == 1 {
				row.TopRankUser = m.UserAddress
			}
		}
		row.MedianBridged = median(amounts)
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CohortMonth != rows[j].CohortMonth {
			return rows[i].CohortMonth.Before(rows[j].CohortMonth)
		}
		return rows[i].Segment < rows[j].Segment
	})
	return rows
}

// generateRetentionMatrix builds sorted matrix rows.
func generateRetentionMatrix(retentionRows []*domain.RetentionRow) []RetentionMatrixRow {
	rows := make([]RetentionMatrixRow, len(retentionRows))
	for i, r := range retentionRows {
		rows[i] = RetentionMatrixRow{
			CohortMonth:             r.CohortMonth,
			Segment:                 r.Segment,
			MonthsSinceBridge:       r.MonthsSinceBridge,
			MonthLabel:              r.MonthLabel,
			CohortSize:              r.CohortSize,
			ActiveUsers:             r.ActiveUsers,
			CumulativeUsers:         r.CumulativeUsers,
			MetricType:              r.MetricType,
			ActivationRate:          r.ActivationRate,
			RetentionRate:           r.RetentionRate,
			CumulativeRetentionRate: r.CumulativeRetentionRate,
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CohortMonth != rows[j].CohortMonth {
			return rows[i].CohortMonth.Before(rows[j].CohortMonth)
		}
		if rows[i].Segment != rows[j].Segment {
			return rows[i].Segment < rows[j].Segment
		}
		return rows[i].MonthsSinceBridge < rows[j].MonthsSinceBridge
	})
	return rows
}

// generateEngagementSummary counts users per engagement status.
func generateEngagementSummary(records []*domain.UserRecord) []EngagementSummaryRow {
	counts := make(map[domain.EngagementStatus]*EngagementSummaryRow)
	for _, r := range records {
		row := counts[r.EngagementStatus]
		if row == nil {
			row = &EngagementSummaryRow{Status: r.EngagementStatus}
			counts[r.EngagementStatus] = row
		}
		row.UserCount++
		if r.IsChurned {
			row.ChurnedCount++
		}
	}

	var rows []EngagementSummaryRow
	for _, row := range counts {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Status < rows[j].Status
	})
	return rows
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
