// Package retention computes the cohort retention matrix: activation,
// month-specific retention and contiguous cumulative retention per
// (cohort month, segment, month offset).
package retention

import (
	"fmt"
	"sort"

	"linea-analytics/internal/domain"
)

// cohortSegment keys one retention series.
type cohortSegment struct {
	month   domain.Month
	segment domain.Segment
}

// MatrixResult is the output of one matrix computation.
type MatrixResult struct {
	Rows []*domain.RetentionRow

	// Warnings are tolerated data-quality anomalies (reported, not fatal),
	// e.g. a cohort with zero active users in its bridge month.
	Warnings []string

	// DroppedNegativeOffsets counts activity records dated before the
	// user's own cohort month (impossible by construction, guarded anyway).
	DroppedNegativeOffsets int
	// DroppedBeyondHorizon counts activity past the retention horizon.
	DroppedBeyondHorizon int
	// SkippedNonBridgers counts activity rows for addresses that never
	// bridged; they belong to no cohort and are ignored.
	SkippedNonBridgers int
}

// memberActivity tracks one user's offsets within their cohort series.
type memberActivity struct {
	offsets         map[int]bool // offset -> present
	nonBridgeMonth0 bool         // month-0 activity beyond bridge claims
}

// series accumulates one (cohort, segment) group.
type series struct {
	cohortSize int
	members    map[string]*memberActivity // only users with kept activity
	maxOffset  int
}

// ComputeMatrix derives the retention matrix from cohort-classified users
// and their monthly activity.
//
// Month offsets are exact total-month differences. Offsets below zero or
// beyond cfg.RetentionHorizonMonths are dropped, not clamped. The Month-0
// baseline (users with any activity at offset 0) is the population tracked
// for retention at offsets >= 1; a user without bridge-month activity never
// counts as active later, even if they reappear. Cumulative retention
// requires activity at every offset from 0 through N, which makes
// CumulativeUsers non-increasing in N.
func ComputeMatrix(users []*domain.UserSegment, activities []*domain.MonthlyActivity, cfg domain.Config) *MatrixResult {
	result := &MatrixResult{}
	horizon := cfg.RetentionHorizonMonths

	// Cohort sizes are activity-independent: every bridging user counts in
	// the denominator, active or not.
	byUser := make(map[string]*domain.UserSegment, len(users))
	groups := make(map[cohortSegment]*series)
	for _, u := range users {
		byUser[u.UserAddress] = u
		key := cohortSegment{month: u.CohortMonth, segment: u.Segment}
		g, ok := groups[key]
		if !ok {
			g = &series{members: make(map[string]*memberActivity)}
			groups[key] = g
		}
		g.cohortSize++
	}

	// Step A: relative offsets, with window guards.
	for _, a := range activities {
		u, ok := byUser[a.UserAddress]
		if !ok {
			result.SkippedNonBridgers++
			continue
		}
		offset := a.ActivityMonth.Sub(u.CohortMonth)
		if offset < 0 {
			result.DroppedNegativeOffsets++
			continue
		}
		if offset > horizon {
			result.DroppedBeyondHorizon++
			continue
		}

		g := groups[cohortSegment{month: u.CohortMonth, segment: u.Segment}]
		m, ok := g.members[a.UserAddress]
		if !ok {
			m = &memberActivity{offsets: make(map[int]bool)}
			g.members[a.UserAddress] = m
		}
		m.offsets[offset] = true
		if offset == 0 && a.NonBridgeTxCount() > 0 {
			m.nonBridgeMonth0 = true
		}
		if offset > g.maxOffset {
			g.maxOffset = offset
		}
	}

	// Steps B-G per series.
	keys := make([]cohortSegment, 0, len(groups))
	for key, g := range groups {
		if len(g.members) == 0 {
			continue // cohort exists but has no in-window activity: no rows
		}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].month != keys[j].month {
			return keys[i].month.Before(keys[j].month)
		}
		return keys[i].segment < keys[j].segment
	})

	for _, key := range keys {
		g := groups[key]
		rows, warning := computeSeries(key, g, horizon)
		result.Rows = append(result.Rows, rows...)
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}
	}
	return result
}

// computeSeries emits rows for offsets 0..maxOffset of one (cohort,
// segment) series.
func computeSeries(key cohortSegment, g *series, horizon int) ([]*domain.RetentionRow, string) {
	// Step C: Month-0 baseline set.
	// Step D: non-bridge activation within the baseline.
	baseline := make(map[string]*memberActivity)
	month0NonBridge := 0
	for addr, m := range g.members {
		if m.offsets[0] {
			baseline[addr] = m
			if m.nonBridgeMonth0 {
				month0NonBridge++
			}
		}
	}

	activationRate := safeRate(month0NonBridge, g.cohortSize)

	var warning string
	if len(baseline) == 0 {
		// Possible but worth review: members were active later without any
		// bridge-month activity.
		warning = fmt.Sprintf("cohort %s/%s has activity but zero active users at month 0", key.month, key.segment)
	}

	// Per-member contiguous prefix length for Step F. contiguousMax is the
	// largest N with activity at every offset in [0, N], or -1 when the
	// member is outside the baseline.
	contiguous := make(map[string]int, len(baseline))
	for addr, m := range baseline {
		n := 0
		for m.offsets[n+1] {
			n++
		}
		contiguous[addr] = n
	}

	maxOffset := g.maxOffset
	if maxOffset > horizon {
		maxOffset = horizon
	}

	rows := make([]*domain.RetentionRow, 0, maxOffset+1)
	for offset := 0; offset <= maxOffset; offset++ {
		// Step E: active users from the baseline at this offset.
		active := 0
		for _, m := range baseline {
			if m.offsets[offset] {
				active++
			}
		}

		// Step F: contiguously retained users.
		cumulative := 0
		for _, n := range contiguous {
			if n >= offset {
				cumulative++
			}
		}

		row := &domain.RetentionRow{
			CohortMonth:             key.month,
			Segment:                 key.segment,
			MonthsSinceBridge:       offset,
			CohortSize:              g.cohortSize,
			Month0ActiveUsers:       len(baseline),
			ActiveUsers:             active,
			CumulativeUsers:         cumulative,
			ActivationRate:          activationRate,
			CumulativeRetentionRate: safeRate(cumulative, g.cohortSize),
			MonthLabel:              monthLabel(offset),
		}
		if offset == 0 {
			row.MetricType = domain.MetricTypeActivation
			row.RetentionRate = activationRate
		} else {
			row.MetricType = domain.MetricTypeRetention
			row.RetentionRate = safeRate(active, g.cohortSize)
		}
		rows = append(rows, row)
	}
	return rows, warning
}

// safeRate guards the division; a zero-size cohort cannot occur
// structurally but must never panic.
func safeRate(num, denom int) float64 {
	if denom == 0 {
		return 0
	}
	return float64(num) / float64(denom)
}

func monthLabel(offset int) string {
	if offset == 0 {
		return "Month 0 (Bridge Month)"
	}
	return fmt.Sprintf("Month %d", offset)
}
