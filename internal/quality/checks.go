// Package quality validates pipeline outputs before they are reported.
package quality

import (
	"context"
	"fmt"
	"sort"

	"linea-analytics/internal/domain"
	"linea-analytics/internal/storage"
)

// Check represents one data quality criterion.
type Check struct {
	Name        string
	Expectation string
	Actual      string
	Pass        bool
}

// Result contains all checks plus integrity errors and review warnings.
type Result struct {
	Checks   []Check
	AllPass  bool
	Errors   []string // hard integrity violations
	Warnings []string // suspicious but not fatal
}

// Checker validates segments, activity and the retention matrix.
type Checker struct {
	segmentStore   storage.UserSegmentStore
	activityStore  storage.MonthlyActivityStore
	retentionStore storage.RetentionRowStore
	cfg            domain.Config
}

// NewChecker creates a new quality checker.
func NewChecker(
	segmentStore storage.UserSegmentStore,
	activityStore storage.MonthlyActivityStore,
	retentionStore storage.RetentionRowStore,
	cfg domain.Config,
) *Checker {
	return &Checker{
		segmentStore:   segmentStore,
		activityStore:  activityStore,
		retentionStore: retentionStore,
		cfg:            cfg,
	}
}

// Run performs all quality checks against the stored pipeline outputs.
func (c *Checker) Run(ctx context.Context) (*Result, error) {
	segments, err := c.segmentStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load user segments: %w", err)
	}
	activities, err := c.activityStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load monthly activity: %w", err)
	}
	rows, err := c.retentionStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load retention rows: %w", err)
	}
	return Evaluate(segments, activities, rows, c.cfg), nil
}

// Evaluate runs all checks against in-memory data.
func Evaluate(
	segments []*domain.UserSegment,
	activities []*domain.MonthlyActivity,
	rows []*domain.RetentionRow,
	cfg domain.Config,
) *Result {
	result := &Result{AllPass: true}

	add := func(check Check, errs []string) {
		result.Checks = append(result.Checks, check)
		if !check.Pass {
			result.AllPass = false
			result.Errors = append(result.Errors, errs...)
		}
	}

	add(checkActiveWithinCohortSize(rows))
	add(checkCumulativeNonIncreasing(rows))
	add(checkOffsetsWithinHorizon(rows, cfg.RetentionHorizonMonths))
	add(checkSegmentThreshold(segments, cfg.WhaleThreshold))
	add(checkTierBands(segments))
	add(checkActivityLevels(activities, cfg.ActivityLevels))

	result.Warnings = append(result.Warnings, emptyBaselineWarnings(rows)...)

	return result
}

// checkActiveWithinCohortSize: active_users <= cohort_size on every row.
func checkActiveWithinCohortSize(rows []*domain.RetentionRow) (Check, []string) {
	violations := 0
	var errors []string
	for _, r := range rows {
		if r.ActiveUsers > r.CohortSize {
			violations++
			errors = append(errors, fmt.Sprintf(
				"cohort %s/%s month %d: active_users %d exceeds cohort_size %d",
				r.CohortMonth, r.Segment, r.MonthsSinceBridge, r.ActiveUsers, r.CohortSize))
		}
	}
	return Check{
		Name:        "Active users within cohort size",
		Expectation: "active_users <= cohort_size",
		Actual:      fmt.Sprintf("%d violations", violations),
		Pass:        violations == 0,
	}, errors
}

// checkCumulativeNonIncreasing: within each (cohort, segment) series the
// cumulative user count, and with it the rate, never rises as the offset grows.
func checkCumulativeNonIncreasing(rows []*domain.RetentionRow) (Check, []string) {
	type seriesKey struct {
		month   domain.Month
		segment domain.Segment
	}
	series := make(map[seriesKey][]*domain.RetentionRow)
	for _, r := range rows {
		k := seriesKey{r.CohortMonth, r.Segment}
		series[k] = append(series[k], r)
	}

	keys := make([]seriesKey, 0, len(series))
	for k := range series {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].month != keys[j].month {
			return keys[i].month.Before(keys[j].month)
		}
		return keys[i].segment < keys[j].segment
	})

	violations := 0
	var errors []string
	for _, k := range keys {
		s := series[k]
		sort.Slice(s, func(i, j int) bool {
			return s[i].MonthsSinceBridge < s[j].MonthsSinceBridge
		})
		for i := 1; i < len(s); i++ {
			if s[i].CumulativeUsers > s[i-1].CumulativeUsers {
				violations++
				errors = append(errors, fmt.Sprintf(
					"cohort %s/%s: cumulative users rise from %d to %d at month %d",
					k.month, k.segment, s[i-1].CumulativeUsers,
					s[i].CumulativeUsers, s[i].MonthsSinceBridge))
			}
			if s[i].CumulativeRetentionRate > s[i-1].CumulativeRetentionRate {
				violations++
				errors = append(errors, fmt.Sprintf(
					"cohort %s/%s: cumulative retention rate rises from %.4f to %.4f at month %d",
					k.month, k.segment, s[i-1].CumulativeRetentionRate,
					s[i].CumulativeRetentionRate, s[i].MonthsSinceBridge))
			}
		}
	}
	return Check{
		Name:        "Cumulative retention non-increasing",
		Expectation: "cumulative users never rise across offsets",
		Actual:      fmt.Sprintf("%d violations", violations),
		Pass:        violations == 0,
	}, errors
}

// checkOffsetsWithinHorizon: every offset lies in [0, horizon].
func checkOffsetsWithinHorizon(rows []*domain.RetentionRow, horizon int) (Check, []string) {
	violations := 0
	var errors []string
	for _, r := range rows {
		if r.MonthsSinceBridge < 0 || r.MonthsSinceBridge > horizon {
			violations++
			errors = append(errors, fmt.Sprintf(
				"cohort %s/%s: offset %d outside [0, %d]",
				r.CohortMonth, r.Segment, r.MonthsSinceBridge, horizon))
		}
	}
	return Check{
		Name:        "Offsets within horizon",
		Expectation: fmt.Sprintf("0 <= months_since_bridge <= %d", horizon),
		Actual:      fmt.Sprintf("%d violations", violations),
		Pass:        violations == 0,
	}, errors
}

// checkSegmentThreshold: Whale iff total bridged amount strictly above threshold.
func checkSegmentThreshold(segments []*domain.UserSegment, threshold float64) (Check, []string) {
	violations := 0
	var errors []string
	for _, s := range segments {
		isWhale := s.TotalBridgedAmount > threshold
		if (s.Segment == domain.SegmentWhale) != isWhale {
			violations++
			errors = append(errors, fmt.Sprintf(
				"user %s: segment %s inconsistent with bridged amount %.4f (threshold %.2f)",
				s.UserAddress, s.Segment, s.TotalBridgedAmount, threshold))
		}
	}
	return Check{
		Name:        "Whale threshold consistency",
		Expectation: fmt.Sprintf("Whale iff amount > %.2f", threshold),
		Actual:      fmt.Sprintf("%d violations", violations),
		Pass:        violations == 0,
	}, errors
}

// checkTierBands: every user's tier matches its amount band.
func checkTierBands(segments []*domain.UserSegment) (Check, []string) {
	violations := 0
	var errors []string
	for _, s := range segments {
		expected := tierForAmount(s.TotalBridgedAmount)
		if s.Tier != expected {
			violations++
			errors = append(errors, fmt.Sprintf(
				"user %s: tier %s does not match amount %.4f (expected %s)",
				s.UserAddress, s.Tier, s.TotalBridgedAmount, expected))
		}
	}
	return Check{
		Name:        "Tier band totality",
		Expectation: "every user in exactly one matching tier",
		Actual:      fmt.Sprintf("%d violations", violations),
		Pass:        violations == 0,
	}, errors
}

func tierForAmount(amount float64) domain.Tier {
	switch {
	case amount > 100:
		return domain.TierMegaWhale
	case amount > 10:
		return domain.TierWhale
	case amount > 1:
		return domain.TierMidTier
	case amount > 0.1:
		return domain.TierRetail
	default:
		return domain.TierMicro
	}
}

// checkActivityLevels: activity level labels match transaction counts.
func checkActivityLevels(activities []*domain.MonthlyActivity, levels domain.ActivityThresholds) (Check, []string) {
	violations := 0
	var errors []string
	for _, a := range activities {
		expected := levelForCount(a.TransactionCount, levels)
		if a.ActivityLevel != expected {
			violations++
			errors = append(errors, fmt.Sprintf(
				"user %s month %s: level %s does not match %d transactions (expected %s)",
				a.UserAddress, a.ActivityMonth, a.ActivityLevel, a.TransactionCount, expected))
		}
	}
	return Check{
		Name:        "Activity level consistency",
		Expectation: "level matches monthly transaction count",
		Actual:      fmt.Sprintf("%d violations", violations),
		Pass:        violations == 0,
	}, errors
}

func levelForCount(count int, levels domain.ActivityThresholds) domain.ActivityLevel {
	switch {
	case count >= levels.PowerUser:
		return domain.ActivityLevelPowerUser
	case count >= levels.Active:
		return domain.ActivityLevelActive
	case count >= levels.Casual:
		return domain.ActivityLevelCasual
	default:
		return domain.ActivityLevelMinimal
	}
}

// emptyBaselineWarnings flags series that bridged but never activated at month 0.
func emptyBaselineWarnings(rows []*domain.RetentionRow) []string {
	type seriesKey struct {
		month   domain.Month
		segment domain.Segment
	}
	seen := make(map[seriesKey]bool)
	var keys []seriesKey
	for _, r := range rows {
		k := seriesKey{r.CohortMonth, r.Segment}
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].month != keys[j].month {
			return keys[i].month.Before(keys[j].month)
		}
		return keys[i].segment < keys[j].segment
	})

	byKey := make(map[seriesKey]int)
	for _, r := range rows {
		byKey[seriesKey{r.CohortMonth, r.Segment}] = r.Month0ActiveUsers
	}

	var warnings []string
	for _, k := range keys {
		if byKey[k] == 0 {
			warnings = append(warnings, fmt.Sprintf(
				"cohort %s/%s has zero active users at month 0", k.month, k.segment))
		}
	}
	return warnings
}
