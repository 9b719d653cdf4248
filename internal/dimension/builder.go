// Package dimension builds the user dimension table: one row per bridging
// user joining cohort, segment and lifetime activity, with churn and
// engagement labels.
package dimension

import (
	"sort"
	"time"

	"linea-analytics/internal/domain"
)

// Builder derives UserRecord rows. The processing date is injected so
// churn labeling is reproducible.
type Builder struct {
	cfg   domain.Config
	clock func() time.Time
}

// NewBuilder creates a Builder using the current time as processing date.
func NewBuilder(cfg domain.Config) *Builder {
	return &Builder{cfg: cfg, clock: func() time.Time { return time.Now().UTC() }}
}

// WithClock overrides the processing-date clock.
func (b *Builder) WithClock(clock func() time.Time) *Builder {
	b.clock = clock
	return b
}

// Build joins cohort-classified users with their monthly activity into one
// UserRecord per user, sorted by address.
func (b *Builder) Build(users []*domain.UserSegment, activities []*domain.MonthlyActivity) []*domain.UserRecord {
	byUser := make(map[string][]*domain.MonthlyActivity)
	for _, a := range activities {
		byUser[a.UserAddress] = append(byUser[a.UserAddress], a)
	}

	now := domain.MonthOf(b.clock())
	records := make([]*domain.UserRecord, 0, len(users))
	for _, u := range users {
		records = append(records, b.buildOne(u, byUser[u.UserAddress], now))
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].UserAddress < records[j].UserAddress
	})
	return records
}

func (b *Builder) buildOne(u *domain.UserSegment, months []*domain.MonthlyActivity, now domain.Month) *domain.UserRecord {
	r := &domain.UserRecord{
		UserAddress:        u.UserAddress,
		CohortMonth:        u.CohortMonth,
		FirstBridgeDate:    u.FirstBridgeDate,
		TotalBridgedAmount: u.TotalBridgedAmount,
		TotalBridgeCount:   u.TotalBridgeCount,
		Segment:            u.Segment,
		Tier:               u.Tier,
	}

	for _, m := range months {
		month := m.ActivityMonth
		if r.FirstActivityMonth == nil || month.Before(*r.FirstActivityMonth) {
			first := month
			r.FirstActivityMonth = &first
		}
		if r.LastActivityMonth == nil || r.LastActivityMonth.Before(month) {
			last := month
			r.LastActivityMonth = &last
		}
		r.ActiveMonthCount++
		r.LifetimeTxCount += m.TransactionCount
		r.LifetimeVolume += m.TotalVolume
	}

	r.IsChurned = b.isChurned(r.LastActivityMonth, now)
	r.EngagementStatus = engagementFor(r.ActiveMonthCount, u.Segment)
	return r
}

// isChurned: no activity ever, or last active month more than the
// configured number of calendar months before the processing date.
func (b *Builder) isChurned(last *domain.Month, now domain.Month) bool {
	if last == nil {
		return true
	}
	return now.Sub(*last) > b.cfg.ChurnInactivityMonths
}

// engagementFor applies the engagement ladder, first match wins.
func engagementFor(activeMonths int, segment domain.Segment) domain.EngagementStatus {
	switch {
	case activeMonths >= 3 && segment == domain.SegmentWhale:
		return domain.EngagementHighValueRetained
	case activeMonths >= 3:
		return domain.EngagementRetained
	case activeMonths >= 1:
		return domain.EngagementEngaged
	default:
		return domain.EngagementBridgeOnly
	}
}
