// Package cohort assigns bridge users to acquisition cohorts and
// classifies them by bridged volume.
package cohort

import (
	"sort"

	"linea-analytics/internal/domain"
)

// AssignCohorts groups bridge deposits by user and produces one
// UserSegment precursor per distinct address: first bridge timestamp,
// cohort month (calendar month of first bridge), deposit count and volume
// sum. Segment, tier and rank are filled in by Classify.
//
// Empty input yields empty output; users with zero deposits never appear.
func AssignCohorts(deposits []*domain.BridgeDeposit) []*domain.UserSegment {
	byUser := make(map[string]*domain.UserSegment)

	for _, d := range deposits {
		u, ok := byUser[d.FromAddress]
		if !ok {
			u = &domain.UserSegment{
				UserAddress:     d.FromAddress,
				FirstBridgeDate: d.Timestamp,
			}
			byUser[d.FromAddress] = u
		}
		if d.Timestamp.Before(u.FirstBridgeDate) {
			u.FirstBridgeDate = d.Timestamp
		}
		u.TotalBridgedAmount += d.ValueETH
		u.TotalBridgeCount++
	}

	users := make([]*domain.UserSegment, 0, len(byUser))
	for _, u := range byUser {
		u.CohortMonth = domain.MonthOf(u.FirstBridgeDate)
		users = append(users, u)
	}

	// Map iteration is random; sort for deterministic downstream output.
	sort.Slice(users, func(i, j int) bool {
		return users[i].UserAddress < users[j].UserAddress
	})
	return users
}
