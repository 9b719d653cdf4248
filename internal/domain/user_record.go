package domain

import "time"

// EngagementStatus classifies a user's lifetime engagement.
type EngagementStatus string

// Engagement statuses, first-match-wins order.
const (
	EngagementHighValueRetained EngagementStatus = "High Value Retained" // >= 3 active months and Whale
	EngagementRetained          EngagementStatus = "Retained"            // >= 3 active months
	EngagementEngaged           EngagementStatus = "Engaged"             // >= 1 active month
	EngagementBridgeOnly        EngagementStatus = "Bridge Only"         // bridged, never active
)

// UserRecord is the user dimension: one row per bridging user joining
// cohort, segment and lifetime activity. Fully recomputed each run.
// Corresponds to the user_records table.
type UserRecord struct {
	UserAddress        string // PRIMARY KEY
	CohortMonth        Month
	FirstBridgeDate    time.Time
	TotalBridgedAmount float64
	TotalBridgeCount   int
	Segment            Segment
	Tier               Tier

	// Lifetime activity summary. First/LastActivityMonth are nil for users
	// with no destination-chain activity at all.
	FirstActivityMonth *Month
	LastActivityMonth  *Month
	ActiveMonthCount   int
	LifetimeTxCount    int
	LifetimeVolume     float64

	IsChurned        bool
	EngagementStatus EngagementStatus
}
