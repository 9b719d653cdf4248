package domain

import "time"

// Segment is the two-way volume segment.
type Segment string

// Segment values.
const (
	SegmentWhale  Segment = "Whale"
	SegmentRetail Segment = "Retail"
)

// Tier is the five-band volume tier. Bands are ordered; every user falls in
// exactly one.
type Tier string

// Tier values, highest volume first.
const (
	TierMegaWhale Tier = "MegaWhale" // > 100
	TierWhale     Tier = "Whale"     // > 10
	TierMidTier   Tier = "MidTier"   // > 1
	TierRetail    Tier = "Retail"    // > 0.1
	TierMicro     Tier = "Micro"     // everything else
)

// UserSegment is one row per bridging user with cohort assignment and volume
// classification. Corresponds to the user_segments table.
// Invariant: Segment == SegmentWhale iff TotalBridgedAmount > whale threshold.
type UserSegment struct {
	UserAddress        string // PRIMARY KEY (lowercase hex)
	CohortMonth        Month  // calendar month of first bridge deposit
	FirstBridgeDate    time.Time
	TotalBridgedAmount float64 // ETH, summed over all deposits
	TotalBridgeCount   int
	Segment            Segment
	Tier               Tier
	VolumeRankInCohort int // 1 = highest volume within cohort month
}
