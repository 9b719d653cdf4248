package domain

import "time"

// ActivityLevel classifies a user-month by transaction count.
type ActivityLevel string

// Activity levels, most active first.
const (
	ActivityLevelPowerUser ActivityLevel = "PowerUser" // >= 50 txs
	ActivityLevelActive    ActivityLevel = "Active"    // >= 10
	ActivityLevelCasual    ActivityLevel = "Casual"    // >= 3
	ActivityLevelMinimal   ActivityLevel = "Minimal"
)

// MonthlyActivity is one row per (user, calendar month) with at least one
// destination-chain transaction. Months without activity have no row.
// Corresponds to the monthly_activity table.
type MonthlyActivity struct {
	UserAddress          string
	ActivityMonth        Month
	TransactionCount     int
	ActiveDays           int // distinct UTC calendar days with a tx
	UniqueCounterparties int // distinct to_address values
	TotalVolume          float64
	FirstTxTime          time.Time
	LastTxTime           time.Time
	SuccessCount         int
	FailureCount         int
	// BridgeClaimCount is the number of transactions sent to the bridge
	// message service (claims, not organic engagement).
	BridgeClaimCount int
	ActivityLevel    ActivityLevel
}

// NonBridgeTxCount returns the number of transactions that are not bridge
// claims.
func (a *MonthlyActivity) NonBridgeTxCount() int {
	return a.TransactionCount - a.BridgeClaimCount
}
