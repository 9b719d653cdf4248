package domain

// LineaMessageService is the canonical bridge message service contract on
// Linea. Destination-chain transactions sent to this address are bridge
// claims, not organic activity.
const LineaMessageService = "0x508ca82df566dcd1b0de8296e70a96332cd644ec"

// ActivityThresholds is the first-match-wins ladder for monthly activity
// levels, evaluated top-down on transaction count.
type ActivityThresholds struct {
	PowerUser int // >= PowerUser -> ActivityLevelPowerUser
	Active    int // >= Active    -> ActivityLevelActive
	Casual    int // >= Casual    -> ActivityLevelCasual, else Minimal
}

// Config carries all tunable pipeline parameters. It is injected into each
// stage explicitly; there is no ambient global configuration.
type Config struct {
	// WhaleThreshold splits users into Whale/Retail segments.
	// Whale iff total bridged amount is strictly greater than this.
	WhaleThreshold float64

	// RetentionHorizonMonths caps months_since_bridge. Activity beyond the
	// horizon is dropped, not clamped.
	RetentionHorizonMonths int

	// ChurnInactivityMonths marks a user churned when their last active
	// month is more than this many months before the processing date.
	ChurnInactivityMonths int

	// ActivityLevels is the monthly activity classification ladder.
	ActivityLevels ActivityThresholds

	// BridgeMessageService identifies bridge-claim transactions on the
	// destination chain (lowercase hex address).
	BridgeMessageService string
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		WhaleThreshold:         10,
		RetentionHorizonMonths: 12,
		ChurnInactivityMonths:  2,
		ActivityLevels:         ActivityThresholds{PowerUser: 50, Active: 10, Casual: 3},
		BridgeMessageService:   LineaMessageService,
	}
}
