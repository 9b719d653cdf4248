package cohort

import (
	"sort"

	"linea-analytics/internal/domain"
)

// tierBands is the ordered tier boundary table, evaluated top-down with
// strict greater-than comparisons. First matching band wins; anything at or
// below the last floor is Micro.
var tierBands = []struct {
	Floor float64
	Tier  domain.Tier
}{
	{100, domain.TierMegaWhale},
	{10, domain.TierWhale},
	{1, domain.TierMidTier},
	{0.1, domain.TierRetail},
}

// Classify fills in segment, tier and volume rank for cohort-assigned
// users. Segment is Whale iff total bridged amount strictly exceeds
// cfg.WhaleThreshold. Rank is computed independently within each cohort
// month: volume descending, user address ascending as the tie-break so
// reruns produce identical ranks.
func Classify(users []*domain.UserSegment, cfg domain.Config) {
	for _, u := range users {
		u.Segment = segmentFor(u.TotalBridgedAmount, cfg.WhaleThreshold)
		u.Tier = tierFor(u.TotalBridgedAmount)
	}
	rankWithinCohorts(users)
}

func segmentFor(amount, whaleThreshold float64) domain.Segment {
	if amount > whaleThreshold {
		return domain.SegmentWhale
	}
	return domain.SegmentRetail
}

func tierFor(amount float64) domain.Tier {
	for _, band := range tierBands {
		if amount > band.Floor {
			return band.Tier
		}
	}
	return domain.TierMicro
}

// rankWithinCohorts assigns sequential ranks starting at 1 per cohort
// month, highest volume first.
func rankWithinCohorts(users []*domain.UserSegment) {
	byCohort := make(map[domain.Month][]*domain.UserSegment)
	for _, u := range users {
		byCohort[u.CohortMonth] = append(byCohort[u.CohortMonth], u)
	}

	for _, members := range byCohort {
		sort.Slice(members, func(i, j int) bool {
			if members[i].TotalBridgedAmount != members[j].TotalBridgedAmount {
				return members[i].TotalBridgedAmount > members[j].TotalBridgedAmount
			}
			return members[i].UserAddress < members[j].UserAddress
		})
		for i, u := range members {
			u.VolumeRankInCohort = i + 1
		}
	}
}
