package cohort

import (
	"testing"
	"time"

	"linea-analytics/internal/domain"
)

func makeUser(addr string, cohort domain.Month, amount float64) *domain.UserSegment {
	return &domain.UserSegment{
		UserAddress:        addr,
		CohortMonth:        cohort,
		TotalBridgedAmount: amount,
	}
}

func TestClassify_SegmentBoundary(t *testing.T) {
	cfg := domain.DefaultConfig() // whale threshold 10

	cases := []struct {
		amount float64
		want   domain.Segment
	}{
		{10.01, domain.SegmentWhale},
		{10.0, domain.SegmentRetail}, // strictly greater than, not >=
		{9.99, domain.SegmentRetail},
		{0, domain.SegmentRetail},
		{1000, domain.SegmentWhale},
	}

	cohort := domain.Month{Year: 2024, Month: time.January}
	for _, tc := range cases {
		users := []*domain.UserSegment{makeUser("0xaaa", cohort, tc.amount)}
		Classify(users, cfg)
		if users[0].Segment != tc.want {
			t.Errorf("amount %v: segment = %q, want %q", tc.amount, users[0].Segment, tc.want)
		}
	}
}

func TestClassify_CustomThreshold(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.WhaleThreshold = 1

	users := []*domain.UserSegment{makeUser("0xaaa", domain.Month{Year: 2024, Month: time.January}, 5)}
	Classify(users, cfg)
	if users[0].Segment != domain.SegmentWhale {
		t.Errorf("segment = %q, want Whale at threshold 1", users[0].Segment)
	}
}

func TestClassify_TierBands(t *testing.T) {
	cases := []struct {
		amount float64
		want   domain.Tier
	}{
		{150, domain.TierMegaWhale},
		{100.0001, domain.TierMegaWhale},
		{100, domain.TierWhale}, // band floors are exclusive
		{50, domain.TierWhale},
		{10, domain.TierMidTier},
		{5, domain.TierMidTier},
		{1, domain.TierRetail},
		{0.5, domain.TierRetail},
		{0.1, domain.TierMicro},
		{0.05, domain.TierMicro},
		{0, domain.TierMicro},
	}

	cfg := domain.DefaultConfig()
	cohort := domain.Month{Year: 2024, Month: time.January}
	for _, tc := range cases {
		users := []*domain.UserSegment{makeUser("0xaaa", cohort, tc.amount)}
		Classify(users, cfg)
		if users[0].Tier != tc.want {
			t.Errorf("amount %v: tier = %q, want %q", tc.amount, users[0].Tier, tc.want)
		}
	}
}

func TestClassify_RankWithinCohort(t *testing.T) {
	jan := domain.Month{Year: 2024, Month: time.January}
	feb := domain.Month{Year: 2024, Month: time.February}

	users := []*domain.UserSegment{
		makeUser("0xaaa", jan, 5),
		makeUser("0xbbb", jan, 50),
		makeUser("0xccc", jan, 20),
		makeUser("0xddd", feb, 1), // separate cohort, own rank sequence
	}
	Classify(users, domain.DefaultConfig())

	wantRanks := map[string]int{
		"0xbbb": 1,
		"0xccc": 2,
		"0xaaa": 3,
		"0xddd": 1,
	}
	for _, u := range users {
		if u.VolumeRankInCohort != wantRanks[u.UserAddress] {
			t.Errorf("%s: rank = %d, want %d", u.UserAddress, u.VolumeRankInCohort, wantRanks[u.UserAddress])
		}
	}
}

func TestClassify_RankTieBreakByAddress(t *testing.T) {
	jan := domain.Month{Year: 2024, Month: time.January}
	users := []*domain.UserSegment{
		makeUser("0xbbb", jan, 7),
		makeUser("0xaaa", jan, 7),
	}

	for run := 0; run < 5; run++ {
		Classify(users, domain.DefaultConfig())
		for _, u := range users {
			want := 1
			if u.UserAddress == "0xbbb" {
				want = 2
			}
			if u.VolumeRankInCohort != want {
				t.Fatalf("run %d: %s rank = %d, want %d", run, u.UserAddress, u.VolumeRankInCohort, want)
			}
		}
	}
}
