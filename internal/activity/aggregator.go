// Package activity aggregates destination-chain transactions into monthly
// per-user activity summaries.
package activity

import (
	"sort"

	"linea-analytics/internal/domain"
)

// userMonth keys one aggregation bucket.
type userMonth struct {
	user  string
	month domain.Month
}

// Aggregate groups transactions by (sender, calendar month) and computes
// the MonthlyActivity summary for each bucket. The representation is
// sparse: a user-month with zero transactions produces no row.
//
// Transactions sent to the bridge message service are counted separately
// as bridge claims so the retention engine can distinguish organic
// engagement from claim traffic.
func Aggregate(txs []*domain.Transaction, cfg domain.Config) []*domain.MonthlyActivity {
	buckets := make(map[userMonth]*bucket)

	for _, tx := range txs {
		key := userMonth{user: tx.FromAddress, month: domain.MonthOf(tx.Timestamp)}
		b, ok := buckets[key]
		if !ok {
			b = newBucket()
			buckets[key] = b
		}
		b.add(tx, cfg.BridgeMessageService)
	}

	rows := make([]*domain.MonthlyActivity, 0, len(buckets))
	for key, b := range buckets {
		rows = append(rows, b.summarize(key, cfg.ActivityLevels))
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].UserAddress != rows[j].UserAddress {
			return rows[i].UserAddress < rows[j].UserAddress
		}
		return rows[i].ActivityMonth.Before(rows[j].ActivityMonth)
	})
	return rows
}

// bucket accumulates one (user, month) group.
type bucket struct {
	txCount        int
	days           map[string]struct{}
	counterparties map[string]struct{}
	volume         float64
	firstTx        *domain.Transaction
	lastTx         *domain.Transaction
	successCount   int
	failureCount   int
	bridgeClaims   int
}

func newBucket() *bucket {
	return &bucket{
		days:           make(map[string]struct{}),
		counterparties: make(map[string]struct{}),
	}
}

func (b *bucket) add(tx *domain.Transaction, bridgeService string) {
	b.txCount++
	b.days[tx.Timestamp.Format("2006-01-02")] = struct{}{}
	if tx.ToAddress != "" {
		b.counterparties[tx.ToAddress] = struct{}{}
	}
	b.volume += tx.ValueETH

	if b.firstTx == nil || tx.Timestamp.Before(b.firstTx.Timestamp) {
		b.firstTx = tx
	}
	if b.lastTx == nil || tx.Timestamp.After(b.lastTx.Timestamp) {
		b.lastTx = tx
	}

	if tx.IsError {
		b.failureCount++
	} else {
		b.successCount++
	}
	if bridgeService != "" && tx.ToAddress == bridgeService {
		b.bridgeClaims++
	}
}

func (b *bucket) summarize(key userMonth, levels domain.ActivityThresholds) *domain.MonthlyActivity {
	return &domain.MonthlyActivity{
		UserAddress:          key.user,
		ActivityMonth:        key.month,
		TransactionCount:     b.txCount,
		ActiveDays:           len(b.days),
		UniqueCounterparties: len(b.counterparties),
		TotalVolume:          b.volume,
		FirstTxTime:          b.firstTx.Timestamp,
		LastTxTime:           b.lastTx.Timestamp,
		SuccessCount:         b.successCount,
		FailureCount:         b.failureCount,
		BridgeClaimCount:     b.bridgeClaims,
		ActivityLevel:        levelFor(b.txCount, levels),
	}
}

// levelFor applies the activity threshold ladder, first match wins.
func levelFor(txCount int, t domain.ActivityThresholds) domain.ActivityLevel {
	switch {
	case txCount >= t.PowerUser:
		return domain.ActivityLevelPowerUser
	case txCount >= t.Active:
		return domain.ActivityLevelActive
	case txCount >= t.Casual:
		return domain.ActivityLevelCasual
	default:
		return domain.ActivityLevelMinimal
	}
}
