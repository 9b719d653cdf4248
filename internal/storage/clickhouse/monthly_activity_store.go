package clickhouse

import (
	"context"
	"fmt"
	"time"

	"linea-analytics/internal/domain"
	"linea-analytics/internal/storage"
)

// MonthlyActivityStore implements storage.MonthlyActivityStore using ClickHouse.
type MonthlyActivityStore struct {
	conn *Conn
}

// NewMonthlyActivityStore creates a new MonthlyActivityStore.
func NewMonthlyActivityStore(conn *Conn) *MonthlyActivityStore {
	return &MonthlyActivityStore{conn: conn}
}

// Compile-time interface check.
var _ storage.MonthlyActivityStore = (*MonthlyActivityStore)(nil)

// InsertBulk adds multiple rows. Fails entire batch on duplicate (user_address, activity_month).
func (s *MonthlyActivityStore) InsertBulk(ctx context.Context, activities []*domain.MonthlyActivity) error {
	if len(activities) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		userAddress string
		month       domain.Month
	}
	seen := make(map[key]struct{})
	for _, a := range activities {
		k := key{a.UserAddress, a.ActivityMonth}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, a := range activities {
		exists, err := s.exists(ctx, a.UserAddress, a.ActivityMonth)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO monthly_activity (
			user_address, activity_month, transaction_count, active_days,
			unique_counterparties, total_volume, first_tx_time, last_tx_time,
			success_count, failure_count, bridge_claim_count, activity_level
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, a := range activities {
		err = batch.Append(
			a.UserAddress, monthToDate(a.ActivityMonth),
			uint32(a.TransactionCount), uint16(a.ActiveDays),
			uint32(a.UniqueCounterparties), a.TotalVolume,
			a.FirstTxTime, a.LastTxTime,
			uint32(a.SuccessCount), uint32(a.FailureCount),
			uint32(a.BridgeClaimCount), string(a.ActivityLevel),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetAll retrieves all rows, ordered by user address then month ASC.
func (s *MonthlyActivityStore) GetAll(ctx context.Context) ([]*domain.MonthlyActivity, error) {
	query := selectActivityQuery + `
		ORDER BY user_address ASC, activity_month ASC
	`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all monthly activity: %w", err)
	}
	defer rows.Close()

	return scanMonthlyActivity(rows)
}

// GetByUser retrieves all rows for a user, ordered by month ASC.
func (s *MonthlyActivityStore) GetByUser(ctx context.Context, userAddress string) ([]*domain.MonthlyActivity, error) {
	query := selectActivityQuery + `
		WHERE user_address = ?
		ORDER BY activity_month ASC
	`

	rows, err := s.conn.Query(ctx, query, userAddress)
	if err != nil {
		return nil, fmt.Errorf("query monthly activity by user: %w", err)
	}
	defer rows.Close()

	return scanMonthlyActivity(rows)
}

// Truncate removes all rows.
func (s *MonthlyActivityStore) Truncate(ctx context.Context) error {
	if err := s.conn.Exec(ctx, `TRUNCATE TABLE monthly_activity`); err != nil {
		return fmt.Errorf("truncate monthly_activity: %w", err)
	}
	return nil
}

// exists checks if a row with the given key exists.
func (s *MonthlyActivityStore) exists(ctx context.Context, userAddress string, month domain.Month) (bool, error) {
	query := `
		SELECT count(*) FROM monthly_activity
		WHERE user_address = ? AND activity_month = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, userAddress, monthToDate(month)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

const selectActivityQuery = `
	SELECT user_address, activity_month, transaction_count, active_days,
		unique_counterparties, total_volume, first_tx_time, last_tx_time,
		success_count, failure_count, bridge_claim_count, activity_level
	FROM monthly_activity
`

// scanMonthlyActivity scans multiple rows.
func scanMonthlyActivity(rows chRows) ([]*domain.MonthlyActivity, error) {
	var activities []*domain.MonthlyActivity

	for rows.Next() {
		var a domain.MonthlyActivity
		var month time.Time
		var txCount, counterparties, success, failure, claims uint32
		var activeDays uint16
		var level string

		err := rows.Scan(
			&a.UserAddress, &month, &txCount, &activeDays,
			&counterparties, &a.TotalVolume, &a.FirstTxTime, &a.LastTxTime,
			&success, &failure, &claims, &level,
		)
		if err != nil {
			return nil, fmt.Errorf("scan monthly activity row: %w", err)
		}

		a.ActivityMonth = dateToMonth(month)
		a.TransactionCount = int(txCount)
		a.ActiveDays = int(activeDays)
		a.UniqueCounterparties = int(counterparties)
		a.SuccessCount = int(success)
		a.FailureCount = int(failure)
		a.BridgeClaimCount = int(claims)
		a.ActivityLevel = domain.ActivityLevel(level)
		activities = append(activities, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate monthly activity rows: %w", err)
	}

	return activities, nil
}
