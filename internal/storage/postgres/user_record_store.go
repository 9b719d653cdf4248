package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"linea-analytics/internal/domain"
	"linea-analytics/internal/storage"
)

// UserRecordStore implements storage.UserRecordStore using PostgreSQL.
type UserRecordStore struct {
	pool *Pool
}

// NewUserRecordStore creates a new UserRecordStore.
func NewUserRecordStore(pool *Pool) *UserRecordStore {
	return &UserRecordStore{pool: pool}
}

var _ storage.UserRecordStore = (*UserRecordStore)(nil)

const insertUserRecordSQL = `
	INSERT INTO user_records (
		user_address, cohort_month, first_bridge_date, total_bridged_amount,
		total_bridge_count, segment, tier, first_activity_month,
		last_activity_month, active_month_count, lifetime_tx_count,
		lifetime_volume, is_churned, engagement_status
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
`

const selectUserRecordColumns = `
	user_address, cohort_month, first_bridge_date, total_bridged_amount,
	total_bridge_count, segment, tier, first_activity_month,
	last_activity_month, active_month_count, lifetime_tx_count,
	lifetime_volume, is_churned, engagement_status
`

// InsertBulk adds records atomically. Fails the entire batch on any
// duplicate user address.
func (s *UserRecordStore) InsertBulk(ctx context.Context, records []*domain.UserRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range records {
		_, err := tx.Exec(ctx, insertUserRecordSQL,
			r.UserAddress,
			monthToDate(r.CohortMonth),
			r.FirstBridgeDate,
			r.TotalBridgedAmount,
			r.TotalBridgeCount,
			string(r.Segment),
			string(r.Tier),
			optionalMonthToDate(r.FirstActivityMonth),
			optionalMonthToDate(r.LastActivityMonth),
			r.ActiveMonthCount,
			r.LifetimeTxCount,
			r.LifetimeVolume,
			r.IsChurned,
			string(r.EngagementStatus),
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert user record: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetAll retrieves all records ordered by user address.
func (s *UserRecordStore) GetAll(ctx context.Context) ([]*domain.UserRecord, error) {
	query := `
		SELECT ` + selectUserRecordColumns + `
		FROM user_records
		ORDER BY user_address ASC
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all user records: %w", err)
	}
	defer rows.Close()

	return scanUserRecords(rows)
}

// GetByUser retrieves one record. Returns ErrNotFound if absent.
func (s *UserRecordStore) GetByUser(ctx context.Context, userAddress string) (*domain.UserRecord, error) {
	query := `
		SELECT ` + selectUserRecordColumns + `
		FROM user_records
		WHERE user_address = $1
	`
	r, err := scanUserRecord(s.pool.QueryRow(ctx, query, userAddress))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get user record: %w", err)
	}
	return r, nil
}

// Truncate removes all rows.
func (s *UserRecordStore) Truncate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE TABLE user_records`); err != nil {
		return fmt.Errorf("truncate user_records: %w", err)
	}
	return nil
}

func optionalMonthToDate(m *domain.Month) *time.Time {
	if m == nil {
		return nil
	}
	t := m.Time()
	return &t
}

func scanUserRecord(row pgx.Row) (*domain.UserRecord, error) {
	var r domain.UserRecord
	var cohortMonth time.Time
	var firstActivity, lastActivity *time.Time
	var segment, tier, engagement string

	err := row.Scan(
		&r.UserAddress,
		&cohortMonth,
		&r.FirstBridgeDate,
		&r.TotalBridgedAmount,
		&r.TotalBridgeCount,
		&segment,
		&tier,
		&firstActivity,
		&lastActivity,
		&r.ActiveMonthCount,
		&r.LifetimeTxCount,
		&r.LifetimeVolume,
		&r.IsChurned,
		&engagement,
	)
	if err != nil {
		return nil, err
	}

	r.CohortMonth = dateToMonth(cohortMonth)
	r.Segment = domain.Segment(segment)
	r.Tier = domain.Tier(tier)
	r.EngagementStatus = domain.EngagementStatus(engagement)
	if firstActivity != nil {
		m := dateToMonth(*firstActivity)
		r.FirstActivityMonth = &m
	}
	if lastActivity != nil {
		m := dateToMonth(*lastActivity)
		r.LastActivityMonth = &m
	}
	return &r, nil
}

func scanUserRecords(rows pgx.Rows) ([]*domain.UserRecord, error) {
	var records []*domain.UserRecord

	for rows.Next() {
		r, err := scanUserRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user record row: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user record rows: %w", err)
	}
	return records, nil
}
