package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"linea-analytics/internal/domain"
	"linea-analytics/internal/storage"
)

// UserSegmentStore implements storage.UserSegmentStore using PostgreSQL.
type UserSegmentStore struct {
	pool *Pool
}

// NewUserSegmentStore creates a new UserSegmentStore.
func NewUserSegmentStore(pool *Pool) *UserSegmentStore {
	return &UserSegmentStore{pool: pool}
}

var _ storage.UserSegmentStore = (*UserSegmentStore)(nil)

const insertUserSegmentSQL = `
	INSERT INTO user_segments (
		user_address, cohort_month, first_bridge_date, total_bridged_amount,
		total_bridge_count, segment, tier, volume_rank_in_cohort
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

const selectUserSegmentColumns = `
	user_address, cohort_month, first_bridge_date, total_bridged_amount,
	total_bridge_count, segment, tier, volume_rank_in_cohort
`

// InsertBulk adds segments atomically. Fails the entire batch on any
// duplicate user address.
func (s *UserSegmentStore) InsertBulk(ctx context.Context, users []*domain.UserSegment) error {
	if len(users) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, u := range users {
		_, err := tx.Exec(ctx, insertUserSegmentSQL,
			u.UserAddress,
			monthToDate(u.CohortMonth),
			u.FirstBridgeDate,
			u.TotalBridgedAmount,
			u.TotalBridgeCount,
			string(u.Segment),
			string(u.Tier),
			u.VolumeRankInCohort,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert user segment: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetAll retrieves all user segments ordered by user address.
func (s *UserSegmentStore) GetAll(ctx context.Context) ([]*domain.UserSegment, error) {
	query := `
		SELECT ` + selectUserSegmentColumns + `
		FROM user_segments
		ORDER BY user_address ASC
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all user segments: %w", err)
	}
	defer rows.Close()

	return scanUserSegments(rows)
}

// GetByUser retrieves one user's segment. Returns ErrNotFound if absent.
func (s *UserSegmentStore) GetByUser(ctx context.Context, userAddress string) (*domain.UserSegment, error) {
	query := `
		SELECT ` + selectUserSegmentColumns + `
		FROM user_segments
		WHERE user_address = $1
	`
	u, err := scanUserSegment(s.pool.QueryRow(ctx, query, userAddress))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get user segment: %w", err)
	}
	return u, nil
}

// GetByCohort retrieves all users of a cohort month, ordered by volume rank.
func (s *UserSegmentStore) GetByCohort(ctx context.Context, month domain.Month) ([]*domain.UserSegment, error) {
	query := `
		SELECT ` + selectUserSegmentColumns + `
		FROM user_segments
		WHERE cohort_month = $1
		ORDER BY volume_rank_in_cohort ASC
	`
	rows, err := s.pool.Query(ctx, query, monthToDate(month))
	if err != nil {
		return nil, fmt.Errorf("get user segments by cohort: %w", err)
	}
	defer rows.Close()

	return scanUserSegments(rows)
}

// Truncate removes all rows.
func (s *UserSegmentStore) Truncate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE TABLE user_segments`); err != nil {
		return fmt.Errorf("truncate user_segments: %w", err)
	}
	return nil
}

func scanUserSegment(row pgx.Row) (*domain.UserSegment, error) {
	var u domain.UserSegment
	var cohortMonth time.Time
	var segment, tier string

	err := row.Scan(
		&u.UserAddress,
		&cohortMonth,
		&u.FirstBridgeDate,
		&u.TotalBridgedAmount,
		&u.TotalBridgeCount,
		&segment,
		&tier,
		&u.VolumeRankInCohort,
	)
	if err != nil {
		return nil, err
	}

	u.CohortMonth = dateToMonth(cohortMonth)
	u.Segment = domain.Segment(segment)
	u.Tier = domain.Tier(tier)
	return &u, nil
}

func scanUserSegments(rows pgx.Rows) ([]*domain.UserSegment, error) {
	var users []*domain.UserSegment

	for rows.Next() {
		u, err := scanUserSegment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user segment row: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user segment rows: %w", err)
	}
	return users, nil
}
