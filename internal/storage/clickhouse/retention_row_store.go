package clickhouse

import (
	"context"
	"fmt"
	"time"

	"linea-analytics/internal/domain"
	"linea-analytics/internal/storage"
)

// RetentionRowStore implements storage.RetentionRowStore using ClickHouse.
type RetentionRowStore struct {
	conn *Conn
}

// NewRetentionRowStore creates a new RetentionRowStore.
func NewRetentionRowStore(conn *Conn) *RetentionRowStore {
	return &RetentionRowStore{conn: conn}
}

// Compile-time interface check.
var _ storage.RetentionRowStore = (*RetentionRowStore)(nil)

// InsertBulk adds multiple rows. Fails entire batch on duplicate
// (cohort_month, segment, months_since_bridge).
func (s *RetentionRowStore) InsertBulk(ctx context.Context, rows []*domain.RetentionRow) error {
	if len(rows) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		month   domain.Month
		segment domain.Segment
		offset  int
	}
	seen := make(map[key]struct{})
	for _, r := range rows {
		k := key{r.CohortMonth, r.Segment, r.MonthsSinceBridge}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, r := range rows {
		exists, err := s.exists(ctx, r.CohortMonth, r.Segment, r.MonthsSinceBridge)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO retention_matrix (
			cohort_month, segment, months_since_bridge, cohort_size,
			month0_active_users, active_users, cumulative_users, metric_type,
			activation_rate, retention_rate, cumulative_retention_rate, month_label
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range rows {
		err = batch.Append(
			monthToDate(r.CohortMonth), string(r.Segment),
			uint16(r.MonthsSinceBridge), uint32(r.CohortSize),
			uint32(r.Month0ActiveUsers), uint32(r.ActiveUsers),
			uint32(r.CumulativeUsers), r.MetricType,
			r.ActivationRate, r.RetentionRate,
			r.CumulativeRetentionRate, r.MonthLabel,
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

// GetAll retrieves all rows, ordered by cohort, segment, offset ASC.
func (s *RetentionRowStore) GetAll(ctx context.Context) ([]*domain.RetentionRow, error) {
	query := selectRetentionQuery + `
		ORDER BY cohort_month ASC, segment ASC, months_since_bridge ASC
	`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all retention rows: %w", err)
	}
	defer rows.Close()

	return scanRetentionRows(rows)
}

// GetByCohort retrieves all rows for a cohort month, ordered by segment then offset ASC.
func (s *RetentionRowStore) GetByCohort(ctx context.Context, cohortMonth domain.Month) ([]*domain.RetentionRow, error) {
	query := selectRetentionQuery + `
		WHERE cohort_month = ?
		ORDER BY segment ASC, months_since_bridge ASC
	`

	rows, err := s.conn.Query(ctx, query, monthToDate(cohortMonth))
	if err != nil {
		return nil, fmt.Errorf("query retention rows by cohort: %w", err)
	}
	defer rows.Close()

	return scanRetentionRows(rows)
}

// Truncate removes all rows.
func (s *RetentionRowStore) Truncate(ctx context.Context) error {
	if err := s.conn.Exec(ctx, `TRUNCATE TABLE retention_matrix`); err != nil {
		return fmt.Errorf("truncate retention_matrix: %w", err)
	}
	return nil
}

// exists checks if a row with the given key exists.
func (s *RetentionRowStore) exists(ctx context.Context, month domain.Month, segment domain.Segment, offset int) (bool, error) {
	query := `
		SELECT count(*) FROM retention_matrix
		WHERE cohort_month = ? AND segment = ? AND months_since_bridge = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, monthToDate(month), string(segment), uint16(offset)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

const selectRetentionQuery = `
	SELECT cohort_month, segment, months_since_bridge, cohort_size,
		month0_active_users, active_users, cumulative_users, metric_type,
		activation_rate, retention_rate, cumulative_retention_rate, month_label
	FROM retention_matrix
`

// scanRetentionRows scans multiple rows.
func scanRetentionRows(rows chRows) ([]*domain.RetentionRow, error) {
	var result []*domain.RetentionRow

	for rows.Next() {
		var r domain.RetentionRow
		var month time.Time
		var offset uint16
		var cohortSize, month0Active, active, cumulative uint32
		var segment, metricType string

		err := rows.Scan(
			&month, &segment, &offset, &cohortSize,
			&month0Active, &active, &cumulative, &metricType,
			&r.ActivationRate, &r.RetentionRate,
			&r.CumulativeRetentionRate, &r.MonthLabel,
		)
		if err != nil {
			return nil, fmt.Errorf("scan retention row: %w", err)
		}

		r.CohortMonth = dateToMonth(month)
		r.Segment = domain.Segment(segment)
		r.MonthsSinceBridge = int(offset)
		r.CohortSize = int(cohortSize)
		r.Month0ActiveUsers = int(month0Active)
		r.ActiveUsers = int(active)
		r.CumulativeUsers = int(cumulative)
		r.MetricType = metricType
		result = append(result, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate retention rows: %w", err)
	}

	return result, nil
}
