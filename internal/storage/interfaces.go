package storage

import (
	"context"

	"linea-analytics/internal/domain"
)

// BridgeDepositStore provides access to bridge_deposits storage.
type BridgeDepositStore interface {
	// InsertBulk adds deposits atomically. Fails the entire batch on a
	// duplicate (tx_hash, log_index).
	InsertBulk(ctx context.Context, deposits []*domain.BridgeDeposit) error

	// GetAll retrieves all deposits ordered by timestamp, tx_hash, log_index.
	GetAll(ctx context.Context) ([]*domain.BridgeDeposit, error)

	// GetByUser retrieves all deposits made by an address, ordered by timestamp.
	GetByUser(ctx context.Context, userAddress string) ([]*domain.BridgeDeposit, error)

	// Count returns the number of stored deposits.
	Count(ctx context.Context) (int64, error)

	// Truncate removes all rows (full-refresh load strategy).
	Truncate(ctx context.Context) error
}

// TransactionStore provides access to linea_transactions storage.
type TransactionStore interface {
	// InsertBulk adds transactions atomically. Fails the entire batch on a
	// duplicate hash.
	InsertBulk(ctx context.Context, txs []*domain.Transaction) error

	// GetAll retrieves all transactions ordered by timestamp, hash.
	GetAll(ctx context.Context) ([]*domain.Transaction, error)

	// Count returns the number of stored transactions.
	Count(ctx context.Context) (int64, error)

	// Truncate removes all rows.
	Truncate(ctx context.Context) error
}

// UserSegmentStore provides access to user_segments storage.
type UserSegmentStore interface {
	// InsertBulk adds segments atomically. Fails the entire batch on a
	// duplicate user address.
	InsertBulk(ctx context.Context, users []*domain.UserSegment) error

	// GetAll retrieves all user segments ordered by user address.
	GetAll(ctx context.Context) ([]*domain.UserSegment, error)

	// GetByUser retrieves one user's segment. Returns ErrNotFound if absent.
	GetByUser(ctx context.Context, userAddress string) (*domain.UserSegment, error)

	// GetByCohort retrieves all users of a cohort month, ordered by
	// volume rank.
	GetByCohort(ctx context.Context, month domain.Month) ([]*domain.UserSegment, error)

	// Truncate removes all rows.
	Truncate(ctx context.Context) error
}

// MonthlyActivityStore provides access to monthly_activity storage.
type MonthlyActivityStore interface {
	// InsertBulk adds activity rows atomically. Fails the entire batch on
	// a duplicate (user, month).
	InsertBulk(ctx context.Context, rows []*domain.MonthlyActivity) error

	// GetAll retrieves all rows ordered by user address, activity month.
	GetAll(ctx context.Context) ([]*domain.MonthlyActivity, error)

	// GetByUser retrieves one user's activity ordered by month.
	GetByUser(ctx context.Context, userAddress string) ([]*domain.MonthlyActivity, error)

	// Truncate removes all rows.
	Truncate(ctx context.Context) error
}

// RetentionRowStore provides access to retention_matrix storage.
type RetentionRowStore interface {
	// InsertBulk adds matrix rows atomically. Fails the entire batch on a
	// duplicate (cohort_month, segment, months_since_bridge).
	InsertBulk(ctx context.Context, rows []*domain.RetentionRow) error

	// GetAll retrieves all rows ordered by cohort month, segment, offset.
	GetAll(ctx context.Context) ([]*domain.RetentionRow, error)

	// GetByCohort retrieves one cohort's rows ordered by segment, offset.
	GetByCohort(ctx context.Context, month domain.Month) ([]*domain.RetentionRow, error)

	// Truncate removes all rows.
	Truncate(ctx context.Context) error
}

// UserRecordStore provides access to user_records storage.
type UserRecordStore interface {
	// InsertBulk adds records atomically. Fails the entire batch on a
	// duplicate user address.
	InsertBulk(ctx context.Context, records []*domain.UserRecord) error

	// GetAll retrieves all records ordered by user address.
	GetAll(ctx context.Context) ([]*domain.UserRecord, error)

	// GetByUser retrieves one record. Returns ErrNotFound if absent.
	GetByUser(ctx context.Context, userAddress string) (*domain.UserRecord, error)

	// Truncate removes all rows.
	Truncate(ctx context.Context) error
}
