package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"linea-analytics/internal/domain"
	"linea-analytics/internal/storage"
)

// TransactionStore implements storage.TransactionStore using PostgreSQL.
type TransactionStore struct {
	pool *Pool
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(pool *Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

var _ storage.TransactionStore = (*TransactionStore)(nil)

const insertTransactionSQL = `
	INSERT INTO linea_transactions (
		timestamp, block_number, hash, from_address, to_address, value_eth,
		gas_price_gwei, gas_used, nonce, is_error, tx_status, method_id,
		function_name
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
`

const selectTransactionColumns = `
	timestamp, block_number, hash, from_address, to_address, value_eth,
	gas_price_gwei, gas_used, nonce, is_error, tx_status, method_id,
	function_name
`

// InsertBulk adds transactions atomically. Fails the entire batch on any
// duplicate hash.
func (s *TransactionStore) InsertBulk(ctx context.Context, txs []*domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range txs {
		_, err := tx.Exec(ctx, insertTransactionSQL,
			t.Timestamp,
			t.BlockNumber,
			t.Hash,
			t.FromAddress,
			t.ToAddress,
			t.ValueETH,
			t.GasPriceGwei,
			t.GasUsed,
			t.Nonce,
			t.IsError,
			t.TxStatus,
			t.MethodID,
			t.FunctionName,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert transaction: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetAll retrieves all transactions ordered by timestamp, hash.
func (s *TransactionStore) GetAll(ctx context.Context) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + selectTransactionColumns + `
		FROM linea_transactions
		ORDER BY timestamp ASC, hash ASC
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// Count returns the number of stored transactions.
func (s *TransactionStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM linea_transactions`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return count, nil
}

// Truncate removes all rows.
func (s *TransactionStore) Truncate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE TABLE linea_transactions`); err != nil {
		return fmt.Errorf("truncate linea_transactions: %w", err)
	}
	return nil
}

// scanTransactions scans multiple rows into a slice of Transaction.
func scanTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	var txs []*domain.Transaction

	for rows.Next() {
		var t domain.Transaction
		err := rows.Scan(
			&t.Timestamp,
			&t.BlockNumber,
			&t.Hash,
			&t.FromAddress,
			&t.ToAddress,
			&t.ValueETH,
			&t.GasPriceGwei,
			&t.GasUsed,
			&t.Nonce,
			&t.IsError,
			&t.TxStatus,
			&t.MethodID,
			&t.FunctionName,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		txs = append(txs, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txs, nil
}
