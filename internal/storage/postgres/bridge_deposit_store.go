package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"linea-analytics/internal/domain"
	"linea-analytics/internal/storage"
)

// BridgeDepositStore implements storage.BridgeDepositStore using PostgreSQL.
type BridgeDepositStore struct {
	pool *Pool
}

// NewBridgeDepositStore creates a new BridgeDepositStore.
func NewBridgeDepositStore(pool *Pool) *BridgeDepositStore {
	return &BridgeDepositStore{pool: pool}
}

var _ storage.BridgeDepositStore = (*BridgeDepositStore)(nil)

const insertDepositSQL = `
	INSERT INTO bridge_deposits (
		tx_hash, block_number, timestamp, from_address, to_address,
		message_hash, value_eth, fee_eth, nonce, gas_price, gas_used,
		log_index, tx_index
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
`

const selectDepositColumns = `
	tx_hash, block_number, timestamp, from_address, to_address,
	message_hash, value_eth, fee_eth, nonce, gas_price, gas_used,
	log_index, tx_index
`

// InsertBulk adds deposits atomically. Fails the entire batch on any
// duplicate (tx_hash, log_index).
func (s *BridgeDepositStore) InsertBulk(ctx context.Context, deposits []*domain.BridgeDeposit) error {
	if len(deposits) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, d := range deposits {
		_, err := tx.Exec(ctx, insertDepositSQL,
			d.TxHash,
			d.BlockNumber,
			d.Timestamp,
			d.FromAddress,
			d.ToAddress,
			d.MessageHash,
			d.ValueETH,
			d.FeeETH,
			d.Nonce,
			d.GasPrice,
			d.GasUsed,
			d.LogIndex,
			d.TxIndex,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert bridge deposit: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetAll retrieves all deposits ordered by timestamp, tx_hash, log_index.
func (s *BridgeDepositStore) GetAll(ctx context.Context) ([]*domain.BridgeDeposit, error) {
	query := `
		SELECT ` + selectDepositColumns + `
		FROM bridge_deposits
		ORDER BY timestamp ASC, tx_hash ASC, log_index ASC
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all bridge deposits: %w", err)
	}
	defer rows.Close()

	return scanDeposits(rows)
}

// GetByUser retrieves all deposits made by an address, ordered by timestamp.
func (s *BridgeDepositStore) GetByUser(ctx context.Context, userAddress string) ([]*domain.BridgeDeposit, error) {
	query := `
		SELECT ` + selectDepositColumns + `
		FROM bridge_deposits
		WHERE from_address = $1
		ORDER BY timestamp ASC, tx_hash ASC, log_index ASC
	`
	rows, err := s.pool.Query(ctx, query, userAddress)
	if err != nil {
		return nil, fmt.Errorf("get bridge deposits by user: %w", err)
	}
	defer rows.Close()

	return scanDeposits(rows)
}

// Count returns the number of stored deposits.
func (s *BridgeDepositStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM bridge_deposits`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count bridge deposits: %w", err)
	}
	return count, nil
}

// Truncate removes all rows.
func (s *BridgeDepositStore) Truncate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE TABLE bridge_deposits`); err != nil {
		return fmt.Errorf("truncate bridge_deposits: %w", err)
	}
	return nil
}

// scanDeposits scans multiple rows into a slice of BridgeDeposit.
func scanDeposits(rows pgx.Rows) ([]*domain.BridgeDeposit, error) {
	var deposits []*domain.BridgeDeposit

	for rows.Next() {
		var d domain.BridgeDeposit
		err := rows.Scan(
			&d.TxHash,
			&d.BlockNumber,
			&d.Timestamp,
			&d.FromAddress,
			&d.ToAddress,
			&d.MessageHash,
			&d.ValueETH,
			&d.FeeETH,
			&d.Nonce,
			&d.GasPrice,
			&d.GasUsed,
			&d.LogIndex,
			&d.TxIndex,
		)
		if err != nil {
			return nil, fmt.Errorf("scan bridge deposit row: %w", err)
		}
		deposits = append(deposits, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bridge deposit rows: %w", err)
	}
	return deposits, nil
}
