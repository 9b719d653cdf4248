// Package main loads raw CSV exports into PostgreSQL.
// Executes: read CSVs → normalize → migrate → full refresh insert
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"linea-analytics/internal/logging"
	"linea-analytics/internal/normalization"
	"linea-analytics/internal/observability"
	"linea-analytics/internal/storage/migrations"
	pgstore "linea-analytics/internal/storage/postgres"
)

func main() {
	logsCSV := flag.String("logs-csv", "", "Path to raw bridge log export CSV")
	txsCSV := flag.String("txs-csv", "", "Path to raw destination transaction export CSV")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	keep := flag.Bool("keep-existing", false, "Append instead of truncating tables first")
	flag.Parse()

	logger, err := logging.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *postgresDSN == "" {
		logger.Fatal("missing --postgres-dsn (or POSTGRES_DSN env)")
	}
	if *logsCSV == "" && *txsCSV == "" {
		logger.Fatal("nothing to load, pass --logs-csv and/or --txs-csv")
	}

	ctx := context.Background()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatal("connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}

	if *logsCSV != "" {
		if err := loadDeposits(ctx, logger, pool, *logsCSV, !*keep); err != nil {
			logger.Fatal("load deposits", zap.Error(err))
		}
	}

	if *txsCSV != "" {
		if err := loadTransactions(ctx, logger, pool, *txsCSV, !*keep); err != nil {
			logger.Fatal("load transactions", zap.Error(err))
		}
	}

	logger.Info("load complete")
}

// loadDeposits decodes bridge logs and stores them.
func loadDeposits(ctx context.Context, logger *zap.Logger, pool *pgstore.Pool, path string, truncate bool) error {
	raw, err := normalization.ReadRawLogsCSV(path)
	if err != nil {
		return fmt.Errorf("read logs csv: %w", err)
	}

	deposits, stats := normalization.DecodeBridgeLogs(raw)
	logStats(logger, "bridge logs decoded", stats)
	observability.DefaultMetrics.LogsDecoded.Add(float64(stats.Accepted))
	for reason, count := range stats.Reasons {
		observability.DefaultMetrics.LogsRejected.WithLabelValues(reason).Add(float64(count))
	}

	store := pgstore.NewBridgeDepositStore(pool)
	if truncate {
		if err := store.Truncate(ctx); err != nil {
			return fmt.Errorf("truncate bridge deposits: %w", err)
		}
	}
	if err := store.InsertBulk(ctx, deposits); err != nil {
		return fmt.Errorf("insert bridge deposits: %w", err)
	}

	logger.Info("bridge deposits stored", zap.Int("count", len(deposits)))
	return nil
}

// loadTransactions normalizes destination transactions and stores them.
func loadTransactions(ctx context.Context, logger *zap.Logger, pool *pgstore.Pool, path string, truncate bool) error {
	raw, err := normalization.ReadRawTransactionsCSV(path)
	if err != nil {
		return fmt.Errorf("read transactions csv: %w", err)
	}

	txs, stats := normalization.NormalizeTransactions(raw)
	logStats(logger, "transactions normalized", stats)
	observability.DefaultMetrics.TxsNormalized.Add(float64(stats.Accepted))
	observability.DefaultMetrics.DuplicateTxsSeen.Add(float64(stats.Duplicates))
	for reason, count := range stats.Reasons {
		observability.DefaultMetrics.TxsRejected.WithLabelValues(reason).Add(float64(count))
	}

	store := pgstore.NewTransactionStore(pool)
	if truncate {
		if err := store.Truncate(ctx); err != nil {
			return fmt.Errorf("truncate transactions: %w", err)
		}
	}
	if err := store.InsertBulk(ctx, txs); err != nil {
		return fmt.Errorf("insert transactions: %w", err)
	}

	logger.Info("transactions stored", zap.Int("count", len(txs)))
	return nil
}

func logStats(logger *zap.Logger, msg string, stats *normalization.Stats) {
	fields := []zap.Field{
		zap.Int("total", stats.Total),
		zap.Int("accepted", stats.Accepted),
		zap.Int("rejected", stats.Rejected),
		zap.Int("duplicates", stats.Duplicates),
	}
	for reason, count := range stats.Reasons {
		fields = append(fields, zap.Int("reject_"+reason, count))
	}
	logger.Info(msg, fields...)
}
