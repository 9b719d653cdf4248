// Package main provides the analytical pipeline entry point.
// Executes: cohort assignment → activity aggregation → retention → dimension
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"linea-analytics/internal/domain"
	"linea-analytics/internal/logging"
	"linea-analytics/internal/normalization"
	"linea-analytics/internal/observability"
	"linea-analytics/internal/orchestrator"
	"linea-analytics/internal/storage"
	chstore "linea-analytics/internal/storage/clickhouse"
	"linea-analytics/internal/storage/memory"
	"linea-analytics/internal/storage/migrations"
	pgstore "linea-analytics/internal/storage/postgres"
)

func main() {
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of databases")
	logsCSV := flag.String("logs-csv", "", "Bridge log CSV to seed memory mode")
	txsCSV := flag.String("txs-csv", "", "Transaction CSV to seed memory mode")
	whaleThreshold := flag.Float64("whale-threshold", domain.DefaultConfig().WhaleThreshold, "ETH amount above which a user is a Whale")
	horizon := flag.Int("horizon", domain.DefaultConfig().RetentionHorizonMonths, "Retention horizon in months")
	churnMonths := flag.Int("churn-months", domain.DefaultConfig().ChurnInactivityMonths, "Months of inactivity before a user counts as churned")
	asOf := flag.String("as-of", "", "Evaluate churn as of this month (YYYY-MM, defaults to now)")
	schedule := flag.String("schedule", "", "Cron expression for periodic runs (empty runs once)")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")
	workers := flag.Int("workers", 2, "Parallel pipeline branches")
	flag.Parse()

	logger, err := logging.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg := domain.DefaultConfig()
	cfg.WhaleThreshold = *whaleThreshold
	cfg.RetentionHorizonMonths = *horizon
	cfg.ChurnInactivityMonths = *churnMonths

	now := func() time.Time { return time.Now().UTC() }
	if *asOf != "" {
		m, err := domain.ParseMonth(*asOf)
		if err != nil {
			logger.Fatal("invalid --as-of", zap.Error(err))
		}
		t := m.Time()
		now = func() time.Time { return t }
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, cancelling pipeline", zap.String("signal", sig.String()))
		cancel()
	}()

	if *metricsAddr != "" {
		go serveMetrics(logger, *metricsAddr)
	}

	stores, cleanup, err := buildStores(ctx, logger, *useMemory, *postgresDSN, *clickhouseDSN, *logsCSV, *txsCSV)
	if err != nil {
		logger.Fatal("create stores", zap.Error(err))
	}
	defer cleanup()

	orch := orchestrator.New(orchestrator.Options{
		DepositStore:     stores.deposits,
		TransactionStore: stores.transactions,
		SegmentStore:     stores.segments,
		ActivityStore:    stores.activity,
		RetentionStore:   stores.retention,
		RecordStore:      stores.records,
		Config:           cfg,
		Logger:           logger,
		Workers:          *workers,
		Now:              now,
	})

	run := func() {
		start := time.Now()
		result, err := orch.Run(ctx)
		if err != nil {
			observability.RecordPipelineRun("full", "error", time.Since(start).Seconds())
			logger.Error("pipeline run failed", zap.Error(err))
			return
		}
		observability.RecordPipelineRun("full", "ok", time.Since(start).Seconds())
		observability.DefaultMetrics.CohortsAssigned.Set(float64(result.CohortsAssigned))
		observability.DefaultMetrics.UsersSegmented.Set(float64(result.UsersSegmented))
		observability.DefaultMetrics.ActivityRowsComputed.Set(float64(result.ActivityRows))
		observability.DefaultMetrics.RetentionRowsComputed.Set(float64(result.RetentionRows))
		observability.DefaultMetrics.UserRecordsBuilt.Set(float64(result.UserRecords))
		observability.DefaultMetrics.LastSuccessfulPipeline.SetToCurrentTime()
		if !result.QualityPassed {
			observability.DefaultMetrics.QualityCheckFailures.Inc()
		}
		logger.Info("run finished",
			zap.Int("deposits", result.DepositsLoaded),
			zap.Int("transactions", result.TransactionsLoaded),
			zap.Int("retention_rows", result.RetentionRows),
			zap.Bool("quality_passed", result.QualityPassed),
			zap.Duration("elapsed", time.Since(start)))
		for _, w := range result.Warnings {
			logger.Warn(w)
		}
	}

	if *schedule == "" {
		run()
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(*schedule, run); err != nil {
		logger.Fatal("invalid --schedule", zap.Error(err))
	}
	logger.Info("pipeline scheduled", zap.String("schedule", *schedule))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info("shutdown complete")
}

func serveMetrics(logger *zap.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	logger.Info("starting metrics server", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server error", zap.Error(err))
	}
}

// pipelineStores holds every store the orchestrator needs.
type pipelineStores struct {
	deposits     storage.BridgeDepositStore
	transactions storage.TransactionStore
	segments     storage.UserSegmentStore
	activity     storage.MonthlyActivityStore
	retention    storage.RetentionRowStore
	records      storage.UserRecordStore
}

// buildStores creates either memory stores seeded from CSVs or database
// stores with migrations applied.
func buildStores(
	ctx context.Context,
	logger *zap.Logger,
	useMemory bool,
	postgresDSN, clickhouseDSN string,
	logsCSV, txsCSV string,
) (*pipelineStores, func(), error) {
	if useMemory {
		stores := &pipelineStores{
			deposits:     memory.NewBridgeDepositStore(),
			transactions: memory.NewTransactionStore(),
			segments:     memory.NewUserSegmentStore(),
			activity:     memory.NewMonthlyActivityStore(),
			retention:    memory.NewRetentionRowStore(),
			records:      memory.NewUserRecordStore(),
		}
		if err := seedMemoryStores(ctx, logger, stores, logsCSV, txsCSV); err != nil {
			return nil, nil, err
		}
		return stores, func() {}, nil
	}

	if postgresDSN == "" || clickhouseDSN == "" {
		return nil, nil, fmt.Errorf("missing --postgres-dsn or --clickhouse-dsn (or use --use-memory)")
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	cleanup := func() {
		pool.Close()
		if err := conn.Close(); err != nil {
			logger.Warn("close clickhouse", zap.Error(err))
		}
	}

	return &pipelineStores{
		deposits:     pgstore.NewBridgeDepositStore(pool),
		transactions: pgstore.NewTransactionStore(pool),
		segments:     pgstore.NewUserSegmentStore(pool),
		activity:     chstore.NewMonthlyActivityStore(conn),
		retention:    chstore.NewRetentionRowStore(conn),
		records:      pgstore.NewUserRecordStore(pool),
	}, cleanup, nil
}

// seedMemoryStores normalizes CSVs straight into memory stores.
func seedMemoryStores(ctx context.Context, logger *zap.Logger, stores *pipelineStores, logsCSV, txsCSV string) error {
	if logsCSV == "" {
		return fmt.Errorf("memory mode needs --logs-csv")
	}

	rawLogs, err := normalization.ReadRawLogsCSV(logsCSV)
	if err != nil {
		return fmt.Errorf("read logs csv: %w", err)
	}
	deposits, stats := normalization.DecodeBridgeLogs(rawLogs)
	logger.Info("bridge logs decoded",
		zap.Int("accepted", stats.Accepted), zap.Int("rejected", stats.Rejected))
	if err := stores.deposits.InsertBulk(ctx, deposits); err != nil {
		return fmt.Errorf("seed deposits: %w", err)
	}

	if txsCSV != "" {
		rawTxs, err := normalization.ReadRawTransactionsCSV(txsCSV)
		if err != nil {
			return fmt.Errorf("read transactions csv: %w", err)
		}
		txs, stats := normalization.NormalizeTransactions(rawTxs)
		logger.Info("transactions normalized",
			zap.Int("accepted", stats.Accepted),
			zap.Int("rejected", stats.Rejected),
			zap.Int("duplicates", stats.Duplicates))
		if err := stores.transactions.InsertBulk(ctx, txs); err != nil {
			return fmt.Errorf("seed transactions: %w", err)
		}
	}

	return nil
}
