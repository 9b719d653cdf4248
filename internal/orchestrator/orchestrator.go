// Package orchestrator provides E2E pipeline orchestration.
// It coordinates: cohort assignment → activity aggregation → retention → dimension
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"linea-analytics/internal/activity"
	"linea-analytics/internal/cohort"
	"linea-analytics/internal/dimension"
	"linea-analytics/internal/domain"
	"linea-analytics/internal/quality"
	"linea-analytics/internal/retention"
	"linea-analytics/internal/storage"
)

// Orchestrator coordinates the full analytical pipeline over already
// normalized inputs. Every derived table is truncated and recomputed
// from scratch on each run.
type Orchestrator struct {
	depositStore   storage.BridgeDepositStore
	txStore        storage.TransactionStore
	segmentStore   storage.UserSegmentStore
	activityStore  storage.MonthlyActivityStore
	retentionStore storage.RetentionRowStore
	recordStore    storage.UserRecordStore

	cfg     domain.Config
	logger  *zap.Logger
	workers int
	now     func() time.Time
}

// Options for creating Orchestrator.
type Options struct {
	// Required stores
	DepositStore     storage.BridgeDepositStore
	TransactionStore storage.TransactionStore
	SegmentStore     storage.UserSegmentStore
	ActivityStore    storage.MonthlyActivityStore
	RetentionStore   storage.RetentionRowStore
	RecordStore      storage.UserRecordStore

	Config domain.Config

	// Optional
	Logger  *zap.Logger      // nil disables logging
	Workers int              // parallel pipeline branches, defaults to 2
	Now     func() time.Time // injectable clock for churn evaluation
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 2
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Orchestrator{
		depositStore:   opts.DepositStore,
		txStore:        opts.TransactionStore,
		segmentStore:   opts.SegmentStore,
		activityStore:  opts.ActivityStore,
		retentionStore: opts.RetentionStore,
		recordStore:    opts.RecordStore,
		cfg:            opts.Config,
		logger:         logger,
		workers:        workers,
		now:            now,
	}
}

// RunResult contains results from orchestrator execution.
type RunResult struct {
	DepositsLoaded     int
	TransactionsLoaded int
	CohortsAssigned    int
	UsersSegmented     int
	ActivityRows       int
	RetentionRows      int
	UserRecords        int
	QualityPassed      bool
	Warnings           []string
	Errors             []string
}

// Run executes the full pipeline.
// Phases:
//  1. Load normalized deposits and transactions
//  2. Cohort assignment + segment classification, and monthly activity
//     aggregation (parallel branches)
//  3. Retention matrix computation
//  4. User dimension build
//  5. Data quality checks
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{}

	// Phase 1: Load inputs
	o.logger.Info("loading normalized inputs")
	deposits, err := o.depositStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load deposits: %w", err)
	}
	txs, err := o.txStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	result.DepositsLoaded = len(deposits)
	result.TransactionsLoaded = len(txs)
	o.logger.Info("inputs loaded",
		zap.Int("deposits", len(deposits)),
		zap.Int("transactions", len(txs)))

	if len(deposits) == 0 {
		return result, nil
	}

	// Phase 2: Segmentation and activity branches run independently.
	pool := pond.NewPool(o.workers)
	defer pool.StopAndWait()
	group := pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	var (
		users       []*domain.UserSegment
		activities  []*domain.MonthlyActivity
		segErr      error
		activityErr error
	)

	group.Submit(func() {
		if err := groupCtx.Err(); err != nil {
			return
		}
		users, segErr = o.runSegmentation(groupCtx, deposits)
	})

	group.Submit(func() {
		if err := groupCtx.Err(); err != nil {
			return
		}
		activities, activityErr = o.runActivity(groupCtx, txs)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		return nil, fmt.Errorf("pipeline branches: %w", err)
	}
	if segErr != nil {
		return nil, fmt.Errorf("segmentation: %w", segErr)
	}
	if activityErr != nil {
		return nil, fmt.Errorf("activity aggregation: %w", activityErr)
	}
	result.UsersSegmented = len(users)
	result.ActivityRows = len(activities)

	cohorts := make(map[domain.Month]struct{})
	for _, u := range users {
		cohorts[u.CohortMonth] = struct{}{}
	}
	result.CohortsAssigned = len(cohorts)

	// Phase 3: Retention matrix
	o.logger.Info("computing retention matrix")
	if err := o.retentionStore.Truncate(ctx); err != nil {
		return nil, fmt.Errorf("truncate retention rows: %w", err)
	}
	engine := retention.NewEngine(o.segmentStore, o.activityStore, o.retentionStore, o.cfg)
	matrix, err := engine.ComputeAndStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("retention: %w", err)
	}
	result.RetentionRows = len(matrix.Rows)
	result.Warnings = append(result.Warnings, matrix.Warnings...)
	o.logger.Info("retention matrix computed",
		zap.Int("rows", len(matrix.Rows)),
		zap.Int("dropped_negative", matrix.DroppedNegativeOffsets),
		zap.Int("dropped_beyond_horizon", matrix.DroppedBeyondHorizon))

	// Phase 4: User dimension
	o.logger.Info("building user dimension")
	records := dimension.NewBuilder(o.cfg).WithClock(o.now).Build(users, activities)
	if err := o.recordStore.Truncate(ctx); err != nil {
		return nil, fmt.Errorf("truncate user records: %w", err)
	}
	if err := o.recordStore.InsertBulk(ctx, records); err != nil {
		return nil, fmt.Errorf("store user records: %w", err)
	}
	result.UserRecords = len(records)

	// Phase 5: Quality checks
	o.logger.Info("running quality checks")
	checker := quality.NewChecker(o.segmentStore, o.activityStore, o.retentionStore, o.cfg)
	qr, err := checker.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("quality checks: %w", err)
	}
	result.QualityPassed = qr.AllPass
	result.Errors = append(result.Errors, qr.Errors...)
	result.Warnings = append(result.Warnings, qr.Warnings...)
	if !qr.AllPass {
		o.logger.Warn("quality checks failed", zap.Strings("errors", qr.Errors))
	}

	o.logger.Info("pipeline completed",
		zap.Int("users", result.UsersSegmented),
		zap.Int("activity_rows", result.ActivityRows),
		zap.Int("retention_rows", result.RetentionRows),
		zap.Int("user_records", result.UserRecords),
		zap.Bool("quality_passed", result.QualityPassed))

	return result, nil
}

// runSegmentation assigns cohorts, classifies users and stores segments.
func (o *Orchestrator) runSegmentation(ctx context.Context, deposits []*domain.BridgeDeposit) ([]*domain.UserSegment, error) {
	users := cohort.AssignCohorts(deposits)
	cohort.Classify(users, o.cfg)

	if err := o.segmentStore.Truncate(ctx); err != nil {
		return nil, fmt.Errorf("truncate user segments: %w", err)
	}
	if err := o.segmentStore.InsertBulk(ctx, users); err != nil {
		return nil, fmt.Errorf("store user segments: %w", err)
	}
	o.logger.Info("users segmented", zap.Int("count", len(users)))
	return users, nil
}

// runActivity aggregates transactions into monthly activity and stores it.
func (o *Orchestrator) runActivity(ctx context.Context, txs []*domain.Transaction) ([]*domain.MonthlyActivity, error) {
	activities := activity.Aggregate(txs, o.cfg)

	if err := o.activityStore.Truncate(ctx); err != nil {
		return nil, fmt.Errorf("truncate monthly activity: %w", err)
	}
	if err := o.activityStore.InsertBulk(ctx, activities); err != nil {
		return nil, fmt.Errorf("store monthly activity: %w", err)
	}
	o.logger.Info("activity aggregated", zap.Int("rows", len(activities)))
	return activities, nil
}
