package retention

import (
	"context"
	"errors"

	"linea-analytics/internal/domain"
	"linea-analytics/internal/storage"
)

// ErrNoUsers is returned when no cohort-classified users exist to compute
// retention over.
var ErrNoUsers = errors.New("no cohort users available for retention computation")

// Engine computes the retention matrix from stores and persists it.
type Engine struct {
	segmentStore   storage.UserSegmentStore
	activityStore  storage.MonthlyActivityStore
	retentionStore storage.RetentionRowStore
	cfg            domain.Config
}

// NewEngine creates a retention engine over the given stores.
func NewEngine(segments storage.UserSegmentStore, activities storage.MonthlyActivityStore, rows storage.RetentionRowStore, cfg domain.Config) *Engine {
	return &Engine{
		segmentStore:   segments,
		activityStore:  activities,
		retentionStore: rows,
		cfg:            cfg,
	}
}

// Compute loads users and activity and derives the retention matrix
// without persisting it.
func (e *Engine) Compute(ctx context.Context) (*MatrixResult, error) {
	users, err := e.segmentStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrNoUsers
	}

	activities, err := e.activityStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	return ComputeMatrix(users, activities, e.cfg), nil
}

// ComputeAndStore computes the matrix and persists all rows.
func (e *Engine) ComputeAndStore(ctx context.Context) (*MatrixResult, error) {
	result, err := e.Compute(ctx)
	if err != nil {
		return nil, err
	}
	if len(result.Rows) > 0 {
		if err := e.retentionStore.InsertBulk(ctx, result.Rows); err != nil {
			return nil, err
		}
	}
	return result, nil
}
