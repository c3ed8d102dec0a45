// Package pipeline runs the normalization batches that turn raw imported
// records into master-keyed rows.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/yarrow/pkg/database"
	"github.com/Ramsey-B/yarrow/pkg/models"
	"github.com/Ramsey-B/yarrow/pkg/refindex"
	"github.com/Ramsey-B/yarrow/pkg/tracing"
)

// PlanSource reads and updates raw plan records.
type PlanSource interface {
	ListForNormalization(ctx context.Context, period *time.Time) ([]models.PlanRecord, error)
	BulkUpdateStatus(ctx context.Context, updates []models.RecordStatusUpdate) error
	CountByStatus(ctx context.Context) ([]models.StatusSummary, error)
}

// DispatchSource reads and updates raw dispatch records.
type DispatchSource interface {
	ListForNormalization(ctx context.Context, period *time.Time) ([]models.DispatchRecord, error)
	BulkUpdateStatus(ctx context.Context, updates []models.RecordStatusUpdate) error
	CountByStatus(ctx context.Context) ([]models.StatusSummary, error)
}

// PlanSink persists normalized plan rows.
type PlanSink interface {
	MapByRawIDs(ctx context.Context, rawIDs []int64) (map[int64]models.PlanNormalized, error)
	BulkUpsert(ctx context.Context, rows []models.PlanNormalized) error
}

// DispatchSink persists normalized dispatch rows.
type DispatchSink interface {
	MapByRawIDs(ctx context.Context, rawIDs []int64) (map[int64]models.DispatchNormalized, error)
	BulkUpsert(ctx context.Context, rows []models.DispatchNormalized) error
}

// IndexBuilder loads a reference index snapshot.
type IndexBuilder interface {
	Build(ctx context.Context) (*refindex.Index, error)
}

// Emitter publishes batch completion notifications. Emission is best-effort
// and never fails a committed batch.
type Emitter interface {
	NormalizationCompleted(ctx context.Context, result models.BatchResult) error
}

// Pipeline normalizes raw records against a reference index snapshot and
// flushes all writes for a batch in one transaction.
type Pipeline struct {
	logger       ectologger.Logger
	tx           database.Transactor
	builder      IndexBuilder
	plans        PlanSource
	planSink     PlanSink
	dispatches   DispatchSource
	dispatchSink DispatchSink
	emitter      Emitter
}

// New creates a Pipeline.
func New(
	logger ectologger.Logger,
	tx database.Transactor,
	builder IndexBuilder,
	plans PlanSource,
	planSink PlanSink,
	dispatches DispatchSource,
	dispatchSink DispatchSink,
	emitter Emitter,
) *Pipeline {
	return &Pipeline{
		logger:       logger,
		tx:           tx,
		builder:      builder,
		plans:        plans,
		planSink:     planSink,
		dispatches:   dispatches,
		dispatchSink: dispatchSink,
		emitter:      emitter,
	}
}

// NormalizeAll runs the plan batch then the dispatch batch against the same
// index snapshot semantics (each batch loads its own snapshot so corrections
// applied mid-way are picked up).
func (p *Pipeline) NormalizeAll(ctx context.Context, period *time.Time) (*models.NormalizeSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Pipeline.NormalizeAll")
	defer span.End()

	plans, err := p.NormalizePlans(ctx, period)
	if err != nil {
		return nil, err
	}

	dispatches, err := p.NormalizeDispatches(ctx, period)
	if err != nil {
		return nil, err
	}

	return &models.NormalizeSummary{Plans: plans, Dispatches: dispatches}, nil
}

// Summary returns per-status record counts for both record sets.
func (p *Pipeline) Summary(ctx context.Context) (map[string][]models.StatusSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Pipeline.Summary")
	defer span.End()

	planCounts, err := p.plans.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	dispatchCounts, err := p.dispatches.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	return map[string][]models.StatusSummary{
		models.RecordSetPlans:      planCounts,
		models.RecordSetDispatches: dispatchCounts,
	}, nil
}

// emit publishes the batch result without affecting the committed batch.
func (p *Pipeline) emit(ctx context.Context, result models.BatchResult) {
	if p.emitter == nil {
		return
	}
	if err := p.emitter.NormalizationCompleted(ctx, result); err != nil {
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"run_id": result.RunID}).Warn("Failed to emit batch result")
	}
}

func joinReasons(reasons []string) string {
	return strings.Join(reasons, "; ")
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
