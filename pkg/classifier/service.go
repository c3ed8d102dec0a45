package classifier

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/yarrow/pkg/models"
	"github.com/Ramsey-B/yarrow/pkg/refindex"
	"github.com/Ramsey-B/yarrow/pkg/tracing"
)

// PlanSource lists plan records by normalization status.
type PlanSource interface {
	ListByStatuses(ctx context.Context, statuses ...string) ([]models.PlanRecord, error)
}

// DispatchSource lists dispatch records by normalization status.
type DispatchSource interface {
	ListByStatuses(ctx context.Context, statuses ...string) ([]models.DispatchRecord, error)
}

// IndexBuilder loads a reference index snapshot.
type IndexBuilder interface {
	Build(ctx context.Context) (*refindex.Index, error)
}

// Service produces suggestion groups for the resolution report endpoints.
type Service struct {
	logger     ectologger.Logger
	builder    IndexBuilder
	plans      PlanSource
	dispatches DispatchSource
	classifier *Classifier
}

// NewService creates a classification service over the given sources.
func NewService(logger ectologger.Logger, builder IndexBuilder, plans PlanSource, dispatches DispatchSource) *Service {
	return &Service{
		logger:     logger,
		builder:    builder,
		plans:      plans,
		dispatches: dispatches,
		classifier: New(),
	}
}

// PlanErrors groups the unresolved values of failed plan records.
func (s *Service) PlanErrors(ctx context.Context) ([]Group, error) {
	ctx, span := tracing.StartSpan(ctx, "classifier.Service.PlanErrors")
	defer span.End()

	idx, err := s.builder.Build(ctx)
	if err != nil {
		return nil, err
	}

	records, err := s.plans.ListByStatuses(ctx, models.StatusError)
	if err != nil {
		return nil, err
	}

	errorRecords := make([]ErrorRecord, 0, len(records))
	for _, r := range records {
		errorRecords = append(errorRecords, ErrorRecord{ID: r.ID, Unresolved: r.Unresolved.Data})
	}

	groups := s.classifier.Classify(idx, errorRecords)
	s.logger.WithContext(ctx).WithFields(map[string]any{"records": len(records), "groups": len(groups)}).Debug("Classified plan errors")
	return groups, nil
}

// DispatchErrors groups the unresolved values of failed dispatch records.
func (s *Service) DispatchErrors(ctx context.Context) ([]Group, error) {
	ctx, span := tracing.StartSpan(ctx, "classifier.Service.DispatchErrors")
	defer span.End()

	idx, err := s.builder.Build(ctx)
	if err != nil {
		return nil, err
	}

	records, err := s.dispatches.ListByStatuses(ctx, models.StatusError)
	if err != nil {
		return nil, err
	}

	errorRecords := make([]ErrorRecord, 0, len(records))
	for _, r := range records {
		errorRecords = append(errorRecords, ErrorRecord{ID: r.ID, Unresolved: r.Unresolved.Data})
	}

	groups := s.classifier.Classify(idx, errorRecords)
	s.logger.WithContext(ctx).WithFields(map[string]any{"records": len(records), "groups": len(groups)}).Debug("Classified dispatch errors")
	return groups, nil
}
