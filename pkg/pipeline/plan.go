package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Ramsey-B/yarrow/pkg/models"
	"github.com/Ramsey-B/yarrow/pkg/refindex"
	"github.com/Ramsey-B/yarrow/pkg/resolve"
	"github.com/Ramsey-B/yarrow/pkg/tracing"
)

// NormalizePlans processes pending and failed plan records against a fresh
// index snapshot. All writes flush in one transaction at the end; re-running
// over already normalized data changes nothing.
func (p *Pipeline) NormalizePlans(ctx context.Context, period *time.Time) (*models.BatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Pipeline.NormalizePlans")
	defer span.End()

	started := time.Now().UTC()
	runID := uuid.New().String()
	log := p.logger.WithContext(ctx).WithFields(map[string]any{"run_id": runID, "record_set": models.RecordSetPlans})

	idx, err := p.builder.Build(ctx)
	if err != nil {
		return nil, err
	}

	records, err := p.plans.ListForNormalization(ctx, period)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	updates := make([]models.RecordStatusUpdate, 0, len(records))
	rows := make([]models.PlanNormalized, 0, len(records))
	okRawIDs := make([]int64, 0, len(records))
	result := &models.BatchResult{RunID: runID, RecordSet: models.RecordSetPlans, StartedAt: started}

	for _, record := range records {
		update, row := evaluatePlan(idx, record, now)
		updates = append(updates, update)
		switch update.Status {
		case models.StatusOK:
			rows = append(rows, *row)
			okRawIDs = append(okRawIDs, record.ID)
		case models.StatusError:
			result.Errors++
		case models.StatusIgnored:
			result.Ignored++
		}
	}
	result.Processed = len(records)

	err = p.tx.InTx(ctx, func(ctx context.Context) error {
		existing, err := p.planSink.MapByRawIDs(ctx, okRawIDs)
		if err != nil {
			return err
		}
		for _, id := range okRawIDs {
			if _, ok := existing[id]; ok {
				result.Updated++
			} else {
				result.Created++
			}
		}
		if err := p.planSink.BulkUpsert(ctx, rows); err != nil {
			return err
		}
		return p.plans.BulkUpdateStatus(ctx, updates)
	})
	if err != nil {
		return nil, err
	}

	result.FinishedAt = time.Now().UTC()
	log.WithFields(map[string]any{
		"processed": result.Processed,
		"created":   result.Created,
		"updated":   result.Updated,
		"errors":    result.Errors,
		"ignored":   result.Ignored,
	}).Info("Normalized plan records")

	p.emit(ctx, *result)
	return result, nil
}

// evaluatePlan resolves one raw plan record. The store is required, the
// center is optional, and the product resolves only when an item code is
// present. The ignore lists win over every other outcome, including a blank
// store. normalized_at is stamped only on ok rows.
func evaluatePlan(idx *refindex.Index, record models.PlanRecord, now time.Time) (models.RecordStatusUpdate, *models.PlanNormalized) {
	update := models.RecordStatusUpdate{ID: record.ID}

	storeRes := resolve.Store(idx, models.FieldStore, record.StoreName)
	centerRes := resolve.Center(idx, models.FieldCenter, record.CenterName)
	productRes := resolve.Product(idx, models.FieldProduct, record.ItemCode)

	if storeRes.Status == resolve.StatusIgnored || centerRes.Status == resolve.StatusIgnored {
		update.Status = models.StatusIgnored
		update.Notes = resolve.ReasonIgnored
		return update, nil
	}

	if storeRes.Status == resolve.StatusEmpty {
		update.Status = models.StatusError
		update.Notes = "missing store"
		return update, nil
	}

	var reasons []string
	var unresolved []models.UnresolvedField
	for _, uf := range []*models.UnresolvedField{storeRes.Unresolved, centerRes.Unresolved, productRes.Unresolved} {
		if uf != nil {
			unresolved = append(unresolved, *uf)
		}
	}
	for _, reason := range []string{storeRes.Reason, centerRes.Reason, productRes.Reason} {
		if reason != "" {
			reasons = append(reasons, reason)
		}
	}
	if len(unresolved) > 0 {
		update.Status = models.StatusError
		update.Notes = joinReasons(reasons)
		update.Unresolved = unresolved
		return update, nil
	}

	update.Status = models.StatusOK
	update.NormalizedAt = &now
	row := &models.PlanNormalized{
		RawID:      record.ID,
		PlanMonth:  record.PlanMonth,
		LoadType:   record.LoadType,
		ItemCode:   record.ItemCode,
		ItemName:   record.ItemName,
		StoreID:    storeRes.Value.ID,
		CenterName: record.CenterName,
		PlannedQty: record.PlannedQty,
	}
	if centerRes.Status == resolve.StatusResolved {
		row.CenterID = &centerRes.Value.ID
	}
	if productRes.Status == resolve.StatusResolved {
		row.ProductID = &productRes.Value.ID
	}
	return update, row
}
