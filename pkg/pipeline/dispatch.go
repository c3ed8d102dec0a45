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

// ReasonNoDestination is the note attached to dispatch rows with every
// destination column blank.
const ReasonNoDestination = "no destination"

// NormalizeDispatches processes pending and failed dispatch records. Same
// batching and transaction semantics as NormalizePlans.
func (p *Pipeline) NormalizeDispatches(ctx context.Context, period *time.Time) (*models.BatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Pipeline.NormalizeDispatches")
	defer span.End()

	started := time.Now().UTC()
	runID := uuid.New().String()
	log := p.logger.WithContext(ctx).WithFields(map[string]any{"run_id": runID, "record_set": models.RecordSetDispatches})

	idx, err := p.builder.Build(ctx)
	if err != nil {
		return nil, err
	}

	records, err := p.dispatches.ListForNormalization(ctx, period)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	updates := make([]models.RecordStatusUpdate, 0, len(records))
	rows := make([]models.DispatchNormalized, 0, len(records))
	okRawIDs := make([]int64, 0, len(records))
	result := &models.BatchResult{RunID: runID, RecordSet: models.RecordSetDispatches, StartedAt: started}

	for _, record := range records {
		update, row := evaluateDispatch(idx, record, now)
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
		existing, err := p.dispatchSink.MapByRawIDs(ctx, okRawIDs)
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
		if err := p.dispatchSink.BulkUpsert(ctx, rows); err != nil {
			return err
		}
		return p.dispatches.BulkUpdateStatus(ctx, updates)
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
	}).Info("Normalized dispatch records")

	p.emit(ctx, *result)
	return result, nil
}

// evaluateDispatch resolves one raw dispatch record. The destination store
// comes from the first non-blank destination column; a fully blank
// destination marks the row ignored, not failed. The origin center is
// optional and the product resolves from the sku. normalized_at is stamped
// only on ok rows.
func evaluateDispatch(idx *refindex.Index, record models.DispatchRecord, now time.Time) (models.RecordStatusUpdate, *models.DispatchNormalized) {
	update := models.RecordStatusUpdate{ID: record.ID}

	destination := firstNonBlank(record.ProposedDestination, record.DestStoreName, record.DestWarehouseName)
	if destination == "" {
		update.Status = models.StatusIgnored
		update.Notes = ReasonNoDestination
		return update, nil
	}

	origin := firstNonBlank(record.OriginStoreName, record.OriginWarehouseName)

	storeRes := resolve.Store(idx, models.FieldDestination, destination)
	centerRes := resolve.Center(idx, models.FieldOrigin, origin)
	productRes := resolve.Product(idx, models.FieldProduct, record.SKU)

	if storeRes.Status == resolve.StatusIgnored || centerRes.Status == resolve.StatusIgnored {
		update.Status = models.StatusIgnored
		update.Notes = resolve.ReasonIgnored
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
	row := &models.DispatchNormalized{
		RawID:        record.ID,
		DispatchRef:  record.DispatchRef,
		DispatchDate: record.DispatchDate,
		SKU:          record.SKU,
		Description:  record.Description,
		StoreID:      storeRes.Value.ID,
		Quantity:     record.Quantity,
		OriginName:   origin,
		DestName:     destination,
		EntryRef:     record.EntryRef,
		EntryDate:    record.EntryDate,
		Comments:     record.Comments,
	}
	if centerRes.Status == resolve.StatusResolved {
		row.CenterID = &centerRes.Value.ID
	}
	if productRes.Status == resolve.StatusResolved {
		row.ProductID = &productRes.Value.ID
	}
	return update, row
}
