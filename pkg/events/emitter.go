// Package events handles event emission for normalization and catalog changes
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/yarrow/pkg/kafka"
	"github.com/Ramsey-B/yarrow/pkg/models"
	"github.com/Ramsey-B/yarrow/pkg/tracing"
)

// Emitter handles event emission for Yarrow
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

func baseEvent(eventType EventType) BaseEvent {
	return BaseEvent{
		EventType:     eventType,
		SchemaVersion: SchemaVersion,
		Timestamp:     time.Now().UTC(),
	}
}

func (e *Emitter) publish(ctx context.Context, key string, eventType EventType, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := e.producer.Publish(ctx, key, string(eventType), data); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"event_type": eventType,
		}).Error("Failed to emit event")
		return err
	}

	return nil
}

// NormalizationCompleted emits a normalization.completed event for a batch run
func (e *Emitter) NormalizationCompleted(ctx context.Context, result models.BatchResult) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.NormalizationCompleted")
	defer span.End()

	event := NormalizationCompletedEvent{
		BaseEvent:  baseEvent(EventTypeNormalizationCompleted),
		RunID:      result.RunID,
		RecordSet:  result.RecordSet,
		Processed:  result.Processed,
		Created:    result.Created,
		Updated:    result.Updated,
		Errors:     result.Errors,
		Ignored:    result.Ignored,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
	}

	return e.publish(ctx, result.RunID, EventTypeNormalizationCompleted, event)
}

// MasterCreated emits a master.created event
func (e *Emitter) MasterCreated(ctx context.Context, kind models.EntityKind, id int64, name string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.MasterCreated")
	defer span.End()

	event := MasterCreatedEvent{
		BaseEvent: baseEvent(EventTypeMasterCreated),
		Kind:      kind,
		ID:        id,
		Name:      name,
	}

	return e.publish(ctx, uuid.NewString(), EventTypeMasterCreated, event)
}

// AliasCreated emits an alias.created event
func (e *Emitter) AliasCreated(ctx context.Context, kind models.EntityKind, rawName string, targetID int64) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.AliasCreated")
	defer span.End()

	event := AliasEvent{
		BaseEvent: baseEvent(EventTypeAliasCreated),
		Kind:      kind,
		RawName:   rawName,
		TargetID:  targetID,
	}

	return e.publish(ctx, uuid.NewString(), EventTypeAliasCreated, event)
}

// AliasDeleted emits an alias.deleted event
func (e *Emitter) AliasDeleted(ctx context.Context, kind models.EntityKind, rawName string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.AliasDeleted")
	defer span.End()

	event := AliasEvent{
		BaseEvent: baseEvent(EventTypeAliasDeleted),
		Kind:      kind,
		RawName:   rawName,
	}

	return e.publish(ctx, uuid.NewString(), EventTypeAliasDeleted, event)
}

// NameIgnored emits a name.ignored event
func (e *Emitter) NameIgnored(ctx context.Context, kind models.EntityKind, rawName string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.NameIgnored")
	defer span.End()

	event := IgnoreEvent{
		BaseEvent: baseEvent(EventTypeNameIgnored),
		Kind:      kind,
		RawName:   rawName,
	}

	return e.publish(ctx, uuid.NewString(), EventTypeNameIgnored, event)
}

// ProductMapped emits a product.mapped event
func (e *Emitter) ProductMapped(ctx context.Context, rawCode, targetCode string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.ProductMapped")
	defer span.End()

	event := ProductMappedEvent{
		BaseEvent:  baseEvent(EventTypeProductMapped),
		RawCode:    rawCode,
		TargetCode: targetCode,
	}

	return e.publish(ctx, uuid.NewString(), EventTypeProductMapped, event)
}

// NameUnignored emits a name.unignored event
func (e *Emitter) NameUnignored(ctx context.Context, kind models.EntityKind, rawName string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.NameUnignored")
	defer span.End()

	event := IgnoreEvent{
		BaseEvent: baseEvent(EventTypeNameUnignored),
		Kind:      kind,
		RawName:   rawName,
	}

	return e.publish(ctx, uuid.NewString(), EventTypeNameUnignored, event)
}
