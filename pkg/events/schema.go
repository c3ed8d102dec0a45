package events

import (
	"time"

	"github.com/Ramsey-B/yarrow/pkg/models"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// EventType defines the type of event
type EventType string

const (
	// Batch events
	EventTypeNormalizationCompleted EventType = "normalization.completed"

	// Catalog events
	EventTypeMasterCreated EventType = "master.created"
	EventTypeAliasCreated  EventType = "alias.created"
	EventTypeAliasDeleted  EventType = "alias.deleted"
	EventTypeNameIgnored   EventType = "name.ignored"
	EventTypeNameUnignored EventType = "name.unignored"
	EventTypeProductMapped EventType = "product.mapped"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventType     EventType `json:"event_type"`
	SchemaVersion string    `json:"schema_version"`
	Timestamp     time.Time `json:"timestamp"`
}

// NormalizationCompletedEvent is emitted after a normalization batch flushes
type NormalizationCompletedEvent struct {
	BaseEvent
	RunID      string    `json:"run_id"`
	RecordSet  string    `json:"record_set"`
	Processed  int       `json:"processed"`
	Created    int       `json:"created"`
	Updated    int       `json:"updated"`
	Errors     int       `json:"errors"`
	Ignored    int       `json:"ignored"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// MasterCreatedEvent is emitted when a correction creates a master row
type MasterCreatedEvent struct {
	BaseEvent
	Kind models.EntityKind `json:"kind"`
	ID   int64             `json:"id"`
	Name string            `json:"name"`
}

// AliasEvent is emitted when an alias mapping is created or deleted
type AliasEvent struct {
	BaseEvent
	Kind     models.EntityKind `json:"kind"`
	RawName  string            `json:"raw_name"`
	TargetID int64             `json:"target_id,omitempty"`
}

// IgnoreEvent is emitted when a raw name is ignored or unignored
type IgnoreEvent struct {
	BaseEvent
	Kind    models.EntityKind `json:"kind"`
	RawName string            `json:"raw_name"`
}

// ProductMappedEvent is emitted when a raw item code is rewritten onto an
// existing product's code
type ProductMappedEvent struct {
	BaseEvent
	RawCode    string `json:"raw_code"`
	TargetCode string `json:"target_code"`
}
