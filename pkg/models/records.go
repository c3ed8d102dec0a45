package models

import (
	"time"

	"github.com/Ramsey-B/yarrow/pkg/database"
)

// Normalization statuses for raw records
const (
	StatusPending = "pending"
	StatusOK      = "ok"
	StatusError   = "error"
	StatusIgnored = "ignored"
)

// UnresolvedField records a single failed lookup in structured form so the
// classifier never has to parse note text.
type UnresolvedField struct {
	Kind     EntityKind `json:"kind"`
	Field    string     `json:"field"`
	RawValue string     `json:"raw_value"`
}

// Raw record field names referenced by UnresolvedField.Field
const (
	FieldStore       = "store"
	FieldCenter      = "center"
	FieldOrigin      = "origin"
	FieldDestination = "destination"
	FieldProduct     = "product"
)

// PlanRecord is an as-imported monthly planning row. The store, center and
// item code columns hold free text exactly as typed in the spreadsheet.
type PlanRecord struct {
	ID              int64                             `json:"id" db:"id"`
	PlanMonth       time.Time                         `json:"plan_month" db:"plan_month"`
	LoadType        string                            `json:"load_type" db:"load_type"`
	ItemCode        string                            `json:"item_code" db:"item_code"`
	ItemName        string                            `json:"item_name" db:"item_name"`
	StoreName       string                            `json:"store_name" db:"store_name"`
	CenterName      string                            `json:"center_name" db:"center_name"`
	PlannedQty      *float64                          `json:"planned_qty" db:"planned_qty"`
	NormalizeStatus string                            `json:"normalize_status" db:"normalize_status"`
	NormalizeNotes  string                            `json:"normalize_notes" db:"normalize_notes"`
	Unresolved      database.JSONB[[]UnresolvedField] `json:"unresolved" db:"unresolved"`
	NormalizedAt    *time.Time                        `json:"normalized_at" db:"normalized_at"`
	CreatedAt       time.Time                         `json:"created_at" db:"created_at"`
}

// DispatchRecord is an as-imported dispatch row. Origin and destination can
// arrive in any of several free-text columns depending on the export used.
type DispatchRecord struct {
	ID                  int64                             `json:"id" db:"id"`
	DispatchRef         string                            `json:"dispatch_ref" db:"dispatch_ref"`
	DispatchDate        *time.Time                        `json:"dispatch_date" db:"dispatch_date"`
	SKU                 string                            `json:"sku" db:"sku"`
	Description         string                            `json:"description" db:"description"`
	Quantity            *float64                          `json:"quantity" db:"quantity"`
	OriginStoreName     string                            `json:"origin_store_name" db:"origin_store_name"`
	OriginWarehouseName string                            `json:"origin_warehouse_name" db:"origin_warehouse_name"`
	ProposedDestination string                            `json:"proposed_destination" db:"proposed_destination"`
	DestStoreName       string                            `json:"dest_store_name" db:"dest_store_name"`
	DestWarehouseName   string                            `json:"dest_warehouse_name" db:"dest_warehouse_name"`
	EntryRef            string                            `json:"entry_ref" db:"entry_ref"`
	EntryDate           *time.Time                        `json:"entry_date" db:"entry_date"`
	Comments            string                            `json:"comments" db:"comments"`
	NormalizeStatus     string                            `json:"normalize_status" db:"normalize_status"`
	NormalizeNotes      string                            `json:"normalize_notes" db:"normalize_notes"`
	Unresolved          database.JSONB[[]UnresolvedField] `json:"unresolved" db:"unresolved"`
	NormalizedAt        *time.Time                        `json:"normalized_at" db:"normalized_at"`
	CreatedAt           time.Time                         `json:"created_at" db:"created_at"`
}

// RecordStatusUpdate is one buffered status mutation, flushed in bulk at the
// end of a pipeline run.
type RecordStatusUpdate struct {
	ID           int64
	Status       string
	Notes        string
	Unresolved   []UnresolvedField
	NormalizedAt *time.Time
}
