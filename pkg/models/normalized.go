package models

import "time"

// PlanNormalized is the resolved projection of a PlanRecord. One row per raw
// row, replaced in place on re-runs. Scalar fields are copied from the raw
// record so reports never have to join back to plan_records.
type PlanNormalized struct {
	ID         int64     `json:"id" db:"id"`
	RawID      int64     `json:"raw_id" db:"raw_id"`
	PlanMonth  time.Time `json:"plan_month" db:"plan_month"`
	LoadType   string    `json:"load_type" db:"load_type"`
	ItemCode   string    `json:"item_code" db:"item_code"`
	ItemName   string    `json:"item_name" db:"item_name"`
	ProductID  *int64    `json:"product_id" db:"product_id"`
	StoreID    int64     `json:"store_id" db:"store_id"`
	CenterID   *int64    `json:"center_id" db:"center_id"`
	CenterName string    `json:"center_name" db:"center_name"`
	PlannedQty *float64  `json:"planned_qty" db:"planned_qty"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// DispatchNormalized is the resolved projection of a DispatchRecord. The
// origin is always a distribution center; the destination is always a store.
// OriginName and DestName keep the raw values the resolution used.
type DispatchNormalized struct {
	ID           int64      `json:"id" db:"id"`
	RawID        int64      `json:"raw_id" db:"raw_id"`
	DispatchRef  string     `json:"dispatch_ref" db:"dispatch_ref"`
	DispatchDate *time.Time `json:"dispatch_date" db:"dispatch_date"`
	SKU          string     `json:"sku" db:"sku"`
	Description  string     `json:"description" db:"description"`
	ProductID    *int64     `json:"product_id" db:"product_id"`
	CenterID     *int64     `json:"center_id" db:"center_id"`
	StoreID      int64      `json:"store_id" db:"store_id"`
	Quantity     *float64   `json:"quantity" db:"quantity"`
	OriginName   string     `json:"origin_name" db:"origin_name"`
	DestName     string     `json:"dest_name" db:"dest_name"`
	EntryRef     string     `json:"entry_ref" db:"entry_ref"`
	EntryDate    *time.Time `json:"entry_date" db:"entry_date"`
	Comments     string     `json:"comments" db:"comments"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}
