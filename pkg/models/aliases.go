package models

import "time"

// CenterAlias maps a raw spreadsheet value to an official distribution center.
// The raw data is never rewritten; the alias is consulted at resolution time.
type CenterAlias struct {
	ID        int64     `json:"id" db:"id"`
	RawName   string    `json:"raw_name" db:"raw_name"`
	CenterID  int64     `json:"center_id" db:"center_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// StoreAlias maps a raw spreadsheet value to an official store
type StoreAlias struct {
	ID        int64     `json:"id" db:"id"`
	RawName   string    `json:"raw_name" db:"raw_name"`
	StoreID   int64     `json:"store_id" db:"store_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// MapCenterAliasRequest maps a raw name onto an existing distribution center.
type MapCenterAliasRequest struct {
	RawName  string `json:"raw_name" validate:"required"`
	CenterID int64  `json:"center_id" validate:"required"`
}

// MapStoreAliasRequest maps a raw name onto an existing store.
type MapStoreAliasRequest struct {
	RawName string `json:"raw_name" validate:"required"`
	StoreID int64  `json:"store_id" validate:"required"`
}

// MapProductRequest rewrites a misspelled raw item code onto an existing
// product's code. Products have no alias table, so the raw field is edited
// in place and the records requeued.
type MapProductRequest struct {
	RawCode    string `json:"raw_code" validate:"required"`
	TargetCode string `json:"target_code" validate:"required"`
}

// IgnoreNameRequest marks a raw name as intentionally unmatched.
type IgnoreNameRequest struct {
	Kind    EntityKind `json:"kind" validate:"required"`
	RawName string     `json:"raw_name" validate:"required"`
	Reason  string     `json:"reason"`
}

// UnignoreNameRequest deletes an ignore entry.
type UnignoreNameRequest struct {
	Kind    EntityKind `json:"kind" validate:"required"`
	RawName string     `json:"raw_name" validate:"required"`
}

// DeleteAliasRequest deletes an alias mapping by id.
type DeleteAliasRequest struct {
	Kind    EntityKind `json:"kind" validate:"required"`
	AliasID int64      `json:"alias_id" validate:"required"`
}

// IgnoredName marks a raw value as deliberately unresolvable.
// Records carrying it are routed to ignored instead of error.
type IgnoredName struct {
	ID        int64     `json:"id" db:"id"`
	RawName   string    `json:"raw_name" db:"raw_name"`
	Reason    string    `json:"reason" db:"reason"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
