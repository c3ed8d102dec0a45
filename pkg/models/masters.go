package models

import "time"

// DistributionCenter is the canonical warehouse a dispatch originates from
type DistributionCenter struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Code      string    `json:"code" db:"code"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Store is the canonical retail destination, keyed by the ERP's external ID
type Store struct {
	ID         int64     `json:"id" db:"id"`
	ExternalID int64     `json:"external_id" db:"external_id"`
	Name       string    `json:"name" db:"name"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Product is the canonical SKU catalog entry
type Product struct {
	ID        int64     `json:"id" db:"id"`
	Code      string    `json:"code" db:"code"`
	Name      string    `json:"name" db:"name"`
	Category  string    `json:"category" db:"category"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CreateCenterRequest is the request to create a distribution center
type CreateCenterRequest struct {
	Name string `json:"name" validate:"required"`
	Code string `json:"code" validate:"required"`
}

// CreateStoreRequest is the request to create a store
type CreateStoreRequest struct {
	Name       string `json:"name" validate:"required"`
	ExternalID int64  `json:"external_id" validate:"required"`
}

// CreateProductRequest is the request to create a product
type CreateProductRequest struct {
	Code     string `json:"code" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Category string `json:"category"`
}
