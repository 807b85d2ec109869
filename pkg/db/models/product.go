package models

import (
	"time"

	"github.com/dperea/storefront-backend/pkg/oid"
)

// Product is a catalog listing. Stock is mutated exclusively through the
// inventory ledger; every other writer goes through catalog management.
type Product struct {
	ID          oid.ID    `gorm:"column:id;type:text;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Description string    `gorm:"column:description;not null;default:''" json:"description"`
	PriceCents  int64     `gorm:"column:price_cents;not null" json:"priceCents"`
	Stock       int       `gorm:"column:stock;not null;default:0" json:"stock"`
	ImageURL    *string   `gorm:"column:image_url" json:"imageUrl,omitempty"`
	CreatedBy   oid.ID    `gorm:"column:created_by;type:text;not null" json:"createdBy"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
