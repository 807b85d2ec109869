package models

import (
	"time"

	"github.com/dperea/storefront-backend/pkg/enums"
	"github.com/dperea/storefront-backend/pkg/oid"
)

// Order owns an ordered sequence of line items and a derived total.
// TotalCents always equals the sum of quantity x unit price captured when the
// items were (re)priced.
type Order struct {
	ID         oid.ID            `gorm:"column:id;type:text;primaryKey" json:"id"`
	UserID     oid.ID            `gorm:"column:user_id;type:text;not null;index" json:"userId"`
	User       *User             `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
	Items      []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Status     enums.OrderStatus `gorm:"column:status;type:text;not null;default:'placed'" json:"status"`
	TotalCents int64             `gorm:"column:total_cents;not null" json:"totalCents"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// OrderItem snapshots one ordered product: quantity plus the unit price in
// effect at order time.
type OrderItem struct {
	ID             int64    `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	OrderID        oid.ID   `gorm:"column:order_id;type:text;not null;index" json:"-"`
	ProductID      oid.ID   `gorm:"column:product_id;type:text;not null" json:"productId"`
	Product        *Product `gorm:"foreignKey:ProductID;references:ID" json:"product,omitempty"`
	Quantity       int      `gorm:"column:quantity;not null" json:"quantity"`
	UnitPriceCents int64    `gorm:"column:unit_price_cents;not null" json:"unitPriceCents"`
	Position       int      `gorm:"column:position;not null;default:0" json:"-"`
}
