package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dopeevents/dopeevents-backend/pkg/enums"
)

// MerchandiseOrder is a buyer's order across one or more merchandise items.
type MerchandiseOrder struct {
	ID               uuid.UUID                    `gorm:"column:id;type:uuid;primaryKey"`
	BuyerID          uuid.UUID                    `gorm:"column:buyer_id;type:uuid;not null;index"`
	TotalAmount      decimal.Decimal              `gorm:"column:total_amount;type:numeric(10,2);not null"`
	Status           enums.MerchandiseOrderStatus `gorm:"column:status;not null;default:'pending';index"`
	PaymentMethod    enums.PaymentMethod          `gorm:"column:payment_method;not null"`
	PaymentReference string                       `gorm:"column:payment_reference"`
	ShippingAddress  string                       `gorm:"column:shipping_address;not null"`
	Notes            string                       `gorm:"column:notes"`
	Items            []MerchandiseOrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time                    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time                    `gorm:"column:updated_at;autoUpdateTime"`
}

// MerchandiseOrderItem is a single line within a merchandise order with the
// unit price denormalized at order time.
type MerchandiseOrderItem struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID       uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	MerchandiseID uuid.UUID       `gorm:"column:merchandise_id;type:uuid;not null;index"`
	Quantity      int             `gorm:"column:quantity;not null;default:1"`
	UnitPrice     decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
}

// LineTotal computes quantity times unit price.
func (i *MerchandiseOrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
