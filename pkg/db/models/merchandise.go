package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dopeevents/dopeevents-backend/pkg/enums"
)

// MerchandiseCategory groups merchandise items.
type MerchandiseCategory struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;not null;unique"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Merchandise is a sellable item with its own stock counter.
type Merchandise struct {
	ID            uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	Name          string                  `gorm:"column:name;not null"`
	Description   string                  `gorm:"column:description"`
	Price         decimal.Decimal         `gorm:"column:price;type:numeric(10,2);not null"`
	StockQuantity int                     `gorm:"column:stock_quantity;not null;default:0"`
	CategoryID    *uuid.UUID              `gorm:"column:category_id;type:uuid"`
	SellerID      uuid.UUID               `gorm:"column:seller_id;type:uuid;not null;index"`
	SellerType    enums.SellerType        `gorm:"column:seller_type;not null;default:'seller'"`
	Status        enums.MerchandiseStatus `gorm:"column:status;not null;default:'draft';index"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the singular table name; GORM would otherwise pluralize
// the struct to "merchandises".
func (Merchandise) TableName() string { return "merchandise" }

// IsAvailable reports whether the item can be ordered.
func (m *Merchandise) IsAvailable() bool {
	return m.Status == enums.MerchandiseStatusActive && m.StockQuantity > 0
}
