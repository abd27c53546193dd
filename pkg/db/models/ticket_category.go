package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dopeevents/dopeevents-backend/pkg/enums"
)

// TicketCategory is a sellable tier within an event. AvailableTickets is the
// inventory counter the reconciliation path decrements.
type TicketCategory struct {
	ID               uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	EventID          uuid.UUID                `gorm:"column:event_id;type:uuid;not null;index;uniqueIndex:idx_event_tier_type"`
	Name             string                   `gorm:"column:name;not null"`
	Type             enums.TicketCategoryType `gorm:"column:type;not null;uniqueIndex:idx_event_tier_type"`
	Price            decimal.Decimal          `gorm:"column:price;type:numeric(10,2);not null"`
	InitialTickets   int                      `gorm:"column:initial_tickets;not null;default:0"`
	AvailableTickets int                      `gorm:"column:available_tickets;not null;default:0"`
	MaxPerPurchase   int                      `gorm:"column:max_per_purchase;not null;default:10"`
	SalesStart       time.Time                `gorm:"column:sales_start;not null"`
	SalesEnd         time.Time                `gorm:"column:sales_end;not null"`
	SoldOut          bool                     `gorm:"column:sold_out;not null;default:false"`
	Description      string                   `gorm:"column:description"`
	CreatedAt        time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

// TicketsSold derives the sold count from the initial and available counters.
func (c *TicketCategory) TicketsSold() int {
	sold := c.InitialTickets - c.AvailableTickets
	if sold < 0 {
		return 0
	}
	return sold
}

// IsAvailable reports whether tickets remain and the sales window is open.
func (c *TicketCategory) IsAvailable(now time.Time) bool {
	return c.AvailableTickets > 0 &&
		!now.Before(c.SalesStart) &&
		!now.After(c.SalesEnd)
}
