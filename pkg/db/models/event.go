package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is an organizer listing with one or more ticket tiers.
type Event struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	OrganizerID      uuid.UUID        `gorm:"column:organizer_id;type:uuid;not null;index"`
	CategoryID       *uuid.UUID       `gorm:"column:category_id;type:uuid"`
	Title            string           `gorm:"column:title;not null"`
	Description      string           `gorm:"column:description"`
	Date             time.Time        `gorm:"column:date;not null"`
	Location         string           `gorm:"column:location;not null"`
	TotalTickets     int              `gorm:"column:total_tickets;not null;default:0"`
	AvailableTickets int              `gorm:"column:available_tickets;not null;default:0"`
	IsActive         bool             `gorm:"column:is_active;not null;default:true"`
	SoldOut          bool             `gorm:"column:sold_out;not null;default:false"`
	TicketCategories []TicketCategory `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// IsPast reports whether the event date has already passed.
func (e *Event) IsPast(now time.Time) bool {
	return e.Date.Before(now)
}
