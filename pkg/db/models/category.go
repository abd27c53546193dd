package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is the event taxonomy (concerts, conferences, ...).
type Category struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;not null;unique"`
	Description string    `gorm:"column:description"`
	Slug        string    `gorm:"column:slug;not null;unique"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
