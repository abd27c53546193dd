package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dopeevents/dopeevents-backend/pkg/db/models"
	"github.com/dopeevents/dopeevents-backend/pkg/enums"
	"github.com/dopeevents/dopeevents-backend/pkg/pagination"
)

// Repository is the persistence surface for the event catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateEvent(ctx context.Context, event *models.Event) (*models.Event, error)
	FindEventByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	UpdateEvent(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListEvents(ctx context.Context, filter ListFilter, limit int, cursor *pagination.Cursor) ([]models.Event, error)

	CreateTier(ctx context.Context, tier *models.TicketCategory) (*models.TicketCategory, error)
	FindTiersByEvent(ctx context.Context, eventID uuid.UUID) ([]models.TicketCategory, error)

	ListCategories(ctx context.Context) ([]models.Category, error)
	FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
}

// Service exposes the event catalog operations used by controllers.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Event, error)
	Update(ctx context.Context, eventID uuid.UUID, input UpdateInput) (*models.Event, error)
	Get(ctx context.Context, eventID uuid.UUID) (*Detail, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) (pagination.Page[Summary], error)
	AddTier(ctx context.Context, eventID uuid.UUID, input TierInput) (*models.TicketCategory, error)
	Categories(ctx context.Context) ([]models.Category, error)
}

// ListFilter narrows event listings.
type ListFilter struct {
	CategoryID   *uuid.UUID
	OrganizerID  *uuid.UUID
	UpcomingOnly bool
	ActiveOnly   bool
}

// CreateInput carries a new event from the API layer.
type CreateInput struct {
	OrganizerID uuid.UUID
	CategoryID  *uuid.UUID
	Title       string
	Description string
	Date        time.Time
	Location    string
}

// UpdateInput carries a partial event update; nil fields are left unchanged.
type UpdateInput struct {
	Title       *string
	Description *string
	Date        *time.Time
	Location    *string
	CategoryID  *uuid.UUID
	IsActive    *bool
}

// TierInput carries a new ticket tier.
type TierInput struct {
	Name           string
	Type           enums.TicketCategoryType
	Price          decimal.Decimal
	InitialTickets int
	MaxPerPurchase int
	SalesStart     *time.Time
	SalesEnd       *time.Time
	Description    string
}

// Summary is the listing row.
type Summary struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	Date             time.Time  `json:"date"`
	Location         string     `json:"location"`
	CategoryID       *uuid.UUID `json:"category_id,omitempty"`
	AvailableTickets int        `json:"available_tickets"`
	SoldOut          bool       `json:"sold_out"`
	IsActive         bool       `json:"is_active"`
}

// TierView is a tier with its computed availability.
type TierView struct {
	models.TicketCategory
	Available bool `json:"available"`
}

// Detail is the event page payload: the event plus its tiers with
// availability computed at read time.
type Detail struct {
	Event models.Event `json:"event"`
	Tiers []TierView   `json:"tiers"`
}
