package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dopeevents/dopeevents-backend/pkg/db/models"
	"github.com/dopeevents/dopeevents-backend/pkg/enums"
)

// Repository is the persistence surface for visit tracking and aggregates.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateVisit(ctx context.Context, visit *models.Visit) error
	DailyVisitCounts(ctx context.Context, since time.Time) ([]DailyCount, error)
	TopPages(ctx context.Context, since time.Time, limit int) ([]PageCount, error)
	VisitTypeBreakdown(ctx context.Context, since time.Time) ([]TypeCount, error)
	EventRevenue(ctx context.Context, eventID uuid.UUID) (*EventRevenue, error)
	FindEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

// Service exposes visit recording and the admin-facing aggregates.
type Service interface {
	Record(ctx context.Context, input VisitInput) error
	VisitorStats(ctx context.Context, days int) (*VisitorStats, error)
	EventSummary(ctx context.Context, eventID uuid.UUID) (*EventSummary, error)
}

// VisitInput is a single tracked interaction.
type VisitInput struct {
	SessionKey string
	Path       string
	Type       enums.VisitType
	EventID    *uuid.UUID
	IPAddress  string
	UserAgent  string
	Referrer   string
}

// DailyCount is one day's visit total.
type DailyCount struct {
	Day    string `json:"day"`
	Visits int64  `json:"visits"`
}

// PageCount is a path with its visit total.
type PageCount struct {
	Path   string `json:"path"`
	Visits int64  `json:"visits"`
}

// TypeCount is a visit type with its total.
type TypeCount struct {
	Type   enums.VisitType `json:"type"`
	Visits int64           `json:"visits"`
}

// VisitorStats is the admin dashboard payload.
type VisitorStats struct {
	Days      int          `json:"days"`
	Total     int64        `json:"total"`
	Daily     []DailyCount `json:"daily"`
	TopPages  []PageCount  `json:"top_pages"`
	Breakdown []TypeCount  `json:"breakdown"`
}

// EventRevenue aggregates settled transactions and issued tickets for one
// event.
type EventRevenue struct {
	Revenue       decimal.Decimal `json:"revenue"`
	Settled       int64           `json:"settled_transactions"`
	TicketsSold   int64           `json:"tickets_sold"`
	TicketsIssued int64           `json:"tickets_issued"`
}

// EventSummary wraps EventRevenue with the event's listing counters.
type EventSummary struct {
	EventID          uuid.UUID       `json:"event_id"`
	Title            string          `json:"title"`
	Revenue          decimal.Decimal `json:"revenue"`
	Settled          int64           `json:"settled_transactions"`
	TicketsSold      int64           `json:"tickets_sold"`
	TicketsIssued    int64           `json:"tickets_issued"`
	AvailableTickets int             `json:"available_tickets"`
	SoldOut          bool            `json:"sold_out"`
}
