package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dopeevents/dopeevents-backend/pkg/db"
	"github.com/dopeevents/dopeevents-backend/pkg/db/models"
	pkgerrors "github.com/dopeevents/dopeevents-backend/pkg/errors"
	"github.com/dopeevents/dopeevents-backend/pkg/logger"
	"github.com/dopeevents/dopeevents-backend/pkg/pagination"
)

type service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService builds the event catalog service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("events repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Event, error) {
	if input.OrganizerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organizer id required")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	if strings.TrimSpace(input.Location) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location required")
	}
	if input.Date.Before(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event date must be in the future")
	}

	if input.CategoryID != nil {
		if _, err := s.repo.FindCategoryByID(ctx, *input.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
		}
	}

	event, err := s.repo.CreateEvent(ctx, &models.Event{
		OrganizerID: input.OrganizerID,
		CategoryID:  input.CategoryID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Date:        input.Date,
		Location:    strings.TrimSpace(input.Location),
		IsActive:    true,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create event")
	}

	s.logg.Info(s.logg.WithEventID(ctx, event.ID.String()), "event created")
	return event, nil
}

func (s *service) Update(ctx context.Context, eventID uuid.UUID, input UpdateInput) (*models.Event, error) {
	if eventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}

	if _, err := s.repo.FindEventByID(ctx, eventID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
	}

	updates := map[string]any{}
	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
		updates["title"] = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Date != nil {
		updates["date"] = *input.Date
	}
	if input.Location != nil {
		if strings.TrimSpace(*input.Location) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "location cannot be empty")
		}
		updates["location"] = strings.TrimSpace(*input.Location)
	}
	if input.CategoryID != nil {
		updates["category_id"] = *input.CategoryID
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if err := s.repo.UpdateEvent(ctx, eventID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update event")
	}
	event, err := s.repo.FindEventByID(ctx, eventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload event")
	}
	return event, nil
}

func (s *service) Get(ctx context.Context, eventID uuid.UUID) (*Detail, error) {
	if eventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}

	event, err := s.repo.FindEventByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
	}

	tiers, err := s.repo.FindTiersByEvent(ctx, eventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tiers")
	}

	now := s.now().UTC()
	views := make([]TierView, 0, len(tiers))
	for _, tier := range tiers {
		views = append(views, TierView{
			TicketCategory: tier,
			Available:      tier.IsAvailable(now),
		})
	}
	return &Detail{Event: *event, Tiers: views}, nil
}

func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) (pagination.Page[Summary], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[Summary]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	evts, err := s.repo.ListEvents(ctx, filter, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return pagination.Page[Summary]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list events")
	}

	raw := pagination.BuildPage(evts, params.Limit, func(e models.Event) pagination.Cursor {
		return pagination.Cursor{CreatedAt: e.CreatedAt, ID: e.ID}
	})

	summaries := make([]Summary, 0, len(raw.Items))
	for _, e := range raw.Items {
		summaries = append(summaries, Summary{
			ID:               e.ID,
			Title:            e.Title,
			Date:             e.Date,
			Location:         e.Location,
			CategoryID:       e.CategoryID,
			AvailableTickets: e.AvailableTickets,
			SoldOut:          e.SoldOut,
			IsActive:         e.IsActive,
		})
	}
	return pagination.Page[Summary]{Items: summaries, NextCursor: raw.NextCursor}, nil
}

func (s *service) AddTier(ctx context.Context, eventID uuid.UUID, input TierInput) (*models.TicketCategory, error) {
	if eventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tier name required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid tier type")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.InitialTickets <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "initial ticket count must be positive")
	}
	if input.MaxPerPurchase <= 0 {
		input.MaxPerPurchase = 10
	}

	event, err := s.repo.FindEventByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
	}

	salesStart := s.now().UTC()
	if input.SalesStart != nil {
		salesStart = *input.SalesStart
	}
	salesEnd := event.Date
	if input.SalesEnd != nil {
		salesEnd = *input.SalesEnd
	}
	if !salesEnd.After(salesStart) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sales window must end after it starts")
	}

	tier, err := s.repo.CreateTier(ctx, &models.TicketCategory{
		EventID:          eventID,
		Name:             strings.TrimSpace(input.Name),
		Type:             input.Type,
		Price:            input.Price,
		InitialTickets:   input.InitialTickets,
		AvailableTickets: input.InitialTickets,
		MaxPerPurchase:   input.MaxPerPurchase,
		SalesStart:       salesStart,
		SalesEnd:         salesEnd,
		Description:      strings.TrimSpace(input.Description),
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "event already has a tier of this type")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create tier")
	}

	// keep the event counters in sync with the tier totals
	if err := s.repo.UpdateEvent(ctx, eventID, map[string]any{
		"total_tickets":     event.TotalTickets + input.InitialTickets,
		"available_tickets": event.AvailableTickets + input.InitialTickets,
		"sold_out":          false,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update event counters")
	}

	return tier, nil
}

func (s *service) Categories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return categories, nil
}
