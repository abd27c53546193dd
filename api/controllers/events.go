package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dopeevents/dopeevents-backend/api/responses"
	"github.com/dopeevents/dopeevents-backend/api/validators"
	"github.com/dopeevents/dopeevents-backend/internal/events"
	"github.com/dopeevents/dopeevents-backend/pkg/enums"
	pkgerrors "github.com/dopeevents/dopeevents-backend/pkg/errors"
	"github.com/dopeevents/dopeevents-backend/pkg/logger"
	"github.com/dopeevents/dopeevents-backend/pkg/pagination"
)

type eventCreateRequest struct {
	OrganizerID string    `json:"organizer_id" validate:"required,uuid4"`
	CategoryID  *string   `json:"category_id,omitempty" validate:"omitempty,uuid4"`
	Title       string    `json:"title" validate:"required,min=1,max=255"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date" validate:"required"`
	Location    string    `json:"location" validate:"required,min=1,max=255"`
}

// EventCreate registers a new event for an organizer.
func EventCreate(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "event service unavailable"))
			return
		}

		var payload eventCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		organizerID, err := uuid.Parse(payload.OrganizerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid organizer id"))
			return
		}

		input := events.CreateInput{
			OrganizerID: organizerID,
			Title:       payload.Title,
			Description: payload.Description,
			Date:        payload.Date,
			Location:    payload.Location,
		}
		if payload.CategoryID != nil {
			categoryID, err := uuid.Parse(*payload.CategoryID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category id"))
				return
			}
			input.CategoryID = &categoryID
		}

		event, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, event)
	}
}

type eventUpdateRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string    `json:"description,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
	Location    *string    `json:"location,omitempty" validate:"omitempty,min=1,max=255"`
	CategoryID  *string    `json:"category_id,omitempty" validate:"omitempty,uuid4"`
	IsActive    *bool      `json:"is_active,omitempty"`
}

// EventUpdate adjusts the mutable fields of an existing event.
func EventUpdate(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "event service unavailable"))
			return
		}

		eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid event id"))
			return
		}

		var payload eventUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := events.UpdateInput{
			Title:       payload.Title,
			Description: payload.Description,
			Date:        payload.Date,
			Location:    payload.Location,
			IsActive:    payload.IsActive,
		}
		if payload.CategoryID != nil {
			categoryID, err := uuid.Parse(*payload.CategoryID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category id"))
				return
			}
			input.CategoryID = &categoryID
		}

		event, err := svc.Update(r.Context(), eventID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, event)
	}
}

// EventGet returns one event with its ticket tiers and live availability.
func EventGet(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "event service unavailable"))
			return
		}

		eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid event id"))
			return
		}

		detail, err := svc.Get(r.Context(), eventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, detail)
	}
}

// EventList returns a cursor-paginated event listing with optional filters.
func EventList(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "event service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := events.ListFilter{
			UpcomingOnly: r.URL.Query().Get("upcoming") == "true",
			ActiveOnly:   r.URL.Query().Get("active") != "false",
		}
		if raw := r.URL.Query().Get("category_id"); raw != "" {
			categoryID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category id"))
				return
			}
			filter.CategoryID = &categoryID
		}
		if raw := r.URL.Query().Get("organizer_id"); raw != "" {
			organizerID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid organizer id"))
				return
			}
			filter.OrganizerID = &organizerID
		}

		page, err := svc.List(r.Context(), filter, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

type tierCreateRequest struct {
	Name           string          `json:"name" validate:"required,min=1,max=100"`
	Type           string          `json:"type" validate:"required"`
	Price          decimal.Decimal `json:"price"`
	InitialTickets int             `json:"initial_tickets" validate:"required,gt=0"`
	MaxPerPurchase int             `json:"max_per_purchase,omitempty" validate:"omitempty,gt=0"`
	SalesStart     *time.Time      `json:"sales_start,omitempty"`
	SalesEnd       *time.Time      `json:"sales_end,omitempty"`
	Description    string          `json:"description,omitempty"`
}

// EventAddTier attaches a ticket tier to an event and grows its inventory.
func EventAddTier(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "event service unavailable"))
			return
		}

		eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid event id"))
			return
		}

		var payload tierCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tier, err := svc.AddTier(r.Context(), eventID, events.TierInput{
			Name:           payload.Name,
			Type:           enums.TicketCategoryType(payload.Type),
			Price:          payload.Price,
			InitialTickets: payload.InitialTickets,
			MaxPerPurchase: payload.MaxPerPurchase,
			SalesStart:     payload.SalesStart,
			SalesEnd:       payload.SalesEnd,
			Description:    payload.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, tier)
	}
}

// CategoryList returns every event category ordered by name.
func CategoryList(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "event service unavailable"))
			return
		}

		categories, err := svc.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, categories)
	}
}
