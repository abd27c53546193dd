package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dopeevents/dopeevents-backend/api/responses"
	"github.com/dopeevents/dopeevents-backend/api/validators"
	"github.com/dopeevents/dopeevents-backend/internal/analytics"
	pkgerrors "github.com/dopeevents/dopeevents-backend/pkg/errors"
	"github.com/dopeevents/dopeevents-backend/pkg/logger"
)

// VisitorStats returns daily visit counts and page breakdowns for the
// requested window.
func VisitorStats(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		days, err := validators.ParseQueryInt(r, "days", 0, 0, 365)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stats, err := svc.VisitorStats(r.Context(), days)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, stats)
	}
}

// EventAnalytics returns revenue and ticket movement for one event.
func EventAnalytics(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid event id"))
			return
		}

		summary, err := svc.EventSummary(r.Context(), eventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}
