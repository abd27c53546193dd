package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dopeevents/dopeevents-backend/api/responses"
	"github.com/dopeevents/dopeevents-backend/internal/tickets"
	pkgerrors "github.com/dopeevents/dopeevents-backend/pkg/errors"
	"github.com/dopeevents/dopeevents-backend/pkg/logger"
)

// TicketConfirmation resolves a ticket code or M-Pesa receipt to the
// post-payment confirmation payload.
func TicketConfirmation(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ticket service unavailable"))
			return
		}

		code := strings.TrimSpace(chi.URLParam(r, "code"))
		if code == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "ticket code required"))
			return
		}

		confirmation, err := svc.Confirmation(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, confirmation)
	}
}

// TicketMarkUsed redeems a confirmed ticket at the gate.
func TicketMarkUsed(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ticket service unavailable"))
			return
		}

		ticketID, err := uuid.Parse(chi.URLParam(r, "ticketID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid ticket id"))
			return
		}

		ticket, err := svc.MarkUsed(r.Context(), ticketID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, ticket)
	}
}

// TicketCancel voids a pending or confirmed ticket.
func TicketCancel(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ticket service unavailable"))
			return
		}

		ticketID, err := uuid.Parse(chi.URLParam(r, "ticketID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid ticket id"))
			return
		}

		ticket, err := svc.Cancel(r.Context(), ticketID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, ticket)
	}
}
