package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dopeevents/dopeevents-backend/api/responses"
	"github.com/dopeevents/dopeevents-backend/api/validators"
	"github.com/dopeevents/dopeevents-backend/internal/payments"
	pkgerrors "github.com/dopeevents/dopeevents-backend/pkg/errors"
	"github.com/dopeevents/dopeevents-backend/pkg/logger"
)

type paymentInitiateRequest struct {
	EventID          string `json:"event_id" validate:"required,uuid4"`
	TicketCategoryID string `json:"ticket_category_id" validate:"required,uuid4"`
	PhoneNumber      string `json:"phone_number" validate:"required"`
	BuyerName        string `json:"buyer_name" validate:"required,min=1,max=255"`
	BuyerEmail       string `json:"buyer_email" validate:"required,email"`
	BuyerPhone       string `json:"buyer_phone,omitempty"`
	Quantity         int    `json:"quantity" validate:"required,gt=0"`
}

// PaymentInitiate opens a pending ledger row and fires the STK push.
func PaymentInitiate(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		var payload paymentInitiateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		eventID, err := uuid.Parse(payload.EventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid event id"))
			return
		}
		tierID, err := uuid.Parse(payload.TicketCategoryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid ticket category id"))
			return
		}

		buyerPhone := payload.BuyerPhone
		if buyerPhone == "" {
			buyerPhone = payload.PhoneNumber
		}

		result, err := svc.Initiate(r.Context(), payments.InitiateInput{
			EventID:          eventID,
			TicketCategoryID: tierID,
			PhoneNumber:      payload.PhoneNumber,
			BuyerName:        payload.BuyerName,
			BuyerEmail:       payload.BuyerEmail,
			BuyerPhone:       buyerPhone,
			Quantity:         payload.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusAccepted, result)
	}
}

// PaymentStatus is the read-only settlement view for polling clients.
func PaymentStatus(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		transactionID := strings.TrimSpace(chi.URLParam(r, "transactionID"))
		if transactionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "transaction id required"))
			return
		}

		result, err := svc.Status(r.Context(), transactionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type stripeIntentRequest struct {
	EventID          string `json:"event_id" validate:"required,uuid4"`
	TicketCategoryID string `json:"ticket_category_id" validate:"required,uuid4"`
	BuyerName        string `json:"buyer_name" validate:"required,min=1,max=255"`
	BuyerEmail       string `json:"buyer_email" validate:"required,email"`
	BuyerPhone       string `json:"buyer_phone,omitempty"`
	Quantity         int    `json:"quantity" validate:"required,gt=0"`
}

// StripeIntentCreate opens a card checkout and returns the client secret.
func StripeIntentCreate(svc payments.CardService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "card payment service unavailable"))
			return
		}

		var payload stripeIntentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		eventID, err := uuid.Parse(payload.EventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid event id"))
			return
		}
		tierID, err := uuid.Parse(payload.TicketCategoryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid ticket category id"))
			return
		}

		result, err := svc.CreateIntent(r.Context(), payments.CardIntentInput{
			EventID:          eventID,
			TicketCategoryID: tierID,
			BuyerName:        payload.BuyerName,
			BuyerEmail:       payload.BuyerEmail,
			BuyerPhone:       payload.BuyerPhone,
			Quantity:         payload.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
