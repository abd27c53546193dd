package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dopeevents/dopeevents-backend/api/responses"
	"github.com/dopeevents/dopeevents-backend/api/validators"
	"github.com/dopeevents/dopeevents-backend/internal/merchandise"
	"github.com/dopeevents/dopeevents-backend/pkg/enums"
	pkgerrors "github.com/dopeevents/dopeevents-backend/pkg/errors"
	"github.com/dopeevents/dopeevents-backend/pkg/logger"
	"github.com/dopeevents/dopeevents-backend/pkg/pagination"
)

type merchandiseCreateRequest struct {
	SellerID      string          `json:"seller_id" validate:"required,uuid4"`
	CategoryID    *string         `json:"category_id,omitempty" validate:"omitempty,uuid4"`
	Name          string          `json:"name" validate:"required,min=1,max=255"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity" validate:"gte=0"`
}

// MerchandiseCreate lists a new item as a draft.
func MerchandiseCreate(svc merchandise.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "merchandise service unavailable"))
			return
		}

		var payload merchandiseCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sellerID, err := uuid.Parse(payload.SellerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid seller id"))
			return
		}

		input := merchandise.ItemInput{
			SellerID:      sellerID,
			Name:          payload.Name,
			Description:   payload.Description,
			Price:         payload.Price,
			StockQuantity: payload.StockQuantity,
		}
		if payload.CategoryID != nil {
			categoryID, err := uuid.Parse(*payload.CategoryID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category id"))
				return
			}
			input.CategoryID = &categoryID
		}

		item, err := svc.CreateItem(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

type merchandiseUpdateRequest struct {
	Name          *string          `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description   *string          `json:"description,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	StockQuantity *int             `json:"stock_quantity,omitempty" validate:"omitempty,gte=0"`
	Status        *string          `json:"status,omitempty"`
}

// MerchandiseUpdate adjusts the mutable fields of a listing.
func MerchandiseUpdate(svc merchandise.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "merchandise service unavailable"))
			return
		}

		itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}

		var payload merchandiseUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := merchandise.ItemUpdate{
			Name:          payload.Name,
			Description:   payload.Description,
			Price:         payload.Price,
			StockQuantity: payload.StockQuantity,
		}
		if payload.Status != nil {
			status := enums.MerchandiseStatus(*payload.Status)
			input.Status = &status
		}

		item, err := svc.UpdateItem(r.Context(), itemID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// MerchandiseList returns the active catalog, cursor-paginated.
func MerchandiseList(svc merchandise.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "merchandise service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListActive(r.Context(), pagination.Params{
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

type orderLineRequest struct {
	MerchandiseID string `json:"merchandise_id" validate:"required,uuid4"`
	Quantity      int    `json:"quantity" validate:"required,gt=0"`
}

type orderCreateRequest struct {
	BuyerID         string             `json:"buyer_id" validate:"required,uuid4"`
	Items           []orderLineRequest `json:"items" validate:"required,min=1,dive"`
	PaymentMethod   string             `json:"payment_method" validate:"required"`
	ShippingAddress string             `json:"shipping_address" validate:"required,min=1"`
	Notes           string             `json:"notes,omitempty"`
}

// OrderCreate places a merchandise order, deducting stock atomically.
func OrderCreate(svc merchandise.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "merchandise service unavailable"))
			return
		}

		var payload orderCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		buyerID, err := uuid.Parse(payload.BuyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid buyer id"))
			return
		}

		lines := make([]merchandise.OrderLine, 0, len(payload.Items))
		for _, item := range payload.Items {
			merchandiseID, err := uuid.Parse(item.MerchandiseID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid merchandise id"))
				return
			}
			lines = append(lines, merchandise.OrderLine{
				MerchandiseID: merchandiseID,
				Quantity:      item.Quantity,
			})
		}

		order, err := svc.PlaceOrder(r.Context(), merchandise.OrderInput{
			BuyerID:         buyerID,
			Lines:           lines,
			PaymentMethod:   enums.PaymentMethod(payload.PaymentMethod),
			ShippingAddress: payload.ShippingAddress,
			Notes:           payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

type orderTransitionRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderTransition advances an order along its fulfilment lifecycle.
func OrderTransition(svc merchandise.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "merchandise service unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		var payload orderTransitionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.TransitionOrder(r.Context(), orderID, enums.MerchandiseOrderStatus(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}
