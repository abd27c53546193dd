package merchandise

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dopeevents/dopeevents-backend/pkg/db/models"
	"github.com/dopeevents/dopeevents-backend/pkg/enums"
	"github.com/dopeevents/dopeevents-backend/pkg/pagination"
)

// Repository is the persistence surface for merchandise and orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateItem(ctx context.Context, item *models.Merchandise) (*models.Merchandise, error)
	FindItemByID(ctx context.Context, id uuid.UUID) (*models.Merchandise, error)
	UpdateItem(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListActiveItems(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Merchandise, error)
	ActivateEligibleDrafts(ctx context.Context) (int64, error)

	CreateOrder(ctx context.Context, order *models.MerchandiseOrder) (*models.MerchandiseOrder, error)
	FindOrderByID(ctx context.Context, id uuid.UUID) (*models.MerchandiseOrder, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to enums.MerchandiseOrderStatus) (bool, error)
}

// Service exposes the merchandise storefront operations.
type Service interface {
	CreateItem(ctx context.Context, input ItemInput) (*models.Merchandise, error)
	UpdateItem(ctx context.Context, itemID uuid.UUID, input ItemUpdate) (*models.Merchandise, error)
	ListActive(ctx context.Context, params pagination.Params) (pagination.Page[models.Merchandise], error)
	PlaceOrder(ctx context.Context, input OrderInput) (*models.MerchandiseOrder, error)
	TransitionOrder(ctx context.Context, orderID uuid.UUID, next enums.MerchandiseOrderStatus) (*models.MerchandiseOrder, error)
	ActivateDrafts(ctx context.Context) (int64, error)
}

// ItemInput carries a new merchandise listing.
type ItemInput struct {
	SellerID      uuid.UUID
	CategoryID    *uuid.UUID
	Name          string
	Description   string
	Price         decimal.Decimal
	StockQuantity int
}

// ItemUpdate carries a partial item update; nil fields are left unchanged.
type ItemUpdate struct {
	Name          *string
	Description   *string
	Price         *decimal.Decimal
	StockQuantity *int
	Status        *enums.MerchandiseStatus
}

// OrderLine is one requested item within an order.
type OrderLine struct {
	MerchandiseID uuid.UUID `json:"merchandise_id"`
	Quantity      int       `json:"quantity"`
}

// OrderInput carries a new merchandise order.
type OrderInput struct {
	BuyerID         uuid.UUID
	Lines           []OrderLine
	PaymentMethod   enums.PaymentMethod
	ShippingAddress string
	Notes           string
}
