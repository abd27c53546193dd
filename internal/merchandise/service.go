package merchandise

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dopeevents/dopeevents-backend/internal/inventory"
	"github.com/dopeevents/dopeevents-backend/pkg/db/models"
	"github.com/dopeevents/dopeevents-backend/pkg/enums"
	pkgerrors "github.com/dopeevents/dopeevents-backend/pkg/errors"
	"github.com/dopeevents/dopeevents-backend/pkg/logger"
	"github.com/dopeevents/dopeevents-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo  Repository
	tx    txRunner
	stock inventory.Adjuster
	logg  *logger.Logger
	now   func() time.Time
}

// NewService builds the merchandise storefront service.
func NewService(repo Repository, tx txRunner, stock inventory.Adjuster, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("merchandise repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if stock == nil {
		return nil, fmt.Errorf("inventory adjuster required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, stock: stock, logg: logg, now: time.Now}, nil
}

func (s *service) CreateItem(ctx context.Context, input ItemInput) (*models.Merchandise, error) {
	if input.SellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.StockQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity cannot be negative")
	}

	item, err := s.repo.CreateItem(ctx, &models.Merchandise{
		Name:          strings.TrimSpace(input.Name),
		Description:   strings.TrimSpace(input.Description),
		Price:         input.Price,
		StockQuantity: input.StockQuantity,
		CategoryID:    input.CategoryID,
		SellerID:      input.SellerID,
		SellerType:    enums.SellerTypeSeller,
		Status:        enums.MerchandiseStatusDraft,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create merchandise")
	}
	return item, nil
}

func (s *service) UpdateItem(ctx context.Context, itemID uuid.UUID, input ItemUpdate) (*models.Merchandise, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	if _, err := s.repo.FindItemByID(ctx, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}

	updates := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name cannot be empty")
		}
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		updates["price"] = *input.Price
	}
	if input.StockQuantity != nil {
		if *input.StockQuantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity cannot be negative")
		}
		updates["stock_quantity"] = *input.StockQuantity
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid item status")
		}
		updates["status"] = *input.Status
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if err := s.repo.UpdateItem(ctx, itemID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update item")
	}
	item, err := s.repo.FindItemByID(ctx, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload item")
	}
	return item, nil
}

func (s *service) ListActive(ctx context.Context, params pagination.Params) (pagination.Page[models.Merchandise], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.Merchandise]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	items, err := s.repo.ListActiveItems(ctx, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return pagination.Page[models.Merchandise]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list merchandise")
	}

	return pagination.BuildPage(items, params.Limit, func(m models.Merchandise) pagination.Cursor {
		return pagination.Cursor{CreatedAt: m.CreatedAt, ID: m.ID}
	}), nil
}

func (s *service) PlaceOrder(ctx context.Context, input OrderInput) (*models.MerchandiseOrder, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order needs at least one item")
	}
	if strings.TrimSpace(input.ShippingAddress) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	seen := map[uuid.UUID]bool{}
	for _, line := range input.Lines {
		if line.MerchandiseID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchandise id required on every line")
		}
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
		}
		if seen[line.MerchandiseID] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate merchandise line")
		}
		seen[line.MerchandiseID] = true
	}

	var order *models.MerchandiseOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		total := decimal.Zero
		items := make([]models.MerchandiseOrderItem, 0, len(input.Lines))
		for _, line := range input.Lines {
			item, err := repo.FindItemByID(ctx, line.MerchandiseID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "merchandise not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load merchandise")
			}
			if !item.IsAvailable() {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("%s is not available", item.Name))
			}
			if err := s.stock.DeductStock(ctx, tx, item.ID, line.Quantity); err != nil {
				return err
			}
			items = append(items, models.MerchandiseOrderItem{
				MerchandiseID: item.ID,
				Quantity:      line.Quantity,
				UnitPrice:     item.Price,
			})
			total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}

		created, err := repo.CreateOrder(ctx, &models.MerchandiseOrder{
			BuyerID:         input.BuyerID,
			TotalAmount:     total,
			Status:          enums.MerchandiseOrderPending,
			PaymentMethod:   input.PaymentMethod,
			ShippingAddress: strings.TrimSpace(input.ShippingAddress),
			Notes:           strings.TrimSpace(input.Notes),
			Items:           items,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		order = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithField(ctx, "order_id", order.ID.String()), "merchandise order placed")
	return order, nil
}

func (s *service) TransitionOrder(ctx context.Context, orderID uuid.UUID, next enums.MerchandiseOrderStatus) (*models.MerchandiseOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	order, err := s.repo.FindOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, next))
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		moved, err := repo.UpdateOrderStatus(ctx, orderID, order.Status, next)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
		}
		if next == enums.MerchandiseOrderCancelled {
			// cancellation before shipping puts the stock back
			for _, item := range order.Items {
				if err := s.stock.RestoreStock(ctx, tx, item.MerchandiseID, item.Quantity); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.FindOrderByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_id": orderID.String(),
		"status":   string(next),
	}), "merchandise order transitioned")
	return updated, nil
}

func (s *service) ActivateDrafts(ctx context.Context) (int64, error) {
	activated, err := s.repo.ActivateEligibleDrafts(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "activate draft merchandise")
	}
	return activated, nil
}
