package merchandise

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dopeevents/dopeevents-backend/pkg/db/models"
	"github.com/dopeevents/dopeevents-backend/pkg/enums"
	"github.com/dopeevents/dopeevents-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a merchandise repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateItem(ctx context.Context, item *models.Merchandise) (*models.Merchandise, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (r *repository) FindItemByID(ctx context.Context, id uuid.UUID) (*models.Merchandise, error) {
	var item models.Merchandise
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) UpdateItem(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Merchandise{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ListActiveItems(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Merchandise, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Merchandise{}).
		Where("status = ?", enums.MerchandiseStatusActive)
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var items []models.Merchandise
	err := q.Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ActivateEligibleDrafts flips stocked draft items to active. Run by the cron
// worker.
func (r *repository) ActivateEligibleDrafts(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Merchandise{}).
		Where("status = ? AND stock_quantity > 0", enums.MerchandiseStatusDraft).
		Update("status", enums.MerchandiseStatusActive)
	return res.RowsAffected, res.Error
}

func (r *repository) CreateOrder(ctx context.Context, order *models.MerchandiseOrder) (*models.MerchandiseOrder, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindOrderByID(ctx context.Context, id uuid.UUID) (*models.MerchandiseOrder, error) {
	var order models.MerchandiseOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderStatus moves an order from one status to another. The conditional
// filter keeps concurrent transitions single-shot.
func (r *repository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to enums.MerchandiseOrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.MerchandiseOrder{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
