package events

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dopeevents/dopeevents-backend/pkg/db/models"
	"github.com/dopeevents/dopeevents-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an events repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateEvent(ctx context.Context, event *models.Event) (*models.Event, error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

func (r *repository) FindEventByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repository) UpdateEvent(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ListEvents(ctx context.Context, filter ListFilter, limit int, cursor *pagination.Cursor) ([]models.Event, error) {
	q := r.db.WithContext(ctx).Model(&models.Event{})

	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.OrganizerID != nil {
		q = q.Where("organizer_id = ?", *filter.OrganizerID)
	}
	if filter.UpcomingOnly {
		q = q.Where("date >= CURRENT_TIMESTAMP")
	}
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var events []models.Event
	err := q.Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) CreateTier(ctx context.Context, tier *models.TicketCategory) (*models.TicketCategory, error) {
	if tier.ID == uuid.Nil {
		tier.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(tier).Error; err != nil {
		return nil, err
	}
	return tier, nil
}

func (r *repository) FindTiersByEvent(ctx context.Context, eventID uuid.UUID) ([]models.TicketCategory, error) {
	var tiers []models.TicketCategory
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("price ASC").
		Find(&tiers).Error
	if err != nil {
		return nil, err
	}
	return tiers, nil
}

func (r *repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *repository) FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}
