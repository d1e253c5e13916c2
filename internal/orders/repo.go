package orders

import (
	"context"

	"github.com/campuslink/campuslink-backend/pkg/db/models"
	"github.com/campuslink/campuslink-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes persistence helpers for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Order, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Order, error)
	UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (statusUpdateResult, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an orders repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type statusUpdateResult struct {
	Updated bool
	Found   bool
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// Create inserts the order and its join rows. The referenced books are never
// upserted; the order only snapshots them.
func (r *repositoryImpl) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("Books.*").Create(order).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Preload("Books").First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repositoryImpl) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Books").
		Where("buyer_id = ?", buyerID).
		Order("ordered_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *repositoryImpl) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Books").
		Where("seller_id = ?", sellerID).
		Order("ordered_at DESC").
		Find(&orders).Error
	return orders, err
}

// UpdateStatusIf flips status only when the row still holds the expected
// value, so two concurrent updates cannot both win.
func (r *repositoryImpl) UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (statusUpdateResult, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		UpdateColumn("status", to)
	if result.Error != nil {
		return statusUpdateResult{}, result.Error
	}
	if result.RowsAffected > 0 {
		return statusUpdateResult{Updated: true, Found: true}, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return statusUpdateResult{}, err
	}
	return statusUpdateResult{Found: count > 0}, nil
}
