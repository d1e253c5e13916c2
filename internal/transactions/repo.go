package transactions

import (
	"context"

	"github.com/campuslink/campuslink-backend/pkg/db/models"
	"github.com/campuslink/campuslink-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes persistence helpers for transactions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, txn *models.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Transaction, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Transaction, error)
	UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to enums.TransactionStatus) (statusUpdateResult, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a transactions repository bound to the provided database.
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

// Create inserts the transaction and its join rows without touching the
// referenced book rows.
func (r *repositoryImpl) Create(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Omit("Books.*").Create(txn).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.WithContext(ctx).Preload("Books").First(&txn, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repositoryImpl) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.WithContext(ctx).
		Preload("Books").
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Find(&txns).Error
	return txns, err
}

func (r *repositoryImpl) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.WithContext(ctx).
		Preload("Books").
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&txns).Error
	return txns, err
}

// UpdateStatusIf flips status only while the row still holds the expected
// value. Exactly one of two racing completions can win.
func (r *repositoryImpl) UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to enums.TransactionStatus) (statusUpdateResult, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
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
		Model(&models.Transaction{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return statusUpdateResult{}, err
	}
	return statusUpdateResult{Found: count > 0}, nil
}
