package books

import (
	"context"
	"strings"

	"github.com/campuslink/campuslink-backend/pkg/db/models"
	"github.com/campuslink/campuslink-backend/pkg/enums"
	"github.com/campuslink/campuslink-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes persistence helpers for book listings, including the
// conditional availability flips the checkout paths rely on.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, book *models.Book) error
	Save(ctx context.Context, book *models.Book) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Book, error)
	ListAvailable(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Book, *pagination.Cursor, error)
	SearchAvailable(ctx context.Context, query string) ([]models.Book, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Book, error)
	ListByType(ctx context.Context, listingType enums.ListingType) ([]models.Book, error)
	ListRecent(ctx context.Context, limit int) ([]models.Book, error)
	MarkUnavailableIfAvailable(ctx context.Context, id uuid.UUID) (bool, error)
	MarkAvailableIfUnsold(ctx context.Context, id uuid.UUID) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a books repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

func (r *repositoryImpl) Save(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Save(book).Error
}

func (r *repositoryImpl) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Book{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).Preload("Owner").First(&book, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *repositoryImpl) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var books []models.Book
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&books).Error
	return books, err
}

func (r *repositoryImpl) ListAvailable(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Book, *pagination.Cursor, error) {
	fetch := pagination.LimitWithBuffer(limit)
	normalized := pagination.NormalizeLimit(limit)
	query := r.db.WithContext(ctx).Model(&models.Book{}).Where("is_available = ?", true)
	if cursor != nil {
		query = query.Where("(added_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var books []models.Book
	if err := query.Order("added_at DESC, id DESC").Limit(fetch).Find(&books).Error; err != nil {
		return nil, nil, err
	}
	if len(books) > normalized {
		next := books[normalized]
		books = books[:normalized]
		return books, &pagination.Cursor{CreatedAt: next.AddedAt, ID: next.ID}, nil
	}
	return books, nil, nil
}

func (r *repositoryImpl) SearchAvailable(ctx context.Context, query string) ([]models.Book, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	var books []models.Book
	err := r.db.WithContext(ctx).
		Where("is_available = ?", true).
		Where(
			"LOWER(title) LIKE ? OR LOWER(author) LIKE ? OR LOWER(edition) LIKE ? OR LOWER(quality) LIKE ? OR LOWER(listing_type) LIKE ?",
			pattern, pattern, pattern, pattern, pattern,
		).
		Order("added_at DESC").
		Find(&books).Error
	return books, err
}

func (r *repositoryImpl) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Book, error) {
	var books []models.Book
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("added_at DESC").
		Find(&books).Error
	return books, err
}

func (r *repositoryImpl) ListByType(ctx context.Context, listingType enums.ListingType) ([]models.Book, error) {
	var books []models.Book
	err := r.db.WithContext(ctx).
		Where("listing_type = ? AND is_available = ?", listingType, true).
		Order("added_at DESC").
		Find(&books).Error
	return books, err
}

func (r *repositoryImpl) ListRecent(ctx context.Context, limit int) ([]models.Book, error) {
	var books []models.Book
	err := r.db.WithContext(ctx).
		Where("is_available = ?", true).
		Order("added_at DESC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&books).Error
	return books, err
}

// MarkUnavailableIfAvailable flips is_available to false only when it is
// still true, reporting whether this caller won the flip. Concurrent buyers
// racing for the same book serialize on this single conditional update.
func (r *repositoryImpl) MarkUnavailableIfAvailable(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ? AND is_available = ?", id, true).
		UpdateColumn("is_available", false)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkAvailableIfUnsold restores availability unless an order already holds
// the book. A cancelled transaction must never resurrect a book that another
// buyer's completed checkout has claimed.
func (r *repositoryImpl) MarkAvailableIfUnsold(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ? AND is_available = ?", id, false).
		Where("NOT EXISTS (SELECT 1 FROM order_books WHERE order_books.book_id = ?)", id).
		UpdateColumn("is_available", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
