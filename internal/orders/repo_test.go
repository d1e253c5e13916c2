package orders

import (
	"context"
	"testing"
	"time"

	"github.com/campuslink/campuslink-backend/pkg/db/models"
	"github.com/campuslink/campuslink-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  buyer_id TEXT NOT NULL,
  seller_id TEXT NOT NULL,
  total_price TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending_delivery',
  ordered_at DATETIME,
  updated_at DATETIME
);`
	orderBooks := `
CREATE TABLE IF NOT EXISTS order_books (
  order_id TEXT NOT NULL,
  book_id TEXT NOT NULL,
  PRIMARY KEY (order_id, book_id)
);`
	books := `
CREATE TABLE IF NOT EXISTS books (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  author TEXT,
  edition TEXT,
  quality TEXT,
  description TEXT,
  listing_type TEXT NOT NULL DEFAULT 'sale',
  original_price TEXT NOT NULL,
  generated_price TEXT NOT NULL,
  is_available INTEGER NOT NULL DEFAULT 1,
  image_url TEXT,
  owner_id TEXT NOT NULL,
  added_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(books).Error)
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(orderBooks).Error)
	return db
}

func seedOrderBook(t *testing.T, db *gorm.DB, title string) models.Book {
	t.Helper()

	book := models.Book{
		ID:             uuid.New(),
		Title:          title,
		ListingType:    enums.ListingTypeSale,
		OriginalPrice:  decimal.NewFromInt(400),
		GeneratedPrice: decimal.NewFromInt(250),
		IsAvailable:    false,
		OwnerID:        uuid.New(),
		AddedAt:        time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	require.NoError(t, db.Create(&book).Error)
	return book
}

func TestRepositoryCreateSnapshotsBooksWithoutUpsert(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	book := seedOrderBook(t, db, "Compilers")
	originalTitle := book.Title
	book.Title = "mutated in memory"

	order := &models.Order{
		ID:         uuid.New(),
		BuyerID:    uuid.New(),
		SellerID:   book.OwnerID,
		Books:      []models.Book{book},
		TotalPrice: decimal.NewFromInt(250),
		Status:     enums.OrderStatusPendingDelivery,
	}
	require.NoError(t, repo.Create(context.Background(), order))

	loaded, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Books, 1)
	assert.Equal(t, originalTitle, loaded.Books[0].Title, "join insert must not rewrite the book row")
	assert.Equal(t, enums.OrderStatusPendingDelivery, loaded.Status)
}

func TestRepositoryUpdateStatusIfSingleWinner(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order := &models.Order{
		ID:         uuid.New(),
		BuyerID:    uuid.New(),
		SellerID:   uuid.New(),
		TotalPrice: decimal.NewFromInt(100),
		Status:     enums.OrderStatusPendingDelivery,
	}
	require.NoError(t, repo.Create(context.Background(), order))

	first, err := repo.UpdateStatusIf(context.Background(), order.ID, enums.OrderStatusPendingDelivery, enums.OrderStatusDelivered)
	require.NoError(t, err)
	assert.True(t, first.Updated)
	assert.True(t, first.Found)

	second, err := repo.UpdateStatusIf(context.Background(), order.ID, enums.OrderStatusPendingDelivery, enums.OrderStatusDelivered)
	require.NoError(t, err)
	assert.False(t, second.Updated, "second guarded flip must lose")
	assert.True(t, second.Found)
}

func TestRepositoryUpdateStatusIfMissingRow(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	res, err := repo.UpdateStatusIf(context.Background(), uuid.New(), enums.OrderStatusPendingDelivery, enums.OrderStatusDelivered)
	require.NoError(t, err)
	assert.False(t, res.Updated)
	assert.False(t, res.Found)
}

func TestRepositoryListByBuyerNewestFirst(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	buyerID := uuid.New()
	now := time.Now().UTC()

	older := &models.Order{
		ID:         uuid.New(),
		BuyerID:    buyerID,
		SellerID:   uuid.New(),
		TotalPrice: decimal.NewFromInt(50),
		Status:     enums.OrderStatusPendingDelivery,
		OrderedAt:  now.Add(-time.Hour),
	}
	newer := &models.Order{
		ID:         uuid.New(),
		BuyerID:    buyerID,
		SellerID:   uuid.New(),
		TotalPrice: decimal.NewFromInt(75),
		Status:     enums.OrderStatusPendingDelivery,
		OrderedAt:  now,
	}
	require.NoError(t, db.Create(older).Error)
	require.NoError(t, db.Create(newer).Error)

	// Unrelated buyer, must not appear.
	require.NoError(t, db.Create(&models.Order{
		ID:         uuid.New(),
		BuyerID:    uuid.New(),
		SellerID:   uuid.New(),
		TotalPrice: decimal.NewFromInt(10),
		Status:     enums.OrderStatusPendingDelivery,
		OrderedAt:  now,
	}).Error)

	listed, err := repo.ListByBuyer(context.Background(), buyerID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, newer.ID, listed[0].ID)
	assert.Equal(t, older.ID, listed[1].ID)
}
