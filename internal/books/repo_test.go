package books

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

func setupBooksTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

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
	orderBooks := `
CREATE TABLE IF NOT EXISTS order_books (
  order_id TEXT NOT NULL,
  book_id TEXT NOT NULL,
  PRIMARY KEY (order_id, book_id)
);`
	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  phone TEXT,
  department TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(users).Error)
	require.NoError(t, db.Exec(books).Error)
	require.NoError(t, db.Exec(orderBooks).Error)
	return db
}

func seedBook(t *testing.T, db *gorm.DB, title string, available bool, addedAt time.Time) *models.Book {
	t.Helper()

	book := &models.Book{
		ID:             uuid.New(),
		Title:          title,
		Author:         "Author",
		ListingType:    enums.ListingTypeSale,
		OriginalPrice:  decimal.NewFromInt(500),
		GeneratedPrice: decimal.NewFromInt(350),
		IsAvailable:    available,
		OwnerID:        uuid.New(),
		AddedAt:        addedAt,
		UpdatedAt:      addedAt,
	}
	require.NoError(t, db.Create(book).Error)
	return book
}

func TestRepositoryMarkUnavailableIfAvailable_singleWinner(t *testing.T) {
	db := setupBooksTestDB(t)
	repo := NewRepository(db)

	book := seedBook(t, db, "Operating Systems", true, time.Now().UTC())

	won, err := repo.MarkUnavailableIfAvailable(context.Background(), book.ID)
	require.NoError(t, err)
	assert.True(t, won)

	again, err := repo.MarkUnavailableIfAvailable(context.Background(), book.ID)
	require.NoError(t, err)
	assert.False(t, again, "second claim must lose")

	reloaded, err := repo.FindByID(context.Background(), book.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsAvailable)
}

func TestRepositoryMarkAvailableIfUnsold_restores(t *testing.T) {
	db := setupBooksTestDB(t)
	repo := NewRepository(db)

	book := seedBook(t, db, "Discrete Math", false, time.Now().UTC())

	restored, err := repo.MarkAvailableIfUnsold(context.Background(), book.ID)
	require.NoError(t, err)
	assert.True(t, restored)

	reloaded, err := repo.FindByID(context.Background(), book.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsAvailable)
}

func TestRepositoryMarkAvailableIfUnsold_blockedByOrder(t *testing.T) {
	db := setupBooksTestDB(t)
	repo := NewRepository(db)

	book := seedBook(t, db, "Linear Algebra", false, time.Now().UTC())
	require.NoError(t, db.Exec(
		"INSERT INTO order_books (order_id, book_id) VALUES (?, ?)",
		uuid.New().String(), book.ID.String(),
	).Error)

	restored, err := repo.MarkAvailableIfUnsold(context.Background(), book.ID)
	require.NoError(t, err)
	assert.False(t, restored, "sold book must stay unavailable")

	reloaded, err := repo.FindByID(context.Background(), book.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsAvailable)
}

func TestRepositoryListAvailable_pagination(t *testing.T) {
	db := setupBooksTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	older := seedBook(t, db, "Older", true, now.Add(-time.Hour))
	newer := seedBook(t, db, "Newer", true, now)
	seedBook(t, db, "Sold", false, now.Add(-2*time.Hour))

	page, next, err := repo.ListAvailable(context.Background(), 1, nil)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, newer.ID, page[0].ID)
	require.NotNil(t, next)

	second, final, err := repo.ListAvailable(context.Background(), 1, next)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, older.ID, second[0].ID)
	assert.Nil(t, final)
}

func TestRepositorySearchAvailable(t *testing.T) {
	db := setupBooksTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	match := seedBook(t, db, "Intro to Algorithms", true, now)
	seedBook(t, db, "Chemistry Basics", true, now)
	seedBook(t, db, "Algorithms Unbound", false, now)

	results, err := repo.SearchAvailable(context.Background(), "algorithms")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, match.ID, results[0].ID)
}
