package books

import (
	"context"
	"errors"
	"strings"

	"github.com/campuslink/campuslink-backend/internal/wishlist"
	"github.com/campuslink/campuslink-backend/pkg/db/models"
	"github.com/campuslink/campuslink-backend/pkg/enums"
	pkgerrors "github.com/campuslink/campuslink-backend/pkg/errors"
	"github.com/campuslink/campuslink-backend/pkg/logger"
	"github.com/campuslink/campuslink-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WishlistNotifier fans availability events out to wishlisters.
type WishlistNotifier interface {
	Notify(ctx context.Context, event wishlist.Event) error
}

// Service defines catalog operations for book listings.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Book, error)
	Update(ctx context.Context, actorID, bookID uuid.UUID, input UpdateInput) (*models.Book, error)
	Delete(ctx context.Context, actorID, bookID uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.Book, error)
	ListAvailable(ctx context.Context, params ListParams) (*ListResult, error)
	Search(ctx context.Context, query string) ([]models.Book, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Book, error)
	ListByType(ctx context.Context, listingType string) ([]models.Book, error)
	ListRecent(ctx context.Context, limit int) ([]models.Book, error)
}

type service struct {
	repo     Repository
	notifier WishlistNotifier
	log      *logger.Logger
}

// CreateInput carries the fields for a new listing.
type CreateInput struct {
	OwnerID        uuid.UUID
	Title          string
	Author         string
	Edition        string
	Quality        string
	Description    string
	ListingType    string
	OriginalPrice  decimal.Decimal
	GeneratedPrice decimal.Decimal
	ImageURL       *string
}

// UpdateInput carries the full replacement state for a listing.
type UpdateInput struct {
	Title          string
	Author         string
	Edition        string
	Quality        string
	Description    string
	ListingType    string
	OriginalPrice  decimal.Decimal
	GeneratedPrice decimal.Decimal
	IsAvailable    bool
	ImageURL       *string
}

// ListParams configures pagination over the available catalog.
type ListParams struct {
	Limit  int
	Cursor string
}

// ListResult wraps a catalog page and the cursor for the next one.
type ListResult struct {
	Items  []models.Book `json:"items"`
	Cursor string        `json:"cursor"`
}

// NewService wires the book catalog dependencies.
func NewService(repo Repository, notifier WishlistNotifier, log *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "books repository required")
	}
	if notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "wishlist notifier required")
	}
	if log == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{repo: repo, notifier: notifier, log: log}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Book, error) {
	if input.OwnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	listingType, err := enums.ParseListingType(input.ListingType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid listing type")
	}
	if input.OriginalPrice.IsNegative() || input.GeneratedPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}

	book := &models.Book{
		Title:          strings.TrimSpace(input.Title),
		Author:         input.Author,
		Edition:        input.Edition,
		Quality:        input.Quality,
		Description:    input.Description,
		ListingType:    listingType,
		OriginalPrice:  input.OriginalPrice,
		GeneratedPrice: input.GeneratedPrice,
		IsAvailable:    true,
		ImageURL:       input.ImageURL,
		OwnerID:        input.OwnerID,
	}
	if err := s.repo.Create(ctx, book); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create book")
	}

	s.announceAvailability(ctx, book)
	return book, nil
}

func (s *service) Update(ctx context.Context, actorID, bookID uuid.UUID, input UpdateInput) (*models.Book, error) {
	book, err := s.loadOwned(ctx, actorID, bookID)
	if err != nil {
		return nil, err
	}
	listingType, err := enums.ParseListingType(input.ListingType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid listing type")
	}
	if input.OriginalPrice.IsNegative() || input.GeneratedPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}

	becameAvailable := !book.IsAvailable && input.IsAvailable

	book.Title = input.Title
	book.Author = input.Author
	book.Edition = input.Edition
	book.Quality = input.Quality
	book.Description = input.Description
	book.ListingType = listingType
	book.OriginalPrice = input.OriginalPrice
	book.GeneratedPrice = input.GeneratedPrice
	book.IsAvailable = input.IsAvailable
	book.ImageURL = input.ImageURL

	if err := s.repo.Save(ctx, book); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update book")
	}

	if becameAvailable {
		s.announceAvailability(ctx, book)
	}
	return book, nil
}

func (s *service) Delete(ctx context.Context, actorID, bookID uuid.UUID) error {
	if _, err := s.loadOwned(ctx, actorID, bookID); err != nil {
		return err
	}
	removed, err := s.repo.Delete(ctx, bookID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete book")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "book id required")
	}
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load book")
	}
	return book, nil
}

func (s *service) ListAvailable(ctx context.Context, params ListParams) (*ListResult, error) {
	var cursor *pagination.Cursor
	if params.Cursor != "" {
		parsed, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		cursor = parsed
	}

	books, next, err := s.repo.ListAvailable(ctx, params.Limit, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list available books")
	}

	encoded := ""
	if next != nil {
		encoded = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: books, Cursor: encoded}, nil
}

func (s *service) Search(ctx context.Context, query string) ([]models.Book, error) {
	if strings.TrimSpace(query) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search query required")
	}
	books, err := s.repo.SearchAvailable(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search books")
	}
	return books, nil
}

func (s *service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Book, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}
	books, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list books by owner")
	}
	return books, nil
}

func (s *service) ListByType(ctx context.Context, listingType string) ([]models.Book, error) {
	parsed, err := enums.ParseListingType(listingType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid listing type")
	}
	books, err := s.repo.ListByType(ctx, parsed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list books by type")
	}
	return books, nil
}

func (s *service) ListRecent(ctx context.Context, limit int) ([]models.Book, error) {
	books, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recent books")
	}
	return books, nil
}

func (s *service) loadOwned(ctx context.Context, actorID, bookID uuid.UUID) (*models.Book, error) {
	if actorID == uuid.Nil || bookID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor id and book id required")
	}
	book, err := s.repo.FindByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load book")
	}
	if book.OwnerID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "book belongs to another user")
	}
	return book, nil
}

// announceAvailability tells wishlisters the book can be bought again.
// Fan-out failures are logged inside the notifier and never fail the write.
func (s *service) announceAvailability(ctx context.Context, book *models.Book) {
	_ = s.notifier.Notify(ctx, wishlist.Event{
		Book:     book,
		Category: enums.NotificationWishlist,
		Title:    "Book available",
		Message:  "A book from your wishlist is now available: " + book.Title,
	})
}
