package cart

import (
	"context"
	"errors"

	"github.com/campuslink/campuslink-backend/pkg/db/models"
	pkgerrors "github.com/campuslink/campuslink-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookFinder is the read surface the cart needs from the book catalog.
type BookFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
}

// Service defines cart operations for a single user.
type Service interface {
	Add(ctx context.Context, userID, bookID uuid.UUID) (*models.CartItem, error)
	Remove(ctx context.Context, userID, bookID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo  Repository
	books BookFinder
}

// NewService wires cart dependencies.
func NewService(repo Repository, books BookFinder) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart repository required")
	}
	if books == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "book finder required")
	}
	return &service{repo: repo, books: books}, nil
}

func (s *service) Add(ctx context.Context, userID, bookID uuid.UUID) (*models.CartItem, error) {
	if userID == uuid.Nil || bookID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and book id required")
	}

	exists, err := s.repo.Exists(ctx, userID, bookID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check cart item")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "book already in cart")
	}

	book, err := s.books.FindByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load book")
	}
	if book.OwnerID == userID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot add your own book to cart")
	}
	if !book.IsAvailable {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "book is no longer available")
	}

	item := &models.CartItem{UserID: userID, BookID: bookID}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
	}
	item.Book = book
	return item, nil
}

func (s *service) Remove(ctx context.Context, userID, bookID uuid.UUID) error {
	if userID == uuid.Nil || bookID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id and book id required")
	}
	removed, err := s.repo.DeleteByUserAndBook(ctx, userID, bookID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart")
	}
	return items, nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if _, err := s.repo.DeleteByUser(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}
