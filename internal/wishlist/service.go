package wishlist

import (
	"context"
	"errors"

	"github.com/campuslink/campuslink-backend/pkg/db/models"
	pkgerrors "github.com/campuslink/campuslink-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookFinder is the read surface the wishlist needs from the book catalog.
type BookFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
}

// Service defines wishlist operations for a single user.
type Service interface {
	Add(ctx context.Context, userID, bookID uuid.UUID) (*models.WishlistEntry, error)
	Remove(ctx context.Context, userID, bookID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]models.WishlistEntry, error)
	Contains(ctx context.Context, userID, bookID uuid.UUID) (bool, error)
}

type service struct {
	repo  Repository
	books BookFinder
}

// NewService wires wishlist dependencies.
func NewService(repo Repository, books BookFinder) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "wishlist repository required")
	}
	if books == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "book finder required")
	}
	return &service{repo: repo, books: books}, nil
}

func (s *service) Add(ctx context.Context, userID, bookID uuid.UUID) (*models.WishlistEntry, error) {
	if userID == uuid.Nil || bookID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and book id required")
	}

	book, err := s.books.FindByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load book")
	}
	if book.OwnerID == userID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot wishlist your own book")
	}

	exists, err := s.repo.Exists(ctx, userID, bookID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check wishlist entry")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "book already wishlisted")
	}

	entry := &models.WishlistEntry{UserID: userID, BookID: bookID}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create wishlist entry")
	}
	entry.Book = book
	return entry, nil
}

func (s *service) Remove(ctx context.Context, userID, bookID uuid.UUID) error {
	if userID == uuid.Nil || bookID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id and book id required")
	}
	removed, err := s.repo.Delete(ctx, userID, bookID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete wishlist entry")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "wishlist entry not found")
	}
	return nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.WishlistEntry, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	entries, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist")
	}
	return entries, nil
}

func (s *service) Contains(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	if userID == uuid.Nil || bookID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "user id and book id required")
	}
	exists, err := s.repo.Exists(ctx, userID, bookID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check wishlist entry")
	}
	return exists, nil
}
