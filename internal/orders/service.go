package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/campuslink/campuslink-backend/internal/books"
	"github.com/campuslink/campuslink-backend/internal/cart"
	"github.com/campuslink/campuslink-backend/internal/notifications"
	"github.com/campuslink/campuslink-backend/internal/wishlist"
	"github.com/campuslink/campuslink-backend/pkg/db/models"
	"github.com/campuslink/campuslink-backend/pkg/enums"
	pkgerrors "github.com/campuslink/campuslink-backend/pkg/errors"
	"github.com/campuslink/campuslink-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TxRunner executes fn inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// WishlistNotifier fans availability events out to wishlisters.
type WishlistNotifier interface {
	Notify(ctx context.Context, event wishlist.Event) error
}

// Service defines order materialization and delivery tracking.
type Service interface {
	// Materialize turns a transaction snapshot into an order inside the
	// caller's database transaction. It claims each book's availability
	// individually and reports which claims this order won.
	Materialize(ctx context.Context, tx *gorm.DB, txn *models.Transaction) (*MaterializeResult, error)
	BuyNow(ctx context.Context, buyerID, bookID uuid.UUID) (*models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Order, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*models.Order, error)
	MarkDelivered(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

// MaterializeResult reports the created order and the books whose
// availability flip this order won.
type MaterializeResult struct {
	Order          *models.Order
	ClaimedBookIDs []uuid.UUID
}

type service struct {
	txRunner TxRunner
	repo     Repository
	books    books.Repository
	carts    cart.Repository
	notifier notifications.Service
	wishlist WishlistNotifier
	log      *logger.Logger
}

// NewService wires order dependencies.
func NewService(txRunner TxRunner, repo Repository, bookRepo books.Repository, cartRepo cart.Repository, notifier notifications.Service, wishlistNotifier WishlistNotifier, log *logger.Logger) (Service, error) {
	switch {
	case txRunner == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "tx runner required")
	case repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository required")
	case bookRepo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "books repository required")
	case cartRepo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart repository required")
	case notifier == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications service required")
	case wishlistNotifier == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "wishlist notifier required")
	case log == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		txRunner: txRunner,
		repo:     repo,
		books:    bookRepo,
		carts:    cartRepo,
		notifier: notifier,
		wishlist: wishlistNotifier,
		log:      log,
	}, nil
}

func (s *service) Materialize(ctx context.Context, tx *gorm.DB, txn *models.Transaction) (*MaterializeResult, error) {
	if txn == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction required")
	}
	if len(txn.Books) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction has no books")
	}

	order := &models.Order{
		BuyerID:    txn.BuyerID,
		SellerID:   txn.SellerID,
		Books:      txn.Books,
		TotalPrice: txn.TotalPrice,
		Status:     enums.OrderStatusPendingDelivery,
	}
	if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	bookRepo := s.books.WithTx(tx)
	bookIDs := make([]uuid.UUID, 0, len(txn.Books))
	claimed := make([]uuid.UUID, 0, len(txn.Books))
	for _, book := range txn.Books {
		bookIDs = append(bookIDs, book.ID)
		won, err := bookRepo.MarkUnavailableIfAvailable(ctx, book.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("claim book %s", book.ID))
		}
		if won {
			claimed = append(claimed, book.ID)
		}
	}

	if _, err := s.carts.WithTx(tx).DeleteByBooks(ctx, bookIDs); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge sold books from carts")
	}

	return &MaterializeResult{Order: order, ClaimedBookIDs: claimed}, nil
}

func (s *service) BuyNow(ctx context.Context, buyerID, bookID uuid.UUID) (*models.Order, error) {
	if buyerID == uuid.Nil || bookID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id and book id required")
	}

	book, err := s.books.FindByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load book")
	}
	if book.OwnerID == buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot buy your own book")
	}

	var order *models.Order
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		won, err := s.books.WithTx(tx).MarkUnavailableIfAvailable(ctx, bookID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim book")
		}
		if !won {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "book is no longer available")
		}

		order = &models.Order{
			BuyerID:    buyerID,
			SellerID:   book.OwnerID,
			Books:      []models.Book{*book},
			TotalPrice: book.GeneratedPrice,
			Status:     enums.OrderStatusPendingDelivery,
		}
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if _, err := s.carts.WithTx(tx).DeleteByBooks(ctx, []uuid.UUID{bookID}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge sold book from carts")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = s.wishlist.Notify(ctx, wishlist.Event{
		Book:     book,
		Category: enums.NotificationWishlistSold,
		Title:    "Book sold",
		Message:  fmt.Sprintf("The book %q has been sold and is no longer available.", book.Title),
		Exclude:  []uuid.UUID{buyerID},
	})
	s.notifyParties(ctx, order, "Order created", fmt.Sprintf("Order %s is awaiting delivery.", order.ID))

	return order, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Order, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	orders, err := s.repo.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list buyer orders")
	}
	return orders, nil
}

func (s *service) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Order, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	orders, err := s.repo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list seller orders")
	}
	return orders, nil
}

func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, next))
	}

	result, err := s.repo.UpdateStatusIf(ctx, orderID, order.Status, next)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if !result.Found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if !result.Updated {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
	}
	order.Status = next

	s.notifyParties(ctx, order, "Order update", fmt.Sprintf("Order %s is now %s.", order.ID, next))
	return order, nil
}

func (s *service) MarkDelivered(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.UpdateStatus(ctx, orderID, enums.OrderStatusDelivered)
}

// notifyParties tells buyer and seller about an order event. Delivery is best
// effort and never fails the order write.
func (s *service) notifyParties(ctx context.Context, order *models.Order, title, message string) {
	orderID := order.ID
	for _, userID := range []uuid.UUID{order.BuyerID, order.SellerID} {
		err := s.notifier.Dispatch(ctx, nil, notifications.DispatchInput{
			UserID:      userID,
			Category:    enums.NotificationOrder,
			Title:       title,
			Message:     message,
			ReferenceID: &orderID,
		})
		if err != nil {
			s.log.Error(s.log.WithUserID(ctx, userID.String()), "order notification failed", err)
		}
	}
}
