package transactions

import (
	"context"
	"errors"
	"fmt"

	"github.com/campuslink/campuslink-backend/internal/books"
	"github.com/campuslink/campuslink-backend/internal/cart"
	"github.com/campuslink/campuslink-backend/internal/orders"
	"github.com/campuslink/campuslink-backend/internal/wishlist"
	"github.com/campuslink/campuslink-backend/pkg/db/models"
	"github.com/campuslink/campuslink-backend/pkg/enums"
	pkgerrors "github.com/campuslink/campuslink-backend/pkg/errors"
	"github.com/campuslink/campuslink-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TxRunner executes fn inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// OrderMaterializer turns a transaction snapshot into an order.
type OrderMaterializer interface {
	Materialize(ctx context.Context, tx *gorm.DB, txn *models.Transaction) (*orders.MaterializeResult, error)
}

// WishlistNotifier fans availability events out to wishlisters.
type WishlistNotifier interface {
	Notify(ctx context.Context, event wishlist.Event) error
}

// Service drives the checkout lifecycle: grouping a cart into per-seller
// pending transactions, then completing or cancelling each one exactly once.
type Service interface {
	Create(ctx context.Context, buyerID uuid.UUID) ([]models.Transaction, error)
	Complete(ctx context.Context, transactionID uuid.UUID) (*CompleteResult, error)
	Cancel(ctx context.Context, transactionID uuid.UUID) (*models.Transaction, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Transaction, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Transaction, error)
}

// CompleteResult pairs the completed transaction with its materialized order.
type CompleteResult struct {
	Transaction *models.Transaction
	Order       *models.Order
}

type service struct {
	txRunner TxRunner
	repo     Repository
	carts    cart.Repository
	books    books.Repository
	orders   OrderMaterializer
	wishlist WishlistNotifier
	log      *logger.Logger
}

// NewService wires transaction dependencies.
func NewService(txRunner TxRunner, repo Repository, cartRepo cart.Repository, bookRepo books.Repository, materializer OrderMaterializer, wishlistNotifier WishlistNotifier, log *logger.Logger) (Service, error) {
	switch {
	case txRunner == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "tx runner required")
	case repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transactions repository required")
	case cartRepo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart repository required")
	case bookRepo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "books repository required")
	case materializer == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order materializer required")
	case wishlistNotifier == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "wishlist notifier required")
	case log == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		txRunner: txRunner,
		repo:     repo,
		carts:    cartRepo,
		books:    bookRepo,
		orders:   materializer,
		wishlist: wishlistNotifier,
		log:      log,
	}, nil
}

// Create groups the buyer's cart by seller and opens one pending transaction
// per seller. The cart itself is left untouched until a transaction completes.
func (s *service) Create(ctx context.Context, buyerID uuid.UUID) ([]models.Transaction, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}

	items, err := s.carts.ListByUser(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	// Group in first-seen seller order so output is deterministic.
	sellerOrder := make([]uuid.UUID, 0)
	grouped := make(map[uuid.UUID][]models.Book)
	for _, item := range items {
		if item.Book == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart item missing book")
		}
		sellerID := item.Book.OwnerID
		if _, seen := grouped[sellerID]; !seen {
			sellerOrder = append(sellerOrder, sellerID)
		}
		grouped[sellerID] = append(grouped[sellerID], *item.Book)
	}

	created := make([]models.Transaction, 0, len(sellerOrder))
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, sellerID := range sellerOrder {
			group := grouped[sellerID]
			total := decimal.Zero
			for _, book := range group {
				total = total.Add(book.GeneratedPrice)
			}

			txn := &models.Transaction{
				BuyerID:    buyerID,
				SellerID:   sellerID,
				Books:      group,
				TotalPrice: total,
				Status:     enums.TransactionStatusPending,
			}
			if err := repo.Create(ctx, txn); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create transaction")
			}
			created = append(created, *txn)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range created {
		for j := range created[i].Books {
			book := created[i].Books[j]
			_ = s.wishlist.Notify(ctx, wishlist.Event{
				Book:     &book,
				Category: enums.NotificationWishlistTransactionStarted,
				Title:    "Transaction started",
				Message:  fmt.Sprintf("A transaction has been started for %q. It may become unavailable.", book.Title),
				Exclude:  []uuid.UUID{buyerID},
			})
		}
	}

	return created, nil
}

// Complete moves a pending transaction to completed and materializes its
// order. The status flip and the order write share one database transaction;
// fan-out happens after commit.
func (s *service) Complete(ctx context.Context, transactionID uuid.UUID) (*CompleteResult, error) {
	txn, err := s.loadPending(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	var materialized *orders.MaterializeResult
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		result, err := s.repo.WithTx(tx).UpdateStatusIf(ctx, transactionID, enums.TransactionStatusPending, enums.TransactionStatusCompleted)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete transaction")
		}
		if !result.Found {
			return pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		if !result.Updated {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "transaction is no longer pending")
		}

		materialized, err = s.orders.Materialize(ctx, tx, txn)
		return err
	})
	if err != nil {
		return nil, err
	}
	txn.Status = enums.TransactionStatusCompleted

	claimed := make(map[uuid.UUID]struct{}, len(materialized.ClaimedBookIDs))
	for _, id := range materialized.ClaimedBookIDs {
		claimed[id] = struct{}{}
	}
	for i := range txn.Books {
		book := txn.Books[i]
		if _, won := claimed[book.ID]; !won {
			continue
		}
		_ = s.wishlist.Notify(ctx, wishlist.Event{
			Book:     &book,
			Category: enums.NotificationWishlistSold,
			Title:    "Book sold",
			Message:  fmt.Sprintf("The book %q has been sold and is no longer available.", book.Title),
			Exclude:  []uuid.UUID{txn.BuyerID},
		})
	}

	return &CompleteResult{Transaction: txn, Order: materialized.Order}, nil
}

// Cancel moves a pending transaction to cancelled and restores availability
// for every book no completed checkout has claimed in the meantime.
func (s *service) Cancel(ctx context.Context, transactionID uuid.UUID) (*models.Transaction, error) {
	txn, err := s.loadPending(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	restored := make([]uuid.UUID, 0, len(txn.Books))
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		result, err := s.repo.WithTx(tx).UpdateStatusIf(ctx, transactionID, enums.TransactionStatusPending, enums.TransactionStatusCancelled)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel transaction")
		}
		if !result.Found {
			return pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		if !result.Updated {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "transaction is no longer pending")
		}

		bookRepo := s.books.WithTx(tx)
		for _, book := range txn.Books {
			won, err := bookRepo.MarkAvailableIfUnsold(ctx, book.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("restore book %s", book.ID))
			}
			if won {
				restored = append(restored, book.ID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	txn.Status = enums.TransactionStatusCancelled

	restoredSet := make(map[uuid.UUID]struct{}, len(restored))
	for _, id := range restored {
		restoredSet[id] = struct{}{}
	}
	for i := range txn.Books {
		book := txn.Books[i]
		if _, ok := restoredSet[book.ID]; !ok {
			continue
		}
		_ = s.wishlist.Notify(ctx, wishlist.Event{
			Book:     &book,
			Category: enums.NotificationWishlistAvailable,
			Title:    "Book available",
			Message:  fmt.Sprintf("The book %q is available again.", book.Title),
			Exclude:  []uuid.UUID{txn.BuyerID},
		})
	}

	return txn, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}
	txn, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}
	return txn, nil
}

func (s *service) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Transaction, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	txns, err := s.repo.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list buyer transactions")
	}
	return txns, nil
}

func (s *service) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Transaction, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	txns, err := s.repo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list seller transactions")
	}
	return txns, nil
}

// loadPending fetches the transaction and rejects terminal states up front.
// The conditional status update inside the write transaction remains the
// authoritative guard.
func (s *service) loadPending(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	txn, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if txn.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("transaction already %s", txn.Status))
	}
	return txn, nil
}
