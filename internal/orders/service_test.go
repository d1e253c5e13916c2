package orders

import (
	"context"
	"io"
	"testing"

	"github.com/campuslink/campuslink-backend/internal/books"
	"github.com/campuslink/campuslink-backend/internal/cart"
	"github.com/campuslink/campuslink-backend/internal/notifications"
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

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeOrdersRepo struct {
	created        []*models.Order
	findFn         func(ctx context.Context, id uuid.UUID) (*models.Order, error)
	updateStatusFn func(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (statusUpdateResult, error)
}

func (f *fakeOrdersRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeOrdersRepo) Create(ctx context.Context, order *models.Order) error {
	order.ID = uuid.New()
	f.created = append(f.created, order)
	return nil
}

func (f *fakeOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if f.findFn != nil {
		return f.findFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrdersRepo) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Order, error) {
	return nil, nil
}

func (f *fakeOrdersRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Order, error) {
	return nil, nil
}

func (f *fakeOrdersRepo) UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (statusUpdateResult, error) {
	if f.updateStatusFn != nil {
		return f.updateStatusFn(ctx, id, from, to)
	}
	return statusUpdateResult{Updated: true, Found: true}, nil
}

type fakeBooksRepo struct {
	books map[uuid.UUID]*models.Book
}

func newFakeBooksRepo(seed ...*models.Book) *fakeBooksRepo {
	repo := &fakeBooksRepo{books: make(map[uuid.UUID]*models.Book)}
	for _, book := range seed {
		repo.books[book.ID] = book
	}
	return repo
}

func (f *fakeBooksRepo) WithTx(tx *gorm.DB) books.Repository { return f }

func (f *fakeBooksRepo) Create(ctx context.Context, book *models.Book) error { return nil }
func (f *fakeBooksRepo) Save(ctx context.Context, book *models.Book) error   { return nil }
func (f *fakeBooksRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	return false, nil
}

func (f *fakeBooksRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	book, ok := f.books[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *book
	return &copied, nil
}

func (f *fakeBooksRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Book, error) {
	return nil, nil
}

func (f *fakeBooksRepo) ListAvailable(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Book, *pagination.Cursor, error) {
	return nil, nil, nil
}

func (f *fakeBooksRepo) SearchAvailable(ctx context.Context, query string) ([]models.Book, error) {
	return nil, nil
}

func (f *fakeBooksRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Book, error) {
	return nil, nil
}

func (f *fakeBooksRepo) ListByType(ctx context.Context, listingType enums.ListingType) ([]models.Book, error) {
	return nil, nil
}

func (f *fakeBooksRepo) ListRecent(ctx context.Context, limit int) ([]models.Book, error) {
	return nil, nil
}

func (f *fakeBooksRepo) MarkUnavailableIfAvailable(ctx context.Context, id uuid.UUID) (bool, error) {
	book, ok := f.books[id]
	if !ok || !book.IsAvailable {
		return false, nil
	}
	book.IsAvailable = false
	return true, nil
}

func (f *fakeBooksRepo) MarkAvailableIfUnsold(ctx context.Context, id uuid.UUID) (bool, error) {
	book, ok := f.books[id]
	if !ok || book.IsAvailable {
		return false, nil
	}
	book.IsAvailable = true
	return true, nil
}

type fakeCartRepo struct {
	purged [][]uuid.UUID
}

func (f *fakeCartRepo) WithTx(tx *gorm.DB) cart.Repository { return f }

func (f *fakeCartRepo) Create(ctx context.Context, item *models.CartItem) error { return nil }

func (f *fakeCartRepo) Exists(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	return false, nil
}

func (f *fakeCartRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	return nil, nil
}

func (f *fakeCartRepo) DeleteByUserAndBook(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	return false, nil
}

func (f *fakeCartRepo) DeleteByBooks(ctx context.Context, bookIDs []uuid.UUID) (int64, error) {
	f.purged = append(f.purged, bookIDs)
	return int64(len(bookIDs)), nil
}

func (f *fakeCartRepo) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

type fakeDispatcher struct {
	inputs []notifications.DispatchInput
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, tx *gorm.DB, input notifications.DispatchInput) error {
	f.inputs = append(f.inputs, input)
	return nil
}

func (f *fakeDispatcher) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	return nil, nil
}

func (f *fakeDispatcher) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func (f *fakeDispatcher) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return nil
}

func (f *fakeDispatcher) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

type fakeWishlistNotifier struct {
	events []wishlist.Event
}

func (f *fakeWishlistNotifier) Notify(ctx context.Context, event wishlist.Event) error {
	f.events = append(f.events, event)
	return nil
}

type testDeps struct {
	repo      *fakeOrdersRepo
	books     *fakeBooksRepo
	carts     *fakeCartRepo
	notifier  *fakeDispatcher
	wishlists *fakeWishlistNotifier
}

func newTestService(t *testing.T, deps testDeps) Service {
	t.Helper()
	if deps.repo == nil {
		deps.repo = &fakeOrdersRepo{}
	}
	if deps.books == nil {
		deps.books = newFakeBooksRepo()
	}
	if deps.carts == nil {
		deps.carts = &fakeCartRepo{}
	}
	if deps.notifier == nil {
		deps.notifier = &fakeDispatcher{}
	}
	if deps.wishlists == nil {
		deps.wishlists = &fakeWishlistNotifier{}
	}
	log := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(fakeTxRunner{}, deps.repo, deps.books, deps.carts, deps.notifier, deps.wishlists, log)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func availableBook(owner uuid.UUID, price int64) *models.Book {
	return &models.Book{
		ID:             uuid.New(),
		Title:          "Book",
		OwnerID:        owner,
		GeneratedPrice: decimal.NewFromInt(price),
		IsAvailable:    true,
	}
}

func TestService_MaterializePartialClaims(t *testing.T) {
	seller := uuid.New()
	claimable := availableBook(seller, 100)
	alreadySold := availableBook(seller, 200)
	alreadySold.IsAvailable = false

	deps := testDeps{
		books: newFakeBooksRepo(claimable, alreadySold),
		carts: &fakeCartRepo{},
		repo:  &fakeOrdersRepo{},
	}
	svc := newTestService(t, deps)

	txn := &models.Transaction{
		ID:         uuid.New(),
		BuyerID:    uuid.New(),
		SellerID:   seller,
		Books:      []models.Book{*claimable, *alreadySold},
		TotalPrice: decimal.NewFromInt(300),
	}
	result, err := svc.Materialize(context.Background(), nil, txn)
	if err != nil {
		t.Fatalf("unexpected materialize error: %v", err)
	}

	if len(result.ClaimedBookIDs) != 1 || result.ClaimedBookIDs[0] != claimable.ID {
		t.Fatalf("expected only the available book to be claimed, got %v", result.ClaimedBookIDs)
	}
	if len(result.Order.Books) != 2 {
		t.Fatalf("order must snapshot all transaction books, got %d", len(result.Order.Books))
	}
	if !result.Order.TotalPrice.Equal(txn.TotalPrice) {
		t.Fatalf("order total %s must match transaction total %s", result.Order.TotalPrice, txn.TotalPrice)
	}
	if len(deps.carts.purged) != 1 || len(deps.carts.purged[0]) != 2 {
		t.Fatalf("expected both books purged from carts, got %v", deps.carts.purged)
	}
}

func TestService_BuyNowClaimsBook(t *testing.T) {
	seller := uuid.New()
	buyer := uuid.New()
	book := availableBook(seller, 450)

	deps := testDeps{
		books:     newFakeBooksRepo(book),
		notifier:  &fakeDispatcher{},
		wishlists: &fakeWishlistNotifier{},
	}
	svc := newTestService(t, deps)

	order, err := svc.BuyNow(context.Background(), buyer, book.ID)
	if err != nil {
		t.Fatalf("unexpected buy now error: %v", err)
	}
	if !order.TotalPrice.Equal(decimal.NewFromInt(450)) {
		t.Fatalf("expected total 450, got %s", order.TotalPrice)
	}
	if deps.books.books[book.ID].IsAvailable {
		t.Fatal("book must be unavailable after buy now")
	}
	if len(deps.wishlists.events) != 1 || deps.wishlists.events[0].Category != enums.NotificationWishlistSold {
		t.Fatalf("expected sold fan-out, got %+v", deps.wishlists.events)
	}
	if len(deps.notifier.inputs) != 2 {
		t.Fatalf("expected buyer and seller order notifications, got %d", len(deps.notifier.inputs))
	}
}

func TestService_BuyNowLosesRace(t *testing.T) {
	book := availableBook(uuid.New(), 100)
	book.IsAvailable = false

	deps := testDeps{books: newFakeBooksRepo(book), repo: &fakeOrdersRepo{}}
	svc := newTestService(t, deps)

	_, err := svc.BuyNow(context.Background(), uuid.New(), book.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(deps.repo.created) != 0 {
		t.Fatal("no order must be created when the claim is lost")
	}
}

func TestService_BuyNowRejectsOwnBook(t *testing.T) {
	owner := uuid.New()
	book := availableBook(owner, 100)
	svc := newTestService(t, testDeps{books: newFakeBooksRepo(book)})

	_, err := svc.BuyNow(context.Background(), owner, book.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_UpdateStatusRejectsTerminal(t *testing.T) {
	orderID := uuid.New()
	repo := &fakeOrdersRepo{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
			return &models.Order{ID: orderID, Status: enums.OrderStatusDelivered}, nil
		},
	}
	svc := newTestService(t, testDeps{repo: repo})

	_, err := svc.UpdateStatus(context.Background(), orderID, enums.OrderStatusDelivered)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestService_UpdateStatusConcurrentLoser(t *testing.T) {
	orderID := uuid.New()
	repo := &fakeOrdersRepo{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
			return &models.Order{ID: orderID, Status: enums.OrderStatusPendingDelivery}, nil
		},
		updateStatusFn: func(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (statusUpdateResult, error) {
			return statusUpdateResult{Found: true, Updated: false}, nil
		},
	}
	svc := newTestService(t, testDeps{repo: repo})

	_, err := svc.UpdateStatus(context.Background(), orderID, enums.OrderStatusDelivered)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestService_MarkDeliveredNotifiesParties(t *testing.T) {
	orderID := uuid.New()
	buyer := uuid.New()
	seller := uuid.New()
	repo := &fakeOrdersRepo{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
			return &models.Order{
				ID:       orderID,
				BuyerID:  buyer,
				SellerID: seller,
				Status:   enums.OrderStatusPendingDelivery,
			}, nil
		},
	}
	notifier := &fakeDispatcher{}
	svc := newTestService(t, testDeps{repo: repo, notifier: notifier})

	order, err := svc.MarkDelivered(context.Background(), orderID)
	if err != nil {
		t.Fatalf("unexpected mark delivered error: %v", err)
	}
	if order.Status != enums.OrderStatusDelivered {
		t.Fatalf("expected delivered status, got %s", order.Status)
	}
	if len(notifier.inputs) != 2 {
		t.Fatalf("expected 2 order notifications, got %d", len(notifier.inputs))
	}
	for _, input := range notifier.inputs {
		if input.Category != enums.NotificationOrder {
			t.Fatalf("expected order category, got %s", input.Category)
		}
	}
}
