package wishlist

import (
	"context"
	"fmt"

	"github.com/campuslink/campuslink-backend/internal/notifications"
	"github.com/campuslink/campuslink-backend/pkg/db/models"
	"github.com/campuslink/campuslink-backend/pkg/enums"
	pkgerrors "github.com/campuslink/campuslink-backend/pkg/errors"
	"github.com/campuslink/campuslink-backend/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// Notifier fans availability events out to every user who wishlisted a book.
// Delivery is best effort: one failed recipient never blocks the others, and
// the aggregate error is surfaced for logging only.
type Notifier struct {
	repo     Repository
	notifier notifications.Service
	log      *logger.Logger
}

// NewNotifier wires the fan-out dependencies.
func NewNotifier(repo Repository, svc notifications.Service, log *logger.Logger) (*Notifier, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "wishlist repository required")
	}
	if svc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications service required")
	}
	if log == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &Notifier{repo: repo, notifier: svc, log: log}, nil
}

// Event describes one availability change to announce.
type Event struct {
	Book     *models.Book
	Category enums.NotificationCategory
	Title    string
	Message  string
	// Exclude drops recipients who already learn about the change another
	// way, typically the buyer and the seller.
	Exclude []uuid.UUID
}

// Notify dispatches the event to every wishlister of the book. Failed
// deliveries are collected and logged; the aggregate is returned so callers
// that care can inspect it, but it is safe to discard.
func (n *Notifier) Notify(ctx context.Context, event Event) error {
	if event.Book == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "event book required")
	}

	userIDs, err := n.repo.ListUserIDsByBook(ctx, event.Book.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlisters")
	}

	excluded := make(map[uuid.UUID]struct{}, len(event.Exclude)+1)
	excluded[event.Book.OwnerID] = struct{}{}
	for _, id := range event.Exclude {
		excluded[id] = struct{}{}
	}

	var delivery error
	for _, userID := range userIDs {
		if _, skip := excluded[userID]; skip {
			continue
		}
		bookID := event.Book.ID
		err := n.notifier.Dispatch(ctx, nil, notifications.DispatchInput{
			UserID:      userID,
			Category:    event.Category,
			Title:       event.Title,
			Message:     event.Message,
			ReferenceID: &bookID,
		})
		if err != nil {
			delivery = multierr.Append(delivery, fmt.Errorf("notify user %s: %w", userID, err))
		}
	}

	if delivery != nil {
		n.log.Error(n.log.WithBookID(ctx, event.Book.ID.String()), "wishlist fan-out partially failed", delivery)
	}
	return delivery
}
