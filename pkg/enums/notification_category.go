package enums

import "fmt"

// NotificationCategory tags in-app notifications for client-side routing.
type NotificationCategory string

const (
	// NotificationWishlist fires when a wishlisted book is newly listed or
	// becomes available through an edit.
	NotificationWishlist NotificationCategory = "WISHLIST"
	// NotificationWishlistTransactionStarted fires when a pending transaction
	// references a wishlisted book.
	NotificationWishlistTransactionStarted NotificationCategory = "WISHLIST_TRANSACTION_STARTED"
	// NotificationWishlistSold fires when a wishlisted book is sold.
	NotificationWishlistSold NotificationCategory = "WISHLIST_SOLD"
	// NotificationWishlistAvailable fires when a cancellation frees a
	// wishlisted book again.
	NotificationWishlistAvailable NotificationCategory = "WISHLIST_AVAILABLE"
	// NotificationOrder fires on order status changes, to buyer and seller.
	NotificationOrder NotificationCategory = "ORDER"
	// NotificationMessage is reserved for direct user-to-user messages.
	NotificationMessage NotificationCategory = "MESSAGE"
)

var validNotificationCategories = []NotificationCategory{
	NotificationWishlist,
	NotificationWishlistTransactionStarted,
	NotificationWishlistSold,
	NotificationWishlistAvailable,
	NotificationOrder,
	NotificationMessage,
}

// String implements fmt.Stringer.
func (c NotificationCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known NotificationCategory.
func (c NotificationCategory) IsValid() bool {
	for _, candidate := range validNotificationCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseNotificationCategory converts raw input into a NotificationCategory.
func ParseNotificationCategory(value string) (NotificationCategory, error) {
	for _, candidate := range validNotificationCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification category %q", value)
}
