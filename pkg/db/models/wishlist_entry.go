package models

import (
	"time"

	"github.com/google/uuid"
)

// WishlistEntry registers a user's interest in a book. It is purely advisory:
// it never locks the book, it only makes the user eligible for
// availability-change notifications.
type WishlistEntry struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID  uuid.UUID `gorm:"column:user_id;type:uuid;not null;index:wishlist_entries_user_id_idx;uniqueIndex:wishlist_entries_user_book_key"`
	BookID  uuid.UUID `gorm:"column:book_id;type:uuid;not null;index:wishlist_entries_book_id_idx;uniqueIndex:wishlist_entries_user_book_key"`
	Book    *Book     `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE"`
	AddedAt time.Time `gorm:"column:added_at;autoCreateTime"`
}
