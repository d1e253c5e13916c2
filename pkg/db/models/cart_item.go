package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem links a user to a book they intend to buy. The (user, book) pair
// is unique, and a user never holds a cart item for a book they own.
type CartItem struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID  uuid.UUID `gorm:"column:user_id;type:uuid;not null;index:cart_items_user_id_idx;uniqueIndex:cart_items_user_book_key"`
	BookID  uuid.UUID `gorm:"column:book_id;type:uuid;not null;index:cart_items_book_id_idx;uniqueIndex:cart_items_user_book_key"`
	Book    *Book     `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE"`
	AddedAt time.Time `gorm:"column:added_at;autoCreateTime"`
}
