package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/campuslink/campuslink-backend/pkg/enums"
)

// Transaction is a provisional, seller-scoped grouping of a buyer's cart.
// Every book in Books has the same owner as SellerID, and TotalPrice is the
// sum of each book's generated price at creation time; it is never recomputed.
type Transaction struct {
	ID         uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID    uuid.UUID               `gorm:"column:buyer_id;type:uuid;not null;index:transactions_buyer_id_idx"`
	Buyer      *User                   `gorm:"foreignKey:BuyerID"`
	SellerID   uuid.UUID               `gorm:"column:seller_id;type:uuid;not null;index:transactions_seller_id_idx"`
	Seller     *User                   `gorm:"foreignKey:SellerID"`
	Books      []Book                  `gorm:"many2many:transaction_books"`
	TotalPrice decimal.Decimal         `gorm:"column:total_price;type:numeric(10,2);not null"`
	Status     enums.TransactionStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	CreatedAt  time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
