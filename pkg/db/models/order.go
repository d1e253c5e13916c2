package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/campuslink/campuslink-backend/pkg/enums"
)

// Order is the delivery-tracking record created when a transaction completes,
// or directly through the buy-now path. The book set and total are a snapshot
// taken at creation time.
type Order struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID    uuid.UUID         `gorm:"column:buyer_id;type:uuid;not null;index:orders_buyer_id_idx"`
	Buyer      *User             `gorm:"foreignKey:BuyerID"`
	SellerID   uuid.UUID         `gorm:"column:seller_id;type:uuid;not null;index:orders_seller_id_idx"`
	Seller     *User             `gorm:"foreignKey:SellerID"`
	Books      []Book            `gorm:"many2many:order_books"`
	TotalPrice decimal.Decimal   `gorm:"column:total_price;type:numeric(10,2);not null"`
	Status     enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending_delivery'"`
	OrderedAt  time.Time         `gorm:"column:ordered_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
