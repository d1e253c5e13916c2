package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/campuslink/campuslink-backend/pkg/enums"
)

// Book is a second-hand textbook listing. IsAvailable is the single source of
// truth for whether the book can still be bought: it is flipped to false only
// by transaction completion or order creation, and back to true only by
// transaction cancellation.
type Book struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title          string            `gorm:"column:title;type:text;not null"`
	Author         string            `gorm:"column:author;type:text"`
	Edition        string            `gorm:"column:edition;type:text"`
	Quality        string            `gorm:"column:quality;type:text"`
	Description    string            `gorm:"column:description;type:text"`
	ListingType    enums.ListingType `gorm:"column:listing_type;type:text;not null;default:'sale'"`
	OriginalPrice  decimal.Decimal   `gorm:"column:original_price;type:numeric(10,2);not null"`
	GeneratedPrice decimal.Decimal   `gorm:"column:generated_price;type:numeric(10,2);not null"`
	IsAvailable    bool              `gorm:"column:is_available;not null;default:true"`
	ImageURL       *string           `gorm:"column:image_url;type:text"`
	OwnerID        uuid.UUID         `gorm:"column:owner_id;type:uuid;not null;index:books_owner_id_idx"`
	Owner          *User             `gorm:"foreignKey:OwnerID"`
	AddedAt        time.Time         `gorm:"column:added_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
