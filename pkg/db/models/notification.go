package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/campuslink/campuslink-backend/pkg/enums"
)

// Notification stores in-app notification payloads scoped to users.
// ReferenceID points at the book, order, or transaction that triggered it so
// clients can deep-link. Rows are only ever mutated by the mark-read paths.
type Notification struct {
	ID          uuid.UUID                  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID                  `gorm:"type:uuid;not null;index:notifications_user_id_idx"`
	Category    enums.NotificationCategory `gorm:"column:category;type:text;not null"`
	Title       string                     `gorm:"type:text;not null"`
	Message     string                     `gorm:"type:text;not null"`
	ReferenceID *uuid.UUID                 `gorm:"column:reference_id;type:uuid"`
	ReadAt      *time.Time                 `gorm:"column:read_at"`
	CreatedAt   time.Time                  `gorm:"column:created_at;autoCreateTime"`
}
