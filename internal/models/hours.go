package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Hours records logged crew time. A row with nil Hours is a placeholder
// created at checkin; review sweeps placeholders away. Unique per
// (event, user, service).
type Hours struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key"`
	EventID    uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_hours_event_user_service"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_hours_event_user_service"`
	User       User
	CategoryID *uuid.UUID `gorm:"type:uuid"`
	Category   *Category  `gorm:"foreignKey:CategoryID"`
	ServiceID  *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_hours_event_user_service"`
	Service    *Service   `gorm:"foreignKey:ServiceID"`
	Hours      *decimal.Decimal `gorm:"type:numeric(6,2)"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (hours *Hours) BeforeCreate(tx *gorm.DB) (err error) {
	if hours.ID == uuid.Nil {
		hours.ID = uuid.New()
	}
	return
}
