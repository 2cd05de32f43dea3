package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CrewChiefAssignment ties a crew chief to an event discipline and carries
// the setup start used by attendance checkin and the "Approved" status window.
type CrewChiefAssignment struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	EventID    uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID     uuid.UUID `gorm:"type:uuid;not null"`
	User       User
	CategoryID uuid.UUID `gorm:"type:uuid;not null"`
	Category   Category
	SetupStart time.Time `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (cc *CrewChiefAssignment) BeforeCreate(tx *gorm.DB) (err error) {
	if cc.ID == uuid.Nil {
		cc.ID = uuid.New()
	}
	return
}

// CrewAttendanceRecord tracks one checkin/checkout cycle. At most one active
// record may exist per user system-wide.
type CrewAttendanceRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index"`
	User       User
	EventID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Event      Event
	CheckinAt  time.Time `gorm:"not null"`
	CheckoutAt *time.Time
	Active     bool `gorm:"not null;default:true;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (rec *CrewAttendanceRecord) BeforeCreate(tx *gorm.DB) (err error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	return
}
