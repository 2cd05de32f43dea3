package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Billing is a frozen snapshot of an event's cost at the time it was issued.
// It is never re-derived when catalog data changes.
type Billing struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key"`
	EventID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Event      Event
	Amount     decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Worktag    string
	DateBilled time.Time `gorm:"not null"`
	DatePaid   *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (billing *Billing) BeforeCreate(tx *gorm.DB) (err error) {
	if billing.ID == uuid.Nil {
		billing.ID = uuid.New()
	}
	return
}

// MultiBilling aggregates several events billed to one organization.
type MultiBilling struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrgID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Org        Organization    `gorm:"foreignKey:OrgID"`
	Events     []Event         `gorm:"many2many:multibilling_events;"`
	Amount     decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Worktag    string
	DateBilled time.Time `gorm:"not null"`
	DatePaid   *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (mb *MultiBilling) BeforeCreate(tx *gorm.DB) (err error) {
	if mb.ID == uuid.Nil {
		mb.ID = uuid.New()
	}
	return
}
