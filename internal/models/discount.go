package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Discount applies to an event only when every one of its categories has a
// service instance present (combo semantics). The percent lives on the
// event's pricelist, not here.
type Discount struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key"`
	Name       string     `gorm:"unique;not null"`
	Categories []Category `gorm:"many2many:discount_categories;"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (discount *Discount) BeforeCreate(tx *gorm.DB) (err error) {
	if discount.ID == uuid.Nil {
		discount.ID = uuid.New()
	}
	return
}

// Fee is the surcharge counterpart of Discount. Unlike a discount it applies
// when any of its categories has a service instance present.
type Fee struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key"`
	Name       string     `gorm:"unique;not null"`
	Categories []Category `gorm:"many2many:fee_categories;"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (fee *Fee) BeforeCreate(tx *gorm.DB) (err error) {
	if fee.ID == uuid.Nil {
		fee.ID = uuid.New()
	}
	return
}
