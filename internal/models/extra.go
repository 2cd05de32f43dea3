package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Extra is an add-on billed per unit. A disappeared extra is one removed from
// the current catalog; events still referencing it are frozen until the
// offending row is removed.
type Extra struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	Name        string          `gorm:"not null"`
	Cost        decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Disappeared bool            `gorm:"not null;default:false"`
	CategoryID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Category    Category
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (extra *Extra) BeforeCreate(tx *gorm.DB) (err error) {
	if extra.ID == uuid.Nil {
		extra.ID = uuid.New()
	}
	return
}
