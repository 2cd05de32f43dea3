package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Service struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	Name        string          `gorm:"not null"`
	Description string
	BaseCost    decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	CategoryID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Category    Category
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (service *Service) BeforeCreate(tx *gorm.DB) (err error) {
	if service.ID == uuid.Nil {
		service.ID = uuid.New()
	}
	return
}
