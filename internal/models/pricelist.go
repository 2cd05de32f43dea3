package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Pricelist is a versioned table of overrides. An entry absent from the
// pricelist means the rule has zero effect for events using it.
type Pricelist struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key"`
	Name           string    `gorm:"unique;not null"`
	ServicePrices  []ServicePrice
	DiscountPrices []DiscountPrice
	FeePrices      []FeePrice
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (pricelist *Pricelist) BeforeCreate(tx *gorm.DB) (err error) {
	if pricelist.ID == uuid.Nil {
		pricelist.ID = uuid.New()
	}
	return
}

type ServicePrice struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	PricelistID uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_pricelist_service"`
	ServiceID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_pricelist_service"`
	Service     Service
	Cost        decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (sp *ServicePrice) BeforeCreate(tx *gorm.DB) (err error) {
	if sp.ID == uuid.Nil {
		sp.ID = uuid.New()
	}
	return
}

type DiscountPrice struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	PricelistID uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_pricelist_discount"`
	DiscountID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_pricelist_discount"`
	Discount    Discount
	Percent     decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (dp *DiscountPrice) BeforeCreate(tx *gorm.DB) (err error) {
	if dp.ID == uuid.Nil {
		dp.ID = uuid.New()
	}
	return
}

type FeePrice struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	PricelistID uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_pricelist_fee"`
	FeeID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_pricelist_fee"`
	Fee         Fee
	Percent     decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (fp *FeePrice) BeforeCreate(tx *gorm.DB) (err error) {
	if fp.ID == uuid.Nil {
		fp.ID = uuid.New()
	}
	return
}
