package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PricingMode string

const (
	PricingCatalog PricingMode = "catalog"
	PricingLegacy  PricingMode = "legacy"
)

type Event struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	Title       string    `gorm:"not null"`
	Description string
	Location    string
	StartTime   time.Time `gorm:"not null"`
	EndTime     time.Time `gorm:"not null"`

	// End of the setup window; while an approved, unreviewed event is still
	// before this point its derived status reads "Approved".
	SetupCompleteAt time.Time

	Approved     bool `gorm:"not null;default:false"`
	ApprovedAt   *time.Time
	ApprovedBy   *User      `gorm:"foreignKey:ApprovedByID"`
	ApprovedByID *uuid.UUID `gorm:"type:uuid"`

	Reviewed     bool `gorm:"not null;default:false"`
	ReviewedAt   *time.Time
	ReviewedBy   *User      `gorm:"foreignKey:ReviewedByID"`
	ReviewedByID *uuid.UUID `gorm:"type:uuid"`

	Closed     bool `gorm:"not null;default:false"`
	ClosedAt   *time.Time
	ClosedBy   *User      `gorm:"foreignKey:ClosedByID"`
	ClosedByID *uuid.UUID `gorm:"type:uuid"`

	Cancelled     bool `gorm:"not null;default:false"`
	CancelledAt   *time.Time
	CancelledBy   *User      `gorm:"foreignKey:CancelledByID"`
	CancelledByID *uuid.UUID `gorm:"type:uuid"`

	CancelledReason string

	BilledInBulk bool `gorm:"not null;default:false"`
	MaxCrew      *int

	PricingMode PricingMode `gorm:"not null;default:'catalog'"`

	// Legacy-mode events carry fixed per-discipline prices instead of
	// catalog selections.
	LegacyLightingCost   *decimal.Decimal `gorm:"type:numeric(10,2)"`
	LegacySoundCost      *decimal.Decimal `gorm:"type:numeric(10,2)"`
	LegacyProjectionCost *decimal.Decimal `gorm:"type:numeric(10,2)"`

	SubmittedByID *uuid.UUID `gorm:"type:uuid"`
	SubmittedBy   *User      `gorm:"foreignKey:SubmittedByID"`
	ContactID     *uuid.UUID `gorm:"type:uuid"`
	Contact       *User      `gorm:"foreignKey:ContactID"`

	Clients      []Organization `gorm:"many2many:event_clients;"`
	BillingOrgID *uuid.UUID     `gorm:"type:uuid"`
	BillingOrg   *Organization  `gorm:"foreignKey:BillingOrgID"`

	PricelistID *uuid.UUID `gorm:"type:uuid"`
	Pricelist   *Pricelist `gorm:"foreignKey:PricelistID"`

	ServiceInstances []ServiceInstance
	ExtraInstances   []ExtraInstance
	Rentals          []Rental
	Discounts        []Discount `gorm:"many2many:event_discounts;"`
	Fees             []Fee      `gorm:"many2many:event_fees;"`

	Billings      []Billing
	MultiBillings []MultiBilling        `gorm:"many2many:multibilling_events;"`
	CrewChiefs    []CrewChiefAssignment

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (event *Event) BeforeCreate(tx *gorm.DB) (err error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return
}

type ServiceInstance struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	EventID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ServiceID uuid.UUID `gorm:"type:uuid;not null"`
	Service   Service
	Detail    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (si *ServiceInstance) BeforeCreate(tx *gorm.DB) (err error) {
	if si.ID == uuid.Nil {
		si.ID = uuid.New()
	}
	return
}

type ExtraInstance struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	EventID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ExtraID   uuid.UUID `gorm:"type:uuid;not null"`
	Extra     Extra
	Quantity  int `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ei *ExtraInstance) BeforeCreate(tx *gorm.DB) (err error) {
	if ei.ID == uuid.Nil {
		ei.ID = uuid.New()
	}
	return
}

type Rental struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key"`
	EventID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name             string          `gorm:"not null"`
	UnitCost         decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Quantity         int             `gorm:"not null"`
	RentalFeeApplied bool            `gorm:"not null;default:false"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (rental *Rental) BeforeCreate(tx *gorm.DB) (err error) {
	if rental.ID == uuid.Nil {
		rental.ID = uuid.New()
	}
	return
}
