package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mwalcott/stagecrew/internal/models"
)

// Projection services are excluded from every discount base by policy, even
// when Projection is one of the discount's categories.
const projectionCategory = "Projection"

// LineService is a service instance with its cost already resolved against
// the event's pricelist (override if present, base cost otherwise).
type LineService struct {
	ServiceID    uuid.UUID
	CategoryID   uuid.UUID
	CategoryName string
	Cost         decimal.Decimal
}

type LineExtra struct {
	ExtraID      uuid.UUID
	CategoryID   uuid.UUID
	CategoryName string
	UnitCost     decimal.Decimal
	Quantity     int
}

type LineRental struct {
	Name       string
	UnitCost   decimal.Decimal
	Quantity   int
	FeeApplied bool
}

// Rule is an applied discount or fee. Percent is nil when the event's
// pricelist carries no entry for the rule, in which case it contributes zero
// regardless of category eligibility.
type Rule struct {
	ID          uuid.UUID
	Name        string
	Percent     *decimal.Decimal
	CategoryIDs []uuid.UUID
}

// Snapshot is one consistent in-memory read of everything that prices an
// event. Building it is the loader's job; pricing it is pure.
type Snapshot struct {
	Mode      models.PricingMode
	Services  []LineService
	Extras    []LineExtra
	Rentals   []LineRental
	Discounts []Rule
	Fees      []Rule

	// Legacy-mode fixed costs; nil entries contribute nothing.
	LegacyCosts []*decimal.Decimal
}

type Quote struct {
	ServicesTotal  decimal.Decimal
	ExtrasTotal    decimal.Decimal
	RentalsTotal   decimal.Decimal
	FeesTotal      decimal.Decimal
	DiscountTotal  decimal.Decimal
	CostTotal      decimal.Decimal
	FeeValues      map[uuid.UUID]decimal.Decimal
	DiscountValues map[uuid.UUID]decimal.Decimal
}

// Price computes the itemized cost of a snapshot. Percent values round to two
// places, half away from zero, after applying to their base.
func Price(snap Snapshot) Quote {
	if snap.Mode == models.PricingLegacy {
		return priceLegacy(snap)
	}

	q := Quote{
		FeeValues:      make(map[uuid.UUID]decimal.Decimal),
		DiscountValues: make(map[uuid.UUID]decimal.Decimal),
	}

	for _, svc := range snap.Services {
		q.ServicesTotal = q.ServicesTotal.Add(svc.Cost)
	}
	for _, extra := range snap.Extras {
		q.ExtrasTotal = q.ExtrasTotal.Add(extra.UnitCost.Mul(decimal.NewFromInt(int64(extra.Quantity))))
	}

	var rentalFeeBase decimal.Decimal
	for _, rental := range snap.Rentals {
		cost := rental.UnitCost.Mul(decimal.NewFromInt(int64(rental.Quantity)))
		q.RentalsTotal = q.RentalsTotal.Add(cost)
		if rental.FeeApplied {
			rentalFeeBase = rentalFeeBase.Add(cost)
		}
	}

	for _, fee := range snap.Fees {
		value := feeValue(snap, fee, rentalFeeBase)
		q.FeeValues[fee.ID] = value
		q.FeesTotal = q.FeesTotal.Add(value)
	}

	for _, discount := range snap.Discounts {
		value := discountValue(snap, discount)
		q.DiscountValues[discount.ID] = value
		q.DiscountTotal = q.DiscountTotal.Add(value)
	}

	q.CostTotal = q.ServicesTotal.
		Add(q.ExtrasTotal).
		Add(q.RentalsTotal).
		Add(q.FeesTotal).
		Sub(q.DiscountTotal)
	return q
}

// feeValue applies when at least one service instance falls in any of the
// fee's categories and a pricelist percent exists. The base is the resolved
// cost of matching services plus fee-applied rentals.
func feeValue(snap Snapshot, fee Rule, rentalFeeBase decimal.Decimal) decimal.Decimal {
	if fee.Percent == nil {
		return decimal.Zero
	}
	cats := idSet(fee.CategoryIDs)
	base := decimal.Zero
	matched := false
	for _, svc := range snap.Services {
		if cats[svc.CategoryID] {
			matched = true
			base = base.Add(svc.Cost)
		}
	}
	if !matched {
		return decimal.Zero
	}
	base = base.Add(rentalFeeBase)
	return base.Mul(*fee.Percent).Div(decimal.NewFromInt(100)).Round(2)
}

// discountValue enforces combo semantics: every category of the discount must
// have a service instance present, or the discount contributes nothing.
func discountValue(snap Snapshot, discount Rule) decimal.Decimal {
	if discount.Percent == nil {
		return decimal.Zero
	}
	cats := idSet(discount.CategoryIDs)
	present := make(map[uuid.UUID]bool, len(cats))
	for _, svc := range snap.Services {
		if cats[svc.CategoryID] {
			present[svc.CategoryID] = true
		}
	}
	if len(present) != len(cats) {
		return decimal.Zero
	}

	base := decimal.Zero
	for _, svc := range snap.Services {
		if cats[svc.CategoryID] && svc.CategoryName != projectionCategory {
			base = base.Add(svc.Cost)
		}
	}
	for _, extra := range snap.Extras {
		if cats[extra.CategoryID] && extra.CategoryName != projectionCategory {
			base = base.Add(extra.UnitCost.Mul(decimal.NewFromInt(int64(extra.Quantity))))
		}
	}
	return base.Mul(*discount.Percent).Div(decimal.NewFromInt(100)).Round(2)
}

func priceLegacy(snap Snapshot) Quote {
	q := Quote{
		FeeValues:      make(map[uuid.UUID]decimal.Decimal),
		DiscountValues: make(map[uuid.UUID]decimal.Decimal),
	}
	for _, cost := range snap.LegacyCosts {
		if cost != nil {
			q.ServicesTotal = q.ServicesTotal.Add(*cost)
		}
	}
	q.CostTotal = q.ServicesTotal
	return q
}

func idSet(ids []uuid.UUID) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
