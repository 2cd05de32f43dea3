package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mwalcott/stagecrew/internal/faults"
	"github.com/mwalcott/stagecrew/internal/models"
)

// Load assembles a pricing snapshot for one event inside the given db handle
// (pass a transaction to price under a lock). All persistence stays here so
// Price itself remains pure.
func Load(db *gorm.DB, eventID uuid.UUID) (Snapshot, error) {
	var event models.Event
	err := db.
		Preload("ServiceInstances.Service.Category").
		Preload("ExtraInstances.Extra.Category").
		Preload("Rentals").
		Preload("Discounts.Categories").
		Preload("Fees.Categories").
		Preload("Pricelist.ServicePrices").
		Preload("Pricelist.DiscountPrices").
		Preload("Pricelist.FeePrices").
		First(&event, "id = ?", eventID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return Snapshot{}, faults.NotFound("event %s not found", eventID)
		}
		return Snapshot{}, err
	}
	return SnapshotOf(&event), nil
}

// SnapshotOf builds a snapshot from an event with its pricing associations
// already loaded.
func SnapshotOf(event *models.Event) Snapshot {
	snap := Snapshot{Mode: event.PricingMode}

	if event.PricingMode == models.PricingLegacy {
		snap.LegacyCosts = []*decimal.Decimal{
			event.LegacyLightingCost,
			event.LegacySoundCost,
			event.LegacyProjectionCost,
		}
		return snap
	}

	serviceOverrides := make(map[uuid.UUID]decimal.Decimal)
	discountPercents := make(map[uuid.UUID]decimal.Decimal)
	feePercents := make(map[uuid.UUID]decimal.Decimal)
	if event.Pricelist != nil {
		for _, sp := range event.Pricelist.ServicePrices {
			serviceOverrides[sp.ServiceID] = sp.Cost
		}
		for _, dp := range event.Pricelist.DiscountPrices {
			discountPercents[dp.DiscountID] = dp.Percent
		}
		for _, fp := range event.Pricelist.FeePrices {
			feePercents[fp.FeeID] = fp.Percent
		}
	}

	for _, si := range event.ServiceInstances {
		cost := si.Service.BaseCost
		if override, ok := serviceOverrides[si.ServiceID]; ok {
			cost = override
		}
		snap.Services = append(snap.Services, LineService{
			ServiceID:    si.ServiceID,
			CategoryID:   si.Service.CategoryID,
			CategoryName: si.Service.Category.Name,
			Cost:         cost,
		})
	}

	for _, ei := range event.ExtraInstances {
		snap.Extras = append(snap.Extras, LineExtra{
			ExtraID:      ei.ExtraID,
			CategoryID:   ei.Extra.CategoryID,
			CategoryName: ei.Extra.Category.Name,
			UnitCost:     ei.Extra.Cost,
			Quantity:     ei.Quantity,
		})
	}

	for _, rental := range event.Rentals {
		snap.Rentals = append(snap.Rentals, LineRental{
			Name:       rental.Name,
			UnitCost:   rental.UnitCost,
			Quantity:   rental.Quantity,
			FeeApplied: rental.RentalFeeApplied,
		})
	}

	for _, discount := range event.Discounts {
		rule := Rule{ID: discount.ID, Name: discount.Name}
		if pct, ok := discountPercents[discount.ID]; ok {
			p := pct
			rule.Percent = &p
		}
		for _, cat := range discount.Categories {
			rule.CategoryIDs = append(rule.CategoryIDs, cat.ID)
		}
		snap.Discounts = append(snap.Discounts, rule)
	}

	for _, fee := range event.Fees {
		rule := Rule{ID: fee.ID, Name: fee.Name}
		if pct, ok := feePercents[fee.ID]; ok {
			p := pct
			rule.Percent = &p
		}
		for _, cat := range fee.Categories {
			rule.CategoryIDs = append(rule.CategoryIDs, cat.ID)
		}
		snap.Fees = append(snap.Fees, rule)
	}

	return snap
}

// CostTotal is a convenience for callers that only need the bottom line.
func CostTotal(db *gorm.DB, eventID uuid.UUID) (decimal.Decimal, error) {
	snap, err := Load(db, eventID)
	if err != nil {
		return decimal.Zero, err
	}
	return Price(snap).CostTotal, nil
}
