package composition

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mwalcott/stagecrew/internal/dbutil"
	"github.com/mwalcott/stagecrew/internal/faults"
	"github.com/mwalcott/stagecrew/internal/models"
)

// Service mutates an event's priced composition (service instances, extras,
// rentals, applied discounts and fees) under the lifecycle's mutation rules:
// closed events are immutable, and an event referencing a disappeared extra
// has its extras frozen until the stale row is removed.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) AddService(ctx context.Context, eventID, serviceID uuid.UUID, detail string) (*models.ServiceInstance, error) {
	var instance *models.ServiceInstance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := guardOpen(tx, eventID); err != nil {
			return err
		}
		var service models.Service
		if err := tx.First(&service, "id = ?", serviceID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return faults.NotFound("service %s not found", serviceID)
			}
			return err
		}
		instance = &models.ServiceInstance{EventID: eventID, ServiceID: serviceID, Detail: detail}
		return tx.Create(instance).Error
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

func (s *Service) RemoveService(ctx context.Context, eventID, instanceID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := guardOpen(tx, eventID); err != nil {
			return err
		}
		result := tx.Where("id = ? AND event_id = ?", instanceID, eventID).
			Delete(&models.ServiceInstance{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return faults.NotFound("service instance %s not found", instanceID)
		}
		return nil
	})
}

func (s *Service) AddExtra(ctx context.Context, eventID, extraID uuid.UUID, quantity int) (*models.ExtraInstance, error) {
	if quantity < 0 {
		return nil, faults.Validation("quantity cannot be negative")
	}
	var instance *models.ExtraInstance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := guardOpen(tx, eventID); err != nil {
			return err
		}
		if err := guardExtrasNotFrozen(tx, eventID); err != nil {
			return err
		}
		var extra models.Extra
		if err := tx.First(&extra, "id = ?", extraID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return faults.NotFound("extra %s not found", extraID)
			}
			return err
		}
		if extra.Disappeared {
			return faults.Validation("extra %q is no longer in the catalog", extra.Name)
		}
		instance = &models.ExtraInstance{EventID: eventID, ExtraID: extraID, Quantity: quantity}
		return tx.Create(instance).Error
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

func (s *Service) UpdateExtraQuantity(ctx context.Context, eventID, instanceID uuid.UUID, quantity int) error {
	if quantity < 0 {
		return faults.Validation("quantity cannot be negative")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := guardOpen(tx, eventID); err != nil {
			return err
		}
		if err := guardExtrasNotFrozen(tx, eventID); err != nil {
			return err
		}
		result := tx.Model(&models.ExtraInstance{}).
			Where("id = ? AND event_id = ?", instanceID, eventID).
			Update("quantity", quantity)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return faults.NotFound("extra instance %s not found", instanceID)
		}
		return nil
	})
}

// RemoveExtra is allowed even while the event's extras are frozen; deleting
// the stale row is how the freeze is lifted.
func (s *Service) RemoveExtra(ctx context.Context, eventID, instanceID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := guardOpen(tx, eventID); err != nil {
			return err
		}
		result := tx.Where("id = ? AND event_id = ?", instanceID, eventID).
			Delete(&models.ExtraInstance{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return faults.NotFound("extra instance %s not found", instanceID)
		}
		return nil
	})
}

func (s *Service) AddRental(ctx context.Context, eventID uuid.UUID, name string, unitCost decimal.Decimal, quantity int, feeApplied bool) (*models.Rental, error) {
	if name == "" {
		return nil, faults.Validation("rental name is required")
	}
	if quantity < 0 {
		return nil, faults.Validation("quantity cannot be negative")
	}
	var rental *models.Rental
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := guardOpen(tx, eventID); err != nil {
			return err
		}
		rental = &models.Rental{
			EventID:          eventID,
			Name:             name,
			UnitCost:         unitCost,
			Quantity:         quantity,
			RentalFeeApplied: feeApplied,
		}
		return tx.Create(rental).Error
	})
	if err != nil {
		return nil, err
	}
	return rental, nil
}

func (s *Service) RemoveRental(ctx context.Context, eventID, rentalID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := guardOpen(tx, eventID); err != nil {
			return err
		}
		result := tx.Where("id = ? AND event_id = ?", rentalID, eventID).
			Delete(&models.Rental{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return faults.NotFound("rental %s not found", rentalID)
		}
		return nil
	})
}

func (s *Service) SetDiscounts(ctx context.Context, eventID uuid.UUID, discountIDs []uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := guardOpen(tx, eventID); err != nil {
			return err
		}
		discounts := make([]models.Discount, 0, len(discountIDs))
		for _, id := range discountIDs {
			var discount models.Discount
			if err := tx.First(&discount, "id = ?", id).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return faults.NotFound("discount %s not found", id)
				}
				return err
			}
			discounts = append(discounts, discount)
		}
		return tx.Model(&models.Event{ID: eventID}).Association("Discounts").Replace(discounts)
	})
}

func (s *Service) SetFees(ctx context.Context, eventID uuid.UUID, feeIDs []uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := guardOpen(tx, eventID); err != nil {
			return err
		}
		fees := make([]models.Fee, 0, len(feeIDs))
		for _, id := range feeIDs {
			var fee models.Fee
			if err := tx.First(&fee, "id = ?", id).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return faults.NotFound("fee %s not found", id)
				}
				return err
			}
			fees = append(fees, fee)
		}
		return tx.Model(&models.Event{ID: eventID}).Association("Fees").Replace(fees)
	})
}

func guardOpen(tx *gorm.DB, eventID uuid.UUID) error {
	var event models.Event
	err := dbutil.LockForUpdate(tx).First(&event, "id = ?", eventID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return faults.NotFound("event %s not found", eventID)
		}
		return err
	}
	if event.Closed {
		return faults.State("event is closed")
	}
	return nil
}

func guardExtrasNotFrozen(tx *gorm.DB, eventID uuid.UUID) error {
	var count int64
	err := tx.Model(&models.ExtraInstance{}).
		Joins("JOIN extras ON extras.id = extra_instances.extra_id").
		Where("extra_instances.event_id = ? AND extras.disappeared", eventID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return faults.State("event references a discontinued extra; remove it before changing extras")
	}
	return nil
}
