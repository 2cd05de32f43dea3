package billing

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mwalcott/stagecrew/internal/dbutil"
	"github.com/mwalcott/stagecrew/internal/faults"
	"github.com/mwalcott/stagecrew/internal/models"
	"github.com/mwalcott/stagecrew/internal/pricing"
)

var worktagPattern = regexp.MustCompile(`^\d+-[A-Z]{2}$`)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateBilling issues a bill for one event. The amount is a snapshot of the
// pricing engine's cost total at this moment; later catalog changes do not
// touch it.
func (s *Service) CreateBilling(ctx context.Context, eventID uuid.UUID, dateBilled time.Time, worktag string) (*models.Billing, error) {
	if err := validateWorktag(worktag); err != nil {
		return nil, err
	}

	var billing *models.Billing
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, err := loadEvent(tx, eventID)
		if err != nil {
			return err
		}
		if event.Closed {
			return faults.State("event is closed")
		}
		if !event.Reviewed {
			return faults.State("event has not been reviewed")
		}

		amount, err := pricing.CostTotal(tx, eventID)
		if err != nil {
			return err
		}

		billing = &models.Billing{
			EventID:    eventID,
			Amount:     amount,
			Worktag:    worktag,
			DateBilled: dateBilled,
		}
		return tx.Create(billing).Error
	})
	if err != nil {
		return nil, err
	}
	return billing, nil
}

// CreateMultiBilling issues one aggregate bill for several events. Every
// member must resolve to the same billing organization; the check happens
// here only, not when an event's organizations change later.
func (s *Service) CreateMultiBilling(ctx context.Context, eventIDs []uuid.UUID, dateBilled time.Time, worktag string) (*models.MultiBilling, error) {
	if len(eventIDs) == 0 {
		return nil, faults.Validation("at least one event is required")
	}
	if err := validateWorktag(worktag); err != nil {
		return nil, err
	}

	var multi *models.MultiBilling
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var orgID uuid.UUID
		total := decimal.Zero
		events := make([]models.Event, 0, len(eventIDs))

		for i, id := range eventIDs {
			event, err := loadEvent(tx, id)
			if err != nil {
				return err
			}
			if event.Closed {
				return faults.State("event %q is closed", event.Title)
			}
			if !event.Reviewed {
				return faults.State("event %q has not been reviewed", event.Title)
			}

			resolved, err := resolveBillingOrg(event)
			if err != nil {
				return err
			}
			if i == 0 {
				orgID = resolved
			} else if resolved != orgID {
				return faults.Consistency("events do not share a billing organization")
			}

			amount, err := pricing.CostTotal(tx, id)
			if err != nil {
				return err
			}
			total = total.Add(amount)
			events = append(events, *event)
		}

		multi = &models.MultiBilling{
			OrgID:      orgID,
			Events:     events,
			Amount:     total,
			Worktag:    worktag,
			DateBilled: dateBilled,
		}
		if err := tx.Omit("Events.*").Create(multi).Error; err != nil {
			return err
		}
		return tx.Model(&models.Event{}).
			Where("id IN ?", eventIDs).
			Update("billed_in_bulk", true).Error
	})
	if err != nil {
		return nil, err
	}
	return multi, nil
}

// MarkPaid records payment of a billing. Paying an already-paid billing is a
// no-op; the second return reports whether anything changed.
func (s *Service) MarkPaid(ctx context.Context, billingID uuid.UUID, datePaid time.Time) (*models.Billing, bool, error) {
	var billing models.Billing
	changed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := dbutil.LockForUpdate(tx).First(&billing, "id = ?", billingID).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return faults.NotFound("billing %s not found", billingID)
			}
			return err
		}
		if billing.DatePaid != nil {
			return nil
		}
		changed = true
		billing.DatePaid = &datePaid
		return tx.Model(&billing).Update("date_paid", datePaid).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &billing, changed, nil
}

func (s *Service) MarkMultiPaid(ctx context.Context, multiID uuid.UUID, datePaid time.Time) (*models.MultiBilling, bool, error) {
	var multi models.MultiBilling
	changed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := dbutil.LockForUpdate(tx).First(&multi, "id = ?", multiID).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return faults.NotFound("multibilling %s not found", multiID)
			}
			return err
		}
		if multi.DatePaid != nil {
			return nil
		}
		changed = true
		multi.DatePaid = &datePaid
		return tx.Model(&multi).Update("date_paid", datePaid).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &multi, changed, nil
}

// Delete removes an unpaid billing whose event is still open. Paid billings
// are permanent records.
func (s *Service) Delete(ctx context.Context, billingID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var billing models.Billing
		err := dbutil.LockForUpdate(tx).First(&billing, "id = ?", billingID).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return faults.NotFound("billing %s not found", billingID)
			}
			return err
		}
		if billing.DatePaid != nil {
			return faults.State("billing has been paid and cannot be deleted")
		}
		event, err := loadEvent(tx, billing.EventID)
		if err != nil {
			return err
		}
		if event.Closed {
			return faults.State("event is closed")
		}
		return tx.Delete(&billing).Error
	})
}

func (s *Service) DeleteMulti(ctx context.Context, multiID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var multi models.MultiBilling
		err := dbutil.LockForUpdate(tx).Preload("Events").First(&multi, "id = ?", multiID).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return faults.NotFound("multibilling %s not found", multiID)
			}
			return err
		}
		if multi.DatePaid != nil {
			return faults.State("multibilling has been paid and cannot be deleted")
		}
		for _, event := range multi.Events {
			if event.Closed {
				return faults.State("event %q is closed", event.Title)
			}
		}
		return tx.Delete(&multi).Error
	})
}

// resolveBillingOrg picks the explicit billing org when set, otherwise the
// sole client. Zero or several clients with no explicit org is ambiguous.
func resolveBillingOrg(event *models.Event) (uuid.UUID, error) {
	if event.BillingOrgID != nil {
		return *event.BillingOrgID, nil
	}
	switch len(event.Clients) {
	case 1:
		return event.Clients[0].ID, nil
	case 0:
		return uuid.Nil, faults.Consistency("event %q has no billing organization", event.Title)
	default:
		return uuid.Nil, faults.Consistency("event %q has multiple clients and no billing organization", event.Title)
	}
}

func validateWorktag(worktag string) error {
	if worktag != "" && !worktagPattern.MatchString(worktag) {
		return faults.Validation("worktag %q is malformed", worktag)
	}
	return nil
}

func loadEvent(tx *gorm.DB, eventID uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := dbutil.LockForUpdate(tx).Preload("Clients").First(&event, "id = ?", eventID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, faults.NotFound("event %s not found", eventID)
		}
		return nil, err
	}
	return &event, nil
}
