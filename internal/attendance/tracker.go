package attendance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mwalcott/stagecrew/internal/dbutil"
	"github.com/mwalcott/stagecrew/internal/faults"
	"github.com/mwalcott/stagecrew/internal/models"
)

type Tracker struct {
	db  *gorm.DB
	now func() time.Time
}

func NewTracker(db *gorm.DB) *Tracker {
	return &Tracker{db: db, now: time.Now}
}

func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// CheckIn opens an attendance record. Guards run atomically with the insert:
// the event must be open and past its earliest setup start, the crew cap must
// not be reached, and the user must not hold an active record anywhere.
func (t *Tracker) CheckIn(ctx context.Context, userID, eventID uuid.UUID) (*models.CrewAttendanceRecord, error) {
	var record *models.CrewAttendanceRecord
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, err := loadEvent(tx, eventID)
		if err != nil {
			return err
		}
		if event.Closed || event.Cancelled {
			return faults.State("event is closed or cancelled")
		}

		setupStart, ok := earliestSetupStart(event)
		now := t.now()
		if !ok || now.Before(setupStart) {
			return faults.State("event setup has not started")
		}

		var activeElsewhere int64
		err = tx.Model(&models.CrewAttendanceRecord{}).
			Where("user_id = ? AND active", userID).
			Count(&activeElsewhere).Error
		if err != nil {
			return err
		}
		if activeElsewhere > 0 {
			return faults.Capacity("user is already checked in")
		}

		if event.MaxCrew != nil {
			var activeHere int64
			err = tx.Model(&models.CrewAttendanceRecord{}).
				Where("event_id = ? AND active", eventID).
				Count(&activeHere).Error
			if err != nil {
				return err
			}
			if activeHere >= int64(*event.MaxCrew) {
				return faults.Capacity("event crew is full")
			}
		}

		record = &models.CrewAttendanceRecord{
			UserID:    userID,
			EventID:   eventID,
			CheckinAt: now,
			Active:    true,
		}
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		return ensurePlaceholder(tx, eventID, userID)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ensurePlaceholder guarantees one hours row per (event, user) so the review
// sweep and the hour-entry UI have something to hang off.
func ensurePlaceholder(tx *gorm.DB, eventID, userID uuid.UUID) error {
	var count int64
	err := tx.Model(&models.Hours{}).
		Where("event_id = ? AND user_id = ? AND service_id IS NULL AND category_id IS NULL", eventID, userID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return tx.Create(&models.Hours{EventID: eventID, UserID: userID}).Error
}

type CheckoutRequest struct {
	CheckoutAt time.Time
	// Optional checkin correction; clamped to the event's earliest setup
	// start rather than rejected.
	CheckinAt     *time.Time
	CategoryHours map[uuid.UUID]decimal.Decimal
}

type CheckoutResult struct {
	Record     *models.CrewAttendanceRecord
	TotalHours decimal.Decimal
}

// CheckOut closes the user's active record, computes elapsed time rounded
// down to the quarter hour, and reconciles any per-category hours submitted
// with it. A submitted sum of zero declines categorized logging; a nonzero
// sum that disagrees with the computed total rejects the whole checkout.
func (t *Tracker) CheckOut(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*CheckoutResult, error) {
	var result *CheckoutResult
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record models.CrewAttendanceRecord
		err := dbutil.LockForUpdate(tx).
			Where("user_id = ? AND active", userID).
			First(&record).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return faults.State("user is not checked in")
			}
			return err
		}

		event, err := loadEvent(tx, record.EventID)
		if err != nil {
			return err
		}

		checkin := record.CheckinAt
		if req.CheckinAt != nil {
			checkin = *req.CheckinAt
			if setupStart, ok := earliestSetupStart(event); ok && checkin.Before(setupStart) {
				checkin = setupStart
			}
		}

		now := t.now()
		if req.CheckoutAt.After(now) {
			return faults.Validation("checkout time is in the future")
		}
		if req.CheckoutAt.Before(checkin) {
			return faults.Validation("checkout time is before checkin")
		}

		total := quarterHours(req.CheckoutAt.Sub(checkin))

		checkout := req.CheckoutAt
		err = tx.Model(&record).Updates(map[string]interface{}{
			"active":      false,
			"checkin_at":  checkin,
			"checkout_at": checkout,
		}).Error
		if err != nil {
			return err
		}
		record.Active = false
		record.CheckinAt = checkin
		record.CheckoutAt = &checkout

		if err := reconcileHours(tx, event.ID, userID, total, req.CategoryHours); err != nil {
			return err
		}

		result = &CheckoutResult{Record: &record, TotalHours: total}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// quarterHours rounds elapsed time down to the nearest quarter hour.
func quarterHours(elapsed time.Duration) decimal.Decimal {
	quarters := int64(elapsed.Minutes()) / 15
	return decimal.NewFromInt(quarters).Div(decimal.NewFromInt(4))
}

// reconcileHours applies submitted per-category hours. An empty or all-zero
// submission leaves existing rows untouched; a sum that matches the computed
// total replaces the placeholder with per-category rows.
func reconcileHours(tx *gorm.DB, eventID, userID uuid.UUID, total decimal.Decimal, submitted map[uuid.UUID]decimal.Decimal) error {
	if len(submitted) == 0 {
		return nil
	}
	sum := decimal.Zero
	for _, h := range submitted {
		sum = sum.Add(h)
	}
	if sum.IsZero() {
		return nil
	}
	if !sum.Equal(total) {
		return faults.Validation("submitted hours total %s does not match time worked %s", sum, total)
	}

	for categoryID, hours := range submitted {
		h := hours
		var row models.Hours
		err := tx.Where("event_id = ? AND user_id = ? AND category_id = ?", eventID, userID, categoryID).
			First(&row).Error
		switch err {
		case nil:
			if err := tx.Model(&row).Update("hours", h).Error; err != nil {
				return err
			}
		case gorm.ErrRecordNotFound:
			catID := categoryID
			row = models.Hours{EventID: eventID, UserID: userID, CategoryID: &catID, Hours: &h}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		default:
			return err
		}
	}

	// The categorized rows now carry the time; the checkin placeholder is
	// redundant and would otherwise double-count.
	return tx.Where("event_id = ? AND user_id = ? AND category_id IS NULL AND service_id IS NULL AND hours IS NULL",
		eventID, userID).Delete(&models.Hours{}).Error
}

func earliestSetupStart(event *models.Event) (time.Time, bool) {
	var earliest time.Time
	found := false
	for _, cc := range event.CrewChiefs {
		if !found || cc.SetupStart.Before(earliest) {
			earliest = cc.SetupStart
			found = true
		}
	}
	return earliest, found
}

func loadEvent(tx *gorm.DB, eventID uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := dbutil.LockForUpdate(tx).Preload("CrewChiefs").First(&event, "id = ?", eventID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, faults.NotFound("event %s not found", eventID)
		}
		return nil, err
	}
	return &event, nil
}
