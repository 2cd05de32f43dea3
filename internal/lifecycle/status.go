package lifecycle

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwalcott/stagecrew/internal/models"
)

const (
	StatusCancelled        = "Cancelled"
	StatusClosed           = "Closed"
	StatusApproved         = "Approved"
	StatusAwaitingApproval = "Awaiting Approval"
	StatusAwaitingReview   = "Awaiting Review"
	StatusPaid             = "Paid"
	StatusAwaitingPayment  = "Awaiting Payment"
	StatusToBeBilled       = "To Be Billed"
)

// StatusSnapshot is one consistent read of the inputs to status derivation:
// the four flags, the setup window, and the event's billing state.
type StatusSnapshot struct {
	Approved        bool
	Reviewed        bool
	Closed          bool
	Cancelled       bool
	SetupCompleteAt time.Time
	Now             time.Time
	AnyPaid         bool
	AnyBilled       bool
}

// Status derives the display status. Precedence is fixed: cancelled beats
// closed beats the approval/review ladder beats the billing states.
func Status(snap StatusSnapshot) string {
	switch {
	case snap.Cancelled:
		return StatusCancelled
	case snap.Closed:
		return StatusClosed
	case snap.Approved && snap.Now.Before(snap.SetupCompleteAt) && !snap.Reviewed:
		return StatusApproved
	case !snap.Approved:
		return StatusAwaitingApproval
	case !snap.Reviewed:
		return StatusAwaitingReview
	case snap.AnyPaid:
		return StatusPaid
	case snap.AnyBilled:
		return StatusAwaitingPayment
	default:
		return StatusToBeBilled
	}
}

// SnapshotOf reads the billing rows needed to derive an event's status. Paid
// means any billing or multibilling has a paid date; billed means any has
// been issued at all.
func SnapshotOf(db *gorm.DB, event *models.Event, now time.Time) (StatusSnapshot, error) {
	snap := StatusSnapshot{
		Approved:        event.Approved,
		Reviewed:        event.Reviewed,
		Closed:          event.Closed,
		Cancelled:       event.Cancelled,
		SetupCompleteAt: event.SetupCompleteAt,
		Now:             now,
	}

	var billings []models.Billing
	if err := db.Where("event_id = ?", event.ID).Find(&billings).Error; err != nil {
		return snap, err
	}
	for _, b := range billings {
		snap.AnyBilled = true
		if b.DatePaid != nil {
			snap.AnyPaid = true
		}
	}

	var multiIDs []uuid.UUID
	err := db.Table("multibilling_events").
		Where("event_id = ?", event.ID).
		Pluck("multi_billing_id", &multiIDs).Error
	if err != nil {
		return snap, err
	}
	if len(multiIDs) > 0 {
		var multis []models.MultiBilling
		if err := db.Where("id IN ?", multiIDs).Find(&multis).Error; err != nil {
			return snap, err
		}
		for _, mb := range multis {
			snap.AnyBilled = true
			if mb.DatePaid != nil {
				snap.AnyPaid = true
			}
		}
	}

	return snap, nil
}
