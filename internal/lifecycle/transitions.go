package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mwalcott/stagecrew/internal/dbutil"
	"github.com/mwalcott/stagecrew/internal/faults"
	"github.com/mwalcott/stagecrew/internal/models"
)

// Notifier receives post-commit transition announcements (email, Slack, PDF
// regeneration live behind this). Failures are logged, never propagated back
// into the transition.
type Notifier interface {
	EventTransitioned(ctx context.Context, event *models.Event, action Action, actor *models.User) error
}

type Service struct {
	db        *gorm.DB
	auth      Authorizer
	log       *zap.Logger
	notifiers []Notifier
	now       func() time.Time
}

func NewService(db *gorm.DB, auth Authorizer, log *zap.Logger, notifiers ...Notifier) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		db:        db,
		auth:      auth,
		log:       log,
		notifiers: notifiers,
		now:       time.Now,
	}
}

// WithClock overrides the transition clock; tests use it to pin timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Status derives the event's display status from a consistent read of its
// flags and billing rows.
func (s *Service) Status(ctx context.Context, eventID uuid.UUID) (string, error) {
	db := s.db.WithContext(ctx)
	event, err := loadEvent(db, eventID)
	if err != nil {
		return "", err
	}
	snap, err := SnapshotOf(db, event, s.now())
	if err != nil {
		return "", err
	}
	return Status(snap), nil
}

func (s *Service) Approve(ctx context.Context, eventID uuid.UUID, actor *models.User) (*models.Event, error) {
	event, err := s.transition(ctx, eventID, actor, ActionApprove, func(tx *gorm.DB, event *models.Event) error {
		if event.Closed {
			return faults.State("event is closed")
		}
		if event.Approved {
			return faults.State("event is already approved")
		}
		now := s.now()
		err := tx.Model(event).Updates(map[string]interface{}{
			"approved":       true,
			"approved_at":    now,
			"approved_by_id": actor.ID,
		}).Error
		if err != nil {
			return err
		}
		return s.enrollContact(tx, event)
	})
	return event, err
}

// enrollContact adds the event contact to the sole client organization when
// the event has exactly one and the contact is not yet a member.
func (s *Service) enrollContact(tx *gorm.DB, event *models.Event) error {
	if len(event.Clients) != 1 || event.ContactID == nil {
		return nil
	}
	org := event.Clients[0]
	var count int64
	err := tx.Table("organization_members").
		Where("organization_id = ? AND user_id = ?", org.ID, *event.ContactID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return tx.Model(&org).Association("Members").Append(&models.User{ID: *event.ContactID})
}

func (s *Service) Deny(ctx context.Context, eventID uuid.UUID, actor *models.User, reason string) (*models.Event, error) {
	return s.transition(ctx, eventID, actor, ActionDeny, func(tx *gorm.DB, event *models.Event) error {
		if event.Closed {
			return faults.State("event is closed")
		}
		if event.Cancelled {
			return faults.State("event is already cancelled")
		}
		now := s.now()
		// Denial cancels and closes in one step.
		return tx.Model(event).Updates(map[string]interface{}{
			"cancelled":        true,
			"cancelled_at":     now,
			"cancelled_by_id":  actor.ID,
			"cancelled_reason": reason,
			"closed":           true,
			"closed_at":        now,
			"closed_by_id":     actor.ID,
		}).Error
	})
}

func (s *Service) Review(ctx context.Context, eventID uuid.UUID, actor *models.User) (*models.Event, error) {
	return s.transition(ctx, eventID, actor, ActionReview, func(tx *gorm.DB, event *models.Event) error {
		if event.Closed {
			return faults.State("event is closed")
		}
		if !event.Approved {
			return faults.State("event has not been approved")
		}
		if event.Reviewed {
			return faults.State("event is already reviewed")
		}
		now := s.now()
		err := tx.Model(event).Updates(map[string]interface{}{
			"reviewed":       true,
			"reviewed_at":    now,
			"reviewed_by_id": actor.ID,
		}).Error
		if err != nil {
			return err
		}
		// Abandoned hour placeholders never survive review.
		err = tx.Where("event_id = ? AND hours IS NULL", event.ID).
			Delete(&models.Hours{}).Error
		if err != nil {
			return err
		}
		return tx.Model(&models.CrewAttendanceRecord{}).
			Where("event_id = ? AND active", event.ID).
			Update("active", false).Error
	})
}

func (s *Service) Close(ctx context.Context, eventID uuid.UUID, actor *models.User) (*models.Event, error) {
	return s.transition(ctx, eventID, actor, ActionClose, func(tx *gorm.DB, event *models.Event) error {
		if event.Closed {
			return faults.State("event is already closed")
		}
		return tx.Model(event).Updates(map[string]interface{}{
			"closed":       true,
			"closed_at":    s.now(),
			"closed_by_id": actor.ID,
		}).Error
	})
}

// Reopen clears the closed flag only; approved, reviewed, and cancelled are
// left as they were.
func (s *Service) Reopen(ctx context.Context, eventID uuid.UUID, actor *models.User) (*models.Event, error) {
	return s.transition(ctx, eventID, actor, ActionReopen, func(tx *gorm.DB, event *models.Event) error {
		if !event.Closed {
			return faults.State("event is not closed")
		}
		return tx.Model(event).Updates(map[string]interface{}{
			"closed":       false,
			"closed_at":    nil,
			"closed_by_id": nil,
		}).Error
	})
}

// Cancel marks the event cancelled without closing it, unlike Deny.
func (s *Service) Cancel(ctx context.Context, eventID uuid.UUID, actor *models.User) (*models.Event, error) {
	return s.transition(ctx, eventID, actor, ActionCancel, func(tx *gorm.DB, event *models.Event) error {
		if event.Closed {
			return faults.State("event is closed")
		}
		return tx.Model(event).Updates(map[string]interface{}{
			"cancelled":       true,
			"cancelled_at":    s.now(),
			"cancelled_by_id": actor.ID,
		}).Error
	})
}

// transition runs one guarded mutation as a single transaction: the event row
// is re-read under a lock, every guard is validated before any flag changes,
// and notifiers fire only after a successful commit.
func (s *Service) transition(ctx context.Context, eventID uuid.UUID, actor *models.User, action Action, apply func(tx *gorm.DB, event *models.Event) error) (*models.Event, error) {
	var event *models.Event
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		event, err = loadEvent(dbutil.LockForUpdate(tx), eventID)
		if err != nil {
			return err
		}
		if !s.auth.Can(actor, action, event) {
			return faults.Forbidden("not permitted to %s this event", action)
		}
		return apply(tx, event)
	})
	if err != nil {
		return nil, err
	}

	// Re-read after commit so callers and notifiers see the applied flags.
	event, err = loadEvent(s.db.WithContext(ctx), eventID)
	if err != nil {
		return nil, err
	}

	for _, n := range s.notifiers {
		if nerr := n.EventTransitioned(ctx, event, action, actor); nerr != nil {
			s.log.Warn("transition notifier failed",
				zap.String("action", string(action)),
				zap.String("event_id", event.ID.String()),
				zap.Error(nerr))
		}
	}
	return event, nil
}

func loadEvent(db *gorm.DB, eventID uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := db.Preload("Clients").First(&event, "id = ?", eventID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, faults.NotFound("event %s not found", eventID)
		}
		return nil, err
	}
	return &event, nil
}
