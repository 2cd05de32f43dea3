package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mwalcott/stagecrew/internal/faults"
	"github.com/mwalcott/stagecrew/internal/models"
	"github.com/mwalcott/stagecrew/internal/testdb"
)

var transitionClock = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return transitionClock }

func newTestService(db *gorm.DB, notifiers ...Notifier) *Service {
	return NewService(db, AllowAll{}, nil, notifiers...).WithClock(fixedClock)
}

func seedUser(t *testing.T, db *gorm.DB, roleName string) *models.User {
	t.Helper()
	role := models.Role{Name: roleName}
	require.NoError(t, db.Where("name = ?", roleName).FirstOrCreate(&role).Error)
	user := models.User{
		Name:     roleName + " user",
		Email:    roleName + "@example.com",
		Password: "hashed",
		RoleID:   role.ID,
		Role:     role,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func seedEvent(t *testing.T, db *gorm.DB, mutate ...func(*models.Event)) *models.Event {
	t.Helper()
	event := models.Event{
		Title:           "Homecoming Dance",
		StartTime:       transitionClock.Add(24 * time.Hour),
		EndTime:         transitionClock.Add(28 * time.Hour),
		SetupCompleteAt: transitionClock.Add(23 * time.Hour),
		PricingMode:     models.PricingCatalog,
	}
	for _, m := range mutate {
		m(&event)
	}
	require.NoError(t, db.Create(&event).Error)
	return &event
}

func TestApproveSetsFlags(t *testing.T) {
	db := testdb.Open(t)
	actor := seedUser(t, db, "officer")
	event := seedEvent(t, db)

	got, err := newTestService(db).Approve(context.Background(), event.ID, actor)
	require.NoError(t, err)

	assert.True(t, got.Approved)
	require.NotNil(t, got.ApprovedAt)
	assert.True(t, got.ApprovedAt.Equal(transitionClock))
	require.NotNil(t, got.ApprovedByID)
	assert.Equal(t, actor.ID, *got.ApprovedByID)
}

func TestApproveTwiceIsRejected(t *testing.T) {
	db := testdb.Open(t)
	actor := seedUser(t, db, "officer")
	event := seedEvent(t, db)
	svc := newTestService(db)

	_, err := svc.Approve(context.Background(), event.ID, actor)
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), event.ID, actor)
	assert.True(t, faults.Is(err, faults.KindState), "got %v", err)
}

func TestApproveClosedEventIsRejected(t *testing.T) {
	db := testdb.Open(t)
	actor := seedUser(t, db, "officer")
	event := seedEvent(t, db, func(e *models.Event) { e.Closed = true })

	_, err := newTestService(db).Approve(context.Background(), event.ID, actor)
	assert.True(t, faults.Is(err, faults.KindState), "got %v", err)
}

func TestApproveEnrollsContactInSoleClientOrg(t *testing.T) {
	db := testdb.Open(t)
	actor := seedUser(t, db, "officer")
	contact := seedUser(t, db, "client")

	org := models.Organization{Name: "A Cappella Society"}
	require.NoError(t, db.Create(&org).Error)

	event := seedEvent(t, db, func(e *models.Event) {
		e.ContactID = &contact.ID
		e.Clients = []models.Organization{org}
	})

	_, err := newTestService(db).Approve(context.Background(), event.ID, actor)
	require.NoError(t, err)

	var count int64
	err = db.Table("organization_members").
		Where("organization_id = ? AND user_id = ?", org.ID, contact.ID).
		Count(&count).Error
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	// Approving again after an un-approve must not duplicate the membership.
	require.NoError(t, db.Model(&models.Event{ID: event.ID}).Update("approved", false).Error)
	_, err = newTestService(db).Approve(context.Background(), event.ID, actor)
	require.NoError(t, err)
	err = db.Table("organization_members").
		Where("organization_id = ? AND user_id = ?", org.ID, contact.ID).
		Count(&count).Error
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestDenyCancelsAndCloses(t *testing.T) {
	db := testdb.Open(t)
	actor := seedUser(t, db, "officer")
	event := seedEvent(t, db)

	got, err := newTestService(db).Deny(context.Background(), event.ID, actor, "double booked")
	require.NoError(t, err)

	assert.True(t, got.Cancelled)
	assert.True(t, got.Closed)
	assert.Equal(t, "double booked", got.CancelledReason)
	require.NotNil(t, got.CancelledByID)
	assert.Equal(t, actor.ID, *got.CancelledByID)
}

func TestDenyCancelledEventIsRejected(t *testing.T) {
	db := testdb.Open(t)
	actor := seedUser(t, db, "officer")
	event := seedEvent(t, db, func(e *models.Event) { e.Cancelled = true })

	_, err := newTestService(db).Deny(context.Background(), event.ID, actor, "again")
	assert.True(t, faults.Is(err, faults.KindState), "got %v", err)
}

func TestReviewSweepsPlaceholdersAndAttendance(t *testing.T) {
	db := testdb.Open(t)
	actor := seedUser(t, db, "officer")
	crew := seedUser(t, db, "crew")
	event := seedEvent(t, db, func(e *models.Event) { e.Approved = true })

	category := models.Category{Name: "Lighting"}
	require.NoError(t, db.Create(&category).Error)

	logged := decimal.NewFromInt(4)
	placeholder := models.Hours{EventID: event.ID, UserID: crew.ID}
	categorized := models.Hours{EventID: event.ID, UserID: actor.ID, CategoryID: &category.ID, Hours: &logged}
	require.NoError(t, db.Create(&placeholder).Error)
	require.NoError(t, db.Create(&categorized).Error)

	record := models.CrewAttendanceRecord{
		UserID:    crew.ID,
		EventID:   event.ID,
		CheckinAt: transitionClock.Add(-2 * time.Hour),
		Active:    true,
	}
	require.NoError(t, db.Create(&record).Error)

	got, err := newTestService(db).Review(context.Background(), event.ID, actor)
	require.NoError(t, err)
	assert.True(t, got.Reviewed)

	var remaining []models.Hours
	require.NoError(t, db.Where("event_id = ?", event.ID).Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, categorized.ID, remaining[0].ID)

	var reloaded models.CrewAttendanceRecord
	require.NoError(t, db.First(&reloaded, "id = ?", record.ID).Error)
	assert.False(t, reloaded.Active)
}

func TestReviewTwiceIsRejected(t *testing.T) {
	db := testdb.Open(t)
	actor := seedUser(t, db, "officer")
	event := seedEvent(t, db, func(e *models.Event) {
		e.Approved = true
		e.Reviewed = true
	})

	_, err := newTestService(db).Review(context.Background(), event.ID, actor)
	assert.True(t, faults.Is(err, faults.KindState), "got %v", err)
}

func TestReviewRequiresApproval(t *testing.T) {
	db := testdb.Open(t)
	actor := seedUser(t, db, "officer")
	event := seedEvent(t, db)

	_, err := newTestService(db).Review(context.Background(), event.ID, actor)
	assert.True(t, faults.Is(err, faults.KindState), "got %v", err)

	var loaded models.Event
	require.NoError(t, db.First(&loaded, "id = ?", event.ID).Error)
	assert.False(t, loaded.Reviewed, "a reviewed event must always be approved")
}

func TestCloseAndReopen(t *testing.T) {
	db := testdb.Open(t)
	actor := seedUser(t, db, "officer")
	event := seedEvent(t, db)
	svc := newTestService(db)

	got, err := svc.Close(context.Background(), event.ID, actor)
	require.NoError(t, err)
	assert.True(t, got.Closed)
	require.NotNil(t, got.ClosedAt)

	_, err = svc.Close(context.Background(), event.ID, actor)
	assert.True(t, faults.Is(err, faults.KindState), "got %v", err)

	got, err = svc.Reopen(context.Background(), event.ID, actor)
	require.NoError(t, err)
	assert.False(t, got.Closed)
	assert.Nil(t, got.ClosedAt)
	assert.Nil(t, got.ClosedByID)
}

func TestReopenOpenEventIsRejected(t *testing.T) {
	db := testdb.Open(t)
	actor := seedUser(t, db, "officer")
	event := seedEvent(t, db)

	_, err := newTestService(db).Reopen(context.Background(), event.ID, actor)
	assert.True(t, faults.Is(err, faults.KindState), "got %v", err)
}

func TestCancelLeavesEventOpen(t *testing.T) {
	db := testdb.Open(t)
	actor := seedUser(t, db, "officer")
	event := seedEvent(t, db)
	svc := newTestService(db)

	got, err := svc.Cancel(context.Background(), event.ID, actor)
	require.NoError(t, err)
	assert.True(t, got.Cancelled)
	assert.False(t, got.Closed)

	// A cancelled event can still be closed afterwards.
	got, err = svc.Close(context.Background(), event.ID, actor)
	require.NoError(t, err)
	assert.True(t, got.Closed)
}

func TestRoleAuthorizerGatesTransitions(t *testing.T) {
	db := testdb.Open(t)
	officer := seedUser(t, db, "officer")
	crew := seedUser(t, db, "crew")
	event := seedEvent(t, db)

	svc := NewService(db, RoleAuthorizer{}, nil).WithClock(fixedClock)

	_, err := svc.Approve(context.Background(), event.ID, crew)
	assert.True(t, faults.Is(err, faults.KindForbidden), "got %v", err)

	var loaded models.Event
	require.NoError(t, db.First(&loaded, "id = ?", event.ID).Error)
	assert.False(t, loaded.Approved, "denied transition must not mutate the event")

	_, err = svc.Approve(context.Background(), event.ID, officer)
	require.NoError(t, err)
}

type recordingNotifier struct {
	actions []Action
	fail    bool
}

func (n *recordingNotifier) EventTransitioned(ctx context.Context, event *models.Event, action Action, actor *models.User) error {
	n.actions = append(n.actions, action)
	if n.fail {
		return errors.New("smtp down")
	}
	return nil
}

func TestNotifiersFireAfterCommit(t *testing.T) {
	db := testdb.Open(t)
	actor := seedUser(t, db, "officer")
	event := seedEvent(t, db)

	notifier := &recordingNotifier{}
	svc := newTestService(db, notifier)

	_, err := svc.Approve(context.Background(), event.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, []Action{ActionApprove}, notifier.actions)

	// A failed guard must not announce anything.
	_, err = svc.Approve(context.Background(), event.ID, actor)
	require.Error(t, err)
	assert.Equal(t, []Action{ActionApprove}, notifier.actions)
}

func TestNotifierFailureDoesNotFailTransition(t *testing.T) {
	db := testdb.Open(t)
	actor := seedUser(t, db, "officer")
	event := seedEvent(t, db)

	svc := newTestService(db, &recordingNotifier{fail: true})

	got, err := svc.Approve(context.Background(), event.ID, actor)
	require.NoError(t, err)
	assert.True(t, got.Approved)
}

func TestTransitionOnMissingEvent(t *testing.T) {
	db := testdb.Open(t)
	actor := seedUser(t, db, "officer")

	_, err := newTestService(db).Approve(context.Background(), uuid.New(), actor)
	assert.True(t, faults.Is(err, faults.KindNotFound), "got %v", err)
}
