package attendance

import (
	"context"
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

var setupStart = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	db       *gorm.DB
	lighting models.Category
	sound    models.Category
	chief    models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.Open(t)

	f := &fixture{db: db}
	f.lighting = models.Category{Name: "Lighting"}
	f.sound = models.Category{Name: "Sound"}
	require.NoError(t, db.Create(&f.lighting).Error)
	require.NoError(t, db.Create(&f.sound).Error)

	f.chief = f.user(t, "chief@example.com")
	return f
}

func (f *fixture) user(t *testing.T, email string) models.User {
	t.Helper()
	user := models.User{Name: "Crew Member", Email: email, Password: "hashed"}
	require.NoError(t, f.db.Create(&user).Error)
	return user
}

// event creates an open event with a crew chief assignment whose setup starts
// at setupStart.
func (f *fixture) event(t *testing.T, mutate ...func(*models.Event)) *models.Event {
	t.Helper()
	event := models.Event{
		Title:           "Load In",
		StartTime:       setupStart.Add(4 * time.Hour),
		EndTime:         setupStart.Add(10 * time.Hour),
		SetupCompleteAt: setupStart.Add(4 * time.Hour),
		PricingMode:     models.PricingCatalog,
		Approved:        true,
	}
	for _, m := range mutate {
		m(&event)
	}
	require.NoError(t, f.db.Create(&event).Error)

	assignment := models.CrewChiefAssignment{
		EventID:    event.ID,
		UserID:     f.chief.ID,
		CategoryID: f.lighting.ID,
		SetupStart: setupStart,
	}
	require.NoError(t, f.db.Create(&assignment).Error)
	return &event
}

func (f *fixture) tracker(at time.Time) *Tracker {
	return NewTracker(f.db).WithClock(func() time.Time { return at })
}

func TestCheckInBeforeSetupStart(t *testing.T) {
	f := newFixture(t)
	event := f.event(t)
	user := f.user(t, "early@example.com")

	_, err := f.tracker(setupStart.Add(-time.Minute)).CheckIn(context.Background(), user.ID, event.ID)
	assert.True(t, faults.Is(err, faults.KindState), "got %v", err)
}

func TestCheckInWithoutCrewChiefs(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "crew@example.com")

	event := models.Event{
		Title:           "No Chiefs",
		StartTime:       setupStart,
		EndTime:         setupStart.Add(2 * time.Hour),
		SetupCompleteAt: setupStart,
		PricingMode:     models.PricingCatalog,
	}
	require.NoError(t, f.db.Create(&event).Error)

	_, err := f.tracker(setupStart.Add(time.Hour)).CheckIn(context.Background(), user.ID, event.ID)
	assert.True(t, faults.Is(err, faults.KindState), "got %v", err)
}

func TestCheckInClosedEvent(t *testing.T) {
	f := newFixture(t)
	event := f.event(t, func(e *models.Event) { e.Closed = true })
	user := f.user(t, "crew@example.com")

	_, err := f.tracker(setupStart.Add(time.Hour)).CheckIn(context.Background(), user.ID, event.ID)
	assert.True(t, faults.Is(err, faults.KindState), "got %v", err)
}

func TestCheckInCancelledEvent(t *testing.T) {
	f := newFixture(t)
	event := f.event(t, func(e *models.Event) { e.Cancelled = true })
	user := f.user(t, "crew@example.com")

	_, err := f.tracker(setupStart.Add(time.Hour)).CheckIn(context.Background(), user.ID, event.ID)
	assert.True(t, faults.Is(err, faults.KindState), "got %v", err)
	assert.Contains(t, err.Error(), "cancelled")
}

func TestCheckInCreatesRecordAndPlaceholder(t *testing.T) {
	f := newFixture(t)
	event := f.event(t)
	user := f.user(t, "crew@example.com")
	at := setupStart.Add(30 * time.Minute)

	record, err := f.tracker(at).CheckIn(context.Background(), user.ID, event.ID)
	require.NoError(t, err)
	assert.True(t, record.Active)
	assert.True(t, record.CheckinAt.Equal(at))

	var placeholder models.Hours
	err = f.db.Where("event_id = ? AND user_id = ? AND category_id IS NULL", event.ID, user.ID).
		First(&placeholder).Error
	require.NoError(t, err)
	assert.Nil(t, placeholder.Hours)
}

func TestCheckInTwiceAnywhereIsRejected(t *testing.T) {
	f := newFixture(t)
	first := f.event(t)
	second := f.event(t)
	user := f.user(t, "crew@example.com")
	tracker := f.tracker(setupStart.Add(time.Hour))

	_, err := tracker.CheckIn(context.Background(), user.ID, first.ID)
	require.NoError(t, err)

	// One active record per user across all events.
	_, err = tracker.CheckIn(context.Background(), user.ID, second.ID)
	assert.True(t, faults.Is(err, faults.KindCapacity), "got %v", err)
}

func TestCheckInHonorsMaxCrew(t *testing.T) {
	f := newFixture(t)
	crewCap := 1
	event := f.event(t, func(e *models.Event) { e.MaxCrew = &crewCap })
	first := f.user(t, "first@example.com")
	second := f.user(t, "second@example.com")
	tracker := f.tracker(setupStart.Add(time.Hour))

	_, err := tracker.CheckIn(context.Background(), first.ID, event.ID)
	require.NoError(t, err)

	_, err = tracker.CheckIn(context.Background(), second.ID, event.ID)
	assert.True(t, faults.Is(err, faults.KindCapacity), "got %v", err)

	// A checkout frees the slot.
	later := f.tracker(setupStart.Add(2 * time.Hour))
	_, err = later.CheckOut(context.Background(), first.ID, CheckoutRequest{CheckoutAt: setupStart.Add(2 * time.Hour)})
	require.NoError(t, err)

	_, err = later.CheckIn(context.Background(), second.ID, event.ID)
	require.NoError(t, err)
}

func TestCheckOutWithoutActiveRecord(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "crew@example.com")

	_, err := f.tracker(setupStart).CheckOut(context.Background(), user.ID, CheckoutRequest{CheckoutAt: setupStart})
	assert.True(t, faults.Is(err, faults.KindState), "got %v", err)
}

func TestCheckOutTimeValidation(t *testing.T) {
	f := newFixture(t)
	event := f.event(t)
	user := f.user(t, "crew@example.com")

	checkin := setupStart.Add(time.Hour)
	_, err := f.tracker(checkin).CheckIn(context.Background(), user.ID, event.ID)
	require.NoError(t, err)

	now := checkin.Add(2 * time.Hour)
	tracker := f.tracker(now)

	_, err = tracker.CheckOut(context.Background(), user.ID, CheckoutRequest{CheckoutAt: now.Add(time.Minute)})
	assert.True(t, faults.Is(err, faults.KindValidation), "future checkout: got %v", err)

	_, err = tracker.CheckOut(context.Background(), user.ID, CheckoutRequest{CheckoutAt: checkin.Add(-time.Minute)})
	assert.True(t, faults.Is(err, faults.KindValidation), "checkout before checkin: got %v", err)
}

func TestCheckOutRoundsDownToQuarterHours(t *testing.T) {
	f := newFixture(t)
	event := f.event(t)
	user := f.user(t, "crew@example.com")

	checkin := setupStart
	_, err := f.tracker(checkin).CheckIn(context.Background(), user.ID, event.ID)
	require.NoError(t, err)

	// 100 minutes is six full quarters.
	checkout := checkin.Add(100 * time.Minute)
	result, err := f.tracker(checkout).CheckOut(context.Background(), user.ID, CheckoutRequest{CheckoutAt: checkout})
	require.NoError(t, err)
	assert.True(t, result.TotalHours.Equal(decimal.NewFromFloat(1.5)), "got %s", result.TotalHours)
	assert.False(t, result.Record.Active)
}

func TestCheckOutClampsSubmittedCheckin(t *testing.T) {
	f := newFixture(t)
	event := f.event(t)
	user := f.user(t, "crew@example.com")

	_, err := f.tracker(setupStart.Add(time.Hour)).CheckIn(context.Background(), user.ID, event.ID)
	require.NoError(t, err)

	// The corrected checkin claims an hour before setup; it clamps to
	// setup start, so only two hours count.
	claimed := setupStart.Add(-time.Hour)
	checkout := setupStart.Add(2 * time.Hour)
	result, err := f.tracker(checkout).CheckOut(context.Background(), user.ID, CheckoutRequest{
		CheckoutAt: checkout,
		CheckinAt:  &claimed,
	})
	require.NoError(t, err)
	assert.True(t, result.TotalHours.Equal(decimal.NewFromInt(2)), "got %s", result.TotalHours)
	assert.True(t, result.Record.CheckinAt.Equal(setupStart))
}

func TestCheckOutReconcilesCategoryHours(t *testing.T) {
	f := newFixture(t)
	event := f.event(t)
	user := f.user(t, "crew@example.com")

	_, err := f.tracker(setupStart).CheckIn(context.Background(), user.ID, event.ID)
	require.NoError(t, err)

	checkout := setupStart.Add(11 * time.Hour)
	result, err := f.tracker(checkout).CheckOut(context.Background(), user.ID, CheckoutRequest{
		CheckoutAt: checkout,
		CategoryHours: map[uuid.UUID]decimal.Decimal{
			f.lighting.ID: decimal.NewFromInt(6),
			f.sound.ID:    decimal.NewFromInt(5),
		},
	})
	require.NoError(t, err)
	assert.True(t, result.TotalHours.Equal(decimal.NewFromInt(11)))

	var rows []models.Hours
	require.NoError(t, f.db.Where("event_id = ? AND user_id = ?", event.ID, user.ID).Find(&rows).Error)
	require.Len(t, rows, 2)
	byCategory := make(map[uuid.UUID]decimal.Decimal)
	for _, row := range rows {
		require.NotNil(t, row.CategoryID, "placeholder must be replaced by categorized rows")
		require.NotNil(t, row.Hours)
		byCategory[*row.CategoryID] = *row.Hours
	}
	assert.True(t, byCategory[f.lighting.ID].Equal(decimal.NewFromInt(6)))
	assert.True(t, byCategory[f.sound.ID].Equal(decimal.NewFromInt(5)))
}

func TestCheckOutZeroSumLeavesPlaceholder(t *testing.T) {
	f := newFixture(t)
	event := f.event(t)
	user := f.user(t, "crew@example.com")

	_, err := f.tracker(setupStart).CheckIn(context.Background(), user.ID, event.ID)
	require.NoError(t, err)

	checkout := setupStart.Add(4 * time.Hour)
	_, err = f.tracker(checkout).CheckOut(context.Background(), user.ID, CheckoutRequest{
		CheckoutAt: checkout,
		CategoryHours: map[uuid.UUID]decimal.Decimal{
			f.lighting.ID: decimal.Zero,
		},
	})
	require.NoError(t, err)

	var rows []models.Hours
	require.NoError(t, f.db.Where("event_id = ? AND user_id = ?", event.ID, user.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].CategoryID)
	assert.Nil(t, rows[0].Hours)
}

func TestCheckOutRejectsMismatchedHours(t *testing.T) {
	f := newFixture(t)
	event := f.event(t)
	user := f.user(t, "crew@example.com")

	_, err := f.tracker(setupStart).CheckIn(context.Background(), user.ID, event.ID)
	require.NoError(t, err)

	checkout := setupStart.Add(11 * time.Hour)
	_, err = f.tracker(checkout).CheckOut(context.Background(), user.ID, CheckoutRequest{
		CheckoutAt: checkout,
		CategoryHours: map[uuid.UUID]decimal.Decimal{
			f.lighting.ID: decimal.NewFromInt(5),
		},
	})
	assert.True(t, faults.Is(err, faults.KindValidation), "got %v", err)

	// The rejected checkout rolls back; the record stays active.
	var record models.CrewAttendanceRecord
	require.NoError(t, f.db.Where("user_id = ?", user.ID).First(&record).Error)
	assert.True(t, record.Active)
	assert.Nil(t, record.CheckoutAt)
}

func TestCheckInAgainAfterCheckout(t *testing.T) {
	f := newFixture(t)
	event := f.event(t)
	user := f.user(t, "crew@example.com")

	_, err := f.tracker(setupStart).CheckIn(context.Background(), user.ID, event.ID)
	require.NoError(t, err)

	mid := setupStart.Add(2 * time.Hour)
	_, err = f.tracker(mid).CheckOut(context.Background(), user.ID, CheckoutRequest{CheckoutAt: mid})
	require.NoError(t, err)

	_, err = f.tracker(mid.Add(time.Hour)).CheckIn(context.Background(), user.ID, event.ID)
	require.NoError(t, err)

	var count int64
	require.NoError(t, f.db.Model(&models.CrewAttendanceRecord{}).
		Where("event_id = ? AND user_id = ?", event.ID, user.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestQuarterHours(t *testing.T) {
	tests := []struct {
		elapsed time.Duration
		want    string
	}{
		{0, "0"},
		{14 * time.Minute, "0"},
		{15 * time.Minute, "0.25"},
		{100 * time.Minute, "1.5"},
		{11 * time.Hour, "11"},
		{11*time.Hour + 14*time.Minute, "11"},
	}
	for _, tt := range tests {
		got := quarterHours(tt.elapsed)
		want, err := decimal.NewFromString(tt.want)
		require.NoError(t, err)
		assert.True(t, got.Equal(want), "%s: got %s want %s", tt.elapsed, got, want)
	}
}
