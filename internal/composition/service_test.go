package composition

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/google/uuid"

	"github.com/mwalcott/stagecrew/internal/faults"
	"github.com/mwalcott/stagecrew/internal/models"
	"github.com/mwalcott/stagecrew/internal/testdb"
)

type fixture struct {
	db       *gorm.DB
	category models.Category
	service  models.Service
	extra    models.Extra
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.Open(t)

	f := &fixture{db: db}
	f.category = models.Category{Name: "Sound"}
	require.NoError(t, db.Create(&f.category).Error)
	f.service = models.Service{Name: "PA system", BaseCost: decimal.NewFromInt(70), CategoryID: f.category.ID}
	require.NoError(t, db.Create(&f.service).Error)
	f.extra = models.Extra{Name: "Wireless mic", Cost: decimal.NewFromInt(10), CategoryID: f.category.ID}
	require.NoError(t, db.Create(&f.extra).Error)
	return f
}

func (f *fixture) event(t *testing.T, mutate ...func(*models.Event)) *models.Event {
	t.Helper()
	start := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	event := models.Event{
		Title:           "Open Mic",
		StartTime:       start,
		EndTime:         start.Add(3 * time.Hour),
		SetupCompleteAt: start,
		PricingMode:     models.PricingCatalog,
	}
	for _, m := range mutate {
		m(&event)
	}
	require.NoError(t, f.db.Create(&event).Error)
	return &event
}

func (f *fixture) newExtra(t *testing.T, name string, disappeared bool) models.Extra {
	t.Helper()
	extra := models.Extra{Name: name, Cost: decimal.NewFromInt(5), CategoryID: f.category.ID, Disappeared: disappeared}
	require.NoError(t, f.db.Create(&extra).Error)
	return extra
}

func TestClosedEventIsImmutable(t *testing.T) {
	f := newFixture(t)
	event := f.event(t, func(e *models.Event) { e.Closed = true })
	svc := NewService(f.db)
	ctx := context.Background()

	_, err := svc.AddService(ctx, event.ID, f.service.ID, "")
	assert.True(t, faults.Is(err, faults.KindState), "add service: got %v", err)

	_, err = svc.AddExtra(ctx, event.ID, f.extra.ID, 1)
	assert.True(t, faults.Is(err, faults.KindState), "add extra: got %v", err)

	_, err = svc.AddRental(ctx, event.ID, "Truss", decimal.NewFromInt(20), 1, false)
	assert.True(t, faults.Is(err, faults.KindState), "add rental: got %v", err)

	err = svc.SetDiscounts(ctx, event.ID, nil)
	assert.True(t, faults.Is(err, faults.KindState), "set discounts: got %v", err)

	err = svc.SetFees(ctx, event.ID, nil)
	assert.True(t, faults.Is(err, faults.KindState), "set fees: got %v", err)
}

func TestAddAndRemoveService(t *testing.T) {
	f := newFixture(t)
	event := f.event(t)
	svc := NewService(f.db)
	ctx := context.Background()

	instance, err := svc.AddService(ctx, event.ID, f.service.ID, "front of house")
	require.NoError(t, err)
	assert.Equal(t, "front of house", instance.Detail)

	require.NoError(t, svc.RemoveService(ctx, event.ID, instance.ID))

	err = svc.RemoveService(ctx, event.ID, instance.ID)
	assert.True(t, faults.Is(err, faults.KindNotFound), "got %v", err)
}

func TestAddExtraRejectsNegativeQuantity(t *testing.T) {
	f := newFixture(t)
	event := f.event(t)

	_, err := NewService(f.db).AddExtra(context.Background(), event.ID, f.extra.ID, -1)
	assert.True(t, faults.Is(err, faults.KindValidation), "got %v", err)
}

func TestAddDisappearedExtraIsRejected(t *testing.T) {
	f := newFixture(t)
	event := f.event(t)
	gone := f.newExtra(t, "Discontinued fogger", true)

	_, err := NewService(f.db).AddExtra(context.Background(), event.ID, gone.ID, 1)
	assert.True(t, faults.Is(err, faults.KindValidation), "got %v", err)
}

func TestDisappearedExtraFreezesEventExtras(t *testing.T) {
	f := newFixture(t)
	event := f.event(t)
	svc := NewService(f.db)
	ctx := context.Background()

	stale, err := svc.AddExtra(ctx, event.ID, f.extra.ID, 2)
	require.NoError(t, err)

	// The extra leaves the catalog after the event picked it up.
	require.NoError(t, f.db.Model(&f.extra).Update("disappeared", true).Error)

	other := f.newExtra(t, "Stage box", false)
	_, err = svc.AddExtra(ctx, event.ID, other.ID, 1)
	assert.True(t, faults.Is(err, faults.KindState), "add: got %v", err)

	err = svc.UpdateExtraQuantity(ctx, event.ID, stale.ID, 3)
	assert.True(t, faults.Is(err, faults.KindState), "update: got %v", err)

	// Removing the stale row lifts the freeze.
	require.NoError(t, svc.RemoveExtra(ctx, event.ID, stale.ID))

	_, err = svc.AddExtra(ctx, event.ID, other.ID, 1)
	require.NoError(t, err)
}

func TestUpdateExtraQuantity(t *testing.T) {
	f := newFixture(t)
	event := f.event(t)
	svc := NewService(f.db)
	ctx := context.Background()

	instance, err := svc.AddExtra(ctx, event.ID, f.extra.ID, 2)
	require.NoError(t, err)

	require.NoError(t, svc.UpdateExtraQuantity(ctx, event.ID, instance.ID, 0))

	var stored models.ExtraInstance
	require.NoError(t, f.db.First(&stored, "id = ?", instance.ID).Error)
	assert.Equal(t, 0, stored.Quantity)
}

func TestAddAndRemoveRental(t *testing.T) {
	f := newFixture(t)
	event := f.event(t)
	svc := NewService(f.db)
	ctx := context.Background()

	_, err := svc.AddRental(ctx, event.ID, "", decimal.NewFromInt(20), 1, false)
	assert.True(t, faults.Is(err, faults.KindValidation), "got %v", err)

	rental, err := svc.AddRental(ctx, event.ID, "Cable ramp", decimal.NewFromInt(25), 2, true)
	require.NoError(t, err)
	assert.True(t, rental.RentalFeeApplied)

	require.NoError(t, svc.RemoveRental(ctx, event.ID, rental.ID))

	err = svc.RemoveRental(ctx, event.ID, rental.ID)
	assert.True(t, faults.Is(err, faults.KindNotFound), "got %v", err)
}

func TestSetDiscountsReplacesExistingSet(t *testing.T) {
	f := newFixture(t)
	event := f.event(t)
	svc := NewService(f.db)
	ctx := context.Background()

	first := models.Discount{Name: "Combo A", Categories: []models.Category{f.category}}
	second := models.Discount{Name: "Combo B", Categories: []models.Category{f.category}}
	require.NoError(t, f.db.Create(&first).Error)
	require.NoError(t, f.db.Create(&second).Error)

	require.NoError(t, svc.SetDiscounts(ctx, event.ID, []uuid.UUID{first.ID}))
	require.NoError(t, svc.SetDiscounts(ctx, event.ID, []uuid.UUID{second.ID}))

	var applied []models.Discount
	require.NoError(t, f.db.Model(&models.Event{ID: event.ID}).Association("Discounts").Find(&applied))
	require.Len(t, applied, 1)
	assert.Equal(t, second.ID, applied[0].ID)
}

func TestSetFeesUnknownIDIsRejected(t *testing.T) {
	f := newFixture(t)
	event := f.event(t)

	err := NewService(f.db).SetFees(context.Background(), event.ID, []uuid.UUID{uuid.New()})
	assert.True(t, faults.Is(err, faults.KindNotFound), "got %v", err)
}
