package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kenzy1995/Shuttle-system-sub000/internal/domain"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/models"
)

func newTestStore(t *testing.T, capacity int) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "bookings.db"), capacity, time.UTC)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testSlot() *models.ScheduleSlot {
	return &models.ScheduleSlot{
		Direction: models.DirectionOutbound,
		Date:      time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		StopID:    1,
		Time:      "09:05",
		Capacity:  10,
	}
}

func testRecord(passengers int) *models.BookingRecord {
	slot := testSlot()
	return &models.BookingRecord{
		DraftBooking: models.DraftBooking{
			Direction:      slot.Direction,
			Date:           slot.Date,
			StopID:         slot.StopID,
			Slot:           slot,
			Identity:       models.IdentityHotelGuest,
			CheckIn:        time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC),
			CheckOut:       time.Date(2026, 9, 16, 0, 0, 0, 0, time.UTC),
			RoomCode:       "1203",
			Name:           "Chen",
			Phone:          "0912345678",
			Email:          "guest@example.com",
			PickupKey:      "point.hotel",
			DropoffKey:     "stop.mrt",
			PassengerCount: passengers,
		},
	}
}

func TestCreateAndGet(t *testing.T) {
	store := newTestStore(t, 10)
	ctx := context.Background()

	record := testRecord(2)
	require.NoError(t, store.Create(ctx, record))
	require.NotEmpty(t, record.ID)
	assert.Equal(t, models.StatusBooked, record.Status)
	assert.Equal(t, int64(1), record.Version)

	got, err := store.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, "Chen", got.Name)
	assert.Equal(t, "1203", got.RoomCode)
	assert.Equal(t, 2, got.PassengerCount)
	assert.Equal(t, models.DirectionOutbound, got.Direction)
	require.NotNil(t, got.Slot)
	assert.Equal(t, "09:05", got.Slot.Time)
	assert.Equal(t, "2026-09-15", got.Slot.Date.Format(models.DateLayout))
	assert.Equal(t, "2026-09-14", got.CheckIn.Format(models.DateLayout))
}

func TestCreateWithoutSlot(t *testing.T) {
	store := newTestStore(t, 10)
	record := testRecord(1)
	record.Slot = nil
	assert.Error(t, store.Create(context.Background(), record))
}

func TestGetNotFound(t *testing.T) {
	store := newTestStore(t, 10)
	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBookedSeats(t *testing.T) {
	store := newTestStore(t, 10)
	ctx := context.Background()

	seats, err := store.BookedSeats(ctx, *testSlot())
	require.NoError(t, err)
	assert.Equal(t, 0, seats)

	require.NoError(t, store.Create(ctx, testRecord(3)))
	require.NoError(t, store.Create(ctx, testRecord(2)))

	seats, err = store.BookedSeats(ctx, *testSlot())
	require.NoError(t, err)
	assert.Equal(t, 5, seats)

	// A cancelled record releases its seats.
	victim := testRecord(4)
	require.NoError(t, store.Create(ctx, victim))
	require.NoError(t, store.Cancel(ctx, victim.ID, victim.Version))

	seats, err = store.BookedSeats(ctx, *testSlot())
	require.NoError(t, err)
	assert.Equal(t, 5, seats)
}

func TestBookedSeatsNormalizesDateZone(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Taipei")
	require.NoError(t, err)
	store, err := NewStore(filepath.Join(t.TempDir(), "bookings.db"), 10, loc)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	// A record written with a UTC-midnight service date must be counted
	// when queried with the same wall-clock date in the store timezone.
	require.NoError(t, store.Create(ctx, testRecord(3)))

	slot := *testSlot()
	slot.Date = time.Date(2026, 9, 15, 0, 0, 0, 0, loc)
	seats, err := store.BookedSeats(ctx, slot)
	require.NoError(t, err)
	assert.Equal(t, 3, seats)

	records, err := store.ListByDate(ctx, slot.Date)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestCreateCapacityConflict(t *testing.T) {
	store := newTestStore(t, 5)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testRecord(4)))

	err := store.Create(ctx, testRecord(2))
	assert.ErrorIs(t, err, ErrCapacityConflict)

	// The exact remainder still fits.
	require.NoError(t, store.Create(ctx, testRecord(1)))
}

func TestCancel(t *testing.T) {
	store := newTestStore(t, 10)
	ctx := context.Background()

	record := testRecord(1)
	require.NoError(t, store.Create(ctx, record))

	require.NoError(t, store.Cancel(ctx, record.ID, record.Version))

	got, err := store.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
	assert.Equal(t, int64(2), got.Version)

	// Cancelling again is a conflict: the record is no longer booked.
	assert.ErrorIs(t, store.Cancel(ctx, record.ID, got.Version), ErrConcurrentModification)
	assert.ErrorIs(t, store.Cancel(ctx, "missing", 1), ErrNotFound)
}

func TestCancelStaleVersion(t *testing.T) {
	store := newTestStore(t, 10)
	ctx := context.Background()

	record := testRecord(1)
	require.NoError(t, store.Create(ctx, record))

	err := store.Cancel(ctx, record.ID, record.Version+5)
	assert.ErrorIs(t, err, ErrConcurrentModification)
}

func TestModify(t *testing.T) {
	store := newTestStore(t, 10)
	ctx := context.Background()

	record := testRecord(2)
	require.NoError(t, store.Create(ctx, record))

	draft := record.Draft()
	newSlot := *draft.Slot
	newSlot.Time = "11:05"
	draft.Slot = &newSlot
	draft.PassengerCount = 3
	draft.Name = "Lin"

	got, err := store.Modify(ctx, record.ID, record.Version, draft)
	require.NoError(t, err)
	assert.Equal(t, "Lin", got.Name)
	assert.Equal(t, 3, got.PassengerCount)
	assert.Equal(t, "11:05", got.Slot.Time)
	assert.Equal(t, models.StatusBooked, got.Status)
	assert.Equal(t, int64(2), got.Version)

	// The old slot's seats are freed, the new slot's are taken.
	oldSeats, err := store.BookedSeats(ctx, *testSlot())
	require.NoError(t, err)
	assert.Equal(t, 0, oldSeats)

	newSeats, err := store.BookedSeats(ctx, newSlot)
	require.NoError(t, err)
	assert.Equal(t, 3, newSeats)
}

func TestModifyExcludesOwnSeats(t *testing.T) {
	store := newTestStore(t, 5)
	ctx := context.Background()

	record := testRecord(4)
	require.NoError(t, store.Create(ctx, record))

	// Growing to 5 on the same slot must not count the record's own 4 seats.
	draft := record.Draft()
	draft.PassengerCount = 5
	_, err := store.Modify(ctx, record.ID, record.Version, draft)
	require.NoError(t, err)
}

func TestModifyConflicts(t *testing.T) {
	store := newTestStore(t, 5)
	ctx := context.Background()

	record := testRecord(2)
	require.NoError(t, store.Create(ctx, record))
	other := testRecord(3)
	require.NoError(t, store.Create(ctx, other))

	t.Run("capacity", func(t *testing.T) {
		draft := record.Draft()
		draft.PassengerCount = 3
		_, err := store.Modify(ctx, record.ID, record.Version, draft)
		assert.ErrorIs(t, err, ErrCapacityConflict)
	})

	t.Run("stale version", func(t *testing.T) {
		draft := record.Draft()
		_, err := store.Modify(ctx, record.ID, record.Version+1, draft)
		assert.ErrorIs(t, err, ErrConcurrentModification)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := store.Modify(ctx, "missing", 1, record.Draft())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("not booked", func(t *testing.T) {
		require.NoError(t, store.Cancel(ctx, other.ID, other.Version))
		_, err := store.Modify(ctx, other.ID, other.Version+1, other.Draft())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestFind(t *testing.T) {
	store := newTestStore(t, 50)
	ctx := context.Background()

	a := testRecord(1)
	require.NoError(t, store.Create(ctx, a))
	b := testRecord(1)
	b.Phone = "0987654321"
	b.Email = "other@example.com"
	require.NoError(t, store.Create(ctx, b))

	since := time.Now().AddDate(0, 0, -30)

	t.Run("by id", func(t *testing.T) {
		records, err := store.Find(ctx, domain.BookingQuery{BookingID: a.ID, Since: since})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, a.ID, records[0].ID)
	})

	t.Run("by phone", func(t *testing.T) {
		records, err := store.Find(ctx, domain.BookingQuery{Phone: "0987654321", Since: since})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, b.ID, records[0].ID)
	})

	t.Run("by email", func(t *testing.T) {
		records, err := store.Find(ctx, domain.BookingQuery{Email: "guest@example.com", Since: since})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, a.ID, records[0].ID)
	})

	t.Run("outside window", func(t *testing.T) {
		records, err := store.Find(ctx, domain.BookingQuery{
			BookingID: a.ID,
			Since:     time.Now().Add(time.Hour),
		})
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("no identifier", func(t *testing.T) {
		records, err := store.Find(ctx, domain.BookingQuery{Since: since})
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func TestListByDate(t *testing.T) {
	store := newTestStore(t, 50)
	ctx := context.Background()

	early := testRecord(1)
	require.NoError(t, store.Create(ctx, early))

	late := testRecord(1)
	lateSlot := *late.Slot
	lateSlot.Time = "21:05"
	late.Slot = &lateSlot
	require.NoError(t, store.Create(ctx, late))

	otherDay := testRecord(1)
	otherSlot := *otherDay.Slot
	otherSlot.Date = otherSlot.Date.AddDate(0, 0, 1)
	otherDay.Slot = &otherSlot
	require.NoError(t, store.Create(ctx, otherDay))

	records, err := store.ListByDate(ctx, time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "09:05", records[0].Slot.Time)
	assert.Equal(t, "21:05", records[1].Slot.Time)
}
