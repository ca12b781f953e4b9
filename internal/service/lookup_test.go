package service

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kenzy1995/Shuttle-system-sub000/internal/database"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/events"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/models"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/repository"
)

type lookupHarness struct {
	lookup *LookupService
	wizard *WizardService
	store  *database.Store
	bus    *events.EventBus
	record *models.BookingRecord
}

func newLookupHarness(t *testing.T) *lookupHarness {
	t.Helper()
	cfg := testShuttleConfig()
	store := newTestBookingStore(t, cfg)
	logger := zerolog.New(io.Discard)

	sessions := NewSessionService(repository.NewMemoryStateRepository(time.Hour), &logger)
	availability := NewAvailabilityService(store, cfg, &logger)
	bus := events.NewEventBus()
	wizard := NewWizardService(sessions, availability, store, bus, cfg, &logger)
	lookup := NewLookupService(store, sessions, bus, cfg.LookupWindowDays, &logger)

	now := fixedNow(t, "2026-09-14 08:00")
	availability.now = now
	wizard.now = now

	slot := &models.ScheduleSlot{
		Direction: models.DirectionOutbound,
		Date:      time.Date(2026, 9, 15, 0, 0, 0, 0, cfg.Location()),
		StopID:    1,
		Time:      "09:05",
	}
	record := &models.BookingRecord{DraftBooking: models.DraftBooking{
		Direction: slot.Direction, Date: slot.Date, StopID: 1, Slot: slot,
		Identity: models.IdentityHotelGuest,
		CheckIn:  time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2026, 9, 16, 0, 0, 0, 0, time.UTC),
		RoomCode: "1203", Name: "Chen", Phone: "0912345678",
		Email: "guest@example.com", PickupKey: "point.hotel",
		DropoffKey: "stop.mrt", PassengerCount: 2,
	}}
	require.NoError(t, store.Create(context.Background(), record))

	return &lookupHarness{lookup: lookup, wizard: wizard, store: store, bus: bus, record: record}
}

func TestLookupFindByEachIdentifier(t *testing.T) {
	h := newLookupHarness(t)
	ctx := context.Background()

	for name, args := range map[string][3]string{
		"by id":    {h.record.ID, "", ""},
		"by phone": {"", "0912345678", ""},
		"by email": {"", "", "guest@example.com"},
	} {
		t.Run(name, func(t *testing.T) {
			records, err := h.lookup.Find(ctx, args[0], args[1], args[2])
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, h.record.ID, records[0].ID)
		})
	}
}

func TestLookupRequiresExactlyOneIdentifier(t *testing.T) {
	h := newLookupHarness(t)
	ctx := context.Background()

	_, err := h.lookup.Find(ctx, "", "", "")
	assert.ErrorIs(t, err, ErrAmbiguousQuery)

	_, err = h.lookup.Find(ctx, h.record.ID, "0912345678", "")
	assert.ErrorIs(t, err, ErrAmbiguousQuery)

	_, err = h.lookup.Find(ctx, h.record.ID, "0912345678", "guest@example.com")
	assert.ErrorIs(t, err, ErrAmbiguousQuery)
}

func TestLookupEmptyResultIsNotAnError(t *testing.T) {
	h := newLookupHarness(t)

	records, err := h.lookup.Find(context.Background(), "", "0900000000", "")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLookupWindowExcludesOldRecords(t *testing.T) {
	h := newLookupHarness(t)

	// Forty days later the record has aged out of the lookup window.
	h.lookup.now = func() time.Time { return time.Now().AddDate(0, 0, 40) }

	records, err := h.lookup.Find(context.Background(), h.record.ID, "", "")
	require.NoError(t, err)
	assert.Empty(t, records, "records older than the window read as not found")

	// One day before the cut the record is still visible.
	h.lookup.now = func() time.Time { return time.Now().AddDate(0, 0, 29) }
	records, err = h.lookup.Find(context.Background(), h.record.ID, "", "")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestLookupCancel(t *testing.T) {
	h := newLookupHarness(t)
	ctx := context.Background()

	var cancelled events.BookingEventPayload
	h.bus.Subscribe(events.EventBookingCancel, func(event *events.Event) error {
		return json.Unmarshal(event.Payload, &cancelled)
	})

	require.NoError(t, h.lookup.Cancel(ctx, h.record.ID))

	got, err := h.store.Get(ctx, h.record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
	assert.Equal(t, h.record.ID, cancelled.BookingID)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)

	// Cancelling a cancelled record conflicts; a missing one is not found.
	assert.ErrorIs(t, h.lookup.Cancel(ctx, h.record.ID), database.ErrConcurrentModification)
	assert.ErrorIs(t, h.lookup.Cancel(ctx, "missing"), database.ErrNotFound)
}

func TestLookupModifyFlow(t *testing.T) {
	h := newLookupHarness(t)
	ctx := context.Background()

	state, err := h.lookup.Modify(ctx, h.record.ID, models.LangJA)
	require.NoError(t, err)
	assert.Equal(t, models.StepDetails, state.Step)
	assert.Equal(t, models.LangJA, state.Language)
	assert.Equal(t, h.record.ID, state.ModifyOf)
	assert.Equal(t, "Chen", state.Draft.Name)
	require.NotNil(t, state.Draft.Slot)

	// Re-confirming through the wizard updates the record in place.
	input := validDetails()
	input.PassengerCount = 3
	record, err := h.wizard.SubmitDetails(ctx, state.SessionID, input)
	require.NoError(t, err)
	assert.Equal(t, h.record.ID, record.ID, "modify keeps the booking id")
	assert.Equal(t, 3, record.PassengerCount)
	assert.Equal(t, models.StatusBooked, record.Status)
	assert.Equal(t, int64(2), record.Version)
}

func TestLookupModifyOnFullBusKeepsOwnSeats(t *testing.T) {
	h := newLookupHarness(t)
	ctx := context.Background()

	// Rivals fill every seat the guest does not already hold, so the bus
	// is at capacity counting the guest's own booking.
	slot := *h.record.Slot
	for _, count := range []int{4, 4} {
		rival := &models.BookingRecord{DraftBooking: models.DraftBooking{
			Direction: slot.Direction, Date: slot.Date, StopID: slot.StopID,
			Slot: &slot, Name: "rival", Phone: "0987654321",
			Email: "rival@example.com", PassengerCount: count,
		}}
		require.NoError(t, h.store.Create(ctx, rival))
	}

	state, err := h.lookup.Modify(ctx, h.record.ID, models.LangEN)
	require.NoError(t, err)

	// Re-confirming the unchanged reservation must not count the guest's
	// own seats as rivals.
	record, err := h.wizard.SubmitDetails(ctx, state.SessionID, validDetails())
	require.NoError(t, err)
	assert.Equal(t, h.record.ID, record.ID)
	assert.Equal(t, 2, record.PassengerCount)
	assert.Equal(t, int64(2), record.Version)

	state, err = h.wizard.Session(ctx, state.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.StepConfirm, state.Step)
}

func TestLookupModifyRejectsNonBooked(t *testing.T) {
	h := newLookupHarness(t)
	ctx := context.Background()

	require.NoError(t, h.lookup.Cancel(ctx, h.record.ID))

	_, err := h.lookup.Modify(ctx, h.record.ID, models.LangZH)
	assert.ErrorIs(t, err, database.ErrNotFound)

	_, err = h.lookup.Modify(ctx, "missing", models.LangZH)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestLookupAbortedModifyLeavesRecordIntact(t *testing.T) {
	h := newLookupHarness(t)
	ctx := context.Background()

	_, err := h.lookup.Modify(ctx, h.record.ID, models.LangZH)
	require.NoError(t, err)

	// The session is simply abandoned; the record never left booked.
	got, err := h.store.Get(ctx, h.record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusBooked, got.Status)
	assert.Equal(t, int64(1), got.Version)
}
