package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Kenzy1995/Shuttle-system-sub000/internal/database"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/domain"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/events"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/models"
)

// LookupService finds existing reservations and exposes the cancel and
// modify actions. It has its own terminal states: an empty result renders
// "no records", never an error dialog.
type LookupService struct {
	store      domain.BookingStore
	sessions   domain.SessionManager
	eventBus   domain.EventPublisher
	windowDays int
	logger     *zerolog.Logger

	now func() time.Time
}

func NewLookupService(store domain.BookingStore, sessions domain.SessionManager, eventBus domain.EventPublisher, windowDays int, logger *zerolog.Logger) *LookupService {
	if windowDays <= 0 {
		windowDays = models.LookupWindowDays
	}
	return &LookupService{
		store:      store,
		sessions:   sessions,
		eventBus:   eventBus,
		windowDays: windowDays,
		logger:     logger,
		now:        time.Now,
	}
}

// Find matches records by exactly one of bookingID, phone or email. Only
// records created within the lookup window are matchable; older records
// are treated as not found to bound results and avoid stale-data confusion.
func (s *LookupService) Find(ctx context.Context, bookingID, phone, email string) ([]*models.BookingRecord, error) {
	given := 0
	for _, v := range []string{bookingID, phone, email} {
		if v != "" {
			given++
		}
	}
	if given != 1 {
		return nil, ErrAmbiguousQuery
	}

	q := domain.BookingQuery{
		BookingID: bookingID,
		Phone:     phone,
		Email:     email,
		Since:     s.now().AddDate(0, 0, -s.windowDays),
	}
	return s.store.Find(ctx, q)
}

// Cancel transitions booked -> cancelled. Irreversible through this
// interface.
func (s *LookupService) Cancel(ctx context.Context, bookingID string) error {
	record, err := s.store.Get(ctx, bookingID)
	if err != nil {
		return err
	}

	if err := s.store.Cancel(ctx, bookingID, record.Version); err != nil {
		return err
	}

	record.Status = models.StatusCancelled
	if err := s.eventBus.PublishJSON(events.EventBookingCancel, events.BookingEventPayload{
		BookingID:      record.ID,
		Direction:      string(record.Direction),
		Date:           record.Date,
		StopID:         record.StopID,
		Depart:         record.Slot.Time,
		PassengerCount: record.PassengerCount,
		Status:         record.Status,
	}); err != nil {
		s.logger.Error().Err(err).Str("booking_id", bookingID).Msg("publish cancel event error")
	}
	return nil
}

// Modify opens a wizard session on the Details step, pre-populated from the
// record. The schedule is re-validated against current availability when
// the session re-confirms; aborting leaves the original record booked.
func (s *LookupService) Modify(ctx context.Context, bookingID string, lang models.Language) (*models.SessionState, error) {
	record, err := s.store.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if record.Status != models.StatusBooked {
		return nil, database.ErrNotFound
	}

	state := models.NewSessionState(uuid.New().String(), lang)
	state.Draft = record.Draft()
	state.Step = models.StepDetails
	state.ModifyOf = record.ID
	state.NextToken()

	if err := s.sessions.SaveSession(ctx, state); err != nil {
		return nil, err
	}

	if err := s.eventBus.PublishJSON(events.EventStepChanged, events.StepEventPayload{
		SessionID: state.SessionID,
		Step:      state.Step.String(),
		Language:  state.Language,
	}); err != nil {
		s.logger.Error().Err(err).Str("session_id", state.SessionID).Msg("publish step event error")
	}
	return state, nil
}
