package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Kenzy1995/Shuttle-system-sub000/internal/config"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/database"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/domain"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/events"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/metrics"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/models"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/validation"
)

// WizardService owns the reservation flow: current step, accumulated draft
// and the guarded transitions between them. Transitions for one session are
// serialized; a transition arriving while another is running waits rather
// than interleaving, so a capacity check can never apply to a superseded
// slot.
type WizardService struct {
	sessions      domain.SessionManager
	availability  domain.AvailabilityQuerier
	store         domain.BookingStore
	eventBus      domain.EventPublisher
	stops         map[int64]models.Stop
	hotelKey      string
	loc           *time.Location
	cutoff        time.Duration
	capacity      int
	maxPassengers int
	logger        *zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	now func() time.Time
}

func NewWizardService(
	sessions domain.SessionManager,
	availability domain.AvailabilityQuerier,
	store domain.BookingStore,
	eventBus domain.EventPublisher,
	cfg config.ShuttleConfig,
	logger *zerolog.Logger,
) *WizardService {
	stops := make(map[int64]models.Stop, len(cfg.Stops))
	for _, stop := range cfg.Stops {
		stops[stop.ID] = stop
	}

	maxPassengers := cfg.MaxPassengers
	if maxPassengers <= 0 {
		maxPassengers = models.MaxPassengersPerBooking
	}

	return &WizardService{
		sessions:      sessions,
		availability:  availability,
		store:         store,
		eventBus:      eventBus,
		stops:         stops,
		hotelKey:      cfg.HotelKey,
		loc:           cfg.Location(),
		cutoff:        time.Duration(cfg.CutoffMinutes) * time.Minute,
		capacity:      cfg.SeatCapacity,
		maxPassengers: maxPassengers,
		logger:        logger,
		locks:         make(map[string]*sync.Mutex),
		now:           time.Now,
	}
}

// DetailsInput is the passenger form submitted on the Details step.
type DetailsInput struct {
	Identity       models.Identity
	CheckIn        time.Time
	CheckOut       time.Time
	RoomCode       string
	DiningDate     time.Time
	Name           string
	Phone          string
	Email          string
	PassengerCount int
}

// lock serializes transitions for one session. Returns the unlock func.
func (s *WizardService) lock(sessionID string) func() {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[sessionID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// allow consumes one unit of the session's transition budget. The budget
// lives in the state repository, so it survives restarts when Redis backs
// it. A failing budget backend never blocks the flow.
func (s *WizardService) allow(ctx context.Context, sessionID string) error {
	allowed, err := s.sessions.CheckRateLimit(ctx, sessionID,
		models.RateLimitRequests, time.Duration(models.RateLimitWindow)*time.Second)
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("rate limit check error, allowing transition")
		return nil
	}
	if !allowed {
		return ErrRateLimited
	}
	return nil
}

func (s *WizardService) session(ctx context.Context, sessionID string) (*models.SessionState, error) {
	state, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrSessionNotFound
	}
	return state, nil
}

func (s *WizardService) save(ctx context.Context, state *models.SessionState) error {
	if err := s.sessions.SaveSession(ctx, state); err != nil {
		return err
	}
	metrics.IncTransition(state.Step.String())
	s.publishStep(state)
	return nil
}

// StartSession opens a fresh session at the Direction step.
func (s *WizardService) StartSession(ctx context.Context, lang models.Language) (*models.SessionState, error) {
	state := models.NewSessionState(uuid.New().String(), lang)
	if err := s.sessions.SaveSession(ctx, state); err != nil {
		return nil, err
	}
	s.publishStep(state)
	return state, nil
}

// Session returns the current state for rendering.
func (s *WizardService) Session(ctx context.Context, sessionID string) (*models.SessionState, error) {
	return s.session(ctx, sessionID)
}

// SetLanguage switches the session language. The step and draft are left
// untouched: language is orthogonal to the state machine.
func (s *WizardService) SetLanguage(ctx context.Context, sessionID string, lang models.Language) (*models.SessionState, error) {
	defer s.lock(sessionID)()

	state, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.allow(ctx, sessionID); err != nil {
		return nil, err
	}

	state.Language = models.ParseLanguage(string(lang))
	if err := s.sessions.SaveSession(ctx, state); err != nil {
		return nil, err
	}

	if err := s.eventBus.PublishJSON(events.EventLanguageChanged, events.LanguageEventPayload{
		SessionID: state.SessionID,
		Language:  state.Language,
	}); err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("publish language event error")
	}
	return state, nil
}

// SelectDirection moves Direction -> Date.
func (s *WizardService) SelectDirection(ctx context.Context, sessionID string, direction models.Direction) (*models.SessionState, error) {
	defer s.lock(sessionID)()

	state, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.allow(ctx, sessionID); err != nil {
		return nil, err
	}
	if state.Step != models.StepDirection {
		return nil, ErrInvalidTransition
	}
	if !direction.Valid() {
		return nil, ErrInvalidTransition
	}

	state.Draft.Direction = direction
	state.Step = models.StepDate
	return state, s.save(ctx, state)
}

// SelectDate moves Date -> Stop. Past dates are rejected.
func (s *WizardService) SelectDate(ctx context.Context, sessionID string, date time.Time) (*models.SessionState, error) {
	defer s.lock(sessionID)()

	state, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.allow(ctx, sessionID); err != nil {
		return nil, err
	}
	if state.Step != models.StepDate {
		return nil, ErrInvalidTransition
	}

	today := s.now().In(s.loc).Format(models.DateLayout)
	if date.In(s.loc).Format(models.DateLayout) < today {
		return nil, database.ErrPastDate
	}

	if !state.Draft.Date.IsZero() && state.Draft.Date.Format(models.DateLayout) != date.Format(models.DateLayout) {
		state.Draft.Slot = nil
	}
	state.Draft.Date = date
	state.Step = models.StepStop
	return state, s.save(ctx, state)
}

// SelectStop moves Stop -> Schedule and pins the trip endpoints: the hotel
// is always one end, the stop the other.
func (s *WizardService) SelectStop(ctx context.Context, sessionID string, stopID int64) (*models.SessionState, error) {
	defer s.lock(sessionID)()

	state, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.allow(ctx, sessionID); err != nil {
		return nil, err
	}
	if state.Step != models.StepStop {
		return nil, ErrInvalidTransition
	}

	stop, ok := s.stops[stopID]
	if !ok {
		return nil, ErrUnknownStop
	}

	if state.Draft.StopID != 0 && state.Draft.StopID != stopID {
		state.Draft.Slot = nil
	}
	state.Draft.StopID = stopID
	state.Draft.FixEndpoints(s.hotelKey, stop.NameKey)
	state.Step = models.StepSchedule
	state.NextToken()
	return state, s.save(ctx, state)
}

// QuerySchedules runs the live availability query for the Schedule step.
// The returned token must accompany the eventual SelectSlot call; a
// session that has moved on in the meantime invalidates it. An empty slice
// is the valid "no schedules" state and the session stays on Schedule.
func (s *WizardService) QuerySchedules(ctx context.Context, sessionID string) ([]models.ScheduleSlot, int64, error) {
	unlock := s.lock(sessionID)
	state, err := s.session(ctx, sessionID)
	if err != nil {
		unlock()
		return nil, 0, err
	}
	if err := s.allow(ctx, sessionID); err != nil {
		unlock()
		return nil, 0, err
	}
	if state.Step != models.StepSchedule {
		unlock()
		return nil, 0, ErrInvalidTransition
	}
	token := state.QueryToken
	draft := state.Draft
	unlock()

	// The query itself runs outside the session lock: it suspends at the
	// store boundary and must not block a back navigation. The token makes
	// a late result harmless.
	slots, err := s.availability.QueryAvailable(ctx, draft.Direction, draft.Date, draft.StopID)
	if err != nil {
		return nil, 0, err
	}
	return slots, token, nil
}

// SelectSlot moves Schedule -> Details. token ties the choice to the query
// that produced it; a superseded token means the user navigated meanwhile
// and the stale result is discarded. Only the departure time is trusted
// from the caller: the slot is re-derived from the draft and the
// configured timetable, so a fabricated slot cannot enter the flow.
func (s *WizardService) SelectSlot(ctx context.Context, sessionID string, slot models.ScheduleSlot, token int64) (*models.SessionState, error) {
	defer s.lock(sessionID)()

	state, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.allow(ctx, sessionID); err != nil {
		return nil, err
	}
	if state.Step != models.StepSchedule {
		return nil, ErrInvalidTransition
	}
	if !state.Current(token) {
		return nil, ErrStaleQuery
	}

	if slot.StopID != state.Draft.StopID ||
		slot.Direction != state.Draft.Direction ||
		slot.Date.Format(models.DateLayout) != state.Draft.Date.Format(models.DateLayout) {
		return nil, ErrInvalidTransition
	}
	if !s.timetableHas(state.Draft, slot.Time) {
		return nil, ErrInvalidTransition
	}

	chosen := models.ScheduleSlot{
		Direction: state.Draft.Direction,
		Date:      state.Draft.Date,
		StopID:    state.Draft.StopID,
		Time:      slot.Time,
		Capacity:  s.capacity,
	}
	if s.pastCutoff(chosen) {
		return nil, ErrInvalidTransition
	}

	seats, err := s.availability.SeatsRemaining(ctx, chosen)
	if err != nil {
		return nil, err
	}
	if seats <= 0 {
		return nil, ErrInvalidTransition
	}
	chosen.SeatsRemaining = seats

	state.Draft.Slot = &chosen
	state.Step = models.StepDetails
	return state, s.save(ctx, state)
}

// timetableHas reports whether the time of day is a configured departure
// for the draft's stop and direction.
func (s *WizardService) timetableHas(draft models.DraftBooking, timeOfDay string) bool {
	stop, ok := s.stops[draft.StopID]
	if !ok {
		return false
	}
	for _, tod := range stop.DepartureTimes(draft.Direction) {
		if tod == timeOfDay {
			return true
		}
	}
	return false
}

// pastCutoff reports whether a same-day slot departs at or inside the
// booking cutoff. Future dates are never cut off.
func (s *WizardService) pastCutoff(slot models.ScheduleSlot) bool {
	now := s.now().In(s.loc)
	if slot.Date.In(s.loc).Format(models.DateLayout) != now.Format(models.DateLayout) {
		return false
	}
	departure, err := slot.Departure(s.loc)
	if err != nil {
		return true
	}
	return !departure.After(now.Add(s.cutoff))
}

// SubmitDetails moves Details -> Confirm. All validators for the chosen
// identity must pass against freshly fetched remaining seats, and the
// create (or modify) call must win any capacity race; losing it routes the
// session to Expired, because requerying schedules is the only recovery.
func (s *WizardService) SubmitDetails(ctx context.Context, sessionID string, input DetailsInput) (*models.BookingRecord, error) {
	defer s.lock(sessionID)()

	state, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.allow(ctx, sessionID); err != nil {
		return nil, err
	}
	if state.Step != models.StepDetails {
		return nil, ErrInvalidTransition
	}
	if state.Draft.Slot == nil {
		return nil, ErrInvalidTransition
	}

	state.Draft.Identity = input.Identity
	state.Draft.CheckIn = input.CheckIn
	state.Draft.CheckOut = input.CheckOut
	state.Draft.RoomCode = input.RoomCode
	state.Draft.DiningDate = input.DiningDate
	state.Draft.Name = input.Name
	state.Draft.Phone = input.Phone
	state.Draft.Email = input.Email
	state.Draft.PassengerCount = input.PassengerCount

	// Field values persist across a failed submit so nothing is retyped.
	if err := s.sessions.SaveSession(ctx, state); err != nil {
		return nil, err
	}

	// The cutoff applies at commit time too: a slot selected in time can
	// still close while the form sits open.
	if s.pastCutoff(*state.Draft.Slot) {
		return nil, s.expire(ctx, state)
	}

	seats, err := s.availability.SeatsRemaining(ctx, *state.Draft.Slot)
	if err != nil {
		return nil, err
	}

	// A modify session's own seats are not rivals: the store releases them
	// in the same transaction that re-checks the target slot.
	if state.ModifyOf != "" {
		current, err := s.store.Get(ctx, state.ModifyOf)
		if err != nil {
			return nil, err
		}
		if current.Status == models.StatusBooked && current.Slot != nil &&
			current.Slot.SameSlot(*state.Draft.Slot) {
			seats += current.PassengerCount
		}
	}

	fields := validation.Details(state.Draft, seats, s.maxPassengers)
	if !fields.OK() {
		if !fields["passengers"].OK && seats < state.Draft.PassengerCount &&
			state.Draft.PassengerCount <= s.maxPassengers && state.Draft.PassengerCount >= 1 {
			// The count was fine when the slot was chosen; the slot shrank
			// underneath us.
			return nil, s.expire(ctx, state)
		}
		return nil, &ValidationError{Fields: fields}
	}

	record, err := s.commit(ctx, state)
	if err != nil {
		if errors.Is(err, database.ErrCapacityConflict) {
			metrics.IncCapacityConflict()
			return nil, s.expire(ctx, state)
		}
		// Transient store failure: keep the draft intact on Details so an
		// explicit user retry resubmits without re-entering data.
		return nil, err
	}

	state.Step = models.StepConfirm
	if err := s.save(ctx, state); err != nil {
		return record, err
	}
	return record, nil
}

func (s *WizardService) commit(ctx context.Context, state *models.SessionState) (*models.BookingRecord, error) {
	if state.ModifyOf != "" {
		current, err := s.store.Get(ctx, state.ModifyOf)
		if err != nil {
			return nil, err
		}
		record, err := s.store.Modify(ctx, state.ModifyOf, current.Version, state.Draft)
		if err != nil {
			return nil, err
		}
		s.publishBooking(events.EventBookingModified, record)
		return record, nil
	}

	record := &models.BookingRecord{DraftBooking: state.Draft}
	if err := s.store.Create(ctx, record); err != nil {
		return nil, err
	}
	metrics.IncBookingCreated()
	s.publishBooking(events.EventBookingCreated, record)
	return record, nil
}

// Back returns to the previous step. Draft fields already entered persist;
// re-entering the Schedule step always re-queries live availability, which
// the bumped token enforces by invalidating any outstanding result.
func (s *WizardService) Back(ctx context.Context, sessionID string) (*models.SessionState, error) {
	defer s.lock(sessionID)()

	state, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.allow(ctx, sessionID); err != nil {
		return nil, err
	}

	prev, ok := state.Step.Prev()
	if !ok {
		return nil, ErrInvalidTransition
	}

	// Draft fields persist for revisited steps; the bumped token alone
	// forces a fresh availability query on the Schedule step.
	state.Step = prev
	state.NextToken()
	return state, s.save(ctx, state)
}

// Requery is the only way out of Expired: back to the Stop step with the
// stale slot cleared.
func (s *WizardService) Requery(ctx context.Context, sessionID string) (*models.SessionState, error) {
	defer s.lock(sessionID)()

	state, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.allow(ctx, sessionID); err != nil {
		return nil, err
	}
	if state.Step != models.StepExpired {
		return nil, ErrInvalidTransition
	}

	state.Draft.Slot = nil
	state.Step = models.StepStop
	state.NextToken()
	return state, s.save(ctx, state)
}

func (s *WizardService) expire(ctx context.Context, state *models.SessionState) error {
	state.Step = models.StepExpired
	state.NextToken()
	if err := s.save(ctx, state); err != nil {
		return err
	}
	return ErrScheduleExpired
}

func (s *WizardService) publishStep(state *models.SessionState) {
	if s.eventBus == nil {
		return
	}
	err := s.eventBus.PublishJSON(events.EventStepChanged, events.StepEventPayload{
		SessionID: state.SessionID,
		Step:      state.Step.String(),
		Language:  state.Language,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", state.SessionID).Msg("publish step event error")
	}
}

func (s *WizardService) publishBooking(eventType string, record *models.BookingRecord) {
	if s.eventBus == nil || record.Slot == nil {
		return
	}
	err := s.eventBus.PublishJSON(eventType, events.BookingEventPayload{
		BookingID:      record.ID,
		Direction:      string(record.Direction),
		Date:           record.Slot.Date,
		StopID:         record.StopID,
		Depart:         record.Slot.Time,
		PassengerCount: record.PassengerCount,
		Status:         record.Status,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("booking_id", record.ID).Str("event_type", eventType).Msg("publish booking event error")
	}
}
