package service

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/Kenzy1995/Shuttle-system-sub000/internal/config"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/domain"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/models"
)

// AvailabilityService computes the viable schedule slots for a direction,
// date and stop. It is a read path: remaining seats come from the booking
// store per query and are never cached, so a capacity check is always as
// fresh as the query that produced it.
type AvailabilityService struct {
	store  domain.BookingStore
	stops  map[int64]models.Stop
	cap    int
	cutoff time.Duration
	loc    *time.Location
	logger *zerolog.Logger

	now func() time.Time
}

func NewAvailabilityService(store domain.BookingStore, cfg config.ShuttleConfig, logger *zerolog.Logger) *AvailabilityService {
	stops := make(map[int64]models.Stop, len(cfg.Stops))
	for _, stop := range cfg.Stops {
		stops[stop.ID] = stop
	}

	return &AvailabilityService{
		store:  store,
		stops:  stops,
		cap:    cfg.SeatCapacity,
		cutoff: time.Duration(cfg.CutoffMinutes) * time.Minute,
		loc:    cfg.Location(),
		logger: logger,
		now:    time.Now,
	}
}

// QueryAvailable returns the slots with free seats, ascending by time of
// day. Same-day slots departing within the cutoff are excluded; future
// dates are unfiltered by cutoff. An empty result is a valid "no
// schedules" state, not an error.
func (s *AvailabilityService) QueryAvailable(ctx context.Context, direction models.Direction, date time.Time, stopID int64) ([]models.ScheduleSlot, error) {
	stop, ok := s.stops[stopID]
	if !ok {
		return nil, ErrUnknownStop
	}

	now := s.now().In(s.loc)
	sameDay := date.In(s.loc).Format(models.DateLayout) == now.Format(models.DateLayout)
	horizon := now.Add(s.cutoff)

	slots := make([]models.ScheduleSlot, 0, len(stop.DepartureTimes(direction)))
	for _, tod := range stop.DepartureTimes(direction) {
		slot := models.ScheduleSlot{
			Direction: direction,
			Date:      date,
			StopID:    stopID,
			Time:      tod,
			Capacity:  s.cap,
		}

		if sameDay {
			departure, err := slot.Departure(s.loc)
			if err != nil {
				s.logger.Warn().Str("time", tod).Int64("stop_id", stopID).Msg("skipping malformed departure time")
				continue
			}
			// Strictly after now + cutoff: a departure exactly at the
			// horizon is already closed.
			if !departure.After(horizon) {
				continue
			}
		}

		booked, err := s.store.BookedSeats(ctx, slot)
		if err != nil {
			return nil, err
		}
		slot.SeatsRemaining = s.cap - booked
		if slot.SeatsRemaining <= 0 {
			continue
		}

		slots = append(slots, slot)
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].Time < slots[j].Time })
	return slots, nil
}

// SeatsRemaining re-fetches the live remaining capacity for one slot.
func (s *AvailabilityService) SeatsRemaining(ctx context.Context, slot models.ScheduleSlot) (int, error) {
	booked, err := s.store.BookedSeats(ctx, slot)
	if err != nil {
		return 0, err
	}
	remaining := s.cap - booked
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
