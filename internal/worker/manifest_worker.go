package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Kenzy1995/Shuttle-system-sub000/internal/events"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/models"
)

// BookingLister is the slice of the booking store the worker reads.
type BookingLister interface {
	ListByDate(ctx context.Context, date time.Time) ([]*models.BookingRecord, error)
}

// ManifestWriter regenerates the manifest file for one date.
type ManifestWriter interface {
	WriteDaily(date time.Time, records []*models.BookingRecord) (string, error)
}

// ManifestWorker regenerates daily manifests off the hot path. Booking
// events enqueue the affected date; the worker dedupes nothing and retries
// with backoff, since a manifest write is idempotent per date.
type ManifestWorker struct {
	store       BookingLister
	writer      ManifestWriter
	retryPolicy RetryPolicy
	queue       chan time.Time
	logger      *zerolog.Logger
}

func NewManifestWorker(store BookingLister, writer ManifestWriter, retry RetryPolicy, logger *zerolog.Logger) *ManifestWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	return &ManifestWorker{
		store:       store,
		writer:      writer,
		retryPolicy: retry,
		queue:       make(chan time.Time, models.ManifestQueueSize),
		logger:      logger,
	}
}

// EnqueueManifest schedules a regeneration for one service date. A full
// queue drops the task with an error; the next booking event for the date
// will schedule it again.
func (w *ManifestWorker) EnqueueManifest(ctx context.Context, date time.Time) error {
	select {
	case w.queue <- date:
		return nil
	default:
		return errors.New("manifest queue is full")
	}
}

// Subscribe wires the worker to booking events on the bus.
func (w *ManifestWorker) Subscribe(bus *events.EventBus) {
	handler := func(event *events.Event) error {
		var payload events.BookingEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return err
		}
		return w.EnqueueManifest(context.Background(), payload.Date)
	}

	bus.Subscribe(events.EventBookingCreated, handler)
	bus.Subscribe(events.EventBookingCancel, handler)
	bus.Subscribe(events.EventBookingModified, handler)
}

// Start consumes the queue until the context is cancelled.
func (w *ManifestWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("manifest worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("manifest worker stopping")
			return
		case date := <-w.queue:
			w.process(ctx, date)
		}
	}
}

func (w *ManifestWorker) process(ctx context.Context, date time.Time) {
	for attempt := 1; attempt <= w.retryPolicy.MaxRetries; attempt++ {
		records, err := w.store.ListByDate(ctx, date)
		if err == nil {
			var path string
			path, err = w.writer.WriteDaily(date, records)
			if err == nil {
				w.logger.Debug().Str("path", path).Str("date", date.Format(models.DateLayout)).Msg("manifest written")
				return
			}
		}

		w.logger.Warn().Err(err).Int("attempt", attempt).
			Str("date", date.Format(models.DateLayout)).Msg("manifest export failed")

		if attempt == w.retryPolicy.MaxRetries {
			w.logger.Error().Str("date", date.Format(models.DateLayout)).Msg("manifest export dropped after retries")
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.retryPolicy.NextDelay(attempt)):
		}
	}
}
