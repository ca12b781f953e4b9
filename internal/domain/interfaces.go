package domain

import (
	"context"
	"time"

	"github.com/Kenzy1995/Shuttle-system-sub000/internal/models"
)

// BookingQuery identifies records for lookup. Exactly one of BookingID,
// Phone or Email must be set; Since bounds the match window.
type BookingQuery struct {
	BookingID string
	Phone     string
	Email     string
	Since     time.Time
}

// BookingStore is the booking service contract: it owns Booking Records and
// serializes seat capacity. Create and Modify reject with a capacity
// conflict when the slot cannot seat the requested passengers.
type BookingStore interface {
	Create(ctx context.Context, record *models.BookingRecord) error
	Get(ctx context.Context, id string) (*models.BookingRecord, error)
	Cancel(ctx context.Context, id string, version int64) error
	Modify(ctx context.Context, id string, version int64, draft models.DraftBooking) (*models.BookingRecord, error)
	Find(ctx context.Context, q BookingQuery) ([]*models.BookingRecord, error)
	BookedSeats(ctx context.Context, slot models.ScheduleSlot) (int, error)
}

// StateRepository persists wizard session state.
type StateRepository interface {
	GetState(ctx context.Context, sessionID string) (*models.SessionState, error)
	SetState(ctx context.Context, state *models.SessionState) error
	ClearState(ctx context.Context, sessionID string) error
	CheckRateLimit(ctx context.Context, sessionID string, limit int, window time.Duration) (bool, error)
}

// SessionManager is the session-state facade the wizard builds on.
type SessionManager interface {
	GetSession(ctx context.Context, sessionID string) (*models.SessionState, error)
	SaveSession(ctx context.Context, state *models.SessionState) error
	ClearSession(ctx context.Context, sessionID string) error
	CheckRateLimit(ctx context.Context, sessionID string, limit int, window time.Duration) (bool, error)
}

// AvailabilityQuerier is the wizard's read path for schedule slots.
type AvailabilityQuerier interface {
	QueryAvailable(ctx context.Context, direction models.Direction, date time.Time, stopID int64) ([]models.ScheduleSlot, error)
	SeatsRemaining(ctx context.Context, slot models.ScheduleSlot) (int, error)
}

// EventPublisher decouples producers from the in-process event bus.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// PresentationSurface receives rendered text by slot name. Rich entries
// arrive pre-split into lines.
type PresentationSurface interface {
	SetSlot(name string, lines []string)
}

// MapWidget is the third-party map the core feeds but never inspects.
type MapWidget interface {
	SetDriverPosition(lat, lng float64)
}

// ManifestScheduler queues daily manifest exports.
type ManifestScheduler interface {
	EnqueueManifest(ctx context.Context, date time.Time) error
}
