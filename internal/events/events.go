package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/Kenzy1995/Shuttle-system-sub000/internal/models"
)

const (
	EventStepChanged     = "step_changed"
	EventLanguageChanged = "language_changed"
	EventBookingCreated  = "booking_created"
	EventBookingCancel   = "booking_cancelled"
	EventBookingModified = "booking_modified"
)

// StepEventPayload notifies subscribers that a session moved to a new step.
type StepEventPayload struct {
	SessionID string          `json:"session_id"`
	Step      string          `json:"step"`
	Language  models.Language `json:"language"`
}

// LanguageEventPayload notifies subscribers of a session language switch.
// The wizard step and draft are untouched by the switch.
type LanguageEventPayload struct {
	SessionID string          `json:"session_id"`
	Language  models.Language `json:"language"`
}

// BookingEventPayload is the minimal booking snapshot for event consumers.
type BookingEventPayload struct {
	BookingID      string    `json:"booking_id"`
	Direction      string    `json:"direction"`
	Date           time.Time `json:"date"`
	StopID         int64     `json:"stop_id"`
	Depart         string    `json:"depart"`
	PassengerCount int       `json:"passenger_count"`
	Status         string    `json:"status"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub. The presentation binder and the
// manifest worker subscribe; the wizard and lookup services publish.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
