package render

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Kenzy1995/Shuttle-system-sub000/internal/domain"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/events"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/i18n"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/models"
)

// ViewModel is everything the binder may need to render one session view.
// It carries keys and raw values only; all visible text comes out of the
// catalog at render time.
type ViewModel struct {
	Step    models.Step
	Draft   models.DraftBooking
	Slots   []models.ScheduleSlot
	Errors  map[string]string // field name -> error key
	Records []*models.BookingRecord
}

// ViewModelProvider resolves the current view of a session when an event
// asks for a re-render.
type ViewModelProvider func(sessionID string) (models.Language, ViewModel, error)

var stepKeys = map[models.Step]string{
	models.StepDirection: i18n.KeyStepDirection,
	models.StepDate:      i18n.KeyStepDate,
	models.StepStop:      i18n.KeyStepStop,
	models.StepSchedule:  i18n.KeyStepSchedule,
	models.StepDetails:   i18n.KeyStepDetails,
	models.StepConfirm:   i18n.KeyStepConfirm,
	models.StepExpired:   i18n.KeyExpired,
}

// Binder applies the locale catalog to every visible text slot. It mutates
// only the presentation surface, never the draft or any record, and it
// never executes markup from the catalog beyond the fixed line-break
// convention.
type Binder struct {
	catalog *i18n.Catalog
	surface domain.PresentationSurface
	widget  domain.MapWidget
	logger  *zerolog.Logger
}

func NewBinder(catalog *i18n.Catalog, surface domain.PresentationSurface, widget domain.MapWidget, logger *zerolog.Logger) *Binder {
	return &Binder{
		catalog: catalog,
		surface: surface,
		widget:  widget,
		logger:  logger,
	}
}

func (b *Binder) set(lang models.Language, slot, key string) {
	b.surface.SetSlot(slot, i18n.Lines(b.catalog.Resolve(lang, key)))
}

// Render re-resolves every visible text node for the given language. A
// language switch re-renders through here with the same view model, so the
// wizard step and draft are untouched.
func (b *Binder) Render(lang models.Language, vm ViewModel) {
	b.set(lang, "title", i18n.KeyTitle)
	b.set(lang, "stepLabel", stepKeys[vm.Step])

	if vm.Step > models.StepDirection && vm.Step < models.StepConfirm {
		b.set(lang, "backAction", i18n.KeyBack)
	}

	switch vm.Step {
	case models.StepDirection:
		b.set(lang, "optionOutbound", i18n.KeyOutbound)
		b.set(lang, "optionInbound", i18n.KeyInbound)
	case models.StepSchedule:
		if len(vm.Slots) == 0 {
			b.set(lang, "scheduleEmpty", i18n.KeyNoSchedules)
		} else {
			b.renderSlots(lang, vm.Slots)
		}
	case models.StepDetails:
		b.set(lang, "optionHotelGuest", i18n.KeyIdentityHotel)
		b.set(lang, "optionDiningGuest", i18n.KeyIdentityDining)
		for field, key := range vm.Errors {
			b.set(lang, "error."+field, key)
		}
	case models.StepConfirm:
		b.set(lang, "notice", i18n.KeyConfirmNotice)
		// The success pill always carries the booked status label.
		b.surface.SetSlot("successStatusPill",
			i18n.Lines(b.catalog.ResolveStatus(lang, models.StatusBooked)))
	case models.StepExpired:
		b.set(lang, "requeryAction", i18n.KeyRequery)
	}

	if vm.Draft.PickupKey != "" {
		b.set(lang, "pickup", vm.Draft.PickupKey)
	}
	if vm.Draft.DropoffKey != "" {
		b.set(lang, "dropoff", vm.Draft.DropoffKey)
	}
}

func (b *Binder) renderSlots(lang models.Language, slots []models.ScheduleSlot) {
	lines := make([]string, 0, len(slots))
	for _, slot := range slots {
		lines = append(lines, fmt.Sprintf("%s (%d)", slot.Time, slot.SeatsRemaining))
	}
	b.surface.SetSlot("scheduleTimes", lines)
}

// RenderLookup shows found records with localized status labels, or the
// empty-state hint when nothing matched.
func (b *Binder) RenderLookup(lang models.Language, records []*models.BookingRecord) {
	b.set(lang, "lookupHint", i18n.KeyLookupHint)
	if len(records) == 0 {
		b.set(lang, "lookupEmpty", i18n.KeyLookupEmpty)
		return
	}

	lines := make([]string, 0, len(records))
	for _, record := range records {
		status := b.catalog.ResolveStatus(lang, record.Status)
		lines = append(lines, fmt.Sprintf("%s %s %s — %s",
			record.Date.Format(models.DateLayout), record.Slot.Time,
			b.catalog.Resolve(lang, record.DropoffKey), status))
	}
	b.surface.SetSlot("lookupRecords", lines)
}

// UpdateDriverPosition forwards a coordinate to the mapping widget. The
// widget is a black box: it accepts a coordinate and displays a marker.
func (b *Binder) UpdateDriverPosition(lat, lng float64) {
	if b.widget == nil {
		return
	}
	b.widget.SetDriverPosition(lat, lng)
}

// Hub listens for step and language changes and keeps one rendered
// surface per session in the registry. Each re-render goes to a fresh
// buffer, so slots from an earlier step never linger in the snapshot.
type Hub struct {
	catalog  *i18n.Catalog
	surfaces *SurfaceRegistry
	widget   domain.MapWidget
	logger   *zerolog.Logger
}

func NewHub(catalog *i18n.Catalog, surfaces *SurfaceRegistry, widget domain.MapWidget, logger *zerolog.Logger) *Hub {
	return &Hub{
		catalog:  catalog,
		surfaces: surfaces,
		widget:   widget,
		logger:   logger,
	}
}

// Subscribe re-renders the session's surface on step and language
// changes. The provider supplies the session's current language and
// view; the hub itself holds no session state beyond the registry.
func (h *Hub) Subscribe(bus *events.EventBus, provider ViewModelProvider) {
	rerender := func(sessionID string) {
		lang, vm, err := provider(sessionID)
		if err != nil {
			h.logger.Error().Err(err).Str("session_id", sessionID).Msg("view model unavailable, skipping render")
			return
		}
		buf := NewSlotBuffer()
		NewBinder(h.catalog, buf, h.widget, h.logger).Render(lang, vm)
		h.surfaces.Set(sessionID, buf)
	}

	bus.Subscribe(events.EventStepChanged, func(event *events.Event) error {
		var payload events.StepEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return err
		}
		rerender(payload.SessionID)
		return nil
	})

	bus.Subscribe(events.EventLanguageChanged, func(event *events.Event) error {
		var payload events.LanguageEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return err
		}
		rerender(payload.SessionID)
		return nil
	})
}
