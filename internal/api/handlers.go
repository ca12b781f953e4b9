package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Kenzy1995/Shuttle-system-sub000/internal/database"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/models"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/render"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/service"
)

func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  "validation failed",
			"fields": verr.Fields.ErrorKeys(),
		})
	case errors.Is(err, service.ErrScheduleExpired):
		// The slot was lost; the session is on Expired and only requery
		// recovers it.
		writeJSON(w, http.StatusGone, map[string]string{"error": "schedule expired"})
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrStaleQuery),
		errors.Is(err, database.ErrConcurrentModification):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUnknownStop),
		errors.Is(err, service.ErrAmbiguousQuery),
		errors.Is(err, database.ErrPastDate):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func parseDateField(w http.ResponseWriter, value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, true
	}
	date, err := time.Parse(models.DateLayout, value)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}

// handleSessions starts a new wizard session.
func (s *HTTPServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Language string `json:"language"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	state, err := s.wizard.StartSession(r.Context(), models.ParseLanguage(body.Language))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, state)
}

// handleSessionAction routes /api/v1/sessions/{id}[/{action}].
func (s *HTTPServer) handleSessionAction(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/sessions/")
	parts := strings.SplitN(rest, "/", 2)
	sessionID := strings.TrimSpace(parts[0])
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session id is required")
		return
	}

	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}

	ctx := r.Context()
	switch {
	case action == "" && r.Method == http.MethodGet:
		state, err := s.wizard.Session(ctx, sessionID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, state)

	case action == "view" && r.Method == http.MethodGet:
		s.handleSessionView(w, r, sessionID)

	case action == "schedules" && r.Method == http.MethodGet:
		slots, token, err := s.wizard.QuerySchedules(ctx, sessionID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"slots": slots,
			"token": token,
		})

	case r.Method != http.MethodPost:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")

	case action == "direction":
		var body struct {
			Direction models.Direction `json:"direction"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		state, err := s.wizard.SelectDirection(ctx, sessionID, body.Direction)
		s.respondState(w, state, err)

	case action == "date":
		var body struct {
			Date string `json:"date"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		date, ok := parseDateField(w, body.Date)
		if !ok {
			return
		}
		state, err := s.wizard.SelectDate(ctx, sessionID, date)
		s.respondState(w, state, err)

	case action == "stop":
		var body struct {
			StopID int64 `json:"stop_id"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		state, err := s.wizard.SelectStop(ctx, sessionID, body.StopID)
		s.respondState(w, state, err)

	case action == "slot":
		var body struct {
			Slot  models.ScheduleSlot `json:"slot"`
			Token int64               `json:"token"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		state, err := s.wizard.SelectSlot(ctx, sessionID, body.Slot, body.Token)
		s.respondState(w, state, err)

	case action == "details":
		s.handleDetails(w, r, sessionID)

	case action == "back":
		state, err := s.wizard.Back(ctx, sessionID)
		s.respondState(w, state, err)

	case action == "requery":
		state, err := s.wizard.Requery(ctx, sessionID)
		s.respondState(w, state, err)

	case action == "language":
		var body struct {
			Language string `json:"language"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		state, err := s.wizard.SetLanguage(ctx, sessionID, models.Language(body.Language))
		s.respondState(w, state, err)

	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *HTTPServer) respondState(w http.ResponseWriter, state *models.SessionState, err error) {
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *HTTPServer) handleDetails(w http.ResponseWriter, r *http.Request, sessionID string) {
	var body struct {
		Identity       models.Identity `json:"identity"`
		CheckIn        string          `json:"check_in"`
		CheckOut       string          `json:"check_out"`
		RoomCode       string          `json:"room_code"`
		DiningDate     string          `json:"dining_date"`
		Name           string          `json:"name"`
		Phone          string          `json:"phone"`
		Email          string          `json:"email"`
		PassengerCount int             `json:"passenger_count"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	checkIn, ok := parseDateField(w, body.CheckIn)
	if !ok {
		return
	}
	checkOut, ok := parseDateField(w, body.CheckOut)
	if !ok {
		return
	}
	diningDate, ok := parseDateField(w, body.DiningDate)
	if !ok {
		return
	}

	record, err := s.wizard.SubmitDetails(r.Context(), sessionID, service.DetailsInput{
		Identity:       body.Identity,
		CheckIn:        checkIn,
		CheckOut:       checkOut,
		RoomCode:       body.RoomCode,
		DiningDate:     diningDate,
		Name:           body.Name,
		Phone:          body.Phone,
		Email:          body.Email,
		PassengerCount: body.PassengerCount,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// handleSessionView renders the session's visible text slots in its
// current language.
func (s *HTTPServer) handleSessionView(w http.ResponseWriter, r *http.Request, sessionID string) {
	ctx := r.Context()
	state, err := s.wizard.Session(ctx, sessionID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	// Prefer the surface the render hub pushed on the last transition;
	// fall back to a live render when the hub never saw this session.
	if s.surfaces != nil {
		if snapshot := s.surfaces.Slots(sessionID); snapshot != nil {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"language":   state.Language,
				"step":       state.Step.String(),
				"text_slots": snapshot,
			})
			return
		}
	}

	vm := render.ViewModel{Step: state.Step, Draft: state.Draft}
	if state.Step == models.StepSchedule {
		slots, _, err := s.wizard.QuerySchedules(ctx, sessionID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		vm.Slots = slots
	}

	buf := render.NewSlotBuffer()
	s.newViewBinder(buf).Render(state.Language, vm)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"language":   state.Language,
		"step":       state.Step.String(),
		"text_slots": buf.Slots(),
	})
}

// handleBookings is the lookup entry: exactly one of booking_id, phone or
// email. An empty result is a valid empty-state.
func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	records, err := s.lookup.Find(r.Context(),
		strings.TrimSpace(q.Get("booking_id")),
		strings.TrimSpace(q.Get("phone")),
		strings.TrimSpace(q.Get("email")),
	)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	lang := models.ParseLanguage(q.Get("language"))
	buf := render.NewSlotBuffer()
	s.newViewBinder(buf).RenderLookup(lang, records)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"records":    records,
		"text_slots": buf.Slots(),
	})
}

// handleBookingAction routes /api/v1/bookings/{id}/{cancel|modify}.
func (s *HTTPServer) handleBookingAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/bookings/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "booking id and action are required")
		return
	}
	bookingID, action := parts[0], parts[1]

	switch action {
	case "cancel":
		if err := s.lookup.Cancel(r.Context(), bookingID); err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": models.StatusCancelled})

	case "modify":
		var body struct {
			Language string `json:"language"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		state, err := s.lookup.Modify(r.Context(), bookingID, models.ParseLanguage(body.Language))
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, state)

	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// handleDriverPosition feeds the mapping widget. The core only forwards a
// coordinate; the widget draws the marker.
func (s *HTTPServer) handleDriverPosition(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	if s.widget != nil {
		s.widget.SetDriverPosition(body.Lat, body.Lng)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
