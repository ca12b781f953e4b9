package validation

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Kenzy1995/Shuttle-system-sub000/internal/i18n"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/models"
)

// Result of a single field check. ErrorKey is a locale catalog key and is
// resolved to text only by the presentation binder.
type Result struct {
	OK       bool
	ErrorKey string
}

func pass() Result           { return Result{OK: true} }
func fail(key string) Result { return Result{ErrorKey: key} }

var (
	validate = validator.New()

	// Local mobile numbers (09xxxxxxxx) or the +886 international form.
	phoneRe = regexp.MustCompile(`^(09\d{8}|\+8869\d{8})$`)

	// Rooms are three or four digits; "0000" is handled as a sentinel
	// before this pattern applies.
	roomRe = regexp.MustCompile(`^[1-9]\d{2,3}$`)
)

// Identity passes iff one of the two guest types is selected.
func Identity(id models.Identity) Result {
	if !id.Valid() {
		return fail(i18n.KeyErrIdentity)
	}
	return pass()
}

// RoomCode is required for hotel guests only. The literal "0000" means
// "not yet checked in" and always passes.
func RoomCode(id models.Identity, room string) Result {
	if id != models.IdentityHotelGuest {
		return pass()
	}
	room = strings.TrimSpace(room)
	if room == models.RoomNotCheckedIn {
		return pass()
	}
	if !roomRe.MatchString(room) {
		return fail(i18n.KeyErrRoom)
	}
	return pass()
}

// Name must be non-empty after trimming.
func Name(name string) Result {
	if strings.TrimSpace(name) == "" {
		return fail(i18n.KeyErrName)
	}
	return pass()
}

// Phone must match a locally valid mobile pattern.
func Phone(phone string) Result {
	if !phoneRe.MatchString(strings.TrimSpace(phone)) {
		return fail(i18n.KeyErrPhone)
	}
	return pass()
}

// Email must be a well-formed address.
func Email(email string) Result {
	if err := validate.Var(strings.TrimSpace(email), "required,email"); err != nil {
		return fail(i18n.KeyErrEmail)
	}
	return pass()
}

// PassengerCount enforces 1 <= count <= min(maxPerBooking, seatsRemaining).
// Callers must pass a freshly fetched seatsRemaining before final
// submission; a cached value can let a stale capacity through.
// maxPerBooking <= 0 falls back to the default cap.
func PassengerCount(count, seatsRemaining, maxPerBooking int) Result {
	max := maxPerBooking
	if max <= 0 {
		max = models.MaxPassengersPerBooking
	}
	if seatsRemaining < max {
		max = seatsRemaining
	}
	if count < 1 || count > max {
		return fail(i18n.KeyErrPassengers)
	}
	return pass()
}

// Fields maps field names to their check results for one details form.
type Fields map[string]Result

// OK reports whether every field passed.
func (f Fields) OK() bool {
	for _, r := range f {
		if !r.OK {
			return false
		}
	}
	return true
}

// ErrorKeys returns the error keys of failing fields, keyed by field name.
func (f Fields) ErrorKeys() map[string]string {
	keys := make(map[string]string)
	for name, r := range f {
		if !r.OK {
			keys[name] = r.ErrorKey
		}
	}
	return keys
}

// Details runs every validator relevant to the draft's identity against the
// given live seatsRemaining and the configured per-booking passenger cap.
// Identity-specific dates count toward the identity check: a guest type
// whose required dates are missing has not completed that selection.
func Details(draft models.DraftBooking, seatsRemaining, maxPerBooking int) Fields {
	fields := Fields{
		"identity":   Identity(draft.Identity),
		"room":       RoomCode(draft.Identity, draft.RoomCode),
		"name":       Name(draft.Name),
		"phone":      Phone(draft.Phone),
		"email":      Email(draft.Email),
		"passengers": PassengerCount(draft.PassengerCount, seatsRemaining, maxPerBooking),
	}

	if fields["identity"].OK {
		switch draft.Identity {
		case models.IdentityHotelGuest:
			if draft.CheckIn.IsZero() || draft.CheckOut.IsZero() {
				fields["identity"] = fail(i18n.KeyErrIdentity)
			}
		case models.IdentityDiningGuest:
			if draft.DiningDate.IsZero() {
				fields["identity"] = fail(i18n.KeyErrIdentity)
			}
		}
	}

	return fields
}
