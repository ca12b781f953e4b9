package models

import "time"

// Language is a supported UI language code.
type Language string

const (
	LangZH Language = "zh"
	LangEN Language = "en"
	LangJA Language = "ja"
	LangKO Language = "ko"
)

// DefaultLanguage is the universal fallback for every catalog lookup.
const DefaultLanguage = LangZH

// SupportedLanguages in presentation order.
var SupportedLanguages = []Language{LangZH, LangEN, LangJA, LangKO}

func (l Language) Supported() bool {
	for _, s := range SupportedLanguages {
		if l == s {
			return true
		}
	}
	return false
}

// ParseLanguage maps an arbitrary code to a supported language,
// falling back to zh for anything unrecognized.
func ParseLanguage(code string) Language {
	l := Language(code)
	if l.Supported() {
		return l
	}
	return DefaultLanguage
}

// Direction of a shuttle run. Outbound always originates at the hotel,
// inbound always terminates there.
type Direction string

const (
	DirectionOutbound Direction = "outbound"
	DirectionInbound  Direction = "inbound"
)

func (d Direction) Valid() bool {
	return d == DirectionOutbound || d == DirectionInbound
}

// Identity of the passenger, deciding which supplementary fields are required.
type Identity string

const (
	IdentityHotelGuest  Identity = "hotel_guest"
	IdentityDiningGuest Identity = "dining_guest"
)

func (i Identity) Valid() bool {
	return i == IdentityHotelGuest || i == IdentityDiningGuest
}

// Stop is a shuttle stop outside the hotel. NameKey is resolved through the
// locale catalog; departure times are fixed time-of-day values ("15:04").
type Stop struct {
	ID            int64    `yaml:"id" json:"id"`
	NameKey       string   `yaml:"name_key" json:"name_key"`
	OutboundTimes []string `yaml:"outbound_times" json:"outbound_times"`
	InboundTimes  []string `yaml:"inbound_times" json:"inbound_times"`
}

// DepartureTimes returns the fixed timetable for one direction.
func (s Stop) DepartureTimes(d Direction) []string {
	if d == DirectionInbound {
		return s.InboundTimes
	}
	return s.OutboundTimes
}

// ScheduleSlot is one bookable departure: direction+date+stop+time with
// finite remaining capacity. SeatsRemaining is a read-only snapshot; the
// booking store is the only writer.
type ScheduleSlot struct {
	Direction      Direction `json:"direction"`
	Date           time.Time `json:"date"`
	StopID         int64     `json:"stop_id"`
	Time           string    `json:"time"`
	Capacity       int       `json:"capacity"`
	SeatsRemaining int       `json:"seats_remaining"`
}

// Departure combines the slot's date and time-of-day in the given location.
func (s ScheduleSlot) Departure(loc *time.Location) (time.Time, error) {
	tod, err := time.Parse(TimeLayout, s.Time)
	if err != nil {
		return time.Time{}, err
	}
	d := s.Date
	return time.Date(d.Year(), d.Month(), d.Day(), tod.Hour(), tod.Minute(), 0, 0, loc), nil
}

// SameSlot reports whether two slots identify the same departure,
// ignoring the capacity snapshot.
func (s ScheduleSlot) SameSlot(o ScheduleSlot) bool {
	return s.Direction == o.Direction &&
		s.Date.Format(DateLayout) == o.Date.Format(DateLayout) &&
		s.StopID == o.StopID &&
		s.Time == o.Time
}

// Step is a wizard state. Values are ordered; Confirm is terminal-success
// and Expired is the terminal reached when the chosen slot is lost.
type Step int

const (
	StepDirection Step = iota
	StepDate
	StepStop
	StepSchedule
	StepDetails
	StepConfirm
	StepExpired
)

var stepNames = map[Step]string{
	StepDirection: "direction",
	StepDate:      "date",
	StepStop:      "stop",
	StepSchedule:  "schedule",
	StepDetails:   "details",
	StepConfirm:   "confirm",
	StepExpired:   "expired",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "unknown"
}

// Prev returns the previous wizard step. The second result is false when
// there is nothing to go back to (initial step and the terminals).
func (s Step) Prev() (Step, bool) {
	if s <= StepDirection || s > StepDetails {
		return s, false
	}
	return s - 1, true
}
