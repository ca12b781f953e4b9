package models

// Booking record statuses as stored by the booking store.
const (
	StatusBooked    = "booked"
	StatusCancelled = "cancelled"
	StatusRejected  = "rejected"
	StatusBoarded   = "boarded"
	StatusExpired   = "expired"
)

const (
	// DateLayout is the canonical date format for slot dates and storage.
	DateLayout = "2006-01-02"

	// TimeLayout is the canonical time-of-day format for departures.
	TimeLayout = "15:04"
)

const (
	// MaxPassengersPerBooking caps one reservation regardless of free seats.
	MaxPassengersPerBooking = 4

	// CutoffMinutes is the same-day booking cutoff before departure.
	CutoffMinutes = 60

	// LookupWindowDays bounds how far back booking lookup will match.
	LookupWindowDays = 30

	// RoomNotCheckedIn is the privileged room-code sentinel for guests
	// who have not checked in yet. It is not a real room.
	RoomNotCheckedIn = "0000"

	// DefaultSeatCapacity per departure when config does not override it.
	DefaultSeatCapacity = 10
)

const (
	// DefaultSessionTTL is the lifetime of a wizard session in Redis, seconds.
	DefaultSessionTTL = 24 * 60 * 60

	// RateLimitRequests is the per-session request budget per window.
	RateLimitRequests = 30

	// RateLimitWindow in seconds.
	RateLimitWindow = 60

	// ManifestQueueSize is the export worker queue capacity.
	ManifestQueueSize = 256
)
