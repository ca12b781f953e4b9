package models

import "time"

// DraftBooking is the in-progress reservation accumulated across wizard
// steps. It is owned by one wizard session and never shared.
type DraftBooking struct {
	Direction      Direction     `json:"direction"`
	Date           time.Time     `json:"date"`
	StopID         int64         `json:"stop_id"`
	Slot           *ScheduleSlot `json:"slot,omitempty"`
	Identity       Identity      `json:"identity"`
	CheckIn        time.Time     `json:"check_in,omitempty"`
	CheckOut       time.Time     `json:"check_out,omitempty"`
	RoomCode       string        `json:"room_code,omitempty"`
	DiningDate     time.Time     `json:"dining_date,omitempty"`
	Name           string        `json:"name"`
	Phone          string        `json:"phone"`
	Email          string        `json:"email"`
	PickupKey      string        `json:"pickup_key"`
	DropoffKey     string        `json:"dropoff_key"`
	PassengerCount int           `json:"passenger_count"`
}

// FixEndpoints pins one end of the trip to the hotel according to the
// direction and the other end to the stop's name key.
func (d *DraftBooking) FixEndpoints(hotelKey, stopKey string) {
	if d.Direction == DirectionInbound {
		d.PickupKey = stopKey
		d.DropoffKey = hotelKey
		return
	}
	d.PickupKey = hotelKey
	d.DropoffKey = stopKey
}

// BookingRecord is the committed, store-owned form of a draft with a
// server-issued id and a status.
type BookingRecord struct {
	ID string `json:"id"`
	DraftBooking
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int64     `json:"version"`
}

// Draft returns the editable view of the record for re-entering the wizard.
func (b *BookingRecord) Draft() DraftBooking {
	d := b.DraftBooking
	if b.DraftBooking.Slot != nil {
		slot := *b.DraftBooking.Slot
		d.Slot = &slot
	}
	return d
}
