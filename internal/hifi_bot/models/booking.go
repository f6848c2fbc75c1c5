package models

import "time"

const (
	bookingTimeLayout   = "2006-01-02 15:04:05"
	bookingTimeLocation = "Europe/Moscow"
)

// BookingRecord is one row appended to the bookings sheet. It is never updated.
type BookingRecord struct {
	Name          string    `json:"name"`
	Phone         string    `json:"phone"`
	RequestedDate string    `json:"requested_date"`
	Comment       string    `json:"comment"`
	ReceivedAt    time.Time `json:"received_at"`
}

// Row renders the record in sheet column order A:E.
func (r BookingRecord) Row() []interface{} {
	return []interface{}{
		r.ReceivedAt.In(moscow()).Format(bookingTimeLayout),
		r.Name,
		r.Phone,
		r.RequestedDate,
		r.Comment,
	}
}

// moscow falls back to a fixed UTC+3 zone when tzdata is unavailable
func moscow() *time.Location {
	loc, err := time.LoadLocation(bookingTimeLocation)
	if err != nil {
		return time.FixedZone("MSK", 3*60*60)
	}
	return loc
}

// PendingBooking is a booking record waiting for another append attempt.
type PendingBooking struct {
	Key    string
	Record BookingRecord
}
