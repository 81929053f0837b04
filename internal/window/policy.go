// Package window decides when a meal for a given day may be booked or
// cancelled. It is pure: the caller supplies now.
package window

import (
	"fmt"
	"time"

	"mess-backend/internal/apperror"
	"mess-backend/internal/models"
)

const (
	// Booking for day D opens on D-1 at 11:00.
	openHour   = 11
	openMinute = 0

	// Booking and cancellation for day D close at D 10:30. The close instant
	// itself is still allowed.
	closeHour   = 10
	closeMinute = 30
)

const displayLayout = "2006-01-02 15:04"

type Policy struct {
	loc *time.Location
}

// New returns a policy evaluated in loc. A nil loc means UTC.
func New(loc *time.Location) Policy {
	if loc == nil {
		loc = time.UTC
	}
	return Policy{loc: loc}
}

func (p Policy) Location() *time.Location { return p.location() }

func (p Policy) location() *time.Location {
	if p.loc == nil {
		return time.UTC
	}
	return p.loc
}

// OpenTime is the first instant a booking for date is accepted.
func (p Policy) OpenTime(date models.Date) time.Time {
	return date.AddDays(-1).At(openHour, openMinute, p.location())
}

// CloseTime is the last instant a booking for date may be created or cancelled.
func (p Policy) CloseTime(date models.Date) time.Time {
	return date.At(closeHour, closeMinute, p.location())
}

func (p Policy) IsBookingOpen(now time.Time, date models.Date) bool {
	return !now.Before(p.OpenTime(date)) && !now.After(p.CloseTime(date))
}

func (p Policy) IsCancelOpen(now time.Time, date models.Date) bool {
	return !now.After(p.CloseTime(date))
}

// CheckBooking returns a WindowClosed error carrying both bounds when now is
// outside the creation window for date.
func (p Policy) CheckBooking(now time.Time, date models.Date) error {
	if p.IsBookingOpen(now, date) {
		return nil
	}
	w := apperror.Window{Opens: p.OpenTime(date), Closes: p.CloseTime(date)}
	return apperror.WindowClosed(fmt.Sprintf("Booking for %s is allowed between %s and %s",
		date, w.Opens.Format(displayLayout), w.Closes.Format(displayLayout)), w)
}

// CheckCancel returns a WindowClosed error carrying the cutoff when now is
// past the cancellation deadline for date.
func (p Policy) CheckCancel(now time.Time, date models.Date) error {
	if p.IsCancelOpen(now, date) {
		return nil
	}
	w := apperror.Window{Closes: p.CloseTime(date)}
	return apperror.WindowClosed(fmt.Sprintf("Cannot cancel. Deadline was %s",
		w.Closes.Format(displayLayout)), w)
}

// Today is the calendar day now falls on in the policy's location.
func (p Policy) Today(now time.Time) models.Date {
	return models.DateOf(now.In(p.location()))
}
