// Package policy holds the provider configured time rules: how far ahead a
// booking may be made and how late it may still be canceled.
package policy

import (
	"time"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/civiltime"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

type Window int

const (
	WithinWindow Window = iota
	PastDate
	TooFarAhead
)

// BookingWindow compares local calendar days: target must fall between today
// and today+maxDays inclusive.
func BookingWindow(now, target time.Time, maxDays int) Window {
	diff := civiltime.DaysBetween(now, target)
	switch {
	case diff < 0:
		return PastDate
	case diff > maxDays:
		return TooFarAhead
	default:
		return WithinWindow
	}
}

type Cancel int

const (
	CancelAllowed Cancel = iota
	// AlreadyCanceled is reported as success without a write.
	AlreadyCanceled
	AlreadyCompleted
	TooLateToCancel
)

// Cancellation decides whether an appointment may be canceled at now given
// the provider's minimum lead time in hours. A scheduled appointment that has
// already ended counts as completed even before the sweep marks it DONE.
func Cancellation(a model.Appointment, now time.Time, leadHours int) Cancel {
	switch a.Status {
	case model.StatusCanceled:
		return AlreadyCanceled
	case model.StatusDone:
		return AlreadyCompleted
	}
	if !a.End(0).After(now) {
		return AlreadyCompleted
	}
	if a.Date.Sub(now).Hours() < float64(leadHours) {
		return TooLateToCancel
	}
	return CancelAllowed
}
