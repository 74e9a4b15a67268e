package booking

import (
	"errors"
	"fmt"
)

var (
	// Validation
	ErrBadDateKey       = errors.New("invalid slot date, want D_M_YYYY")
	ErrBadSlotTime      = errors.New("invalid slot time, want HH:MM")
	ErrBadWorkingHours  = errors.New("invalid doctor working hours")
	ErrBadGatewayStatus = errors.New("invalid gateway status")

	// Booking
	ErrDoctorUnavailable = errors.New("doctor not available")
	ErrSlotTaken         = errors.New("slot not available")
	ErrSlotBeingBooked   = errors.New("slot is currently being booked, please retry")

	// Cancellation policy
	ErrAlreadyCancelled   = errors.New("appointment already cancelled")
	ErrCancelCompleted    = errors.New("cannot cancel a completed appointment")
	ErrAppointmentPassed  = errors.New("appointment has already passed, cannot cancel")
	ErrWithinCancelWindow = errors.New("cannot cancel within 1 hour of appointment time")

	// Lifecycle
	ErrInvalidTransition = errors.New("appointment state does not allow this transition")
	ErrNotPaid           = errors.New("appointment is not paid")

	ErrUnauthorized = errors.New("unauthorized action")
)

type ConflictRule int

const (
	RuleSameDoctor ConflictRule = iota + 1
	RuleSameSpeciality
	RuleSameTime
)

// ConflictError reports which booking rule rejected the request. ExistingTime
// is the slot time of the record that triggered the rule, for user messaging.
type ConflictError struct {
	Rule         ConflictRule
	SlotDate     string
	ExistingTime string
	Speciality   string
}

func (e *ConflictError) Error() string {
	switch e.Rule {
	case RuleSameDoctor:
		return fmt.Sprintf("you already have an appointment with this doctor on %s at %s", e.SlotDate, e.ExistingTime)
	case RuleSameSpeciality:
		return fmt.Sprintf("you already have a %s appointment on %s at %s", e.Speciality, e.SlotDate, e.ExistingTime)
	case RuleSameTime:
		return fmt.Sprintf("you already have another appointment at this time on %s", e.SlotDate)
	default:
		return "booking conflict"
	}
}

// IsValidationError reports whether err comes from malformed caller input.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrBadDateKey) || errors.Is(err, ErrBadSlotTime) ||
		errors.Is(err, ErrBadWorkingHours) || errors.Is(err, ErrBadGatewayStatus)
}

// IsPolicyDenied reports whether err is a cancellation-policy denial.
func IsPolicyDenied(err error) bool {
	return errors.Is(err, ErrAlreadyCancelled) ||
		errors.Is(err, ErrCancelCompleted) ||
		errors.Is(err, ErrAppointmentPassed) ||
		errors.Is(err, ErrWithinCancelWindow)
}
