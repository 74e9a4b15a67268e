package booking

import "time"

// CanCancel applies the patient-facing cancellation policy. A nil return
// means the cancellation is allowed.
//
// Terminal records are always denied. Unpaid holds are cheap to release, so
// anything not PAID may be cancelled at any time. PAID appointments may not
// be cancelled once the scheduled instant has passed, nor inside the final
// LeadTime window before it. A malformed date/time pair denies rather than
// escaping the boundary.
//
// Doctor-initiated cancellation deliberately bypasses this check: a doctor
// cancelling their own schedule is not subject to the notice window.
func CanCancel(appt *Appointment, now time.Time) error {
	if appt.Cancelled {
		return ErrAlreadyCancelled
	}
	if appt.IsCompleted {
		return ErrCancelCompleted
	}
	if appt.PaymentStatus != PaymentPaid {
		return nil
	}

	instant, err := SlotInstant(appt.SlotDate, appt.SlotTime, now.Location())
	if err != nil {
		return err
	}

	if now.After(instant) {
		return ErrAppointmentPassed
	}
	if !now.Before(instant.Add(-LeadTime)) {
		return ErrWithinCancelWindow
	}
	return nil
}
