package booking

import "github.com/google/uuid"

// CheckConflicts evaluates a prospective booking against the patient's
// existing records under the three policy rules, in order, first match wins:
//
//  1. another active appointment with the same doctor on the same date
//  2. another active appointment with the same speciality on the same date,
//     held with a different doctor (speciality read from the stored snapshot)
//  3. another active appointment at the exact same date and time, any doctor
//
// existing is expected to hold the patient's active records for slotDate; any
// cancelled, completed or other-date records are skipped defensively. A nil
// return means no conflict.
func CheckConflicts(doctorID uuid.UUID, speciality, slotDate, slotTime string, existing []Appointment) error {
	for _, appt := range existing {
		if !appt.Active() || appt.SlotDate != slotDate {
			continue
		}
		if appt.DoctorID == doctorID {
			return &ConflictError{
				Rule:         RuleSameDoctor,
				SlotDate:     slotDate,
				ExistingTime: appt.SlotTime,
			}
		}
	}

	for _, appt := range existing {
		if !appt.Active() || appt.SlotDate != slotDate {
			continue
		}
		if appt.DoctorID != doctorID && appt.DoctorData.Speciality == speciality {
			return &ConflictError{
				Rule:         RuleSameSpeciality,
				SlotDate:     slotDate,
				ExistingTime: appt.SlotTime,
				Speciality:   speciality,
			}
		}
	}

	for _, appt := range existing {
		if !appt.Active() || appt.SlotDate != slotDate {
			continue
		}
		if appt.SlotTime == slotTime {
			return &ConflictError{
				Rule:         RuleSameTime,
				SlotDate:     slotDate,
				ExistingTime: appt.SlotTime,
			}
		}
	}

	return nil
}

// DayBlocked reports whether rules 1 and 2 alone would reject any booking
// with this doctor on slotDate. Booking UIs use it to grey out whole days
// before a time is picked; rule 3 cannot apply without a concrete time.
func DayBlocked(doctorID uuid.UUID, speciality, slotDate string, existing []Appointment) bool {
	for _, appt := range existing {
		if !appt.Active() || appt.SlotDate != slotDate {
			continue
		}
		if appt.DoctorID == doctorID {
			return true
		}
		if appt.DoctorData.Speciality == speciality {
			return true
		}
	}
	return false
}
