package booking

import (
	"fmt"
	"time"
)

// ComputeSlots builds the availability calendar for one doctor over the next
// HorizonDays calendar days, today included. It is a pure function of the
// doctor state and now; callers recompute it on every request because any
// ledger mutation invalidates the previous result.
//
// For day 0 the window start is clamped to now + LeadTime rounded up to the
// next half-hour boundary, so imminent same-day slots are never offered.
// Slots already present in the doctor's ledger are skipped.
func ComputeSlots(doc *Doctor, now time.Time) ([]DaySlots, error) {
	if !doc.Available {
		return []DaySlots{}, nil
	}

	startHour, startMin, err := ParseSlotTime(doc.WorkingHours.Start)
	if err != nil {
		return nil, fmt.Errorf("%w: start %q", ErrBadWorkingHours, doc.WorkingHours.Start)
	}
	endHour, endMin, err := ParseSlotTime(doc.WorkingHours.End)
	if err != nil {
		return nil, fmt.Errorf("%w: end %q", ErrBadWorkingHours, doc.WorkingHours.End)
	}

	loc := now.Location()
	days := make([]DaySlots, 0, HorizonDays)

	for i := 0; i < HorizonDays; i++ {
		day := now.AddDate(0, 0, i)
		windowStart := time.Date(day.Year(), day.Month(), day.Day(), startHour, startMin, 0, 0, loc)
		windowEnd := time.Date(day.Year(), day.Month(), day.Day(), endHour, endMin, 0, 0, loc)

		cursor := windowStart
		if i == 0 {
			earliest := ceilToSlot(now.Add(LeadTime))
			if earliest.After(cursor) {
				cursor = earliest
			}
		}

		dateKey := FormatDateKey(day)
		bucket := DaySlots{Date: dateKey, Slots: []Slot{}}

		for cursor.Before(windowEnd) {
			slotTime := FormatSlotTime(cursor)
			if !doc.SlotsBooked.Has(dateKey, slotTime) {
				bucket.Slots = append(bucket.Slots, Slot{Date: dateKey, Time: slotTime})
			}
			cursor = cursor.Add(SlotInterval)
		}

		days = append(days, bucket)
	}

	return days, nil
}

// ceilToSlot rounds t up to the next half-hour wall-clock boundary. Works on
// the wall clock rather than Truncate so zones with non-hour offsets behave.
func ceilToSlot(t time.Time) time.Time {
	rounded := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
	if rem := rounded.Minute() % 30; rem != 0 {
		rounded = rounded.Add(time.Duration(30-rem) * time.Minute)
	}
	return rounded
}
