package booking

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// SlotInterval is the booking granularity. Slot times are always aligned
	// to it.
	SlotInterval = 30 * time.Minute

	// LeadTime is the minimum notice before the earliest same-day slot.
	LeadTime = time.Hour

	// HorizonDays is how many calendar days of availability are offered,
	// counting today.
	HorizonDays = 7
)

// FormatDateKey renders t's calendar day as D_M_YYYY without zero padding.
func FormatDateKey(t time.Time) string {
	return fmt.Sprintf("%d_%d_%d", t.Day(), int(t.Month()), t.Year())
}

// ParseDateKey parses a D_M_YYYY key into midnight of that day in loc.
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	parts := strings.Split(key, "_")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadDateKey, key)
	}

	day, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadDateKey, key)
	}
	if day < 1 || day > 31 || month < 1 || month > 12 || year < 1 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadDateKey, key)
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	// time.Date normalizes out-of-range days (e.g. 31_2_2025 rolls into
	// March), which would silently book a different day.
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadDateKey, key)
	}
	return t, nil
}

// ParseSlotTime parses a 24-hour HH:MM slot time and enforces the half-hour
// alignment.
func ParseSlotTime(s string) (hour, minute int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadSlotTime, s)
	}

	hour, err1 := strconv.Atoi(parts[0])
	minute, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadSlotTime, s)
	}
	if minute%30 != 0 {
		return 0, 0, fmt.Errorf("%w: %q is not on a 30-minute boundary", ErrBadSlotTime, s)
	}
	return hour, minute, nil
}

// SlotInstant combines a date key and slot time into the appointment instant
// in loc.
func SlotInstant(dateKey, slotTime string, loc *time.Location) (time.Time, error) {
	day, err := ParseDateKey(dateKey, loc)
	if err != nil {
		return time.Time{}, err
	}
	hour, minute, err := ParseSlotTime(slotTime)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc), nil
}

// FormatSlotTime renders t's wall-clock time as 24-hour HH:MM.
func FormatSlotTime(t time.Time) string {
	return t.Format("15:04")
}
