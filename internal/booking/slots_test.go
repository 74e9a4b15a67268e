package booking

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDoctor() *Doctor {
	return &Doctor{
		ID:           uuid.New(),
		Name:         "Dr. Reyes",
		Speciality:   "Dermatology",
		Available:    true,
		Fees:         50,
		WorkingHours: WorkingHours{Start: "10:00", End: "21:00"},
		SlotsBooked:  SlotLedger{},
	}
}

func slotTimes(day DaySlots) []string {
	times := make([]string, 0, len(day.Slots))
	for _, s := range day.Slots {
		times = append(times, s.Time)
	}
	return times
}

func TestComputeSlots_HorizonAndGrid(t *testing.T) {
	doc := testDoctor()
	// Early morning, so day 0 starts at the working-hours boundary.
	now := time.Date(2026, time.March, 2, 6, 0, 0, 0, time.UTC)

	days, err := ComputeSlots(doc, now)
	require.NoError(t, err)
	require.Len(t, days, HorizonDays)

	assert.Equal(t, "2_3_2026", days[0].Date)
	assert.Equal(t, "8_3_2026", days[6].Date)

	// 10:00 to 21:00 exclusive is 22 half-hour slots.
	for i, day := range days {
		assert.Len(t, day.Slots, 22, "day %d", i)
	}
	assert.Equal(t, "10:00", days[0].Slots[0].Time)
	assert.Equal(t, "20:30", days[0].Slots[21].Time)
	for _, s := range days[0].Slots {
		assert.Equal(t, "2_3_2026", s.Date)
	}
}

func TestComputeSlots_DayZeroLeadTime(t *testing.T) {
	doc := testDoctor()

	// 13:05 + 1h lead = 14:05, rounded up to 14:30.
	now := time.Date(2026, time.March, 2, 13, 5, 0, 0, time.UTC)
	days, err := ComputeSlots(doc, now)
	require.NoError(t, err)
	require.NotEmpty(t, days[0].Slots)
	assert.Equal(t, "14:30", days[0].Slots[0].Time)

	// Exactly on a boundary: 13:00 + 1h = 14:00, no rounding.
	now = time.Date(2026, time.March, 2, 13, 0, 0, 0, time.UTC)
	days, err = ComputeSlots(doc, now)
	require.NoError(t, err)
	assert.Equal(t, "14:00", days[0].Slots[0].Time)

	// Seconds past the boundary still push to the next slot.
	now = time.Date(2026, time.March, 2, 13, 0, 1, 0, time.UTC)
	days, err = ComputeSlots(doc, now)
	require.NoError(t, err)
	assert.Equal(t, "14:30", days[0].Slots[0].Time)

	// Day 1 is unaffected by the clamp.
	assert.Equal(t, "10:00", days[1].Slots[0].Time)
}

func TestComputeSlots_DayZeroExhausted(t *testing.T) {
	doc := testDoctor()
	// 20:45 + 1h lead is past the 21:00 close: today yields an empty bucket,
	// not a missing one.
	now := time.Date(2026, time.March, 2, 20, 45, 0, 0, time.UTC)

	days, err := ComputeSlots(doc, now)
	require.NoError(t, err)
	require.Len(t, days, HorizonDays)
	assert.Equal(t, "2_3_2026", days[0].Date)
	assert.Empty(t, days[0].Slots)
	assert.NotNil(t, days[0].Slots)
	assert.Len(t, days[1].Slots, 22)
}

func TestComputeSlots_SkipsLedgerEntries(t *testing.T) {
	doc := testDoctor()
	doc.SlotsBooked = SlotLedger{
		"3_3_2026": {"10:00", "15:30"},
	}
	now := time.Date(2026, time.March, 2, 6, 0, 0, 0, time.UTC)

	days, err := ComputeSlots(doc, now)
	require.NoError(t, err)

	day1 := days[1]
	require.Equal(t, "3_3_2026", day1.Date)
	assert.Len(t, day1.Slots, 20)
	assert.NotContains(t, slotTimes(day1), "10:00")
	assert.NotContains(t, slotTimes(day1), "15:30")
	assert.Contains(t, slotTimes(day1), "10:30")

	// Other days keep the full grid.
	assert.Len(t, days[0].Slots, 22)
	assert.Len(t, days[2].Slots, 22)
}

func TestComputeSlots_UnavailableDoctor(t *testing.T) {
	doc := testDoctor()
	doc.Available = false
	now := time.Date(2026, time.March, 2, 6, 0, 0, 0, time.UTC)

	days, err := ComputeSlots(doc, now)
	require.NoError(t, err)
	assert.Empty(t, days)
	assert.NotNil(t, days)
}

func TestComputeSlots_MonthBoundary(t *testing.T) {
	doc := testDoctor()
	now := time.Date(2026, time.February, 27, 6, 0, 0, 0, time.UTC)

	days, err := ComputeSlots(doc, now)
	require.NoError(t, err)
	require.Len(t, days, HorizonDays)

	assert.Equal(t, "27_2_2026", days[0].Date)
	assert.Equal(t, "28_2_2026", days[1].Date)
	assert.Equal(t, "1_3_2026", days[2].Date)
	assert.Equal(t, "5_3_2026", days[6].Date)
}

func TestComputeSlots_BadWorkingHours(t *testing.T) {
	doc := testDoctor()
	doc.WorkingHours.Start = "ten"
	now := time.Date(2026, time.March, 2, 6, 0, 0, 0, time.UTC)

	_, err := ComputeSlots(doc, now)
	assert.ErrorIs(t, err, ErrBadWorkingHours)

	doc = testDoctor()
	doc.WorkingHours.End = "25:00"
	_, err = ComputeSlots(doc, now)
	assert.ErrorIs(t, err, ErrBadWorkingHours)
}

func TestSlotLedger(t *testing.T) {
	l := SlotLedger{}

	assert.False(t, l.Has("2_3_2026", "10:00"))
	l.Add("2_3_2026", "10:00")
	l.Add("2_3_2026", "10:30")
	assert.True(t, l.Has("2_3_2026", "10:00"))
	assert.True(t, l.Has("2_3_2026", "10:30"))
	assert.False(t, l.Has("3_3_2026", "10:00"))

	l.Remove("2_3_2026", "10:00")
	assert.False(t, l.Has("2_3_2026", "10:00"))
	assert.True(t, l.Has("2_3_2026", "10:30"))

	// Removing the last time drops the whole day key.
	l.Remove("2_3_2026", "10:30")
	_, ok := l["2_3_2026"]
	assert.False(t, ok)

	// Removing from an absent day is a no-op.
	l.Remove("9_9_2026", "10:00")
}
