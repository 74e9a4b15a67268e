package booking

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeAppt(doctorID uuid.UUID, speciality, slotDate, slotTime string) Appointment {
	return Appointment{
		ID:       uuid.New(),
		DoctorID: doctorID,
		SlotDate: slotDate,
		SlotTime: slotTime,
		DoctorData: DoctorSnapshot{
			ID:         doctorID,
			Speciality: speciality,
		},
		PaymentStatus: PaymentPending,
	}
}

func conflictRule(t *testing.T, err error) ConflictRule {
	t.Helper()
	var ce *ConflictError
	require.True(t, errors.As(err, &ce), "want *ConflictError, got %v", err)
	return ce.Rule
}

func TestCheckConflicts_NoConflict(t *testing.T) {
	docA := uuid.New()
	docB := uuid.New()

	// Different date entirely.
	existing := []Appointment{activeAppt(docA, "Dermatology", "3_3_2026", "10:00")}
	err := CheckConflicts(docA, "Dermatology", "4_3_2026", "10:00", existing)
	assert.NoError(t, err)

	// Same date, different doctor, different speciality, different time.
	existing = []Appointment{activeAppt(docB, "Cardiology", "3_3_2026", "10:00")}
	err = CheckConflicts(docA, "Dermatology", "3_3_2026", "11:00", existing)
	assert.NoError(t, err)

	err = CheckConflicts(docA, "Dermatology", "3_3_2026", "11:00", nil)
	assert.NoError(t, err)
}

func TestCheckConflicts_SameDoctorSameDay(t *testing.T) {
	docA := uuid.New()
	existing := []Appointment{activeAppt(docA, "Dermatology", "3_3_2026", "10:00")}

	// Even a different time with the same doctor is rejected.
	err := CheckConflicts(docA, "Dermatology", "3_3_2026", "15:00", existing)
	assert.Equal(t, RuleSameDoctor, conflictRule(t, err))
}

func TestCheckConflicts_SameSpecialityDifferentDoctor(t *testing.T) {
	docA := uuid.New()
	docB := uuid.New()
	existing := []Appointment{activeAppt(docB, "Dermatology", "3_3_2026", "10:00")}

	err := CheckConflicts(docA, "Dermatology", "3_3_2026", "15:00", existing)
	assert.Equal(t, RuleSameSpeciality, conflictRule(t, err))
}

func TestCheckConflicts_SameTimeAnyDoctor(t *testing.T) {
	docA := uuid.New()
	docB := uuid.New()
	existing := []Appointment{activeAppt(docB, "Cardiology", "3_3_2026", "10:00")}

	err := CheckConflicts(docA, "Dermatology", "3_3_2026", "10:00", existing)
	assert.Equal(t, RuleSameTime, conflictRule(t, err))
}

func TestCheckConflicts_RuleOrder(t *testing.T) {
	docA := uuid.New()
	docB := uuid.New()

	// A same-time record with another doctor and a same-doctor record both
	// exist; rule 1 must win regardless of slice order.
	existing := []Appointment{
		activeAppt(docB, "Cardiology", "3_3_2026", "10:00"),
		activeAppt(docA, "Dermatology", "3_3_2026", "15:00"),
	}
	err := CheckConflicts(docA, "Dermatology", "3_3_2026", "10:00", existing)
	assert.Equal(t, RuleSameDoctor, conflictRule(t, err))

	// Same-speciality beats same-time.
	existing = []Appointment{
		activeAppt(docB, "Cardiology", "3_3_2026", "10:00"),
		activeAppt(docB, "Dermatology", "3_3_2026", "15:00"),
	}
	err = CheckConflicts(docA, "Dermatology", "3_3_2026", "10:00", existing)
	assert.Equal(t, RuleSameSpeciality, conflictRule(t, err))
}

func TestCheckConflicts_SnapshotSpecialityDecides(t *testing.T) {
	docA := uuid.New()
	docB := uuid.New()

	// The stored snapshot says Dermatology even if the live doctor changed.
	existing := []Appointment{activeAppt(docB, "Dermatology", "3_3_2026", "10:00")}
	err := CheckConflicts(docA, "Dermatology", "3_3_2026", "15:00", existing)
	assert.Equal(t, RuleSameSpeciality, conflictRule(t, err))

	// And a snapshot with a different speciality passes.
	existing[0].DoctorData.Speciality = "Cardiology"
	err = CheckConflicts(docA, "Dermatology", "3_3_2026", "15:00", existing)
	assert.NoError(t, err)
}

func TestCheckConflicts_IgnoresInactive(t *testing.T) {
	docA := uuid.New()

	cancelled := activeAppt(docA, "Dermatology", "3_3_2026", "10:00")
	cancelled.Cancelled = true

	completed := activeAppt(docA, "Dermatology", "3_3_2026", "11:00")
	completed.IsCompleted = true

	err := CheckConflicts(docA, "Dermatology", "3_3_2026", "10:00", []Appointment{cancelled, completed})
	assert.NoError(t, err)
}

func TestDayBlocked(t *testing.T) {
	docA := uuid.New()
	docB := uuid.New()

	// Same doctor blocks the day.
	existing := []Appointment{activeAppt(docA, "Dermatology", "3_3_2026", "10:00")}
	assert.True(t, DayBlocked(docA, "Dermatology", "3_3_2026", existing))

	// Same speciality with another doctor blocks the day.
	existing = []Appointment{activeAppt(docB, "Dermatology", "3_3_2026", "10:00")}
	assert.True(t, DayBlocked(docA, "Dermatology", "3_3_2026", existing))

	// A different-speciality appointment does not: only rule 3 could still
	// fire and that needs a concrete time.
	existing = []Appointment{activeAppt(docB, "Cardiology", "3_3_2026", "10:00")}
	assert.False(t, DayBlocked(docA, "Dermatology", "3_3_2026", existing))

	// Cancelled records never block.
	cancelled := activeAppt(docA, "Dermatology", "3_3_2026", "10:00")
	cancelled.Cancelled = true
	assert.False(t, DayBlocked(docA, "Dermatology", "3_3_2026", []Appointment{cancelled}))
}

func TestConflictError_Messages(t *testing.T) {
	err := &ConflictError{Rule: RuleSameDoctor, SlotDate: "3_3_2026", ExistingTime: "10:00"}
	assert.Contains(t, err.Error(), "appointment with this doctor")

	err = &ConflictError{Rule: RuleSameSpeciality, SlotDate: "3_3_2026", ExistingTime: "10:00", Speciality: "Dermatology"}
	assert.Contains(t, err.Error(), "Dermatology")

	err = &ConflictError{Rule: RuleSameTime, SlotDate: "3_3_2026"}
	assert.Contains(t, err.Error(), "at this time")
}
