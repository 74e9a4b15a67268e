package booking

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

type CancelActor string

const (
	CancelledByPatient CancelActor = "patient"
	CancelledByDoctor  CancelActor = "doctor"
)

// WorkingHours is a doctor's daily window, both bounds as HH:MM wall-clock
// strings. Slots are generated inside [Start, End).
type WorkingHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// SlotLedger maps a date key (D_M_YYYY) to the slot times already booked on
// that day. A time's presence means the slot is not offerable. The ledger is
// owned by the doctor row and is only ever mutated inside the repository's
// reserve/release transactions.
type SlotLedger map[string][]string

func (l SlotLedger) Has(dateKey, slotTime string) bool {
	for _, t := range l[dateKey] {
		if t == slotTime {
			return true
		}
	}
	return false
}

func (l SlotLedger) Add(dateKey, slotTime string) {
	l[dateKey] = append(l[dateKey], slotTime)
}

// Remove drops slotTime from the dateKey bucket. Removing a time that is not
// present is a no-op.
func (l SlotLedger) Remove(dateKey, slotTime string) {
	times := l[dateKey]
	kept := times[:0]
	for _, t := range times {
		if t != slotTime {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(l, dateKey)
		return
	}
	l[dateKey] = kept
}

type Doctor struct {
	ID           uuid.UUID
	Name         string
	Speciality   string
	About        string
	Available    bool
	Fees         float64
	WorkingHours WorkingHours
	SlotsBooked  SlotLedger
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Patient struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	Phone     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PatientSnapshot and DoctorSnapshot are immutable copies of party facts at
// booking time. Conflict evaluation of existing records reads the snapshot
// speciality, never the live doctor, so later profile edits cannot
// retroactively change the outcome.
type PatientSnapshot struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email *string   `json:"email,omitempty"`
	Phone *string   `json:"phone,omitempty"`
}

type DoctorSnapshot struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Speciality string    `json:"speciality"`
	Fees       float64   `json:"fees"`
}

type Appointment struct {
	ID            uuid.UUID
	PatientID     uuid.UUID
	DoctorID      uuid.UUID
	SlotDate      string
	SlotTime      string
	PatientData   PatientSnapshot
	DoctorData    DoctorSnapshot
	Amount        float64
	PaymentStatus PaymentStatus
	Cancelled     bool
	CancelledBy   *CancelActor
	CancelledAt   *time.Time
	IsCompleted   bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Active reports whether the appointment still occupies its slot: neither
// cancelled nor completed.
func (a *Appointment) Active() bool {
	return !a.Cancelled && !a.IsCompleted
}

// Slot is one bookable half-hour unit.
type Slot struct {
	Date string `json:"slot_date"`
	Time string `json:"slot_time"`
}

// DaySlots is one day bucket of the availability calendar. An empty Slots
// list means the day is fully booked or outside the working window, which is
// not the same condition as a globally unavailable doctor.
type DaySlots struct {
	Date  string `json:"date"`
	Slots []Slot `json:"slots"`
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

type DashboardData struct {
	Earnings     float64       `json:"earnings"`
	Appointments int           `json:"appointments"`
	Patients     int           `json:"patients"`
	Latest       []Appointment `json:"latest_appointments"`
}
