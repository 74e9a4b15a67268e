package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// Repository contains all DB interactions needed by the service.
//
// CreateAppointment, CancelAppointment, CompleteAppointment and
// SetPaymentStatus are the only writers of appointment state, and the first
// two are additionally the only writers of the doctor's slot ledger: each
// runs ledger mutation and record mutation in one transaction with the
// doctor row locked, so a booking and a cancellation racing for the same
// slot serialize on the doctor.
type Repository interface {
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	ListDoctors(ctx context.Context) ([]Doctor, error)
	SetDoctorAvailability(ctx context.Context, id uuid.UUID, available bool) error

	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// For conflict checks: the patient's active records on one date.
	ListActivePatientAppointments(ctx context.Context, patientID uuid.UUID, dateKey string) ([]Appointment, error)

	// Listings. ListPatientAppointments hides unpaid cancelled records;
	// ListPaidDoctorAppointments returns PAID records newest first.
	ListPatientAppointments(ctx context.Context, patientID uuid.UUID) ([]Appointment, error)
	ListPaidDoctorAppointments(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error)

	// CreateAppointment atomically re-checks the ledger, reserves the slot
	// and inserts the record. Returns ErrSlotTaken when the slot is already
	// in the ledger.
	CreateAppointment(ctx context.Context, appt *Appointment) error

	// CancelAppointment flips the record to cancelled (compare-and-swap on
	// the active state and on the payment status the caller validated the
	// cancellation against) and releases its ledger slot in the same
	// transaction. Returns ErrInvalidTransition when the record already left
	// the active state or its payment status moved since the read.
	CancelAppointment(ctx context.Context, id uuid.UUID, by CancelActor, expectedPayment PaymentStatus, at time.Time) (*Appointment, error)

	// CompleteAppointment compare-and-swaps active+PAID to completed.
	// Returns ErrInvalidTransition when the record is not in that state.
	CompleteAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// SetPaymentStatus compare-and-swaps the payment status while the record
	// is still active. Returns ErrInvalidTransition otherwise.
	SetPaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus) (*Appointment, error)

	// PruneLedgers drops ledger date keys strictly before the day of cutoff
	// from every doctor. Returns how many doctors were touched.
	PruneLedgers(ctx context.Context, cutoff time.Time) (int, error)

	// Event logging, fire-and-forget.
	InsertEvent(ctx context.Context, ev EventLog) error
}
