package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	redisclient "github.com/medibook/clinic-scheduler/internal/redis"
)

const (
	EventAppointmentBooked    = "APPOINTMENT_BOOKED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
	EventAppointmentCompleted = "APPOINTMENT_COMPLETED"
	EventPaymentStatusChanged = "PAYMENT_STATUS_CHANGED"
)

// AppointmentUpdate is the payload pushed to a patient session after a
// lifecycle change. Delivery is best-effort and never gates the transition.
type AppointmentUpdate struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	PatientID     uuid.UUID `json:"patient_id"`
	DoctorID      uuid.UUID `json:"doctor_id"`
	IsCompleted   bool      `json:"is_completed"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Notifier pushes appointment updates to connected patient sessions.
type Notifier interface {
	AppointmentUpdated(ctx context.Context, update AppointmentUpdate) error
}

type Service struct {
	repo     Repository
	locker   redisclient.Locker
	notifier Notifier
	log      zerolog.Logger
}

func NewService(repo Repository, locker redisclient.Locker, notifier Notifier, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		locker:   locker,
		notifier: notifier,
		log:      log,
	}
}

// GetAvailability computes the doctor's bookable slots for the next
// HorizonDays starting at now.
func (s *Service) GetAvailability(ctx context.Context, doctorID uuid.UUID, now time.Time) ([]DaySlots, error) {
	doc, err := s.repo.GetDoctorByID(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("load doctor: %w", err)
	}
	return ComputeSlots(doc, now)
}

// Book reserves a slot for a patient and creates the appointment record in
// Booked(PENDING).
//
// The conflict rules are evaluated against the patient's own records first;
// the ledger check-and-reserve then runs inside the per-slot Redis lock and
// a doctor-row transaction, so two patients racing for the same slot cannot
// both succeed.
func (s *Service) Book(ctx context.Context, patientID, doctorID uuid.UUID, slotDate, slotTime string, now time.Time) (*Appointment, error) {
	if _, err := SlotInstant(slotDate, slotTime, now.Location()); err != nil {
		return nil, err
	}

	doc, err := s.repo.GetDoctorByID(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("load doctor: %w", err)
	}
	if !doc.Available {
		return nil, ErrDoctorUnavailable
	}

	patient, err := s.repo.GetPatientByID(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("load patient: %w", err)
	}

	existing, err := s.repo.ListActivePatientAppointments(ctx, patientID, slotDate)
	if err != nil {
		return nil, fmt.Errorf("load patient appointments: %w", err)
	}
	if err := CheckConflicts(doctorID, doc.Speciality, slotDate, slotTime, existing); err != nil {
		return nil, err
	}

	appt := &Appointment{
		ID:        uuid.New(),
		PatientID: patientID,
		DoctorID:  doctorID,
		SlotDate:  slotDate,
		SlotTime:  slotTime,
		PatientData: PatientSnapshot{
			ID:    patient.ID,
			Name:  patient.Name,
			Email: patient.Email,
			Phone: patient.Phone,
		},
		DoctorData: DoctorSnapshot{
			ID:         doc.ID,
			Name:       doc.Name,
			Speciality: doc.Speciality,
			Fees:       doc.Fees,
		},
		Amount:        doc.Fees,
		PaymentStatus: PaymentPending,
		CreatedAt:     now,
	}

	err = s.locker.WithSlotLock(ctx, doctorID, slotDate, slotTime, func(lockCtx context.Context) error {
		return s.repo.CreateAppointment(lockCtx, appt)
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.logEvent(ctx, appt.ID, EventAppointmentBooked, map[string]any{
		"patient_id": patientID.String(),
		"doctor_id":  doctorID.String(),
		"slot_date":  slotDate,
		"slot_time":  slotTime,
	})

	return appt, nil
}

// CheckDayBlocked reports whether conflict rules 1 and 2 would reject every
// booking for this patient/doctor/date combination.
func (s *Service) CheckDayBlocked(ctx context.Context, patientID, doctorID uuid.UUID, slotDate string) (bool, error) {
	doc, err := s.repo.GetDoctorByID(ctx, doctorID)
	if err != nil {
		return false, fmt.Errorf("load doctor: %w", err)
	}
	existing, err := s.repo.ListActivePatientAppointments(ctx, patientID, slotDate)
	if err != nil {
		return false, fmt.Errorf("load patient appointments: %w", err)
	}
	return DayBlocked(doctorID, doc.Speciality, slotDate, existing), nil
}

// Cancel transitions a booked appointment to Cancelled and releases its
// ledger slot regardless of payment status.
//
// The acting party must own the record. Patients are additionally subject to
// CanCancel; doctors are not held to the 1-hour/PAID window while the record
// is still booked.
func (s *Service) Cancel(ctx context.Context, by CancelActor, actorID, appointmentID uuid.UUID, now time.Time) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	switch by {
	case CancelledByPatient:
		if appt.PatientID != actorID {
			return nil, ErrUnauthorized
		}
	case CancelledByDoctor:
		if appt.DoctorID != actorID {
			return nil, ErrUnauthorized
		}
	default:
		return nil, ErrUnauthorized
	}

	if appt.Cancelled {
		return nil, ErrAlreadyCancelled
	}
	if appt.IsCompleted {
		return nil, ErrCancelCompleted
	}

	if by == CancelledByPatient {
		if err := CanCancel(appt, now); err != nil {
			return nil, err
		}
	}

	// Passing the payment status we checked the window against makes the
	// swap fail if a payment confirmation landed after the read, instead of
	// cancelling a just-paid record the window would have protected.
	updated, err := s.repo.CancelAppointment(ctx, appointmentID, by, appt.PaymentStatus, now)
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			s.log.Warn().
				Str("appointment_id", appointmentID.String()).
				Msg("cancel lost a race against another transition")
		}
		return nil, err
	}

	s.logEvent(ctx, updated.ID, EventAppointmentCancelled, map[string]any{
		"cancelled_by": string(by),
		"slot_date":    updated.SlotDate,
		"slot_time":    updated.SlotTime,
	})

	return updated, nil
}

// Complete marks a paid appointment as completed. Only the owning doctor may
// call it. Completing an already-completed record is a no-op that succeeds
// without emitting a second notification.
func (s *Service) Complete(ctx context.Context, doctorID, appointmentID uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if appt.DoctorID != doctorID {
		return nil, ErrUnauthorized
	}

	if appt.IsCompleted {
		return appt, nil
	}
	if appt.Cancelled {
		return nil, fmt.Errorf("%w: appointment is cancelled", ErrInvalidTransition)
	}
	if appt.PaymentStatus != PaymentPaid {
		return nil, ErrNotPaid
	}

	updated, err := s.repo.CompleteAppointment(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			// Raced with another transition since the read above. Treat a
			// concurrent completion as the idempotent success case.
			latest, readErr := s.repo.GetAppointmentByID(ctx, appointmentID)
			if readErr == nil && latest.IsCompleted {
				return latest, nil
			}
			s.log.Warn().
				Str("appointment_id", appointmentID.String()).
				Msg("complete rejected by state check")
		}
		return nil, err
	}

	s.logEvent(ctx, updated.ID, EventAppointmentCompleted, map[string]any{
		"doctor_id": doctorID.String(),
	})

	// Notify only after the state change is durable. A publish failure must
	// not fail the completion.
	update := AppointmentUpdate{
		AppointmentID: updated.ID,
		PatientID:     updated.PatientID,
		DoctorID:      updated.DoctorID,
		IsCompleted:   true,
		UpdatedAt:     updated.UpdatedAt,
	}
	if err := s.notifier.AppointmentUpdated(ctx, update); err != nil {
		s.log.Warn().
			Err(err).
			Str("appointment_id", updated.ID.String()).
			Msg("appointment update notification failed")
	}

	return updated, nil
}

// UpdatePaymentStatus applies a payment-gateway status to a booked
// appointment. Replays of the same status are harmless; updates aimed at a
// record that has left the booked state are rejected as stale and logged.
func (s *Service) UpdatePaymentStatus(ctx context.Context, appointmentID uuid.UUID, gatewayStatus string) (*Appointment, error) {
	status, err := MapGatewayStatus(gatewayStatus)
	if err != nil {
		return nil, err
	}

	appt, err := s.repo.GetAppointmentByID(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if !appt.Active() {
		s.log.Warn().
			Str("appointment_id", appointmentID.String()).
			Str("gateway_status", gatewayStatus).
			Msg("late payment update for a terminal appointment rejected")
		return nil, fmt.Errorf("%w: appointment is no longer booked", ErrInvalidTransition)
	}

	updated, err := s.repo.SetPaymentStatus(ctx, appointmentID, status)
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			s.log.Warn().
				Str("appointment_id", appointmentID.String()).
				Str("gateway_status", gatewayStatus).
				Msg("payment update lost a race against a terminal transition")
		}
		return nil, err
	}

	s.logEvent(ctx, updated.ID, EventPaymentStatusChanged, map[string]any{
		"gateway_status": gatewayStatus,
		"payment_status": string(status),
	})

	return updated, nil
}

// ListPatientAppointments returns the patient's history, hiding cancelled
// records that were never paid.
func (s *Service) ListPatientAppointments(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	appts, err := s.repo.ListPatientAppointments(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list patient appointments: %w", err)
	}
	return appts, nil
}

// ListDoctorAppointments returns the doctor's paid appointments, newest
// first.
func (s *Service) ListDoctorAppointments(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error) {
	appts, err := s.repo.ListPaidDoctorAppointments(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list doctor appointments: %w", err)
	}
	return appts, nil
}

// ListDoctors returns the public doctor directory.
func (s *Service) ListDoctors(ctx context.Context) ([]Doctor, error) {
	docs, err := s.repo.ListDoctors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return docs, nil
}

// Dashboard aggregates the doctor's paid appointments: earnings over
// non-cancelled completed-or-paid records, distinct patients, and the most
// recent bookings.
func (s *Service) Dashboard(ctx context.Context, doctorID uuid.UUID) (*DashboardData, error) {
	appts, err := s.repo.ListPaidDoctorAppointments(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("load doctor appointments: %w", err)
	}

	var earnings float64
	seen := make(map[uuid.UUID]struct{})
	for _, appt := range appts {
		if appt.Cancelled {
			continue
		}
		if appt.IsCompleted || appt.PaymentStatus == PaymentPaid {
			earnings += appt.Amount
		}
		seen[appt.PatientID] = struct{}{}
	}

	latest := appts
	if len(latest) > 10 {
		latest = latest[:10]
	}

	return &DashboardData{
		Earnings:     earnings,
		Appointments: len(appts),
		Patients:     len(seen),
		Latest:       latest,
	}, nil
}

// ToggleAvailability flips the doctor's global availability flag and returns
// the new value.
func (s *Service) ToggleAvailability(ctx context.Context, doctorID uuid.UUID) (bool, error) {
	doc, err := s.repo.GetDoctorByID(ctx, doctorID)
	if err != nil {
		return false, fmt.Errorf("load doctor: %w", err)
	}
	next := !doc.Available
	if err := s.repo.SetDoctorAvailability(ctx, doctorID, next); err != nil {
		return false, fmt.Errorf("set doctor availability: %w", err)
	}
	return next, nil
}

// MapGatewayStatus translates a payment-gateway order status into the
// record's payment status. ACTIVE means the order is still open at the
// gateway, so the record stays pending; anything unknown is treated as a
// failure.
func MapGatewayStatus(gatewayStatus string) (PaymentStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(gatewayStatus)) {
	case "":
		return "", fmt.Errorf("%w: empty gateway status", ErrBadGatewayStatus)
	case "PAID":
		return PaymentPaid, nil
	case "ACTIVE", "PENDING":
		return PaymentPending, nil
	default:
		return PaymentFailed, nil
	}
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Str("event_type", eventType).Msg("marshal event payload")
		data = nil
	}

	apptID := appointmentID
	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Error().
			Err(err).
			Str("event_type", eventType).
			Str("appointment_id", appointmentID.String()).
			Msg("insert event log")
	}
}
