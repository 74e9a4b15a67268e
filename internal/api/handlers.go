package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medibook/clinic-scheduler/internal/auth"
	"github.com/medibook/clinic-scheduler/internal/booking"
	"github.com/medibook/clinic-scheduler/internal/metrics"
)

// BookingService is what the transport needs from the engine.
type BookingService interface {
	GetAvailability(ctx context.Context, doctorID uuid.UUID, now time.Time) ([]booking.DaySlots, error)
	Book(ctx context.Context, patientID, doctorID uuid.UUID, slotDate, slotTime string, now time.Time) (*booking.Appointment, error)
	CheckDayBlocked(ctx context.Context, patientID, doctorID uuid.UUID, slotDate string) (bool, error)
	Cancel(ctx context.Context, by booking.CancelActor, actorID, appointmentID uuid.UUID, now time.Time) (*booking.Appointment, error)
	Complete(ctx context.Context, doctorID, appointmentID uuid.UUID) (*booking.Appointment, error)
	UpdatePaymentStatus(ctx context.Context, appointmentID uuid.UUID, gatewayStatus string) (*booking.Appointment, error)
	ListPatientAppointments(ctx context.Context, patientID uuid.UUID) ([]booking.Appointment, error)
	ListDoctorAppointments(ctx context.Context, doctorID uuid.UUID) ([]booking.Appointment, error)
	ListDoctors(ctx context.Context) ([]booking.Doctor, error)
	Dashboard(ctx context.Context, doctorID uuid.UUID) (*booking.DashboardData, error)
	ToggleAvailability(ctx context.Context, doctorID uuid.UUID) (bool, error)
}

func listDoctorsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docs, err := svc.ListDoctors(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		out := make([]DoctorResponse, 0, len(docs))
		for i := range docs {
			out = append(out, toDoctorResponse(&docs[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getAvailabilityHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		days, err := svc.GetAvailability(r.Context(), doctorID, time.Now())
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, AvailabilityResponse{
			DoctorID:  doctorID,
			Available: len(days) > 0,
			Days:      days,
		})
	}
}

func checkDayBlockedHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := ActorFromContext(r.Context())

		doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}
		slotDate := r.URL.Query().Get("slot_date")
		if slotDate == "" {
			writeError(w, http.StatusBadRequest, "missing_slot_date", "slot_date query parameter is required")
			return
		}

		blocked, err := svc.CheckDayBlocked(r.Context(), actor.ID, doctorID, slotDate)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, DayBlockedResponse{
			DoctorID:   doctorID,
			SlotDate:   slotDate,
			DayBlocked: blocked,
		})
	}
}

func bookAppointmentHandler(svc BookingService, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := ActorFromContext(r.Context())

		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}

		appt, err := svc.Book(r.Context(), actor.ID, doctorID, req.SlotDate, req.SlotTime, time.Now())
		if err != nil {
			m.CountBooking(bookingOutcome(err))
			handleServiceError(w, err)
			return
		}

		m.CountBooking("booked")
		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func listPatientAppointmentsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := ActorFromContext(r.Context())

		appts, err := svc.ListPatientAppointments(r.Context(), actor.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponses(appts))
	}
}

func cancelAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := ActorFromContext(r.Context())

		appointmentID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		by := booking.CancelledByPatient
		if actor.Role == auth.RoleDoctor {
			by = booking.CancelledByDoctor
		}

		appt, err := svc.Cancel(r.Context(), by, actor.ID, appointmentID, time.Now())
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func completeAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := ActorFromContext(r.Context())

		appointmentID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.Complete(r.Context(), actor.ID, appointmentID)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func updatePaymentStatusHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appointmentID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req PaymentStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.UpdatePaymentStatus(r.Context(), appointmentID, req.GatewayStatus)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func listDoctorAppointmentsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := ActorFromContext(r.Context())

		appts, err := svc.ListDoctorAppointments(r.Context(), actor.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponses(appts))
	}
}

func doctorDashboardHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := ActorFromContext(r.Context())

		data, err := svc.Dashboard(r.Context(), actor.ID)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, data)
	}
}

func toggleAvailabilityHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := ActorFromContext(r.Context())

		available, err := svc.ToggleAvailability(r.Context(), actor.ID)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, AvailabilityToggleResponse{
			DoctorID:  actor.ID,
			Available: available,
		})
	}
}

// handleServiceError maps engine errors onto HTTP responses. Authorization
// failures are kept generic so callers cannot probe for record existence.
func handleServiceError(w http.ResponseWriter, err error) {
	var conflict *booking.ConflictError

	switch {
	case booking.IsValidationError(err):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, "booking_conflict", conflict.Error())
	case errors.Is(err, booking.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_not_available", err.Error())
	case errors.Is(err, booking.ErrSlotBeingBooked):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, booking.ErrDoctorUnavailable):
		writeError(w, http.StatusConflict, "doctor_not_available", err.Error())
	case booking.IsPolicyDenied(err):
		writeError(w, http.StatusConflict, "cancellation_denied", err.Error())
	case errors.Is(err, booking.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "unauthorized", "unauthorized action")
	case errors.Is(err, booking.ErrNotPaid):
		writeError(w, http.StatusConflict, "not_paid", err.Error())
	case errors.Is(err, booking.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "stale_transition", err.Error())
	case errors.Is(err, booking.ErrDoctorNotFound),
		errors.Is(err, booking.ErrPatientNotFound),
		errors.Is(err, booking.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func bookingOutcome(err error) string {
	var conflict *booking.ConflictError
	switch {
	case errors.As(err, &conflict):
		return "conflict"
	case errors.Is(err, booking.ErrSlotTaken), errors.Is(err, booking.ErrSlotBeingBooked):
		return "slot_taken"
	default:
		return "rejected"
	}
}
