package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/medibook/clinic-scheduler/internal/booking"
)

type BookAppointmentRequest struct {
	DoctorID string `json:"doctor_id"`
	SlotDate string `json:"slot_date"`
	SlotTime string `json:"slot_time"`
}

type PaymentStatusRequest struct {
	GatewayStatus string `json:"gateway_status"`
}

type AppointmentResponse struct {
	ID            uuid.UUID  `json:"id"`
	PatientID     uuid.UUID  `json:"patient_id"`
	DoctorID      uuid.UUID  `json:"doctor_id"`
	DoctorName    string     `json:"doctor_name"`
	Speciality    string     `json:"speciality"`
	SlotDate      string     `json:"slot_date"`
	SlotTime      string     `json:"slot_time"`
	Amount        float64    `json:"amount"`
	PaymentStatus string     `json:"payment_status"`
	Cancelled     bool       `json:"cancelled"`
	CancelledBy   *string    `json:"cancelled_by,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	IsCompleted   bool       `json:"is_completed"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toAppointmentResponse(a *booking.Appointment) AppointmentResponse {
	resp := AppointmentResponse{
		ID:            a.ID,
		PatientID:     a.PatientID,
		DoctorID:      a.DoctorID,
		DoctorName:    a.DoctorData.Name,
		Speciality:    a.DoctorData.Speciality,
		SlotDate:      a.SlotDate,
		SlotTime:      a.SlotTime,
		Amount:        a.Amount,
		PaymentStatus: string(a.PaymentStatus),
		Cancelled:     a.Cancelled,
		CancelledAt:   a.CancelledAt,
		IsCompleted:   a.IsCompleted,
		CreatedAt:     a.CreatedAt,
	}
	if a.CancelledBy != nil {
		by := string(*a.CancelledBy)
		resp.CancelledBy = &by
	}
	return resp
}

func toAppointmentResponses(appts []booking.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(appts))
	for i := range appts {
		out = append(out, toAppointmentResponse(&appts[i]))
	}
	return out
}

type DoctorResponse struct {
	ID           uuid.UUID            `json:"id"`
	Name         string               `json:"name"`
	Speciality   string               `json:"speciality"`
	About        string               `json:"about,omitempty"`
	Available    bool                 `json:"available"`
	Fees         float64              `json:"fees"`
	WorkingHours booking.WorkingHours `json:"working_hours"`
}

func toDoctorResponse(d *booking.Doctor) DoctorResponse {
	return DoctorResponse{
		ID:           d.ID,
		Name:         d.Name,
		Speciality:   d.Speciality,
		About:        d.About,
		Available:    d.Available,
		Fees:         d.Fees,
		WorkingHours: d.WorkingHours,
	}
}

type AvailabilityResponse struct {
	DoctorID  uuid.UUID          `json:"doctor_id"`
	Available bool               `json:"available"`
	Days      []booking.DaySlots `json:"days"`
}

type DayBlockedResponse struct {
	DoctorID   uuid.UUID `json:"doctor_id"`
	SlotDate   string    `json:"slot_date"`
	DayBlocked bool      `json:"day_blocked"`
}

type AvailabilityToggleResponse struct {
	DoctorID  uuid.UUID `json:"doctor_id"`
	Available bool      `json:"available"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
