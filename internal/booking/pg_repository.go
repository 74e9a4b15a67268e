package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

const doctorColumns = `id, name, speciality, about, available, fees, working_start, working_end, slots_booked, created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var ledgerRaw []byte

	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Speciality,
		&d.About,
		&d.Available,
		&d.Fees,
		&d.WorkingHours.Start,
		&d.WorkingHours.End,
		&ledgerRaw,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	d.SlotsBooked = SlotLedger{}
	if len(ledgerRaw) > 0 {
		if err := json.Unmarshal(ledgerRaw, &d.SlotsBooked); err != nil {
			return nil, fmt.Errorf("decode slots_booked for doctor %s: %w", d.ID, err)
		}
	}
	return &d, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.Phone,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

const appointmentColumns = `id, patient_id, doctor_id, slot_date, slot_time, patient_data, doctor_data,
	amount, payment_status, cancelled, cancelled_by, cancelled_at, is_completed, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var patientRaw, doctorRaw []byte
	var cancelledBy *string

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&a.SlotDate,
		&a.SlotTime,
		&patientRaw,
		&doctorRaw,
		&a.Amount,
		&a.PaymentStatus,
		&a.Cancelled,
		&cancelledBy,
		&a.CancelledAt,
		&a.IsCompleted,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	if cancelledBy != nil {
		by := CancelActor(*cancelledBy)
		a.CancelledBy = &by
	}
	if err := json.Unmarshal(patientRaw, &a.PatientData); err != nil {
		return nil, fmt.Errorf("decode patient snapshot for appointment %s: %w", a.ID, err)
	}
	if err := json.Unmarshal(doctorRaw, &a.DoctorData); err != nil {
		return nil, fmt.Errorf("decode doctor snapshot for appointment %s: %w", a.ID, err)
	}
	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// lockLedger reads the doctor's ledger under FOR UPDATE inside tx, blocking
// every other reserve/release for the same doctor until commit.
func lockLedger(ctx context.Context, tx pgx.Tx, doctorID uuid.UUID) (SlotLedger, error) {
	var raw []byte
	err := tx.QueryRow(ctx, `
		SELECT slots_booked
		FROM doctors
		WHERE id = $1
		FOR UPDATE
	`, doctorID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	ledger := SlotLedger{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &ledger); err != nil {
			return nil, fmt.Errorf("decode slots_booked for doctor %s: %w", doctorID, err)
		}
	}
	return ledger, nil
}

func storeLedger(ctx context.Context, tx pgx.Tx, doctorID uuid.UUID, ledger SlotLedger) error {
	raw, err := json.Marshal(ledger)
	if err != nil {
		return fmt.Errorf("encode slots_booked for doctor %s: %w", doctorID, err)
	}
	_, err = tx.Exec(ctx, `
		UPDATE doctors
		SET slots_booked = $2,
		    updated_at = now()
		WHERE id = $1
	`, doctorID, raw)
	return err
}

// Interface methods

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) ListDoctors(ctx context.Context) ([]Doctor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) SetDoctorAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE doctors
		SET available = $2,
		    updated_at = now()
		WHERE id = $1
	`, id, available)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, phone, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListActivePatientAppointments(ctx context.Context, patientID uuid.UUID, dateKey string) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1
		  AND slot_date = $2
		  AND cancelled = false
		  AND is_completed = false
	`, patientID, dateKey)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) ListPatientAppointments(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	// Unpaid cancelled holds carry no history worth showing.
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1
		  AND (cancelled = false OR payment_status = 'PAID')
		ORDER BY created_at DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) ListPaidDoctorAppointments(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
		  AND payment_status = 'PAID'
		ORDER BY created_at DESC
	`, doctorID)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

// CreateAppointment re-checks and reserves the slot and inserts the record
// in one transaction. The FOR UPDATE on the doctor row is what makes the
// check-and-reserve a single atomic unit; without it two bookings could both
// read a free slot and both write.
func (r *PgRepository) CreateAppointment(ctx context.Context, appt *Appointment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin booking tx: %w", err)
	}
	defer tx.Rollback(ctx)

	ledger, err := lockLedger(ctx, tx, appt.DoctorID)
	if err != nil {
		return err
	}
	if ledger.Has(appt.SlotDate, appt.SlotTime) {
		return ErrSlotTaken
	}
	ledger.Add(appt.SlotDate, appt.SlotTime)
	if err := storeLedger(ctx, tx, appt.DoctorID, ledger); err != nil {
		return fmt.Errorf("reserve slot: %w", err)
	}

	patientRaw, err := json.Marshal(appt.PatientData)
	if err != nil {
		return fmt.Errorf("encode patient snapshot: %w", err)
	}
	doctorRaw, err := json.Marshal(appt.DoctorData)
	if err != nil {
		return fmt.Errorf("encode doctor snapshot: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO appointments (
			id, patient_id, doctor_id, slot_date, slot_time,
			patient_data, doctor_data, amount, payment_status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'PENDING', $9, $9)
		RETURNING created_at, updated_at
	`,
		appt.ID, appt.PatientID, appt.DoctorID, appt.SlotDate, appt.SlotTime,
		patientRaw, doctorRaw, appt.Amount, appt.CreatedAt,
	).Scan(&appt.CreatedAt, &appt.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit booking tx: %w", err)
	}
	return nil
}

// CancelAppointment compare-and-swaps the still-active record to cancelled
// and releases its ledger slot in the same transaction, so a booking racing
// for the freed slot serializes behind the release. The swap also pins the
// payment status the caller read, so a concurrent payment confirmation
// invalidates a window check done against the unpaid record.
func (r *PgRepository) CancelAppointment(ctx context.Context, id uuid.UUID, by CancelActor, expectedPayment PaymentStatus, at time.Time) (*Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin cancel tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE appointments
		SET cancelled = true,
		    cancelled_by = $2,
		    cancelled_at = $3,
		    updated_at = now()
		WHERE id = $1
		  AND cancelled = false
		  AND is_completed = false
		  AND payment_status = $4
		RETURNING `+appointmentColumns+`
	`, id, string(by), at, string(expectedPayment))

	appt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}

	ledger, err := lockLedger(ctx, tx, appt.DoctorID)
	if err != nil {
		return nil, err
	}
	ledger.Remove(appt.SlotDate, appt.SlotTime)
	if err := storeLedger(ctx, tx, appt.DoctorID, ledger); err != nil {
		return nil, fmt.Errorf("release slot: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit cancel tx: %w", err)
	}
	return appt, nil
}

func (r *PgRepository) CompleteAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET is_completed = true,
		    updated_at = now()
		WHERE id = $1
		  AND cancelled = false
		  AND is_completed = false
		  AND payment_status = 'PAID'
		RETURNING `+appointmentColumns+`
	`, id)

	appt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}
	return appt, nil
}

func (r *PgRepository) SetPaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET payment_status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND cancelled = false
		  AND is_completed = false
		RETURNING `+appointmentColumns+`
	`, id, string(status))

	appt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}
	return appt, nil
}

// PruneLedgers walks every doctor with a non-empty ledger and drops date
// keys strictly before cutoff's day. Each doctor is pruned in its own short
// transaction so the sweep never holds more than one row lock at a time.
func (r *PgRepository) PruneLedgers(ctx context.Context, cutoff time.Time) (int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id
		FROM doctors
		WHERE slots_booked <> '{}'::jsonb
	`)
	if err != nil {
		return 0, err
	}

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	today := time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, cutoff.Location())

	pruned := 0
	for _, id := range ids {
		changed, err := r.pruneDoctorLedger(ctx, id, today)
		if err != nil {
			return pruned, fmt.Errorf("prune doctor %s: %w", id, err)
		}
		if changed {
			pruned++
		}
	}
	return pruned, nil
}

func (r *PgRepository) pruneDoctorLedger(ctx context.Context, doctorID uuid.UUID, today time.Time) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	ledger, err := lockLedger(ctx, tx, doctorID)
	if err != nil {
		return false, err
	}

	changed := false
	for key := range ledger {
		day, err := ParseDateKey(key, today.Location())
		if err != nil {
			// Unparseable keys are left alone rather than silently dropped.
			continue
		}
		if day.Before(today) {
			delete(ledger, key)
			changed = true
		}
	}
	if !changed {
		return false, nil
	}

	if err := storeLedger(ctx, tx, doctorID, ledger); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}
	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
