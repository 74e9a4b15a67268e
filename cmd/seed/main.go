package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medibook/clinic-scheduler/internal/auth"
	"github.com/medibook/clinic-scheduler/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	doctorIDs, err := seedDoctors(context.Background(), pool, 50)
	if err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	patientIDs, err := seedPatients(context.Background(), pool, 2000)
	if err != nil {
		log.Fatalf("seed patients: %v", err)
	}

	printSampleTokens(doctorIDs[0], patientIDs[0])

	log.Println("seed complete")
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d doctors", count)

	specialities := []string{
		"Dermatology",
		"Cardiology",
		"General physician",
		"Orthopedics",
		"Gynecologist",
		"Neurologist",
		"Pediatricians",
		"Gastroenterologist",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := "Dr. " + gofakeit.Name()
		spec := specialities[gofakeit.Number(0, len(specialities)-1)]
		fees := gofakeit.Number(30, 120)

		_, err := tx.Exec(ctx, `
			INSERT INTO doctors (id, name, email, speciality, fees, available,
				working_start, working_end, slots_booked, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, true, '10:00', '21:00', '{}'::jsonb, now(), now())
		`, id, name, gofakeit.Email(), spec, fees)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("doctors seeded")
	return ids, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d patients", count)

	const batchSize = 500

	ids := make([]uuid.UUID, 0, count)
	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return nil, err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			name := gofakeit.Name()
			email := gofakeit.Email()

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, name, email, created_at, updated_at)
				VALUES ($1, $2, $3, now(), now())
			`, id, name, email)
			if err != nil {
				_ = tx.Rollback(ctx)
				return nil, err
			}
			ids = append(ids, id)
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	log.Println("patients seeded")
	return ids, nil
}

// printSampleTokens emits ready-to-use bearer tokens for local testing when
// JWT_SECRET is set. Skipped silently otherwise.
func printSampleTokens(doctorID, patientID uuid.UUID) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return
	}
	mgr := auth.NewManager(secret)

	patientTok, err := mgr.Sign(patientID, auth.RolePatient, 24*time.Hour)
	if err != nil {
		log.Printf("sign patient token: %v", err)
		return
	}
	doctorTok, err := mgr.Sign(doctorID, auth.RoleDoctor, 24*time.Hour)
	if err != nil {
		log.Printf("sign doctor token: %v", err)
		return
	}
	gatewayTok, err := mgr.Sign(uuid.New(), auth.RoleGateway, 24*time.Hour)
	if err != nil {
		log.Printf("sign gateway token: %v", err)
		return
	}

	log.Printf("sample patient token (%s): %s", patientID, patientTok)
	log.Printf("sample doctor token  (%s): %s", doctorID, doctorTok)
	log.Printf("sample gateway token: %s", gatewayTok)
}
