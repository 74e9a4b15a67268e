package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/medibook/clinic-scheduler/internal/auth"
	"github.com/medibook/clinic-scheduler/internal/metrics"
)

type RouterConfig struct {
	Service BookingService
	Auth    *auth.Manager
	Metrics *metrics.Metrics
	Logger  zerolog.Logger
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(cfg.Metrics.Middleware)

	// Health and scrape endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())

	// Public directory and availability
	r.Get("/doctors", listDoctorsHandler(cfg.Service))
	r.Get("/doctors/{id}/availability", getAvailabilityHandler(cfg.Service))

	// Patient endpoints
	r.Group(func(r chi.Router) {
		r.Use(Authenticator(cfg.Auth), RequireRole(auth.RolePatient))
		r.Get("/doctors/{id}/day-blocked", checkDayBlockedHandler(cfg.Service))
		r.Post("/appointments", bookAppointmentHandler(cfg.Service, cfg.Metrics))
		r.Get("/appointments", listPatientAppointmentsHandler(cfg.Service))
	})

	// Cancellation is open to both parties; the engine checks record
	// ownership and applies the patient-only window policy.
	r.Group(func(r chi.Router) {
		r.Use(Authenticator(cfg.Auth), RequireRole(auth.RolePatient, auth.RoleDoctor))
		r.Post("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Service))
	})

	// Doctor endpoints
	r.Group(func(r chi.Router) {
		r.Use(Authenticator(cfg.Auth), RequireRole(auth.RoleDoctor))
		r.Post("/appointments/{id}/complete", completeAppointmentHandler(cfg.Service))
		r.Get("/doctor/appointments", listDoctorAppointmentsHandler(cfg.Service))
		r.Get("/doctor/dashboard", doctorDashboardHandler(cfg.Service))
		r.Post("/doctor/availability", toggleAvailabilityHandler(cfg.Service))
	})

	// Payment gateway callback
	r.Group(func(r chi.Router) {
		r.Use(Authenticator(cfg.Auth), RequireRole(auth.RoleGateway))
		r.Post("/appointments/{id}/payment-status", updatePaymentStatusHandler(cfg.Service))
	})

	return r
}
