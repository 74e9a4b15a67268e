package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_ServesOwnRegistry(t *testing.T) {
	m := New("clinic_test", prometheus.NewRegistry())
	m.CountBooking("booked")
	m.CountBooking("conflict")
	m.CountBooking("conflict")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `clinic_test_booking_outcomes_total{outcome="booked"} 1`)
	assert.Contains(t, body, `clinic_test_booking_outcomes_total{outcome="conflict"} 2`)
}

func TestHandler_RegistriesAreIndependent(t *testing.T) {
	a := New("clinic_a", prometheus.NewRegistry())
	b := New("clinic_b", prometheus.NewRegistry())
	a.CountBooking("booked")

	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.NotContains(t, rec.Body.String(), "clinic_a_booking_outcomes_total")
}
