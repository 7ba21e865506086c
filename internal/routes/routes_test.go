package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/BruksfildServices01/salon-scheduler/internal/config"
	"github.com/BruksfildServices01/salon-scheduler/internal/infra/notify"
	"github.com/BruksfildServices01/salon-scheduler/internal/infra/repository"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

// 2030-03-04 is a Monday.
const bookingDate = "2030-03-04"

type testServer struct {
	t      *testing.T
	router *gin.Engine
	store  *repository.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore()
	cfg := &config.Config{
		JWTSecret:         "test-secret",
		MinAdvanceMinutes: 60,
		SlotStepMinutes:   15,
	}

	r := gin.New()
	RegisterRoutes(r, store, Infra{Publisher: notify.LogPublisher{}}, cfg)

	return &testServer{t: t, router: r, store: store}
}

func (s *testServer) seedUser(email, role string) {
	s.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(s.t, err)
	require.NoError(s.t, s.store.CreateUser(context.Background(), &models.User{
		Name:         "Staff",
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}))
}

func (s *testServer) login(email string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": "secret123"})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Token
}

func (s *testServer) do(method, path, token string, payload any) *httptest.ResponseRecorder {
	s.t.Helper()

	var buf bytes.Buffer
	if payload != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(payload))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func idOf(t *testing.T, w *httptest.ResponseRecorder) uint {
	t.Helper()
	id, ok := decode(t, w)["id"].(float64)
	require.True(t, ok, w.Body.String())
	return uint(id)
}

// setupSalon opens Mondays 09:00-18:00 and adds a 60 minute service.
func (s *testServer) setupSalon(token string) uint {
	s.t.Helper()

	w := s.do(http.MethodPut, "/api/me/working-hours", token, gin.H{
		"days": []gin.H{{"weekday": 1, "active": true, "start_time": "09:00", "end_time": "18:00"}},
	})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/me/services", token, gin.H{
		"name":         "Coupe",
		"duration_min": 60,
		"price":        "30",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return idOf(s.t, w)
}

// ======================================================
// AUTH
// ======================================================

func TestSecuredRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/me/clients", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/me/clients", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	s := newTestServer(t)
	s.seedUser("owner@salon.fr", "owner")

	w := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "owner@salon.fr", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_credentials", decode(t, w)["error_code"])
}

func TestLoginNormalizesEmail(t *testing.T) {
	s := newTestServer(t)
	s.seedUser("owner@salon.fr", "owner")

	assert.NotEmpty(t, s.login("Owner@Salon.FR"))
}

func TestOwnerOnlyRoutes(t *testing.T) {
	s := newTestServer(t)
	s.seedUser("owner@salon.fr", "owner")
	s.seedUser("staff@salon.fr", "staff")

	staff := s.login("staff@salon.fr")
	owner := s.login("owner@salon.fr")

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/me/audit-logs", staff, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/me/audit-logs", owner, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/me/services", staff, nil).Code)
}

// ======================================================
// BOOKING FLOW
// ======================================================

func TestBookingLifecycle(t *testing.T) {
	s := newTestServer(t)
	s.seedUser("owner@salon.fr", "owner")
	token := s.login("owner@salon.fr")
	serviceID := s.setupSalon(token)

	// signup público
	w := s.do(http.MethodPost, "/api/public/clients", "", gin.H{"name": "Ana", "phone": "0600000001"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	clientID := idOf(t, w)

	// disponibilidade
	w = s.do(http.MethodGet, fmt.Sprintf("/api/public/availability?date=%s&service_ids=%d", bookingDate, serviceID), "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	slots := decode(t, w)["slots"].([]any)
	require.NotEmpty(t, slots)
	assert.Equal(t, "09:00", slots[0].(map[string]any)["start"])

	// reserva
	booking := gin.H{
		"client_id": clientID,
		"date":      bookingDate,
		"time":      "10:00",
		"services":  []gin.H{{"service_id": serviceID}},
	}
	w = s.do(http.MethodPost, "/api/me/appointments", token, booking)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	appointmentID := idOf(t, w)

	// conflito sugere o fim do atendimento + preparo
	w = s.do(http.MethodPost, "/api/me/appointments", token, booking)
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "slot_conflict", body["error_code"])
	meta := body["meta"].(map[string]any)
	assert.Equal(t, "11:15", meta["next_free_time"])
	assert.EqualValues(t, appointmentID, meta["conflicting_appointment_id"])

	// listagem do dia
	w = s.do(http.MethodGet, "/api/me/appointments?date="+bookingDate, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["appointments"], 1)

	// conclusão
	path := fmt.Sprintf("/api/me/appointments/%d", appointmentID)
	w = s.do(http.MethodPatch, path+"/complete", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "completed", decode(t, w)["status"])

	w = s.do(http.MethodPatch, path+"/complete", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_completed", decode(t, w)["error_code"])

	// pagamento
	w = s.do(http.MethodPost, path+"/payment", token, gin.H{"amount": "30", "method": "card"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	paid := decode(t, w)
	assert.Equal(t, "paid", paid["payment_status"])
	assert.Regexp(t, `^FAC-\d{6}-0001$`, paid["invoice_number"])

	w = s.do(http.MethodGet, fmt.Sprintf("/api/me/clients/%d/loyalty", clientID), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	profile := decode(t, w)["profile"].(map[string]any)
	assert.EqualValues(t, 1, profile["individual_services_count"])
	assert.EqualValues(t, 3, profile["loyalty_points"])

	// estorno
	w = s.do(http.MethodDelete, path+"/payment", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "unpaid", decode(t, w)["payment_status"])
}

func TestAppointmentErrors(t *testing.T) {
	s := newTestServer(t)
	s.seedUser("owner@salon.fr", "owner")
	token := s.login("owner@salon.fr")
	serviceID := s.setupSalon(token)

	w := s.do(http.MethodPatch, "/api/me/appointments/999/complete", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "appointment_not_found", decode(t, w)["error_code"])

	w = s.do(http.MethodPatch, "/api/me/appointments/abc/cancel", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/me/appointments", token, gin.H{
		"client_id": 999,
		"date":      bookingDate,
		"time":      "10:00",
		"services":  []gin.H{{"service_id": serviceID}},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "client_not_found", decode(t, w)["error_code"])

	w = s.do(http.MethodPost, "/api/public/appointments", "", gin.H{
		"client_name":  "Bea",
		"client_phone": "0600000002",
		"date":         bookingDate,
		"time":         "07:00",
		"services":     []gin.H{{"service_id": serviceID}},
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "outside_working_hours", decode(t, w)["error_code"])

	w = s.do(http.MethodPost, "/api/public/clients", "", gin.H{
		"name":          "Cid",
		"phone":         "0600000003",
		"referral_code": "UNKNOWN1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_referral_code", decode(t, w)["error_code"])
}

func TestBlockedSlotsRoundTrip(t *testing.T) {
	s := newTestServer(t)
	s.seedUser("owner@salon.fr", "owner")
	token := s.login("owner@salon.fr")
	serviceID := s.setupSalon(token)

	w := s.do(http.MethodPost, "/api/me/blocked-slots", token, gin.H{
		"date":       bookingDate,
		"start_time": "09:00",
		"end_time":   "12:00",
		"reason":     "formation",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	blockID := idOf(t, w)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/public/availability?date=%s&service_ids=%d", bookingDate, serviceID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	slots := decode(t, w)["slots"].([]any)
	require.NotEmpty(t, slots)
	assert.Equal(t, "12:00", slots[0].(map[string]any)["start"])

	w = s.do(http.MethodDelete, fmt.Sprintf("/api/me/blocked-slots/%d", blockID), token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodDelete, fmt.Sprintf("/api/me/blocked-slots/%d", blockID), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/api/me/blocked-slots", token, gin.H{
		"date":       bookingDate,
		"start_time": "12:00",
		"end_time":   "11:00",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
