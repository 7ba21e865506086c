package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.BookingDecision(true, "")
		m.Payment("record", nil)
		m.DiscountTransition("birthday", "available")
	})
}

func TestCounters(t *testing.T) {
	m := New()
	m.BookingDecision(false, "slot_conflict")
	m.BookingDecision(false, "slot_conflict")
	m.Payment("record", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.bookingDecisions.WithLabelValues("rejected", "slot_conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.payments.WithLabelValues("record", "error")))
}

func TestHandlerExposesRequestDuration(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `salon_http_request_duration_seconds_count{method="GET",route="/ping",status="204"} 1`))
}
