package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMetricsRecordAuthDecision(t *testing.T) {
	m := NewMetrics("scoo")

	m.RecordAuthDecision("authenticated")
	m.RecordAuthDecision("authenticated")
	m.RecordAuthDecision("forbidden")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.authDecisions.WithLabelValues("authenticated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authDecisions.WithLabelValues("forbidden")))
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", http.MethodGet, 200, time.Millisecond)
		m.RecordError("/", http.MethodGet, "X")
		m.RecordAuthDecision("forbidden")
	})
}

func TestRequestLoggerRecordsRoute(t *testing.T) {
	m := NewMetrics("scoo")
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), m))
	app.Get("/groups/:groupId", func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/groups/42", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestCount.WithLabelValues("/groups/:groupId", http.MethodGet, "204")))
}
