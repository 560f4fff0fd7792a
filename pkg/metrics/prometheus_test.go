package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheus_CountsRequestsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	p := NewPrometheus(NewPrometheusOptions{
		Subsystem:  "test",
		Registerer: reg,
		ReqCntURLLabelMappingFn: func(c *gin.Context) string {
			return c.FullPath()
		},
	})

	r := gin.New()
	p.Use(r, "")
	r.GET("/orders/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/"+id, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	require.Equal(t, float64(2), testutil.ToFloat64(p.reqCnt.WithLabelValues("200", http.MethodGet, "/orders/:id", "")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestIncWebhookEvent_RegistersLazily(t *testing.T) {
	IncWebhookEvent("checkout.session.completed", "handled")
	c, ok := MetricsWebhookEvents.MetricCollector.(*prometheus.CounterVec)
	require.True(t, ok)
	require.GreaterOrEqual(t, testutil.ToFloat64(c.WithLabelValues("checkout.session.completed", "handled")), float64(1))
}
