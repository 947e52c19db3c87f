package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRoute(t *testing.T) {
	assert.Equal(t, "/donorRequest", Route("/donorRequest/65ab12"))
	assert.Equal(t, "/donorRequest", Route("/donorRequest?email=a@b.c&limit=3"))
	assert.Equal(t, "/donors/role", Route("/donors/role/a@b.c"))
	assert.Equal(t, "/donors", Route("/donors/a@b.c"))
	assert.Equal(t, "/", Route("/"))
}

func TestObserveAPI_CountsByRoute(t *testing.T) {
	m := New()
	m.ObserveAPI(http.MethodGet, "/donorRequest/1", 200, time.Millisecond)
	m.ObserveAPI(http.MethodGet, "/donorRequest/2", 200, time.Millisecond)
	m.ObserveAPI(http.MethodGet, "/donorRequest/3", 0, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.apiRequestsTotal.WithLabelValues("GET", "/donorRequest", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.apiRequestsTotal.WithLabelValues("GET", "/donorRequest", "error")))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.CacheHit("x")
	m.ObserveAPI("GET", "/x", 200, 0)
	m.SessionEvent("sign_in")
	m.TrackHTTP("GET", "/x")(200)
	assert.Nil(t, m.Registry())
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := New()
	m.CacheMiss("blood_requests")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `dashboard_list_cache_lookups_total{collection="blood_requests",result="miss"} 1`))
}
