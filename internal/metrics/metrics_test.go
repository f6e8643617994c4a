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

func TestTimer(t *testing.T) {
	timer := NewTimer()
	time.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, timer.Duration(), 5*time.Millisecond)

	before := testutil.CollectAndCount(CheckoutDuration)
	timer.ObserveDuration(CheckoutDuration)
	assert.Equal(t, before, testutil.CollectAndCount(CheckoutDuration))
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(CheckoutsTotal.WithLabelValues("committed"))
	CheckoutsTotal.WithLabelValues("committed").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(CheckoutsTotal.WithLabelValues("committed")))
}

func TestHandler(t *testing.T) {
	MonitorTicks.WithLabelValues("ok").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "kasir_monitor_ticks_total"))
}
