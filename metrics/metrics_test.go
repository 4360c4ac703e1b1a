package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.ImageImported()
	m.ImageImported()
	m.DuplicateSkipped()
	m.ProfileCreated()
	m.ParseFailures(3)
	m.ParseFailures(0)
	m.TagWritten("mock")
	m.TagWritten("remote")
	m.TagWritten("remote")
	m.TagFailed()
	m.MockFallback()
	m.BatchFinished(2 * time.Second)

	assert.InDelta(t, 2, testutil.ToFloat64(m.imagesImported), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.duplicatesSkipped), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.profilesCreated), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.parseFailures), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.tagsWritten.WithLabelValues("remote")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.tagsWritten.WithLabelValues("mock")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.tagFailures), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.mockFallbacks), 0)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ImageImported()
		m.TagWritten("remote")
		m.BatchFinished(time.Second)
	})
	assert.Nil(t, m.Registry())
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ImageImported()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "rostertagger_import_images_total 1"))
}
