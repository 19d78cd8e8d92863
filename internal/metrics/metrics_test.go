package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.DocumentBuilt(nil)
	m.DocumentBuilt(nil)
	m.DocumentBuilt(errors.New("boom"))
	m.MediaResolved(MediaCopied)
	m.MediaResolved(MediaSkipped)
	m.BuildFinished(time.Now())
	m.LiveClients(func() int { return 3 })

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()

	for _, want := range []string{
		"inkwell_documents_built_total 2",
		"inkwell_documents_failed_total 1",
		`inkwell_media_resolved_total{outcome="copied"} 1`,
		`inkwell_media_resolved_total{outcome="skipped"} 1`,
		"inkwell_build_duration_seconds_count 1",
		"inkwell_live_clients 3",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.DocumentBuilt(nil)
	m.MediaResolved(MediaMissing)
	m.BuildFinished(time.Now())
	m.LiveClients(func() int { return 1 })

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
