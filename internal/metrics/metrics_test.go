package metrics

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/common/expfmt"
)

func TestRegistry_TextRoundTrip(t *testing.T) {
	r := New()
	r.ObserveRequest("POST", "/api/v1/on-covid-19", 200, 20*time.Millisecond)
	r.ObserveRequest("POST", "/api/v1/on-covid-19", 200, 30*time.Millisecond)
	r.ObserveRequest("POST", "/api/v1/on-covid-19", 400, 5*time.Millisecond)
	r.IncEstimate("json")
	r.IncEstimate("xml")
	r.IncEstimate("xml")
	r.IncCacheLookup(true)
	r.IncCacheLookup(false)
	r.IncCacheLookup(false)

	var buf bytes.Buffer
	if err := r.WriteText(&buf); err != nil {
		t.Fatalf("WriteText: %v", err)
	}

	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(&buf)
	if err != nil {
		t.Fatalf("parse exposition: %v", err)
	}

	requests := mfs[RequestsTotal]
	if requests == nil || len(requests.GetMetric()) != 2 {
		t.Fatalf("expected 2 request series, got %v", requests)
	}
	var total float64
	for _, m := range requests.GetMetric() {
		total += m.GetCounter().GetValue()
	}
	if total != 3 {
		t.Errorf("requests total: got %v, want 3", total)
	}

	dur := mfs[RequestDuration].GetMetric()[0].GetSummary()
	if dur.GetSampleCount() != 3 {
		t.Errorf("duration count: got %d, want 3", dur.GetSampleCount())
	}
	if got := dur.GetSampleSum(); got < 0.0549 || got > 0.0551 {
		t.Errorf("duration sum: got %v, want 0.055", got)
	}

	for _, m := range mfs[EstimatesTotal].GetMetric() {
		if m.GetLabel()[0].GetValue() == "xml" && m.GetCounter().GetValue() != 2 {
			t.Errorf("xml estimates: got %v, want 2", m.GetCounter().GetValue())
		}
	}
	for _, m := range mfs[CacheLookups].GetMetric() {
		if m.GetLabel()[0].GetValue() == "miss" && m.GetCounter().GetValue() != 2 {
			t.Errorf("cache misses: got %v, want 2", m.GetCounter().GetValue())
		}
	}
}

func TestRegistry_Gather(t *testing.T) {
	r := New()
	r.ObserveRequest("POST", "/api/v1/on-covid-19/xml", 429, time.Millisecond)

	families, err := r.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) != 2 {
		t.Fatalf("expected request and duration families only, got %d", len(families))
	}
	if families[0].GetName() != RequestDuration || families[1].GetName() != RequestsTotal {
		t.Errorf("families not sorted by name: %s, %s", families[0].GetName(), families[1].GetName())
	}
	for _, l := range families[1].GetMetric()[0].GetLabel() {
		if l.GetName() == "status" && l.GetValue() != "429" {
			t.Errorf("status label: got %q", l.GetValue())
		}
	}
}

func TestRegistry_EmptySkipsFamilies(t *testing.T) {
	var buf bytes.Buffer
	if err := New().WriteText(&buf); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected empty exposition, got %q", buf.String())
	}
}

func TestRegistry_ServeHTTP(t *testing.T) {
	r := New()
	r.IncEstimate("json")

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type: got %q", ct)
	}
	if !strings.Contains(rr.Body.String(), `outbreak_estimates_total{format="json"} 1`) {
		t.Errorf("missing estimates series in %q", rr.Body.String())
	}
}
