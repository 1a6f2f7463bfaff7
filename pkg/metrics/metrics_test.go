package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func findMetric(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("%s metric not found", name)
	return nil
}

func TestRecordStage(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordStage("ocr", OutcomeSuccess, 20*time.Millisecond)
	c.RecordStage("ocr", OutcomeSuccess, 30*time.Millisecond)
	c.RecordStage("storage", OutcomeFailure, time.Millisecond)

	mf := findMetric(t, reg, "docinsight_pipeline_stage_total")
	if len(mf.GetMetric()) != 2 {
		t.Fatalf("expected 2 label sets, got %d", len(mf.GetMetric()))
	}
	hist := findMetric(t, reg, "docinsight_pipeline_stage_seconds")
	var ocrCount uint64
	for _, m := range hist.GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetName() == "stage" && l.GetValue() == "ocr" {
				ocrCount = m.GetHistogram().GetSampleCount()
			}
		}
	}
	if ocrCount != 2 {
		t.Errorf("ocr sample count = %d, want 2", ocrCount)
	}
}

func TestRecordConversation(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordConversation()

	mf := findMetric(t, reg, "docinsight_conversations_total")
	if v := mf.GetMetric()[0].GetCounter().GetValue(); v != 1 {
		t.Errorf("conversations_total = %v, want 1", v)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordHTTPRequest(http.MethodPost, "/upload", http.StatusCreated)

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body, _ := io.ReadAll(w.Body)
	if !strings.Contains(string(body), `docinsight_http_requests_total{method="POST",route="/upload",status="201"} 1`) {
		t.Errorf("unexpected exposition:\n%s", body)
	}
}
