package metrics

import (
	"strings"
	"testing"
)

func TestRecordRequestAndExport(t *testing.T) {
	// Record a single request and ensure it appears in the export.
	RecordRequest("POST", "/v1/analyze", 200, 42)

	out := Export()
	if !strings.Contains(out, "ctalens_http_requests_total{method=\"POST\",path=\"/v1/analyze\",status=\"200\"}") {
		t.Fatalf("expected HTTP request metric for POST /v1/analyze in export, got:\n%s", out)
	}
	if !strings.Contains(out, "ctalens_http_request_duration_ms_sum") || !strings.Contains(out, "ctalens_http_request_duration_ms_count") {
		t.Fatalf("expected latency metrics headers in export, got:\n%s", out)
	}
}

func TestRecordAnalysisMetrics(t *testing.T) {
	RecordAnalysis("prediction", false)
	RecordAnalysis("prediction", true)
	RecordAnalysis("funnel", false)

	out := Export()
	if !strings.Contains(out, "ctalens_analyses_total{kind=\"prediction\",fallback=\"false\"}") {
		t.Fatalf("expected analyses_total without fallback, got:\n%s", out)
	}
	if !strings.Contains(out, "ctalens_analyses_total{kind=\"prediction\",fallback=\"true\"}") {
		t.Fatalf("expected analyses_total with fallback, got:\n%s", out)
	}
	if !strings.Contains(out, "ctalens_analyses_total{kind=\"funnel\",fallback=\"false\"}") {
		t.Fatalf("expected analyses_total for funnel, got:\n%s", out)
	}
}

func TestRecordCaptureAndCacheMetrics(t *testing.T) {
	RecordCapture("mobile", true)
	RecordCapture("mobile", false)
	RecordCacheLookup("prediction", true)
	RecordCacheLookup("prediction", false)

	out := Export()
	if !strings.Contains(out, "ctalens_captures_total{device=\"mobile\",success=\"true\"}") {
		t.Fatalf("expected successful capture metric, got:\n%s", out)
	}
	if !strings.Contains(out, "ctalens_captures_total{device=\"mobile\",success=\"false\"}") {
		t.Fatalf("expected failed capture metric, got:\n%s", out)
	}
	if !strings.Contains(out, "ctalens_cache_hits_total{kind=\"prediction\"}") {
		t.Fatalf("expected cache hit metric, got:\n%s", out)
	}
	if !strings.Contains(out, "ctalens_cache_misses_total{kind=\"prediction\"}") {
		t.Fatalf("expected cache miss metric, got:\n%s", out)
	}
}
