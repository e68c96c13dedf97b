package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func scrape(t *testing.T, metrics *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/state/ops/{op}")

	req := httptest.NewRequest(http.MethodGet, "/state/ops/fetch", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	body := scrape(t, metrics)
	if !strings.Contains(body, "roomio_http_requests_total{code=\"418\",route=\"/state/ops/{op}\"} 1") {
		t.Fatalf("expected metrics to record request, got: %s", body)
	}
	if !strings.Contains(body, "roomio_http_request_duration_seconds_bucket{route=\"/state/ops/{op}\"") {
		t.Fatalf("expected duration histogram to be present, got: %s", body)
	}
}

func TestObserveCall(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveCall("mark_paid", "ok", 20*time.Millisecond)
	metrics.ObserveCall("mark_paid", "conflict", 5*time.Millisecond)
	metrics.ObserveCall("mark_paid", "ok", time.Millisecond)

	body := scrape(t, metrics)
	if !strings.Contains(body, "roomio_billing_calls_total{endpoint=\"mark_paid\",outcome=\"ok\"} 2") {
		t.Fatalf("expected ok calls to be counted, got: %s", body)
	}
	if !strings.Contains(body, "roomio_billing_calls_total{endpoint=\"mark_paid\",outcome=\"conflict\"} 1") {
		t.Fatalf("expected conflict call to be counted, got: %s", body)
	}
	if !strings.Contains(body, "roomio_billing_call_duration_seconds_count{endpoint=\"mark_paid\"} 3") {
		t.Fatalf("expected call durations, got: %s", body)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	metrics.ObserveCall("x", "ok", time.Second)

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
