package telemetry

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from metrics handler, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestObserveReport_Success(t *testing.T) {
	m := New("test")

	m.ObserveReport(Generation{
		Kind:           "discharge-summary",
		Pages:          4,
		EstimatedPages: 3,
		OverflowPages:  1,
		Bytes:          2048,
		Duration:       120 * time.Millisecond,
	})

	if got := testutil.ToFloat64(m.reportsTotal.WithLabelValues("discharge-summary", "ok")); got != 1 {
		t.Errorf("expected 1 successful generation, got %v", got)
	}
	if got := testutil.ToFloat64(m.estimateMisses.WithLabelValues("discharge-summary")); got != 1 {
		t.Errorf("expected 1 estimate miss, got %v", got)
	}
	if got := testutil.ToFloat64(m.overflowPages.WithLabelValues("discharge-summary")); got != 1 {
		t.Errorf("expected 1 overflow page, got %v", got)
	}
	if got := testutil.ToFloat64(m.reportBytesTotal.WithLabelValues("discharge-summary")); got != 2048 {
		t.Errorf("expected 2048 bytes, got %v", got)
	}
}

func TestObserveReport_ExactEstimateIsNotAMiss(t *testing.T) {
	m := New("test")

	m.ObserveReport(Generation{Kind: "test-report", Pages: 2, EstimatedPages: 2})

	if got := testutil.ToFloat64(m.estimateMisses.WithLabelValues("test-report")); got != 0 {
		t.Errorf("expected no estimate miss, got %v", got)
	}
}

func TestObserveReport_Failure(t *testing.T) {
	m := New("test")

	m.ObserveReport(Generation{Kind: "test-report", Failed: true})

	if got := testutil.ToFloat64(m.reportsTotal.WithLabelValues("test-report", "error")); got != 1 {
		t.Errorf("expected 1 failed generation, got %v", got)
	}
	if got := testutil.ToFloat64(m.reportsTotal.WithLabelValues("test-report", "ok")); got != 0 {
		t.Errorf("expected no successful generation, got %v", got)
	}
}

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	m := New("test")
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/api/v1/tests/:id/report", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tests/"+id+"/report", nil))
	}

	got := testutil.ToFloat64(m.requestsTotal.WithLabelValues(http.MethodGet, "/api/v1/tests/:id/report", "200"))
	if got != 3 {
		t.Errorf("expected 3 requests under one route label, got %v", got)
	}
	if v := testutil.ToFloat64(m.inFlight); v != 0 {
		t.Errorf("expected no in-flight requests after completion, got %v", v)
	}
}

func TestMiddleware_RecordsHTTPErrorStatus(t *testing.T) {
	m := New("test")
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	h := m.Middleware()(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	})
	if err := h(c); err == nil {
		t.Fatal("expected handler error to propagate")
	}

	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")); got != 1 {
		t.Errorf("expected 404 to be counted, got %v", got)
	}
}

func TestRegisterPool_SampledAtScrape(t *testing.T) {
	m := New("test")
	acquired := int32(1)
	m.RegisterPool("test", func() (int32, int32, int32) { return 5, 5 - acquired, acquired })

	acquired = 3
	out := scrape(t, m)
	if !strings.Contains(out, "test_db_acquired_connections 3") {
		t.Errorf("expected acquired gauge of 3 in output:\n%s", out)
	}
	if !strings.Contains(out, "test_db_idle_connections 2") {
		t.Errorf("expected idle gauge of 2 in output:\n%s", out)
	}
}

func TestHandler_ExposesReportMetrics(t *testing.T) {
	m := New("surgitrack")
	m.ObserveReport(Generation{Kind: "discharge-summary", Pages: 1, EstimatedPages: 1})

	out := scrape(t, m)
	for _, want := range []string{
		"surgitrack_reports_generated_total",
		"surgitrack_reports_pages_bucket",
		"surgitrack_reports_generation_duration_seconds",
		"go_goroutines",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in metrics output", want)
		}
	}
}

func TestMetrics_ConcurrentSafe(t *testing.T) {
	m := New("test")
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.ObserveReport(Generation{Kind: "test-report", Pages: 1, EstimatedPages: 1})
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(m.reportsTotal.WithLabelValues("test-report", "ok")); got != 20 {
		t.Errorf("expected 20 generations, got %v", got)
	}
}
