package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

var pdfBytes = []byte("%PDF-1.4\n%fake\n")

func pdfHandler(delay time.Duration) echo.HandlerFunc {
	return func(c echo.Context) error {
		// Rendering ignores the context, like the real assembler.
		time.Sleep(delay)
		c.Response().Header().Set("Content-Disposition", `attachment; filename="summary.pdf"`)
		return c.Blob(http.StatusOK, "application/pdf", pdfBytes)
	}
}

func reportServer(timeout, delay time.Duration) *echo.Echo {
	e := echo.New()
	e.Use(RequestID())
	g := e.Group("/api/v1", RequestTimeout(timeout))
	g.GET("/patients/:id/discharge-summary", pdfHandler(delay))
	g.GET("/tests/:id/report", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "test not found")
	})
	return e
}

func TestRequestTimeout_ReportWithinDeadline(t *testing.T) {
	e := reportServer(time.Second, 0)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/p-1/discharge-summary", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderContentType); got != "application/pdf" {
		t.Errorf("expected application/pdf, got %q", got)
	}
	if rec.Header().Get("Content-Disposition") == "" {
		t.Error("expected Content-Disposition from the handler")
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("expected headers set before the timeout to survive")
	}
	if rec.Body.String() != string(pdfBytes) {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestRequestTimeout_SlowRenderReturns504(t *testing.T) {
	e := reportServer(20*time.Millisecond, 60*time.Millisecond)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/p-1/discharge-summary", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", rec.Code)
	}
	if rec.Header().Get("Content-Disposition") != "" {
		t.Error("late handler headers leaked into the timeout response")
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON body, got %q: %v", rec.Body.String(), err)
	}
	if body["error"] == "" {
		t.Error("expected error message in body")
	}
}

// The handler has finished by the time the middleware returns, so a late
// write cannot reach a recycled context or a later request's response.
func TestRequestTimeout_LateWriteDoesNotTouchLaterRequests(t *testing.T) {
	e := echo.New()
	var mu sync.Mutex
	finished := 0
	e.GET("/api/v1/tests/:id/report", func(c echo.Context) error {
		if c.QueryParam("slow") != "" {
			time.Sleep(40 * time.Millisecond)
		}
		err := c.Blob(http.StatusOK, "application/pdf", []byte(c.Param("id")))
		mu.Lock()
		finished++
		mu.Unlock()
		return err
	}, RequestTimeout(10*time.Millisecond))

	slow := httptest.NewRecorder()
	e.ServeHTTP(slow, httptest.NewRequest(http.MethodGet, "/api/v1/tests/slow-1/report?slow=1", nil))

	mu.Lock()
	if finished != 1 {
		t.Errorf("expected the slow handler to finish before the middleware returned, finished=%d", finished)
	}
	mu.Unlock()
	if slow.Code != http.StatusGatewayTimeout {
		t.Errorf("expected 504 for the slow request, got %d", slow.Code)
	}

	fast := httptest.NewRecorder()
	e.ServeHTTP(fast, httptest.NewRequest(http.MethodGet, "/api/v1/tests/fast-2/report", nil))
	if fast.Code != http.StatusOK {
		t.Fatalf("expected 200 for the next request, got %d", fast.Code)
	}
	if fast.Body.String() != "fast-2" {
		t.Errorf("expected only the fast request's body, got %q", fast.Body.String())
	}
	if slow.Body.String() == "slow-1" {
		t.Error("late write reached the timed-out response")
	}
}

func TestRequestTimeout_ContextHasDeadline(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/p-1/discharge-summary", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		if _, ok := c.Request().Context().Deadline(); !ok {
			t.Error("expected the snapshot fetch context to have a deadline")
		}
		return c.NoContent(http.StatusOK)
	}

	if err := RequestTimeout(30 * time.Second)(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequestTimeout_PropagatesHandlerError(t *testing.T) {
	e := reportServer(time.Second, 0)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tests/missing/report", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 from the handler error, got %d", rec.Code)
	}
}

func TestBufferedWriter_KeepsFirstStatus(t *testing.T) {
	w := newBufferedWriter(nil)
	w.WriteHeader(http.StatusCreated)
	w.WriteHeader(http.StatusInternalServerError)
	w.Write([]byte("x"))

	if w.status != http.StatusCreated {
		t.Errorf("expected first status to stick, got %d", w.status)
	}
	if w.Header() == nil {
		t.Error("expected a usable header map")
	}
}
