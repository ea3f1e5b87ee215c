package reports

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/surgitrack/surgitrack/internal/platform/archive"
)

// Archiver keeps a copy of generated reports.
type Archiver interface {
	Put(ctx context.Context, meta archive.Metadata, data []byte) (*archive.Metadata, error)
}

// ArchiveIDHeader carries the archive id of a stored report.
const ArchiveIDHeader = "X-Archive-ID"

// Handler provides HTTP endpoints for report generation.
type Handler struct {
	assembler *Assembler
	fetcher   SnapshotFetcher
	archive   Archiver
}

// NewHandler creates a report handler. fetcher and store may be nil: without
// a fetcher the stored-record routes answer 503, without a store archive
// requests are ignored.
func NewHandler(assembler *Assembler, fetcher SnapshotFetcher, store Archiver) *Handler {
	return &Handler{assembler: assembler, fetcher: fetcher, archive: store}
}

// RegisterRoutes registers report endpoints on the provided route group.
//
//	GET  /api/v1/patients/:id/discharge-summary - discharge summary of a stored patient
//	GET  /api/v1/tests/:id/report               - report of a stored test
//	POST /api/v1/reports/discharge-summary      - discharge summary of a posted snapshot
//	POST /api/v1/reports/test-report            - test report of a posted snapshot
//	POST /api/v1/reports/estimate               - estimated page count of a posted snapshot
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/patients/:id/discharge-summary", h.DischargeSummary)
	g.GET("/tests/:id/report", h.TestReport)
	g.POST("/reports/discharge-summary", h.DischargeSummaryFromSnapshot)
	g.POST("/reports/test-report", h.TestReportFromSnapshot)
	g.POST("/reports/estimate", h.Estimate)
}

// DischargeSummary handles GET /api/v1/patients/:id/discharge-summary.
func (h *Handler) DischargeSummary(c echo.Context) error {
	patientID := c.Param("id")
	if patientID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "patient ID is required"})
	}
	if h.fetcher == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "no record store configured"})
	}

	snap, err := h.fetcher.FetchDischargeSnapshot(c.Request().Context(), patientID)
	if err != nil {
		return fetchError(c, "patient", err)
	}
	return h.respond(c, DischargeSummaryDocument(), snap)
}

// TestReport handles GET /api/v1/tests/:id/report.
func (h *Handler) TestReport(c echo.Context) error {
	testID := c.Param("id")
	if testID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "test ID is required"})
	}
	if h.fetcher == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "no record store configured"})
	}

	snap, err := h.fetcher.FetchTestSnapshot(c.Request().Context(), testID)
	if err != nil {
		return fetchError(c, "test", err)
	}
	one, err := ForTest(snap, testID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	return h.respond(c, TestReportDocument(), one)
}

// DischargeSummaryFromSnapshot handles POST /api/v1/reports/discharge-summary.
func (h *Handler) DischargeSummaryFromSnapshot(c echo.Context) error {
	var snap Snapshot
	if err := c.Bind(&snap); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid snapshot: " + err.Error()})
	}
	return h.respond(c, DischargeSummaryDocument(), &snap)
}

// TestReportFromSnapshot handles POST /api/v1/reports/test-report. The
// optional test_id query parameter selects a test; otherwise the first one
// is reported.
func (h *Handler) TestReportFromSnapshot(c echo.Context) error {
	var snap Snapshot
	if err := c.Bind(&snap); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid snapshot: " + err.Error()})
	}
	one, err := ForTest(&snap, c.QueryParam("test_id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	return h.respond(c, TestReportDocument(), one)
}

type estimateResponse struct {
	Kind           string `json:"kind"`
	EstimatedPages int    `json:"estimated_pages"`
	Addendum       bool   `json:"addendum"`
}

// Estimate handles POST /api/v1/reports/estimate?kind=discharge-summary|test-report.
func (h *Handler) Estimate(c echo.Context) error {
	var doc Document
	switch kind := c.QueryParam("kind"); kind {
	case "", DocumentDischargeSummary:
		doc = DischargeSummaryDocument()
	case DocumentTestReport:
		doc = TestReportDocument()
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown report kind: " + kind})
	}

	var snap Snapshot
	if err := c.Bind(&snap); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid snapshot: " + err.Error()})
	}
	s := &snap
	if doc.Kind == DocumentTestReport {
		one, err := ForTest(s, c.QueryParam("test_id"))
		if err != nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		s = one
	}

	return c.JSON(http.StatusOK, estimateResponse{
		Kind:           doc.Kind,
		EstimatedPages: h.assembler.Estimate(doc, s),
		Addendum:       h.assembler.hasAddendum(doc, s),
	})
}

func (h *Handler) respond(c echo.Context, doc Document, snap *Snapshot) error {
	data, stats, err := h.assembler.Generate(doc, snap)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to generate report: " + err.Error(),
		})
	}

	name := FileName(doc, snap, h.assembler.clock())
	if h.archive != nil && c.QueryParam("archive") == "true" {
		meta, err := h.archive.Put(c.Request().Context(), archive.Metadata{
			Kind:        doc.Kind,
			PatientID:   snap.Patient.ID,
			FileName:    name,
			ContentType: "application/pdf",
			Pages:       stats.Pages,
		}, data)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error": "failed to archive report: " + err.Error(),
			})
		}
		c.Response().Header().Set(ArchiveIDHeader, meta.ID)
	}

	c.Response().Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	return c.Blob(http.StatusOK, "application/pdf", data)
}

func fetchError(c echo.Context, what string, err error) error {
	if errors.Is(err, ErrSnapshotNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": what + " not found"})
	}
	return c.JSON(http.StatusInternalServerError, map[string]string{
		"error": "failed to load " + what + ": " + err.Error(),
	})
}
