package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// archiveIDHeader mirrors the header the report handler sets when a
// generated PDF is archived.
const archiveIDHeader = "X-Archive-ID"

// AuditEntry records one access to a patient report: which record, what was
// done with it, and how it ended. It never carries report contents.
type AuditEntry struct {
	Resource   string // patients, tests, reports, archive
	PatientID  string
	TestID     string
	ArchiveID  string
	Action     string // read, generate, delete
	IPAddress  string
	UserAgent  string
	Path       string
	Method     string
	Timestamp  time.Time
	RequestID  string
	StatusCode int
}

// AuditRecorder persists audit entries. Tests provide a mock.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// Audit logs every request under /api/v1/ as a report access event. When a
// recorder is supplied the entry is also handed to it.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path

			if !strings.HasPrefix(path, "/api/v1/") {
				return next(c)
			}

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}

			entry := AuditEntry{
				Timestamp:  time.Now().UTC(),
				Path:       path,
				Method:     req.Method,
				IPAddress:  c.RealIP(),
				UserAgent:  req.UserAgent(),
				StatusCode: status,
				Action:     httpMethodToAction(req.Method),
				ArchiveID:  c.Response().Header().Get(archiveIDHeader),
			}
			if rid, ok := c.Get("request_id").(string); ok {
				entry.RequestID = rid
			}

			segments := strings.Split(strings.TrimPrefix(path, "/api/v1/"), "/")
			entry.Resource = segments[0]
			if len(segments) > 1 {
				switch segments[0] {
				case "patients":
					entry.PatientID = segments[1]
				case "tests":
					entry.TestID = segments[1]
				case "archive":
					entry.ArchiveID = segments[1]
				}
			}
			if entry.TestID == "" {
				entry.TestID = c.QueryParam("test_id")
			}

			if len(recorders) > 0 && recorders[0] != nil {
				if recErr := recorders[0].RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).
						Str("request_id", entry.RequestID).
						Msg("failed to record audit entry")
				}
			}

			logger.Info().
				Str("type", "report_audit").
				Str("request_id", entry.RequestID).
				Str("resource", entry.Resource).
				Str("patient_id", entry.PatientID).
				Str("test_id", entry.TestID).
				Str("archive_id", entry.ArchiveID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("report_access")

			return err
		}
	}
}

func httpMethodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "generate"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}
