// Package archive keeps generated report PDFs so they can be downloaded again
// without re-rendering. It defines the Store interface, an in-memory
// implementation and Echo HTTP handlers for listing, download and metadata.
package archive

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/surgitrack/surgitrack/pkg/pagination"
)

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

var (
	ErrReportNotFound = errors.New("archived report not found")
	ErrEmptyReport    = errors.New("report content is empty")
	ErrReportTooLarge = errors.New("report exceeds maximum archive size")
	ErrMissingKind    = errors.New("report kind is required")
)

// MaxReportSize is the largest PDF the archive accepts (50 MB).
const MaxReportSize = 50 * 1024 * 1024

// ---------------------------------------------------------------------------
// Domain types
// ---------------------------------------------------------------------------

// Metadata describes an archived report.
type Metadata struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	PatientID   string    `json:"patient_id,omitempty"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Hash        string    `json:"hash"`
	Pages       int       `json:"pages"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store defines the contract for report archive backends.
type Store interface {
	Put(ctx context.Context, meta Metadata, data []byte) (*Metadata, error)
	Get(ctx context.Context, id string) ([]byte, *Metadata, error)
	GetMetadata(ctx context.Context, id string) (*Metadata, error)
	Delete(ctx context.Context, id string) error
	// ListByPatient returns newest-first reports of a patient, optionally
	// filtered by kind, with the total match count.
	ListByPatient(ctx context.Context, patientID, kind string, limit, offset int) ([]*Metadata, int, error)
}

// ---------------------------------------------------------------------------
// In-memory implementation
// ---------------------------------------------------------------------------

type storedReport struct {
	metadata Metadata
	content  []byte
}

// InMemoryStore is a thread-safe, in-memory Store.
type InMemoryStore struct {
	mu      sync.RWMutex
	reports map[string]*storedReport
	now     func() time.Time
}

// NewInMemoryStore returns a ready-to-use InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		reports: make(map[string]*storedReport),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Put stores a copy of data, assigning the id, size, hash and creation time.
func (s *InMemoryStore) Put(_ context.Context, meta Metadata, data []byte) (*Metadata, error) {
	if meta.Kind == "" {
		return nil, ErrMissingKind
	}
	if len(data) == 0 {
		return nil, ErrEmptyReport
	}
	if len(data) > MaxReportSize {
		return nil, ErrReportTooLarge
	}

	meta.ID = uuid.New().String()
	meta.Size = int64(len(data))
	meta.Hash = fmt.Sprintf("%x", sha256.Sum256(data))
	meta.CreatedAt = s.now()
	if meta.ContentType == "" {
		meta.ContentType = "application/pdf"
	}

	content := make([]byte, len(data))
	copy(content, data)

	s.mu.Lock()
	s.reports[meta.ID] = &storedReport{metadata: meta, content: content}
	s.mu.Unlock()

	out := meta
	return &out, nil
}

// Get returns the report content and its metadata.
func (s *InMemoryStore) Get(_ context.Context, id string) ([]byte, *Metadata, error) {
	s.mu.RLock()
	r, ok := s.reports[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, ErrReportNotFound
	}

	meta := r.metadata
	return r.content, &meta, nil
}

// GetMetadata returns report metadata without content.
func (s *InMemoryStore) GetMetadata(_ context.Context, id string) (*Metadata, error) {
	s.mu.RLock()
	r, ok := s.reports[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrReportNotFound
	}

	meta := r.metadata
	return &meta, nil
}

// Delete removes a report by id.
func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[id]; !ok {
		return ErrReportNotFound
	}
	delete(s.reports, id)
	return nil
}

// ListByPatient implements Store.
func (s *InMemoryStore) ListByPatient(_ context.Context, patientID, kind string, limit, offset int) ([]*Metadata, int, error) {
	s.mu.RLock()
	var matched []*Metadata
	for _, r := range s.reports {
		if patientID != "" && r.metadata.PatientID != patientID {
			continue
		}
		if kind != "" && r.metadata.Kind != kind {
			continue
		}
		m := r.metadata
		matched = append(matched, &m)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	start, end := pagination.Params{Limit: limit, Offset: offset}.Normalize().Window(total)
	return matched[start:end], total, nil
}

// ---------------------------------------------------------------------------
// HTTP handler
// ---------------------------------------------------------------------------

// Handler provides Echo HTTP handlers for the archive.
type Handler struct {
	store Store
}

// NewHandler creates a new archive Handler.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes mounts archive routes on the supplied Echo group.
//
//	GET    /api/v1/archive?patient_id=&kind= - list archived reports
//	GET    /api/v1/archive/:id               - download a report
//	GET    /api/v1/archive/:id/metadata      - report metadata
//	DELETE /api/v1/archive/:id               - remove a report
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/archive", h.handleList)
	g.GET("/archive/:id/metadata", h.handleGetMetadata)
	g.GET("/archive/:id", h.handleDownload)
	g.DELETE("/archive/:id", h.handleDelete)
}

func (h *Handler) handleList(c echo.Context) error {
	p := pagination.FromContext(c)
	items, total, err := h.store.ListByPatient(c.Request().Context(),
		c.QueryParam("patient_id"), c.QueryParam("kind"), p.Limit, p.Offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if items == nil {
		items = []*Metadata{}
	}
	resp := pagination.NewResponse(items, total, p.Limit, p.Offset)
	return c.JSON(http.StatusOK, resp.WithLinks(listPath(c)))
}

func (h *Handler) handleDownload(c echo.Context) error {
	data, meta, err := h.store.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return storeError(c, err)
	}
	c.Response().Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, meta.FileName))
	return c.Blob(http.StatusOK, meta.ContentType, data)
}

func (h *Handler) handleGetMetadata(c echo.Context) error {
	meta, err := h.store.GetMetadata(c.Request().Context(), c.Param("id"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, meta)
}

func (h *Handler) handleDelete(c echo.Context) error {
	if err := h.store.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return storeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// listPath rebuilds the listing path with its filters for pagination links.
func listPath(c echo.Context) string {
	q := url.Values{}
	for _, k := range []string{"patient_id", "kind"} {
		if v := c.QueryParam(k); v != "" {
			q.Set(k, v)
		}
	}
	path := c.Request().URL.Path
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

func storeError(c echo.Context, err error) error {
	if errors.Is(err, ErrReportNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
}
