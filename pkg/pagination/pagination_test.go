package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func contextFor(target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestFromContext_Defaults(t *testing.T) {
	p := FromContext(contextFor("/"))

	if p.Limit != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, p.Limit)
	}
	if p.Offset != 0 {
		t.Errorf("expected default offset 0, got %d", p.Offset)
	}
}

func TestFromContext_CustomValues(t *testing.T) {
	p := FromContext(contextFor("/?limit=50&offset=10"))

	if p.Limit != 50 {
		t.Errorf("expected limit 50, got %d", p.Limit)
	}
	if p.Offset != 10 {
		t.Errorf("expected offset 10, got %d", p.Offset)
	}
}

func TestFromContext_MaxLimit(t *testing.T) {
	p := FromContext(contextFor("/?limit=5000"))

	if p.Limit != MaxLimit {
		t.Errorf("expected limit capped at %d, got %d", MaxLimit, p.Limit)
	}
}

func TestFromContext_NegativeOffset(t *testing.T) {
	p := FromContext(contextFor("/?offset=-5"))

	if p.Offset != 0 {
		t.Errorf("expected offset 0, got %d", p.Offset)
	}
}

func TestFromContext_Garbage(t *testing.T) {
	p := FromContext(contextFor("/?limit=abc&offset=xyz"))

	if p.Limit != DefaultLimit || p.Offset != 0 {
		t.Errorf("expected defaults, got %+v", p)
	}
}

func TestParams_Window(t *testing.T) {
	tests := []struct {
		name       string
		params     Params
		total      int
		start, end int
	}{
		{"first page", Params{Limit: 10, Offset: 0}, 25, 0, 10},
		{"last partial page", Params{Limit: 10, Offset: 20}, 25, 20, 25},
		{"offset past end", Params{Limit: 10, Offset: 40}, 25, 25, 25},
		{"empty", Params{Limit: 10, Offset: 0}, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := tt.params.Window(tt.total)
			if start != tt.start || end != tt.end {
				t.Errorf("Window(%d) = [%d,%d), want [%d,%d)", tt.total, start, end, tt.start, tt.end)
			}
		})
	}
}

func TestNewResponse(t *testing.T) {
	data := []string{"a", "b"}
	resp := NewResponse(data, 50, 20, 0)

	if resp.Total != 50 {
		t.Errorf("expected total 50, got %d", resp.Total)
	}
	if resp.Limit != 20 {
		t.Errorf("expected limit 20, got %d", resp.Limit)
	}
	if !resp.HasMore {
		t.Error("expected has_more to be true")
	}

	last := NewResponse(data, 50, 20, 40)
	if last.HasMore {
		t.Error("expected has_more to be false on the last page")
	}
}

func TestParams_PreviousOffset(t *testing.T) {
	if got := (Params{Limit: 10, Offset: 5}).PreviousOffset(); got != 0 {
		t.Errorf("PreviousOffset() = %d, want 0", got)
	}
	if got := (Params{Limit: 10, Offset: 30}).PreviousOffset(); got != 20 {
		t.Errorf("PreviousOffset() = %d, want 20", got)
	}
}

func TestParams_Links_MiddlePage(t *testing.T) {
	p := Params{Limit: 10, Offset: 10}
	links := p.Links("/api/v1/archive", 25)

	linkMap := make(map[string]string)
	for _, l := range links {
		linkMap[l.Relation] = l.URL
	}

	if linkMap["self"] != "/api/v1/archive?offset=10&limit=10" {
		t.Errorf("unexpected self link %q", linkMap["self"])
	}
	if linkMap["next"] != "/api/v1/archive?offset=20&limit=10" {
		t.Errorf("unexpected next link %q", linkMap["next"])
	}
	if linkMap["previous"] != "/api/v1/archive?offset=0&limit=10" {
		t.Errorf("unexpected previous link %q", linkMap["previous"])
	}
}

func TestParams_Links_KeepsFilters(t *testing.T) {
	p := Params{Limit: 5, Offset: 0}
	links := p.Links("/api/v1/archive?patient_id=p1", 3)

	if len(links) != 1 {
		t.Fatalf("expected self link only, got %d links", len(links))
	}
	if links[0].URL != "/api/v1/archive?patient_id=p1&offset=0&limit=5" {
		t.Errorf("unexpected self link %q", links[0].URL)
	}
}

func TestResponse_WithLinks(t *testing.T) {
	resp := NewResponse([]int{1}, 30, 10, 0).WithLinks("/x")
	if len(resp.Links) != 2 {
		t.Fatalf("expected self and next links, got %+v", resp.Links)
	}
}
