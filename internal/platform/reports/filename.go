package reports

import (
	"strings"
	"time"
)

// FileName returns the download name of a report: kind, patient reference
// and generation date, restricted to filename-safe characters.
func FileName(doc Document, s *Snapshot, now time.Time) string {
	ref := s.Patient.MRN
	if ref == "" {
		ref = s.Patient.ID
	}
	if ref == "" {
		ref = "patient"
	}
	parts := []string{doc.Kind, sanitize(ref)}
	if doc.Kind == DocumentTestReport && len(s.Tests) > 0 && s.Tests[0].Name != "" {
		parts = append(parts, sanitize(s.Tests[0].Name))
	}
	parts = append(parts, now.Format("20060102"))
	return strings.Join(parts, "-") + ".pdf"
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '/', r == '.':
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "unnamed"
	}
	return out
}
