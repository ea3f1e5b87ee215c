package pdfkit

import "strings"

// Measurer word-wraps text against a Metrics source. Height and Draw share
// the same line breaking, so the height reported for a (text, font, width)
// triple is exactly the height Draw consumes.
type Measurer struct {
	metrics     Metrics
	lineSpacing float64
}

// NewMeasurer returns a Measurer using lineSpacing as the line height factor.
func NewMeasurer(m Metrics, lineSpacing float64) *Measurer {
	return &Measurer{metrics: m, lineSpacing: lineSpacing}
}

// LineHeight returns the height of one line set in f.
func (m *Measurer) LineHeight(f Font) float64 {
	return f.Size * m.lineSpacing
}

// Height returns the wrapped height of text. An empty string is one line tall.
func (m *Measurer) Height(text string, f Font, maxWidth float64) float64 {
	return float64(len(m.Lines(text, f, maxWidth))) * m.LineHeight(f)
}

// Width returns the unwrapped advance width of text.
func (m *Measurer) Width(text string, f Font) float64 {
	return m.metrics.StringWidth(text, f)
}

// Draw renders text wrapped to maxWidth with its first line box at y and
// returns the height consumed.
func (m *Measurer) Draw(s Surface, x, y float64, text string, f Font, c Color, maxWidth float64) float64 {
	lh := m.LineHeight(f)
	lines := m.Lines(text, f, maxWidth)
	for i, line := range lines {
		s.Text(x, y+float64(i)*lh, line, f, c)
	}
	return float64(len(lines)) * lh
}

// Lines breaks text into lines no wider than maxWidth. Explicit newlines
// start a new line; words wider than maxWidth are split between runes. The
// result always holds at least one line.
func (m *Measurer) Lines(text string, f Font, maxWidth float64) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		lines = append(lines, m.wrap(para, f, maxWidth)...)
	}
	return lines
}

func (m *Measurer) wrap(para string, f Font, maxWidth float64) []string {
	words := strings.Fields(para)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	line := ""
	for _, w := range words {
		candidate := w
		if line != "" {
			candidate = line + " " + w
		}
		if m.metrics.StringWidth(candidate, f) <= maxWidth {
			line = candidate
			continue
		}
		if line != "" {
			lines = append(lines, line)
		}
		if m.metrics.StringWidth(w, f) <= maxWidth {
			line = w
			continue
		}
		pieces := m.splitWord(w, f, maxWidth)
		lines = append(lines, pieces[:len(pieces)-1]...)
		line = pieces[len(pieces)-1]
	}
	return append(lines, line)
}

// splitWord breaks a single over-long word. Every piece holds at least one
// rune so a width narrower than one glyph still terminates.
func (m *Measurer) splitWord(w string, f Font, maxWidth float64) []string {
	var pieces []string
	runes := []rune(w)
	start := 0
	for start < len(runes) {
		end := start + 1
		for end < len(runes) && m.metrics.StringWidth(string(runes[start:end+1]), f) <= maxWidth {
			end++
		}
		pieces = append(pieces, string(runes[start:end]))
		start = end
	}
	return pieces
}
