package pdfkit

import (
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"
)

// fixedMetrics gives every rune a width of half the font size.
type fixedMetrics struct{}

func (fixedMetrics) StringWidth(text string, f Font) float64 {
	return float64(utf8.RuneCountInString(text)) * f.Size / 2
}

var testFont = Font{Family: "Helvetica", Size: 10}

func TestMeasurer_EmptyStringIsOneLine(t *testing.T) {
	m := NewMeasurer(fixedMetrics{}, 1.5)
	h := m.Height("", testFont, 100)
	if h != 15 {
		t.Errorf("expected one line of height 15, got %v", h)
	}
	if got := m.Height("   ", testFont, 100); got != 15 {
		t.Errorf("expected whitespace-only text to be one line, got %v", got)
	}
}

func TestMeasurer_WrapsAtWordBoundaries(t *testing.T) {
	m := NewMeasurer(fixedMetrics{}, 1)
	// 5pt per rune, 50pt wide => 10 runes per line.
	lines := m.Lines("alpha beta gamma delta", testFont, 50)
	want := []string{"alpha beta", "gamma", "delta"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("expected %v, got %v", want, lines)
	}
}

func TestMeasurer_SplitsOverlongWords(t *testing.T) {
	m := NewMeasurer(fixedMetrics{}, 1)
	lines := m.Lines("abcdefghijklmnopqrstuvwxy", testFont, 50)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %v", len(lines), lines)
	}
	if lines[0] != "abcdefghij" || lines[2] != "uvwxy" {
		t.Errorf("unexpected split: %v", lines)
	}
}

func TestMeasurer_NarrowerThanOneGlyphTerminates(t *testing.T) {
	m := NewMeasurer(fixedMetrics{}, 1)
	lines := m.Lines("abc", testFont, 1)
	if len(lines) != 3 {
		t.Errorf("expected one rune per line, got %v", lines)
	}
}

func TestMeasurer_KeepsExplicitNewlines(t *testing.T) {
	m := NewMeasurer(fixedMetrics{}, 1)
	lines := m.Lines("first\r\n\nthird", testFont, 500)
	if len(lines) != 3 || lines[1] != "" {
		t.Errorf("expected blank middle line, got %q", lines)
	}
}

func TestMeasurer_Deterministic(t *testing.T) {
	m := NewMeasurer(fixedMetrics{}, 1.2)
	text := "Laparoscopic cholecystectomy performed without complication"
	first := m.Height(text, testFont, 120)
	for i := 0; i < 10; i++ {
		if got := m.Height(text, testFont, 120); got != first {
			t.Fatalf("height drifted: %v != %v", got, first)
		}
	}
}

func randomText(rng *rand.Rand) string {
	alphabet := []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789.,;:-()/ éü")
	n := rng.Intn(60)
	words := make([]string, n)
	for i := range words {
		wl := 1 + rng.Intn(14)
		if rng.Intn(25) == 0 {
			wl = 40 + rng.Intn(40)
		}
		w := make([]rune, wl)
		for j := range w {
			w[j] = alphabet[rng.Intn(len(alphabet))]
		}
		words[i] = string(w)
		if rng.Intn(20) == 0 {
			words[i] += "\n"
		}
	}
	return strings.Join(words, " ")
}

func TestMeasurer_HeightEqualsDrawnHeight(t *testing.T) {
	surface := NewFPDFSurface(A4, false)
	surface.AddPage()
	rec := NewRecorder(surface)
	m := NewMeasurer(rec, 1.3)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 300; i++ {
		text := randomText(rng)
		f := Font{Family: "Helvetica", Size: 6 + float64(rng.Intn(13))}
		if rng.Intn(2) == 0 {
			f = f.Bold()
		}
		width := 30 + float64(rng.Intn(480))

		measured := m.Height(text, f, width)
		before := len(rec.Ops)
		drawn := m.Draw(rec, 40, 40, text, f, Color{}, width)
		if measured != drawn {
			t.Fatalf("case %d: measured %v, drawn %v (font %v, width %v)", i, measured, drawn, f, width)
		}
		if measured < m.LineHeight(f) {
			t.Fatalf("case %d: height %v below one line", i, measured)
		}

		lh := m.LineHeight(f)
		for _, op := range rec.Ops[before:] {
			if op.Y+lh > 40+drawn+1e-9 {
				t.Fatalf("case %d: line at %v drawn below measured box %v", i, op.Y, drawn)
			}
			if w := rec.StringWidth(op.Text, f); w > width && len([]rune(op.Text)) > 1 {
				t.Fatalf("case %d: line %q is %v wide, limit %v", i, op.Text, w, width)
			}
		}
	}
}
