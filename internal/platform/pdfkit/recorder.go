package pdfkit

// Op is one recorded draw call.
type Op struct {
	Kind  string // "page", "text", "fill", "stroke", "line" or "image"
	Page  int
	X, Y  float64
	W, H  float64
	Text  string
	Font  Font
	Color Color
}

// Recorder wraps a Surface and keeps a log of every draw call tagged with the
// page it landed on. Used for layout traces and assertions.
type Recorder struct {
	Surface
	Ops []Op
}

// NewRecorder wraps s.
func NewRecorder(s Surface) *Recorder {
	return &Recorder{Surface: s}
}

func (r *Recorder) add(op Op) {
	op.Page = r.Surface.PageCount()
	r.Ops = append(r.Ops, op)
}

func (r *Recorder) AddPage() {
	r.Surface.AddPage()
	r.add(Op{Kind: "page"})
}

func (r *Recorder) Text(x, y float64, text string, f Font, c Color) {
	r.Surface.Text(x, y, text, f, c)
	if text == "" {
		return
	}
	r.add(Op{Kind: "text", X: x, Y: y, H: f.Size, Text: text, Font: f, Color: c})
}

func (r *Recorder) FillRect(x, y, w, h float64, fill Color) {
	r.Surface.FillRect(x, y, w, h, fill)
	r.add(Op{Kind: "fill", X: x, Y: y, W: w, H: h, Color: fill})
}

func (r *Recorder) StrokeRect(x, y, w, h float64, stroke Color, lineWidth float64) {
	r.Surface.StrokeRect(x, y, w, h, stroke, lineWidth)
	r.add(Op{Kind: "stroke", X: x, Y: y, W: w, H: h, Color: stroke})
}

func (r *Recorder) Line(x1, y1, x2, y2 float64, c Color, lineWidth float64) {
	r.Surface.Line(x1, y1, x2, y2, c, lineWidth)
	r.add(Op{Kind: "line", X: x1, Y: y1, W: x2 - x1, H: y2 - y1, Color: c})
}

func (r *Recorder) Image(name string, data []byte, format string, x, y, w, h float64) {
	r.Surface.Image(name, data, format, x, y, w, h)
	r.add(Op{Kind: "image", X: x, Y: y, W: w, H: h, Text: name})
}

// Texts returns the recorded text strings in draw order.
func (r *Recorder) Texts() []string {
	var out []string
	for _, op := range r.Ops {
		if op.Kind == "text" {
			out = append(out, op.Text)
		}
	}
	return out
}

// CountText returns how many text ops drew exactly s.
func (r *Recorder) CountText(s string) int {
	n := 0
	for _, op := range r.Ops {
		if op.Kind == "text" && op.Text == s {
			n++
		}
	}
	return n
}
