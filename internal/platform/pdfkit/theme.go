package pdfkit

// Font identifies a core PDF font at a given size.
type Font struct {
	Family string  // core family: "Helvetica", "Times", "Courier"
	Style  string  // "", "B", "I" or "BI"
	Size   float64 // points
}

// Bold returns a copy of f with the bold style.
func (f Font) Bold() Font {
	f.Style = "B"
	return f
}

// WithSize returns a copy of f at the given size.
func (f Font) WithSize(size float64) Font {
	f.Size = size
	return f
}

// Color is an RGB colour with 0-255 components.
type Color struct {
	R, G, B int
}

// Theme carries every font, colour and spacing constant used while laying out
// a document. Values are copied into the assembler at construction and never
// mutated afterwards.
type Theme struct {
	Margin      float64
	LineSpacing float64 // line height = font size * LineSpacing

	TitleFont   Font
	HeadingFont Font // hospital name in the running header
	SectionFont Font // section header bars
	LabelFont   Font
	BodyFont    Font
	SmallFont   Font
	FooterFont  Font

	Primary     Color // header rule, section bar
	SectionText Color
	Text        Color
	Muted       Color
	Abnormal    Color
	BoxFill     Color
	Border      Color

	SectionBarHeight float64
	FieldGap         float64 // vertical padding after a field
	BoxPadding       float64 // inner padding of background boxes
	LabelWidth       float64 // horizontal offset of values in label/value pairs
	RowHeight        float64 // fixed per-row estimate for collection rows
}

// DefaultTheme returns the standard SurgiTrack report theme.
func DefaultTheme() Theme {
	body := Font{Family: "Helvetica", Size: 10}
	return Theme{
		Margin:      40,
		LineSpacing: 1.3,

		TitleFont:   Font{Family: "Helvetica", Style: "B", Size: 16},
		HeadingFont: Font{Family: "Helvetica", Style: "B", Size: 13},
		SectionFont: Font{Family: "Helvetica", Style: "B", Size: 11},
		LabelFont:   body.Bold(),
		BodyFont:    body,
		SmallFont:   body.WithSize(8),
		FooterFont:  Font{Family: "Helvetica", Style: "I", Size: 7.5},

		Primary:     Color{R: 30, G: 58, B: 95},
		SectionText: Color{R: 255, G: 255, B: 255},
		Text:        Color{R: 33, G: 37, B: 41},
		Muted:       Color{R: 108, G: 117, B: 125},
		Abnormal:    Color{R: 200, G: 35, B: 51},
		BoxFill:     Color{R: 246, G: 248, B: 250},
		Border:      Color{R: 210, G: 214, B: 220},

		SectionBarHeight: 20,
		FieldGap:         6,
		BoxPadding:       6,
		LabelWidth:       130,
		RowHeight:        16,
	}
}

// LineHeight returns the height of one wrapped line set in f.
func (t Theme) LineHeight(f Font) float64 {
	return f.Size * t.LineSpacing
}
