package pdfkit

import (
	"io"
	"time"
)

// Metrics reports the advance width of text set in a font.
type Metrics interface {
	StringWidth(text string, f Font) float64
}

// Metadata is the informational document dictionary written into the output.
type Metadata struct {
	Title     string
	Author    string
	Subject   string
	Keywords  []string
	Creator   string
	CreatedAt time.Time
}

// Surface is the drawing target of a layout pass. It owns the page buffers
// until Output serialises them. Coordinates are in points from the top-left
// corner of the current page; Text positions the top of the line box at y.
//
// A Surface is not safe for concurrent use.
type Surface interface {
	Metrics

	Size() PageSize
	AddPage()
	PageCount() int

	Text(x, y float64, text string, f Font, c Color)
	FillRect(x, y, w, h float64, fill Color)
	StrokeRect(x, y, w, h float64, stroke Color, lineWidth float64)
	Line(x1, y1, x2, y2 float64, c Color, lineWidth float64)
	// Image draws a PNG or JPEG payload. format is "png" or "jpeg".
	Image(name string, data []byte, format string, x, y, w, h float64)

	SetMetadata(meta Metadata)
	Output(w io.Writer) error
}
