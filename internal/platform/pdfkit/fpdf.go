package pdfkit

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
)

// baselineRatio places the text baseline inside a line box whose top is y.
const baselineRatio = 0.9

// FPDFSurface is a Surface backed by go-pdf/fpdf using the built-in core
// fonts, so measuring needs no font files on disk.
type FPDFSurface struct {
	pdf    *fpdf.Fpdf
	size   PageSize
	tr     func(string) string
	images map[string]bool
}

// NewFPDFSurface creates an empty document with a fixed page size. Automatic
// page breaking is disabled; pagination is driven by FlowController.
func NewFPDFSurface(size PageSize, compress bool) *FPDFSurface {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: size.Width, Ht: size.Height},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCompression(compress)
	pdf.SetCatalogSort(true)
	return &FPDFSurface{
		pdf:    pdf,
		size:   size,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		images: make(map[string]bool),
	}
}

func (s *FPDFSurface) Size() PageSize { return s.size }

func (s *FPDFSurface) AddPage() { s.pdf.AddPage() }

func (s *FPDFSurface) PageCount() int { return s.pdf.PageCount() }

func (s *FPDFSurface) setFont(f Font) {
	s.pdf.SetFont(f.Family, f.Style, f.Size)
}

// StringWidth measures text after the same code page translation Text applies.
func (s *FPDFSurface) StringWidth(text string, f Font) float64 {
	s.setFont(f)
	return s.pdf.GetStringWidth(s.tr(text))
}

func (s *FPDFSurface) Text(x, y float64, text string, f Font, c Color) {
	if strings.TrimSpace(text) == "" {
		return
	}
	s.setFont(f)
	s.pdf.SetTextColor(c.R, c.G, c.B)
	s.pdf.Text(x, y+f.Size*baselineRatio, s.tr(text))
}

func (s *FPDFSurface) FillRect(x, y, w, h float64, fill Color) {
	s.pdf.SetFillColor(fill.R, fill.G, fill.B)
	s.pdf.Rect(x, y, w, h, "F")
}

func (s *FPDFSurface) StrokeRect(x, y, w, h float64, stroke Color, lineWidth float64) {
	s.pdf.SetDrawColor(stroke.R, stroke.G, stroke.B)
	s.pdf.SetLineWidth(lineWidth)
	s.pdf.Rect(x, y, w, h, "D")
}

func (s *FPDFSurface) Line(x1, y1, x2, y2 float64, c Color, lineWidth float64) {
	s.pdf.SetDrawColor(c.R, c.G, c.B)
	s.pdf.SetLineWidth(lineWidth)
	s.pdf.Line(x1, y1, x2, y2)
}

func (s *FPDFSurface) Image(name string, data []byte, format string, x, y, w, h float64) {
	opts := fpdf.ImageOptions{ImageType: imageType(format)}
	if !s.images[name] {
		s.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
		s.images[name] = true
	}
	s.pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
}

func imageType(format string) string {
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		return "JPG"
	case "gif":
		return "GIF"
	default:
		return "PNG"
	}
}

func (s *FPDFSurface) SetMetadata(meta Metadata) {
	s.pdf.SetTitle(meta.Title, true)
	s.pdf.SetAuthor(meta.Author, true)
	s.pdf.SetSubject(meta.Subject, true)
	s.pdf.SetKeywords(strings.Join(meta.Keywords, " "), true)
	s.pdf.SetCreator(meta.Creator, true)
	if !meta.CreatedAt.IsZero() {
		s.pdf.SetCreationDate(meta.CreatedAt)
		s.pdf.SetModificationDate(meta.CreatedAt)
	}
}

// Output closes the document and writes it to w. Any error recorded by fpdf
// during drawing is reported here.
func (s *FPDFSurface) Output(w io.Writer) error {
	if err := s.pdf.Output(w); err != nil {
		return fmt.Errorf("pdfkit: write pdf: %w", err)
	}
	return nil
}
