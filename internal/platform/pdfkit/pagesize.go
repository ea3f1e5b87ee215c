package pdfkit

// PageSize is a fixed paper size in points (1" = 72pt).
type PageSize struct {
	Name   string
	Width  float64
	Height float64
}

var (
	// A4 is used for discharge summaries.
	A4 = PageSize{Name: "A4", Width: 595, Height: 842}
	// Letter is used for single-test reports.
	Letter = PageSize{Name: "Letter", Width: 612, Height: 792}
)
