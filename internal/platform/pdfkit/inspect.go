package pdfkit

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// CountPages parses a serialised PDF and returns its page count.
func CountPages(data []byte) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdfkit: malformed pdf: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("pdfkit: read pdf: %w", err)
	}
	return r.NumPage(), nil
}
