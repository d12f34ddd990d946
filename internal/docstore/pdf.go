package docstore

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

var pdfMagic = []byte("%PDF")

// ValidPDF reports whether data parses as a PDF with at least one page.
func ValidPDF(data []byte) bool {
	if !bytes.HasPrefix(data, pdfMagic) {
		return false
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	return r.NumPage() > 0
}

// ExtractText returns the plain text of every page, pages separated by a
// blank line. Pages that fail to decode are skipped rather than aborting
// the whole document.
func ExtractText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	if r.NumPage() == 0 {
		return "", fmt.Errorf("pdf has no pages")
	}

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}

// PDFMetadata reads page count and document attributes. Missing attributes
// come back as "Sin título" / "Sin autor" to match the chat-facing copy.
func PDFMetadata(data []byte) PDFInfo {
	info := PDFInfo{Title: "Sin título", Author: "Sin autor"}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return info
	}
	info.Pages = r.NumPage()

	trailer := r.Trailer()
	if trailer.IsNull() {
		return info
	}
	meta := trailer.Key("Info")
	if meta.IsNull() {
		return info
	}
	if title := meta.Key("Title"); !title.IsNull() && title.Text() != "" {
		info.Title = title.Text()
	}
	if author := meta.Key("Author"); !author.IsNull() && author.Text() != "" {
		info.Author = author.Text()
	}
	return info
}
