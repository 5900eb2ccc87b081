package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/erp-document-processor/internal/core/domain"
)

// pageSource is the subset of *pdf.Reader used for extraction.
type pageSource interface {
	NumPage() int
	Page(num int) pdf.Page
}

// ExtractPDFText concatenates the plain text of every page in order, one newline after
// each page, and trims only the whole result. Page text is otherwise kept as extracted;
// pages that fail or yield no text contribute nothing.
func ExtractPDFText(body []byte) (string, error) {
	reader, err := openPDF(body)
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "open pdf", err)
	}
	return joinPages(reader.NumPage(), func(num int) (string, error) {
		return pageText(reader, num)
	}), nil
}

func openPDF(body []byte) (reader *pdf.Reader, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			reader = nil
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()
	return pdf.NewReader(bytes.NewReader(body), int64(len(body)))
}

func pageText(src pageSource, num int) (string, error) {
	page := src.Page(num)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

func joinPages(count int, text func(num int) (string, error)) string {
	var b strings.Builder
	for num := 1; num <= count; num++ {
		pageText, err := text(num)
		if err != nil || pageText == "" {
			continue
		}
		b.WriteString(pageText)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
