package document

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"sort"
	"strings"
	"testing"

	"github.com/kirillkom/erp-document-processor/internal/core/domain"
)

func TestExtractPDFSinglePage(t *testing.T) {
	ex := NewExtractor()
	text, err := ex.Extract(context.Background(), domain.UploadedDocument{
		Filename:  "invoice.pdf",
		MediaType: "application/pdf",
		Body:      buildPDF(t, "Invoice #42, Total $100"),
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "Invoice #42, Total $100" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestExtractPDFJoinsPagesInOrderAndSkipsEmpty(t *testing.T) {
	body := buildPDF(t, "first page", "", "third (page)")
	text, err := ExtractPDFText(body)
	if err != nil {
		t.Fatalf("ExtractPDFText() error = %v", err)
	}
	if text != "first page\nthird (page)" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestExtractPDFWithoutTextIsEmptyExtraction(t *testing.T) {
	ex := NewExtractor()
	_, err := ex.Extract(context.Background(), domain.UploadedDocument{
		Filename:  "scan.pdf",
		MediaType: "application/pdf",
		Body:      buildPDF(t, "", ""),
	})
	if !domain.IsKind(err, domain.ErrEmptyExtraction) {
		t.Fatalf("expected ErrEmptyExtraction, got %v", err)
	}
}

func TestExtractPDFRejectsGarbage(t *testing.T) {
	_, err := ExtractPDFText([]byte("definitely not a pdf"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestJoinPagesSkipsFailedPages(t *testing.T) {
	pages := map[int]string{1: "alpha  \n", 3: "gamma"}
	text := joinPages(3, func(num int) (string, error) {
		if num == 2 {
			return "", errors.New("broken content stream")
		}
		return pages[num], nil
	})
	if text != "alpha  \n\ngamma" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestJoinPagesKeepsInteriorWhitespace(t *testing.T) {
	pages := []string{"Invoice #42  ", "   Total $100", "   "}
	text := joinPages(len(pages), func(num int) (string, error) {
		return pages[num-1], nil
	})
	if text != "Invoice #42  \n   Total $100" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestJoinPagesWhitespacePageInMiddle(t *testing.T) {
	pages := []string{"one", "  ", "three"}
	text := joinPages(len(pages), func(num int) (string, error) {
		return pages[num-1], nil
	})
	if text != "one\n  \nthree" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestExtractImageWhitePNG(t *testing.T) {
	ex := NewExtractor()
	text, err := ex.Extract(context.Background(), domain.UploadedDocument{
		Filename:  "white.png",
		MediaType: "image/png",
		Body:      buildPNG(t, whiteRGBA(10, 10)),
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(text), &record); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if strings.Join(keys, ",") != "document_type,format,height,mode,width" {
		t.Fatalf("unexpected keys %v", keys)
	}
	if record["width"] != float64(10) || record["height"] != float64(10) {
		t.Fatalf("unexpected dimensions %v", record)
	}
	if record["format"] != "PNG" || record["mode"] != "RGB" {
		t.Fatalf("unexpected format/mode %v", record)
	}
	if !strings.Contains(text, "\n  \"format\"") {
		t.Fatalf("expected indented record, got %s", text)
	}
}

func TestImageRecordIndependentOfPixels(t *testing.T) {
	white := buildPNG(t, whiteRGBA(4, 3))
	noisy := whiteRGBA(4, 3)
	noisy.Set(1, 1, color.RGBA{R: 200, G: 10, B: 30, A: 255})
	noisy.Set(3, 2, color.Black)

	a, err := DescribeImage(white)
	if err != nil {
		t.Fatalf("DescribeImage() error = %v", err)
	}
	b, err := DescribeImage(buildPNG(t, noisy))
	if err != nil {
		t.Fatalf("DescribeImage() error = %v", err)
	}
	if a != b {
		t.Fatalf("expected identical records\n%s\n%s", a, b)
	}
}

func TestImageModes(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 2))
	meta, err := ImageMetadataOf(buildPNG(t, gray))
	if err != nil {
		t.Fatalf("ImageMetadataOf() error = %v", err)
	}
	if meta.Mode != "L" {
		t.Fatalf("expected L for grayscale, got %q", meta.Mode)
	}

	paletted := image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{color.White, color.Black})
	meta, err = ImageMetadataOf(buildPNG(t, paletted))
	if err != nil {
		t.Fatalf("ImageMetadataOf() error = %v", err)
	}
	if meta.Mode != "P" {
		t.Fatalf("expected P for paletted, got %q", meta.Mode)
	}

	var jpg bytes.Buffer
	if err := jpeg.Encode(&jpg, whiteRGBA(8, 6), nil); err != nil {
		t.Fatalf("jpeg.Encode() error = %v", err)
	}
	meta, err = ImageMetadataOf(jpg.Bytes())
	if err != nil {
		t.Fatalf("ImageMetadataOf() error = %v", err)
	}
	if meta.Format != "JPEG" || meta.Mode != "RGB" || meta.Width != 8 || meta.Height != 6 {
		t.Fatalf("unexpected jpeg metadata %+v", meta)
	}
}

func TestExtractRejectsUnsupportedMediaType(t *testing.T) {
	ex := NewExtractor()
	_, err := ex.Extract(context.Background(), domain.UploadedDocument{Filename: "a.txt", MediaType: "text/plain"})
	if !domain.IsKind(err, domain.ErrUnsupportedMediaType) {
		t.Fatalf("expected ErrUnsupportedMediaType, got %v", err)
	}
}

func TestExtractCorruptImageIsInvalidInput(t *testing.T) {
	ex := NewExtractor()
	_, err := ex.Extract(context.Background(), domain.UploadedDocument{Filename: "a.png", MediaType: "image/png", Body: []byte("nope")})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
