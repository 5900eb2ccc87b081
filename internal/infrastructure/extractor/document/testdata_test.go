package document

import (
	"image"
	"testing"

	"github.com/kirillkom/erp-document-processor/internal/testutil/fixtures"
)

func buildPDF(t *testing.T, pages ...string) []byte { return fixtures.PDF(t, pages...) }

func buildPNG(t *testing.T, img image.Image) []byte { return fixtures.PNG(t, img) }

func whiteRGBA(w, h int) *image.RGBA { return fixtures.WhiteRGBA(w, h) }
