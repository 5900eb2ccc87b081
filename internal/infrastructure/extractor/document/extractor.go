package document

import (
	"context"
	"fmt"

	"github.com/kirillkom/erp-document-processor/internal/core/domain"
)

// Extractor dispatches on the document kind. PDFs yield page text, images a metadata record.
type Extractor struct {
	pdf   func([]byte) (string, error)
	image func([]byte) (string, error)
}

func NewExtractor() *Extractor {
	return &Extractor{
		pdf:   ExtractPDFText,
		image: DescribeImage,
	}
}

func (e *Extractor) Extract(ctx context.Context, doc domain.UploadedDocument) (string, error) {
	mediaType := domain.ResolveMediaType(doc.MediaType, doc.Filename)
	kind := domain.KindOf(mediaType)
	if kind == domain.MediaKindUnsupported {
		return "", domain.WrapError(domain.ErrUnsupportedMediaType, "extract", fmt.Errorf("%q", doc.MediaType))
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch kind {
	case domain.MediaKindPDF:
		text, err := e.pdf(doc.Body)
		if err != nil {
			return "", err
		}
		if text == "" {
			return "", domain.WrapError(domain.ErrEmptyExtraction, "extract pdf", fmt.Errorf("no page text in %s", doc.Filename))
		}
		return text, nil
	default:
		return e.image(doc.Body)
	}
}
