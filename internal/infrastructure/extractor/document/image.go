package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/kirillkom/erp-document-processor/internal/core/domain"
)

// DescribeImage reads only the container header and renders the metadata record.
func DescribeImage(body []byte) (string, error) {
	meta, err := ImageMetadataOf(body)
	if err != nil {
		return "", err
	}
	out, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal image metadata: %w", err)
	}
	return string(out), nil
}

func ImageMetadataOf(body []byte) (domain.ImageMetadata, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(body))
	if err != nil {
		return domain.ImageMetadata{}, domain.WrapError(domain.ErrInvalidInput, "decode image", err)
	}
	return domain.ImageMetadata{
		DocumentType: "Image",
		Format:       strings.ToUpper(format),
		Mode:         colorMode(cfg.ColorModel),
		Width:        cfg.Width,
		Height:       cfg.Height,
	}, nil
}

// colorMode names the decoded colour model the way imaging tools usually report it.
func colorMode(model color.Model) string {
	if _, ok := model.(color.Palette); ok {
		return "P"
	}
	switch model {
	case color.RGBAModel, color.RGBA64Model, color.YCbCrModel:
		return "RGB"
	case color.NRGBAModel, color.NRGBA64Model:
		return "RGBA"
	case color.GrayModel:
		return "L"
	case color.Gray16Model:
		return "I;16"
	case color.CMYKModel:
		return "CMYK"
	case color.AlphaModel, color.Alpha16Model:
		return "LA"
	}
	return "RGB"
}
