// Package export renders transformed_data as downloadable artifacts.
package export

import (
	"fmt"
	"io"

	"github.com/kirillkom/erp-document-processor/internal/core/domain"
	"github.com/kirillkom/erp-document-processor/internal/core/usecase"
)

type JSONExporter struct{}

func NewJSONExporter() *JSONExporter { return &JSONExporter{} }

func (*JSONExporter) ContentType() string { return "application/json" }

func (*JSONExporter) FileName() string { return "transformed_data.json" }

func (*JSONExporter) Export(w io.Writer, data domain.TransformedData) error {
	pretty, err := usecase.PrettyTransformedData(data)
	if err != nil {
		return err
	}
	if _, err := w.Write(pretty); err != nil {
		return fmt.Errorf("write json export: %w", err)
	}
	return nil
}
