package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/erp-document-processor/internal/core/domain"
)

const (
	sheetFields    = "Transformed Data"
	sheetKeyPoints = "Key Points"
)

// XLSXExporter writes one row per leaf value of transformed_data plus a sheet of key points.
type XLSXExporter struct{}

func NewXLSXExporter() *XLSXExporter { return &XLSXExporter{} }

func (*XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (*XLSXExporter) FileName() string { return "transformed_data.xlsx" }

func (*XLSXExporter) Export(w io.Writer, data domain.TransformedData) error {
	raw, err := data.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal transformed data: %w", err)
	}
	leaves, err := flatten(raw)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", sheetFields); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeRow(f, sheetFields, 1, "Field", "Value"); err != nil {
		return err
	}
	for i, leaf := range leaves {
		if err := writeRow(f, sheetFields, i+2, leaf.Path, leaf.Value); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheetFields, "A", "B", 40); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if _, err := f.NewSheet(sheetKeyPoints); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := writeRow(f, sheetKeyPoints, 1, "Key Point"); err != nil {
		return err
	}
	for i, point := range data.KeyPoints {
		if err := writeRow(f, sheetKeyPoints, i+2, point); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx export: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
