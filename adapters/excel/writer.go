package excel

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"tamperstat/internal/errors"
	"tamperstat/ports"
)

const maxSheetName = 31

// WorkbookWriter exports report sections to an .xlsx file, one sheet per section
type WorkbookWriter struct{}

// NewWorkbookWriter creates a workbook exporter
func NewWorkbookWriter() ports.WorkbookExporter {
	return &WorkbookWriter{}
}

// Export writes sheets to path, replacing any existing file
func (w *WorkbookWriter) Export(path string, sheets []ports.Sheet) error {
	if len(sheets) == 0 {
		return errors.ExportError(path, fmt.Errorf("no sheets to export"))
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.ExportError(path, err)
	}

	used := make(map[string]bool)
	for i, sheet := range sheets {
		name := uniqueSheetName(sheet.Name, used)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return errors.ExportError(path, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return errors.ExportError(path, err)
		}

		if err := writeSheet(f, name, sheet, bold); err != nil {
			return errors.ExportError(path, fmt.Errorf("sheet %s: %w", name, err))
		}
	}
	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return errors.ExportError(path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, name string, sheet ports.Sheet, headerStyle int) error {
	header := make([]interface{}, len(sheet.Headers))
	for i, h := range sheet.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}
	if len(sheet.Headers) > 0 {
		last, err := excelize.CoordinatesToCellName(len(sheet.Headers), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(name, "A1", last, headerStyle); err != nil {
			return err
		}
	}

	for i, row := range sheet.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

// uniqueSheetName strips characters Excel rejects and truncates to 31 runes,
// suffixing a counter when two sections collide.
func uniqueSheetName(name string, used map[string]bool) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, name)
	if clean == "" {
		clean = "Sheet"
	}
	candidate := truncate(clean, maxSheetName)
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		candidate = truncate(clean, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}
