package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// SheetData is the raw text content of one worksheet
type SheetData struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// ReadWorkbook reads every sheet of an exported workbook back as text, in tab order.
func ReadWorkbook(path string) ([]SheetData, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	var out []SheetData
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		sheet := SheetData{Name: name}
		if len(rows) > 0 {
			sheet.Headers = rows[0]
			sheet.Rows = rows[1:]
		}
		out = append(out, sheet)
	}
	return out, nil
}
