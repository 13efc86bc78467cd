package ports

// Sheet is one tabular section of a report
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
}

// WorkbookExporter writes report sections to a spreadsheet file
type WorkbookExporter interface {
	Export(path string, sheets []Sheet) error
}
