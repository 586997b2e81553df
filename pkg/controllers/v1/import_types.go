package v1

import (
	"github.com/educacion-transparente/backend/pkg/importer"
	"github.com/educacion-transparente/backend/pkg/importer/workbook"
)

type WorkbookImportQuery struct {
	Receipts    bool   `form:"receipts"`    // Import receipts and receipt items, not only disbursements and reports
	Sheet       string `form:"sheet"`       // Name of the worksheet
	FirstRow    int    `form:"firstRow"`    // First row to import, 1-based
	LastRow     int    `form:"lastRow"`     // Last row to import, 1-based
	DedupeItems bool   `form:"dedupeItems"` // Skip receipt items imported from an identical row before
}

// options applies the query to the configured options.
func (q WorkbookImportQuery) options(defaults workbook.Options) workbook.Options {
	options := defaults
	options.Receipts = q.Receipts
	options.DedupeItems = options.DedupeItems || q.DedupeItems

	if q.Sheet != "" {
		options.Sheet = q.Sheet
	}
	if q.FirstRow > 0 {
		options.FirstRow = q.FirstRow
	}
	if q.LastRow > 0 {
		options.LastRow = q.LastRow
	}
	return options
}

type WorkbookImportResponse struct {
	Data workbook.Result `json:"data"` // Summary of the import
}

type ReferenceImportResponse struct {
	Data ReferenceImport `json:"data"` // Summary of the import
}

type ReferenceImport struct {
	Skipped []importer.SkippedRow `json:"skipped"` // Lines that have not been imported
}
