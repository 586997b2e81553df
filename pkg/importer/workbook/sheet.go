package workbook

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/educacion-transparente/backend/pkg/importer"
	"github.com/xuri/excelize/v2"
)

// Sheet is a worksheet read into memory. Cells are nil, string, float64,
// bool or time.Time.
type Sheet struct {
	Name    string
	LastRow int // last row of the sheet dimension
	rows    [][]any
}

// Row returns the cells of a 1-based row. Rows outside of the sheet are empty.
func (s *Sheet) Row(n int) []any {
	if n < 1 || n > len(s.rows) {
		return nil
	}
	return s.rows[n-1]
}

// OpenSheet reads a worksheet from an xlsx workbook. A missing sheet or
// an unparsable dimension are structural errors.
func OpenSheet(r io.Reader, name string) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, importer.StructuralError(fmt.Errorf("could not open workbook: %w", err))
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(name)
	if err != nil || idx == -1 {
		return nil, importer.StructuralError(fmt.Errorf("sheet %q does not exist in the workbook, available sheets are %s", name, strings.Join(f.GetSheetList(), ", ")))
	}

	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, importer.StructuralError(fmt.Errorf("could not read sheet %q: %w", name, err))
	}

	dimension, err := f.GetSheetDimension(name)
	if err != nil {
		return nil, importer.StructuralError(fmt.Errorf("could not read the dimension of sheet %q: %w", name, err))
	}

	lastRow, err := dimensionLastRow(dimension, len(raw))
	if err != nil {
		return nil, importer.StructuralError(fmt.Errorf("sheet %q: %w", name, err))
	}

	c := cellConverter{f: f, sheet: name}
	props, err := f.GetWorkbookProps()
	if err == nil && props.Date1904 != nil {
		c.date1904 = *props.Date1904
	}

	rows := make([][]any, len(raw))
	for i, cols := range raw {
		rows[i] = make([]any, len(cols))
		for j, value := range cols {
			rows[i][j] = c.convert(j+1, i+1, value)
		}
	}

	return &Sheet{Name: name, LastRow: lastRow, rows: rows}, nil
}

var errInvalidDimension = errors.New("invalid sheet dimension")

// dimensionLastRow returns the row of the bottom right cell of a dimension
// reference like "A1:AB485". Workbooks written without a dimension use the
// number of rows that have been read.
func dimensionLastRow(dimension string, rows int) (int, error) {
	if dimension == "" {
		return rows, nil
	}

	cells := strings.Split(dimension, ":")
	_, row, err := excelize.CellNameToCoordinates(cells[len(cells)-1])
	if err != nil {
		return 0, fmt.Errorf("%w %q: %w", errInvalidDimension, dimension, err)
	}

	return max(row, rows), nil
}

type cellConverter struct {
	f        *excelize.File
	sheet    string
	date1904 bool
}

// convert types a raw cell value. Numbers with a date format are dates.
func (c cellConverter) convert(col, row int, value string) any {
	if value == "" {
		return nil
	}

	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return value
	}

	cellType, err := c.f.GetCellType(c.sheet, cell)
	if err != nil {
		return value
	}

	switch cellType {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeError:
		return value
	case excelize.CellTypeBool:
		return value == "1" || strings.EqualFold(value, "true")
	}

	number, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return value
	}

	if cellType == excelize.CellTypeDate || c.hasDateFormat(cell) {
		t, err := excelize.ExcelDateToTime(number, c.date1904)
		if err == nil {
			return t
		}
	}

	return number
}

func (c cellConverter) hasDateFormat(cell string) bool {
	styleID, err := c.f.GetCellStyle(c.sheet, cell)
	if err != nil || styleID == 0 {
		return false
	}

	style, err := c.f.GetStyle(styleID)
	if err != nil {
		return false
	}

	if style.CustomNumFmt != nil {
		return isDateFormat(*style.CustomNumFmt)
	}
	return isBuiltInDateFormat(style.NumFmt)
}

// isBuiltInDateFormat matches the built-in number formats for dates and
// times, including the ones reserved for East Asian locales.
func isBuiltInDateFormat(id int) bool {
	return (id >= 14 && id <= 22) || (id >= 27 && id <= 36) || (id >= 45 && id <= 47) || (id >= 50 && id <= 58)
}

var formatLiterals = regexp.MustCompile(`"[^"]*"|\[[^\]]*\]|\\.`)

// isDateFormat reports whether a custom number format renders a date.
func isDateFormat(format string) bool {
	f := strings.ToLower(formatLiterals.ReplaceAllString(format, ""))
	if f == "" || f == "general" || f == "@" {
		return false
	}
	return strings.ContainsAny(f, "yd")
}
