package importer

import "fmt"

// SkippedRow is a row that could not be fully processed.
type SkippedRow struct {
	Row    int    `json:"row" example:"12"`                                                   // 1-based row or line number
	Reason string `json:"reason" example:"missing department code (codigo_departamento)"` // Why the row was skipped
}

func (s SkippedRow) String() string {
	return fmt.Sprintf("Skipped line %d. Reason: %s", s.Row, s.Reason)
}

// Skip converts an error for a row into a SkippedRow.
func Skip(row int, err error) SkippedRow {
	return SkippedRow{Row: row, Reason: ReasonOf(err)}
}
