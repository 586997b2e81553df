package workbook

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/educacion-transparente/backend/pkg/importer"
	"github.com/educacion-transparente/backend/pkg/importer/helpers"
	"github.com/ryanuber/go-glob"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// Field is a named column of the accountability workbook.
type Field string

const (
	FieldEstablishmentCode Field = "establishment_code"
	FieldInstitutionCode   Field = "institution_code"
	FieldInstitutionName   Field = "institution_name"
	FieldPrincipalName     Field = "principal_name"
	FieldPrincipalID       Field = "principal_id"
	FieldResolutionNumber  Field = "resolution_number"
	FieldResolutionAmount  Field = "resolution_amount"
	FieldResolutionYear    Field = "resolution_year"
	FieldFundsOrigin       Field = "funds_origin"
	FieldOriginDetail      Field = "origin_detail"
	FieldPaymentType       Field = "payment_type"
	FieldDisbursementDate  Field = "disbursement_date"
	FieldAmountDisbursed   Field = "amount_disbursed"
	FieldReportDate        Field = "report_date"
	FieldReportedAmount    Field = "reported_amount"
	FieldBalance           Field = "balance"
	FieldDeliveredVia      Field = "delivered_via"
	FieldComments          Field = "comments"
	FieldReceiptType       Field = "receipt_type"
	FieldReceiptNumber     Field = "receipt_number"
	FieldObjectCode        Field = "object_code"
	FieldDescription       Field = "description"
	FieldReceiptDate       Field = "receipt_date"
	FieldUnitPrice         Field = "unit_price"
)

// Layout maps fields to their 0-based column. Fields without a column read
// as blank cells.
type Layout map[Field]int

// DefaultLayout is the column layout of the workbooks as they are produced
// by the ministry. The positions must stay stable.
func DefaultLayout() Layout {
	return Layout{
		FieldEstablishmentCode: 0,
		FieldInstitutionCode:   1,
		FieldInstitutionName:   3,
		FieldPrincipalName:     6,
		FieldPrincipalID:       7,
		FieldResolutionNumber:  8,
		FieldResolutionAmount:  9,
		FieldResolutionYear:    10,
		FieldFundsOrigin:       11,
		FieldOriginDetail:      12,
		FieldPaymentType:       13,
		FieldDisbursementDate:  14,
		FieldAmountDisbursed:   15,
		FieldReportDate:        16,
		FieldReportedAmount:    17,
		FieldBalance:           18,
		FieldDeliveredVia:      20,
		FieldComments:          21,
		FieldReceiptType:       22,
		FieldReceiptNumber:     23,
		FieldObjectCode:        24,
		FieldDescription:       25,
		FieldReceiptDate:       26,
		FieldUnitPrice:         27,
	}
}

// Cell returns the value of a field in a row. Cells beyond the end of the
// row are nil.
func (l Layout) Cell(row []any, f Field) any {
	col, ok := l[f]
	if !ok || col < 0 || col >= len(row) {
		return nil
	}
	return row[col]
}

// validate checks that no two fields share a column.
func (l Layout) validate() error {
	seen := make(map[int]Field, len(l))
	for _, f := range sortedFields(DefaultLayout()) {
		col, ok := l[f]
		if !ok {
			continue
		}

		if col < 0 {
			return fmt.Errorf("negative column %d for field %s", col, f)
		}

		if other, ok := seen[col]; ok {
			return fmt.Errorf("fields %s and %s both use column %d", other, f, col)
		}
		seen[col] = f
	}
	return nil
}

// LayoutConfig is the YAML layout file.
//
// Columns overrides positions of the default layout, as 0-based index or
// column letter:
//
//	columns:
//	  unit_price: AC
//	  object_code: 24
//
// With a header row, fields are found by glob patterns on the header text.
// The header text is lowercased and accents are removed before matching.
// Fields that are not listed keep their default column unless a matched
// header takes it, they are left without a column then:
//
//	header_row: 3
//	headers:
//	  receipt_number: "*comprobante*"
type LayoutConfig struct {
	HeaderRow int               `yaml:"header_row"`
	Columns   map[string]string `yaml:"columns"`
	Headers   map[string]string `yaml:"headers"`
}

// LoadLayoutConfig parses a YAML layout.
func LoadLayoutConfig(r io.Reader) (LayoutConfig, error) {
	var c LayoutConfig
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	err := decoder.Decode(&c)
	if err != nil && err != io.EOF {
		return LayoutConfig{}, importer.StructuralError(fmt.Errorf("could not parse layout: %w", err))
	}
	return c, nil
}

// LoadLayoutFile parses a YAML layout file.
func LoadLayoutFile(path string) (LayoutConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return LayoutConfig{}, importer.StructuralError(fmt.Errorf("could not open layout: %w", err))
	}
	defer f.Close()

	return LoadLayoutConfig(f)
}

// Resolve computes the layout for a sheet. Unknown fields, invalid
// columns and header patterns without a match are structural errors.
func (c LayoutConfig) Resolve(sheet *Sheet) (Layout, error) {
	layout := DefaultLayout()
	explicit := make(map[Field]bool, len(c.Columns))

	for name, value := range c.Columns {
		f, err := field(name)
		if err != nil {
			return nil, importer.StructuralError(err)
		}

		col, err := parseColumn(value)
		if err != nil {
			return nil, importer.StructuralError(fmt.Errorf("field %s: %w", f, err))
		}
		layout[f] = col
		explicit[f] = true
	}

	if len(c.Headers) > 0 {
		if c.HeaderRow < 1 {
			return nil, importer.StructuralError(fmt.Errorf("header patterns need a header_row"))
		}

		matched, err := c.matchHeaders(sheet.Row(c.HeaderRow))
		if err != nil {
			return nil, importer.StructuralError(err)
		}

		taken := make(map[int]bool, len(matched))
		for f, col := range matched {
			layout[f] = col
			taken[col] = true
		}
		for f, col := range layout {
			if _, ok := matched[f]; !ok && taken[col] && !explicit[f] {
				delete(layout, f)
			}
		}
	}

	err := layout.validate()
	if err != nil {
		return nil, importer.StructuralError(fmt.Errorf("invalid layout: %w", err))
	}
	return layout, nil
}

func (c LayoutConfig) matchHeaders(header []any) (Layout, error) {
	folded := make([]string, len(header))
	for i, h := range header {
		folded[i] = helpers.Fold(helpers.TextOrEmpty(h))
	}

	used := make(map[int]bool)
	matched := make(Layout, len(c.Headers))
	names := make([]string, 0, len(c.Headers))
	for name := range c.Headers {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		f, err := field(name)
		if err != nil {
			return nil, err
		}

		pattern := helpers.Fold(c.Headers[name])
		col := slices.IndexFunc(folded, func(h string) bool { return h != "" && glob.Glob(pattern, h) })
		for col != -1 && used[col] {
			next := slices.IndexFunc(folded[col+1:], func(h string) bool { return h != "" && glob.Glob(pattern, h) })
			if next == -1 {
				col = -1
				break
			}
			col += next + 1
		}

		if col == -1 {
			return nil, fmt.Errorf("no column in header row %d matches %q for field %s", c.HeaderRow, c.Headers[name], f)
		}

		used[col] = true
		matched[f] = col
	}
	return matched, nil
}

func field(name string) (Field, error) {
	f := Field(strings.TrimSpace(name))
	if _, ok := DefaultLayout()[f]; !ok {
		return "", fmt.Errorf("unknown field %q", name)
	}
	return f, nil
}

// parseColumn parses a 0-based index or a column letter.
func parseColumn(value string) (int, error) {
	value = strings.TrimSpace(value)

	if i, err := strconv.Atoi(value); err == nil {
		if i < 0 {
			return 0, fmt.Errorf("negative column %d", i)
		}
		return i, nil
	}

	n, err := excelize.ColumnNameToNumber(value)
	if err != nil {
		return 0, fmt.Errorf("invalid column %q: %w", value, err)
	}
	return n - 1, nil
}

func sortedFields(l Layout) []Field {
	fields := make([]Field, 0, len(l))
	for f := range l {
		fields = append(fields, f)
	}
	slices.SortFunc(fields, func(a, b Field) int { return DefaultLayout()[a] - DefaultLayout()[b] })
	return fields
}
