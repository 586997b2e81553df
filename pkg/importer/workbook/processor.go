// Package workbook imports disbursements, reports and receipts from the
// accountability workbooks.
package workbook

import (
	"context"
	"fmt"
	"io"

	"github.com/educacion-transparente/backend/pkg/importer"
	"github.com/educacion-transparente/backend/pkg/models"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// State is the state of the row scanner.
type State int

const (
	// Scanning is the state while rows contain data.
	Scanning State = iota
	// BlankStreak means the previous row was blank.
	BlankStreak
	// Done means two consecutive blank rows have been seen. The rest of
	// the sheet is not processed.
	Done
)

func (s State) String() string {
	switch s {
	case Scanning:
		return "scanning"
	case BlankStreak:
		return "blank streak"
	case Done:
		return "done"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Options configure a Processor.
type Options struct {
	Sheet         string
	FirstRow      int // 1-based, inclusive
	LastRow       int // 1-based, inclusive. Clipped to the sheet dimension.
	Receipts      bool
	DueDatePolicy models.DueDatePolicy
	Layout        LayoutConfig
	DedupeItems   bool // skip receipt items that have been imported from an identical row before
}

// DefaultOptions returns the options for the ministry's workbooks.
func DefaultOptions() Options {
	return Options{
		Sheet:         "General",
		FirstRow:      4,
		LastRow:       485,
		DueDatePolicy: models.DefaultDueDatePolicy,
	}
}

// Result summarizes a processed sheet.
type Result struct {
	Scanned int                   `json:"scanned" example:"120"` // Rows visited, including blank ones
	Applied int                   `json:"applied" example:"117"` // Rows that have been committed
	Skipped []importer.SkippedRow `json:"skipped"`               // Rows that failed or were only partially applied
	LastRow int                   `json:"lastRow" example:"123"` // Last row visited
	State   State                 `json:"-"`
}

// Processor imports one worksheet.
//
// A Processor keeps the carry-forward state of a single run and must not
// be used concurrently or for more than one run.
type Processor struct {
	db      *gorm.DB
	sheet   *Sheet
	layout  Layout
	options Options
	cache   cache
}

// NewProcessor reads the worksheet and resolves the column layout. All
// errors returned are structural.
func NewProcessor(db *gorm.DB, r io.Reader, options Options) (*Processor, error) {
	defaults := DefaultOptions()
	if options.Sheet == "" {
		options.Sheet = defaults.Sheet
	}
	if options.FirstRow < 1 {
		options.FirstRow = defaults.FirstRow
	}
	if options.LastRow < 1 {
		options.LastRow = defaults.LastRow
	}
	if options.DueDatePolicy == "" {
		options.DueDatePolicy = defaults.DueDatePolicy
	}

	if options.LastRow < options.FirstRow {
		return nil, importer.StructuralError(fmt.Errorf("the last row %d is before the first row %d", options.LastRow, options.FirstRow))
	}

	sheet, err := OpenSheet(r, options.Sheet)
	if err != nil {
		return nil, err
	}

	layout, err := options.Layout.Resolve(sheet)
	if err != nil {
		return nil, err
	}

	return &Processor{
		db:      db,
		sheet:   sheet,
		layout:  layout,
		options: options,
	}, nil
}

// Process imports the rows of the sheet. Failing rows are recorded as
// skipped and do not stop the import. Processing ends at the last row of
// the window or at the second consecutive blank row.
func (p *Processor) Process(ctx context.Context) (Result, error) {
	importer.RecordRun(importer.PipelineWorkbook)

	last := min(p.options.LastRow, p.sheet.LastRow)
	log.Info().Str("sheet", p.sheet.Name).Int("first", p.options.FirstRow).Int("last", last).Bool("receipts", p.options.Receipts).Msg("processing workbook")

	result := Result{Skipped: []importer.SkippedRow{}, State: Scanning}
	for n := p.options.FirstRow; n <= last && result.State != Done; n++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		result.Scanned++
		result.LastRow = n

		cells := p.sheet.Row(n)
		if blankRow(cells) {
			result.State = nextState(result.State)
			continue
		}
		result.State = Scanning

		r := row{number: n, cells: cells, layout: p.layout}
		partial, err := p.processRow(ctx, r)
		if err != nil {
			log.Info().Int("row", n).Str("kind", importer.KindOf(err).String()).Err(err).Msg("skipping row")
			result.Skipped = append(result.Skipped, importer.Skip(n, err))
			importer.RecordRow(importer.PipelineWorkbook, false)
			continue
		}

		result.Applied++
		importer.RecordRow(importer.PipelineWorkbook, true)

		if partial != nil {
			log.Info().Int("row", n).Str("reason", partial.Reason).Msg("row partially applied")
			result.Skipped = append(result.Skipped, *partial)
		}
	}

	log.Info().Int("scanned", result.Scanned).Int("applied", result.Applied).Int("skipped", len(result.Skipped)).Int("last row", result.LastRow).Msg("finished processing workbook")
	return result, nil
}

func nextState(s State) State {
	if s == Scanning {
		return BlankStreak
	}
	return Done
}

func blankRow(cells []any) bool {
	for _, c := range cells {
		if c == nil {
			continue
		}
		if s, ok := c.(string); ok && s == "" {
			continue
		}
		return false
	}
	return true
}

// processRow applies a row in a transaction. The carry-forward state is
// only updated when the transaction has been committed. A data quality
// problem with the receipt of a row does not roll back the rest of the
// row, it is returned as skipped row.
func (p *Processor) processRow(ctx context.Context, r row) (partial *importer.SkippedRow, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			partial = nil
			err = importer.IntegrityError(r.number, fmt.Errorf("unexpected failure: %v", recovered))
		}
	}()

	staged := p.cache
	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		partial, err = p.applyRow(tx, &staged, r)
		return err
	})
	if err != nil {
		// Following rows of an unknown institution must not fall back to the previous one
		if staged.institution == nil {
			p.cache.institution = nil
		}
		return nil, err
	}

	p.cache = staged
	return partial, nil
}

// applyRow resolves and upserts the entities of a row in order:
// institution, resolution, disbursement, report and, when importing
// receipts, receipt and receipt item.
func (p *Processor) applyRow(tx *gorm.DB, c *cache, r row) (*importer.SkippedRow, error) {
	institution, err := c.resolveInstitution(tx, r)
	if err != nil {
		return nil, err
	}

	if institution == nil {
		code, _ := r.text(FieldInstitutionCode)
		establishment, _ := r.text(FieldEstablishmentCode)
		return nil, importer.DataQualityError(r.number, "no unique institution with code %q at establishment %q", code, establishment)
	}

	resolution, err := c.resolveResolution(tx, r)
	if err != nil {
		return nil, err
	}

	if resolution == nil {
		return nil, importer.DataQualityError(r.number, "missing resolution number and year (columns %s, %s)", FieldResolutionNumber, FieldResolutionYear)
	}

	disbursement, err := p.upsertDisbursement(tx, c, r, institution, resolution)
	if err != nil {
		return nil, err
	}

	report, err := upsertReport(tx, c, r, disbursement)
	if err != nil {
		return nil, err
	}

	if !p.options.Receipts {
		return nil, nil
	}

	err = p.addReceiptItem(tx, c, r, report)
	if importer.KindOf(err) == importer.DataQuality {
		skipped := importer.Skip(r.number, err)
		return &skipped, nil
	}
	return nil, err
}
