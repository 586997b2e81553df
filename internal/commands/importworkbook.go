package commands

import (
	"fmt"
	"os"

	"github.com/educacion-transparente/backend/pkg/config"
	"github.com/educacion-transparente/backend/pkg/importer/workbook"
	"github.com/spf13/cobra"
)

type workbookFlags struct {
	receipts    bool
	sheet       string
	firstRow    int
	lastRow     int
	layout      string
	dedupeItems bool
}

func newImportWorkbookCommand(cfg *config.Config) *cobra.Command {
	var flags workbookFlags

	cmd := &cobra.Command{
		Use:   "importworkbook <file>",
		Short: "Import disbursements, reports and receipts from an accountability workbook",
		Long: `Import disbursements, reports and, with --receipts, receipts from an
accountability workbook.

Disbursements, reports and receipts are updated when the workbook is
imported again. Receipt items are added again unless --dedupe-items is set.`,
		Args: cobra.ExactArgs(1),
		Annotations: map[string]string{
			logFormatAnnotation: config.LogFormatHuman,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportWorkbook(cmd, *cfg, flags, args[0])
		},
	}

	defaults := workbook.DefaultOptions()
	cmd.Flags().BoolVar(&flags.receipts, "receipts", false, "import receipts and receipt items, not only disbursements and reports")
	cmd.Flags().StringVar(&flags.sheet, "sheet", defaults.Sheet, "name of the worksheet, overrides WORKBOOK_SHEET")
	cmd.Flags().IntVar(&flags.firstRow, "first-row", defaults.FirstRow, "first row to import, overrides WORKBOOK_FIRST_ROW")
	cmd.Flags().IntVar(&flags.lastRow, "last-row", defaults.LastRow, "last row to import, overrides WORKBOOK_LAST_ROW")
	cmd.Flags().StringVar(&flags.layout, "layout", "", "YAML file with the column layout, overrides WORKBOOK_LAYOUT")
	cmd.Flags().BoolVar(&flags.dedupeItems, "dedupe-items", false, "skip receipt items that have been imported from an identical row before")

	return cmd
}

// options applies the flags that have been set to the configuration.
func (f workbookFlags) options(cmd *cobra.Command, cfg config.Config) (workbook.Options, error) {
	if cmd.Flags().Changed("sheet") {
		cfg.WorkbookSheet = f.sheet
	}
	if cmd.Flags().Changed("first-row") {
		cfg.WorkbookFirstRow = f.firstRow
	}
	if cmd.Flags().Changed("last-row") {
		cfg.WorkbookLastRow = f.lastRow
	}
	if cmd.Flags().Changed("layout") {
		cfg.WorkbookLayout = f.layout
	}

	options, err := cfg.WorkbookOptions()
	if err != nil {
		return workbook.Options{}, err
	}

	options.Receipts = f.receipts
	options.DedupeItems = f.dedupeItems
	return options, nil
}

func runImportWorkbook(cmd *cobra.Command, cfg config.Config, flags workbookFlags, path string) error {
	options, err := flags.options(cmd, cfg)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(db)

	p, err := workbook.NewProcessor(db, f, options)
	if err != nil {
		return err
	}

	result, err := p.Process(cmd.Context())
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Applied %d of %d rows, last row %d\n", result.Applied, result.Scanned, result.LastRow)
	if err != nil {
		return err
	}

	return printSkipped(cmd.OutOrStdout(), result.Skipped)
}
