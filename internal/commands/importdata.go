package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/educacion-transparente/backend/pkg/config"
	"github.com/educacion-transparente/backend/pkg/importer"
	"github.com/educacion-transparente/backend/pkg/importer/reference"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newImportDataCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "importdata <establishments|institutions> <file>",
		Short: "Import establishments or institutions from a CSV file of the education census",
		Long: `Import establishments with their departments, districts and localities,
or institutions, from a CSV file of the education census.

Lines that cannot be imported are reported and skipped. Problems with the
file itself abort the import, lines before them stay imported.`,
		Args: cobra.ExactArgs(2),
		Annotations: map[string]string{
			logFormatAnnotation: config.LogFormatHuman,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := reference.ParseMode(args[0])
			if err != nil {
				return err
			}

			return runImportData(cmd, *cfg, mode, args[1])
		},
	}
}

// runImportData imports the file. File and database problems are logged,
// they do not fail the command.
func runImportData(cmd *cobra.Command, cfg config.Config, mode reference.Mode, path string) error {
	f, err := os.Open(path)
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("could not open the file")
		return nil
	}
	defer f.Close()

	db, err := openDB(cfg)
	if err != nil {
		log.Error().Err(err).Msg("could not connect to the database")
		return nil
	}
	defer closeDB(db)

	i, err := reference.New(db, f, mode)
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("could not import the file")
		return nil
	}

	skipped, err := i.Process(cmd.Context())
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("import aborted")
		for _, s := range skipped {
			if _, werr := fmt.Fprintln(cmd.OutOrStdout(), s.String()); werr != nil {
				return werr
			}
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Import aborted: %s\n", err)
		return err
	}

	return printSkipped(cmd.OutOrStdout(), skipped)
}

func printSkipped(w io.Writer, skipped []importer.SkippedRow) error {
	if len(skipped) == 0 {
		_, err := fmt.Fprintln(w, "No skipped lines")
		return err
	}

	for _, s := range skipped {
		_, err := fmt.Fprintln(w, s.String())
		if err != nil {
			return err
		}
	}
	return nil
}
