// Package commands contains the command line interface.
package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/educacion-transparente/backend/pkg/config"
	"github.com/educacion-transparente/backend/pkg/models"
	"github.com/educacion-transparente/backend/pkg/router"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// logFormatAnnotation sets the log format a command uses when LOG_FORMAT
// is not set.
const logFormatAnnotation = "logFormat"

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var cfg config.Config

	rootCmd := &cobra.Command{
		Use:     "backend",
		Short:   "Imports and serves the accountability data of school funds",
		Version: router.Version(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}

			setupLogging(cfg, cmd.Annotations[logFormatAnnotation], cmd.ErrOrStderr())
			return nil
		},
	}

	rootCmd.AddCommand(newImportDataCommand(&cfg))
	rootCmd.AddCommand(newImportWorkbookCommand(&cfg))
	rootCmd.AddCommand(newServeCommand(&cfg))

	return rootCmd
}

// setupLogging configures gin and the global logger. The log format
// falls back to the one of the command, and to human readable output
// in debug mode.
func setupLogging(cfg config.Config, fallback string, w io.Writer) {
	// gin uses debug as the default mode, we use release for
	// security reasons
	gin.SetMode(cfg.GinMode)

	format := cfg.LogFormat
	if format == "" {
		format = fallback
	}
	if format == "" && gin.IsDebugging() {
		format = config.LogFormatHuman
	}

	output := w
	if format == config.LogFormatHuman {
		output = zerolog.ConsoleWriter{Out: w}
	}

	level := cfg.LogLevel
	if gin.IsDebugging() && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// openDB connects to the configured database. For SQLite, the directory
// of the database file is created if needed.
func openDB(cfg config.Config) (*gorm.DB, error) {
	if cfg.DatabaseDriver == models.DriverSQLite {
		path, _, _ := strings.Cut(strings.TrimPrefix(cfg.DatabaseDSN, "file:"), "?")
		if path != "" && !strings.HasPrefix(path, ":memory:") {
			err := os.MkdirAll(filepath.Dir(path), os.ModePerm)
			if err != nil {
				return nil, fmt.Errorf("creating the data directory: %w", err)
			}
		}
	}

	return models.Connect(cfg.DatabaseDriver, cfg.DatabaseDSN)
}

func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}

	err = sqlDB.Close()
	if err != nil {
		log.Error().Err(err).Msg("closing the database connection")
	}
}
