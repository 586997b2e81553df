// Package config reads the configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/educacion-transparente/backend/pkg/importer/workbook"
	"github.com/educacion-transparente/backend/pkg/models"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Log formats
const (
	LogFormatHuman = "human"
	LogFormatJSON  = "json"
)

// Config is the configuration shared by all commands.
type Config struct {
	DatabaseDriver   string
	DatabaseDSN      string
	LogFormat        string // Empty when not set, the command decides
	LogLevel         zerolog.Level
	GinMode          string
	CORSAllowOrigins []string
	EnablePprof      bool
	Port             string
	APIURL           *url.URL
	DueDatePolicy    models.DueDatePolicy
	WorkbookSheet    string
	WorkbookFirstRow int
	WorkbookLastRow  int
	WorkbookLayout   string // Path of a YAML layout file
}

// Load reads a .env file in the working directory if it exists and then
// the configuration from the environment. Variables that are already set
// take precedence over the .env file.
func Load() (Config, error) {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("reading .env file: %w", err)
	}

	return FromEnv(os.LookupEnv)
}

// FromEnv builds the configuration from a lookup function like os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, fallback string) string {
		value, ok := lookup(key)
		if !ok || strings.TrimSpace(value) == "" {
			return fallback
		}
		return strings.TrimSpace(value)
	}

	defaults := workbook.DefaultOptions()
	c := Config{
		DatabaseDriver:   get("DATABASE_DRIVER", models.DriverSQLite),
		DatabaseDSN:      get("DATABASE_DSN", "data/gorm.db"),
		LogFormat:        get("LOG_FORMAT", ""),
		GinMode:          get("GIN_MODE", "release"),
		CORSAllowOrigins: strings.Fields(get("CORS_ALLOW_ORIGINS", "")),
		EnablePprof:      get("ENABLE_PPROF", "false") == "true",
		Port:             get("PORT", "8080"),
		WorkbookSheet:    get("WORKBOOK_SHEET", defaults.Sheet),
		WorkbookLayout:   get("WORKBOOK_LAYOUT", ""),
	}

	switch c.DatabaseDriver {
	case models.DriverSQLite, models.DriverMySQL:
	default:
		return Config{}, fmt.Errorf("DATABASE_DRIVER must be %q or %q, not %q", models.DriverSQLite, models.DriverMySQL, c.DatabaseDriver)
	}

	switch c.LogFormat {
	case "", LogFormatHuman, LogFormatJSON:
	default:
		return Config{}, fmt.Errorf("LOG_FORMAT must be %q or %q, not %q", LogFormatHuman, LogFormatJSON, c.LogFormat)
	}

	level, err := zerolog.ParseLevel(strings.ToLower(get("LOG_LEVEL", "info")))
	if err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	c.LogLevel = level

	c.APIURL, err = url.Parse(get("API_URL", "http://localhost:"+c.Port))
	if err != nil {
		return Config{}, fmt.Errorf("API_URL: %w", err)
	}

	c.DueDatePolicy, err = models.ParseDueDatePolicy(get("DUE_DATE_POLICY", ""))
	if err != nil {
		return Config{}, fmt.Errorf("DUE_DATE_POLICY: %w", err)
	}

	c.WorkbookFirstRow, err = positive(get("WORKBOOK_FIRST_ROW", strconv.Itoa(defaults.FirstRow)))
	if err != nil {
		return Config{}, fmt.Errorf("WORKBOOK_FIRST_ROW: %w", err)
	}

	c.WorkbookLastRow, err = positive(get("WORKBOOK_LAST_ROW", strconv.Itoa(defaults.LastRow)))
	if err != nil {
		return Config{}, fmt.Errorf("WORKBOOK_LAST_ROW: %w", err)
	}

	return c, nil
}

// WorkbookOptions returns the processor options for the workbook
// settings, loading the layout file if one is configured.
func (c Config) WorkbookOptions() (workbook.Options, error) {
	options := workbook.Options{
		Sheet:         c.WorkbookSheet,
		FirstRow:      c.WorkbookFirstRow,
		LastRow:       c.WorkbookLastRow,
		DueDatePolicy: c.DueDatePolicy,
	}

	if c.WorkbookLayout != "" {
		layout, err := workbook.LoadLayoutFile(c.WorkbookLayout)
		if err != nil {
			return workbook.Options{}, err
		}
		options.Layout = layout
	}

	return options, nil
}

func positive(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}

	if n < 1 {
		return 0, fmt.Errorf("must be at least 1, is %d", n)
	}
	return n, nil
}
