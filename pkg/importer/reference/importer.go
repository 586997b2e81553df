// Package reference imports departments, districts, localities,
// establishments and institutions from the CSV exports of the education
// census.
package reference

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/educacion-transparente/backend/pkg/importer"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Mode selects what is imported from a file.
type Mode string

const (
	ModeEstablishments Mode = "establishments"
	ModeInstitutions   Mode = "institutions"
)

// ParseMode parses an import type.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeEstablishments:
		return ModeEstablishments, nil
	case ModeInstitutions:
		return ModeInstitutions, nil
	}
	return "", fmt.Errorf("unknown import type %q, use %q or %q", s, ModeEstablishments, ModeInstitutions)
}

func (m Mode) pipeline() string {
	if m == ModeInstitutions {
		return importer.PipelineInstitutions
	}
	return importer.PipelineEstablishments
}

// Importer imports one CSV file. Its caches live for one run, an Importer
// must not be reused or shared.
type Importer struct {
	db     *gorm.DB
	mode   Mode
	reader *csv.Reader
	header map[string]int
	caches caches
}

// New reads the header of the CSV file. Files separated by semicolons are
// detected from the header. An unreadable header is a structural error.
func New(db *gorm.DB, r io.Reader, mode Mode) (*Importer, error) {
	if mode != ModeEstablishments && mode != ModeInstitutions {
		return nil, importer.StructuralError(fmt.Errorf("unknown import type %q", mode))
	}

	buffered := bufio.NewReader(r)
	line, err := buffered.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, importer.StructuralError(fmt.Errorf("could not read the CSV header: %w", err))
	}

	comma := ','
	if strings.Count(line, ";") > strings.Count(line, ",") {
		comma = ';'
	}

	header := make(map[string]int)
	if strings.TrimSpace(line) != "" {
		headerReader := csv.NewReader(strings.NewReader(line))
		headerReader.Comma = comma

		names, err := headerReader.Read()
		if err != nil {
			return nil, importer.StructuralError(fmt.Errorf("could not parse the CSV header: %w", err))
		}

		for idx, name := range names {
			name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
			if _, ok := header[name]; !ok {
				header[name] = idx
			}
		}
	}

	reader := csv.NewReader(buffered)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	return &Importer{
		db:     db,
		mode:   mode,
		reader: reader,
		header: header,
		caches: newCaches(),
	}, nil
}

// Process imports all rows. Rows that cannot be imported completely are
// rolled back and returned with their line number, the header being
// line 1. Only unreadable input stops the import.
func (i *Importer) Process(ctx context.Context) ([]importer.SkippedRow, error) {
	importer.RecordRun(i.mode.pipeline())
	log.Info().Str("type", string(i.mode)).Msg("processing reference data")

	skipped := []importer.SkippedRow{}
	rows := 0
	for {
		if err := ctx.Err(); err != nil {
			return skipped, err
		}

		fields, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		// Line numbers of the reader do not include the header
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return skipped, importer.StructuralError(fmt.Errorf("could not read line %d of the CSV: %w", parseErr.StartLine+1, parseErr.Err))
			}
			return skipped, importer.StructuralError(fmt.Errorf("could not read the CSV: %w", err))
		}

		line, _ := i.reader.FieldPos(0)
		line++

		rows++
		rec := record{line: line, fields: fields, header: i.header}
		err = i.processRecord(ctx, rec)
		if err != nil {
			log.Info().Int("line", line).Str("kind", importer.KindOf(err).String()).Err(err).Msg("skipping line")
			skipped = append(skipped, importer.Skip(line, err))
			importer.RecordRow(i.mode.pipeline(), false)
			continue
		}
		importer.RecordRow(i.mode.pipeline(), true)
	}

	log.Info().Int("rows", rows).Int("skipped", len(skipped)).Msg("finished processing reference data")
	return skipped, nil
}

// processRecord imports a record in a transaction. Entities created for
// the record are only cached after the commit.
func (i *Importer) processRecord(ctx context.Context, rec record) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = importer.IntegrityError(rec.line, fmt.Errorf("unexpected failure: %v", recovered))
		}
	}()

	pending := newCaches()
	err = i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s := stage{tx: tx, committed: &i.caches, pending: &pending}

		if i.mode == ModeEstablishments {
			_, err := s.establishmentChain(rec)
			return err
		}

		_, err := s.institutionRow(rec)
		return err
	})
	if err != nil {
		return err
	}

	i.caches.merge(pending)
	return nil
}
