package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/groupscholar/cohort-early-warning/internal/domain/dedupe"
	"github.com/groupscholar/cohort-early-warning/internal/domain/model"
	"github.com/groupscholar/cohort-early-warning/pkg/logger"
	"github.com/groupscholar/cohort-early-warning/pkg/metrics"
)

// CSV columns. source_key is optional.
const (
	colFullName   = "full_name"
	colEmail      = "email"
	colCohort     = "cohort"
	colSignalType = "signal_type"
	colSeverity   = "severity"
	colNote       = "note"
	colOccurredAt = "occurred_at"
	colSourceKey  = "source_key"

	generatedKeyPrefix = "import-"
)

var requiredColumns = []string{colFullName, colEmail, colCohort, colSignalType, colSeverity, colNote, colOccurredAt}

// csvRow is one parsed import line.
type csvRow struct {
	scholar model.Scholar
	signal  newSignal
}

// header maps column names to their positions.
type header map[string]int

func readHeader(r *csv.Reader) (header, error) {
	names, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrMissingColumn)
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	h := make(header, len(names))
	for i, name := range names {
		h[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := h[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}
	return h, nil
}

func (h header) get(record []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// parseRow validates one record. line is used only for error messages.
func (h header) parseRow(record []string, line int) (csvRow, error) {
	malformed := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: line %d: %s", ErrMalformedRow, line, fmt.Sprintf(format, args...))
	}

	email := h.get(record, colEmail)
	if email == "" {
		return csvRow{}, malformed("email is empty")
	}
	signalType := h.get(record, colSignalType)
	if signalType == "" {
		return csvRow{}, malformed("signal_type is empty")
	}
	severity, err := strconv.Atoi(h.get(record, colSeverity))
	if err != nil {
		return csvRow{}, malformed("severity %q is not an integer", h.get(record, colSeverity))
	}
	occurredAt, err := model.ParseDate(h.get(record, colOccurredAt))
	if err != nil {
		return csvRow{}, malformed("occurred_at %q is not a YYYY-MM-DD date", h.get(record, colOccurredAt))
	}

	sourceKey := h.get(record, colSourceKey)
	if sourceKey == "" {
		sourceKey = generatedKeyPrefix + uuid.NewString()
	}

	return csvRow{
		scholar: model.Scholar{
			FullName: h.get(record, colFullName),
			Email:    email,
			Cohort:   h.get(record, colCohort),
		},
		signal: newSignal{
			SignalType: signalType,
			Severity:   severity,
			Note:       h.get(record, colNote),
			OccurredAt: occurredAt,
			SourceKey:  sourceKey,
		},
	}, nil
}

// ImportCSV upserts each row's scholar and inserts its signal. Rows are
// applied in file order inside one transaction, so a malformed row leaves
// the database untouched. A source key repeated within the file, or already
// stored, counts as a duplicate.
func (s *PostgresStore) ImportCSV(ctx context.Context, r io.Reader) (res ImportResult, err error) {
	start := time.Now()
	defer func() { s.observe("import_csv", start, err) }()

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	h, err := readHeader(reader)
	if err != nil {
		return res, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	seen := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ImportResult{}, fmt.Errorf("%w: %w", ErrMalformedRow, err)
		}
		line, _ := reader.FieldPos(0)
		res.Rows++

		row, err := h.parseRow(record, line)
		if err != nil {
			return ImportResult{}, err
		}
		if seen.SeenAndRecord(ctx, row.signal.SourceKey) {
			res.Duplicates++
			continue
		}

		scholarID, err := s.upsertScholar(ctx, tx, row.scholar)
		if err != nil {
			return ImportResult{}, fmt.Errorf("line %d: %w", line, err)
		}
		row.signal.ScholarID = scholarID

		inserted, err := s.insertSignal(ctx, tx, row.signal)
		if err != nil {
			return ImportResult{}, fmt.Errorf("line %d: %w", line, err)
		}
		if inserted {
			res.Inserted++
		} else {
			res.Duplicates++
		}
	}

	if err := tx.Commit(); err != nil {
		return ImportResult{}, fmt.Errorf("failed to commit import: %w", err)
	}

	metrics.RecordImportRows(metrics.OutcomeInserted, res.Inserted)
	metrics.RecordImportRows(metrics.OutcomeDuplicate, res.Duplicates)
	s.log.Info(ctx, "csv import committed",
		logger.Int("rows", res.Rows), logger.Int("inserted", res.Inserted), logger.Int("duplicates", res.Duplicates))
	return res, nil
}
