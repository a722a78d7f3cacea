package engine

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Row is one raw CSV line of a bulk upload. Fields are kept as strings so
// semantic validation happens per row during ingestion instead of aborting
// the whole file.
type Row struct {
	Line           int
	IdempotencyKey string
	Amount         string
	Account        string
	Type           string
}

// Required header columns of a bulk upload file
const (
	columnIdempotencyKey = "idempotencyKey"
	columnAmount         = "amount"
	columnAccount        = "account"
	columnType           = "type"
)

// ErrEmptyFile indicates the uploaded file had no header row
var ErrEmptyFile = errors.New("csv file is empty")

// HeaderError reports missing required columns in the upload header
type HeaderError struct {
	Missing []string
}

func (e HeaderError) Error() string {
	return "csv header is missing required columns: " + strings.Join(e.Missing, ", ")
}

// ParseCSV reads a bulk upload file into rows. The first line must be a
// header naming the idempotencyKey, amount, account and type columns in any
// order. Structural problems (no header, missing columns, broken quoting)
// fail the whole file; everything row-level is left to IngestBatch.
func ParseCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // Short rows surface as per-row failures

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, required := range []string{columnIdempotencyKey, columnAmount, columnAccount, columnType} {
		if _, ok := index[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, HeaderError{Missing: missing}
	}

	var rows []Row
	line := 1 // Header occupies line 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line+1, err)
		}
		line++

		rows = append(rows, Row{
			Line:           line,
			IdempotencyKey: field(record, index[columnIdempotencyKey]),
			Amount:         field(record, index[columnAmount]),
			Account:        field(record, index[columnAccount]),
			Type:           field(record, index[columnType]),
		})
	}

	return rows, nil
}

func field(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return record[idx]
}
