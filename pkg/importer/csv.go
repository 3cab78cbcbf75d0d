package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Row is one parsed CSV record, keyed by lowercased header name. Line is the
// 1-based position in the file, header included, for error reporting.
type Row struct {
	Line   int
	Values map[string]string
}

// ParseCSV reads a headered CSV stream. Header names are lowercased and
// trimmed; rows whose column count does not match the header are skipped
// rather than failing the whole file, since exports from spreadsheets
// routinely carry ragged trailing lines.
func ParseCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var header []string
	var rows []Row
	line := 0

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("importer: read csv: %w", err)
		}
		line++

		if emptyRecord(record) {
			continue
		}
		if header == nil {
			header = make([]string, len(record))
			for i, name := range record {
				header[i] = strings.ToLower(strings.TrimSpace(sanitizeUTF8(name)))
			}
			continue
		}
		if len(record) != len(header) {
			continue
		}

		values := make(map[string]string, len(header))
		for i, name := range header {
			values[name] = strings.TrimSpace(sanitizeUTF8(record[i]))
		}
		rows = append(rows, Row{Line: line, Values: values})
	}

	if header == nil {
		return nil, errors.New("importer: csv file is empty")
	}
	return rows, nil
}

func emptyRecord(record []string) bool {
	for _, value := range record {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

// sanitizeUTF8 drops invalid byte sequences so a file saved in a legacy
// encoding cannot poison the JSON payload.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "")
}

// ParseAvailability interprets the availability column's spreadsheet
// dialects.
func ParseAvailability(token string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	default:
		return false, fmt.Errorf("importer: %q is not an availability value", token)
	}
}
