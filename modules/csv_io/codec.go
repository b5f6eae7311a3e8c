package csv_io

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/vk/pipecanvas/internal/table"
)

// ErrEmptyInput is returned when a header row is expected but the input has
// no records at all.
var ErrEmptyInput = errors.New("csv input is empty")

// Delimiter validates a single-character delimiter option.
func Delimiter(s string) (rune, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

// Decode reads CSV records from r into a table. Without a header row the
// columns are named col1, col2, ...
func Decode(name string, r io.Reader, delim rune, header bool) (*table.Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = 0

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv read error: %w", err)
	}
	if len(records) == 0 {
		if header {
			return nil, ErrEmptyInput
		}
		return table.New(name), nil
	}

	var cols []string
	if header {
		cols, records = records[0], records[1:]
	} else {
		cols = make([]string, len(records[0]))
		for i := range cols {
			cols[i] = "col" + strconv.Itoa(i+1)
		}
	}

	t := table.New(name, cols...)
	for _, rec := range records {
		if err := t.Append(rec...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Encode writes t as CSV, header first.
func Encode(w io.Writer, t *table.Table, delim rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = delim
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("csv write error: %w", err)
	}
	return nil
}
