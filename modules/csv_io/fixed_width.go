package csv_io

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vk/pipecanvas/internal/ctxlog"
	"github.com/vk/pipecanvas/internal/plugin"
	"github.com/vk/pipecanvas/internal/table"
	"github.com/zclconf/go-cty/cty"
)

// FixedWidthReader loads a file of fixed-width fields into a table.
type FixedWidthReader struct {
	opts *plugin.Options
}

var _ plugin.Reader = (*FixedWidthReader)(nil)

// NewFixedWidthReader returns a fixed_width_reader with default options.
func NewFixedWidthReader() *FixedWidthReader {
	return &FixedWidthReader{opts: plugin.NewOptions().
		Declare("path", cty.StringVal("")).
		Declare("widths", cty.StringVal("")).
		Declare("header", cty.True).
		Declare("missing_value", cty.StringVal(""))}
}

// Info implements plugin.Plugin.
func (r *FixedWidthReader) Info() plugin.Info {
	return plugin.Info{Name: "fixed_width_reader", Title: "Fixed Width Reader", Kind: plugin.KindReader, MaxInputs: 0, MaxOutputs: 1}
}

// Options implements plugin.Plugin.
func (r *FixedWidthReader) Options() *plugin.Options { return r.opts }

// Read implements plugin.Reader.
func (r *FixedWidthReader) Read(ctx context.Context) (*table.Table, error) {
	path, err := r.opts.String("path")
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, fmt.Errorf("fixed_width_reader: option %q is required", "path")
	}
	widthsOpt, err := r.opts.String("widths")
	if err != nil {
		return nil, err
	}
	widths, err := Widths(widthsOpt)
	if err != nil {
		return nil, err
	}
	header, err := r.opts.Bool("header")
	if err != nil {
		return nil, err
	}
	missing, err := r.opts.String("missing_value")
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	t, err := DecodeFixedWidth(name, f, widths, header, missing)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	ctxlog.FromContext(ctx).Debug("Read fixed-width file.", "path", path, "rows", t.Len(), "columns", len(t.Columns))
	return t, nil
}

// Widths parses a comma-separated list of positive field widths.
func Widths(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("fixed_width_reader: option %q is required", "widths")
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		w, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || w <= 0 {
			return nil, fmt.Errorf("field width must be a positive integer, got %q", part)
		}
		out = append(out, w)
	}
	return out, nil
}

// DecodeFixedWidth splits each line of r into fields of the given rune
// widths. Fields are trimmed, short lines yield empty trailing fields and
// fields equal to missing are stored empty. Blank lines are skipped.
func DecodeFixedWidth(name string, r io.Reader, widths []int, header bool, missing string) (*table.Table, error) {
	sc := bufio.NewScanner(r)
	var t *table.Table
	if !header {
		cols := make([]string, len(widths))
		for i := range cols {
			cols[i] = "col" + strconv.Itoa(i+1)
		}
		t = table.New(name, cols...)
	}
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := splitFixed(line, widths)
		if t == nil {
			t = table.New(name, fields...)
			continue
		}
		for i, f := range fields {
			if missing != "" && f == missing {
				fields[i] = ""
			}
		}
		if err := t.Append(fields...); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("fixed-width read error: %w", err)
	}
	if t == nil {
		return nil, ErrEmptyInput
	}
	return t, nil
}

func splitFixed(line string, widths []int) []string {
	runes := []rune(line)
	out := make([]string, len(widths))
	pos := 0
	for i, w := range widths {
		if pos >= len(runes) {
			break
		}
		end := min(pos+w, len(runes))
		out[i] = strings.TrimSpace(string(runes[pos:end]))
		pos = end
	}
	return out
}
