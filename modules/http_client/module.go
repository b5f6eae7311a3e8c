// Package http_client provides the http_csv_reader plugin, which fetches a
// CSV document over HTTP.
package http_client

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vk/pipecanvas/internal/ctxlog"
	"github.com/vk/pipecanvas/internal/plugin"
	"github.com/vk/pipecanvas/internal/table"
	"github.com/vk/pipecanvas/modules/csv_io"
	"github.com/zclconf/go-cty/cty"
	"resty.dev/v3"
)

// Module implements the plugin.Module interface for this package.
type Module struct{}

// Register registers http_csv_reader with the registry.
func (m *Module) Register(r *plugin.Registry) {
	r.Register(func() plugin.Plugin { return NewReader() })
}

// Reader fetches a CSV document with a GET request and decodes it into a
// table.
type Reader struct {
	opts *plugin.Options
}

var _ plugin.Reader = (*Reader)(nil)

// NewReader returns an http_csv_reader with default options.
func NewReader() *Reader {
	return &Reader{opts: plugin.NewOptions().
		Declare("url", cty.StringVal("")).
		Declare("timeout", cty.StringVal("30s")).
		Declare("delimiter", cty.StringVal(",")).
		Declare("header", cty.True)}
}

// Info implements plugin.Plugin.
func (r *Reader) Info() plugin.Info {
	return plugin.Info{Name: "http_csv_reader", Title: "HTTP CSV Reader", Kind: plugin.KindReader, MaxInputs: 0, MaxOutputs: 1}
}

// Options implements plugin.Plugin.
func (r *Reader) Options() *plugin.Options { return r.opts }

// Read implements plugin.Reader.
func (r *Reader) Read(ctx context.Context) (*table.Table, error) {
	url, err := r.opts.String("url")
	if err != nil {
		return nil, err
	}
	if url == "" {
		return nil, fmt.Errorf("http_csv_reader: option %q is required", "url")
	}
	timeoutOpt, err := r.opts.String("timeout")
	if err != nil {
		return nil, err
	}
	timeout, err := time.ParseDuration(timeoutOpt)
	if err != nil {
		return nil, fmt.Errorf("http_csv_reader: invalid timeout: %w", err)
	}
	delimOpt, err := r.opts.String("delimiter")
	if err != nil {
		return nil, err
	}
	delim, err := csv_io.Delimiter(delimOpt)
	if err != nil {
		return nil, err
	}
	header, err := r.opts.Bool("header")
	if err != nil {
		return nil, err
	}

	logger := ctxlog.FromContext(ctx)
	logger.Info("Making HTTP request.", "method", "GET", "url", url)

	client := resty.New().SetTimeout(timeout).SetHeader("Accept", "text/csv")
	defer client.Close()

	resp, err := client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	logger.Info("Received HTTP response.", "status", resp.Status())
	if resp.IsError() {
		return nil, fmt.Errorf("GET %s: unexpected status %s", url, resp.Status())
	}

	t, err := csv_io.Decode(tableName(url), bytes.NewReader(resp.Bytes()), delim, header)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	return t, nil
}

// tableName is the last path segment of url without its extension.
func tableName(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	name := url[strings.LastIndex(url, "/")+1:]
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	if name == "" {
		return "http"
	}
	return name
}
