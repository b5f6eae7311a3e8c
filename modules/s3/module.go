// Package s3 provides the s3_upload writer, which stores a table as a CSV
// object through a pre-signed upload URL.
package s3

import (
	"bytes"
	"context"
	"fmt"
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

// Register registers s3_upload with the registry.
func (m *Module) Register(r *plugin.Registry) {
	r.Register(func() plugin.Plugin { return NewUploader() })
}

// Uploader is the s3_upload writer.
type Uploader struct {
	opts *plugin.Options
}

var _ plugin.Writer = (*Uploader)(nil)

// NewUploader returns an s3_upload writer with default options.
func NewUploader() *Uploader {
	return &Uploader{opts: plugin.NewOptions().
		Declare("upload_url", cty.StringVal("")).
		Declare("timeout", cty.StringVal("60s")).
		Declare("delimiter", cty.StringVal(","))}
}

// Info implements plugin.Plugin.
func (u *Uploader) Info() plugin.Info {
	return plugin.Info{Name: "s3_upload", Title: "S3 Upload", Kind: plugin.KindWriter, MaxInputs: 1, MaxOutputs: 1}
}

// Options implements plugin.Plugin.
func (u *Uploader) Options() *plugin.Options { return u.opts }

// Write implements plugin.Writer.
func (u *Uploader) Write(ctx context.Context, t *table.Table) error {
	logger := ctxlog.FromContext(ctx).With("action", "upload")

	uploadURL, err := u.opts.String("upload_url")
	if err != nil {
		return err
	}
	if uploadURL == "" {
		return fmt.Errorf("s3_upload: option %q is required", "upload_url")
	}
	timeoutOpt, err := u.opts.String("timeout")
	if err != nil {
		return err
	}
	timeout, err := time.ParseDuration(timeoutOpt)
	if err != nil {
		return fmt.Errorf("s3_upload: invalid timeout: %w", err)
	}
	delimOpt, err := u.opts.String("delimiter")
	if err != nil {
		return err
	}
	delim, err := csv_io.Delimiter(delimOpt)
	if err != nil {
		return err
	}

	var body bytes.Buffer
	if err := csv_io.Encode(&body, t, delim); err != nil {
		return fmt.Errorf("failed to encode %q: %w", t.Name, err)
	}

	client := resty.New().SetTimeout(timeout)
	defer client.Close()

	logger.Info("Uploading table to S3.", "table", t.Name, "size", body.Len())
	resp, err := client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "text/csv").
		SetBody(body.Bytes()).
		Put(uploadURL)
	if err != nil {
		return fmt.Errorf("failed to execute S3 upload request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("S3 upload failed with status: %s", resp.Status())
	}
	logger.Info("Successfully uploaded table.", "status", resp.Status())
	return nil
}
