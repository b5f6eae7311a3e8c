// Package socketio provides the socketio_emit writer, which publishes a
// table to a socket.io server and optionally waits for a reply event.
package socketio

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/vk/pipecanvas/internal/broadcast"
	"github.com/vk/pipecanvas/internal/ctxlog"
	"github.com/vk/pipecanvas/internal/plugin"
	"github.com/vk/pipecanvas/internal/table"
	"github.com/zclconf/go-cty/cty"
	"github.com/zishang520/engine.io/v2/types"
)

// Module implements the plugin.Module interface for this package.
type Module struct{}

// Register registers socketio_emit with the registry.
func (m *Module) Register(r *plugin.Registry) {
	r.Register(func() plugin.Plugin { return NewEmitter() })
}

// Emitter is the socketio_emit writer.
type Emitter struct {
	opts *plugin.Options
}

var _ plugin.Writer = (*Emitter)(nil)

// NewEmitter returns a socketio_emit writer with default options.
func NewEmitter() *Emitter {
	return &Emitter{opts: plugin.NewOptions().
		Declare("url", cty.StringVal("")).
		Declare("namespace", cty.StringVal("/")).
		Declare("emit_event", cty.StringVal("table")).
		Declare("on_event", cty.StringVal("")).
		Declare("timeout", cty.StringVal("10s")).
		Declare("insecure_skip_verify", cty.False)}
}

// Info implements plugin.Plugin.
func (e *Emitter) Info() plugin.Info {
	return plugin.Info{Name: "socketio_emit", Title: "Socket.IO Emit", Kind: plugin.KindWriter, MaxInputs: 1, MaxOutputs: 1}
}

// Options implements plugin.Plugin.
func (e *Emitter) Options() *plugin.Options { return e.opts }

type settings struct {
	url, namespace, emitEvent, onEvent string
	timeout                            time.Duration
	insecure                           bool
}

func (e *Emitter) settings() (*settings, error) {
	var s settings
	var err error
	for name, dst := range map[string]*string{
		"url":        &s.url,
		"namespace":  &s.namespace,
		"emit_event": &s.emitEvent,
		"on_event":   &s.onEvent,
	} {
		if *dst, err = e.opts.String(name); err != nil {
			return nil, err
		}
	}
	if s.url == "" {
		return nil, fmt.Errorf("socketio_emit: option %q is required", "url")
	}
	if s.emitEvent == "" {
		return nil, fmt.Errorf("socketio_emit: option %q must not be empty", "emit_event")
	}
	timeoutOpt, err := e.opts.String("timeout")
	if err != nil {
		return nil, err
	}
	if s.timeout, err = time.ParseDuration(timeoutOpt); err != nil {
		return nil, fmt.Errorf("socketio_emit: invalid timeout: %w", err)
	}
	if s.insecure, err = e.opts.Bool("insecure_skip_verify"); err != nil {
		return nil, err
	}
	return &s, nil
}

// Write implements plugin.Writer. The table is sent as its JSON form. When
// on_event is set, Write waits for that event before returning.
func (e *Emitter) Write(ctx context.Context, t *table.Table) error {
	s, err := e.settings()
	if err != nil {
		return err
	}
	logger := ctxlog.FromContext(ctx).With("url", s.url, "emit_event", s.emitEvent, "on_event", s.onEvent)

	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	client, err := broadcast.Dial(opCtx, s.url, broadcast.DialOptions{Namespace: s.namespace, InsecureSkipVerify: s.insecure})
	if err != nil {
		return err
	}
	defer client.Disconnect()

	done := make(chan struct{})
	var replied atomic.Bool
	if s.onEvent != "" {
		client.Once(types.EventName(s.onEvent), func(...any) {
			if replied.CompareAndSwap(false, true) {
				close(done)
			}
		})
	}

	logger.Info("Emitting table.", "table", t.Name, "rows", t.Len())
	if err := client.Emit(s.emitEvent, t); err != nil {
		return fmt.Errorf("failed to emit %q: %w", s.emitEvent, err)
	}
	if s.onEvent == "" {
		return nil
	}

	select {
	case <-done:
		logger.Info("Successfully received response event.")
		return nil
	case <-opCtx.Done():
		return fmt.Errorf("timed out after %v waiting for event '%s'", s.timeout, s.onEvent)
	}
}
