package broadcast

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/vk/pipecanvas/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// DialTimeout bounds how long Dial waits for the connect event.
var DialTimeout = 15 * time.Second

// DialOptions configure a client connection.
type DialOptions struct {
	// Namespace defaults to "/".
	Namespace          string
	InsecureSkipVerify bool
}

// Dial connects a socket.io client to rawURL and waits until the connection
// is established.
func Dial(ctx context.Context, rawURL string, o DialOptions) (*socket.Socket, error) {
	logger := ctxlog.FromContext(ctx).With("url", rawURL)

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("failed to parse URL: %q is not absolute", rawURL)
	}

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" && parsedURL.Path != "/" {
		opts.SetPath(parsedURL.Path)
	}
	if o.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification.")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	namespace := o.Namespace
	if namespace == "" {
		namespace = "/"
	}
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		select {
		case connectChan <- err:
		default:
		}
	})

	logger.Debug("Initiating connection.")
	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		logger.Info("Successfully connected.", "sid", io.Id())
		return io, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(DialTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", DialTimeout)
	}
}

// Handler receives one decoded lifecycle event.
type Handler func(event string, p Payload)

// Watch connects to rawURL and calls handle for every lifecycle event until
// ctx is done. Calls to handle are not concurrent.
func Watch(ctx context.Context, rawURL string, o DialOptions, handle Handler) error {
	logger := ctxlog.FromContext(ctx)
	io, err := Dial(ctx, rawURL, o)
	if err != nil {
		return err
	}
	defer io.Disconnect()

	type received struct {
		event string
		p     Payload
	}
	events := make(chan received, 64)
	for _, name := range Events {
		io.On(types.EventName(name), func(data ...any) {
			if len(data) == 0 {
				return
			}
			p, err := decodePayload(data[0])
			if err != nil {
				logger.Warn("Dropping malformed event.", "event", name, "error", err)
				return
			}
			select {
			case events <- received{event: name, p: p}:
			case <-ctx.Done():
			}
		})
	}
	io.On(types.EventName("disconnect"), func(reason ...any) {
		logger.Warn("Disconnected from server.", "reason", reason)
	})

	for {
		select {
		case <-ctx.Done():
			logger.Info("Watch stopped.")
			return nil
		case ev := <-events:
			handle(ev.event, ev.p)
		}
	}
}

// decodePayload converts the generic JSON value delivered by the client into
// a Payload.
func decodePayload(v any) (Payload, error) {
	var p Payload
	raw, err := json.Marshal(v)
	if err != nil {
		return p, err
	}
	err = json.Unmarshal(raw, &p)
	return p, err
}
