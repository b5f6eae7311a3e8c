package broadcast

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_WatchReceivesEvents(t *testing.T) {
	srv := NewServer(nil)
	defer srv.Close()
	mux := http.NewServeMux()
	mux.Handle(Path, srv.Handler())
	ts := httptest.NewServer(mux)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	got := make(chan Payload, 1)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, ts.URL, DialOptions{}, func(event string, p Payload) {
			if event != EventCompleted {
				return
			}
			select {
			case got <- p:
			default:
			}
		})
	}()

	want := Payload{RunID: "run-1", StepID: 3, Label: "Orders", Status: "completed"}
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	var received Payload
loop:
	for {
		select {
		case <-ticker.C:
			// The client registers its handlers after connecting, so keep
			// emitting until one arrives.
			srv.Emit(EventCompleted, want)
		case received = <-got:
			break loop
		case err := <-done:
			t.Fatalf("watch returned early: %v", err)
		case <-ctx.Done():
			t.Fatal("timed out waiting for event")
		}
	}
	assert.Equal(t, want, received)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestDial_NamespaceDefaultsToRoot(t *testing.T) {
	srv := NewServer(nil)
	defer srv.Close()
	mux := http.NewServeMux()
	mux.Handle(Path, srv.Handler())
	ts := httptest.NewServer(mux)
	defer ts.Close()

	for _, ns := range []string{"", "/"} {
		t.Run("namespace "+ns, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			io, err := Dial(ctx, ts.URL, DialOptions{Namespace: ns})
			require.NoError(t, err)
			defer io.Disconnect()
			assert.True(t, io.Connected())
		})
	}
}

func TestDial_BadURL(t *testing.T) {
	_, err := Dial(context.Background(), "not a url", DialOptions{})
	assert.ErrorContains(t, err, "failed to parse URL")
}
