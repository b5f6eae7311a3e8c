package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/pipecanvas/internal/plugin"
	"github.com/vk/pipecanvas/internal/table"
	"github.com/vk/pipecanvas/internal/testutil"
)

func TestNewConfig(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "run mode", cfg: Config{PipelinePath: "p.hcl"}},
		{name: "serve without pipeline", cfg: Config{Serve: true}},
		{name: "watch", cfg: Config{WatchURL: "http://localhost:8080"}},
		{name: "nothing to do", cfg: Config{}, wantErr: "PipelinePath is required"},
		{name: "serve and watch", cfg: Config{Serve: true, WatchURL: "http://x"}, wantErr: "cannot be combined"},
		{name: "watch with pipeline", cfg: Config{WatchURL: "http://x", PipelinePath: "p.hcl"}, wantErr: "does not load"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := NewConfig(tc.cfg)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, cfg)
		})
	}

	cfg, err := NewConfig(Config{Serve: true})
	require.NoError(t, err)
	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
}

func TestNewApp_RegistersCoreModules(t *testing.T) {
	a, _ := setupAppTest(t, &Config{PipelinePath: "p.hcl"})
	for _, name := range []string{"csv_reader", "csv_writer", "fixed_width_reader", "print", "inner_join", "levenshtein", "case_variant", "fast_detect", "http_csv_reader", "env_reader", "s3_upload", "socketio_emit"} {
		_, ok := a.Registry().Info(name)
		assert.True(t, ok, name)
	}
}

func TestNewApp_PanicsOnInvalidRegistry(t *testing.T) {
	bad := testutil.NewReader("bad_reader", table.New("t"))
	bad.Meta.Expandable = true
	mod := &testutil.Module{Factories: []plugin.Factory{testutil.Shared(bad)}}

	assert.Panics(t, func() {
		setupAppTest(t, &Config{PipelinePath: "p.hcl"}, mod)
	})
}

func writePipeline(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "names.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("name\nAnna\nAnne\nAnna\n"), 0o644))

	hcl := fmt.Sprintf(`
step "csv_reader" "names" {
  position = [50, 50]
  options {
    path = %q
  }
}

step "levenshtein" "typos" {
  inputs = ["names"]
  options {
    column = "name"
  }
}

step "print" "out" {
  inputs = ["typos"]
}
`, csvPath)
	path := filepath.Join(dir, "pipeline.hcl")
	require.NoError(t, os.WriteFile(path, []byte(hcl), 0o644))
	return path
}

func TestRunOnce_AutoApprove(t *testing.T) {
	snap := filepath.Join(t.TempDir(), "snapshot.yaml")
	a, logs := setupAppTest(t, &Config{
		PipelinePath: writePipeline(t),
		SnapshotOut:  snap,
		AutoApprove:  true,
	})

	require.NoError(t, a.Run(context.Background()))

	out := logs.String()
	assert.Contains(t, out, "Auto-approving paused step.")
	assert.Contains(t, out, "🏁 Pipeline completed.")
	assert.Contains(t, out, "names (3 rows)")

	raw, err := os.ReadFile(snap)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "type: csv_reader")
	assert.Contains(t, string(raw), "sourceId: 1")
}

func TestRunOnce_StopsForReview(t *testing.T) {
	a, logs := setupAppTest(t, &Config{PipelinePath: writePipeline(t)})

	require.NoError(t, a.Run(context.Background()))

	out := logs.String()
	assert.Contains(t, out, "⏸️ Step paused for review.")
	assert.Contains(t, out, "Run stopped at a step awaiting review.")
	assert.NotContains(t, out, "🏁 Pipeline completed.")
}

func TestRunOnce_LoadError(t *testing.T) {
	a, _ := setupAppTest(t, &Config{PipelinePath: filepath.Join(t.TempDir(), "missing.hcl")})

	err := a.Run(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to load pipeline")
}

func TestServe_HealthAndShutdown(t *testing.T) {
	a, logs := setupAppTest(t, &Config{Serve: true, ListenAddr: "127.0.0.1:0"})
	addrs := make(chan string, 1)
	a.onListen = func(addr string) { addrs <- addr }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	var addr string
	select {
	case addr = <-addrs:
	case <-time.After(5 * time.Second):
		t.Fatal("editor server did not start")
	}

	resp, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get("http://" + addr + "/api/plugins")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("editor server did not shut down")
	}
	assert.Contains(t, logs.String(), "Shutting down editor server...")
}
