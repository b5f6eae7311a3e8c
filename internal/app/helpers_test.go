package app

import (
	"os"
	"testing"

	"github.com/vk/pipecanvas/internal/hcl_adapter"
	"github.com/vk/pipecanvas/internal/plugin"
	"github.com/vk/pipecanvas/internal/testutil"
)

// setupAppTest creates a new app instance with debug logging captured in a
// buffer. Set PIPECANVAS_TEST_LOGS=true to print the log after each test.
func setupAppTest(t *testing.T, cfg *Config, modules ...plugin.Module) (*App, *testutil.SafeBuffer) {
	t.Helper()

	logBuffer := &testutil.SafeBuffer{}
	cfg.LogLevel = "debug"
	testApp := NewApp(logBuffer, cfg, hcl_adapter.NewLoader(), modules...)

	t.Cleanup(func() {
		if os.Getenv("PIPECANVAS_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
