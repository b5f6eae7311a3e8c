package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/vk/pipecanvas/internal/app"
)

// Environment variables that provide flag defaults.
const (
	EnvListen       = "PIPECANVAS_LISTEN"
	EnvLogLevel     = "PIPECANVAS_LOG_LEVEL"
	EnvLogFormat    = "PIPECANVAS_LOG_FORMAT"
	EnvAllowOrigins = "PIPECANVAS_ALLOW_ORIGINS"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	loadDotEnv()

	flagSet := flag.NewFlagSet("pipecanvas", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
pipecanvas - An interactive data-quality pipeline editor.

Usage:
  pipecanvas [options] [PIPELINE_PATH]
  pipecanvas -serve [options] [PIPELINE_PATH]
  pipecanvas -watch URL

Arguments:
  PIPELINE_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	pipelineFlag := flagSet.String("pipeline", "", "Path to the pipeline file or directory.")
	pFlag := flagSet.String("p", "", "Path to the pipeline file or directory (shorthand).")
	snapshotFlag := flagSet.String("snapshot-out", "", "Write the editor snapshot to this .json, .yaml or .yml file after the run.")
	serveFlag := flagSet.Bool("serve", false, "Serve the editor API and the socket.io event stream.")
	listenFlag := flagSet.String("listen", getEnv(EnvListen, app.DefaultListenAddr), "Address of the editor server.")
	originsFlag := flagSet.String("allow-origins", getEnv(EnvAllowOrigins, ""), "Comma-separated CORS origins. Empty allows all.")
	watchFlag := flagSet.String("watch", "", "Tail lifecycle events from the editor server at this URL.")
	approveFlag := flagSet.Bool("auto-approve", false, "Resume every step paused for review without changes.")
	logFormatFlag := flagSet.String("log-format", getEnv(EnvLogFormat, "text"), "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", getEnv(EnvLogLevel, "info"), "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *pipelineFlag != "" {
		path = *pipelineFlag
	} else if *pFlag != "" {
		path = *pFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Pipeline path determined.", "path", path)

	if path == "" && !*serveFlag && *watchFlag == "" {
		slog.Debug("Nothing to do, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		PipelinePath: path,
		SnapshotOut:  *snapshotFlag,
		Serve:        *serveFlag,
		ListenAddr:   *listenFlag,
		AllowOrigins: splitList(*originsFlag),
		WatchURL:     *watchFlag,
		AutoApprove:  *approveFlag,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

// loadDotEnv reads .env from the working directory when there is one.
// Variables already set in the environment win.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables.")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
