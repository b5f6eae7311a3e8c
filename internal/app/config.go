package app

import "errors"

// DefaultListenAddr is the editor server address used when none is given.
const DefaultListenAddr = ":8080"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	PipelinePath string // hcl file or directory
	SnapshotOut  string // .json, .yaml or .yml

	Serve        bool
	ListenAddr   string
	AllowOrigins []string

	WatchURL    string
	AutoApprove bool

	LogFormat string
	LogLevel  string
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Serve && cfg.WatchURL != "" {
		return nil, errors.New("serve and watch modes cannot be combined")
	}
	if !cfg.Serve && cfg.WatchURL == "" && cfg.PipelinePath == "" {
		return nil, errors.New("PipelinePath is required unless serving or watching")
	}
	if cfg.WatchURL != "" && (cfg.PipelinePath != "" || cfg.SnapshotOut != "") {
		return nil, errors.New("watch mode does not load or save pipelines")
	}
	if cfg.Serve && cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	return &cfg, nil
}
