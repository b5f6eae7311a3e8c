package testutil

import (
	"context"
	"sync"

	"github.com/vk/pipecanvas/internal/plugin"
	"github.com/vk/pipecanvas/internal/table"
)

// Fake is a configurable plugin for tests. It implements every capability
// interface; its Info().Kind decides which one the pipeline actually uses.
type Fake struct {
	Meta plugin.Info
	Opts *plugin.Options

	ReadFn   func(ctx context.Context) (*table.Table, error)
	RunFn    func(ctx context.Context, inputs []*table.Table) (*table.Table, error)
	WriteFn  func(ctx context.Context, t *table.Table) error
	DetectFn func(ctx context.Context, t *table.Table) (*table.Table, error)
	RepairFn func(ctx context.Context, master, changes *table.Table) (*table.Table, error)

	// Repairable is returned by CanRepair.
	Repairable bool

	mu       sync.Mutex
	calls    []string
	detected int
}

// Info implements plugin.Plugin.
func (f *Fake) Info() plugin.Info { return f.Meta }

// Options implements plugin.Plugin.
func (f *Fake) Options() *plugin.Options {
	if f.Opts == nil {
		f.Opts = plugin.NewOptions()
	}
	return f.Opts
}

// Calls returns the recorded capability calls in order, e.g. "read", "detect".
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *Fake) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

// Read implements plugin.Reader.
func (f *Fake) Read(ctx context.Context) (*table.Table, error) {
	f.record("read")
	if f.ReadFn == nil {
		return table.New(f.Meta.Name, "value"), nil
	}
	return f.ReadFn(ctx)
}

// Run implements plugin.Action. Without RunFn the first input is passed through.
func (f *Fake) Run(ctx context.Context, inputs []*table.Table) (*table.Table, error) {
	f.record("run")
	if f.RunFn == nil {
		if len(inputs) == 0 {
			return nil, nil
		}
		return inputs[0].Clone(), nil
	}
	return f.RunFn(ctx, inputs)
}

// Write implements plugin.Writer.
func (f *Fake) Write(ctx context.Context, t *table.Table) error {
	f.record("write")
	if f.WriteFn == nil {
		return nil
	}
	return f.WriteFn(ctx, t)
}

// Detect implements plugin.Detector.
func (f *Fake) Detect(ctx context.Context, t *table.Table) (*table.Table, error) {
	f.record("detect")
	if f.DetectFn == nil {
		return table.New(f.Meta.Name), nil
	}
	res, err := f.DetectFn(ctx, t)
	if err == nil {
		f.mu.Lock()
		f.detected = res.Len()
		f.mu.Unlock()
	}
	return res, err
}

// Repair implements plugin.Detector.
func (f *Fake) Repair(ctx context.Context, master, changes *table.Table) (*table.Table, error) {
	f.record("repair")
	if f.RepairFn == nil {
		return master.Clone(), nil
	}
	return f.RepairFn(ctx, master, changes)
}

// CanDetect implements plugin.Detector.
func (f *Fake) CanDetect() bool { return true }

// CanRepair implements plugin.Detector.
func (f *Fake) CanRepair() bool { return f.Repairable }

// ImperfectionsDetected implements plugin.Detector.
func (f *Fake) ImperfectionsDetected() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.detected
}

// ExpectedDetections implements plugin.Detector.
func (f *Fake) ExpectedDetections() float64 { return 0 }

// Shared returns a factory that always hands out f, so tests can inspect the
// calls a step made.
func Shared(f *Fake) plugin.Factory {
	return func() plugin.Plugin { return f }
}

// Module registers a fixed set of factories.
type Module struct {
	Factories []plugin.Factory
}

// Register implements plugin.Module.
func (m *Module) Register(r *plugin.Registry) {
	for _, f := range m.Factories {
		r.Register(f)
	}
}

// NewReader returns a fake reader producing t.
func NewReader(name string, t *table.Table) *Fake {
	return &Fake{
		Meta:   plugin.Info{Name: name, Title: name, Kind: plugin.KindReader, MaxInputs: 0, MaxOutputs: 1},
		ReadFn: func(context.Context) (*table.Table, error) { return t.Clone(), nil },
	}
}

// NewAction returns a pass-through action with the given input arity.
func NewAction(name string, maxInputs int) *Fake {
	return &Fake{
		Meta: plugin.Info{Name: name, Title: name, Kind: plugin.KindAction, MaxInputs: maxInputs, MaxOutputs: 1},
	}
}

// NewWriter returns a fake writer.
func NewWriter(name string) *Fake {
	return &Fake{
		Meta: plugin.Info{Name: name, Title: name, Kind: plugin.KindWriter, MaxInputs: 1, MaxOutputs: 1},
	}
}

// NewDetector returns a pattern plugin in the given group whose Detect
// returns a one-column table named after the detector with one row per
// entry in findings.
func NewDetector(name, group string, findings ...string) *Fake {
	return &Fake{
		Meta: plugin.Info{Name: name, Title: name, Group: group, Kind: plugin.KindPattern, MaxInputs: 1, MaxOutputs: 1},
		DetectFn: func(context.Context, *table.Table) (*table.Table, error) {
			res := table.New(name, "finding")
			for _, f := range findings {
				_ = res.Append(f)
			}
			return res, nil
		},
	}
}

// NewBatch returns an expandable batch-detector plugin.
func NewBatch(name string) *Fake {
	return &Fake{
		Meta: plugin.Info{Name: name, Title: name, Kind: plugin.KindBatch, MaxInputs: 1, MaxOutputs: 1, Expandable: true},
	}
}
