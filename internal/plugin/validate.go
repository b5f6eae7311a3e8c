package plugin

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vk/pipecanvas/internal/ctxlog"
)

// Validate performs a parity check between each plugin's declared kind and
// the capability interfaces its Go type actually implements.
func (r *Registry) Validate(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p := r.factories[name]()
		info := p.Info()

		if err := CheckKind(p); err != nil {
			errs = append(errs, err.Error())
		}
		if info.Expandable && info.Kind != KindBatch {
			errs = append(errs, fmt.Sprintf("plugin '%s': only batch-detector plugins can be expandable", name))
		}
		if info.Kind == KindReader && info.AcceptsInput() {
			errs = append(errs, fmt.Sprintf("plugin '%s': readers cannot accept inputs", name))
		}
		if info.Kind == KindBatch && info.MaxInputs != 1 {
			errs = append(errs, fmt.Sprintf("plugin '%s': batch-detector steps take exactly one input", name))
		}
		if info.Group != "" && info.Kind != KindPattern {
			logger.Warn("Plugin declares a detector group but is not a pattern plugin; it will not be offered in batch steps.", "plugin", name)
		}
		if p.Options() == nil {
			errs = append(errs, fmt.Sprintf("plugin '%s': Options() returned nil", name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("plugin registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	logger.Debug("Plugin registry validation passed.", "count", len(names))
	return nil
}

// CheckKind reports whether p implements the capability interface its kind
// requires.
func CheckKind(p Plugin) error {
	info := p.Info()
	var ok bool
	switch info.Kind {
	case KindReader:
		_, ok = p.(Reader)
	case KindWriter:
		_, ok = p.(Writer)
	case KindAction:
		_, ok = p.(Action)
	case KindPattern:
		_, ok = p.(Detector)
	case KindBatch:
		ok = true
	default:
		return fmt.Errorf("plugin '%s': unknown kind %d", info.Name, info.Kind)
	}
	if !ok {
		return fmt.Errorf("plugin '%s': declared kind %s but does not implement its interface", info.Name, info.Kind)
	}
	return nil
}
