package plugin

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
)

// ErrUnknownPlugin is returned when a plugin name is not registered.
var ErrUnknownPlugin = errors.New("unknown plugin")

// Module is the interface that every plugin package implements to add its
// factories to a registry.
type Module interface {
	Register(r *Registry)
}

// Factory creates a fresh plugin instance. Every step gets its own instance.
type Factory func() Plugin

// Group is a detector group as offered by an expanded batch step.
type Group struct {
	Label   string
	Members []Info
}

// Registry holds the plugin factories for a single application instance.
type Registry struct {
	factories map[string]Factory
	infos     map[string]Info
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		infos:     make(map[string]Info),
	}
}

// Register adds a factory. It panics on an empty or duplicate name, since both
// are programmer errors caught at startup.
func (r *Registry) Register(f Factory) {
	info := f().Info()
	if info.Name == "" {
		panic("plugin: factory returned an empty plugin name")
	}
	if _, exists := r.factories[info.Name]; exists {
		panic(fmt.Sprintf("plugin: duplicate registration for %q", info.Name))
	}
	slog.Debug("Registering plugin.", "name", info.Name, "kind", info.Kind)
	r.factories[info.Name] = f
	r.infos[info.Name] = info
}

// New instantiates the named plugin.
func (r *Registry) New(name string) (Plugin, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlugin, name)
	}
	return f(), nil
}

// Info returns the static description of the named plugin.
func (r *Registry) Info(name string) (Info, bool) {
	info, ok := r.infos[name]
	return info, ok
}

// Names returns all registered plugin names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DetectorGroups returns the detector plugins eligible for a batch step,
// grouped by label. Groups are sorted by label and members by title so that
// member indexes are stable across calls.
func (r *Registry) DetectorGroups() []Group {
	byLabel := make(map[string][]Info)
	for name, f := range r.factories {
		info := r.infos[name]
		if info.Group == "" {
			continue
		}
		d, ok := f().(Detector)
		if !ok || !d.CanDetect() {
			continue
		}
		byLabel[info.Group] = append(byLabel[info.Group], info)
	}

	groups := make([]Group, 0, len(byLabel))
	for label, members := range byLabel {
		sort.Slice(members, func(i, j int) bool {
			if members[i].Title != members[j].Title {
				return members[i].Title < members[j].Title
			}
			return members[i].Name < members[j].Name
		})
		groups = append(groups, Group{Label: label, Members: members})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Label < groups[j].Label })
	return groups
}
