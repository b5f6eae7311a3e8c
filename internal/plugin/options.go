package plugin

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

var (
	// ErrUnknownOption is returned when setting or reading an undeclared option.
	ErrUnknownOption = errors.New("unknown option")
	// ErrInvalidOption is returned when a value cannot be converted to the
	// option's type.
	ErrInvalidOption = errors.New("invalid option value")
)

// Options is a plugin's declared option set. Each option has a default whose
// type fixes the type every later value is converted to.
type Options struct {
	order    []string
	defaults map[string]cty.Value
	values   map[string]cty.Value
}

// NewOptions returns an empty option set.
func NewOptions() *Options {
	return &Options{
		defaults: make(map[string]cty.Value),
		values:   make(map[string]cty.Value),
	}
}

// Declare adds an option with its default value. Redeclaring replaces the default.
func (o *Options) Declare(name string, def cty.Value) *Options {
	if _, ok := o.defaults[name]; !ok {
		o.order = append(o.order, name)
	}
	o.defaults[name] = def
	return o
}

// Names returns the declared option names in declaration order.
func (o *Options) Names() []string {
	out := make([]string, len(o.order))
	copy(out, o.order)
	return out
}

// Set assigns a value, converting it to the type of the option's default.
func (o *Options) Set(name string, v cty.Value) error {
	def, ok := o.defaults[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownOption, name)
	}
	converted, err := convert.Convert(v, def.Type())
	if err != nil {
		return fmt.Errorf("%w: option %q: %v", ErrInvalidOption, name, err)
	}
	o.values[name] = converted
	return nil
}

// SetAll assigns several values at once. Nothing is assigned unless every
// value is declared and converts.
func (o *Options) SetAll(vals map[string]cty.Value) error {
	staged := NewOptions()
	for _, name := range slices.Sorted(maps.Keys(vals)) {
		v := vals[name]
		def, ok := o.defaults[name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownOption, name)
		}
		staged.Declare(name, def)
		if err := staged.Set(name, v); err != nil {
			return err
		}
	}
	for name, v := range staged.values {
		o.values[name] = v
	}
	return nil
}

// Get returns the option's current value, or its default when unset.
func (o *Options) Get(name string) (cty.Value, error) {
	if v, ok := o.values[name]; ok {
		return v, nil
	}
	def, ok := o.defaults[name]
	if !ok {
		return cty.NilVal, fmt.Errorf("%w: %q", ErrUnknownOption, name)
	}
	return def, nil
}

// String decodes a string option.
func (o *Options) String(name string) (string, error) {
	var s string
	return s, o.decode(name, &s)
}

// Float decodes a number option.
func (o *Options) Float(name string) (float64, error) {
	var f float64
	return f, o.decode(name, &f)
}

// Bool decodes a bool option.
func (o *Options) Bool(name string) (bool, error) {
	var b bool
	return b, o.decode(name, &b)
}

func (o *Options) decode(name string, target any) error {
	v, err := o.Get(name)
	if err != nil {
		return err
	}
	if v.IsNull() {
		return fmt.Errorf("option %q is null", name)
	}
	if err := gocty.FromCtyValue(v, target); err != nil {
		return fmt.Errorf("option %q: %w", name, err)
	}
	return nil
}
