package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestOptions(t *testing.T) {
	opts := NewOptions().
		Declare("path", cty.StringVal("")).
		Declare("threshold", cty.NumberFloatVal(0.7)).
		Declare("header", cty.True)

	t.Run("defaults", func(t *testing.T) {
		f, err := opts.Float("threshold")
		require.NoError(t, err)
		assert.InDelta(t, 0.7, f, 1e-9)

		b, err := opts.Bool("header")
		require.NoError(t, err)
		assert.True(t, b)
	})

	t.Run("set converts to the declared type", func(t *testing.T) {
		require.NoError(t, opts.Set("threshold", cty.StringVal("0.85")))
		f, err := opts.Float("threshold")
		require.NoError(t, err)
		assert.InDelta(t, 0.85, f, 1e-9)
	})

	t.Run("unconvertible value", func(t *testing.T) {
		err := opts.Set("header", cty.StringVal("maybe"))
		assert.ErrorIs(t, err, ErrInvalidOption)
	})

	t.Run("unknown option", func(t *testing.T) {
		assert.ErrorIs(t, opts.Set("nope", cty.True), ErrUnknownOption)
		_, err := opts.String("nope")
		assert.ErrorIs(t, err, ErrUnknownOption)
	})

	t.Run("declaration order", func(t *testing.T) {
		assert.Equal(t, []string{"path", "threshold", "header"}, opts.Names())
	})
}

func TestOptions_SetAll(t *testing.T) {
	newOpts := func() *Options {
		return NewOptions().
			Declare("path", cty.StringVal("")).
			Declare("threshold", cty.NumberFloatVal(0.7))
	}

	t.Run("assigns every value", func(t *testing.T) {
		opts := newOpts()
		require.NoError(t, opts.SetAll(map[string]cty.Value{
			"path":      cty.StringVal("names.csv"),
			"threshold": cty.NumberFloatVal(0.9),
		}))
		path, err := opts.String("path")
		require.NoError(t, err)
		assert.Equal(t, "names.csv", path)
		f, err := opts.Float("threshold")
		require.NoError(t, err)
		assert.InDelta(t, 0.9, f, 1e-9)
	})

	t.Run("unknown key leaves values untouched", func(t *testing.T) {
		opts := newOpts()
		err := opts.SetAll(map[string]cty.Value{
			"path": cty.StringVal("names.csv"),
			"nope": cty.True,
		})
		assert.ErrorIs(t, err, ErrUnknownOption)
		path, err := opts.String("path")
		require.NoError(t, err)
		assert.Empty(t, path)
	})

	t.Run("bad value leaves values untouched", func(t *testing.T) {
		opts := newOpts()
		err := opts.SetAll(map[string]cty.Value{
			"path":      cty.StringVal("names.csv"),
			"threshold": cty.StringVal("high"),
		})
		assert.ErrorIs(t, err, ErrInvalidOption)
		path, err := opts.String("path")
		require.NoError(t, err)
		assert.Empty(t, path)
	})
}
