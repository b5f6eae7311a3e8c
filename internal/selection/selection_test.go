package selection

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newState(t *testing.T, groups map[string]int) *State {
	t.Helper()
	s := New()
	for label, n := range groups {
		require.NoError(t, s.AddGroup(label, n))
	}
	return s
}

func conjunction(bits []bool) bool {
	for _, b := range bits[1:] {
		if !b {
			return false
		}
	}
	return true
}

func TestToggle_GroupBit(t *testing.T) {
	s := newState(t, map[string]int{"Jaro-Winkler": 3})

	require.NoError(t, s.Toggle("Jaro-Winkler", 0))
	bits, _ := s.Group("Jaro-Winkler")
	assert.Equal(t, []bool{true, true, true, true}, bits)

	require.NoError(t, s.Toggle("Jaro-Winkler", 0))
	bits, _ = s.Group("Jaro-Winkler")
	assert.Equal(t, []bool{false, false, false, false}, bits)
}

func TestToggle_MemberBit(t *testing.T) {
	testCases := []struct {
		name    string
		toggles []int
		want    []bool
	}{
		{"single member", []int{1}, []bool{false, true, false}},
		{"all members selects group", []int{1, 2}, []bool{true, true, true}},
		{"clearing one member clears group", []int{0, 2}, []bool{false, true, false}},
		{"member flip is its own inverse", []int{2, 2}, []bool{false, false, false}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newState(t, map[string]int{"g": 2})
			for _, idx := range tc.toggles {
				require.NoError(t, s.Toggle("g", idx))
			}
			bits, _ := s.Group("g")
			assert.Equal(t, tc.want, bits)
		})
	}
}

func TestToggle_GroupTwiceIsIdempotent(t *testing.T) {
	s := newState(t, map[string]int{"g": 4})
	require.NoError(t, s.Toggle("g", 2))
	require.NoError(t, s.Toggle("g", 4))
	before, _ := s.Group("g")

	require.NoError(t, s.Toggle("g", 0))
	require.NoError(t, s.Toggle("g", 0))
	after, _ := s.Group("g")

	// A partial selection is wiped by the broadcast; two broadcasts from an
	// unset group bit end with every member cleared, matching the group bit.
	assert.False(t, before[0])
	assert.Equal(t, []bool{false, false, false, false, false}, after)

	// From a uniform state two group toggles restore it exactly.
	require.NoError(t, s.Toggle("g", 0))
	uniform, _ := s.Group("g")
	require.NoError(t, s.Toggle("g", 0))
	require.NoError(t, s.Toggle("g", 0))
	again, _ := s.Group("g")
	assert.Equal(t, uniform, again)
}

func TestToggle_InvariantHoldsForRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	groups := map[string]int{"a": 1, "b": 3, "c": 6}
	labels := []string{"a", "b", "c"}

	for run := 0; run < 200; run++ {
		s := newState(t, groups)
		for step := 0; step < 50; step++ {
			label := labels[rng.Intn(len(labels))]
			idx := rng.Intn(groups[label] + 1)
			require.NoError(t, s.Toggle(label, idx))

			for _, l := range labels {
				bits, _ := s.Group(l)
				require.Equal(t, conjunction(bits), bits[0], "run %d step %d group %s: %v", run, step, l, bits)
			}
		}
	}
}

func TestToggle_Errors(t *testing.T) {
	s := newState(t, map[string]int{"g": 2})

	assert.ErrorIs(t, s.Toggle("missing", 0), ErrUnknownGroup)
	assert.ErrorIs(t, s.Toggle("g", 3), ErrIndexOutOfRange)
	assert.ErrorIs(t, s.Toggle("g", -1), ErrIndexOutOfRange)
	assert.ErrorIs(t, s.AddGroup("empty", 0), ErrEmptyGroup)

	bits, _ := s.Group("g")
	assert.Equal(t, []bool{false, false, false}, bits, "failed toggles leave state unchanged")
}

func TestAddGroup_KeepsExistingChoices(t *testing.T) {
	s := newState(t, map[string]int{"g": 2})
	require.NoError(t, s.Toggle("g", 1))

	require.NoError(t, s.AddGroup("g", 2))
	require.NoError(t, s.AddGroup("h", 1))

	assert.True(t, s.IsSelected("g", 1))
	assert.Equal(t, []int{1}, s.Selected("g"))
	assert.Equal(t, []string{"g", "h"}, s.Groups())
}

func TestSet(t *testing.T) {
	s := newState(t, map[string]int{"g": 2})

	require.NoError(t, s.Set("g", 1, true))
	require.NoError(t, s.Set("g", 1, true))
	assert.Equal(t, []int{1}, s.Selected("g"))

	require.NoError(t, s.Set("g", 0, true))
	assert.Equal(t, []int{1, 2}, s.Selected("g"))

	assert.ErrorIs(t, s.Set("missing", 1, false), ErrUnknownGroup)

	for _, v := range []bool{false, true} {
		assert.ErrorIs(t, s.Set("g", 99, v), ErrIndexOutOfRange, "set to %v", v)
		assert.ErrorIs(t, s.Set("g", -1, v), ErrIndexOutOfRange, "set to %v", v)
	}
	assert.Equal(t, []int{1, 2}, s.Selected("g"))
}
