// Package selection implements the tri-state "select all" checkbox law used
// to choose which detectors a batch step runs.
//
// Each group is a slice of booleans sized members+1. Index 0 is the group bit
// and indexes 1..N are the member bits. After every Toggle the group bit equals
// the conjunction of the member bits. Toggling the group bit broadcasts its new
// value to every member; it never leaves a partial update behind.
package selection

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownGroup is returned for a group label that was never added.
	ErrUnknownGroup = errors.New("unknown selection group")
	// ErrIndexOutOfRange is returned for an index outside 0..members.
	ErrIndexOutOfRange = errors.New("selection index out of range")
	// ErrEmptyGroup is returned when adding a group without members.
	ErrEmptyGroup = errors.New("selection group needs at least one member")
)

// State holds the selection bits of every group of one batch step.
type State struct {
	order  []string
	groups map[string][]bool
}

// New returns an empty selection state.
func New() *State {
	return &State{groups: make(map[string][]bool)}
}

// AddGroup registers a group with all bits cleared. Adding an existing group
// is a no-op, so previously made choices survive.
func (s *State) AddGroup(label string, members int) error {
	if members < 1 {
		return fmt.Errorf("%w: %q", ErrEmptyGroup, label)
	}
	if _, ok := s.groups[label]; ok {
		return nil
	}
	s.groups[label] = make([]bool, members+1)
	s.order = append(s.order, label)
	return nil
}

// Toggle flips one bit and restores the group invariant.
func (s *State) Toggle(label string, index int) error {
	bits, ok := s.groups[label]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownGroup, label)
	}
	if index < 0 || index >= len(bits) {
		return fmt.Errorf("%w: %q[%d], group has %d members", ErrIndexOutOfRange, label, index, len(bits)-1)
	}

	if index == 0 {
		v := !bits[0]
		for i := range bits {
			bits[i] = v
		}
		return nil
	}

	bits[index] = !bits[index]
	all := true
	for _, b := range bits[1:] {
		if !b {
			all = false
			break
		}
	}
	bits[0] = all
	return nil
}

// Set drives a bit to v, toggling only when it differs.
func (s *State) Set(label string, index int, v bool) error {
	bits, ok := s.groups[label]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownGroup, label)
	}
	if index < 0 || index >= len(bits) {
		return fmt.Errorf("%w: %q[%d], group has %d members", ErrIndexOutOfRange, label, index, len(bits)-1)
	}
	if bits[index] == v {
		return nil
	}
	return s.Toggle(label, index)
}

// IsSelected reports one bit. Unknown groups and indexes read as false.
func (s *State) IsSelected(label string, index int) bool {
	bits, ok := s.groups[label]
	if !ok || index < 0 || index >= len(bits) {
		return false
	}
	return bits[index]
}

// Group returns a copy of the bits of a group.
func (s *State) Group(label string) ([]bool, bool) {
	bits, ok := s.groups[label]
	if !ok {
		return nil, false
	}
	out := make([]bool, len(bits))
	copy(out, bits)
	return out, true
}

// Groups returns the group labels in the order they were added.
func (s *State) Groups() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Selected returns the 1-based member indexes that are set in a group.
func (s *State) Selected(label string) []int {
	var out []int
	for i, b := range s.groups[label] {
		if i > 0 && b {
			out = append(out, i)
		}
	}
	return out
}
