// Package markov decodes bit lists into text through an order-n Markov model
// whose transitions are binary decision trees.
package markov

import (
	"errors"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/verte-zerg/molishai/internal/tree"
)

// State is a window of the last Order characters.
type State string

// Len returns the number of runes in the state.
func (s State) Len() int {
	return utf8.RuneCountInString(string(s))
}

// Next drops the oldest rune and appends c.
func (s State) Next(c rune) State {
	_, size := utf8.DecodeRuneInString(string(s))
	return State(string(s)[size:] + string(c))
}

// Model pairs a seed tree with a transition tree per known state. It is
// immutable after New and safe for concurrent use.
type Model struct {
	order       int
	seed        tree.Tree[State]
	transitions map[State]tree.Tree[rune]
}

// New builds a model and validates it.
func New(order int, seed tree.Tree[State], transitions map[State]tree.Tree[rune]) (*Model, error) {
	copied := make(map[State]tree.Tree[rune], len(transitions))
	for state, t := range transitions {
		copied[state] = t
	}
	m := &Model{order: order, seed: seed, transitions: copied}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Order returns the state width.
func (m *Model) Order() int {
	return m.order
}

// Seed returns the tree used to pick the initial state.
func (m *Model) Seed() tree.Tree[State] {
	return m.seed
}

// IsKnownState reports whether state has a transition tree.
func (m *Model) IsKnownState(state State) bool {
	_, ok := m.transitions[state]
	return ok
}

// TransitionTreeFor returns the transition tree for state.
func (m *Model) TransitionTreeFor(state State) (tree.Tree[rune], error) {
	t, ok := m.transitions[state]
	if !ok {
		return tree.Tree[rune]{}, &IntegrityError{State: state, Reason: "no transition tree"}
	}
	return t, nil
}

// States returns the known states in sorted order.
func (m *Model) States() []State {
	out := make([]State, 0, len(m.transitions))
	for state := range m.transitions {
		out = append(out, state)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Validate checks that every state reachable from a seed leaf or from any
// known state has a transition tree, that all states are Order runes wide,
// and that no cycle of zero-bit transitions exists.
func (m *Model) Validate() error {
	if m.order < 1 {
		return fmt.Errorf("%w: order must be >= 1, got %d", ErrConfigIntegrity, m.order)
	}
	if !m.seed.Valid() {
		return fmt.Errorf("%w: seed tree is empty", ErrConfigIntegrity)
	}
	var problems []error
	report := func(state State, format string, args ...any) {
		problems = append(problems, &IntegrityError{State: state, Reason: fmt.Sprintf(format, args...)})
	}

	// Seed leaves start the crawl; every known state is also a root so the
	// closure holds for the whole map, not only the seeded part.
	queue := make([]State, 0, len(m.transitions))
	if err := tree.Walk(m.seed, func(_ []bool, s State) bool {
		queue = append(queue, s)
		return true
	}); err != nil {
		return fmt.Errorf("%w: seed tree: %w", ErrConfigIntegrity, err)
	}
	queue = append(queue, m.States()...)

	visited := make(map[State]bool, len(m.transitions))
	for len(queue) > 0 {
		state := queue[0]
		queue = queue[1:]
		if visited[state] {
			continue
		}
		visited[state] = true

		if state.Len() != m.order {
			report(state, "width %d, want %d", state.Len(), m.order)
			continue
		}
		t, ok := m.transitions[state]
		if !ok {
			report(state, "reachable but has no transition tree")
			continue
		}
		if err := tree.Walk(t, func(_ []bool, c rune) bool {
			queue = append(queue, state.Next(c))
			return true
		}); err != nil {
			report(state, "transition tree: %v", err)
		}
	}

	if len(problems) == 0 {
		if state, ok := m.zeroBitCycle(); ok {
			report(state, "cycle of single-leaf transitions never consumes bits")
		}
	}
	return errors.Join(problems...)
}

// zeroBitCycle finds a state that lies on a cycle made only of single-leaf
// transition trees. Generation would never exhaust its bits there.
func (m *Model) zeroBitCycle() (State, bool) {
	const (
		unseen = iota
		onPath
		done
	)
	mark := make(map[State]int)
	for _, start := range m.States() {
		var path []State
		state := start
		for {
			if mark[state] == onPath {
				return state, true
			}
			if mark[state] == done {
				break
			}
			t := m.transitions[state]
			c, ok := t.Value()
			if !ok {
				break
			}
			mark[state] = onPath
			path = append(path, state)
			state = state.Next(c)
		}
		for _, s := range path {
			mark[s] = done
		}
	}
	return "", false
}

// Summary describes the size and shape of a model.
type Summary struct {
	Order              int
	States             int
	SeedLeaves         int
	SeedDepth          int
	MaxTransitionDepth int
	ZeroBitStates      int
}

// Summary computes shape statistics for m.
func (m *Model) Summary() Summary {
	s := Summary{
		Order:      m.order,
		States:     len(m.transitions),
		SeedLeaves: len(tree.Leaves(m.seed)),
		SeedDepth:  tree.Depth(m.seed),
	}
	for _, t := range m.transitions {
		if t.IsLeaf() {
			s.ZeroBitStates++
		}
		if d := tree.Depth(t); d > s.MaxTransitionDepth {
			s.MaxTransitionDepth = d
		}
	}
	return s
}
