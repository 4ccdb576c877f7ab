// Package modelfile reads and writes Markov models as YAML.
//
// A model document has three keys:
//
//	order: 2
//	seed: {a: "th", b: {a: "e ", b: "an"}}
//	transitions:
//	  "th": {a: "e", b: "a"}
//
// A tree is either a scalar (a leaf) or a mapping with exactly the keys a and
// b. A one bit selects a and a zero bit selects b.
package modelfile

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sync"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/molishai/internal/markov"
	"github.com/verte-zerg/molishai/internal/tree"
)

// ReferenceName labels the embedded model in output and audit records.
const ReferenceName = "reference"

//go:embed reference.yaml
var referenceYAML []byte

var reference = sync.OnceValues(func() (*markov.Model, error) {
	return Decode(bytes.NewReader(referenceYAML))
})

type document struct {
	Order       int                  `yaml:"order"`
	Seed        yaml.Node            `yaml:"seed"`
	Transitions map[string]yaml.Node `yaml:"transitions"`
}

// Reference returns the embedded reference model. It is parsed once and
// shared.
func Reference() (*markov.Model, error) {
	return reference()
}

// Load reads a model from path. An empty path selects the reference model.
func Load(path string) (*markov.Model, error) {
	if path == "" {
		return Reference()
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()
	m, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Decode parses and validates a model document.
func Decode(r io.Reader) (*markov.Model, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if doc.Order < 1 {
		return nil, fmt.Errorf("model order must be >= 1, got %d", doc.Order)
	}
	if doc.Seed.Kind == 0 {
		return nil, fmt.Errorf("model has no seed tree")
	}
	seed, err := decodeTree(&doc.Seed, func(s string) (markov.State, error) {
		if n := utf8.RuneCountInString(s); n != doc.Order {
			return "", fmt.Errorf("seed state %q has %d runes, want %d", s, n, doc.Order)
		}
		return markov.State(s), nil
	})
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}

	transitions := make(map[markov.State]tree.Tree[rune], len(doc.Transitions))
	for key, node := range doc.Transitions {
		node := node
		t, err := decodeTree(&node, decodeChar)
		if err != nil {
			return nil, fmt.Errorf("transitions[%q]: %w", key, err)
		}
		transitions[markov.State(key)] = t
	}
	return markov.New(doc.Order, seed, transitions)
}

// Save writes m to path, replacing any existing file atomically.
func Save(path string, m *markov.Model) error {
	var buf bytes.Buffer
	if err := Encode(&buf, m); err != nil {
		return err
	}
	return writeFileAtomic(path, buf.Bytes())
}

// Encode writes m as a YAML document with flow-style trees and sorted states.
func Encode(w io.Writer, m *markov.Model) error {
	seed, err := encodeTree(m.Seed(), func(s markov.State) string { return string(s) })
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	transitions := &yaml.Node{Kind: yaml.MappingNode}
	for _, state := range m.States() {
		t, err := m.TransitionTreeFor(state)
		if err != nil {
			return err
		}
		value, err := encodeTree(t, func(c rune) string { return string(c) })
		if err != nil {
			return fmt.Errorf("transitions[%q]: %w", state, err)
		}
		transitions.Content = append(transitions.Content, quoted(string(state)), value)
	}
	root := &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			plain("order"), {Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprint(m.Order())},
			plain("seed"), seed,
			plain("transitions"), transitions,
		},
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return enc.Close()
}

func decodeChar(s string) (rune, error) {
	c, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) || c == utf8.RuneError {
		return 0, fmt.Errorf("transition leaf %q is not a single character", s)
	}
	return c, nil
}

func decodeTree[T any](n *yaml.Node, leaf func(string) (T, error)) (tree.Tree[T], error) {
	if n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	switch n.Kind {
	case yaml.ScalarNode:
		v, err := leaf(n.Value)
		if err != nil {
			return tree.Tree[T]{}, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return tree.Leaf(v), nil
	case yaml.MappingNode:
		var a, b *yaml.Node
		for i := 0; i+1 < len(n.Content); i += 2 {
			switch key := n.Content[i].Value; key {
			case "a":
				a = n.Content[i+1]
			case "b":
				b = n.Content[i+1]
			default:
				return tree.Tree[T]{}, fmt.Errorf("line %d: unexpected branch key %q", n.Content[i].Line, key)
			}
		}
		if a == nil || b == nil {
			return tree.Tree[T]{}, fmt.Errorf("line %d: branch needs both a and b", n.Line)
		}
		ta, err := decodeTree(a, leaf)
		if err != nil {
			return tree.Tree[T]{}, err
		}
		tb, err := decodeTree(b, leaf)
		if err != nil {
			return tree.Tree[T]{}, err
		}
		return tree.Branch(ta, tb), nil
	default:
		return tree.Tree[T]{}, fmt.Errorf("line %d: tree node must be a scalar or an {a, b} mapping", n.Line)
	}
}

func encodeTree[T any](t tree.Tree[T], label func(T) string) (*yaml.Node, error) {
	if v, ok := t.Value(); ok {
		return quoted(label(v)), nil
	}
	a, b, ok := t.Children()
	if !ok {
		return nil, fmt.Errorf("invalid tree node")
	}
	na, err := encodeTree(a, label)
	if err != nil {
		return nil, err
	}
	nb, err := encodeTree(b, label)
	if err != nil {
		return nil, err
	}
	return &yaml.Node{
		Kind:    yaml.MappingNode,
		Style:   yaml.FlowStyle,
		Content: []*yaml.Node{plain("a"), na, plain("b"), nb},
	}, nil
}

func plain(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func quoted(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Style: yaml.DoubleQuotedStyle, Value: s}
}
