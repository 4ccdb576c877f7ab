// Package tree provides finite binary decision trees used as bit decoders.
package tree

import "fmt"

// Tree is either a leaf holding a value or a branch with exactly two
// children. The zero value is not a valid tree.
type Tree[T any] struct {
	leaf  bool
	value T
	a, b  *Tree[T]
}

// Leaf returns a tree consisting of a single leaf.
func Leaf[T any](v T) Tree[T] {
	return Tree[T]{leaf: true, value: v}
}

// Branch returns a tree whose children are a (selected by a one bit) and b
// (selected by a zero bit).
func Branch[T any](a, b Tree[T]) Tree[T] {
	return Tree[T]{a: &a, b: &b}
}

// IsLeaf reports whether t is a leaf.
func (t Tree[T]) IsLeaf() bool {
	return t.leaf
}

// Valid reports whether t is a leaf or a branch with two children.
func (t Tree[T]) Valid() bool {
	return t.leaf || (t.a != nil && t.b != nil)
}

// Value returns the leaf value. ok is false for branches.
func (t Tree[T]) Value() (v T, ok bool) {
	if !t.leaf {
		return v, false
	}
	return t.value, true
}

// Children returns the a and b subtrees. ok is false for leaves.
func (t Tree[T]) Children() (a, b Tree[T], ok bool) {
	if t.leaf || t.a == nil || t.b == nil {
		return a, b, false
	}
	return *t.a, *t.b, true
}

// Traverse walks from the root to a leaf, consuming one bit per branch:
// true selects a, false selects b. Once bits run out every remaining
// branch takes a without consuming anything, so traversal always ends at a
// leaf. It returns the leaf value and the unconsumed suffix of bits.
func Traverse[T any](t Tree[T], bits []bool) (T, []bool) {
	node := &t
	for !node.leaf {
		if node.a == nil || node.b == nil {
			panic(fmt.Sprintf("tree: traverse of invalid %T node", t))
		}
		switch {
		case len(bits) == 0:
			node = node.a
		case bits[0]:
			node = node.a
			bits = bits[1:]
		default:
			node = node.b
			bits = bits[1:]
		}
	}
	return node.value, bits
}

// Walk visits every leaf in a-before-b order together with the path of bits
// that selects it. Walk stops early when fn returns false. It reports an
// error if an invalid node is reached.
func Walk[T any](t Tree[T], fn func(path []bool, v T) bool) error {
	type frame struct {
		node *Tree[T]
		path []bool
	}
	stack := []frame{{node: &t}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.node.leaf {
			if !fn(top.path, top.node.value) {
				return nil
			}
			continue
		}
		if top.node.a == nil || top.node.b == nil {
			return fmt.Errorf("invalid node at path %s", pathString(top.path))
		}
		stack = append(stack,
			frame{node: top.node.b, path: extend(top.path, false)},
			frame{node: top.node.a, path: extend(top.path, true)},
		)
	}
	return nil
}

// Leaves returns all leaf values in a-before-b order.
func Leaves[T any](t Tree[T]) []T {
	var out []T
	_ = Walk(t, func(_ []bool, v T) bool {
		out = append(out, v)
		return true
	})
	return out
}

// Depth returns the length of the longest root-to-leaf path.
func Depth[T any](t Tree[T]) int {
	depth := 0
	_ = Walk(t, func(path []bool, _ T) bool {
		if len(path) > depth {
			depth = len(path)
		}
		return true
	})
	return depth
}

func extend(path []bool, bit bool) []bool {
	out := make([]bool, len(path)+1)
	copy(out, path)
	out[len(path)] = bit
	return out
}

func pathString(path []bool) string {
	if len(path) == 0 {
		return "<root>"
	}
	buf := make([]byte, len(path))
	for i, bit := range path {
		if bit {
			buf[i] = 'a'
		} else {
			buf[i] = 'b'
		}
	}
	return string(buf)
}
