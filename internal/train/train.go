// Package train builds Markov models from text.
package train

import (
	"container/heap"
	"fmt"
	"sort"

	"github.com/verte-zerg/molishai/internal/corpus"
	"github.com/verte-zerg/molishai/internal/markov"
	"github.com/verte-zerg/molishai/internal/tree"
)

// DefaultOrder is the state width used by the reference model.
const DefaultOrder = 2

// Counts holds successor frequencies per state and the frequency of each
// state across the corpus.
type Counts struct {
	Order      int
	States     map[markov.State]int
	Successors map[markov.State]map[rune]int
}

// Count treats text as a ring and counts every order-wide window together
// with the rune that follows it. Wrapping keeps the model closed: every
// state that can be produced also has successors.
func Count(text string, order int) (Counts, error) {
	if order < 1 {
		return Counts{}, fmt.Errorf("order must be >= 1, got %d", order)
	}
	runes := []rune(text)
	if len(runes) <= order {
		return Counts{}, fmt.Errorf("corpus has %d characters, need more than %d", len(runes), order)
	}
	ring := append(append([]rune{}, runes...), runes[:order]...)
	c := Counts{
		Order:      order,
		States:     make(map[markov.State]int),
		Successors: make(map[markov.State]map[rune]int),
	}
	for i := range runes {
		state := markov.State(ring[i : i+order])
		next := ring[i+order]
		c.States[state]++
		succ, ok := c.Successors[state]
		if !ok {
			succ = make(map[rune]int)
			c.Successors[state] = succ
		}
		succ[next]++
	}
	return c, nil
}

// Train counts text and builds a validated model with one Huffman tree per
// state and a Huffman seed tree over state frequencies.
func Train(text string, order int) (*markov.Model, error) {
	counts, err := Count(text, order)
	if err != nil {
		return nil, err
	}
	return Build(counts)
}

// TrainWeighted trains on a word list where each word repeats by weight.
func TrainWeighted(words []corpus.Word, order int) (*markov.Model, error) {
	return Train(corpus.FromWords(words), order)
}

// Build turns counts into a model.
func Build(c Counts) (*markov.Model, error) {
	transitions := make(map[markov.State]tree.Tree[rune], len(c.Successors))
	for state, succ := range c.Successors {
		t, err := Huffman(succ, func(a, b rune) bool { return a < b })
		if err != nil {
			return nil, fmt.Errorf("state %q: %w", state, err)
		}
		transitions[state] = t
	}
	seed, err := Huffman(c.States, func(a, b markov.State) bool { return a < b })
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	return markov.New(c.Order, seed, transitions)
}

// Huffman builds a code tree from symbol weights. The heavier subtree of
// every merge goes on the a side, so decoding with starved bits falls to
// likelier symbols. Ties resolve by symbol order, then by merge order.
func Huffman[T comparable](weights map[T]int, less func(a, b T) bool) (tree.Tree[T], error) {
	if len(weights) == 0 {
		return tree.Tree[T]{}, fmt.Errorf("no symbols")
	}
	symbols := make([]T, 0, len(weights))
	for sym, w := range weights {
		if w <= 0 {
			return tree.Tree[T]{}, fmt.Errorf("symbol %v has weight %d", sym, w)
		}
		symbols = append(symbols, sym)
	}
	sort.Slice(symbols, func(i, j int) bool { return less(symbols[i], symbols[j]) })

	h := make(nodeHeap[T], 0, len(symbols))
	for i, sym := range symbols {
		h = append(h, weighted[T]{weight: weights[sym], seq: i, tree: tree.Leaf(sym)})
	}
	heap.Init(&h)
	seq := len(symbols)
	for h.Len() > 1 {
		light := heap.Pop(&h).(weighted[T])
		heavy := heap.Pop(&h).(weighted[T])
		heap.Push(&h, weighted[T]{
			weight: light.weight + heavy.weight,
			seq:    seq,
			tree:   tree.Branch(heavy.tree, light.tree),
		})
		seq++
	}
	return h[0].tree, nil
}

type weighted[T any] struct {
	weight int
	seq    int
	tree   tree.Tree[T]
}

type nodeHeap[T any] []weighted[T]

func (h nodeHeap[T]) Len() int { return len(h) }

func (h nodeHeap[T]) Less(i, j int) bool {
	if h[i].weight == h[j].weight {
		return h[i].seq < h[j].seq
	}
	return h[i].weight < h[j].weight
}

func (h nodeHeap[T]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *nodeHeap[T]) Push(x any) { *h = append(*h, x.(weighted[T])) }

func (h *nodeHeap[T]) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
