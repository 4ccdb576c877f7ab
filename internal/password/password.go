// Package password draws random bits and decodes them into passwords.
package password

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/verte-zerg/molishai/internal/bits"
	"github.com/verte-zerg/molishai/internal/markov"
	"github.com/verte-zerg/molishai/internal/model"
)

// Result is one generated password together with the bits that produced it.
type Result struct {
	Password string
	Bits     bits.Bits
	Symbols  []markov.Symbol
}

// Hex renders the source bits for display.
func (r Result) Hex() string {
	return bits.ToHex(r.Bits)
}

// Entropy returns the number of bits spent on the password.
func (r Result) Entropy() int {
	return markov.Entropy(r.Symbols)
}

// Histogram maps bits spent per symbol to the number of symbols.
func (r Result) Histogram() map[int]int {
	out := make(map[int]int)
	for _, s := range r.Symbols {
		out[s.Bits]++
	}
	return out
}

// Record builds the secret-free audit entry for r.
func (r Result) Record(modelName string, at time.Time) model.GenerationRecord {
	return model.GenerationRecord{
		GeneratedAt:   at,
		ModelName:     modelName,
		RequestedBits: len(r.Bits),
		SymbolCount:   len(r.Symbols),
		PasswordRunes: utf8.RuneCountInString(r.Password),
		BitHistogram:  r.Histogram(),
	}
}

// Wipe clears the bits and symbols. The password string itself is immutable
// and is left to the garbage collector.
func (r *Result) Wipe() {
	r.Bits.Wipe()
	for i := range r.Symbols {
		r.Symbols[i] = markov.Symbol{}
	}
}

// Observer is notified of every generated result.
type Observer func(Result)

// Option configures a Generator.
type Option func(*Generator)

// WithObserver adds an observer.
func WithObserver(o Observer) Option {
	return func(g *Generator) {
		g.observers = append(g.observers, o)
	}
}

// Generator pairs a bit source with a model. It is safe for concurrent use
// when the source is.
type Generator struct {
	src       bits.Source
	model     *markov.Model
	observers []Observer
}

// New returns a generator reading from src and decoding with m.
func New(src bits.Source, m *markov.Model, opts ...Option) *Generator {
	g := &Generator{src: src, model: m}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate draws numBits random bits and decodes them. Source and model
// faults propagate unchanged.
func (g *Generator) Generate(numBits int) (Result, error) {
	in, err := g.src.Bits(numBits)
	if err != nil {
		return Result{}, err
	}
	seq, err := markov.Generate(g.model, in)
	if err != nil {
		in.Wipe()
		return Result{}, err
	}
	res := Result{Password: markov.Assemble(seq), Bits: in, Symbols: seq}
	for _, o := range g.observers {
		o(res)
	}
	return res, nil
}

// Rows generates count independent passwords of numBits each.
func (g *Generator) Rows(numBits, count int) ([]Result, error) {
	if count < 0 {
		return nil, fmt.Errorf("negative row count %d", count)
	}
	out := make([]Result, 0, count)
	for i := 0; i < count; i++ {
		res, err := g.Generate(numBits)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out = append(out, res)
	}
	return out, nil
}
