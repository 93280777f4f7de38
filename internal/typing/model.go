// Package typing assigns abstract type variables to rule terms and
// enumerates the concrete type assignments consistent with them.
package typing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cexlab/prex/internal/lang"
)

// IntWidths is the sample of integer widths enumerated for otherwise
// unconstrained integer type variables.
var IntWidths = []int{1, 4, 8, 16, 32, 64}

// FloatKinds is the sample of float formats enumerated for float variables.
var FloatKinds = []lang.FloatKind{lang.Single, lang.Double}

type kind int

const (
	kindAny kind = iota
	kindInt
	kindFloat
)

// order records a strict width relation between two integer variables.
type order struct {
	narrow, wide int
}

// Model is the abstract type model of a rule: a set of type variables with
// equality, kind, fixed-type and width-order constraints.
type Model struct {
	terms  map[lang.Term]int
	parent []int
	kinds  []kind
	fixed  []lang.Type // nil unless pinned to a single type
	orders []order
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{terms: make(map[lang.Term]int)}
}

func (m *Model) find(v int) int {
	for m.parent[v] != v {
		m.parent[v] = m.parent[m.parent[v]]
		v = m.parent[v]
	}
	return v
}

func (m *Model) union(a, b int) error {
	ra, rb := m.find(a), m.find(b)
	if ra == rb {
		return nil
	}
	// The older variable stays representative, so type vectors built before a
	// later Extend keep resolving terms through the same roots.
	if ra > rb {
		ra, rb = rb, ra
	}
	if err := m.constrainKind(ra, m.kinds[rb]); err != nil {
		return err
	}
	if m.fixed[rb] != nil {
		if err := m.fix(ra, m.fixed[rb]); err != nil {
			return err
		}
	}
	m.parent[rb] = ra
	return nil
}

func (m *Model) constrainKind(v int, k kind) error {
	v = m.find(v)
	if k == kindAny || m.kinds[v] == k {
		return nil
	}
	if m.kinds[v] != kindAny {
		return fmt.Errorf("typing: conflicting kinds for type variable %d", v)
	}
	m.kinds[v] = k
	return nil
}

func (m *Model) fix(v int, ty lang.Type) error {
	v = m.find(v)
	if m.fixed[v] != nil && m.fixed[v] != ty {
		return fmt.Errorf("typing: type variable %d fixed to both %s and %s", v, m.fixed[v], ty)
	}
	m.fixed[v] = ty
	switch ty.(type) {
	case lang.IntType:
		return m.constrainKind(v, kindInt)
	case lang.FloatType:
		return m.constrainKind(v, kindFloat)
	}
	return nil
}

func (m *Model) varOf(t lang.Term) int {
	if v, ok := m.terms[t]; ok {
		return m.find(v)
	}
	v := len(m.parent)
	m.parent = append(m.parent, v)
	m.kinds = append(m.kinds, kindAny)
	m.fixed = append(m.fixed, nil)
	m.terms[t] = v
	return v
}

// Extend registers t and its subterms, adding their typing constraints.
// It may be called any number of times; shared subterms keep their variables.
func (m *Model) Extend(t lang.Term) error {
	for _, sub := range lang.Subterms(t) {
		if err := m.constrain(sub); err != nil {
			return err
		}
	}
	return nil
}

func (m *Model) constrain(t lang.Term) error {
	switch x := t.(type) {
	case *lang.Input, *lang.Undef:
		m.varOf(t)
	case *lang.Symbol:
		// Symbols stand for literal constants in preconditions; keeping them
		// integer-typed keeps solver models directly usable as test cases.
		return m.constrainKind(m.varOf(t), kindInt)
	case *lang.Literal:
		return m.constrainKind(m.varOf(t), kindInt)
	case *lang.FLiteral:
		return m.constrainKind(m.varOf(t), kindFloat)
	case *lang.BinOp:
		return m.sameInt(t, x.X, x.Y)
	case *lang.ConstBinary:
		return m.sameInt(t, x.X, x.Y)
	case *lang.ConstMax:
		return m.sameInt(t, x.X, x.Y)
	case *lang.ConstUnary:
		return m.sameInt(t, x.X)
	case *lang.WidthOf:
		// the result width is independent of the argument's
		if err := m.constrainKind(m.varOf(x.X), kindInt); err != nil {
			return err
		}
		return m.constrainKind(m.varOf(t), kindInt)
	case *lang.FBinOp:
		if err := m.union(m.varOf(t), m.varOf(x.X)); err != nil {
			return err
		}
		if err := m.union(m.varOf(t), m.varOf(x.Y)); err != nil {
			return err
		}
		return m.constrainKind(m.varOf(t), kindFloat)
	case *lang.Icmp:
		if err := m.union(m.varOf(x.X), m.varOf(x.Y)); err != nil {
			return err
		}
		if err := m.constrainKind(m.varOf(x.X), kindInt); err != nil {
			return err
		}
		return m.fix(m.varOf(t), lang.IntType{Bits: 1})
	case *lang.Fcmp:
		if err := m.union(m.varOf(x.X), m.varOf(x.Y)); err != nil {
			return err
		}
		if err := m.constrainKind(m.varOf(x.X), kindFloat); err != nil {
			return err
		}
		return m.fix(m.varOf(t), lang.IntType{Bits: 1})
	case *lang.Select:
		if err := m.fix(m.varOf(x.Cond), lang.IntType{Bits: 1}); err != nil {
			return err
		}
		return m.same(t, x.X, x.Y)
	case *lang.Conv:
		if err := m.constrainKind(m.varOf(t), kindInt); err != nil {
			return err
		}
		if err := m.constrainKind(m.varOf(x.Arg), kindInt); err != nil {
			return err
		}
		switch x.Op {
		case lang.SExt, lang.ZExt:
			m.orders = append(m.orders, order{narrow: m.varOf(x.Arg), wide: m.varOf(t)})
		case lang.Trunc:
			m.orders = append(m.orders, order{narrow: m.varOf(t), wide: m.varOf(x.Arg)})
		}
	case *lang.Comparison:
		if err := m.union(m.varOf(x.X), m.varOf(x.Y)); err != nil {
			return err
		}
		return m.constrainKind(m.varOf(x.X), kindInt)
	case *lang.FunPred:
		var first int
		for i, a := range x.Args {
			if i == 0 {
				first = m.varOf(a)
				continue
			}
			if err := m.union(first, m.varOf(a)); err != nil {
				return err
			}
		}
		if len(x.Args) > 0 {
			return m.constrainKind(first, kindInt)
		}
	case *lang.AndPred, *lang.OrPred, *lang.NotPred, *lang.TruePred:
		// boolean-sorted, no type variable
	default:
		return fmt.Errorf("typing: unsupported term %T", t)
	}
	return nil
}

func (m *Model) same(t lang.Term, args ...lang.Term) error {
	v := m.varOf(t)
	for _, a := range args {
		if err := m.union(v, m.varOf(a)); err != nil {
			return err
		}
	}
	return nil
}

func (m *Model) sameInt(t lang.Term, args ...lang.Term) error {
	if err := m.same(t, args...); err != nil {
		return err
	}
	return m.constrainKind(m.varOf(t), kindInt)
}

// roots returns the distinct representative variables in first-seen order.
func (m *Model) roots() []int {
	var out []int
	seen := make(map[int]bool)
	for v := range m.parent {
		r := m.find(v)
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

// Vector is one concrete type assignment for the model.
type Vector struct {
	m     *Model
	types map[int]lang.Type
}

// TypeOf returns the concrete type assigned to t.
func (v *Vector) TypeOf(t lang.Term) lang.Type {
	root, ok := v.m.terms[t]
	if !ok {
		panic(fmt.Sprintf("typing: term %s not registered in model", t))
	}
	return v.types[v.m.find(root)]
}

// Key is a canonical string identity for the assignment, usable as a cache key.
func (v *Vector) Key() string {
	roots := v.m.roots()
	parts := make([]string, len(roots))
	for i, r := range roots {
		parts[i] = v.types[r].String()
	}
	return strings.Join(parts, ",")
}

func (v *Vector) String() string { return "[" + v.Key() + "]" }

// VectorIter enumerates type vectors in a deterministic order. Each call to
// Model.Vectors returns a fresh, independent iterator.
type VectorIter struct {
	m       *Model
	roots   []int
	cands   [][]lang.Type
	indices []int
	done    bool
}

// Vectors returns an iterator over all type assignments satisfying the
// model's constraints.
func (m *Model) Vectors() *VectorIter {
	roots := m.roots()
	it := &VectorIter{m: m, roots: roots, indices: make([]int, len(roots))}
	for _, r := range roots {
		var cand []lang.Type
		switch {
		case m.fixed[r] != nil:
			cand = []lang.Type{m.fixed[r]}
		case m.kinds[r] == kindFloat:
			for _, k := range FloatKinds {
				cand = append(cand, lang.FloatType{Kind: k})
			}
		default:
			for _, w := range IntWidths {
				cand = append(cand, lang.IntType{Bits: w})
			}
		}
		it.cands = append(it.cands, cand)
	}
	if len(roots) == 0 {
		// a rule with no typed terms still has the one empty assignment
		it.cands = nil
	}
	return it
}

// Next returns the next type vector, or ok=false when exhausted.
func (it *VectorIter) Next() (*Vector, bool) {
	for {
		if it.done {
			return nil, false
		}
		v := it.current()
		it.advance()
		if it.m.ordersHold(v) {
			return v, true
		}
	}
}

func (it *VectorIter) current() *Vector {
	types := make(map[int]lang.Type, len(it.roots))
	for i, r := range it.roots {
		types[r] = it.cands[i][it.indices[i]]
	}
	return &Vector{m: it.m, types: types}
}

func (it *VectorIter) advance() {
	for i := len(it.indices) - 1; i >= 0; i-- {
		it.indices[i]++
		if it.indices[i] < len(it.cands[i]) {
			return
		}
		it.indices[i] = 0
	}
	it.done = true
}

func (m *Model) ordersHold(v *Vector) bool {
	for _, o := range m.orders {
		n, nok := v.types[m.find(o.narrow)].(lang.IntType)
		w, wok := v.types[m.find(o.wide)].(lang.IntType)
		if !nok || !wok || n.Bits >= w.Bits {
			return false
		}
	}
	return true
}

// SymbolVars groups the given symbols by their representative type variable.
// The map keys are representative ids; iteration helpers sort them for
// deterministic behavior.
func (m *Model) SymbolVars(symbols []*lang.Symbol) map[int][]*lang.Symbol {
	out := make(map[int][]*lang.Symbol)
	for _, s := range symbols {
		r := m.find(m.terms[s])
		out[r] = append(out[r], s)
	}
	return out
}

// SortedVars returns the keys of a SymbolVars map in ascending order.
func SortedVars(groups map[int][]*lang.Symbol) []int {
	keys := make([]int, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
