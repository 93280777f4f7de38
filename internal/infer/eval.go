package infer

import (
	"fmt"

	"github.com/cexlab/prex/internal/lang"
	"github.com/cexlab/prex/internal/smt"
	"github.com/cexlab/prex/internal/translate"
	"github.com/cexlab/prex/internal/typing"
)

// Outcome is the three-valued result of evaluating a feature on a test case.
// Reject and Accept are definite truth values; Unsafe means evaluating the
// feature itself is undefined for the case, such as dividing by a symbol
// bound to zero.
type Outcome int

const (
	Reject Outcome = iota
	Accept
	Unsafe
)

func (o Outcome) String() string {
	switch o {
	case Reject:
		return "reject"
	case Accept:
		return "accept"
	case Unsafe:
		return "unsafe"
	}
	return "?"
}

type featureSMT struct {
	safe  []smt.Expr
	value smt.Expr
}

// Feature is a candidate predicate plus its per-assignment translation cache.
// Features are append-only: once accepted into the feature list they are
// referenced by index and never removed.
type Feature struct {
	Pred  lang.Pred
	cache map[string]*featureSMT
}

// newFeature registers the predicate's terms in the type model and wraps it
// with an empty translation cache.
func newFeature(pred lang.Pred, model *typing.Model) (*Feature, error) {
	if err := model.Extend(pred); err != nil {
		return nil, fmt.Errorf("infer: feature %s: %w", pred, err)
	}
	return &Feature{Pred: pred, cache: make(map[string]*featureSMT)}, nil
}

func (f *Feature) translation(vec *typing.Vector, prof *translate.Profile) *featureSMT {
	key := vec.Key()
	if s, ok := f.cache[key]; ok {
		return s
	}
	res := translate.New(vec, prof).Translate(f.Pred)
	if len(res.Defined) > 0 || len(res.Nonpoison) > 0 || len(res.QVars) > 0 {
		panic(fmt.Sprintf("infer: feature %s translated with instruction side conditions", f.Pred))
	}
	s := &featureSMT{safe: res.Safe, value: res.Value}
	f.cache[key] = s
	return s
}

// eval decides the feature's outcome on one concrete test case by
// substituting the case's bindings and constant-folding. Features mention
// only symbols, so folding always reaches a literal.
func (f *Feature) eval(tc *TestCase, prof *translate.Profile) Outcome {
	tr := f.translation(tc.Vec, prof)

	for _, s := range tr.safe {
		if smt.IsFalse(smt.Fold(smt.Substitute(s, tc.Values))) {
			return Unsafe
		}
	}

	v := smt.Fold(smt.Substitute(tr.value, tc.Values))
	switch {
	case smt.IsTrue(v):
		return Accept
	case smt.IsFalse(v):
		return Reject
	}
	panic(fmt.Sprintf("infer: feature %s did not fold to a constant on %s", f.Pred, tc))
}
