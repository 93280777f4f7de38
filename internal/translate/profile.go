package translate

import (
	"fmt"
	"sort"

	"github.com/cexlab/prex/internal/lang"
	"github.com/cexlab/prex/internal/smt"
)

// Profile selects a semantics variant. Variants differ in the poison
// conditions of shl and in how fast-math flags are modeled.
type Profile struct {
	Name string

	// shlPoisons overrides the nonpoison conditions for shl when non-nil.
	shlPoisons []poisonCond

	// floatBin translates a floating-point instruction including its
	// fast-math flags.
	floatBin func(t *Translator, term *lang.FBinOp) smt.Expr
}

var profiles = map[string]*Profile{}

func register(p *Profile) *Profile {
	profiles[p.Name] = p
	return p
}

// Lookup returns the named profile.
func Lookup(name string) (*Profile, error) {
	if p, ok := profiles[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("translate: unknown semantics profile %q", name)
}

// ProfileNames returns the registered profile names, sorted.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Default models nnan and ninf flags as definedness conditions and nsz as a
// nondeterministic sign on zero results.
var Default = register(&Profile{
	Name:     "default",
	floatBin: defaultFloatBin,
})

// NewShl additionally permits shifting 1 into the sign bit under nsw.
var NewShl = register(&Profile{
	Name: "newshl",
	shlPoisons: []poisonCond{
		{lang.NSW, func(x, y smt.Expr) smt.Expr {
			w := width(x)
			return smt.MkOr([]smt.Expr{
				eq(bin(lang.AShr, bin(lang.Shl, x, y), y), x),
				smt.MkAnd([]smt.Expr{
					eq(x, smt.BV(1, w)),
					eq(y, smt.BV(uint64(w-1), w)),
				}),
			})
		}},
		{lang.NUW, func(x, y smt.Expr) smt.Expr {
			return eq(bin(lang.LShr, bin(lang.Shl, x, y), y), x)
		}},
	},
	floatBin: defaultFloatBin,
})

// FastMathUndef yields an unconstrained value, rather than undefined
// behavior, when a fast-math flag is violated.
var FastMathUndef = register(&Profile{
	Name:     "fastmathundef",
	floatBin: fastMathUndefFloatBin,
})

// OldNSZ models nsz as a constraint that neither operand is negative zero.
var OldNSZ = register(&Profile{
	Name:     "oldnsz",
	floatBin: oldNSZFloatBin,
})

// BrokenNSZ reproduces a historical nsz encoding that constrained a
// quantified variable through a definedness condition.
var BrokenNSZ = register(&Profile{
	Name:     "brokennsz",
	floatBin: brokenNSZFloatBin,
})

func (t *Translator) fmtOf(term lang.Term) lang.FloatKind {
	return t.typeOf(term).(lang.FloatType).Kind
}

func fastMathConds(term *lang.FBinOp, x, y, z smt.Expr) []smt.Expr {
	var conds []smt.Expr
	if term.Flags.Has(lang.NNaN) {
		conds = append(conds, notNaN(x), notNaN(y), notNaN(z))
	}
	if term.Flags.Has(lang.NInf) {
		conds = append(conds, notInf(x), notInf(y), notInf(z))
	}
	return conds
}

func defaultFloatBin(t *Translator, term *lang.FBinOp) smt.Expr {
	x := t.eval(term.X)
	y := t.eval(term.Y)
	z := fbin(term.Op, x, y)

	t.addDefs(fastMathConds(term, x, y, z)...)

	if term.Flags.Has(lang.NSZ) {
		f := t.fmtOf(term)
		b := t.freshBool()
		t.addQVar(b)
		return ite(fpEQ(z, fpZero(f)), ite(b, fpZero(f), fpMinusZero(f)), z)
	}

	return z
}

func fastMathUndefFloatBin(t *Translator, term *lang.FBinOp) smt.Expr {
	x := t.eval(term.X)
	y := t.eval(term.Y)
	z := fbin(term.Op, x, y)

	conds := fastMathConds(term, x, y, z)

	if term.Flags.Has(lang.NSZ) {
		f := t.fmtOf(term)
		b := t.freshBool()
		t.addQVar(b)
		z = ite(fpEQ(z, fpZero(f)), ite(b, fpZero(f), fpMinusZero(f)), z)
	}

	if len(conds) > 0 {
		f := t.fmtOf(term)
		q := t.freshVar(smt.FloatSort(f), "undef_")
		t.addQVar(q)
		return ite(smt.MkAnd(conds), z, q)
	}

	return z
}

func oldNSZFloatBin(t *Translator, term *lang.FBinOp) smt.Expr {
	x := t.eval(term.X)
	y := t.eval(term.Y)
	z := fbin(term.Op, x, y)

	t.addDefs(fastMathConds(term, x, y, z)...)

	if term.Flags.Has(lang.NSZ) {
		nz := fpMinusZero(t.fmtOf(term))
		t.addDefs(ne(x, nz), ne(y, nz))
	}

	return z
}

func brokenNSZFloatBin(t *Translator, term *lang.FBinOp) smt.Expr {
	x := t.eval(term.X)
	y := t.eval(term.Y)
	z := fbin(term.Op, x, y)

	t.addDefs(fastMathConds(term, x, y, z)...)

	if term.Flags.Has(lang.NSZ) {
		f := t.fmtOf(term)
		q := t.freshVar(smt.FloatSort(f), "undef_")
		t.addQVar(q)
		t.addDefs(fpEQ(q, fpZero(f)))
		return ite(fpEQ(z, fpZero(f)), q, z)
	}

	return z
}
