// Package translate lowers rule terms and predicates into bounded SMT
// formulas under a concrete type assignment. Each translation carries four
// side-condition lists alongside the value: safety conditions (the analysis
// itself may be evaluated), definedness conditions (the instruction has a
// defined result), nonpoison conditions (the result is not poison), and
// quantified variables introduced for undef values.
package translate

import (
	"fmt"
	"math"

	"github.com/cexlab/prex/internal/lang"
	"github.com/cexlab/prex/internal/smt"
	"github.com/cexlab/prex/internal/typing"
)

// Result is the outcome of translating one term.
type Result struct {
	Value     smt.Expr
	Safe      []smt.Expr
	Defined   []smt.Expr
	Nonpoison []smt.Expr
	QVars     []*smt.Var
}

// Translator translates terms of a single rule under one type assignment.
// Fresh variables are unique across calls to the same Translator.
type Translator struct {
	vec  *typing.Vector
	prof *Profile

	fresh int
	safe  []smt.Expr
	defs  []smt.Expr
	nops  []smt.Expr
	qvars []*smt.Var
}

func New(vec *typing.Vector, prof *Profile) *Translator {
	if prof == nil {
		prof = Default
	}
	return &Translator{vec: vec, prof: prof}
}

// Translate clears the side-condition state, translates term and returns the
// value together with the conditions its subterms accumulated.
func (t *Translator) Translate(term lang.Term) Result {
	t.safe, t.defs, t.nops, t.qvars = nil, nil, nil, nil
	v := t.eval(term)
	return Result{Value: v, Safe: t.safe, Defined: t.defs, Nonpoison: t.nops, QVars: t.qvars}
}

// Eval translates term, accumulating side conditions into the current state.
// Use Translate for a fresh accounting.
func (t *Translator) Eval(term lang.Term) smt.Expr {
	return t.eval(term)
}

func (t *Translator) addSafe(es ...smt.Expr) { t.safe = append(t.safe, es...) }
func (t *Translator) addDefs(es ...smt.Expr) { t.defs = append(t.defs, es...) }
func (t *Translator) addNops(es ...smt.Expr) { t.nops = append(t.nops, es...) }
func (t *Translator) addQVar(vs ...*smt.Var) { t.qvars = append(t.qvars, vs...) }

func (t *Translator) typeOf(term lang.Term) lang.Type {
	ty := t.vec.TypeOf(term)
	if ty == nil {
		panic(fmt.Sprintf("translate: no type for %s", term))
	}
	return ty
}

func (t *Translator) width(term lang.Term) int {
	return t.typeOf(term).(lang.IntType).Bits
}

func (t *Translator) freshBool() *smt.Var {
	t.fresh++
	return &smt.Var{Name: fmt.Sprintf("ana_%d", t.fresh), S: smt.BoolSort()}
}

func (t *Translator) freshVar(s smt.Sort, prefix string) *smt.Var {
	t.fresh++
	return &smt.Var{Name: fmt.Sprintf("%s%d", prefix, t.fresh), S: s}
}

func (t *Translator) eval(term lang.Term) smt.Expr {
	switch x := term.(type) {
	case *lang.Input:
		return &smt.Var{Name: x.Name, S: smt.SortOf(t.typeOf(x))}
	case *lang.Symbol:
		return &smt.Var{Name: x.Name, S: smt.SortOf(t.typeOf(x))}
	case *lang.Literal:
		if f, ok := t.typeOf(x).(lang.FloatType); ok {
			return &smt.FPLit{Format: f.Kind, V: float64(x.Val)}
		}
		return smt.BV(uint64(x.Val), t.width(x))
	case *lang.FLiteral:
		f := t.typeOf(x).(lang.FloatType)
		v := x.Val
		if x.NegZero {
			v = math.Copysign(0, -1)
		}
		return &smt.FPLit{Format: f.Kind, V: v}
	case *lang.Undef:
		q := t.freshVar(smt.SortOf(t.typeOf(x)), "undef_")
		t.addQVar(q)
		return q
	case *lang.BinOp:
		return t.binOp(x)
	case *lang.FBinOp:
		return t.prof.floatBin(t, x)
	case *lang.Icmp:
		return boolToBV1(cmp(x.Op, t.eval(x.X), t.eval(x.Y)))
	case *lang.Fcmp:
		return boolToBV1(t.fcmp(x.Op, t.eval(x.X), t.eval(x.Y)))
	case *lang.Select:
		c := t.eval(x.Cond)
		return ite(eq(c, smt.BV(1, 1)), t.eval(x.X), t.eval(x.Y))
	case *lang.Conv:
		return t.conv(x)
	case *lang.ConstBinary:
		return t.constBinary(x)
	case *lang.ConstUnary:
		return t.constUnary(x)
	case *lang.ConstMax:
		a, b := t.eval(x.X), t.eval(x.Y)
		if x.Signed {
			return ite(cmp(lang.SGT, a, b), a, b)
		}
		return ite(cmp(lang.UGT, a, b), a, b)
	case *lang.WidthOf:
		// fixed by the type assignment, the argument is not evaluated
		return smt.BV(uint64(t.width(x.X)), t.width(x))
	case *lang.TruePred:
		return smt.True
	case *lang.AndPred:
		es := make([]smt.Expr, len(x.Clauses))
		for i, cl := range x.Clauses {
			es[i] = t.eval(cl)
		}
		return smt.MkAnd(es)
	case *lang.OrPred:
		es := make([]smt.Expr, len(x.Clauses))
		for i, cl := range x.Clauses {
			es[i] = t.eval(cl)
		}
		return smt.MkOr(es)
	case *lang.NotPred:
		return &smt.Not{X: t.eval(x.P)}
	case *lang.Comparison:
		return cmp(x.Op, t.eval(x.X), t.eval(x.Y))
	case *lang.FunPred:
		return t.funPred(x)
	}
	panic(fmt.Sprintf("translate: unhandled term %T", term))
}

// expression shorthands

func eq(x, y smt.Expr) smt.Expr     { return &smt.Eq{X: x, Y: y} }
func ne(x, y smt.Expr) smt.Expr     { return &smt.Not{X: &smt.Eq{X: x, Y: y}} }
func ite(c, x, y smt.Expr) smt.Expr { return &smt.Ite{C: c, X: x, Y: y} }

func bin(op lang.BinOpKind, x, y smt.Expr) smt.Expr {
	return &smt.BVBin{Op: op, X: x, Y: y}
}

func cmp(op lang.CmpOp, x, y smt.Expr) smt.Expr {
	return &smt.BVCmp{Op: op, X: x, Y: y}
}

func sext(n int, x smt.Expr) smt.Expr {
	return &smt.Extend{Signed: true, Extra: n, X: x}
}

func zext(n int, x smt.Expr) smt.Expr {
	return &smt.Extend{Signed: false, Extra: n, X: x}
}

func width(x smt.Expr) int { return x.Sort().Bits }

func boolToBV1(c smt.Expr) smt.Expr {
	return ite(c, smt.BV(1, 1), smt.BV(0, 1))
}

func allOnes(bits int) smt.Expr { return smt.BV(^uint64(0), bits) }

func signBit(bits int) smt.Expr { return smt.BV(1<<uint(bits-1), bits) }

func shiftInRange(x, y smt.Expr) smt.Expr {
	return cmp(lang.ULT, y, smt.BV(uint64(width(x)), width(x)))
}

// binOp translates an integer instruction, collecting the definedness
// conditions of the operation and the nonpoison conditions of its flags.
func (t *Translator) binOp(term *lang.BinOp) smt.Expr {
	x := t.eval(term.X)
	y := t.eval(term.Y)

	switch term.Op {
	case lang.SDiv, lang.SRem:
		t.addDefs(ne(y, smt.BV(0, width(y))),
			smt.MkOr([]smt.Expr{ne(x, signBit(width(x))), ne(y, allOnes(width(y)))}))
	case lang.UDiv, lang.URem:
		t.addDefs(ne(y, smt.BV(0, width(y))))
	case lang.Shl, lang.LShr, lang.AShr:
		t.addDefs(shiftInRange(x, y))
	}

	for _, p := range t.poisonConds(term.Op) {
		if term.Flags.Has(p.flag) {
			t.addNops(p.cond(x, y))
		}
	}

	return bin(term.Op, x, y)
}

type poisonCond struct {
	flag lang.Flags
	cond func(x, y smt.Expr) smt.Expr
}

func (t *Translator) poisonConds(op lang.BinOpKind) []poisonCond {
	if op == lang.Shl && t.prof.shlPoisons != nil {
		return t.prof.shlPoisons
	}
	return defaultPoisons[op]
}

var defaultPoisons = map[lang.BinOpKind][]poisonCond{
	lang.Add: {
		{lang.NSW, func(x, y smt.Expr) smt.Expr {
			return eq(bin(lang.Add, sext(1, x), sext(1, y)), sext(1, bin(lang.Add, x, y)))
		}},
		{lang.NUW, func(x, y smt.Expr) smt.Expr {
			return eq(bin(lang.Add, zext(1, x), zext(1, y)), zext(1, bin(lang.Add, x, y)))
		}},
	},
	lang.Sub: {
		{lang.NSW, func(x, y smt.Expr) smt.Expr {
			return eq(bin(lang.Sub, sext(1, x), sext(1, y)), sext(1, bin(lang.Sub, x, y)))
		}},
		{lang.NUW, func(x, y smt.Expr) smt.Expr {
			return eq(bin(lang.Sub, zext(1, x), zext(1, y)), zext(1, bin(lang.Sub, x, y)))
		}},
	},
	lang.Mul: {
		{lang.NSW, func(x, y smt.Expr) smt.Expr {
			w := width(x)
			return eq(bin(lang.Mul, sext(w, x), sext(w, y)), sext(w, bin(lang.Mul, x, y)))
		}},
		{lang.NUW, func(x, y smt.Expr) smt.Expr {
			w := width(x)
			return eq(bin(lang.Mul, zext(w, x), zext(w, y)), zext(w, bin(lang.Mul, x, y)))
		}},
	},
	lang.SDiv: {
		{lang.Exact, func(x, y smt.Expr) smt.Expr {
			return eq(bin(lang.Mul, bin(lang.SDiv, x, y), y), x)
		}},
	},
	lang.UDiv: {
		{lang.Exact, func(x, y smt.Expr) smt.Expr {
			return eq(bin(lang.Mul, bin(lang.UDiv, x, y), y), x)
		}},
	},
	lang.Shl: {
		{lang.NSW, func(x, y smt.Expr) smt.Expr {
			return eq(bin(lang.AShr, bin(lang.Shl, x, y), y), x)
		}},
		{lang.NUW, func(x, y smt.Expr) smt.Expr {
			return eq(bin(lang.LShr, bin(lang.Shl, x, y), y), x)
		}},
	},
	lang.AShr: {
		{lang.Exact, func(x, y smt.Expr) smt.Expr {
			return eq(bin(lang.Shl, bin(lang.AShr, x, y), y), x)
		}},
	},
	lang.LShr: {
		{lang.Exact, func(x, y smt.Expr) smt.Expr {
			return eq(bin(lang.Shl, bin(lang.LShr, x, y), y), x)
		}},
	},
}

func fbin(op lang.FBinOpKind, x, y smt.Expr) smt.Expr {
	return &smt.FPBin{Op: op, X: x, Y: y}
}

func fpZero(f lang.FloatKind) smt.Expr { return &smt.FPLit{Format: f, V: 0} }

func fpMinusZero(f lang.FloatKind) smt.Expr {
	return &smt.FPLit{Format: f, V: math.Copysign(0, -1)}
}

func fpEQ(x, y smt.Expr) smt.Expr { return &smt.FPCmp{Op: smt.FEQ, X: x, Y: y} }

func notNaN(x smt.Expr) smt.Expr { return &smt.Not{X: &smt.FPIsNaN{X: x}} }

func notInf(x smt.Expr) smt.Expr { return &smt.Not{X: &smt.FPIsInf{X: x}} }

func (t *Translator) fcmp(op lang.FcmpOp, x, y smt.Expr) smt.Expr {
	isNaN := func(e smt.Expr) smt.Expr { return &smt.FPIsNaN{X: e} }
	unordered := func(c smt.Expr) smt.Expr {
		return smt.MkOr([]smt.Expr{c, isNaN(x), isNaN(y)})
	}
	fpNE := func() smt.Expr {
		return smt.MkAnd([]smt.Expr{notNaN(x), notNaN(y), &smt.Not{X: fpEQ(x, y)}})
	}
	fc := func(k smt.FPCmpOp) smt.Expr { return &smt.FPCmp{Op: k, X: x, Y: y} }

	switch op {
	case lang.FcmpFalse:
		return smt.False
	case lang.FcmpOEQ:
		return fpEQ(x, y)
	case lang.FcmpOGT:
		return fc(smt.FGT)
	case lang.FcmpOGE:
		return fc(smt.FGE)
	case lang.FcmpOLT:
		return fc(smt.FLT)
	case lang.FcmpOLE:
		return fc(smt.FLE)
	case lang.FcmpONE:
		return fpNE()
	case lang.FcmpORD:
		return &smt.Not{X: smt.MkOr([]smt.Expr{isNaN(x), isNaN(y)})}
	case lang.FcmpUEQ:
		return unordered(fpEQ(x, y))
	case lang.FcmpUGT:
		return unordered(fc(smt.FGT))
	case lang.FcmpUGE:
		return unordered(fc(smt.FGE))
	case lang.FcmpULT:
		return unordered(fc(smt.FLT))
	case lang.FcmpULE:
		return unordered(fc(smt.FLE))
	case lang.FcmpUNE:
		return unordered(fpNE())
	case lang.FcmpUNO:
		return smt.MkOr([]smt.Expr{isNaN(x), isNaN(y)})
	case lang.FcmpTrue:
		return smt.True
	}
	panic(fmt.Sprintf("translate: unknown fcmp op %d", op))
}

func (t *Translator) conv(term *lang.Conv) smt.Expr {
	v := t.eval(term.Arg)
	tgt := t.width(term)
	switch term.Op {
	case lang.SExt:
		return sext(tgt-width(v), v)
	case lang.ZExt:
		return zext(tgt-width(v), v)
	case lang.Trunc:
		return &smt.Extract{High: tgt - 1, Low: 0, X: v}
	}
	panic(fmt.Sprintf("translate: unknown conversion %d", term.Op))
}

// constBinary translates a constant expression. Constant expressions have no
// poison, but dividing or shifting may be unsafe to evaluate outright, which
// surfaces as safety conditions rather than definedness.
func (t *Translator) constBinary(term *lang.ConstBinary) smt.Expr {
	x := t.eval(term.X)
	y := t.eval(term.Y)

	switch term.Op {
	case lang.SDiv, lang.UDiv, lang.SRem, lang.URem:
		t.addSafe(ne(y, smt.BV(0, width(y))))
	case lang.Shl, lang.LShr, lang.AShr:
		t.addSafe(shiftInRange(x, y))
	}

	return bin(term.Op, x, y)
}

func (t *Translator) constUnary(term *lang.ConstUnary) smt.Expr {
	x := t.eval(term.X)
	switch term.Op {
	case lang.CNot:
		return &smt.BVNot{X: x}
	case lang.CNeg:
		if _, ok := t.typeOf(term).(lang.FloatType); ok {
			return &smt.FPNeg{X: x}
		}
		return &smt.BVNeg{X: x}
	case lang.CAbs:
		if _, ok := t.typeOf(term).(lang.FloatType); ok {
			return &smt.FPAbs{X: x}
		}
		return ite(cmp(lang.SGE, x, smt.BV(0, width(x))), x, &smt.BVNeg{X: x})
	case lang.CLog2:
		t.addSafe(ne(x, smt.BV(0, width(x))))
		return bvLog2(x)
	case lang.CLeadingZeros:
		return ctlz(x)
	case lang.CTrailingZeros:
		return cttz(x)
	}
	panic(fmt.Sprintf("translate: unknown constant operator %d", term.Op))
}

// funPred translates a built-in predicate function. Overflow and mask
// predicates over constant arguments evaluate directly; over instruction or
// input arguments they become a must-analysis, a fresh boolean implied to
// respect the property.
func (t *Translator) funPred(term *lang.FunPred) smt.Expr {
	args := make([]smt.Expr, len(term.Args))
	for i, a := range term.Args {
		args[i] = t.eval(a)
	}

	switch term.Kind {
	case lang.IsPowerOf2:
		return t.mustAnalysis(term, func() smt.Expr {
			x := args[0]
			w := width(x)
			return smt.MkAnd([]smt.Expr{
				ne(x, smt.BV(0, w)),
				eq(bin(lang.And, x, bin(lang.Sub, x, smt.BV(1, w))), smt.BV(0, w)),
			})
		})
	case lang.IsPowerOf2OrZero:
		return t.mustAnalysis(term, func() smt.Expr {
			x := args[0]
			w := width(x)
			return eq(bin(lang.And, x, bin(lang.Sub, x, smt.BV(1, w))), smt.BV(0, w))
		})
	case lang.IsSignBit:
		return eq(args[0], signBit(width(args[0])))
	case lang.MaskZero:
		return t.mustAnalysis(term, func() smt.Expr {
			return eq(bin(lang.And, args[0], args[1]), smt.BV(0, width(args[0])))
		})
	case lang.IsShiftedMask:
		x := args[0]
		w := width(x)
		v := bin(lang.Or, bin(lang.Sub, x, smt.BV(1, w)), x)
		return smt.MkAnd([]smt.Expr{
			ne(v, smt.BV(0, w)),
			eq(bin(lang.And, bin(lang.Add, v, smt.BV(1, w)), v), smt.BV(0, w)),
		})
	case lang.NSWAdd:
		return t.mustAnalysis(term, func() smt.Expr {
			return extOverflow(lang.Add, true, 1, args[0], args[1])
		})
	case lang.NUWAdd:
		return t.mustAnalysis(term, func() smt.Expr {
			return extOverflow(lang.Add, false, 1, args[0], args[1])
		})
	case lang.NSWSub:
		return t.mustAnalysis(term, func() smt.Expr {
			return extOverflow(lang.Sub, true, 1, args[0], args[1])
		})
	case lang.NUWSub:
		return t.mustAnalysis(term, func() smt.Expr {
			return extOverflow(lang.Sub, false, 1, args[0], args[1])
		})
	case lang.NSWMul:
		return extOverflow(lang.Mul, true, width(args[0]), args[0], args[1])
	case lang.NUWMul:
		return extOverflow(lang.Mul, false, width(args[0]), args[0], args[1])
	case lang.NUWShl:
		x, y := args[0], args[1]
		return eq(bin(lang.LShr, bin(lang.Shl, x, y), y), x)
	case lang.OneUse:
		return smt.True
	}
	panic(fmt.Sprintf("translate: unknown predicate function %d", term.Kind))
}

// extOverflow states that op does not overflow when computed n bits wider.
func extOverflow(op lang.BinOpKind, signed bool, n int, x, y smt.Expr) smt.Expr {
	ext := zext
	if signed {
		ext = sext
	}
	return eq(bin(op, ext(n, x), ext(n, y)), ext(n, bin(op, x, y)))
}

func (t *Translator) mustAnalysis(term *lang.FunPred, build func() smt.Expr) smt.Expr {
	for _, a := range term.Args {
		if !lang.IsConstant(a) {
			c := t.freshBool()
			t.addDefs(&smt.Implies{X: c, Y: build()})
			return c
		}
	}
	return build()
}
