package smt

import (
	"math"

	"github.com/cexlab/prex/internal/lang"
)

// Substitute replaces free variables by the expressions in env, keyed by
// variable name. Variables absent from env are left in place.
func Substitute(e Expr, env map[string]Expr) Expr {
	switch x := e.(type) {
	case *BoolLit, *BVLit, *FPLit:
		return e
	case *Var:
		if v, ok := env[x.Name]; ok {
			return v
		}
		return e
	case *Not:
		return &Not{X: Substitute(x.X, env)}
	case *NAry:
		xs := make([]Expr, len(x.Xs))
		for i, c := range x.Xs {
			xs[i] = Substitute(c, env)
		}
		return &NAry{Op: x.Op, Xs: xs}
	case *Implies:
		return &Implies{X: Substitute(x.X, env), Y: Substitute(x.Y, env)}
	case *Eq:
		return &Eq{X: Substitute(x.X, env), Y: Substitute(x.Y, env)}
	case *Ite:
		return &Ite{C: Substitute(x.C, env), X: Substitute(x.X, env), Y: Substitute(x.Y, env)}
	case *BVBin:
		return &BVBin{Op: x.Op, X: Substitute(x.X, env), Y: Substitute(x.Y, env)}
	case *BVCmp:
		return &BVCmp{Op: x.Op, X: Substitute(x.X, env), Y: Substitute(x.Y, env)}
	case *BVNot:
		return &BVNot{X: Substitute(x.X, env)}
	case *BVNeg:
		return &BVNeg{X: Substitute(x.X, env)}
	case *Extend:
		return &Extend{Signed: x.Signed, Extra: x.Extra, X: Substitute(x.X, env)}
	case *Extract:
		return &Extract{High: x.High, Low: x.Low, X: Substitute(x.X, env)}
	case *FPBin:
		return &FPBin{Op: x.Op, X: Substitute(x.X, env), Y: Substitute(x.Y, env)}
	case *FPCmp:
		return &FPCmp{Op: x.Op, X: Substitute(x.X, env), Y: Substitute(x.Y, env)}
	case *FPIsNaN:
		return &FPIsNaN{X: Substitute(x.X, env)}
	case *FPIsInf:
		return &FPIsInf{X: Substitute(x.X, env)}
	case *FPNeg:
		return &FPNeg{X: Substitute(x.X, env)}
	case *FPAbs:
		return &FPAbs{X: Substitute(x.X, env)}
	default:
		return e
	}
}

// IsTrue reports whether e is the literal true.
func IsTrue(e Expr) bool {
	b, ok := e.(*BoolLit)
	return ok && b.V
}

// IsFalse reports whether e is the literal false.
func IsFalse(e Expr) bool {
	b, ok := e.(*BoolLit)
	return ok && !b.V
}

func mask(bits int) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(bits) - 1
}

func toSigned(v uint64, bits int) int64 {
	if bits < 64 && v&(1<<uint(bits-1)) != 0 {
		v |= ^mask(bits)
	}
	return int64(v)
}

// Fold simplifies e bottom-up, reducing fully concrete subterms to literals.
// Division and remainder by zero are left unfolded; callers guard them with
// safety conditions.
func Fold(e Expr) Expr {
	switch x := e.(type) {
	case *BoolLit, *BVLit, *FPLit, *Var:
		return e
	case *Not:
		c := Fold(x.X)
		if b, ok := c.(*BoolLit); ok {
			return &BoolLit{V: !b.V}
		}
		return &Not{X: c}
	case *NAry:
		return foldNAry(x)
	case *Implies:
		a, b := Fold(x.X), Fold(x.Y)
		if IsFalse(a) || IsTrue(b) {
			return True
		}
		if IsTrue(a) {
			return b
		}
		return &Implies{X: a, Y: b}
	case *Eq:
		return foldEq(Fold(x.X), Fold(x.Y))
	case *Ite:
		c := Fold(x.C)
		if IsTrue(c) {
			return Fold(x.X)
		}
		if IsFalse(c) {
			return Fold(x.Y)
		}
		return &Ite{C: c, X: Fold(x.X), Y: Fold(x.Y)}
	case *BVBin:
		return foldBVBin(x.Op, Fold(x.X), Fold(x.Y))
	case *BVCmp:
		return foldBVCmp(x.Op, Fold(x.X), Fold(x.Y))
	case *BVNot:
		c := Fold(x.X)
		if l, ok := c.(*BVLit); ok {
			return BV(^l.V, l.Bits)
		}
		return &BVNot{X: c}
	case *BVNeg:
		c := Fold(x.X)
		if l, ok := c.(*BVLit); ok {
			return BV(-l.V, l.Bits)
		}
		return &BVNeg{X: c}
	case *Extend:
		c := Fold(x.X)
		if l, ok := c.(*BVLit); ok {
			if x.Signed {
				return BV(uint64(toSigned(l.V, l.Bits)), l.Bits+x.Extra)
			}
			return BV(l.V, l.Bits+x.Extra)
		}
		return &Extend{Signed: x.Signed, Extra: x.Extra, X: c}
	case *Extract:
		c := Fold(x.X)
		if l, ok := c.(*BVLit); ok {
			return BV(l.V>>uint(x.Low), x.High-x.Low+1)
		}
		return &Extract{High: x.High, Low: x.Low, X: c}
	case *FPBin:
		return foldFPBin(x.Op, Fold(x.X), Fold(x.Y))
	case *FPCmp:
		return foldFPCmp(x.Op, Fold(x.X), Fold(x.Y))
	case *FPIsNaN:
		c := Fold(x.X)
		if l, ok := c.(*FPLit); ok {
			return &BoolLit{V: math.IsNaN(l.V)}
		}
		return &FPIsNaN{X: c}
	case *FPIsInf:
		c := Fold(x.X)
		if l, ok := c.(*FPLit); ok {
			return &BoolLit{V: math.IsInf(l.V, 0)}
		}
		return &FPIsInf{X: c}
	case *FPNeg:
		c := Fold(x.X)
		if l, ok := c.(*FPLit); ok {
			return &FPLit{Format: l.Format, V: -l.V}
		}
		return &FPNeg{X: c}
	case *FPAbs:
		c := Fold(x.X)
		if l, ok := c.(*FPLit); ok {
			return &FPLit{Format: l.Format, V: math.Abs(l.V)}
		}
		return &FPAbs{X: c}
	default:
		return e
	}
}

func foldNAry(x *NAry) Expr {
	var rest []Expr
	for _, c := range x.Xs {
		f := Fold(c)
		if b, ok := f.(*BoolLit); ok {
			if x.Op == OpAnd && !b.V {
				return False
			}
			if x.Op == OpOr && b.V {
				return True
			}
			continue // neutral element
		}
		rest = append(rest, f)
	}
	switch len(rest) {
	case 0:
		return &BoolLit{V: x.Op == OpAnd}
	case 1:
		return rest[0]
	default:
		return &NAry{Op: x.Op, Xs: rest}
	}
}

func foldEq(a, b Expr) Expr {
	if la, ok := a.(*BVLit); ok {
		if lb, ok := b.(*BVLit); ok {
			return &BoolLit{V: la.V == lb.V}
		}
	}
	if la, ok := a.(*BoolLit); ok {
		if lb, ok := b.(*BoolLit); ok {
			return &BoolLit{V: la.V == lb.V}
		}
	}
	if la, ok := a.(*FPLit); ok {
		if lb, ok := b.(*FPLit); ok {
			// bit-precise equality per the SMT = operator
			return &BoolLit{V: bitsOf(la) == bitsOf(lb)}
		}
	}
	return &Eq{X: a, Y: b}
}

func bitsOf(l *FPLit) uint64 {
	if l.Format == lang.Single {
		return uint64(math.Float32bits(float32(l.V)))
	}
	return math.Float64bits(l.V)
}

func foldBVBin(op lang.BinOpKind, a, b Expr) Expr {
	la, aok := a.(*BVLit)
	lb, bok := b.(*BVLit)
	if !aok || !bok {
		return &BVBin{Op: op, X: a, Y: b}
	}
	bits := la.Bits
	x, y := la.V, lb.V
	switch op {
	case lang.Add:
		return BV(x+y, bits)
	case lang.Sub:
		return BV(x-y, bits)
	case lang.Mul:
		return BV(x*y, bits)
	case lang.And:
		return BV(x&y, bits)
	case lang.Or:
		return BV(x|y, bits)
	case lang.Xor:
		return BV(x^y, bits)
	case lang.Shl:
		if y >= uint64(bits) {
			return BV(0, bits)
		}
		return BV(x<<y, bits)
	case lang.LShr:
		if y >= uint64(bits) {
			return BV(0, bits)
		}
		return BV(x>>y, bits)
	case lang.AShr:
		sh := y
		if sh >= uint64(bits) {
			sh = uint64(bits - 1)
		}
		return BV(uint64(toSigned(x, bits)>>sh), bits)
	case lang.UDiv:
		if y == 0 {
			return &BVBin{Op: op, X: a, Y: b}
		}
		return BV(x/y, bits)
	case lang.URem:
		if y == 0 {
			return &BVBin{Op: op, X: a, Y: b}
		}
		return BV(x%y, bits)
	case lang.SDiv:
		sx, sy := toSigned(x, bits), toSigned(y, bits)
		if sy == 0 || (sx == minSigned(bits) && sy == -1) {
			return &BVBin{Op: op, X: a, Y: b}
		}
		return BV(uint64(sx/sy), bits)
	case lang.SRem:
		sx, sy := toSigned(x, bits), toSigned(y, bits)
		if sy == 0 || (sx == minSigned(bits) && sy == -1) {
			return &BVBin{Op: op, X: a, Y: b}
		}
		return BV(uint64(sx%sy), bits)
	default:
		return &BVBin{Op: op, X: a, Y: b}
	}
}

func minSigned(bits int) int64 {
	return -1 << uint(bits-1)
}

func foldBVCmp(op lang.CmpOp, a, b Expr) Expr {
	la, aok := a.(*BVLit)
	lb, bok := b.(*BVLit)
	if !aok || !bok {
		return &BVCmp{Op: op, X: a, Y: b}
	}
	x, y := la.V, lb.V
	sx, sy := toSigned(la.V, la.Bits), toSigned(lb.V, lb.Bits)
	var v bool
	switch op {
	case lang.EQ:
		v = x == y
	case lang.NE:
		v = x != y
	case lang.UGT:
		v = x > y
	case lang.UGE:
		v = x >= y
	case lang.ULT:
		v = x < y
	case lang.ULE:
		v = x <= y
	case lang.SGT:
		v = sx > sy
	case lang.SGE:
		v = sx >= sy
	case lang.SLT:
		v = sx < sy
	case lang.SLE:
		v = sx <= sy
	}
	return &BoolLit{V: v}
}

func foldFPBin(op lang.FBinOpKind, a, b Expr) Expr {
	la, aok := a.(*FPLit)
	lb, bok := b.(*FPLit)
	if !aok || !bok {
		return &FPBin{Op: op, X: a, Y: b}
	}
	var r float64
	switch op {
	case lang.FAdd:
		r = la.V + lb.V
	case lang.FSub:
		r = la.V - lb.V
	case lang.FMul:
		r = la.V * lb.V
	case lang.FDiv:
		r = la.V / lb.V
	case lang.FRem:
		r = math.Mod(la.V, lb.V)
	}
	if la.Format == lang.Single {
		r = float64(float32(r))
	}
	return &FPLit{Format: la.Format, V: r}
}

func foldFPCmp(op FPCmpOp, a, b Expr) Expr {
	la, aok := a.(*FPLit)
	lb, bok := b.(*FPLit)
	if !aok || !bok {
		return &FPCmp{Op: op, X: a, Y: b}
	}
	var v bool
	switch op {
	case FEQ:
		v = la.V == lb.V
	case FLT:
		v = la.V < lb.V
	case FLE:
		v = la.V <= lb.V
	case FGT:
		v = la.V > lb.V
	case FGE:
		v = la.V >= lb.V
	}
	return &BoolLit{V: v}
}
