package smt

import (
	"fmt"

	"github.com/aclements/go-z3/z3"

	"github.com/cexlab/prex/internal/lang"
)

// Backend lowers expressions into a Z3 context and answers satisfiability
// and model queries. A Backend is not safe for concurrent use.
type Backend struct {
	ctx *z3.Context
}

func NewBackend() *Backend {
	return &Backend{ctx: z3.NewContext(nil)}
}

// Assignment maps variable names to bit-vector values.
type Assignment map[string]uint64

// Solver answers satisfiability and model queries over expressions.
// *Backend is the Z3 implementation.
type Solver interface {
	Satisfiable(e Expr) (bool, error)
	Models(e Expr, vars []*Var) ModelIter
}

// ModelIter enumerates satisfying assignments. After Next returns false the
// caller must consult Err to distinguish exhaustion from solver failure.
type ModelIter interface {
	Next() (Assignment, bool)
	Err() error
}

func (b *Backend) lowerSort(s Sort) z3.Sort {
	switch s.Kind {
	case SortBool:
		return b.ctx.BoolSort()
	case SortBV:
		return b.ctx.BVSort(s.Bits)
	case SortFloat:
		return b.ctx.FloatSort(s.Float.ExpBits(), s.Float.SigBits())
	}
	panic(fmt.Sprintf("smt: unknown sort kind %d", s.Kind))
}

func (b *Backend) lowerBool(e Expr) z3.Bool {
	return b.lower(e).(z3.Bool)
}

func (b *Backend) lowerBV(e Expr) z3.BV {
	return b.lower(e).(z3.BV)
}

func (b *Backend) lowerFloat(e Expr) z3.Float {
	return b.lower(e).(z3.Float)
}

func (b *Backend) lowerBVBin(e *BVBin) z3.BV {
	l, r := b.lowerBV(e.X), b.lowerBV(e.Y)
	switch e.Op {
	case lang.Add:
		return l.Add(r)
	case lang.Sub:
		return l.Sub(r)
	case lang.Mul:
		return l.Mul(r)
	case lang.SDiv:
		return l.SDiv(r)
	case lang.UDiv:
		return l.UDiv(r)
	case lang.SRem:
		return l.SRem(r)
	case lang.URem:
		return l.URem(r)
	case lang.Shl:
		return l.Lsh(r)
	case lang.AShr:
		return l.SRsh(r)
	case lang.LShr:
		return l.URsh(r)
	case lang.And:
		return l.And(r)
	case lang.Or:
		return l.Or(r)
	case lang.Xor:
		return l.Xor(r)
	}
	panic(fmt.Sprintf("smt: unknown bit-vector op %v", e.Op))
}

func (b *Backend) lowerBVCmp(e *BVCmp) z3.Bool {
	l, r := b.lowerBV(e.X), b.lowerBV(e.Y)
	switch e.Op {
	case lang.UGT:
		return l.UGT(r)
	case lang.UGE:
		return l.UGE(r)
	case lang.ULT:
		return l.ULT(r)
	case lang.ULE:
		return l.ULE(r)
	case lang.SGT:
		return l.SGT(r)
	case lang.SGE:
		return l.SGE(r)
	case lang.SLT:
		return l.SLT(r)
	case lang.SLE:
		return l.SLE(r)
	}
	panic(fmt.Sprintf("smt: unknown bit-vector comparison %v", e.Op))
}

func (b *Backend) lower(e Expr) z3.Value {
	switch x := e.(type) {
	case *BoolLit:
		return b.ctx.FromBool(x.V)
	case *BVLit:
		return b.ctx.FromInt(int64(x.V), b.ctx.BVSort(x.Bits))
	case *FPLit:
		return b.ctx.FromFloat64(x.V, b.lowerSort(FloatSort(x.Format)))
	case *Var:
		return b.ctx.Const(x.Name, b.lowerSort(x.S))
	case *Not:
		return b.lowerBool(x.X).Not()
	case *NAry:
		acc := b.lowerBool(x.Xs[0])
		for _, c := range x.Xs[1:] {
			if x.Op == OpAnd {
				acc = acc.And(b.lowerBool(c))
			} else {
				acc = acc.Or(b.lowerBool(c))
			}
		}
		return acc
	case *Implies:
		return b.lowerBool(x.X).Implies(b.lowerBool(x.Y))
	case *Eq:
		switch x.X.Sort().Kind {
		case SortBool:
			return b.lowerBool(x.X).Eq(b.lowerBool(x.Y))
		case SortBV:
			return b.lowerBV(x.X).Eq(b.lowerBV(x.Y))
		default:
			return b.lowerFloat(x.X).Eq(b.lowerFloat(x.Y))
		}
	case *Ite:
		return b.lowerBool(x.C).IfThenElse(b.lower(x.X), b.lower(x.Y))
	case *BVBin:
		return b.lowerBVBin(x)
	case *BVCmp:
		return b.lowerBVCmp(x)
	case *BVNot:
		return b.lowerBV(x.X).Not()
	case *BVNeg:
		return b.lowerBV(x.X).Neg()
	case *Extend:
		if x.Signed {
			return b.lowerBV(x.X).SignExtend(x.Extra)
		}
		return b.lowerBV(x.X).ZeroExtend(x.Extra)
	case *Extract:
		return b.lowerBV(x.X).Extract(x.High, x.Low)
	case *FPBin:
		l, r := b.lowerFloat(x.X), b.lowerFloat(x.Y)
		switch x.Op {
		case lang.FAdd:
			return l.Add(r)
		case lang.FSub:
			return l.Sub(r)
		case lang.FMul:
			return l.Mul(r)
		case lang.FDiv:
			return l.Div(r)
		case lang.FRem:
			return l.Rem(r)
		}
	case *FPCmp:
		l, r := b.lowerFloat(x.X), b.lowerFloat(x.Y)
		switch x.Op {
		case FEQ:
			// fp.eq, distinct from bit-precise equality
			return l.GE(r).And(l.LE(r))
		case FLT:
			return l.LT(r)
		case FLE:
			return l.LE(r)
		case FGT:
			return l.GT(r)
		case FGE:
			return l.GE(r)
		}
	case *FPIsNaN:
		return b.lowerFloat(x.X).IsNaN()
	case *FPIsInf:
		return b.lowerFloat(x.X).IsInfinite()
	case *FPNeg:
		return b.lowerFloat(x.X).Neg()
	case *FPAbs:
		return b.lowerFloat(x.X).Abs()
	}
	panic(fmt.Sprintf("smt: cannot lower %T", e))
}

// Satisfiable reports whether e has a model. Solver failures, including
// unknown results, surface as errors.
func (b *Backend) Satisfiable(e Expr) (bool, error) {
	solver := z3.NewSolver(b.ctx)
	solver.Assert(b.lowerBool(e))
	sat, err := solver.Check()
	if err != nil {
		return false, fmt.Errorf("smt: check failed: %w", err)
	}
	return sat, nil
}

// Model returns a single satisfying assignment for the named bit-vector
// variables, or ok=false if e is unsatisfiable.
func (b *Backend) Model(e Expr, vars []*Var) (Assignment, bool, error) {
	it := b.Models(e, vars)
	m, ok := it.Next()
	if err := it.Err(); err != nil {
		return nil, false, err
	}
	return m, ok, nil
}

// Models enumerates satisfying assignments of e over vars, blocking each
// model before producing the next. All vars must have bit-vector sorts.
func (b *Backend) Models(e Expr, vars []*Var) ModelIter {
	solver := z3.NewSolver(b.ctx)
	solver.Assert(b.lowerBool(e))
	return &z3ModelIter{b: b, solver: solver, vars: vars}
}

type z3ModelIter struct {
	b      *Backend
	solver *z3.Solver
	vars   []*Var
	err    error
	done   bool
}

func (it *z3ModelIter) Err() error { return it.err }

func (it *z3ModelIter) Next() (Assignment, bool) {
	if it.done || it.err != nil {
		return nil, false
	}
	for {
		sat, err := it.solver.Check()
		if err != nil {
			it.err = fmt.Errorf("smt: check failed: %w", err)
			it.done = true
			return nil, false
		}
		if !sat {
			it.done = true
			return nil, false
		}
		model := it.solver.Model()
		out := make(Assignment, len(it.vars))
		var block z3.Bool
		haveBlock := false
		complete := true
		for _, v := range it.vars {
			ref := it.b.ctx.Const(v.Name, it.b.lowerSort(v.S)).(z3.BV)
			val, isConst, ok := model.Eval(ref, false).(z3.BV).AsUint64()
			if !isConst || !ok {
				// v is unconstrained in this model. Any value would satisfy
				// the query, so no concrete assignment reproduces it.
				complete = false
				continue
			}
			out[v.Name] = val
			lit := it.b.ctx.FromInt(int64(val), it.b.ctx.BVSort(v.S.Bits)).(z3.BV)
			ne := ref.Eq(lit).Not()
			if haveBlock {
				block = block.Or(ne)
			} else {
				block, haveBlock = ne, true
			}
		}
		if !haveBlock {
			// nothing to block on, no further models can differ
			it.done = true
			if !complete {
				return nil, false
			}
			return out, true
		}
		it.solver.Assert(block)
		if complete {
			return out, true
		}
		// drop partially bound models and keep searching; the blocking
		// clause over the bound values still narrows the space
	}
}
