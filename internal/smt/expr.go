// Package smt provides a solver-independent expression representation for
// bounded-width bit-vector, boolean and floating-point formulas, concrete
// substitution and constant folding, and a Z3 backend for satisfiability
// queries and model enumeration.
package smt

import (
	"fmt"
	"math"
	"strings"

	"github.com/cexlab/prex/internal/lang"
)

// SortKind discriminates the three value sorts.
type SortKind int

const (
	SortBool SortKind = iota
	SortBV
	SortFloat
)

// Sort is the type of an expression.
type Sort struct {
	Kind  SortKind
	Bits  int            // bit-vector width, valid for SortBV
	Float lang.FloatKind // format, valid for SortFloat
}

// BoolSort returns the boolean sort.
func BoolSort() Sort { return Sort{Kind: SortBool} }

// BVSort returns the bit-vector sort of the given width.
func BVSort(bits int) Sort { return Sort{Kind: SortBV, Bits: bits} }

// FloatSort returns the sort of the given IEEE-754 format.
func FloatSort(k lang.FloatKind) Sort { return Sort{Kind: SortFloat, Float: k} }

// SortOf maps a concrete language type to an expression sort.
func SortOf(ty lang.Type) Sort {
	switch t := ty.(type) {
	case lang.IntType:
		return BVSort(t.Bits)
	case lang.FloatType:
		return FloatSort(t.Kind)
	default:
		panic(fmt.Sprintf("smt: no sort for type %v", ty))
	}
}

func (s Sort) String() string {
	switch s.Kind {
	case SortBool:
		return "Bool"
	case SortBV:
		return fmt.Sprintf("(_ BitVec %d)", s.Bits)
	default:
		return s.Float.String()
	}
}

// Expr is a formula or value term.
type Expr interface {
	isExpr()
	Sort() Sort
	String() string
}

// BoolLit is a boolean constant.
type BoolLit struct {
	V bool
}

func (*BoolLit) isExpr()      {}
func (*BoolLit) Sort() Sort   { return BoolSort() }
func (e *BoolLit) String() string {
	return fmt.Sprintf("%t", e.V)
}

// BVLit is a bit-vector constant; V holds the low Bits bits.
type BVLit struct {
	Bits int
	V    uint64
}

func (*BVLit) isExpr()      {}
func (e *BVLit) Sort() Sort { return BVSort(e.Bits) }
func (e *BVLit) String() string {
	return fmt.Sprintf("#x%0*x", (e.Bits+3)/4, e.V)
}

// FPLit is a floating-point constant. The sign bit of V distinguishes -0.
type FPLit struct {
	Format lang.FloatKind
	V      float64
}

func (*FPLit) isExpr()      {}
func (e *FPLit) Sort() Sort { return FloatSort(e.Format) }
func (e *FPLit) String() string {
	if e.V == 0 && math.Signbit(e.V) {
		return "-0.0"
	}
	return fmt.Sprintf("%g", e.V)
}

// Var is a free variable.
type Var struct {
	Name string
	S    Sort
}

func (*Var) isExpr()      {}
func (e *Var) Sort() Sort { return e.S }
func (e *Var) String() string {
	return e.Name
}

// Not is boolean negation.
type Not struct {
	X Expr
}

func (*Not) isExpr()      {}
func (*Not) Sort() Sort   { return BoolSort() }
func (e *Not) String() string {
	return "(not " + e.X.String() + ")"
}

// NAry is a boolean n-ary connective.
type NAryOp int

const (
	OpAnd NAryOp = iota
	OpOr
)

// NAry is an n-ary conjunction or disjunction.
type NAry struct {
	Op NAryOp
	Xs []Expr
}

func (*NAry) isExpr()      {}
func (*NAry) Sort() Sort   { return BoolSort() }
func (e *NAry) String() string {
	name := "and"
	if e.Op == OpOr {
		name = "or"
	}
	parts := make([]string, len(e.Xs))
	for i, x := range e.Xs {
		parts[i] = x.String()
	}
	return "(" + name + " " + strings.Join(parts, " ") + ")"
}

// Implies is boolean implication.
type Implies struct {
	X, Y Expr
}

func (*Implies) isExpr()      {}
func (*Implies) Sort() Sort   { return BoolSort() }
func (e *Implies) String() string {
	return "(=> " + e.X.String() + " " + e.Y.String() + ")"
}

// Eq is SMT equality over any sort. On floats this is bit-precise equality,
// not IEEE equality: -0 differs from +0 and NaN equals itself.
type Eq struct {
	X, Y Expr
}

func (*Eq) isExpr()      {}
func (*Eq) Sort() Sort   { return BoolSort() }
func (e *Eq) String() string {
	return "(= " + e.X.String() + " " + e.Y.String() + ")"
}

// Ite is if-then-else; X and Y share a sort.
type Ite struct {
	C, X, Y Expr
}

func (*Ite) isExpr()      {}
func (e *Ite) Sort() Sort { return e.X.Sort() }
func (e *Ite) String() string {
	return "(ite " + e.C.String() + " " + e.X.String() + " " + e.Y.String() + ")"
}

// BVBin is a binary bit-vector operation; operand widths match.
type BVBin struct {
	Op   lang.BinOpKind
	X, Y Expr
}

func (*BVBin) isExpr()      {}
func (e *BVBin) Sort() Sort { return e.X.Sort() }
func (e *BVBin) String() string {
	return "(" + e.Op.String() + " " + e.X.String() + " " + e.Y.String() + ")"
}

// BVCmp is a bit-vector comparison producing a boolean. EQ/NE are expressed
// via Eq/Not instead.
type BVCmp struct {
	Op   lang.CmpOp
	X, Y Expr
}

func (*BVCmp) isExpr()      {}
func (*BVCmp) Sort() Sort   { return BoolSort() }
func (e *BVCmp) String() string {
	return "(" + e.Op.String() + " " + e.X.String() + " " + e.Y.String() + ")"
}

// BVNot is bitwise complement.
type BVNot struct {
	X Expr
}

func (*BVNot) isExpr()      {}
func (e *BVNot) Sort() Sort { return e.X.Sort() }
func (e *BVNot) String() string {
	return "(bvnot " + e.X.String() + ")"
}

// BVNeg is two's-complement negation.
type BVNeg struct {
	X Expr
}

func (*BVNeg) isExpr()      {}
func (e *BVNeg) Sort() Sort { return e.X.Sort() }
func (e *BVNeg) String() string {
	return "(bvneg " + e.X.String() + ")"
}

// Extend widens a bit-vector by Extra bits, sign- or zero-filling.
type Extend struct {
	Signed bool
	Extra  int
	X      Expr
}

func (*Extend) isExpr() {}
func (e *Extend) Sort() Sort {
	return BVSort(e.X.Sort().Bits + e.Extra)
}
func (e *Extend) String() string {
	name := "zero_extend"
	if e.Signed {
		name = "sign_extend"
	}
	return fmt.Sprintf("((_ %s %d) %s)", name, e.Extra, e.X)
}

// Extract selects bits High..Low inclusive.
type Extract struct {
	High, Low int
	X         Expr
}

func (*Extract) isExpr() {}
func (e *Extract) Sort() Sort {
	return BVSort(e.High - e.Low + 1)
}
func (e *Extract) String() string {
	return fmt.Sprintf("((_ extract %d %d) %s)", e.High, e.Low, e.X)
}

// FPBin is a binary floating-point operation, round-to-nearest-even.
type FPBin struct {
	Op   lang.FBinOpKind
	X, Y Expr
}

func (*FPBin) isExpr()      {}
func (e *FPBin) Sort() Sort { return e.X.Sort() }
func (e *FPBin) String() string {
	return "(" + e.Op.String() + " " + e.X.String() + " " + e.Y.String() + ")"
}

// FPCmpOp enumerates ordered floating-point comparisons (false on NaN).
type FPCmpOp int

const (
	FEQ FPCmpOp = iota
	FLT
	FLE
	FGT
	FGE
)

var fpCmpNames = [...]string{"fp.eq", "fp.lt", "fp.leq", "fp.gt", "fp.geq"}

func (k FPCmpOp) String() string { return fpCmpNames[k] }

// FPCmp is an ordered floating-point comparison (IEEE semantics: -0 equals
// +0, any comparison with NaN is false).
type FPCmp struct {
	Op   FPCmpOp
	X, Y Expr
}

func (*FPCmp) isExpr()      {}
func (*FPCmp) Sort() Sort   { return BoolSort() }
func (e *FPCmp) String() string {
	return "(" + e.Op.String() + " " + e.X.String() + " " + e.Y.String() + ")"
}

// FPIsNaN tests for NaN.
type FPIsNaN struct {
	X Expr
}

func (*FPIsNaN) isExpr()      {}
func (*FPIsNaN) Sort() Sort   { return BoolSort() }
func (e *FPIsNaN) String() string {
	return "(fp.isNaN " + e.X.String() + ")"
}

// FPIsInf tests for an infinity.
type FPIsInf struct {
	X Expr
}

func (*FPIsInf) isExpr()      {}
func (*FPIsInf) Sort() Sort   { return BoolSort() }
func (e *FPIsInf) String() string {
	return "(fp.isInfinite " + e.X.String() + ")"
}

// FPNeg flips the sign.
type FPNeg struct {
	X Expr
}

func (*FPNeg) isExpr()      {}
func (e *FPNeg) Sort() Sort { return e.X.Sort() }
func (e *FPNeg) String() string {
	return "(fp.neg " + e.X.String() + ")"
}

// FPAbs clears the sign.
type FPAbs struct {
	X Expr
}

func (*FPAbs) isExpr()      {}
func (e *FPAbs) Sort() Sort { return e.X.Sort() }
func (e *FPAbs) String() string {
	return "(fp.abs " + e.X.String() + ")"
}

// True and False are the boolean constants.
var (
	True  = &BoolLit{V: true}
	False = &BoolLit{V: false}
)

// MkAnd conjoins the given formulas, simplifying the trivial cases.
func MkAnd(xs []Expr) Expr {
	switch len(xs) {
	case 0:
		return True
	case 1:
		return xs[0]
	default:
		return &NAry{Op: OpAnd, Xs: xs}
	}
}

// MkOr disjoins the given formulas.
func MkOr(xs []Expr) Expr {
	switch len(xs) {
	case 0:
		return False
	case 1:
		return xs[0]
	default:
		return &NAry{Op: OpOr, Xs: xs}
	}
}

// MkImplies builds premises => consequent, dropping the implication when
// there are no premises.
func MkImplies(premises []Expr, consequent Expr) Expr {
	if len(premises) == 0 {
		return consequent
	}
	return &Implies{X: MkAnd(premises), Y: consequent}
}

// BV returns a bit-vector literal of the given width.
func BV(v uint64, bits int) *BVLit {
	return &BVLit{Bits: bits, V: truncate(v, bits)}
}

func truncate(v uint64, bits int) uint64 {
	if bits >= 64 {
		return v
	}
	return v & (1<<uint(bits) - 1)
}
