package smt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cexlab/prex/internal/lang"
)

func TestFoldBVArithmetic(t *testing.T) {
	tests := []struct {
		name string
		op   lang.BinOpKind
		x, y uint64
		bits int
		want uint64
	}{
		{"add wraps", lang.Add, 255, 1, 8, 0},
		{"sub wraps", lang.Sub, 0, 1, 8, 255},
		{"mul wraps", lang.Mul, 16, 16, 8, 0},
		{"udiv", lang.UDiv, 7, 2, 8, 3},
		{"urem", lang.URem, 7, 2, 8, 1},
		{"sdiv signed", lang.SDiv, 0xF8, 2, 8, 0xFC}, // -8 / 2 = -4
		{"srem signed", lang.SRem, 0xF9, 2, 8, 0xFF}, // -7 % 2 = -1
		{"shl", lang.Shl, 1, 3, 8, 8},
		{"shl out of range", lang.Shl, 1, 8, 8, 0},
		{"lshr", lang.LShr, 0x80, 7, 8, 1},
		{"lshr out of range", lang.LShr, 0x80, 9, 8, 0},
		{"ashr negative", lang.AShr, 0x80, 7, 8, 0xFF},
		{"ashr saturates", lang.AShr, 0x80, 200, 8, 0xFF},
		{"and", lang.And, 0xF0, 0x3C, 8, 0x30},
		{"or", lang.Or, 0xF0, 0x0C, 8, 0xFC},
		{"xor", lang.Xor, 0xFF, 0x0F, 8, 0xF0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fold(&BVBin{Op: tt.op, X: BV(tt.x, tt.bits), Y: BV(tt.y, tt.bits)})
			lit, ok := got.(*BVLit)
			assert.True(t, ok, "folded to a literal")
			assert.Equal(t, tt.want, lit.V)
		})
	}
}

func TestFoldDivisionByZeroStaysSymbolic(t *testing.T) {
	for _, op := range []lang.BinOpKind{lang.UDiv, lang.URem, lang.SDiv, lang.SRem} {
		t.Run(op.String(), func(t *testing.T) {
			got := Fold(&BVBin{Op: op, X: BV(3, 8), Y: BV(0, 8)})
			_, ok := got.(*BVLit)
			assert.False(t, ok, "division by zero has no folded value")
		})
	}

	// INT_MIN / -1 overflows and stays symbolic as well
	got := Fold(&BVBin{Op: lang.SDiv, X: BV(0x80, 8), Y: BV(0xFF, 8)})
	_, ok := got.(*BVLit)
	assert.False(t, ok)
}

func TestFoldComparisons(t *testing.T) {
	tests := []struct {
		name string
		op   lang.CmpOp
		x, y uint64
		want bool
	}{
		{"ult", lang.ULT, 1, 0x80, true},
		{"ugt", lang.UGT, 1, 0x80, false},
		{"slt treats sign", lang.SLT, 0x80, 1, true},
		{"sgt treats sign", lang.SGT, 0x80, 1, false},
		{"sle equal", lang.SLE, 5, 5, true},
		{"uge equal", lang.UGE, 5, 5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fold(&BVCmp{Op: tt.op, X: BV(tt.x, 8), Y: BV(tt.y, 8)})
			assert.Equal(t, tt.want, IsTrue(got))
			assert.Equal(t, !tt.want, IsFalse(got))
		})
	}
}

func TestFoldEq(t *testing.T) {
	assert.True(t, IsTrue(Fold(&Eq{X: BV(3, 8), Y: BV(3, 8)})))
	assert.True(t, IsFalse(Fold(&Eq{X: BV(3, 8), Y: BV(4, 8)})))

	// bit-precise equality distinguishes -0 from +0
	negZero := &FPLit{Format: lang.Double, V: negZeroFloat()}
	posZero := &FPLit{Format: lang.Double, V: 0}
	assert.True(t, IsFalse(Fold(&Eq{X: negZero, Y: posZero})))

	// IEEE comparison does not
	assert.True(t, IsTrue(Fold(&FPCmp{Op: FEQ, X: negZero, Y: posZero})))
}

func negZeroFloat() float64 {
	z := 0.0
	return -z
}

func TestFoldBooleanShortCircuit(t *testing.T) {
	v := &Var{Name: "p", S: BoolSort()}

	assert.True(t, IsFalse(Fold(&NAry{Op: OpAnd, Xs: []Expr{v, False}})))
	assert.True(t, IsTrue(Fold(&NAry{Op: OpOr, Xs: []Expr{v, True}})))

	// neutral elements drop out
	got := Fold(&NAry{Op: OpAnd, Xs: []Expr{v, True}})
	assert.Same(t, Expr(v), got)

	assert.True(t, IsTrue(Fold(&Implies{X: False, Y: v})))
	assert.Same(t, Expr(v), Fold(&Implies{X: True, Y: v}))
}

func TestFoldIteExtendExtract(t *testing.T) {
	assert.Equal(t, uint64(7), Fold(&Ite{C: True, X: BV(7, 8), Y: BV(9, 8)}).(*BVLit).V)
	assert.Equal(t, uint64(9), Fold(&Ite{C: False, X: BV(7, 8), Y: BV(9, 8)}).(*BVLit).V)

	sext := Fold(&Extend{Signed: true, Extra: 8, X: BV(0x80, 8)}).(*BVLit)
	assert.Equal(t, uint64(0xFF80), sext.V)
	assert.Equal(t, 16, sext.Bits)

	zext := Fold(&Extend{Signed: false, Extra: 8, X: BV(0x80, 8)}).(*BVLit)
	assert.Equal(t, uint64(0x0080), zext.V)

	bit := Fold(&Extract{High: 7, Low: 7, X: BV(0x80, 8)}).(*BVLit)
	assert.Equal(t, uint64(1), bit.V)
	assert.Equal(t, 1, bit.Bits)
}

func TestSubstitute(t *testing.T) {
	x := &Var{Name: "C1", S: BVSort(8)}
	y := &Var{Name: "C2", S: BVSort(8)}
	e := &BVCmp{Op: lang.ULT, X: x, Y: &BVBin{Op: lang.Add, X: y, Y: BV(1, 8)}}

	env := map[string]Expr{"C1": BV(3, 8), "C2": BV(3, 8)}
	got := Fold(Substitute(e, env))
	assert.True(t, IsTrue(got), "3 < 3+1")

	// unbound variables survive substitution
	partial := Substitute(e, map[string]Expr{"C2": BV(0, 8)})
	_, isLit := Fold(partial).(*BoolLit)
	assert.False(t, isLit)
}
