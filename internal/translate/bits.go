package translate

import (
	"github.com/cexlab/prex/internal/smt"
)

func bit(x smt.Expr, i int) smt.Expr {
	return &smt.Extract{High: i, Low: i, X: x}
}

func bitSet(x smt.Expr, i int) smt.Expr {
	return eq(bit(x, i), smt.BV(1, 1))
}

// ctlz counts leading zero bits; the width is returned for zero.
func ctlz(x smt.Expr) smt.Expr {
	w := width(x)
	r := smt.Expr(smt.BV(uint64(w), w))
	for i := 0; i < w; i++ {
		r = ite(bitSet(x, i), smt.BV(uint64(w-1-i), w), r)
	}
	return r
}

// cttz counts trailing zero bits; the width is returned for zero.
func cttz(x smt.Expr) smt.Expr {
	w := width(x)
	r := smt.Expr(smt.BV(uint64(w), w))
	for i := w - 1; i >= 0; i-- {
		r = ite(bitSet(x, i), smt.BV(uint64(i), w), r)
	}
	return r
}

// bvLog2 is the index of the highest set bit, zero for zero input. Callers
// guard the zero case with a safety condition.
func bvLog2(x smt.Expr) smt.Expr {
	w := width(x)
	r := smt.Expr(smt.BV(0, w))
	for i := 1; i < w; i++ {
		r = ite(bitSet(x, i), smt.BV(uint64(i), w), r)
	}
	return r
}
