package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cexlab/prex/internal/lang"
	"github.com/cexlab/prex/internal/smt"
	"github.com/cexlab/prex/internal/typing"
)

// vectorFor builds the type model for term and returns its first type
// assignment with the given integer width.
func vectorFor(t *testing.T, term lang.Term, bits int) *typing.Vector {
	t.Helper()
	m := typing.NewModel()
	require.NoError(t, m.Extend(term))
	it := m.Vectors()
	for {
		v, ok := it.Next()
		require.True(t, ok, "no vector with width %d", bits)
		found := true
		for _, sub := range lang.Subterms(term) {
			switch sub.(type) {
			case *lang.Input, *lang.Symbol:
			default:
				continue
			}
			if w, isInt := v.TypeOf(sub).(lang.IntType); isInt && w.Bits != bits {
				found = false
			}
		}
		if found {
			return v
		}
	}
}

func TestBinOpSideConditions(t *testing.T) {
	x := &lang.Input{Name: "%x"}
	y := &lang.Input{Name: "%y"}

	tests := []struct {
		name      string
		term      *lang.BinOp
		defined   int
		nonpoison int
	}{
		{"add", &lang.BinOp{Op: lang.Add, X: x, Y: y}, 0, 0},
		{"add nsw", &lang.BinOp{Op: lang.Add, Flags: lang.NSW, X: x, Y: y}, 0, 1},
		{"add nsw nuw", &lang.BinOp{Op: lang.Add, Flags: lang.NSW | lang.NUW, X: x, Y: y}, 0, 2},
		{"udiv", &lang.BinOp{Op: lang.UDiv, X: x, Y: y}, 1, 0},
		{"udiv exact", &lang.BinOp{Op: lang.UDiv, Flags: lang.Exact, X: x, Y: y}, 1, 1},
		{"sdiv", &lang.BinOp{Op: lang.SDiv, X: x, Y: y}, 2, 0},
		{"srem", &lang.BinOp{Op: lang.SRem, X: x, Y: y}, 2, 0},
		{"shl", &lang.BinOp{Op: lang.Shl, X: x, Y: y}, 1, 0},
		{"shl nuw", &lang.BinOp{Op: lang.Shl, Flags: lang.NUW, X: x, Y: y}, 1, 1},
		{"and", &lang.BinOp{Op: lang.And, X: x, Y: y}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vec := vectorFor(t, tt.term, 8)
			res := New(vec, Default).Translate(tt.term)
			assert.Len(t, res.Defined, tt.defined)
			assert.Len(t, res.Nonpoison, tt.nonpoison)
			assert.Empty(t, res.Safe)
			assert.Equal(t, 8, res.Value.Sort().Bits)
		})
	}
}

func TestConstBinarySafety(t *testing.T) {
	c1 := &lang.Symbol{Name: "C1"}
	c2 := &lang.Symbol{Name: "C2"}

	tests := []struct {
		name string
		op   lang.BinOpKind
		safe int
	}{
		{"add", lang.Add, 0},
		{"udiv", lang.UDiv, 1},
		{"sdiv", lang.SDiv, 1},
		{"srem", lang.SRem, 1},
		{"shl", lang.Shl, 1},
		{"lshr", lang.LShr, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			term := &lang.ConstBinary{Op: tt.op, X: c1, Y: c2}
			vec := vectorFor(t, term, 8)
			res := New(vec, Default).Translate(term)
			assert.Len(t, res.Safe, tt.safe, "constant expressions guard with safety, not definedness")
			assert.Empty(t, res.Defined)
			assert.Empty(t, res.Nonpoison)
		})
	}
}

func TestConstLog2Safety(t *testing.T) {
	c := &lang.Symbol{Name: "C"}
	term := &lang.ConstUnary{Op: lang.CLog2, X: c}
	vec := vectorFor(t, term, 8)

	res := New(vec, Default).Translate(term)
	require.Len(t, res.Safe, 1)

	// log2 of zero is unsafe
	folded := smt.Fold(smt.Substitute(res.Safe[0], map[string]smt.Expr{"C": smt.BV(0, 8)}))
	assert.True(t, smt.IsFalse(folded))
	folded = smt.Fold(smt.Substitute(res.Safe[0], map[string]smt.Expr{"C": smt.BV(8, 8)}))
	assert.True(t, smt.IsTrue(folded))
}

func TestIcmpProducesI1(t *testing.T) {
	x := &lang.Input{Name: "%x"}
	y := &lang.Input{Name: "%y"}
	term := &lang.Icmp{Op: lang.ULT, X: x, Y: y}
	vec := vectorFor(t, term, 8)

	res := New(vec, Default).Translate(term)
	assert.Equal(t, 1, res.Value.Sort().Bits)
}

func TestFcmpProducesI1(t *testing.T) {
	ops := []lang.FcmpOp{
		lang.FcmpFalse, lang.FcmpOEQ, lang.FcmpOGT, lang.FcmpOGE,
		lang.FcmpOLT, lang.FcmpOLE, lang.FcmpONE, lang.FcmpORD,
		lang.FcmpUEQ, lang.FcmpUGT, lang.FcmpUGE, lang.FcmpULT,
		lang.FcmpULE, lang.FcmpUNE, lang.FcmpUNO, lang.FcmpTrue,
	}
	for _, op := range ops {
		t.Run(op.String(), func(t *testing.T) {
			term := &lang.Fcmp{Op: op, X: &lang.Input{Name: "%x"}, Y: &lang.Input{Name: "%y"}}
			vec := vectorFor(t, term, 8)
			res := New(vec, Default).Translate(term)
			assert.Equal(t, 1, res.Value.Sort().Bits)
		})
	}
}

func TestUndefIntroducesQVar(t *testing.T) {
	u := &lang.Undef{}
	term := &lang.BinOp{Op: lang.Add, X: &lang.Input{Name: "%x"}, Y: u}
	vec := vectorFor(t, term, 8)

	res := New(vec, Default).Translate(term)
	assert.Len(t, res.QVars, 1)
}

func TestFunPredConcreteEval(t *testing.T) {
	c := &lang.Symbol{Name: "C"}

	tests := []struct {
		name string
		kind lang.FunPredKind
		val  uint64
		want bool
	}{
		{"isPowerOf2 8", lang.IsPowerOf2, 8, true},
		{"isPowerOf2 0", lang.IsPowerOf2, 0, false},
		{"isPowerOf2 6", lang.IsPowerOf2, 6, false},
		{"isPowerOf2OrZero 0", lang.IsPowerOf2OrZero, 0, true},
		{"isSignBit", lang.IsSignBit, 0x80, true},
		{"isSignBit non", lang.IsSignBit, 0x40, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			term := &lang.FunPred{Kind: tt.kind, Args: []lang.Term{c}}
			vec := vectorFor(t, term, 8)
			res := New(vec, Default).Translate(term)
			require.Empty(t, res.Defined, "constant-only predicates evaluate directly")

			folded := smt.Fold(smt.Substitute(res.Value, map[string]smt.Expr{"C": smt.BV(tt.val, 8)}))
			assert.Equal(t, tt.want, smt.IsTrue(folded))
		})
	}
}

func TestProfileLookup(t *testing.T) {
	for _, name := range []string{"default", "newshl", "fastmathundef", "oldnsz", "brokennsz"} {
		p, err := Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, name, p.Name)
	}

	_, err := Lookup("bogus")
	assert.Error(t, err)

	names := ProfileNames()
	assert.Len(t, names, 5)
	assert.IsIncreasing(t, names)
}

func TestNewShlProfile(t *testing.T) {
	x := &lang.Input{Name: "%x"}
	y := &lang.Input{Name: "%y"}
	term := &lang.BinOp{Op: lang.Shl, Flags: lang.NSW, X: x, Y: y}
	vec := vectorFor(t, term, 8)

	prof, err := Lookup("newshl")
	require.NoError(t, err)

	def := New(vec, Default).Translate(term)
	alt := New(vec, prof).Translate(term)
	require.Len(t, def.Nonpoison, 1)
	require.Len(t, alt.Nonpoison, 1)

	// shifting the value 1 by width-1 is poison under the default semantics
	// but allowed under newshl
	subst := func(e smt.Expr) smt.Expr {
		return smt.Fold(smt.Substitute(e, map[string]smt.Expr{"%x": smt.BV(1, 8), "%y": smt.BV(7, 8)}))
	}
	assert.True(t, smt.IsFalse(subst(def.Nonpoison[0])))
	assert.True(t, smt.IsTrue(subst(alt.Nonpoison[0])))
}

func TestWidthOf(t *testing.T) {
	c := &lang.Symbol{Name: "C"}
	pred := &lang.Comparison{Op: lang.EQ, X: &lang.WidthOf{X: &lang.Input{Name: "%x"}}, Y: c}
	vec := vectorFor(t, pred, 8)

	res := New(vec, Default).Translate(pred)
	assert.Empty(t, res.Safe)
	assert.Empty(t, res.Defined)

	sub := func(v uint64) smt.Expr {
		return smt.Fold(smt.Substitute(res.Value, map[string]smt.Expr{"C": smt.BV(v, 8)}))
	}
	assert.True(t, smt.IsTrue(sub(8)))
	assert.True(t, smt.IsFalse(sub(4)))
}
