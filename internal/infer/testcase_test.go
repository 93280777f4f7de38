package infer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cexlab/prex/internal/lang"
	"github.com/cexlab/prex/internal/smt"
	"github.com/cexlab/prex/internal/typing"
)

func bvValue(t *testing.T, tc *TestCase, name string) uint64 {
	t.Helper()
	lit, ok := tc.Values[name].(*smt.BVLit)
	require.True(t, ok)
	return lit.V
}

func collectVecs(t *testing.T, m *typing.Model) []*typing.Vector {
	t.Helper()
	var out []*typing.Vector
	it := m.Vectors()
	for {
		v, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

func TestCornerValues(t *testing.T) {
	assert.Equal(t, []uint64{0, 1}, cornerValues(1))
	assert.Equal(t, []uint64{0, 1, 0xff, 0x80}, cornerValues(8))
	assert.Equal(t, []uint64{0, 1, ^uint64(0), 1 << 63}, cornerValues(64))
}

func TestCornerCases(t *testing.T) {
	assert.Nil(t, cornerCases(nil))

	rows := cornerCases([]int{8, 1})
	require.Len(t, rows, 8)
	assert.Equal(t, []uint64{0, 0}, rows[0])
	assert.Equal(t, []uint64{0, 1}, rows[1])
	assert.Equal(t, []uint64{0x80, 1}, rows[7])
}

func TestCaseKey(t *testing.T) {
	assert.Equal(t, "0,1,255", caseKey([]uint64{0, 1, 255}))
	assert.Equal(t, "", caseKey(nil))
	assert.NotEqual(t, caseKey([]uint64{1, 2}), caseKey([]uint64{12}))
}

func TestNewTestCase(t *testing.T) {
	c := &lang.Symbol{Name: "C"}
	m := typing.NewModel()
	require.NoError(t, m.Extend(&lang.Comparison{Op: lang.EQ, X: c, Y: &lang.Literal{Val: 0}}))

	vec, ok := m.Vectors().Next()
	require.True(t, ok)
	w := vec.TypeOf(c).(lang.IntType).Bits

	tc := newTestCase(vec, []*lang.Symbol{c}, []uint64{3})
	require.Contains(t, tc.Values, "C")
	assert.Equal(t, uint64(3)&(^uint64(0)>>uint(64-w)), bvValue(t, tc, "C"))
}

func TestExponentialSample(t *testing.T) {
	x := &lang.Input{Name: "%x"}
	m := typing.NewModel()
	require.NoError(t, m.Extend(&lang.BinOp{Op: lang.Add, X: x, Y: x}))

	// one integer variable enumerates one vector per width; the sampler
	// keeps positions 0, 1, 2 and 4
	vecs := exponentialSample(m.Vectors())
	require.Len(t, vecs, 4)

	all := collectVecs(t, m)
	assert.Equal(t, all[0].Key(), vecs[0].Key())
	assert.Equal(t, all[1].Key(), vecs[1].Key())
	assert.Equal(t, all[2].Key(), vecs[2].Key())
	assert.Equal(t, all[4].Key(), vecs[3].Key())
}
