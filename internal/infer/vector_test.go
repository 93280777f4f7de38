package infer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cexlab/prex/internal/lang"
	"github.com/cexlab/prex/internal/translate"
	"github.com/cexlab/prex/internal/typing"
)

// caseFor builds a test case binding the symbols to vals under the model's
// first type assignment.
func caseFor(t *testing.T, m *typing.Model, symbols []*lang.Symbol, vals []uint64) *TestCase {
	t.Helper()
	vec, ok := m.Vectors().Next()
	require.True(t, ok)
	return newTestCase(vec, symbols, vals)
}

func TestFeatureEval(t *testing.T) {
	c := &lang.Symbol{Name: "C"}
	m := typing.NewModel()

	f, err := newFeature(&lang.Comparison{Op: lang.EQ, X: c, Y: &lang.Literal{Val: 0}}, m)
	require.NoError(t, err)

	zero := caseFor(t, m, []*lang.Symbol{c}, []uint64{0})
	one := caseFor(t, m, []*lang.Symbol{c}, []uint64{1})

	assert.Equal(t, Accept, f.eval(zero, translate.Default))
	assert.Equal(t, Reject, f.eval(one, translate.Default))
}

func TestFeatureEvalUnsafe(t *testing.T) {
	c := &lang.Symbol{Name: "C"}
	m := typing.NewModel()

	// udiv by C is undefined when C is zero
	div := &lang.ConstBinary{Op: lang.UDiv, X: &lang.Literal{Val: 1}, Y: c}
	f, err := newFeature(&lang.Comparison{Op: lang.EQ, X: div, Y: &lang.Literal{Val: 1}}, m)
	require.NoError(t, err)

	zero := caseFor(t, m, []*lang.Symbol{c}, []uint64{0})
	one := caseFor(t, m, []*lang.Symbol{c}, []uint64{1})

	assert.Equal(t, Unsafe, f.eval(zero, translate.Default))
	assert.Equal(t, Accept, f.eval(one, translate.Default))
}

func TestExtendVectors(t *testing.T) {
	c := &lang.Symbol{Name: "C"}
	m := typing.NewModel()

	f, err := newFeature(&lang.Comparison{Op: lang.EQ, X: c, Y: &lang.Literal{Val: 0}}, m)
	require.NoError(t, err)

	zero := caseFor(t, m, []*lang.Symbol{c}, []uint64{0})
	one := caseFor(t, m, []*lang.Symbol{c}, []uint64{1})

	root := &FeatureVector{Good: []*TestCase{zero}, Bad: []*TestCase{one, zero}}
	require.True(t, root.conflicted())

	out, ok := extendVectors([]*FeatureVector{root}, f, translate.Default)
	require.True(t, ok)
	require.Len(t, out, 2)

	assert.Equal(t, []Outcome{Reject}, out[0].Key)
	assert.Empty(t, out[0].Good)
	assert.Len(t, out[0].Bad, 1)
	assert.False(t, out[0].conflicted())

	assert.Equal(t, []Outcome{Accept}, out[1].Key)
	assert.Len(t, out[1].Good, 1)
	assert.Len(t, out[1].Bad, 1)
	assert.True(t, out[1].conflicted())
}

func TestExtendVectorsRefusesUnsafeGood(t *testing.T) {
	c := &lang.Symbol{Name: "C"}
	m := typing.NewModel()

	div := &lang.ConstBinary{Op: lang.UDiv, X: &lang.Literal{Val: 1}, Y: c}
	f, err := newFeature(&lang.Comparison{Op: lang.EQ, X: div, Y: &lang.Literal{Val: 1}}, m)
	require.NoError(t, err)

	zero := caseFor(t, m, []*lang.Symbol{c}, []uint64{0})

	root := &FeatureVector{Good: []*TestCase{zero}}
	out, ok := extendVectors([]*FeatureVector{root}, f, translate.Default)
	assert.False(t, ok)
	assert.Nil(t, out)
}
