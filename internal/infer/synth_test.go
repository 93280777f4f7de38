package infer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cexlab/prex/internal/enum"
	"github.com/cexlab/prex/internal/lang"
	"github.com/cexlab/prex/internal/translate"
	"github.com/cexlab/prex/internal/typing"
)

type mockReporter struct {
	mock.Mock
}

func (m *mockReporter) OnTestCases(good, bad int)                { m.Called(good, bad) }
func (m *mockReporter) OnRoundBegin(round int)                   { m.Called(round) }
func (m *mockReporter) OnFeatureConsidered()                     { m.Called() }
func (m *mockReporter) OnFeatureAccepted(count int, p lang.Pred) { m.Called(count, p) }
func (m *mockReporter) OnClauseSizeIncrease(k int)               { m.Called(k) }
func (m *mockReporter) OnClauseAdded(total int)                  { m.Called(total) }
func (m *mockReporter) OnPreconditionCheck()                     { m.Called() }

func TestSynthesizerFindsDividingFeature(t *testing.T) {
	c := &lang.Symbol{Name: "C"}
	m := typing.NewModel()
	require.NoError(t, m.Extend(&lang.BinOp{Op: lang.Add, X: &lang.Input{Name: "%x"}, Y: c}))

	vec, ok := m.Vectors().Next()
	require.True(t, ok)

	rep := &mockReporter{}
	rep.On("OnFeatureConsidered").Return()

	syn := &synthesizer{
		samples: []ConflictSet{{
			Good: []*TestCase{newTestCase(vec, []*lang.Symbol{c}, []uint64{0})},
			Bad:  []*TestCase{newTestCase(vec, []*lang.Symbol{c}, []uint64{1})},
		}},
		en:    enum.New(enum.Config{Groups: [][]*lang.Symbol{{c}}, IntGroup: []bool{true}}),
		model: m,
		prof:  translate.Default,
		rep:   rep,
	}

	f, ok, err := syn.next()
	require.NoError(t, err)
	require.True(t, ok)

	// the first enumerated candidate, C == 0, already separates the cases
	cmp, isCmp := f.Pred.(*lang.Comparison)
	require.True(t, isCmp)
	assert.Equal(t, lang.EQ, cmp.Op)
	rep.AssertCalled(t, "OnFeatureConsidered")
}

func TestSynthesizerSkipsScatteringFeature(t *testing.T) {
	c := &lang.Symbol{Name: "C"}
	m := typing.NewModel()
	require.NoError(t, m.Extend(&lang.Comparison{Op: lang.EQ, X: c, Y: &lang.Literal{Val: 0}}))

	vec := vectorOfWidth(t, m, c, 8)

	rep := &mockReporter{}
	rep.On("OnFeatureConsidered").Return()

	// goods land on both sides of C == 0, so the synthesizer must move past
	// it to a candidate that keeps the goods together
	syn := &synthesizer{
		samples: []ConflictSet{{
			Good: []*TestCase{
				newTestCase(vec, []*lang.Symbol{c}, []uint64{0}),
				newTestCase(vec, []*lang.Symbol{c}, []uint64{1}),
			},
			Bad: []*TestCase{newTestCase(vec, []*lang.Symbol{c}, []uint64{2})},
		}},
		en:    enum.New(enum.Config{Groups: [][]*lang.Symbol{{c}}, IntGroup: []bool{true}}),
		model: m,
		prof:  translate.Default,
		rep:   rep,
	}

	f, ok, err := syn.next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, "C == 0", f.Pred.String())
	assert.Greater(t, len(rep.Calls), 1, "earlier candidates were considered and skipped")
}

func vectorOfWidth(t *testing.T, m *typing.Model, c *lang.Symbol, bits int) *typing.Vector {
	t.Helper()
	it := m.Vectors()
	for {
		v, ok := it.Next()
		require.True(t, ok)
		if v.TypeOf(c).(lang.IntType).Bits == bits {
			return v
		}
	}
}

func TestSynthesizerExhaustsWithoutSymbols(t *testing.T) {
	rep := &mockReporter{}
	syn := &synthesizer{
		samples: []ConflictSet{{}},
		en:      enum.New(enum.Config{}),
		model:   typing.NewModel(),
		prof:    translate.Default,
		rep:     rep,
	}
	_, ok, err := syn.next()
	require.NoError(t, err)
	assert.False(t, ok)
}
