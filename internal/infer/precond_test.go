package infer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cexlab/prex/internal/lang"
)

func featureList(preds ...lang.Pred) []*Feature {
	out := make([]*Feature, len(preds))
	for i, p := range preds {
		out[i] = &Feature{Pred: p}
	}
	return out
}

func TestMakePrecondition(t *testing.T) {
	f := featureList(
		&lang.Comparison{Op: lang.EQ, X: &lang.Symbol{Name: "C"}, Y: &lang.Literal{Val: 0}},
	)
	vectors := []*FeatureVector{
		{Key: []Outcome{Accept}, Good: []*TestCase{{}, {}}},
		{Key: []Outcome{Reject}, Bad: []*TestCase{{}}},
	}

	pre, cov, err := makePrecondition(f, vectors, false, NopReporter{})
	require.NoError(t, err)
	assert.Equal(t, "C == 0", pre.String())
	assert.Equal(t, 2, cov)
}

func TestMakePreconditionNegated(t *testing.T) {
	f := featureList(
		&lang.Comparison{Op: lang.ULT, X: &lang.Symbol{Name: "C1"}, Y: &lang.Symbol{Name: "C2"}},
	)
	vectors := []*FeatureVector{
		{Key: []Outcome{Reject}, Good: []*TestCase{{}}},
		{Key: []Outcome{Accept}, Bad: []*TestCase{{}}},
	}

	pre, cov, err := makePrecondition(f, vectors, false, NopReporter{})
	require.NoError(t, err)
	cmp, ok := pre.(*lang.Comparison)
	require.True(t, ok, "comparisons negate by flipping the operator")
	assert.Equal(t, lang.UGE, cmp.Op)
	assert.Equal(t, 1, cov)
}

func TestMakePreconditionIncomplete(t *testing.T) {
	f := featureList(
		&lang.Comparison{Op: lang.EQ, X: &lang.Symbol{Name: "C"}, Y: &lang.Literal{Val: 0}},
		&lang.FunPred{Kind: lang.IsPowerOf2, Args: []lang.Term{&lang.Symbol{Name: "C"}}},
	)
	vectors := []*FeatureVector{
		{Key: []Outcome{Accept, Reject}, Good: []*TestCase{{}}},
		{Key: []Outcome{Reject, Accept}, Good: []*TestCase{{}, {}, {}}},
		{Key: []Outcome{Reject, Reject}, Bad: []*TestCase{{}}},
	}

	// incomplete mode only needs to cover the largest pure-good vector
	pre, cov, err := makePrecondition(f, vectors, true, NopReporter{})
	require.NoError(t, err)
	assert.Equal(t, "isPowerOf2(C)", pre.String())
	assert.Equal(t, 3, cov)
}

func TestMakePreconditionTrueWhenNoBads(t *testing.T) {
	f := featureList(
		&lang.Comparison{Op: lang.EQ, X: &lang.Symbol{Name: "C"}, Y: &lang.Literal{Val: 0}},
	)
	vectors := []*FeatureVector{
		{Key: []Outcome{Accept}, Good: []*TestCase{{}}},
		{Key: []Outcome{Reject}, Good: []*TestCase{{}}},
	}

	pre, cov, err := makePrecondition(f, vectors, false, NopReporter{})
	require.NoError(t, err)
	assert.IsType(t, &lang.TruePred{}, pre)
	assert.Equal(t, 2, cov)
}
