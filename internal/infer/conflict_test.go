package infer

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vectorWith(good, bad int) *FeatureVector {
	v := &FeatureVector{}
	for i := 0; i < good; i++ {
		v.Good = append(v.Good, &TestCase{})
	}
	for i := 0; i < bad; i++ {
		v.Bad = append(v.Bad, &TestCase{})
	}
	return v
}

func TestStrategies(t *testing.T) {
	vectors := []*FeatureVector{
		vectorWith(3, 0), // not conflicted
		vectorWith(2, 5),
		vectorWith(4, 1),
		vectorWith(1, 1),
		vectorWith(0, 6), // not conflicted
	}

	tests := []struct {
		strategy  string
		good, bad int
	}{
		{"largest", 2, 5},
		{"smallest", 1, 1},
		{"maxpos", 4, 1},
		{"minneg", 4, 1},
	}
	for _, tt := range tests {
		t.Run(tt.strategy, func(t *testing.T) {
			cs, ok := Strategies[tt.strategy](vectors)
			require.True(t, ok)
			assert.Len(t, cs.Good, tt.good)
			assert.Len(t, cs.Bad, tt.bad)
		})
	}
}

func TestStrategyNoConflict(t *testing.T) {
	vectors := []*FeatureVector{vectorWith(3, 0), vectorWith(0, 2)}
	for name, s := range Strategies {
		_, ok := s(vectors)
		assert.False(t, ok, name)
	}
}

func TestStrategyFirstWins(t *testing.T) {
	// equal scores keep the earlier vector
	first := vectorWith(2, 2)
	second := vectorWith(2, 2)
	cs, ok := Strategies["largest"]([]*FeatureVector{first, second})
	require.True(t, ok)
	assert.Equal(t, ConflictSet{Good: first.Good, Bad: first.Bad}, cs)
}

func TestSampleConflictSetSmallEnough(t *testing.T) {
	v := vectorWith(6, 10)
	cs := ConflictSet{Good: v.Good, Bad: v.Bad}
	got := sampleConflictSet(rand.New(rand.NewSource(1)), cs)
	assert.Equal(t, cs, got, "a set at the cutoff passes through untouched")
}

func TestSampleConflictSetDownsamples(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	v := vectorWith(40, 25)
	cs := ConflictSet{Good: v.Good, Bad: v.Bad}

	for i := 0; i < 50; i++ {
		got := sampleConflictSet(rng, cs)
		assert.Equal(t, conflictSetCutoff, len(got.Good)+len(got.Bad))
		assert.NotEmpty(t, got.Good)
		assert.NotEmpty(t, got.Bad)
	}
}

func TestSampleConflictSetFewBads(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	v := vectorWith(100, 2)
	cs := ConflictSet{Good: v.Good, Bad: v.Bad}

	for i := 0; i < 50; i++ {
		got := sampleConflictSet(rng, cs)
		assert.Equal(t, conflictSetCutoff, len(got.Good)+len(got.Bad))
		assert.GreaterOrEqual(t, len(got.Good), conflictSetCutoff-2)
		assert.LessOrEqual(t, len(got.Bad), 2)
		assert.NotEmpty(t, got.Bad)
	}
}
