package smt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendSatisfiable(t *testing.T) {
	b := NewBackend()
	x := &Var{Name: "x", S: BVSort(4)}

	sat, err := b.Satisfiable(&Eq{X: x, Y: BV(3, 4)})
	require.NoError(t, err)
	assert.True(t, sat)

	sat, err = b.Satisfiable(&Not{X: &Eq{X: x, Y: x}})
	require.NoError(t, err)
	assert.False(t, sat)
}

func TestBackendModelsBlockAndExhaust(t *testing.T) {
	b := NewBackend()
	x := &Var{Name: "x", S: BVSort(4)}

	it := b.Models(&Eq{X: x, Y: BV(3, 4)}, []*Var{x})
	m, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, uint64(3), m["x"])

	_, ok = it.Next()
	assert.False(t, ok)
	assert.NoError(t, it.Err())
}

func TestBackendModelsSkipUnconstrained(t *testing.T) {
	b := NewBackend()
	x := &Var{Name: "x", S: BVSort(4)}

	// x does not occur in the query, so no model binds it; an assignment
	// that could take any value does not reproduce a concrete case
	it := b.Models(True, []*Var{x})
	_, ok := it.Next()
	assert.False(t, ok)
	assert.NoError(t, it.Err())
}
