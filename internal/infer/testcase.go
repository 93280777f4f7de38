package infer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cexlab/prex/internal/lang"
	"github.com/cexlab/prex/internal/smt"
	"github.com/cexlab/prex/internal/typing"
)

// TestCase binds every symbol of the rule to a concrete bit-vector value
// under one type assignment.
type TestCase struct {
	Vec    *typing.Vector
	Values map[string]smt.Expr
}

func newTestCase(vec *typing.Vector, symbols []*lang.Symbol, vals []uint64) *TestCase {
	values := make(map[string]smt.Expr, len(symbols))
	for i, s := range symbols {
		w := vec.TypeOf(s).(lang.IntType).Bits
		values[s.Name] = smt.BV(vals[i], w)
	}
	return &TestCase{Vec: vec, Values: values}
}

func (tc *TestCase) String() string {
	names := make([]string, 0, len(tc.Values))
	for n := range tc.Values {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s=%s", n, tc.Values[n])
	}
	return tc.Vec.String() + "{" + strings.Join(parts, " ") + "}"
}

func caseKey(vals []uint64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ",")
}

// cornerValues are the boundary values probed for each width: zero, one,
// all-ones and the sign bit.
func cornerValues(width int) []uint64 {
	if width == 1 {
		return []uint64{0, 1}
	}
	mask := ^uint64(0) >> uint(64-width)
	return []uint64{0, 1, mask, 1 << uint(width-1)}
}

// cornerCases enumerates every combination of corner values for the widths.
func cornerCases(widths []int) [][]uint64 {
	out := [][]uint64{nil}
	for _, w := range widths {
		var next [][]uint64
		for _, prefix := range out {
			for _, v := range cornerValues(w) {
				row := make([]uint64, len(prefix)+1)
				copy(row, prefix)
				row[len(prefix)] = v
				next = append(next, row)
			}
		}
		out = next
	}
	if len(widths) == 0 {
		return nil
	}
	return out
}

// exponentialSample drains the iterator keeping elements 0, 1, 2, 4, 8, and
// so on, thinning the tail of large type spaces.
func exponentialSample(it *typing.VectorIter) []*typing.Vector {
	var out []*typing.Vector
	for i := 0; i < 2; i++ {
		v, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, v)
	}
	skip := 1
	for {
		var v *typing.Vector
		ok := false
		for i := 0; i < skip; i++ {
			v, ok = it.Next()
			if !ok {
				return out
			}
		}
		out = append(out, v)
		skip *= 2
	}
}
