package infer

import (
	"fmt"
	"sort"
)

// A clause is a disjunction of signed literals over the feature list.
// Literal l >= 0 requires feature l to be Accept; l < 0 requires feature
// n+l to be Reject, where n is the feature count.

// clauseAccepts reports whether any literal of the clause holds on the
// outcome tuple.
func clauseAccepts(clause []int, key []Outcome) bool {
	n := len(key)
	for _, l := range clause {
		if l < 0 {
			if key[n+l] == Reject {
				return true
			}
		} else if key[l] == Accept {
			return true
		}
	}
	return false
}

func consistentClause(clause []int, keys [][]Outcome) bool {
	for _, k := range keys {
		if !clauseAccepts(clause, k) {
			return false
		}
	}
	return true
}

// learnBoolean finds a CNF formula over the features that accepts every good
// outcome tuple and rejects every bad one. Clauses are enumerated by growing
// literal count and selected greedily by how many still-uncovered bad tuples
// each excludes, ties broken toward the earliest-enumerated clause.
func learnBoolean(featureCount int, goods, bads [][]Outcome, rep Reporter) ([][]int, error) {
	lits := make([]int, 0, 2*featureCount)
	for l := -featureCount; l < featureCount; l++ {
		lits = append(lits, l)
	}

	var clauses [][]int
	var excludedBy []map[int]bool       // clause id -> bad ids it excludes
	excluding := map[int]map[int]bool{} // exclusion count -> clause ids
	excludes := map[int][]int{}         // bad id -> clause ids excluding it

	k := 0
	for len(excludes) < len(bads) {
		k++
		if k > featureCount {
			return nil, fmt.Errorf("infer: no %d-literal CNF over %d features excludes all negative tuples",
				featureCount, featureCount)
		}
		rep.OnClauseSizeIncrease(k)

		combinations(lits, k, func(c []int) {
			if consistentClause(c, goods) {
				clauses = append(clauses, append([]int(nil), c...))
			}
		})

		for c := len(excludedBy); c < len(clauses); c++ {
			exc := make(map[int]bool)
			for v, key := range bads {
				if !clauseAccepts(clauses[c], key) {
					exc[v] = true
					excludes[v] = append(excludes[v], c)
				}
			}
			excludedBy = append(excludedBy, exc)
			bucket(excluding, len(exc))[c] = true
		}
	}

	var cover [][]int

	maxS := 0
	for s := range excluding {
		if s > maxS {
			maxS = s
		}
	}

	for s := maxS; s >= 1; s-- {
		cs := excluding[s]
		for len(cs) > 0 {
			c := minKey(cs)
			delete(cs, c)

			cover = append(cover, clauses[c])
			rep.OnClauseAdded(len(cover))

			// drop every bad tuple this clause excludes from the other
			// clauses' books
			for _, v := range sortedKeys(excludedBy[c]) {
				for _, xc := range excludes[v] {
					if xc == c {
						continue
					}
					exc := excludedBy[xc]
					delete(bucket(excluding, len(exc)), xc)
					delete(exc, v)
					bucket(excluding, len(exc))[xc] = true
				}
				delete(excludes, v)
			}
		}
	}

	return cover, nil
}

func bucket(m map[int]map[int]bool, n int) map[int]bool {
	b, ok := m[n]
	if !ok {
		b = make(map[int]bool)
		m[n] = b
	}
	return b
}

func minKey(set map[int]bool) int {
	min, first := 0, true
	for k := range set {
		if first || k < min {
			min, first = k, false
		}
	}
	return min
}

func sortedKeys(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// combinations calls fn with each k-subset of xs in lexicographic order. The
// slice passed to fn is reused between calls.
func combinations(xs []int, k int, fn func([]int)) {
	if k > len(xs) {
		return
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	buf := make([]int, k)
	for {
		for i, j := range idx {
			buf[i] = xs[j]
		}
		fn(buf)

		i := k - 1
		for i >= 0 && idx[i] == i+len(xs)-k {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
