package infer

import (
	"github.com/cexlab/prex/internal/lang"
)

// makePrecondition learns a CNF formula over the accepted features that holds
// on the positive vectors and fails on the negative ones, then renders it as
// a predicate. When incomplete is set, only the positive vector with the most
// good cases must be accepted, yielding a possibly too-strong precondition
// early. The returned coverage counts the good cases the formula accepts.
func makePrecondition(features []*Feature, vectors []*FeatureVector, incomplete bool, rep Reporter) (lang.Pred, int, error) {
	var pos [][]Outcome
	if incomplete {
		var best *FeatureVector
		for _, v := range vectors {
			if len(v.Bad) > 0 {
				continue
			}
			if best == nil || len(v.Good) > len(best.Good) {
				best = v
			}
		}
		pos = [][]Outcome{best.Key}
	} else {
		for _, v := range vectors {
			if len(v.Bad) == 0 {
				pos = append(pos, v.Key)
			}
		}
	}

	var neg [][]Outcome
	for _, v := range vectors {
		if len(v.Bad) > 0 {
			neg = append(neg, v.Key)
		}
	}

	clauses, err := learnBoolean(len(features), pos, neg, rep)
	if err != nil {
		return nil, 0, err
	}

	coverage := 0
	for _, v := range vectors {
		if len(v.Bad) > 0 {
			continue
		}
		accepted := true
		for _, c := range clauses {
			if !clauseAccepts(c, v.Key) {
				accepted = false
				break
			}
		}
		if accepted {
			coverage += len(v.Good)
		}
	}

	n := len(features)
	conj := make([]lang.Pred, len(clauses))
	for i, c := range clauses {
		disj := make([]lang.Pred, len(c))
		for j, l := range c {
			if l < 0 {
				disj[j] = lang.Negate(features[n+l].Pred)
			} else {
				disj[j] = features[l].Pred
			}
		}
		conj[i] = lang.MkOr(disj)
	}

	return lang.MkAnd(conj), coverage, nil
}
