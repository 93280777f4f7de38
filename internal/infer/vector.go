package infer

import (
	"github.com/cexlab/prex/internal/translate"
)

// FeatureVector groups test cases by their per-feature outcome tuple. The
// tuple is extended by one outcome every time a feature is accepted.
type FeatureVector struct {
	Key  []Outcome
	Good []*TestCase
	Bad  []*TestCase
}

// conflicted reports whether the vector holds both good and bad cases, which
// means the current features cannot separate them.
func (v *FeatureVector) conflicted() bool {
	return len(v.Good) > 0 && len(v.Bad) > 0
}

func partitionCases(f *Feature, prof *translate.Profile, cases []*TestCase) [3][]*TestCase {
	var parts [3][]*TestCase
	for _, tc := range cases {
		r := f.eval(tc, prof)
		parts[r] = append(parts[r], tc)
	}
	return parts
}

// extendVectors splits every vector by the feature's outcome, producing up to
// three sub-vectors each. It reports ok=false, leaving the input untouched,
// when the feature is unsafe on any good case: such a feature has no truth
// value for an instance the learner must accept.
func extendVectors(vectors []*FeatureVector, f *Feature, prof *translate.Profile) ([]*FeatureVector, bool) {
	var out []*FeatureVector
	for _, v := range vectors {
		goodP := partitionCases(f, prof, v.Good)
		badP := partitionCases(f, prof, v.Bad)

		if len(goodP[Unsafe]) > 0 {
			return nil, false
		}

		for r := Outcome(0); r < 3; r++ {
			if len(goodP[r]) == 0 && len(badP[r]) == 0 {
				continue
			}
			key := make([]Outcome, len(v.Key)+1)
			copy(key, v.Key)
			key[len(v.Key)] = r
			out = append(out, &FeatureVector{Key: key, Good: goodP[r], Bad: badP[r]})
		}
	}
	return out, true
}
