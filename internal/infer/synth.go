package infer

import (
	"github.com/cexlab/prex/internal/enum"
	"github.com/cexlab/prex/internal/translate"
	"github.com/cexlab/prex/internal/typing"
)

// synthesizer walks the candidate-predicate sequence looking for features
// that divide one of the sampled conflict splits. It is a single-use
// iterator; the underlying enumeration resumes where the previous call
// stopped.
type synthesizer struct {
	samples []ConflictSet
	en      *enum.Enum
	model   *typing.Model
	prof    *translate.Profile
	rep     Reporter
}

// next returns the next dividing feature. A candidate divides a split when
// it is safe on all of the split's good cases, does not scatter them across
// both truth values, and separates some good case from some bad case. It
// reports ok=false if the enumeration exhausts, which only happens for rules
// without integer symbols.
func (s *synthesizer) next() (*Feature, bool, error) {
	for {
		pred, ok := s.en.Next()
		if !ok {
			return nil, false, nil
		}
		s.rep.OnFeatureConsidered()

		f, err := newFeature(pred, s.model)
		if err != nil {
			return nil, false, err
		}

		for _, smp := range s.samples {
			var goodRes [3]int
			for _, g := range smp.Good {
				goodRes[f.eval(g, s.prof)]++
			}
			if goodRes[Unsafe] > 0 || (goodRes[Accept] > 0 && goodRes[Reject] > 0) {
				continue
			}

			var badRes [3]int
			for _, b := range smp.Bad {
				badRes[f.eval(b, s.prof)]++
			}

			if (goodRes[Accept] > 0 && badRes[Accept] == 0) ||
				(goodRes[Reject] > 0 && badRes[Reject] == 0) {
				return f, true, nil
			}
		}
	}
}
