package infer

import (
	"math/rand"
)

// conflictSetCutoff bounds the number of cases handed to the synthesizer at
// once; larger conflict sets are randomly downsampled to this size.
const conflictSetCutoff = 16

// conflictSamples is how many independent downsamples are drawn from an
// oversized conflict set.
const conflictSamples = 5

// ConflictSet is a group of good and bad cases sharing a feature vector.
type ConflictSet struct {
	Good, Bad []*TestCase
}

// Strategy picks which conflicted vector to resolve next. It reports
// ok=false when no vector is conflicted.
type Strategy func(vectors []*FeatureVector) (ConflictSet, bool)

func pickConflict(vectors []*FeatureVector, score func(g, b int) int) (ConflictSet, bool) {
	best := 0
	var chosen ConflictSet
	found := false
	for _, v := range vectors {
		if !v.conflicted() {
			continue
		}
		val := score(len(v.Good), len(v.Bad))
		if val > best || !found {
			best = val
			chosen = ConflictSet{Good: v.Good, Bad: v.Bad}
			found = true
		}
	}
	return chosen, found
}

// Strategies are the selectable conflict-set heuristics.
var Strategies = map[string]Strategy{
	"largest": func(vs []*FeatureVector) (ConflictSet, bool) {
		return pickConflict(vs, func(g, b int) int { return g + b })
	},
	"smallest": func(vs []*FeatureVector) (ConflictSet, bool) {
		return pickConflict(vs, func(g, b int) int { return -g - b })
	},
	"maxpos": func(vs []*FeatureVector) (ConflictSet, bool) {
		return pickConflict(vs, func(g, b int) int { return g })
	},
	"minneg": func(vs []*FeatureVector) (ConflictSet, bool) {
		return pickConflict(vs, func(g, b int) int { return -b })
	},
}

func sampleCases(rng *rand.Rand, cases []*TestCase, n int) []*TestCase {
	idx := rng.Perm(len(cases))[:n]
	out := make([]*TestCase, n)
	for i, j := range idx {
		out[i] = cases[j]
	}
	return out
}

// sampleConflictSet downsamples an oversized conflict set to the cutoff,
// drawing a random split between good and bad cases so both sides stay
// represented.
func sampleConflictSet(rng *rand.Rand, cs ConflictSet) ConflictSet {
	if len(cs.Good)+len(cs.Bad) <= conflictSetCutoff {
		return cs
	}

	lo := 1
	if conflictSetCutoff-len(cs.Bad) > lo {
		lo = conflictSetCutoff - len(cs.Bad)
	}
	hi := conflictSetCutoff
	if len(cs.Good)+1 < hi {
		hi = len(cs.Good) + 1
	}
	x := lo + rng.Intn(hi-lo)

	return ConflictSet{
		Good: sampleCases(rng, cs.Good, x),
		Bad:  sampleCases(rng, cs.Bad, conflictSetCutoff-x),
	}
}
