// Package enum generates candidate precondition predicates over the symbolic
// constants of a rule. The sequence is deterministic, effectively infinite,
// and ordered so that structurally simple predicates come first.
package enum

import (
	"github.com/cexlab/prex/internal/lang"
)

// Config describes the symbols available to the enumerator. Each group holds
// symbols sharing one type variable; only symbols within a group are
// comparable to each other. Float-typed groups are skipped, preconditions
// over float constants are not enumerated.
type Config struct {
	Groups   [][]*lang.Symbol
	IntGroup []bool // parallel to Groups
}

var cmpOps = []lang.CmpOp{lang.EQ, lang.SLT, lang.SGT, lang.ULT, lang.UGT}

var unaryFuns = []lang.FunPredKind{
	lang.IsPowerOf2, lang.IsPowerOf2OrZero, lang.IsSignBit, lang.IsShiftedMask,
}

var binaryFuns = []lang.FunPredKind{
	lang.MaskZero, lang.NSWAdd, lang.NUWAdd, lang.NSWSub, lang.NUWSub,
	lang.NSWMul, lang.NUWMul, lang.NUWShl,
}

// Enum is a single-consumer iterator over candidate predicates. It is not
// restartable; a fresh Enum starts the sequence over.
type Enum struct {
	groups [][]*lang.Symbol
	round  int
	buf    []lang.Pred
	empty  bool
}

func New(cfg Config) *Enum {
	var groups [][]*lang.Symbol
	for i, g := range cfg.Groups {
		if cfg.IntGroup[i] && len(g) > 0 {
			groups = append(groups, g)
		}
	}
	return &Enum{groups: groups, empty: len(groups) == 0}
}

// Next returns the next candidate predicate. It reports false only when no
// integer symbols exist, otherwise the sequence never ends.
func (e *Enum) Next() (lang.Pred, bool) {
	if e.empty {
		return nil, false
	}
	for len(e.buf) == 0 {
		e.generate(e.round)
		e.round++
	}
	p := e.buf[0]
	e.buf = e.buf[1:]
	return p, true
}

func (e *Enum) emit(p lang.Pred) { e.buf = append(e.buf, p) }

func (e *Enum) generate(round int) {
	switch round {
	case 0:
		// each symbol against zero
		e.literalRound(0)
	case 1:
		// symbol pairs within a group
		for _, g := range e.groups {
			for i := 0; i < len(g); i++ {
				for j := i + 1; j < len(g); j++ {
					for _, op := range cmpOps {
						e.emit(&lang.Comparison{Op: op, X: g[i], Y: g[j]})
					}
				}
			}
		}
	case 2:
		for _, g := range e.groups {
			for _, s := range g {
				for _, k := range unaryFuns {
					e.emit(&lang.FunPred{Kind: k, Args: []lang.Term{s}})
				}
			}
		}
	case 3:
		e.literalRound(1)
		e.literalRound(-1)
		for _, g := range e.groups {
			for i := 0; i < len(g); i++ {
				for j := 0; j < len(g); j++ {
					if i == j {
						continue
					}
					for _, k := range binaryFuns {
						e.emit(&lang.FunPred{Kind: k, Args: []lang.Term{g[i], g[j]}})
					}
				}
			}
		}
	default:
		// growing literal magnitudes keep the sequence unbounded
		v := int64(1) << uint(round-3)
		e.literalRound(v)
		e.literalRound(-v)
	}
}

func (e *Enum) literalRound(v int64) {
	for _, g := range e.groups {
		for _, s := range g {
			for _, op := range cmpOps {
				e.emit(&lang.Comparison{Op: op, X: s, Y: &lang.Literal{Val: v}})
			}
		}
	}
}
