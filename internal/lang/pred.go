package lang

import (
	"fmt"
	"strings"
)

// Pred is a boolean-valued term usable in a precondition.
type Pred interface {
	Term
	isPred()
}

// TruePred is the trivial precondition.
type TruePred struct{}

func (*TruePred) isTerm() {}
func (*TruePred) isPred() {}
func (*TruePred) String() string {
	return "true"
}

// AndPred is a conjunction of predicates.
type AndPred struct {
	Clauses []Pred
}

func (*AndPred) isTerm() {}
func (*AndPred) isPred() {}
func (p *AndPred) String() string {
	return joinPreds(p.Clauses, " && ")
}

// OrPred is a disjunction of predicates.
type OrPred struct {
	Clauses []Pred
}

func (*OrPred) isTerm() {}
func (*OrPred) isPred() {}
func (p *OrPred) String() string {
	return joinPreds(p.Clauses, " || ")
}

func joinPreds(ps []Pred, sep string) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// NotPred is logical negation of a predicate.
type NotPred struct {
	P Pred
}

func (*NotPred) isTerm() {}
func (*NotPred) isPred() {}
func (p *NotPred) String() string {
	return "!" + p.P.String()
}

// Comparison compares two constant expressions. This is the comparison form
// used in preconditions, distinct from the icmp instruction whose result is
// an i1 value.
type Comparison struct {
	Op   CmpOp
	X, Y Term
}

func (*Comparison) isTerm() {}
func (*Comparison) isPred() {}
func (p *Comparison) String() string {
	return fmt.Sprintf("%s %s %s", p.X, opSigil(p.Op), p.Y)
}

func opSigil(op CmpOp) string {
	switch op {
	case EQ:
		return "=="
	case NE:
		return "!="
	default:
		return op.String()
	}
}

// FunPredKind enumerates the built-in predicate functions.
type FunPredKind int

const (
	IsPowerOf2 FunPredKind = iota
	IsPowerOf2OrZero
	IsSignBit
	MaskZero
	IsShiftedMask
	NSWAdd
	NUWAdd
	NSWSub
	NUWSub
	NSWMul
	NUWMul
	NUWShl
	OneUse
)

var funPredNames = [...]string{
	"isPowerOf2", "isPowerOf2OrZero", "isSignBit", "MaskedValueIsZero",
	"isShiftedMask", "WillNotOverflowSignedAdd", "WillNotOverflowUnsignedAdd",
	"WillNotOverflowSignedSub", "WillNotOverflowUnsignedSub",
	"WillNotOverflowSignedMul", "WillNotOverflowUnsignedMul",
	"WillNotOverflowUnsignedShl", "hasOneUse",
}

func (k FunPredKind) String() string {
	if int(k) < len(funPredNames) {
		return funPredNames[k]
	}
	return "?"
}

// Arity returns the number of arguments the predicate function takes.
func (k FunPredKind) Arity() int {
	switch k {
	case IsPowerOf2, IsPowerOf2OrZero, IsSignBit, IsShiftedMask, OneUse:
		return 1
	default:
		return 2
	}
}

// FunPred applies a built-in predicate function to constant expressions.
type FunPred struct {
	Kind FunPredKind
	Args []Term
}

func (*FunPred) isTerm() {}
func (*FunPred) isPred() {}
func (p *FunPred) String() string {
	parts := make([]string, len(p.Args))
	for i, a := range p.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", p.Kind, strings.Join(parts, ", "))
}

// Negate returns the semantic negation of p. Comparisons flip their operator
// directly; everything else is wrapped in a NotPred (double negation unwraps).
func Negate(p Pred) Pred {
	switch q := p.(type) {
	case *Comparison:
		return &Comparison{Op: q.Op.Negate(), X: q.X, Y: q.Y}
	case *NotPred:
		return q.P
	default:
		return &NotPred{P: p}
	}
}

// MkAnd conjoins clauses, avoiding a wrapper for a single clause.
func MkAnd(clauses []Pred) Pred {
	switch len(clauses) {
	case 0:
		return &TruePred{}
	case 1:
		return clauses[0]
	default:
		return &AndPred{Clauses: clauses}
	}
}

// MkOr disjoins clauses, avoiding a wrapper for a single clause.
func MkOr(clauses []Pred) Pred {
	if len(clauses) == 1 {
		return clauses[0]
	}
	return &OrPred{Clauses: clauses}
}
