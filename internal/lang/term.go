package lang

import (
	"fmt"
	"strings"
)

// Term is a node in a transformation rule: an instruction, a rule input,
// a literal, or a constant expression over symbols. Terms are compared by
// identity, so every variant is a pointer type.
type Term interface {
	isTerm()
	String() string
}

// Input is a runtime value the rule matches against (written %name).
type Input struct {
	Name string
}

func (*Input) isTerm() {}
func (t *Input) String() string {
	return t.Name
}

// Symbol is a literal constant left abstract in the rule (written C, C1, ...).
// Preconditions predicate over symbols; test cases bind them to concrete
// bit-vector values.
type Symbol struct {
	Name string
}

func (*Symbol) isTerm() {}
func (t *Symbol) String() string {
	return t.Name
}

// Literal is a known integer constant.
type Literal struct {
	Val int64
}

func (*Literal) isTerm() {}
func (t *Literal) String() string {
	return fmt.Sprintf("%d", t.Val)
}

// FLiteral is a known floating-point constant. NegZero distinguishes -0.0,
// which compares equal to 0.0 but is a distinct bit pattern.
type FLiteral struct {
	Val     float64
	NegZero bool
}

func (*FLiteral) isTerm() {}
func (t *FLiteral) String() string {
	if t.NegZero {
		return "-0.0"
	}
	return fmt.Sprintf("%g", t.Val)
}

// Undef is LLVM's undef value: a fresh unconstrained value at each use.
type Undef struct{}

func (*Undef) isTerm() {}
func (*Undef) String() string {
	return "undef"
}

// Flags are the poison/fast-math flags an instruction may carry.
type Flags uint8

const (
	NSW Flags = 1 << iota
	NUW
	Exact
	NNaN
	NInf
	NSZ
)

func (f Flags) Has(flag Flags) bool { return f&flag != 0 }

func (f Flags) String() string {
	var parts []string
	for _, e := range []struct {
		flag Flags
		name string
	}{{NSW, "nsw"}, {NUW, "nuw"}, {Exact, "exact"}, {NNaN, "nnan"}, {NInf, "ninf"}, {NSZ, "nsz"}} {
		if f.Has(e.flag) {
			parts = append(parts, e.name)
		}
	}
	return strings.Join(parts, " ")
}

// BinOpKind enumerates the integer binary instructions and constant-expression
// operators.
type BinOpKind int

const (
	Add BinOpKind = iota
	Sub
	Mul
	SDiv
	UDiv
	SRem
	URem
	Shl
	AShr
	LShr
	And
	Or
	Xor
)

var binOpNames = [...]string{"add", "sub", "mul", "sdiv", "udiv", "srem", "urem", "shl", "ashr", "lshr", "and", "or", "xor"}

func (k BinOpKind) String() string {
	if int(k) < len(binOpNames) {
		return binOpNames[k]
	}
	return "?"
}

// BinOp is an integer binary instruction; Flags may add poison conditions.
type BinOp struct {
	Op    BinOpKind
	Flags Flags
	X, Y  Term
}

func (*BinOp) isTerm() {}
func (t *BinOp) String() string {
	if t.Flags != 0 {
		return fmt.Sprintf("(%s %s %s %s)", t.Op, t.Flags, t.X, t.Y)
	}
	return fmt.Sprintf("(%s %s %s)", t.Op, t.X, t.Y)
}

// FBinOpKind enumerates the floating-point binary instructions.
type FBinOpKind int

const (
	FAdd FBinOpKind = iota
	FSub
	FMul
	FDiv
	FRem
)

var fbinOpNames = [...]string{"fadd", "fsub", "fmul", "fdiv", "frem"}

func (k FBinOpKind) String() string {
	if int(k) < len(fbinOpNames) {
		return fbinOpNames[k]
	}
	return "?"
}

// FBinOp is a floating-point binary instruction with fast-math flags.
type FBinOp struct {
	Op    FBinOpKind
	Flags Flags
	X, Y  Term
}

func (*FBinOp) isTerm() {}
func (t *FBinOp) String() string {
	if t.Flags != 0 {
		return fmt.Sprintf("(%s %s %s %s)", t.Op, t.Flags, t.X, t.Y)
	}
	return fmt.Sprintf("(%s %s %s)", t.Op, t.X, t.Y)
}

// CmpOp enumerates icmp conditions (and precondition comparisons).
type CmpOp int

const (
	EQ CmpOp = iota
	NE
	UGT
	UGE
	ULT
	ULE
	SGT
	SGE
	SLT
	SLE
)

var cmpOpNames = [...]string{"eq", "ne", "ugt", "uge", "ult", "ule", "sgt", "sge", "slt", "sle"}

func (k CmpOp) String() string {
	if int(k) < len(cmpOpNames) {
		return cmpOpNames[k]
	}
	return "?"
}

// negCmpOps maps each comparison to its semantic negation.
var negCmpOps = [...]CmpOp{NE, EQ, ULE, ULT, UGE, UGT, SLE, SLT, SGE, SGT}

// Negate returns the comparison that holds exactly when k does not.
func (k CmpOp) Negate() CmpOp {
	return negCmpOps[k]
}

// Icmp is an integer comparison instruction; its result is an i1 value.
type Icmp struct {
	Op   CmpOp
	X, Y Term
}

func (*Icmp) isTerm() {}
func (t *Icmp) String() string {
	return fmt.Sprintf("(icmp %s %s %s)", t.Op, t.X, t.Y)
}

// FcmpOp enumerates fcmp conditions. Ordered comparisons are false when
// either operand is NaN; unordered ones are true.
type FcmpOp int

const (
	FcmpFalse FcmpOp = iota
	FcmpOEQ
	FcmpOGT
	FcmpOGE
	FcmpOLT
	FcmpOLE
	FcmpONE
	FcmpORD
	FcmpUEQ
	FcmpUGT
	FcmpUGE
	FcmpULT
	FcmpULE
	FcmpUNE
	FcmpUNO
	FcmpTrue
)

var fcmpOpNames = [...]string{"false", "oeq", "ogt", "oge", "olt", "ole", "one", "ord", "ueq", "ugt", "uge", "ult", "ule", "une", "uno", "true"}

func (k FcmpOp) String() string {
	if int(k) < len(fcmpOpNames) {
		return fcmpOpNames[k]
	}
	return "?"
}

// Fcmp is a floating-point comparison instruction; its result is an i1 value.
type Fcmp struct {
	Op   FcmpOp
	X, Y Term
}

func (*Fcmp) isTerm() {}
func (t *Fcmp) String() string {
	return fmt.Sprintf("(fcmp %s %s %s)", t.Op, t.X, t.Y)
}

// Select is the select instruction: Cond is an i1 value.
type Select struct {
	Cond, X, Y Term
}

func (*Select) isTerm() {}
func (t *Select) String() string {
	return fmt.Sprintf("(select %s %s %s)", t.Cond, t.X, t.Y)
}

// ConvKind enumerates the integer conversion instructions.
type ConvKind int

const (
	SExt ConvKind = iota
	ZExt
	Trunc
)

var convNames = [...]string{"sext", "zext", "trunc"}

func (k ConvKind) String() string {
	if int(k) < len(convNames) {
		return convNames[k]
	}
	return "?"
}

// Conv is an integer width conversion. Its type is independent of the
// argument's, related only by a width ordering constraint.
type Conv struct {
	Op  ConvKind
	Arg Term
}

func (*Conv) isTerm() {}
func (t *Conv) String() string {
	return fmt.Sprintf("(%s %s)", t.Op, t.Arg)
}

// ConstBinary is a binary constant expression over symbols. Unlike BinOp it
// carries no poison flags, but evaluating a division or shift may itself be
// unsafe for particular symbol values.
type ConstBinary struct {
	Op   BinOpKind
	X, Y Term
}

func (*ConstBinary) isTerm() {}
func (t *ConstBinary) String() string {
	return fmt.Sprintf("(%s %s %s)", t.Op, t.X, t.Y)
}

// ConstUnKind enumerates the unary constant-expression operators.
type ConstUnKind int

const (
	CNot ConstUnKind = iota
	CNeg
	CAbs
	CLog2
	CLeadingZeros
	CTrailingZeros
)

var constUnNames = [...]string{"not", "neg", "abs", "log2", "ctlz", "cttz"}

func (k ConstUnKind) String() string {
	if int(k) < len(constUnNames) {
		return constUnNames[k]
	}
	return "?"
}

// ConstUnary is a unary constant expression.
type ConstUnary struct {
	Op ConstUnKind
	X  Term
}

func (*ConstUnary) isTerm() {}
func (t *ConstUnary) String() string {
	return fmt.Sprintf("(%s %s)", t.Op, t.X)
}

// ConstMax is the smax/umax constant function.
type ConstMax struct {
	Signed bool
	X, Y   Term
}

func (*ConstMax) isTerm() {}
func (t *ConstMax) String() string {
	if t.Signed {
		return fmt.Sprintf("(smax %s %s)", t.X, t.Y)
	}
	return fmt.Sprintf("(umax %s %s)", t.X, t.Y)
}

// WidthOf is the bit width of its argument's type, a constant fixed by the
// type assignment rather than by symbol values.
type WidthOf struct {
	X Term
}

func (*WidthOf) isTerm() {}
func (t *WidthOf) String() string {
	return fmt.Sprintf("(width %s)", t.X)
}
