package parse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cexlab/prex/internal/lang"
)

// Decl is one parsed rule together with its auxiliary clauses: assumptions
// taken as given during inference and predicates seeding the feature list.
type Decl struct {
	Rule     *lang.Rule
	Assumes  []lang.Pred
	Features []lang.Pred
}

// Parse reads every rule declaration in the input.
func Parse(input string) ([]*Decl, error) {
	p := &Parser{tokens: NewLexer(input).Tokenize()}
	var decls []*Decl
	for p.peek().Type != TokenEOF {
		d, err := p.parseDecl()
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	return decls, nil
}

// Parser consumes tokens produced by the lexer and builds rule declarations.
type Parser struct {
	tokens  []Token
	current int

	// atoms interns named inputs and symbols within one declaration so
	// that every occurrence of %x or C1 is the same node. Terms compare
	// by identity downstream.
	atoms map[string]lang.Term
}

func (p *Parser) peek() Token {
	return p.tokens[p.current]
}

func (p *Parser) next() Token {
	t := p.tokens[p.current]
	if t.Type != TokenEOF {
		p.current++
	}
	return t
}

func (p *Parser) expect(tt TokenType) (Token, error) {
	t := p.next()
	if t.Type != tt {
		return t, fmt.Errorf("parse: line %d: expected %s, found %s", t.Line, tt, t)
	}
	return t, nil
}

func (p *Parser) expectAtom(value string) error {
	t, err := p.expect(TokenAtom)
	if err != nil {
		return err
	}
	if t.Value != value {
		return fmt.Errorf("parse: line %d: expected %q, found %q", t.Line, value, t.Value)
	}
	return nil
}

func (p *Parser) parseDecl() (*Decl, error) {
	p.atoms = make(map[string]lang.Term)
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	if err := p.expectAtom("rule"); err != nil {
		return nil, err
	}
	name, err := p.expect(TokenString)
	if err != nil {
		return nil, err
	}

	d := &Decl{Rule: &lang.Rule{Name: name.Value}}
	for p.peek().Type != TokenRParen {
		if err := p.parseClause(d); err != nil {
			return nil, err
		}
	}
	p.next() // closing paren

	if d.Rule.Src == nil || d.Rule.Tgt == nil {
		return nil, fmt.Errorf("parse: line %d: rule %q needs both src and tgt clauses", name.Line, name.Value)
	}
	return d, nil
}

func (p *Parser) parseClause(d *Decl) error {
	if _, err := p.expect(TokenLParen); err != nil {
		return err
	}
	head, err := p.expect(TokenAtom)
	if err != nil {
		return err
	}

	switch head.Value {
	case "pre":
		pre, err := p.parsePred()
		if err != nil {
			return err
		}
		d.Rule.Pre = pre
	case "src":
		src, err := p.parseValue()
		if err != nil {
			return err
		}
		d.Rule.Src = src
	case "tgt":
		tgt, err := p.parseValue()
		if err != nil {
			return err
		}
		d.Rule.Tgt = tgt
	case "assume":
		a, err := p.parsePred()
		if err != nil {
			return err
		}
		d.Assumes = append(d.Assumes, a)
	case "feature":
		f, err := p.parsePred()
		if err != nil {
			return err
		}
		d.Features = append(d.Features, f)
	default:
		return fmt.Errorf("parse: line %d: unknown clause %q", head.Line, head.Value)
	}

	_, err = p.expect(TokenRParen)
	return err
}

var binOps = map[string]lang.BinOpKind{
	"add": lang.Add, "sub": lang.Sub, "mul": lang.Mul,
	"sdiv": lang.SDiv, "udiv": lang.UDiv, "srem": lang.SRem, "urem": lang.URem,
	"shl": lang.Shl, "ashr": lang.AShr, "lshr": lang.LShr,
	"and": lang.And, "or": lang.Or, "xor": lang.Xor,
}

var fbinOps = map[string]lang.FBinOpKind{
	"fadd": lang.FAdd, "fsub": lang.FSub, "fmul": lang.FMul,
	"fdiv": lang.FDiv, "frem": lang.FRem,
}

var cmpOps = map[string]lang.CmpOp{
	"eq": lang.EQ, "ne": lang.NE,
	"ugt": lang.UGT, "uge": lang.UGE, "ult": lang.ULT, "ule": lang.ULE,
	"sgt": lang.SGT, "sge": lang.SGE, "slt": lang.SLT, "sle": lang.SLE,
}

var fcmpOps = map[string]lang.FcmpOp{
	"false": lang.FcmpFalse, "oeq": lang.FcmpOEQ, "ogt": lang.FcmpOGT, "oge": lang.FcmpOGE,
	"olt": lang.FcmpOLT, "ole": lang.FcmpOLE, "one": lang.FcmpONE, "ord": lang.FcmpORD,
	"ueq": lang.FcmpUEQ, "ugt": lang.FcmpUGT, "uge": lang.FcmpUGE, "ult": lang.FcmpULT,
	"ule": lang.FcmpULE, "une": lang.FcmpUNE, "uno": lang.FcmpUNO, "true": lang.FcmpTrue,
}

var convOps = map[string]lang.ConvKind{
	"sext": lang.SExt, "zext": lang.ZExt, "trunc": lang.Trunc,
}

var constUnOps = map[string]lang.ConstUnKind{
	"not": lang.CNot, "neg": lang.CNeg, "abs": lang.CAbs,
	"log2": lang.CLog2, "ctlz": lang.CLeadingZeros, "cttz": lang.CTrailingZeros,
}

var funPreds = map[string]lang.FunPredKind{
	"isPowerOf2":                 lang.IsPowerOf2,
	"isPowerOf2OrZero":           lang.IsPowerOf2OrZero,
	"isSignBit":                  lang.IsSignBit,
	"MaskedValueIsZero":          lang.MaskZero,
	"isShiftedMask":              lang.IsShiftedMask,
	"WillNotOverflowSignedAdd":   lang.NSWAdd,
	"WillNotOverflowUnsignedAdd": lang.NUWAdd,
	"WillNotOverflowSignedSub":   lang.NSWSub,
	"WillNotOverflowUnsignedSub": lang.NUWSub,
	"WillNotOverflowSignedMul":   lang.NSWMul,
	"WillNotOverflowUnsignedMul": lang.NUWMul,
	"WillNotOverflowUnsignedShl": lang.NUWShl,
	"hasOneUse":                  lang.OneUse,
}

var flagNames = map[string]lang.Flags{
	"nsw": lang.NSW, "nuw": lang.NUW, "exact": lang.Exact,
	"nnan": lang.NNaN, "ninf": lang.NInf, "nsz": lang.NSZ,
}

// parseValue parses a term in instruction position, inside src or tgt.
func (p *Parser) parseValue() (lang.Term, error) {
	t := p.next()
	switch t.Type {
	case TokenAtom:
		return p.atomTerm(t)
	case TokenLParen:
		// fallthrough to list handling below
	default:
		return nil, fmt.Errorf("parse: line %d: expected a term, found %s", t.Line, t)
	}

	head, err := p.expect(TokenAtom)
	if err != nil {
		return nil, err
	}

	var term lang.Term
	switch {
	case binOps[head.Value] != 0 || head.Value == "add":
		flags, err := p.parseFlags()
		if err != nil {
			return nil, err
		}
		x, y, err := p.parseValue2()
		if err != nil {
			return nil, err
		}
		term = &lang.BinOp{Op: binOps[head.Value], Flags: flags, X: x, Y: y}

	case fbinOps[head.Value] != 0 || head.Value == "fadd":
		flags, err := p.parseFlags()
		if err != nil {
			return nil, err
		}
		x, y, err := p.parseValue2()
		if err != nil {
			return nil, err
		}
		term = &lang.FBinOp{Op: fbinOps[head.Value], Flags: flags, X: x, Y: y}

	case head.Value == "icmp":
		op, err := p.expect(TokenAtom)
		if err != nil {
			return nil, err
		}
		k, ok := cmpOps[op.Value]
		if !ok {
			return nil, fmt.Errorf("parse: line %d: unknown icmp condition %q", op.Line, op.Value)
		}
		x, y, err := p.parseValue2()
		if err != nil {
			return nil, err
		}
		term = &lang.Icmp{Op: k, X: x, Y: y}

	case head.Value == "fcmp":
		op, err := p.expect(TokenAtom)
		if err != nil {
			return nil, err
		}
		k, ok := fcmpOps[op.Value]
		if !ok {
			return nil, fmt.Errorf("parse: line %d: unknown fcmp condition %q", op.Line, op.Value)
		}
		x, y, err := p.parseValue2()
		if err != nil {
			return nil, err
		}
		term = &lang.Fcmp{Op: k, X: x, Y: y}

	case head.Value == "select":
		cond, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		x, y, err := p.parseValue2()
		if err != nil {
			return nil, err
		}
		term = &lang.Select{Cond: cond, X: x, Y: y}

	case head.Value == "sext" || head.Value == "zext" || head.Value == "trunc":
		arg, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		term = &lang.Conv{Op: convOps[head.Value], Arg: arg}

	case head.Value == "smax" || head.Value == "umax":
		x, y, err := p.parseConst2()
		if err != nil {
			return nil, err
		}
		term = &lang.ConstMax{Signed: head.Value == "smax", X: x, Y: y}

	case head.Value == "not" || head.Value == "neg" || head.Value == "abs" ||
		head.Value == "log2" || head.Value == "ctlz" || head.Value == "cttz":
		x, err := p.parseConst()
		if err != nil {
			return nil, err
		}
		term = &lang.ConstUnary{Op: constUnOps[head.Value], X: x}

	default:
		return nil, fmt.Errorf("parse: line %d: unknown instruction %q", head.Line, head.Value)
	}

	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return term, nil
}

func (p *Parser) parseValue2() (lang.Term, lang.Term, error) {
	x, err := p.parseValue()
	if err != nil {
		return nil, nil, err
	}
	y, err := p.parseValue()
	if err != nil {
		return nil, nil, err
	}
	return x, y, nil
}

// parseFlags consumes any flag atoms following an operator.
func (p *Parser) parseFlags() (lang.Flags, error) {
	var flags lang.Flags
	for p.peek().Type == TokenAtom {
		f, ok := flagNames[p.peek().Value]
		if !ok {
			break
		}
		flags |= f
		p.next()
	}
	return flags, nil
}

// parseConst parses a constant expression, the term form allowed inside
// predicates. Inputs are accepted as atoms so predicates like hasOneUse can
// mention them.
func (p *Parser) parseConst() (lang.Term, error) {
	t := p.next()
	switch t.Type {
	case TokenAtom:
		return p.atomTerm(t)
	case TokenLParen:
		// fallthrough to list handling below
	default:
		return nil, fmt.Errorf("parse: line %d: expected a constant expression, found %s", t.Line, t)
	}

	head, err := p.expect(TokenAtom)
	if err != nil {
		return nil, err
	}

	var term lang.Term
	switch {
	case binOps[head.Value] != 0 || head.Value == "add":
		x, y, err := p.parseConst2()
		if err != nil {
			return nil, err
		}
		term = &lang.ConstBinary{Op: binOps[head.Value], X: x, Y: y}

	case constUnOps[head.Value] != 0 || head.Value == "not":
		x, err := p.parseConst()
		if err != nil {
			return nil, err
		}
		term = &lang.ConstUnary{Op: constUnOps[head.Value], X: x}

	case head.Value == "smax" || head.Value == "umax":
		x, y, err := p.parseConst2()
		if err != nil {
			return nil, err
		}
		term = &lang.ConstMax{Signed: head.Value == "smax", X: x, Y: y}

	case head.Value == "width":
		x, err := p.parseConst()
		if err != nil {
			return nil, err
		}
		term = &lang.WidthOf{X: x}

	case head.Value == "sext" || head.Value == "zext" || head.Value == "trunc":
		arg, err := p.parseConst()
		if err != nil {
			return nil, err
		}
		term = &lang.Conv{Op: convOps[head.Value], Arg: arg}

	default:
		return nil, fmt.Errorf("parse: line %d: unknown constant operator %q", head.Line, head.Value)
	}

	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return term, nil
}

func (p *Parser) parseConst2() (lang.Term, lang.Term, error) {
	x, err := p.parseConst()
	if err != nil {
		return nil, nil, err
	}
	y, err := p.parseConst()
	if err != nil {
		return nil, nil, err
	}
	return x, y, nil
}

// parsePred parses a precondition.
func (p *Parser) parsePred() (lang.Pred, error) {
	t := p.next()
	switch t.Type {
	case TokenAtom:
		if t.Value == "true" {
			return &lang.TruePred{}, nil
		}
		return nil, fmt.Errorf("parse: line %d: expected a predicate, found %q", t.Line, t.Value)
	case TokenLParen:
		// fallthrough to list handling below
	default:
		return nil, fmt.Errorf("parse: line %d: expected a predicate, found %s", t.Line, t)
	}

	head, err := p.expect(TokenAtom)
	if err != nil {
		return nil, err
	}

	var pred lang.Pred
	switch {
	case head.Value == "and" || head.Value == "or":
		var clauses []lang.Pred
		for p.peek().Type != TokenRParen {
			c, err := p.parsePred()
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, c)
		}
		if len(clauses) == 0 {
			return nil, fmt.Errorf("parse: line %d: empty %s", head.Line, head.Value)
		}
		if head.Value == "and" {
			pred = lang.MkAnd(clauses)
		} else {
			pred = lang.MkOr(clauses)
		}

	case head.Value == "not":
		inner, err := p.parsePred()
		if err != nil {
			return nil, err
		}
		pred = &lang.NotPred{P: inner}

	default:
		if k, ok := cmpOps[head.Value]; ok {
			x, y, err := p.parseConst2()
			if err != nil {
				return nil, err
			}
			pred = &lang.Comparison{Op: k, X: x, Y: y}
			break
		}
		k, ok := funPreds[head.Value]
		if !ok {
			return nil, fmt.Errorf("parse: line %d: unknown predicate %q", head.Line, head.Value)
		}
		var args []lang.Term
		for p.peek().Type != TokenRParen {
			a, err := p.parseConst()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
		}
		if len(args) != k.Arity() {
			return nil, fmt.Errorf("parse: line %d: %s takes %d arguments, found %d",
				head.Line, head.Value, k.Arity(), len(args))
		}
		pred = &lang.FunPred{Kind: k, Args: args}
	}

	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return pred, nil
}

// atomTerm interprets a bare atom as a term.
func (p *Parser) atomTerm(t Token) (lang.Term, error) {
	s := t.Value
	switch {
	case s == "undef":
		return &lang.Undef{}, nil
	case strings.HasPrefix(s, "%"):
		if len(s) == 1 {
			return nil, fmt.Errorf("parse: line %d: input needs a name", t.Line)
		}
		if a, ok := p.atoms[s]; ok {
			return a, nil
		}
		a := &lang.Input{Name: s}
		p.atoms[s] = a
		return a, nil
	case strings.HasPrefix(s, "C"):
		if a, ok := p.atoms[s]; ok {
			return a, nil
		}
		a := &lang.Symbol{Name: s}
		p.atoms[s] = a
		return a, nil
	}

	if strings.ContainsAny(s, ".eE") && s != "e" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("parse: line %d: bad number %q", t.Line, s)
		}
		return &lang.FLiteral{Val: f, NegZero: f == 0 && strings.HasPrefix(s, "-")}, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse: line %d: bad term %q", t.Line, s)
	}
	return &lang.Literal{Val: v}, nil
}
