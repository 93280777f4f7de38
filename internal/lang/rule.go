package lang

// Rule is a transformation rule: replace the Src instruction pattern with Tgt
// whenever Pre holds. Src and Tgt share inputs and symbols.
type Rule struct {
	Name string
	Pre  Pred
	Src  Term
	Tgt  Term
}

// Subterms returns t and every term reachable from it, parents before
// children, each term once (by identity).
func Subterms(t Term) []Term {
	var out []Term
	seen := make(map[Term]bool)
	var walk func(Term)
	walk = func(t Term) {
		if t == nil || seen[t] {
			return
		}
		seen[t] = true
		out = append(out, t)
		for _, c := range Children(t) {
			walk(c)
		}
	}
	walk(t)
	return out
}

// Children returns the immediate subterms of t.
func Children(t Term) []Term {
	switch x := t.(type) {
	case *BinOp:
		return []Term{x.X, x.Y}
	case *FBinOp:
		return []Term{x.X, x.Y}
	case *Icmp:
		return []Term{x.X, x.Y}
	case *Fcmp:
		return []Term{x.X, x.Y}
	case *Select:
		return []Term{x.Cond, x.X, x.Y}
	case *Conv:
		return []Term{x.Arg}
	case *ConstBinary:
		return []Term{x.X, x.Y}
	case *ConstUnary:
		return []Term{x.X}
	case *ConstMax:
		return []Term{x.X, x.Y}
	case *WidthOf:
		return []Term{x.X}
	case *AndPred:
		return predTerms(x.Clauses)
	case *OrPred:
		return predTerms(x.Clauses)
	case *NotPred:
		return []Term{x.P}
	case *Comparison:
		return []Term{x.X, x.Y}
	case *FunPred:
		return x.Args
	default:
		return nil
	}
}

func predTerms(ps []Pred) []Term {
	out := make([]Term, len(ps))
	for i, p := range ps {
		out[i] = p
	}
	return out
}

// IsConstant reports whether t is built only from symbols and literals, i.e.
// whether it denotes a compile-time constant once symbols are bound.
func IsConstant(t Term) bool {
	switch x := t.(type) {
	case *Symbol, *Literal, *FLiteral:
		return true
	case *ConstBinary:
		return IsConstant(x.X) && IsConstant(x.Y)
	case *ConstUnary:
		return IsConstant(x.X)
	case *ConstMax:
		return IsConstant(x.X) && IsConstant(x.Y)
	case *WidthOf:
		return true
	default:
		return false
	}
}
