package lang

import "fmt"

// Type describes the concrete type of a term once the abstract type model
// has been resolved to a specific assignment.
type Type interface {
	isType()
	String() string
}

// IntType is a fixed-width two's-complement integer type.
type IntType struct {
	Bits int
}

func (IntType) isType() {}
func (t IntType) String() string {
	return fmt.Sprintf("i%d", t.Bits)
}

// FloatKind selects an IEEE-754 binary format.
type FloatKind int

const (
	Single FloatKind = iota
	Double
)

func (k FloatKind) String() string {
	switch k {
	case Single:
		return "float"
	case Double:
		return "double"
	default:
		return "?"
	}
}

// ExpBits returns the exponent width of the format.
func (k FloatKind) ExpBits() int {
	if k == Single {
		return 8
	}
	return 11
}

// SigBits returns the significand width of the format, hidden bit included.
func (k FloatKind) SigBits() int {
	if k == Single {
		return 24
	}
	return 53
}

// FloatType is an IEEE-754 floating-point type.
type FloatType struct {
	Kind FloatKind
}

func (FloatType) isType() {}
func (t FloatType) String() string {
	return t.Kind.String()
}
