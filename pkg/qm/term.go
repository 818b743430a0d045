package qm

import (
	"math/bits"
	"sort"
	"strings"
)

// Term is a conjunction of literals over address-variable indices, packed
// as a value/mask pair: a bit set in Mask means the variable appears in
// the term, and the corresponding Value bit gives its polarity (1 =
// asserted, 0 = negated). Value bits outside Mask are always zero, so
// equal terms compare equal as structs. The empty term (Mask == 0) is
// the constant-true term.
type Term struct {
	Value uint32
	Mask  uint32
}

// Literal is one signed variable of a term.
type Literal struct {
	Var     int
	Negated bool
}

// LiteralCount returns the number of literals in the term.
func (t Term) LiteralCount() int { return bits.OnesCount32(t.Mask) }

// Literals expands the packed term into literals ordered by variable index.
func (t Term) Literals() []Literal {
	lits := make([]Literal, 0, t.LiteralCount())
	for m := t.Mask; m != 0; m &= m - 1 {
		v := bits.TrailingZeros32(m)
		lits = append(lits, Literal{Var: v, Negated: t.Value&(1<<uint(v)) == 0})
	}
	return lits
}

// Matches reports whether the term evaluates true at the given address.
func (t Term) Matches(addr uint32) bool {
	return addr&t.Mask == t.Value
}

// Compare orders terms canonically: fewer literals first, then
// lexicographic order of the literal sequences. Literals are ordered by
// variable index, a negated literal before an asserted one.
func (t Term) Compare(o Term) int {
	if a, b := t.LiteralCount(), o.LiteralCount(); a != b {
		if a < b {
			return -1
		}
		return 1
	}
	// Equal-length ascending variable sequences: the lowest variable not
	// shared by both terms decides, and the term holding it sorts first.
	if d := t.Mask ^ o.Mask; d != 0 {
		low := d & -d
		if t.Mask&low != 0 {
			return -1
		}
		return 1
	}
	// Same variables: decided by the lowest variable whose polarities
	// differ, negated first.
	if d := t.Value ^ o.Value; d != 0 {
		low := d & -d
		if t.Value&low == 0 {
			return -1
		}
		return 1
	}
	return 0
}

// String renders the term with single-letter variable names (a, b, c...)
// for diagnostics; production rendering with real pin names lives in the
// emitter.
func (t Term) String() string {
	if t.Mask == 0 {
		return "1"
	}
	var sb strings.Builder
	for i, lit := range t.Literals() {
		if i > 0 {
			sb.WriteString(" & ")
		}
		if lit.Negated {
			sb.WriteByte('!')
		}
		sb.WriteByte(byte('a' + lit.Var%26))
	}
	return sb.String()
}

// Expression is a sum of terms (a disjunction). The zero value is the
// constant-false expression. A normalized expression holds its terms in
// canonical order with no duplicates.
type Expression struct {
	Terms []Term
}

// True returns the constant-true expression.
func True() Expression { return Expression{Terms: []Term{{}}} }

// False returns the constant-false (empty) expression.
func False() Expression { return Expression{} }

// IsFalse reports whether the expression has no terms.
func (e Expression) IsFalse() bool { return len(e.Terms) == 0 }

// IsTrue reports whether the expression is the single constant-true term.
func (e Expression) IsTrue() bool {
	return len(e.Terms) == 1 && e.Terms[0].Mask == 0
}

// LiteralCount returns the total number of literals across all terms.
func (e Expression) LiteralCount() int {
	n := 0
	for _, t := range e.Terms {
		n += t.LiteralCount()
	}
	return n
}

// Eval evaluates the expression at the given address.
func (e Expression) Eval(addr uint32) bool {
	for _, t := range e.Terms {
		if t.Matches(addr) {
			return true
		}
	}
	return false
}

// Compare orders expressions canonically: fewer terms first, then
// term-by-term canonical comparison. Both expressions must be normalized.
func (e Expression) Compare(o Expression) int {
	if len(e.Terms) != len(o.Terms) {
		if len(e.Terms) < len(o.Terms) {
			return -1
		}
		return 1
	}
	for i := range e.Terms {
		if c := e.Terms[i].Compare(o.Terms[i]); c != 0 {
			return c
		}
	}
	return 0
}

// String renders the expression with diagnostic variable names.
func (e Expression) String() string {
	if e.IsFalse() {
		return "0"
	}
	parts := make([]string, len(e.Terms))
	for i, t := range e.Terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " # ")
}

// normalize sorts the terms canonically and removes duplicates, in place.
func (e *Expression) normalize() {
	sort.Slice(e.Terms, func(i, j int) bool {
		return e.Terms[i].Compare(e.Terms[j]) < 0
	})
	out := e.Terms[:0]
	for i, t := range e.Terms {
		if i == 0 || t != e.Terms[i-1] {
			out = append(out, t)
		}
	}
	e.Terms = out
}
