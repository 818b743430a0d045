package pld

import "strings"

// File represents a parsed .pld source file.
type File struct {
	Statements []*Statement `@@*`
}

// Statement is one header line, pin alias, or equation.
type Statement struct {
	Pin      *PinDecl    `  @@`
	Equation *Equation   `| @@`
	Header   *HeaderStmt `| @@`
}

// PinDecl is a pin alias declaration.
// Example: pin 12 = io12;
type PinDecl struct {
	Number int    `"pin" @Word`
	Name   string `Eq @Word Semi`
}

// HeaderStmt is one preamble line.
// Example: Device PAL16L8;
type HeaderStmt struct {
	Key   string `@("Name" | "Device" | "Partno" | "Revision" | "Date" | "Designer" | "Company" | "Assembly" | "Location")`
	Value string `@Word? Semi`
}

// Equation is one output or output-enable equation. A Bang prefix on the
// left side marks the equation active-low.
// Example: !io12 = i1 & !i2 # i3;
type Equation struct {
	Neg   bool   `@Bang?`
	Name  string `@Word Eq`
	Const string `( @BitConst Semi`
	Sum   *Sum   `| @@ Semi )`
}

// Sum is a disjunction of products.
type Sum struct {
	Products []*Product `@@ ( Hash @@ )*`
}

// Product is a conjunction of literals.
type Product struct {
	Literals []*Lit `@@ ( Amp @@ )*`
}

// Lit is one optionally negated signal reference.
type Lit struct {
	Neg  bool   `@Bang?`
	Name string `@Word`
}

// IsOE reports whether the equation targets an output-enable term.
func (e *Equation) IsOE() bool { return strings.HasSuffix(e.Name, ".oe") }

// BaseName returns the signal name without the .oe suffix.
func (e *Equation) BaseName() string { return strings.TrimSuffix(e.Name, ".oe") }

// ConstValue returns the constant value of the equation, if it is one.
func (e *Equation) ConstValue() (val, ok bool) {
	switch e.Const {
	case "'b'1":
		return true, true
	case "'b'0":
		return false, true
	}
	return false, false
}

// Equations returns every equation statement in file order.
func (f *File) Equations() []*Equation {
	var eqs []*Equation
	for _, s := range f.Statements {
		if s.Equation != nil {
			eqs = append(eqs, s.Equation)
		}
	}
	return eqs
}

// PinDecls returns every pin alias declaration in file order.
func (f *File) PinDecls() []*PinDecl {
	var pins []*PinDecl
	for _, s := range f.Statements {
		if s.Pin != nil {
			pins = append(pins, s.Pin)
		}
	}
	return pins
}
