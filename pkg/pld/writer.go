// Package pld renders reconstructed equation documents as CUPL-style
// .pld source and parses that same syntax back for verification.
//
// The equation syntax uses '&' for AND, '#' for OR and '!' for NOT; an
// equation whose left side carries a '!' prefix is active-low, and the
// constants 'b'0 / 'b'1 denote pins fixed low or high.
package pld

import (
	"fmt"
	"strings"

	"github.com/OpenTraceLab/OpenTracePAL/pkg/equation"
	"github.com/OpenTraceLab/OpenTracePAL/pkg/profile"
	"github.com/OpenTraceLab/OpenTracePAL/pkg/qm"
)

const (
	andStr = "&"
	orStr  = "#"
	notStr = "!"
)

// Header carries the fields of the .pld file preamble. Empty fields are
// emitted blank, matching what downstream PLD compilers expect.
type Header struct {
	Name     string
	Device   string
	Partno   string
	Revision string
	Date     string
	Designer string
	Company  string
	Assembly string
	Location string
}

// Render produces the complete .pld source for a document.
func Render(prof *profile.Profile, doc *equation.Document, hdr Header) string {
	var sb strings.Builder
	if hdr.Device == "" {
		hdr.Device = doc.Device
	}
	renderHeader(&sb, hdr)
	renderPinSection(&sb, prof, doc)

	sb.WriteString("\n/* Output equations */\n\n")
	for _, pe := range doc.Pins {
		renderEquation(&sb, signedName(pe.Name, pe.ActiveLow), pe.Logic, doc.InputNames)
		sb.WriteString("\n")
	}

	sb.WriteString("\n/* Output enable equations */\n\n")
	for _, pe := range doc.Pins {
		if !pe.HasOE {
			continue
		}
		renderEquation(&sb, signedName(pe.Name+".oe", pe.OEActiveLow), pe.OE, doc.InputNames)
		sb.WriteString("\n")
	}
	return sb.String()
}

func renderHeader(sb *strings.Builder, hdr Header) {
	fields := []struct{ key, val string }{
		{"Name", hdr.Name},
		{"Device", hdr.Device},
		{"Partno", hdr.Partno},
		{"Revision", hdr.Revision},
		{"Date", hdr.Date},
		{"Designer", hdr.Designer},
		{"Company", hdr.Company},
		{"Assembly", hdr.Assembly},
		{"Location", hdr.Location},
	}
	for _, f := range fields {
		if f.val == "" {
			fmt.Fprintf(sb, "%s ;\n", f.key)
		} else {
			fmt.Fprintf(sb, "%s %s;\n", f.key, f.val)
		}
	}
	sb.WriteString("\n")
}

func renderPinSection(sb *strings.Builder, prof *profile.Profile, doc *equation.Document) {
	sb.WriteString("\n/* Pin mappings */\n\n")
	for _, pin := range prof.SortedPins() {
		if prof.RoleForPin(pin) == profile.RolePower {
			continue // power pins carry no signal
		}
		fmt.Fprintf(sb, "pin %d = %s;  /* %s */\n",
			pin, prof.NameForPin(pin), pinComment(prof, doc, pin))
	}
}

// pinComment classifies a pin the way PLD authors annotate them.
func pinComment(prof *profile.Profile, doc *equation.Document, pin int) string {
	switch prof.RoleForPin(pin) {
	case profile.RoleClock:
		return "Dedicated clock"
	case profile.RoleInput:
		return "Dedicated input"
	}

	pe, ok := doc.ByPin(pin)
	if !ok {
		return "Unresolved output"
	}
	oe := ""
	if pe.HasOE {
		if pe.OE.IsFalse() && !pe.OEActiveLow {
			return "Input" // never drives: the pin is configured as an input
		}
		oe = " w/ output enable"
	}
	// A constant equation means the pin level never changes: the pin is
	// high when a positive equation is true or an active-low one false.
	switch {
	case pe.Logic.IsTrue() && !pe.ActiveLow, pe.Logic.IsFalse() && pe.ActiveLow:
		return "Fixed high output" + oe
	case pe.Logic.IsFalse() && !pe.ActiveLow, pe.Logic.IsTrue() && pe.ActiveLow:
		return "Fixed low output" + oe
	default:
		return "Combinatorial output" + oe
	}
}

func signedName(name string, activeLow bool) string {
	if activeLow {
		return notStr + name
	}
	return name
}

// renderEquation writes one equation, one product per line, continuation
// lines indented so the '#' column lines up under the '='.
func renderEquation(sb *strings.Builder, signed string, expr qm.Expression, names []string) {
	switch {
	case expr.IsFalse():
		fmt.Fprintf(sb, "%s = 'b'0;\n", signed)
		return
	case expr.IsTrue():
		fmt.Fprintf(sb, "%s = 'b'1;\n", signed)
		return
	}
	indent := strings.Repeat(" ", len(signed))
	for i, t := range expr.Terms {
		eol := ""
		if i == len(expr.Terms)-1 {
			eol = ";"
		}
		if i == 0 {
			fmt.Fprintf(sb, "%s = %s%s\n", signed, renderTerm(t, names), eol)
		} else {
			fmt.Fprintf(sb, "%s %s %s%s\n", indent, orStr, renderTerm(t, names), eol)
		}
	}
}

func renderTerm(t qm.Term, names []string) string {
	lits := t.Literals()
	parts := make([]string, len(lits))
	for i, lit := range lits {
		name := fmt.Sprintf("a%d", lit.Var)
		if lit.Var < len(names) {
			name = names[lit.Var]
		}
		if lit.Negated {
			parts[i] = notStr + name
		} else {
			parts[i] = name
		}
	}
	return strings.Join(parts, " "+andStr+" ")
}
