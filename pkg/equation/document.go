package equation

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTracePAL/pkg/qm"
)

// PinEquation is the reconstructed behavior of one output pin.
type PinEquation struct {
	Pin  int    // device pin number
	Name string // signal name from the profile

	ActiveLow bool          // equation describes the complemented output
	Logic     qm.Expression // sum-of-products over address variables

	HasOE       bool // false = output is always enabled
	OEActiveLow bool
	OE          qm.Expression
}

// PinError records a failure scoped to one pin. The run continues for
// all other pins; the affected pin is simply absent from the document.
type PinError struct {
	Pin  int
	Name string
	Err  error
}

func (e *PinError) Error() string {
	return fmt.Sprintf("pin %d (%s): %v", e.Pin, e.Name, e.Err)
}

func (e *PinError) Unwrap() error { return e.Err }

// Document is the assembled result of one reconstruction run: one
// equation set per successfully processed output pin, ordered by pin
// number, plus the per-pin errors for the rest. It is built once and
// immutable afterwards.
type Document struct {
	Device     string   // device name from the profile
	InputNames []string // signal name per address variable, in bit order

	Pins   []PinEquation
	Errors []*PinError
}

// Complete reports whether every declared output pin produced an equation.
func (d *Document) Complete() bool { return len(d.Errors) == 0 }

// ByPin returns the equation entry for a device pin number, if present.
func (d *Document) ByPin(pin int) (PinEquation, bool) {
	for _, pe := range d.Pins {
		if pe.Pin == pin {
			return pe, true
		}
	}
	return PinEquation{}, false
}

// ByName returns the equation entry for a signal name, if present.
func (d *Document) ByName(name string) (PinEquation, bool) {
	for _, pe := range d.Pins {
		if pe.Name == name {
			return pe, true
		}
	}
	return PinEquation{}, false
}
