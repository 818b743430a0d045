package pld

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTracePAL/pkg/profile"
	"github.com/OpenTraceLab/OpenTracePAL/pkg/qm"
	"github.com/OpenTraceLab/OpenTracePAL/pkg/truthtable"
)

// maxMismatchesPerEquation bounds how many disagreeing addresses are
// collected for a single equation; one failing equation disagrees at a
// large fraction of the address space and listing all of it helps nobody.
const maxMismatchesPerEquation = 100

// Mismatch is one address where a parsed equation disagrees with the
// captured truth table.
type Mismatch struct {
	Pin     int
	Name    string
	OE      bool // the disagreement is in the output-enable equation
	Address int
	Want    bool // captured value
	Got     bool // value the equation produces
}

func (m Mismatch) String() string {
	kind := "logic"
	if m.OE {
		kind = "oe"
	}
	return fmt.Sprintf("pin %d (%s) %s: address %#x: dump has %v, equation gives %v",
		m.Pin, m.Name, kind, m.Address, m.Want, m.Got)
}

// Verify re-evaluates every equation of a parsed .pld file against a
// captured truth table and reports the addresses where they disagree.
// Tri-stated addresses are skipped for logic equations, mirroring how
// the equations were reconstructed.
func Verify(f *File, prof *profile.Profile, table *truthtable.Table) ([]Mismatch, error) {
	nameBits := make(map[string]int)
	for bit, name := range prof.InputNames() {
		nameBits[name] = bit
	}

	var mismatches []Mismatch
	for _, eq := range f.Equations() {
		base := eq.BaseName()
		output, err := outputForName(prof, base)
		if err != nil {
			return nil, err
		}

		var col qm.Column
		if eq.IsOE() {
			oeCol, has, err := table.OEColumnFor(output)
			if err != nil {
				return nil, err
			}
			if !has {
				// No tri-state sampling: the pin is always enabled.
				oeCol = qm.NewColumn(table.AddressWidth())
				oeCol.Bits.SetAll()
			}
			col = oeCol
		} else {
			if col, err = table.ColumnFor(output); err != nil {
				return nil, err
			}
		}

		count := 0
		for a := 0; a < col.Bits.Len() && count < maxMismatchesPerEquation; a++ {
			if !col.Care.Get(a) {
				continue
			}
			got, err := evalEquation(eq, uint32(a), nameBits)
			if err != nil {
				return nil, err
			}
			if want := col.Bits.Get(a); got != want {
				pin, _ := prof.PinForDataBit(output)
				mismatches = append(mismatches, Mismatch{
					Pin:     pin,
					Name:    base,
					OE:      eq.IsOE(),
					Address: a,
					Want:    want,
					Got:     got,
				})
				count++
			}
		}
	}
	return mismatches, nil
}

func outputForName(prof *profile.Profile, name string) (int, error) {
	for _, pin := range prof.SortedPins() {
		if prof.NameForPin(pin) != name {
			continue
		}
		output, ok := prof.DataBitForPin(pin)
		if !ok {
			return 0, fmt.Errorf("pld: signal %s (pin %d) is not an output", name, pin)
		}
		return output, nil
	}
	return 0, fmt.Errorf("pld: equation references unknown signal %s", name)
}

// evalEquation computes the pin value the equation asserts for one
// address. An active-low equation asserts the complement of its
// right-hand side.
func evalEquation(eq *Equation, addr uint32, nameBits map[string]int) (bool, error) {
	var rhs bool
	if v, ok := eq.ConstValue(); ok {
		rhs = v
	} else if eq.Sum != nil {
		for _, p := range eq.Sum.Products {
			val := true
			for _, lit := range p.Literals {
				bit, ok := nameBits[lit.Name]
				if !ok {
					return false, fmt.Errorf("pld: equation for %s references unknown input %s", eq.Name, lit.Name)
				}
				high := addr&(1<<uint(bit)) != 0
				if high == lit.Neg {
					val = false
					break
				}
			}
			if val {
				rhs = true
				break
			}
		}
	}
	if eq.Neg {
		return !rhs, nil
	}
	return rhs, nil
}
