package pld

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/OpenTraceLab/OpenTracePAL/pkg/profile"
	"github.com/OpenTraceLab/OpenTracePAL/pkg/qm"
	"github.com/OpenTraceLab/OpenTracePAL/pkg/truthtable"
)

// maxTruthTableVars caps the size of the rendered per-pin truth table.
// A pin depending on more inputs than this would produce thousands of
// rows; the listing is a debugging aid, not an archival format.
const maxTruthTableVars = 12

// RenderTruthTable produces the diagnostic truth-table listing: for each
// output pin, the raw positive, negative and don't-care input
// combinations its column contains, restricted to the inputs the pin
// actually depends on. It lets the raw behavior be checked by eye before
// trusting the minimized equations.
func RenderTruthTable(prof *profile.Profile, table *truthtable.Table) (string, error) {
	var sb strings.Builder
	names := prof.InputNames()

	for output := 0; output < prof.Outputs(); output++ {
		pin, _ := prof.PinForDataBit(output)
		name := prof.NameForPin(pin)

		col, err := table.ColumnFor(output)
		if err != nil {
			fmt.Fprintf(&sb, "/* %s: %v */\n\n", name, err)
			continue
		}
		renderColumnTable(&sb, name, col, names, true)

		if oeCol, has, err := table.OEColumnFor(output); err == nil && has {
			renderColumnTable(&sb, name+".oe", oeCol, names, false)
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func renderColumnTable(sb *strings.Builder, name string, col qm.Column, names []string, withDC bool) {
	support := qm.Support(col)
	s := bits.OnesCount32(support)
	if s == 0 {
		val := "0"
		if constantValue(col) {
			val = "1"
		}
		fmt.Fprintf(sb, " %s = %s;\n", name, val)
		return
	}
	if s > maxTruthTableVars {
		fmt.Fprintf(sb, "/* %s depends on %d inputs; table omitted */\n", name, s)
		return
	}

	positions := make([]int, 0, s)
	for m := support; m != 0; m &= m - 1 {
		positions = append(positions, bits.TrailingZeros32(m))
	}

	// Classify each support combination by scanning the column once.
	seen1 := make([]bool, 1<<uint(s))
	seen0 := make([]bool, 1<<uint(s))
	for a := 0; a < col.Bits.Len(); a++ {
		if !col.Care.Get(a) {
			continue
		}
		var r uint32
		for i, p := range positions {
			if a&(1<<uint(p)) != 0 {
				r |= 1 << uint(i)
			}
		}
		if col.Bits.Get(a) {
			seen1[r] = true
		} else {
			seen0[r] = true
		}
	}

	var pos, neg, dc []string
	for r := 0; r < 1<<uint(s); r++ {
		cond := renderCondition(uint32(r), positions, names)
		switch {
		case seen1[r] && !seen0[r]:
			pos = append(pos, cond)
		case seen0[r] && !seen1[r]:
			neg = append(neg, cond)
		case !seen0[r] && !seen1[r]:
			dc = append(dc, cond)
		default:
			// Both values observed: the conflict shows up in both lists.
			pos = append(pos, cond)
			neg = append(neg, cond)
		}
	}

	writeConditionBlock(sb, " "+name, pos)
	writeConditionBlock(sb, notStr+name, neg)
	if withDC {
		writeConditionBlock(sb, name+"_DC", dc)
	}
}

func constantValue(col qm.Column) bool {
	for a := 0; a < col.Bits.Len(); a++ {
		if col.Care.Get(a) {
			return col.Bits.Get(a)
		}
	}
	return false
}

func renderCondition(r uint32, positions []int, names []string) string {
	parts := make([]string, len(positions))
	for i, p := range positions {
		name := fmt.Sprintf("a%d", p)
		if p < len(names) {
			name = names[p]
		}
		if r&(1<<uint(i)) != 0 {
			parts[i] = " " + name
		} else {
			parts[i] = notStr + name
		}
	}
	return strings.Join(parts, " "+andStr+" ")
}

func writeConditionBlock(sb *strings.Builder, signed string, conds []string) {
	if len(conds) == 0 {
		return
	}
	indent := strings.Repeat(" ", len(signed))
	for i, cond := range conds {
		eol := " "
		if i == len(conds)-1 {
			eol = ";"
		}
		if i == 0 {
			fmt.Fprintf(sb, "%s = %s%s\n", signed, cond, eol)
		} else {
			fmt.Fprintf(sb, "%s %s %s%s\n", indent, orStr, cond, eol)
		}
	}
}
