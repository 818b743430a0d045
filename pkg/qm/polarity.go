package qm

import "fmt"

// Polarity selects the orientation of a minimized equation.
type Polarity int

const (
	// PolarityAuto minimizes both orientations and keeps the cheaper one.
	PolarityAuto Polarity = iota
	// PolarityPositive minimizes the column directly.
	PolarityPositive
	// PolarityNegative minimizes the complement of the column.
	PolarityNegative
	// PolarityBoth behaves like PolarityAuto at the engine boundary:
	// both orientations are minimized and one is selected deterministically.
	PolarityBoth
)

// ParsePolarity converts a command-line polarity name to a Polarity.
func ParsePolarity(s string) (Polarity, error) {
	switch s {
	case "auto":
		return PolarityAuto, nil
	case "positive":
		return PolarityPositive, nil
	case "negative":
		return PolarityNegative, nil
	case "both":
		return PolarityBoth, nil
	}
	return PolarityAuto, fmt.Errorf("qm: unknown polarity %q (want auto, positive, negative, or both)", s)
}

func (p Polarity) String() string {
	switch p {
	case PolarityAuto:
		return "auto"
	case PolarityPositive:
		return "positive"
	case PolarityNegative:
		return "negative"
	case PolarityBoth:
		return "both"
	}
	return fmt.Sprintf("Polarity(%d)", int(p))
}
