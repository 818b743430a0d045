package qm

import (
	"fmt"
	"math/bits"
)

// Result is a minimized equation for one truth-table column. When
// ActiveLow is set the expression represents the complement of the
// column and must be emitted with an explicit active-low marker.
type Result struct {
	Expr      Expression
	ActiveLow bool
}

// InternalError reports an invariant violation inside the minimizer,
// such as a required minterm left uncovered after cover selection. It
// must never occur for well-formed input and is treated as a
// programming-error signal scoped to the offending pin.
type InternalError struct {
	Reason  string
	Minterm uint32 // address of the affected minterm, if any
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("qm: internal error: %s (minterm %d)", e.Reason, e.Minterm)
}

// Minimize reduces a truth-table column to a minimal sum-of-products
// expression under the requested polarity. See the package documentation
// for the algorithm and the determinism guarantees.
func Minimize(col Column, pol Polarity) (Result, error) {
	size := 1 << uint(col.Vars)
	if col.Bits == nil || col.Care == nil || col.Bits.Len() != size || col.Care.Len() != size {
		return Result{}, fmt.Errorf("qm: column size mismatch: want %d bits", size)
	}

	switch pol {
	case PolarityPositive:
		expr, err := minimizeOrientation(col, false)
		return Result{Expr: expr}, err
	case PolarityNegative:
		expr, err := minimizeOrientation(col, true)
		return Result{Expr: expr, ActiveLow: true}, err
	case PolarityAuto, PolarityBoth:
		pos, err := minimizeOrientation(col, false)
		if err != nil {
			return Result{}, err
		}
		// A constant column is constant in both orientations; keep the
		// positive form so fixed pins read as name = 'b'0 / 'b'1.
		if pos.IsTrue() || pos.IsFalse() {
			return Result{Expr: pos}, nil
		}
		neg, err := minimizeOrientation(col, true)
		if err != nil {
			return Result{}, err
		}
		if pickPositive(pos, neg) {
			return Result{Expr: pos}, nil
		}
		return Result{Expr: neg, ActiveLow: true}, nil
	}
	return Result{}, fmt.Errorf("qm: unknown polarity %v", pol)
}

// pickPositive applies the fixed orientation tie-break: fewer total
// literals, then fewer terms, then canonical expression order, with the
// positive orientation winning an exact structural tie.
func pickPositive(pos, neg Expression) bool {
	if a, b := pos.LiteralCount(), neg.LiteralCount(); a != b {
		return a < b
	}
	if a, b := len(pos.Terms), len(neg.Terms); a != b {
		return a < b
	}
	return pos.Compare(neg) <= 0
}

// minimizeOrientation minimizes one orientation of the column. With
// invert set the column is complemented over the care mask first.
func minimizeOrientation(col Column, invert bool) (Expression, error) {
	size := 1 << uint(col.Vars)

	// Constant detection over the care mask.
	ones, cares := 0, 0
	for a := 0; a < size; a++ {
		if !col.Care.Get(a) {
			continue
		}
		cares++
		if col.Bits.Get(a) != invert {
			ones++
		}
	}
	if ones == 0 {
		return False(), nil
	}
	if ones == cares {
		return True(), nil
	}

	p := project(col)

	// Orientation swaps the roles of the on-set and off-set.
	on, off := p.on, p.off
	if invert {
		on, off = off, on
	}

	expr, err := coverPrimes(p.vars, on, off, p.positions)
	if err != nil {
		return Expression{}, err
	}
	return expr, nil
}

// Support returns the mask of address variables the column actually
// depends on: variable v is in the support when two care addresses
// differing only in v carry different column values.
func Support(col Column) uint32 {
	size := 1 << uint(col.Vars)
	var support uint32
	for v := 0; v < col.Vars; v++ {
		bit := 1 << uint(v)
		for a := 0; a < size; a++ {
			if a&bit != 0 {
				continue
			}
			b := a | bit
			if col.Care.Get(a) && col.Care.Get(b) && col.Bits.Get(a) != col.Bits.Get(b) {
				support |= uint32(bit)
				break
			}
		}
	}
	return support
}

// projection is a column restricted to its support variables.
type projection struct {
	vars      int    // number of support variables
	positions []int  // support variable index -> original variable index
	on, off   *BitVector
}

// project restricts the column to its support variables. The single-flip
// support test can miss a dependence that only shows up across a chain of
// don't-care addresses, so projection re-checks: whenever two care
// addresses with different values land on the same reduced index, the
// lowest address bit distinguishing them is promoted into the support and
// the projection restarts.
func project(col Column) projection {
	size := 1 << uint(col.Vars)
	support := Support(col)

	for {
		positions := supportPositions(support)
		s := len(positions)
		on := NewBitVector(1 << uint(s))
		off := NewBitVector(1 << uint(s))
		// Representative care address per reduced index, for conflict
		// diagnosis. Only needed while variables are projected away.
		var rep []int32
		if s < col.Vars {
			rep = make([]int32, 1<<uint(s))
			for i := range rep {
				rep[i] = -1
			}
		}

		conflict := false
		for a := 0; a < size && !conflict; a++ {
			if !col.Care.Get(a) {
				continue
			}
			r := compress(uint32(a), positions)
			val := col.Bits.Get(a)
			if val {
				on.Set(int(r), true)
			} else {
				off.Set(int(r), true)
			}
			if rep != nil {
				if rep[r] < 0 {
					rep[r] = int32(a)
				} else if col.Bits.Get(int(rep[r])) != val {
					// Same reduced index, different values: grow the
					// support by the lowest distinguishing bit.
					diff := uint32(a) ^ uint32(rep[r])
					support |= diff & -diff
					conflict = true
				}
			}
		}
		if !conflict {
			return projection{vars: s, positions: positions, on: on, off: off}
		}
	}
}

func supportPositions(support uint32) []int {
	positions := make([]int, 0, bits.OnesCount32(support))
	for m := support; m != 0; m &= m - 1 {
		positions = append(positions, bits.TrailingZeros32(m))
	}
	return positions
}

// compress extracts the support bits of addr into a dense reduced index.
func compress(addr uint32, positions []int) uint32 {
	var r uint32
	for i, p := range positions {
		if addr&(1<<uint(p)) != 0 {
			r |= 1 << uint(i)
		}
	}
	return r
}

// expand maps a term over reduced variables back to original variable
// indices. Ascending positions preserve the canonical term order.
func expand(t Term, positions []int) Term {
	var full Term
	for i, p := range positions {
		bit := uint32(1) << uint(i)
		if t.Mask&bit != 0 {
			full.Mask |= 1 << uint(p)
			if t.Value&bit != 0 {
				full.Value |= 1 << uint(p)
			}
		}
	}
	return full
}

// implicant is a candidate product term over the reduced variables,
// value/mask packed like Term. Implicants live in flat slices indexed by
// position; merge generations never hold references into each other.
type implicant struct {
	value, mask uint32
}

// coverPrimes runs prime-implicant construction and cover selection over
// the reduced on-set and off-set. Reduced indices not present in either
// set are don't-cares: they participate in merging but are never
// required to be covered.
func coverPrimes(s int, on, off *BitVector, positions []int) (Expression, error) {
	rsize := 1 << uint(s)
	full := uint32(rsize - 1)

	// Initial generation: every on-set or don't-care index as a
	// fully-specified implicant, in ascending address order.
	var gen []implicant
	for r := 0; r < rsize; r++ {
		if on.Get(r) || !off.Get(r) {
			gen = append(gen, implicant{value: uint32(r), mask: full})
		}
	}

	var primes []implicant
	for len(gen) > 0 {
		// Group by popcount; only adjacent groups can merge.
		groups := make([][]int, s+2)
		for i := range gen {
			pc := bits.OnesCount32(gen[i].value)
			groups[pc] = append(groups[pc], i)
		}

		merged := make([]bool, len(gen))
		var next []implicant
		seen := make(map[implicant]struct{})
		for pc := 0; pc <= s; pc++ {
			for _, i := range groups[pc] {
				for _, j := range groups[pc+1] {
					a, b := gen[i], gen[j]
					if a.mask != b.mask {
						continue
					}
					diff := a.value ^ b.value
					if diff&(diff-1) != 0 {
						continue
					}
					merged[i], merged[j] = true, true
					m := implicant{value: a.value &^ diff, mask: a.mask &^ diff}
					if _, dup := seen[m]; !dup {
						seen[m] = struct{}{}
						next = append(next, m)
					}
				}
			}
		}
		for i := range gen {
			if !merged[i] {
				primes = append(primes, gen[i])
			}
		}
		gen = next
	}

	// Required minterms, ascending.
	var required []uint32
	for r := 0; r < rsize; r++ {
		if on.Get(r) {
			required = append(required, uint32(r))
		}
	}

	// Coverage table: required minterm -> covering primes.
	coverers := make([][]int, len(required))
	for k, r := range required {
		for pi, p := range primes {
			if r&p.mask == p.value {
				coverers[k] = append(coverers[k], pi)
			}
		}
		if len(coverers[k]) == 0 {
			return Expression{}, &InternalError{
				Reason:  "required minterm has no covering prime implicant",
				Minterm: expandAddr(r, positions),
			}
		}
	}

	selected := make([]bool, len(primes))
	covered := make([]bool, len(required))

	// Essential primes: sole coverer of some required minterm.
	for k := range required {
		if len(coverers[k]) == 1 {
			selected[coverers[k][0]] = true
		}
	}
	remaining := markCovered(primes, required, selected, covered)

	// Greedy cover for the rest: most newly covered minterms, ties by
	// smallest canonical term.
	for remaining > 0 {
		best, bestCount := -1, 0
		for pi := range primes {
			if selected[pi] {
				continue
			}
			c := 0
			for k, r := range required {
				if !covered[k] && r&primes[pi].mask == primes[pi].value {
					c++
				}
			}
			if c == 0 {
				continue
			}
			if c > bestCount || (c == bestCount && termOf(primes[pi]).Compare(termOf(primes[best])) < 0) {
				best, bestCount = pi, c
			}
		}
		if best < 0 {
			for k, r := range required {
				if !covered[k] {
					return Expression{}, &InternalError{
						Reason:  "required minterm left uncovered after cover selection",
						Minterm: expandAddr(r, positions),
					}
				}
			}
			break
		}
		selected[best] = true
		remaining = markCovered(primes, required, selected, covered)
	}

	var expr Expression
	for pi, p := range primes {
		if selected[pi] {
			expr.Terms = append(expr.Terms, expand(termOf(p), positions))
		}
	}
	expr.normalize()
	return expr, nil
}

func termOf(p implicant) Term { return Term{Value: p.value, Mask: p.mask} }

// markCovered refreshes the covered flags and returns the number of
// required minterms still uncovered.
func markCovered(primes []implicant, required []uint32, selected, covered []bool) int {
	remaining := 0
	for k, r := range required {
		if covered[k] {
			continue
		}
		for pi, p := range primes {
			if selected[pi] && r&p.mask == p.value {
				covered[k] = true
				break
			}
		}
		if !covered[k] {
			remaining++
		}
	}
	return remaining
}

// expandAddr maps a reduced index back to a representative full address.
func expandAddr(r uint32, positions []int) uint32 {
	var addr uint32
	for i, p := range positions {
		if r&(1<<uint(i)) != 0 {
			addr |= 1 << uint(p)
		}
	}
	return addr
}
