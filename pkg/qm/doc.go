// Package qm implements deterministic two-level Boolean minimization
// (Quine–McCluskey with a greedy cover) for truth-table columns captured
// from programmable logic devices.
//
// The input is a column of a brute-force truth table: one bit per address
// plus a care mask marking the addresses where the column value is defined.
// Addresses outside the care mask are don't-cares; they may be absorbed
// into implicants but are never required to be covered.
//
// # Pipeline
//
//  1. Constant detection: a column with no required minterms is constant
//     false (empty expression); a column with no zeros over the care mask
//     is constant true (a single term with no literals).
//  2. Support reduction: variables the column does not actually depend on
//     are projected away before prime-implicant construction. A captured
//     PAL dump has one address bit per device input, but a single output
//     typically depends on a handful of them; projection is what keeps
//     20-bit and wider address spaces tractable.
//  3. Prime implicants: implicants are stored value/mask packed in a flat
//     arena, grouped by popcount, and merged generation by generation
//     until no pair differs in exactly one specified bit.
//  4. Cover: essential primes are selected unconditionally, the remaining
//     required minterms greedily by most newly covered, ties by smallest
//     canonical term.
//
// # Determinism
//
// Identical input always yields an identical expression. No ordering
// decision is fed from map iteration, and all ties (including the choice
// between the two orientations under PolarityAuto) resolve through the
// canonical term order: fewer literals first, then lexicographic order
// of the literal sequences (by variable index, negated before asserted).
//
// # Polarity
//
// Minimize can produce the equation for the column itself
// (PolarityPositive) or for its complement (PolarityNegative, tagged
// ActiveLow so the caller emits an active-low equation rather than
// negating every literal). PolarityAuto and PolarityBoth minimize both
// orientations and keep the cheaper one.
package qm
