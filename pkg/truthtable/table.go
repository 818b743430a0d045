// Package truthtable holds the in-memory model of a brute-force PAL dump:
// a dense mapping from input-combination address to the recorded output
// word, plus per-output driven masks for tri-state tracking and
// per-output conflict masks for repeated samples that disagreed.
//
// The table is write-once: a loader fills it via FromWords or
// RecordSample plus MarkTriState, and everything downstream reads it
// through ColumnFor and OEColumnFor. Feedback pins do not appear here as
// a separate concept; a resolved dump carries them purely as additional
// address bits.
package truthtable

import (
	"github.com/OpenTraceLab/OpenTracePAL/pkg/qm"
)

// Table is a captured truth table for one device.
type Table struct {
	addressWidth int
	outputs      int
	words        []uint32 // recorded output word per address

	sampled *qm.BitVector // addresses with at least one recorded sample

	// Per output-bit index; nil entries mean "no information".
	driven   []*qm.BitVector // set bit = output actively driven at address
	hasOE    []bool          // true when tri-state sampling exists for the output
	conflict []*qm.BitVector // set bit = repeated samples disagreed at address
}

// New returns an empty table for the given address width and output count.
func New(addressWidth, outputs int) *Table {
	size := 1 << uint(addressWidth)
	return &Table{
		addressWidth: addressWidth,
		outputs:      outputs,
		words:        make([]uint32, size),
		sampled:      qm.NewBitVector(size),
		driven:       make([]*qm.BitVector, outputs),
		hasOE:        make([]bool, outputs),
		conflict:     make([]*qm.BitVector, outputs),
	}
}

// FromWords builds a complete table directly from a decoded dump image,
// one word per address in address order. It fails with a DumpFormatError
// when the image length does not equal 2^addressWidth.
func FromWords(addressWidth, outputs int, words []uint32) (*Table, error) {
	size := 1 << uint(addressWidth)
	if len(words) != size {
		return nil, &DumpFormatError{ExpectedLen: size, ActualLen: len(words)}
	}
	t := New(addressWidth, outputs)
	mask := uint32(1)<<uint(outputs) - 1
	for a, w := range words {
		t.words[a] = w & mask
	}
	t.sampled.SetAll()
	return t, nil
}

// AddressWidth returns the number of independent input bits.
func (t *Table) AddressWidth() int { return t.addressWidth }

// Outputs returns the number of output-bit columns.
func (t *Table) Outputs() int { return t.outputs }

// Len returns the number of addresses in the table.
func (t *Table) Len() int { return len(t.words) }

// Word returns the recorded output word at the given address.
func (t *Table) Word(addr int) uint32 { return t.words[addr] }

// Bit returns the value of one output at the given address.
func (t *Table) Bit(output, addr int) bool {
	return t.words[addr]&(1<<uint(output)) != 0
}

// RecordSample records one captured sample. Brute-force capture rigs may
// visit an address more than once; a repeat that agrees with the stored
// word is a no-op, while a disagreement marks the differing output bits
// as conflicted so the affected columns fail with AmbiguousSampleError.
func (t *Table) RecordSample(addr int, word uint32) {
	word &= uint32(1)<<uint(t.outputs) - 1
	if !t.sampled.Get(addr) {
		t.sampled.Set(addr, true)
		t.words[addr] = word
		return
	}
	diff := t.words[addr] ^ word
	for o := 0; o < t.outputs; o++ {
		if diff&(1<<uint(o)) == 0 {
			continue
		}
		if t.conflict[o] == nil {
			t.conflict[o] = qm.NewBitVector(len(t.words))
		}
		t.conflict[o].Set(addr, true)
	}
}

// MarkTriState records that the output was tri-stated (not driven) at the
// address. The first call for an output switches it to OE-controlled:
// addresses not explicitly marked stay driven.
func (t *Table) MarkTriState(output, addr int) {
	if t.driven[output] == nil {
		t.driven[output] = qm.NewBitVector(len(t.words))
		t.driven[output].SetAll()
		t.hasOE[output] = true
	}
	t.driven[output].Set(addr, false)
}

// SetOEControlled marks an output as carrying tri-state sampling even if
// no address ends up tri-stated, so it receives an OE column.
func (t *Table) SetOEControlled(output int) {
	if t.driven[output] == nil {
		t.driven[output] = qm.NewBitVector(len(t.words))
		t.driven[output].SetAll()
		t.hasOE[output] = true
	}
}

// Complete reports whether every address has a recorded sample. A
// brute-force dump is a total function over the address space; partial
// tables must be rejected by the loader.
func (t *Table) Complete() bool {
	return t.sampled.Count() == len(t.words)
}

// Validate checks the table-wide invariants that gate any per-pin work.
func (t *Table) Validate() error {
	if size := 1 << uint(t.addressWidth); len(t.words) != size {
		return &DumpFormatError{ExpectedLen: size, ActualLen: len(t.words)}
	}
	if !t.Complete() {
		return &DumpFormatError{
			ExpectedLen: len(t.words),
			ActualLen:   t.sampled.Count(),
		}
	}
	return nil
}

// ColumnFor extracts the logic column of one output: its value at every
// address, with tri-stated addresses marked as don't-cares in the care
// mask. It fails with AmbiguousSampleError when conflicting repeated
// samples touched this output; the conflict is scoped to this column and
// does not poison the rest of the table.
func (t *Table) ColumnFor(output int) (qm.Column, error) {
	if err := t.Validate(); err != nil {
		return qm.Column{}, err
	}
	if c := t.conflict[output]; c != nil && c.Any() {
		return qm.Column{}, &AmbiguousSampleError{
			Output:  output,
			Address: c.FirstSet(),
			Count:   c.Count(),
		}
	}

	col := qm.NewColumn(t.addressWidth)
	bit := uint32(1) << uint(output)
	for a := range t.words {
		if t.words[a]&bit != 0 {
			col.Bits.Set(a, true)
		}
	}
	if d := t.driven[output]; d != nil {
		col.Care = d.Clone()
	}
	return col, nil
}

// OEColumnFor extracts the output-enable column of one output: 1 where
// the output drives, 0 where it is tri-stated, defined at every address.
// The second return value is false when the output carries no tri-state
// sampling and is therefore always enabled.
//
// The OE column never shares don't-cares with the logic column: a
// tri-stated address is a don't-care for the logic function but a fully
// defined 0 sample here.
func (t *Table) OEColumnFor(output int) (qm.Column, bool, error) {
	if err := t.Validate(); err != nil {
		return qm.Column{}, false, err
	}
	if !t.hasOE[output] {
		return qm.Column{}, false, nil
	}
	col := qm.NewColumn(t.addressWidth)
	col.Bits = t.driven[output].Clone()
	return col, true, nil
}
