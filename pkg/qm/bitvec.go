package qm

import "math/bits"

// BitVector is a fixed-size packed bit array indexed by truth-table address.
type BitVector struct {
	size  int
	words []uint64
}

// NewBitVector returns an all-zero vector holding size bits.
func NewBitVector(size int) *BitVector {
	return &BitVector{
		size:  size,
		words: make([]uint64, (size+63)/64),
	}
}

// Len returns the number of bits in the vector.
func (v *BitVector) Len() int { return v.size }

// Get reports whether bit i is set.
func (v *BitVector) Get(i int) bool {
	return v.words[i>>6]&(1<<(uint(i)&63)) != 0
}

// Set sets bit i to val.
func (v *BitVector) Set(i int, val bool) {
	if val {
		v.words[i>>6] |= 1 << (uint(i) & 63)
	} else {
		v.words[i>>6] &^= 1 << (uint(i) & 63)
	}
}

// SetAll sets every bit in the vector.
func (v *BitVector) SetAll() {
	for i := range v.words {
		v.words[i] = ^uint64(0)
	}
	v.trim()
}

// Count returns the number of set bits.
func (v *BitVector) Count() int {
	n := 0
	for _, w := range v.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Any reports whether at least one bit is set.
func (v *BitVector) Any() bool {
	for _, w := range v.words {
		if w != 0 {
			return true
		}
	}
	return false
}

// FirstSet returns the index of the lowest set bit, or -1 if none.
func (v *BitVector) FirstSet() int {
	for i, w := range v.words {
		if w != 0 {
			return i<<6 + bits.TrailingZeros64(w)
		}
	}
	return -1
}

// Clone returns a deep copy of the vector.
func (v *BitVector) Clone() *BitVector {
	c := NewBitVector(v.size)
	copy(c.words, v.words)
	return c
}

// trim clears the unused high bits of the last word so Count and Any
// stay correct after SetAll.
func (v *BitVector) trim() {
	if rem := uint(v.size) & 63; rem != 0 && len(v.words) > 0 {
		v.words[len(v.words)-1] &= (1 << rem) - 1
	}
}

// Column is one output's view of a truth table: the asserted-bit value at
// every address plus a care mask marking the addresses where that value
// is defined. Addresses with a clear care bit are don't-cares.
type Column struct {
	Vars int        // number of address variables; Bits/Care hold 1<<Vars bits
	Bits *BitVector // column value per address
	Care *BitVector // 1 = defined, 0 = don't-care
}

// NewColumn returns a column over vars address variables with every
// address marked as a care address.
func NewColumn(vars int) Column {
	c := Column{
		Vars: vars,
		Bits: NewBitVector(1 << vars),
		Care: NewBitVector(1 << vars),
	}
	c.Care.SetAll()
	return c
}
