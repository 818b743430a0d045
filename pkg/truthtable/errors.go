package truthtable

import "fmt"

// DumpFormatError reports a table whose length does not match the
// device's address-space size. No equations can be derived from such a
// table, so this error is fatal to the whole run.
type DumpFormatError struct {
	ExpectedLen int
	ActualLen   int
}

func (e *DumpFormatError) Error() string {
	return fmt.Sprintf("truthtable: dump length mismatch: expected %d entries, got %d",
		e.ExpectedLen, e.ActualLen)
}

// AmbiguousSampleError reports conflicting repeated samples feeding one
// output's column. It is scoped to that output: the run continues for
// every other pin.
type AmbiguousSampleError struct {
	Output  int // output-bit index of the affected column
	Address int // first conflicting address
	Count   int // number of conflicting addresses
}

func (e *AmbiguousSampleError) Error() string {
	return fmt.Sprintf("truthtable: conflicting samples for output %d: %d address(es), first at %#x",
		e.Output, e.Count, e.Address)
}
