package equation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTracePAL/pkg/profile"
	"github.com/OpenTraceLab/OpenTracePAL/pkg/qm"
	"github.com/OpenTraceLab/OpenTracePAL/pkg/truthtable"
)

// smallProfile is a 3-input, 2-output device. Output 0 (pin 4) is a
// dedicated output; output 1 sits on bidirectional pin 6, whose probe
// line is address bit 2.
func smallProfile() *profile.Profile {
	return &profile.Profile{
		Type:         "small",
		DeviceName:   "SMALL",
		AddressWidth: 3,
		DataWidth:    8,
		Endianness:   "little",
		HiZProbePins: 1,
		AddressPins:  []int{1, 2, 6},
		DataPins:     []int{4, 6},
		PinNames:     map[int]string{1: "a", 2: "b", 4: "q", 6: "io"},
	}
}

// smallTable: q = a AND b everywhere; io = a OR b, tri-stated when b is
// high.
func smallTable(t *testing.T) *truthtable.Table {
	t.Helper()
	words := make([]uint32, 8)
	for a := 0; a < 8; a++ {
		inA, inB := a&1 != 0, a&2 != 0
		if inA && inB {
			words[a] |= 1
		}
		if inA || inB {
			words[a] |= 2
		}
	}
	tbl, err := truthtable.FromWords(3, 2, words)
	require.NoError(t, err)
	tbl.SetOEControlled(1)
	for a := 0; a < 8; a++ {
		if a&2 != 0 {
			tbl.MarkTriState(1, a)
		}
	}
	return tbl
}

func TestBuildSmallDevice(t *testing.T) {
	doc, err := Build(context.Background(), smallProfile(), smallTable(t), nil, nil)
	require.NoError(t, err)
	require.True(t, doc.Complete())
	require.Len(t, doc.Pins, 2)

	assert.Equal(t, "SMALL", doc.Device)
	assert.Equal(t, []string{"a", "b", "io"}, doc.InputNames)

	q, ok := doc.ByName("q")
	require.True(t, ok)
	assert.Equal(t, 4, q.Pin)
	assert.False(t, q.HasOE)
	// a AND b, one term either orientation picks two literals; the
	// positive form wins on term count.
	assert.False(t, q.ActiveLow)
	assert.Equal(t, []qm.Term{{Value: 3, Mask: 3}}, q.Logic.Terms)

	io, ok := doc.ByPin(6)
	require.True(t, ok)
	require.True(t, io.HasOE)
	// With b-high addresses tri-stated, the driven samples reduce to
	// io = a. Both orientations cost one literal and one term, so the
	// canonical tie-break keeps the active-low form !a.
	assert.Equal(t, []qm.Term{{Value: 0, Mask: 1}}, io.Logic.Terms)
	assert.True(t, io.ActiveLow)
	// OE = !b, defined at every address.
	require.False(t, io.OE.IsTrue())
	assert.Equal(t, []qm.Term{{Value: 0, Mask: 2}}, io.OE.Terms)
	assert.False(t, io.OEActiveLow)
}

func TestBuildOrderedByPinNumber(t *testing.T) {
	doc, err := Build(context.Background(), smallProfile(), smallTable(t), nil, nil)
	require.NoError(t, err)
	require.Len(t, doc.Pins, 2)
	assert.Less(t, doc.Pins[0].Pin, doc.Pins[1].Pin)
}

func TestBuildDeterministicUnderParallelism(t *testing.T) {
	prof := smallProfile()
	base, err := Build(context.Background(), prof, smallTable(t), nil, nil)
	require.NoError(t, err)

	for _, workers := range []int{1, 2, 8} {
		cfg := DefaultConfig()
		cfg.Parallelism = workers
		doc, err := Build(context.Background(), prof, smallTable(t), cfg, nil)
		require.NoError(t, err)
		assert.Equal(t, base.Pins, doc.Pins, "workers=%d", workers)
	}
}

func TestBuildSizeMismatchIsFatal(t *testing.T) {
	tbl, err := truthtable.FromWords(2, 2, make([]uint32, 4))
	require.NoError(t, err)

	_, err = Build(context.Background(), smallProfile(), tbl, nil, nil)
	var dfe *truthtable.DumpFormatError
	require.ErrorAs(t, err, &dfe)
}

func TestBuildPartialFailure(t *testing.T) {
	tbl := smallTable(t)
	// Poison output 0 with a conflicting repeat; output 1 must survive.
	tbl.RecordSample(0, 1)

	doc, err := Build(context.Background(), smallProfile(), tbl, nil, nil)
	require.NoError(t, err)
	assert.False(t, doc.Complete())

	require.Len(t, doc.Errors, 1)
	assert.Equal(t, 4, doc.Errors[0].Pin)
	var ase *truthtable.AmbiguousSampleError
	assert.ErrorAs(t, doc.Errors[0], &ase)

	_, ok := doc.ByPin(6)
	assert.True(t, ok, "clean pin missing from a partial document")
}

func TestBuildOEIndependentOfLogic(t *testing.T) {
	// io drives constant high whenever it drives at all, and tri-states
	// at exactly two addresses. The logic equation must collapse to
	// constant true while the OE equation reflects only the driven mask.
	prof := smallProfile()
	prof.DataPins = []int{6}
	words := make([]uint32, 8)
	for a := 0; a < 8; a++ {
		if a != 3 && a != 7 {
			words[a] = 1
		}
	}
	tbl, err := truthtable.FromWords(3, 1, words)
	require.NoError(t, err)
	tbl.SetOEControlled(0)
	tbl.MarkTriState(0, 3)
	tbl.MarkTriState(0, 7)

	doc, err := Build(context.Background(), prof, tbl, nil, nil)
	require.NoError(t, err)
	require.True(t, doc.Complete())

	io, ok := doc.ByPin(6)
	require.True(t, ok)
	assert.True(t, io.Logic.IsTrue())
	assert.False(t, io.ActiveLow)

	require.True(t, io.HasOE)
	// Addresses 3 and 7 are exactly where a and b are both set, so the
	// enable function is !(a & b); auto polarity keeps the cheaper
	// complemented form a & b.
	assert.True(t, io.OEActiveLow)
	assert.Equal(t, []qm.Term{{Value: 3, Mask: 3}}, io.OE.Terms)
	for a := uint32(0); a < 8; a++ {
		enabled := io.OE.Eval(a) == !io.OEActiveLow
		assert.Equal(t, a != 3 && a != 7, enabled, "address %d", a)
	}
}

func TestBuildCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, smallProfile(), smallTable(t), nil, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestBuildProgressReports(t *testing.T) {
	progress := make(chan Progress, 16)
	_, err := Build(context.Background(), smallProfile(), smallTable(t), nil, progress)
	require.NoError(t, err)
	close(progress)

	var phases []string
	for p := range progress {
		phases = append(phases, p.Phase)
	}
	assert.Equal(t, []string{"init", "building", "building", "finalizing"}, phases)
}

func TestBuildDoesNotMutateConfig(t *testing.T) {
	cfg := DefaultConfig()
	_, err := Build(context.Background(), smallProfile(), smallTable(t), cfg, nil)
	require.NoError(t, err)

	// The caller's struct keeps its zero defaults so it can feed
	// concurrent runs.
	assert.Zero(t, cfg.Parallelism)
	assert.Nil(t, cfg.Logger)
}

func TestBuildHonorsConfiguredPolarity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputPolarity = qm.PolarityNegative

	doc, err := Build(context.Background(), smallProfile(), smallTable(t), cfg, nil)
	require.NoError(t, err)
	q, ok := doc.ByName("q")
	require.True(t, ok)
	assert.True(t, q.ActiveLow)
	// Complement of a AND b.
	assert.Equal(t, []qm.Term{{Value: 0, Mask: 1}, {Value: 0, Mask: 2}}, q.Logic.Terms)
}
