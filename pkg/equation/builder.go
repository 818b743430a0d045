// Package equation orchestrates per-pin equation reconstruction: it
// walks the output pins a device profile declares, extracts each pin's
// truth-table column(s), runs the minimizer for the logic equation and,
// where tri-state sampling exists, independently for the output-enable
// equation, and assembles the ordered result document.
//
// Per-pin work only reads the shared truth table and profile, so pins
// are minimized concurrently; the deterministic re-sort at assembly is
// the single join point. A failure on one pin is recorded and excluded
// from the document without aborting the run; only table-wide problems
// (a dump of the wrong size) are fatal.
package equation

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/OpenTraceLab/OpenTracePAL/pkg/profile"
	"github.com/OpenTraceLab/OpenTracePAL/pkg/qm"
	"github.com/OpenTraceLab/OpenTracePAL/pkg/truthtable"
)

// Progress reports the state of a reconstruction run.
type Progress struct {
	Phase string // "init", "building", "finalizing"
	Pin   int    // device pin number currently being built
	Name  string // signal name of that pin
	Index int    // 0-based index of the pin within the run
	Total int    // total number of output pins
}

// Build reconstructs equations for every output pin the profile
// declares, in increasing pin-number order. The progress channel is
// optional and may be nil. Cancelling the context stops scheduling
// further pins and returns the context error.
func Build(
	ctx context.Context,
	prof *profile.Profile,
	table *truthtable.Table,
	cfg *Config,
	progress chan<- Progress,
) (*Document, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	// Validate normalizes; work on a copy so a Config shared between
	// concurrent runs is never written to.
	run := *cfg
	if err := run.Validate(); err != nil {
		return nil, err
	}
	cfg = &run

	// Table-wide validation gates all per-pin work.
	if err := table.Validate(); err != nil {
		return nil, err
	}
	if table.AddressWidth() != prof.AddressWidth || table.Outputs() != prof.Outputs() {
		return nil, &truthtable.DumpFormatError{
			ExpectedLen: 1 << uint(prof.AddressWidth),
			ActualLen:   table.Len(),
		}
	}

	if progress != nil {
		progress <- Progress{Phase: "init", Total: prof.Outputs()}
	}

	// Output indices ordered by device pin number; this is both the
	// scheduling order and the order of the final document.
	order := make([]int, prof.Outputs())
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		a, _ := prof.PinForDataBit(order[i])
		b, _ := prof.PinForDataBit(order[j])
		return a < b
	})

	type result struct {
		eq  PinEquation
		err *PinError
	}
	results := make([]result, len(order))

	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := cfg.Parallelism
	if workers > len(order) {
		workers = len(order)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				output := order[idx]
				pin, _ := prof.PinForDataBit(output)
				name := prof.NameForPin(pin)
				eq, err := buildPin(prof, table, cfg, output, pin, name)
				if err != nil {
					results[idx] = result{err: &PinError{Pin: pin, Name: name, Err: err}}
					logPinFailure(cfg.Logger, pin, name, err)
					continue
				}
				results[idx] = result{eq: eq}
			}
		}()
	}

	scheduled := 0
dispatch:
	for idx, output := range order {
		select {
		case <-ctx.Done():
			break dispatch
		default:
		}
		if progress != nil {
			pin, _ := prof.PinForDataBit(output)
			progress <- Progress{
				Phase: "building",
				Pin:   pin,
				Name:  prof.NameForPin(pin),
				Index: idx,
				Total: len(order),
			}
		}
		jobs <- idx
		scheduled++
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if progress != nil {
		progress <- Progress{Phase: "finalizing", Index: len(order), Total: len(order)}
	}

	doc := &Document{
		Device:     prof.DeviceName,
		InputNames: prof.InputNames(),
	}
	for _, r := range results[:scheduled] {
		if r.err != nil {
			doc.Errors = append(doc.Errors, r.err)
			continue
		}
		doc.Pins = append(doc.Pins, r.eq)
	}
	// Scheduling order already ascends by pin number; the re-sort keeps
	// assembly deterministic regardless of completion order.
	sort.Slice(doc.Pins, func(i, j int) bool { return doc.Pins[i].Pin < doc.Pins[j].Pin })
	sort.Slice(doc.Errors, func(i, j int) bool { return doc.Errors[i].Pin < doc.Errors[j].Pin })
	return doc, nil
}

// buildPin reconstructs the logic equation and, if tri-state sampling
// exists, the output-enable equation for one output. The two
// minimizations never share don't-cares: a tri-stated address is a
// don't-care for the logic column but a fully defined 0 for OE.
func buildPin(
	prof *profile.Profile,
	table *truthtable.Table,
	cfg *Config,
	output, pin int,
	name string,
) (PinEquation, error) {
	col, err := table.ColumnFor(output)
	if err != nil {
		return PinEquation{}, err
	}
	pol := cfg.OutputPolarity
	logic, err := qm.Minimize(col, pol)
	if err != nil {
		return PinEquation{}, err
	}

	eq := PinEquation{
		Pin:       pin,
		Name:      name,
		ActiveLow: logic.ActiveLow,
		Logic:     logic.Expr,
	}

	oeCol, hasOE, err := table.OEColumnFor(output)
	if err != nil {
		return PinEquation{}, err
	}
	if hasOE {
		oe, err := qm.Minimize(oeCol, cfg.OEPolarity)
		if err != nil {
			return PinEquation{}, err
		}
		eq.HasOE = true
		eq.OEActiveLow = oe.ActiveLow
		eq.OE = oe.Expr
	}
	return eq, nil
}

func logPinFailure(log *logrus.Logger, pin int, name string, err error) {
	entry := log.WithFields(logrus.Fields{"pin": pin, "name": name})
	var internal *qm.InternalError
	if errors.As(err, &internal) {
		entry.WithFields(logrus.Fields{
			"reason":  internal.Reason,
			"minterm": internal.Minterm,
		}).Error("minimizer invariant violation")
		return
	}
	entry.WithError(err).Warn("equation reconstruction failed")
}
