package pld

import (
	"strings"
	"testing"

	"github.com/OpenTraceLab/OpenTracePAL/pkg/equation"
	"github.com/OpenTraceLab/OpenTracePAL/pkg/profile"
	"github.com/OpenTraceLab/OpenTracePAL/pkg/qm"
	"github.com/OpenTraceLab/OpenTracePAL/pkg/truthtable"
)

func testProfile() *profile.Profile {
	return &profile.Profile{
		Type:         "small",
		DeviceName:   "SMALL",
		AddressWidth: 3,
		DataWidth:    8,
		Endianness:   "little",
		HiZProbePins: 1,
		AddressPins:  []int{1, 2, 6},
		DataPins:     []int{4, 6},
		PinNames:     map[int]string{1: "a", 2: "b", 4: "q", 6: "io", 10: "GND"},
		PinRoles:     map[int]profile.Role{10: profile.RolePower},
	}
}

func testDocument() *equation.Document {
	return &equation.Document{
		Device:     "SMALL",
		InputNames: []string{"a", "b", "io"},
		Pins: []equation.PinEquation{
			{
				Pin:   4,
				Name:  "q",
				Logic: qm.Expression{Terms: []qm.Term{{Value: 3, Mask: 3}}},
			},
			{
				Pin:       6,
				Name:      "io",
				ActiveLow: true,
				Logic:     qm.Expression{Terms: []qm.Term{{Value: 0, Mask: 1}}},
				HasOE:     true,
				OE:        qm.Expression{Terms: []qm.Term{{Value: 0, Mask: 2}}},
			},
		},
	}
}

func TestRender(t *testing.T) {
	out := Render(testProfile(), testDocument(), Header{Name: "dump", Date: "2026-08-30"})

	for _, want := range []string{
		"Name dump;",
		"Device SMALL;",
		"Date 2026-08-30;",
		"Partno ;",
		"pin 1 = a;  /* Dedicated input */",
		"pin 4 = q;  /* Combinatorial output */",
		"pin 6 = io;  /* Combinatorial output w/ output enable */",
		"q = a & b;",
		"!io = !a;",
		"io.oe = !b;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "GND") {
		t.Error("power pin leaked into the pin section")
	}
}

func TestRenderMultiTermContinuation(t *testing.T) {
	doc := testDocument()
	doc.Pins[0].Logic = qm.Expression{Terms: []qm.Term{
		{Value: 1, Mask: 1},
		{Value: 2, Mask: 2},
	}}
	out := Render(testProfile(), doc, Header{})

	if !strings.Contains(out, "q = a\n  # b;\n") {
		t.Errorf("continuation line not aligned under '=':\n%s", out)
	}
}

func TestRenderConstants(t *testing.T) {
	doc := testDocument()
	doc.Pins[0].Logic = qm.False()
	doc.Pins[1].Logic = qm.True()
	out := Render(testProfile(), doc, Header{})

	if !strings.Contains(out, "q = 'b'0;") {
		t.Errorf("constant-false equation missing:\n%s", out)
	}
	if !strings.Contains(out, "!io = 'b'1;") {
		t.Errorf("constant-true equation missing:\n%s", out)
	}
	if !strings.Contains(out, "pin 4 = q;  /* Fixed low output */") {
		t.Errorf("fixed-low pin comment missing:\n%s", out)
	}
}

func TestRenderOEConstantFalseIsInput(t *testing.T) {
	doc := testDocument()
	doc.Pins[1].OE = qm.False()
	out := Render(testProfile(), doc, Header{})

	if !strings.Contains(out, "pin 6 = io;  /* Input */") {
		t.Errorf("never-enabled pin not annotated as input:\n%s", out)
	}
}

func TestParseRoundTrip(t *testing.T) {
	src := Render(testProfile(), testDocument(), Header{Name: "dump", Date: "2026-08-30"})

	p, err := NewParser()
	if err != nil {
		t.Fatal(err)
	}
	f, err := p.ParseString(src)
	if err != nil {
		t.Fatalf("parse failed:\n%s\n%v", src, err)
	}

	pins := f.PinDecls()
	if len(pins) != 4 {
		t.Fatalf("got %d pin declarations", len(pins))
	}
	if pins[2].Number != 4 || pins[2].Name != "q" {
		t.Errorf("pin decl: got %+v", pins[2])
	}

	eqs := f.Equations()
	if len(eqs) != 3 {
		t.Fatalf("got %d equations", len(eqs))
	}

	q := eqs[0]
	if q.Name != "q" || q.Neg || q.Sum == nil {
		t.Fatalf("q equation: got %+v", q)
	}
	if len(q.Sum.Products) != 1 || len(q.Sum.Products[0].Literals) != 2 {
		t.Errorf("q products: got %+v", q.Sum)
	}

	io := eqs[1]
	if io.Name != "io" || !io.Neg {
		t.Errorf("io equation: got %+v", io)
	}

	oe := eqs[2]
	if !oe.IsOE() || oe.BaseName() != "io" {
		t.Errorf("oe equation: got %+v", oe)
	}
}

func TestParseConstantsAndComments(t *testing.T) {
	src := `
/* fixed pins */
q = 'b'0;
!io = 'b'1;
`
	p, err := NewParser()
	if err != nil {
		t.Fatal(err)
	}
	f, err := p.ParseString(src)
	if err != nil {
		t.Fatal(err)
	}
	eqs := f.Equations()
	if len(eqs) != 2 {
		t.Fatalf("got %d equations", len(eqs))
	}
	if v, ok := eqs[0].ConstValue(); !ok || v {
		t.Errorf("q: got val=%v ok=%v", v, ok)
	}
	if v, ok := eqs[1].ConstValue(); !ok || !v {
		t.Errorf("io: got val=%v ok=%v", v, ok)
	}
}

// verifyTable builds a table consistent with testDocument: q = a AND b,
// io = a while driven, tri-stated when b is high.
func verifyTable(t *testing.T) *truthtable.Table {
	t.Helper()
	words := make([]uint32, 8)
	for a := 0; a < 8; a++ {
		if a&3 == 3 {
			words[a] |= 1
		}
		if a&1 != 0 {
			words[a] |= 2
		}
	}
	tbl, err := truthtable.FromWords(3, 2, words)
	if err != nil {
		t.Fatal(err)
	}
	tbl.SetOEControlled(1)
	for a := 0; a < 8; a++ {
		if a&2 != 0 {
			tbl.MarkTriState(1, a)
		}
	}
	return tbl
}

func TestVerifyClean(t *testing.T) {
	src := Render(testProfile(), testDocument(), Header{})
	p, err := NewParser()
	if err != nil {
		t.Fatal(err)
	}
	f, err := p.ParseString(src)
	if err != nil {
		t.Fatal(err)
	}

	mismatches, err := Verify(f, testProfile(), verifyTable(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(mismatches) != 0 {
		t.Errorf("unexpected mismatches: %v", mismatches)
	}
}

func TestVerifyReportsMismatch(t *testing.T) {
	p, err := NewParser()
	if err != nil {
		t.Fatal(err)
	}
	// Wrong equation for q: claims OR where the dump has AND.
	f, err := p.ParseString("q = a # b;\n")
	if err != nil {
		t.Fatal(err)
	}

	mismatches, err := Verify(f, testProfile(), verifyTable(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(mismatches) == 0 {
		t.Fatal("expected mismatches")
	}
	m := mismatches[0]
	if m.Pin != 4 || m.Name != "q" || m.OE {
		t.Errorf("got %+v", m)
	}
	if m.Want || !m.Got {
		t.Errorf("got want=%v got=%v", m.Want, m.Got)
	}
}

func TestVerifyUnknownSignal(t *testing.T) {
	p, err := NewParser()
	if err != nil {
		t.Fatal(err)
	}
	f, err := p.ParseString("mystery = a;\n")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Verify(f, testProfile(), verifyTable(t)); err == nil {
		t.Error("unknown signal not rejected")
	}
}
