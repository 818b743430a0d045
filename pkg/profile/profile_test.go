package profile

import (
	"errors"
	"testing"

	"github.com/OpenTraceLab/OpenTracePAL/pkg/qm"
)

func testProfile() *Profile {
	return &Profile{
		Type:         "test4",
		DeviceName:   "TEST4",
		AddressWidth: 4,
		DataWidth:    8,
		Endianness:   "little",
		HiZProbePins: 2,
		AddressPins:  []int{1, 2, 5, 6},
		DataPins:     []int{5, 6},
		PinNames:     map[int]string{1: "i1", 2: "i2", 5: "io5", 6: "io6", 10: "GND"},
		PinRoles:     map[int]Role{10: RolePower},
	}
}

func TestProfileValidate(t *testing.T) {
	p := testProfile()
	if err := p.Validate(); err != nil {
		t.Fatal(err)
	}

	bad := testProfile()
	bad.AddressPins = []int{1, 2, 5, 5}
	if err := bad.Validate(); err == nil {
		t.Error("duplicate address pin not rejected")
	}

	bad = testProfile()
	bad.AddressPins = bad.AddressPins[:3]
	if err := bad.Validate(); err == nil {
		t.Error("address pin count mismatch not rejected")
	}

	bad = testProfile()
	bad.Endianness = "middle"
	if err := bad.Validate(); err == nil {
		t.Error("bad endianness not rejected")
	}
}

func TestProbeBitFor(t *testing.T) {
	p := testProfile()

	// io5 carries output 0 and sits on address bit 2.
	bit, ok := p.ProbeBitFor(0)
	if !ok || bit != 2 {
		t.Errorf("output 0: got bit=%d ok=%v, want 2", bit, ok)
	}
	bit, ok = p.ProbeBitFor(1)
	if !ok || bit != 3 {
		t.Errorf("output 1: got bit=%d ok=%v, want 3", bit, ok)
	}

	// A dedicated output pin has no probe line.
	p.DataPins = []int{5, 8}
	if _, ok := p.ProbeBitFor(1); ok {
		t.Error("dedicated output pin reported a probe bit")
	}
}

func TestRoleForPin(t *testing.T) {
	p := testProfile()
	cases := map[int]Role{
		1:  RoleInput,
		5:  RoleFeedback,
		10: RolePower,
	}
	for pin, want := range cases {
		if got := p.RoleForPin(pin); got != want {
			t.Errorf("pin %d: got %v want %v", pin, got, want)
		}
	}
}

func TestPinLookups(t *testing.T) {
	p := testProfile()

	pin, ok := p.PinForAddressBit(2)
	if !ok || pin != 5 {
		t.Errorf("address bit 2: got pin=%d ok=%v, want 5", pin, ok)
	}
	if _, ok := p.PinForAddressBit(4); ok {
		t.Error("out-of-range address bit accepted")
	}

	bit, ok := p.AddressBitForPin(6)
	if !ok || bit != 3 {
		t.Errorf("pin 6: got bit=%d ok=%v, want 3", bit, ok)
	}
}

func TestInputNames(t *testing.T) {
	p := testProfile()
	want := []string{"i1", "i2", "io5", "io6"}
	got := p.InputNames()
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bit %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestParseCatalogComments(t *testing.T) {
	data := []byte(`# capture adapter catalog
{
  # geometry of a toy device
  "toy": {
    "address_width": 2,
    "data_width": 8,
    "address_pins": [1, 2],
    "data_pins": [3],
    "output_polarity": "negative"
  }
}
`)
	catalog, err := ParseCatalog(data)
	if err != nil {
		t.Fatal(err)
	}
	p, ok := catalog["toy"]
	if !ok {
		t.Fatalf("catalog: %v", catalog.Names())
	}
	if p.DeviceName != "TOY" {
		t.Errorf("device name default: got %q", p.DeviceName)
	}
	if p.Endianness != "little" {
		t.Errorf("endianness default: got %q", p.Endianness)
	}
	if p.OutputPolarity != qm.PolarityNegative {
		t.Errorf("output polarity: got %v", p.OutputPolarity)
	}
	if p.OEPolarity != qm.PolarityAuto {
		t.Errorf("oe polarity default: got %v", p.OEPolarity)
	}
	if p.ExpectedDumpSize() != 4 {
		t.Errorf("dump size: got %d", p.ExpectedDumpSize())
	}
}

func TestDefaultCatalog(t *testing.T) {
	catalog, err := DefaultCatalog()
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"pal16l8", "pal16v8", "pal22v10"} {
		if _, ok := catalog[name]; !ok {
			t.Errorf("missing %s; have %v", name, catalog.Names())
		}
	}
}

func TestResolveByName(t *testing.T) {
	catalog := Catalog{"test4": testProfile()}

	p, err := Resolve(catalog, "test4", 0)
	if err != nil || p.Type != "test4" {
		t.Fatalf("got %v, %v", p, err)
	}

	_, err = Resolve(catalog, "pal99x9", 0)
	var re *ResolutionError
	if !errors.As(err, &re) {
		t.Fatalf("expected ResolutionError, got %v", err)
	}
}

func TestResolveAuto(t *testing.T) {
	catalog := Catalog{"test4": testProfile()}

	p, err := Resolve(catalog, "auto", testProfile().ExpectedDumpSize())
	if err != nil || p.Type != "test4" {
		t.Fatalf("got %v, %v", p, err)
	}

	var re *ResolutionError
	if _, err := Resolve(catalog, "auto", 3); !errors.As(err, &re) {
		t.Fatalf("expected ResolutionError for unknown size, got %v", err)
	}
}

func TestResolveAmbiguous(t *testing.T) {
	a, b := testProfile(), testProfile()
	b.Type = "test4b"
	catalog := Catalog{"test4": a, "test4b": b}

	_, err := Resolve(catalog, "auto", a.ExpectedDumpSize())
	var re *ResolutionError
	if !errors.As(err, &re) {
		t.Fatalf("expected ResolutionError, got %v", err)
	}
	if len(re.Matches) != 2 {
		t.Errorf("got matches %v", re.Matches)
	}
}
