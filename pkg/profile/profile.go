// Package profile describes the pin topology of supported PAL/GAL-class
// devices as captured through an EPROM-socket adapter: which adapter
// address bits drive which device pins, which data bits carry which
// outputs, and which high address bits act as Hi-Z probe lines for
// bidirectional pins.
//
// Profiles are loaded from a JSON catalog (lines starting with '#' are
// treated as comments and stripped before decoding, matching the format
// the capture adapters ship with) and are immutable once validated.
package profile

import (
	"fmt"
	"sort"

	"github.com/OpenTraceLab/OpenTracePAL/pkg/qm"
)

// Role tags what a physical device pin does.
type Role int

const (
	RoleInput Role = iota
	RoleOutput
	// RoleFeedback marks a bidirectional pin: an output that also feeds
	// back into the array. In a resolved dump its externally-driven state
	// is just another address bit.
	RoleFeedback
	RoleClock
	RolePower
)

var roleNames = map[string]Role{
	"input":    RoleInput,
	"output":   RoleOutput,
	"feedback": RoleFeedback,
	"clock":    RoleClock,
	"power":    RolePower,
}

func (r Role) String() string {
	switch r {
	case RoleInput:
		return "input"
	case RoleOutput:
		return "output"
	case RoleFeedback:
		return "feedback"
	case RoleClock:
		return "clock"
	case RolePower:
		return "power"
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// Profile is the static topology of one device type. It is produced by
// the catalog loader, validated once, and read-only afterwards.
type Profile struct {
	Type       string // catalog key, e.g. "pal16l8"
	DeviceName string // name emitted into equation files, e.g. "PAL16L8"

	AddressWidth int    // independent input bits in the capture address
	DataWidth    int    // stored bits per dump word (8 or 16)
	Endianness   string // "little" or "big" for multi-byte dump words
	HiZProbePins int    // high address bits used as Hi-Z probe lines

	// AddressPins maps address bit position to device pin number;
	// DataPins maps data bit position (output index) to device pin number.
	AddressPins []int
	DataPins    []int

	PinNames map[int]string // device pin number -> signal name
	PinRoles map[int]Role   // device pin number -> role

	OutputPolarity qm.Polarity // default polarity for logic equations
	OEPolarity     qm.Polarity // default polarity for OE equations
}

// Outputs returns the number of output-bit columns in a dump word.
func (p *Profile) Outputs() int { return len(p.DataPins) }

// ExpectedDumpSize returns the byte size a dump of this device must have.
func (p *Profile) ExpectedDumpSize() int64 {
	return int64(1) << uint(p.AddressWidth) * int64(p.DataWidth/8)
}

// PinForAddressBit returns the device pin number wired to the given
// capture address bit.
func (p *Profile) PinForAddressBit(bit int) (int, bool) {
	if bit < 0 || bit >= len(p.AddressPins) {
		return 0, false
	}
	return p.AddressPins[bit], true
}

// PinForDataBit returns the device pin number carrying the given output.
func (p *Profile) PinForDataBit(bit int) (int, bool) {
	if bit < 0 || bit >= len(p.DataPins) {
		return 0, false
	}
	return p.DataPins[bit], true
}

// AddressBitForPin returns the capture address bit wired to the device
// pin, if any.
func (p *Profile) AddressBitForPin(pin int) (int, bool) {
	for bit, n := range p.AddressPins {
		if n == pin {
			return bit, true
		}
	}
	return 0, false
}

// DataBitForPin returns the output index carried by the device pin, if any.
func (p *Profile) DataBitForPin(pin int) (int, bool) {
	for bit, n := range p.DataPins {
		if n == pin {
			return bit, true
		}
	}
	return 0, false
}

// ProbeBitFor returns the Hi-Z probe address bit for an output index.
// The probe line for a bidirectional pin is the address bit wired to the
// same device pin as the output; dedicated outputs have none.
func (p *Profile) ProbeBitFor(output int) (int, bool) {
	pin, ok := p.PinForDataBit(output)
	if !ok {
		return 0, false
	}
	bit, ok := p.AddressBitForPin(pin)
	return bit, ok
}

// NameForPin returns the signal name of a device pin, falling back to a
// numeric name when the catalog does not carry one.
func (p *Profile) NameForPin(pin int) string {
	if name, ok := p.PinNames[pin]; ok {
		return name
	}
	return fmt.Sprintf("pin%d", pin)
}

// InputNames returns one signal name per capture address bit, in bit order.
func (p *Profile) InputNames() []string {
	names := make([]string, len(p.AddressPins))
	for bit := range names {
		pin, _ := p.PinForAddressBit(bit)
		names[bit] = p.NameForPin(pin)
	}
	return names
}

// RoleForPin returns the declared role of a device pin. Pins wired to
// both an address bit and a data bit default to feedback, address-only
// pins to input, data-only pins to output.
func (p *Profile) RoleForPin(pin int) Role {
	if r, ok := p.PinRoles[pin]; ok {
		return r
	}
	_, isAddr := p.AddressBitForPin(pin)
	_, isData := p.DataBitForPin(pin)
	switch {
	case isAddr && isData:
		return RoleFeedback
	case isData:
		return RoleOutput
	default:
		return RoleInput
	}
}

// SortedPins returns every pin named or wired in the profile, ascending.
func (p *Profile) SortedPins() []int {
	seen := make(map[int]bool)
	var pins []int
	add := func(n int) {
		if !seen[n] {
			seen[n] = true
			pins = append(pins, n)
		}
	}
	for _, n := range p.AddressPins {
		add(n)
	}
	for _, n := range p.DataPins {
		add(n)
	}
	for n := range p.PinNames {
		add(n)
	}
	sort.Ints(pins)
	return pins
}

// Validate checks the structural invariants every consumer relies on:
// the address-bit-to-pin mapping is a bijection, every output maps to
// exactly one data bit, and the geometry fields are coherent.
func (p *Profile) Validate() error {
	if p.AddressWidth <= 0 || p.AddressWidth > 32 {
		return fmt.Errorf("profile %s: address width %d out of range", p.Type, p.AddressWidth)
	}
	if p.DataWidth != 8 && p.DataWidth != 16 && p.DataWidth != 32 {
		return fmt.Errorf("profile %s: data width %d not a supported word size", p.Type, p.DataWidth)
	}
	if p.Endianness != "little" && p.Endianness != "big" {
		return fmt.Errorf("profile %s: endianness %q (want little or big)", p.Type, p.Endianness)
	}
	if len(p.AddressPins) != p.AddressWidth {
		return fmt.Errorf("profile %s: %d address pins for address width %d",
			p.Type, len(p.AddressPins), p.AddressWidth)
	}
	if len(p.DataPins) == 0 || len(p.DataPins) > p.DataWidth {
		return fmt.Errorf("profile %s: %d data pins for data width %d",
			p.Type, len(p.DataPins), p.DataWidth)
	}
	if p.HiZProbePins < 0 || p.HiZProbePins > p.AddressWidth {
		return fmt.Errorf("profile %s: %d Hi-Z probe pins exceeds address width %d",
			p.Type, p.HiZProbePins, p.AddressWidth)
	}
	seen := make(map[int]int)
	for bit, pin := range p.AddressPins {
		if prev, dup := seen[pin]; dup {
			return fmt.Errorf("profile %s: pin %d wired to address bits %d and %d",
				p.Type, pin, prev, bit)
		}
		seen[pin] = bit
	}
	seenData := make(map[int]int)
	for bit, pin := range p.DataPins {
		if prev, dup := seenData[pin]; dup {
			return fmt.Errorf("profile %s: pin %d wired to data bits %d and %d",
				p.Type, pin, prev, bit)
		}
		seenData[pin] = bit
	}
	return nil
}
