package profile

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/OpenTracePAL/pkg/qm"
)

//go:embed profiles.config
var defaultCatalog []byte

// Catalog is a set of validated device profiles keyed by type name.
type Catalog map[string]*Profile

// profileJSON is the on-disk shape of one catalog entry.
type profileJSON struct {
	DeviceName     string            `json:"device_name"`
	AddressWidth   int               `json:"address_width"`
	DataWidth      int               `json:"data_width"`
	Endianness     string            `json:"endianness"`
	HiZProbePins   int               `json:"hiz_probe_pins"`
	AddressPins    []int             `json:"address_pins"`
	DataPins       []int             `json:"data_pins"`
	PinNames       map[string]string `json:"pin_names"`
	PinRoles       map[string]string `json:"pin_roles"`
	OutputPolarity string            `json:"output_polarity"`
	OEPolarity     string            `json:"oe_polarity"`
}

// DefaultCatalog returns the catalog shipped with the tool.
func DefaultCatalog() (Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalog reads a catalog file from disk. An empty path selects the
// embedded default catalog.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profile: reading catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a JSON catalog. Lines whose first non-blank
// character is '#' are comments and are stripped before decoding.
func ParseCatalog(data []byte) (Catalog, error) {
	var clean bytes.Buffer
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		clean.WriteString(line)
		clean.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("profile: reading catalog: %w", err)
	}

	var raw map[string]profileJSON
	if err := json.Unmarshal(clean.Bytes(), &raw); err != nil {
		return nil, fmt.Errorf("profile: decoding catalog: %w", err)
	}

	catalog := make(Catalog, len(raw))
	for name, pj := range raw {
		p, err := pj.toProfile(name)
		if err != nil {
			return nil, err
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		catalog[name] = p
	}
	return catalog, nil
}

// Names returns the catalog's device type names, sorted.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (pj profileJSON) toProfile(name string) (*Profile, error) {
	p := &Profile{
		Type:         name,
		DeviceName:   pj.DeviceName,
		AddressWidth: pj.AddressWidth,
		DataWidth:    pj.DataWidth,
		Endianness:   pj.Endianness,
		HiZProbePins: pj.HiZProbePins,
		AddressPins:  pj.AddressPins,
		DataPins:     pj.DataPins,
		PinNames:     make(map[int]string, len(pj.PinNames)),
		PinRoles:     make(map[int]Role, len(pj.PinRoles)),
	}
	if p.DeviceName == "" {
		p.DeviceName = strings.ToUpper(name)
	}
	if p.Endianness == "" {
		p.Endianness = "little"
	}

	for key, val := range pj.PinNames {
		pin, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("profile %s: pin name key %q is not a pin number", name, key)
		}
		p.PinNames[pin] = val
	}
	for key, val := range pj.PinRoles {
		pin, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("profile %s: pin role key %q is not a pin number", name, key)
		}
		role, ok := roleNames[val]
		if !ok {
			return nil, fmt.Errorf("profile %s: pin %d has unknown role %q", name, pin, val)
		}
		p.PinRoles[pin] = role
	}

	var err error
	if p.OutputPolarity, err = parsePolarityDefault(pj.OutputPolarity); err != nil {
		return nil, fmt.Errorf("profile %s: output_polarity: %w", name, err)
	}
	if p.OEPolarity, err = parsePolarityDefault(pj.OEPolarity); err != nil {
		return nil, fmt.Errorf("profile %s: oe_polarity: %w", name, err)
	}
	return p, nil
}

func parsePolarityDefault(s string) (qm.Polarity, error) {
	if s == "" {
		return qm.PolarityAuto, nil
	}
	return qm.ParsePolarity(s)
}
