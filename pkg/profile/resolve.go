package profile

import (
	"fmt"
	"strings"
)

// ResolutionError reports that device selection failed: the requested
// type is unknown, no profile matches the dump size, or auto-detection
// found more than one candidate. It is surfaced before any equation work
// begins.
type ResolutionError struct {
	DeviceType string   // requested type, or "auto"
	DumpSize   int64    // dump size used for auto-detection
	Matches    []string // candidate type names when ambiguous
}

func (e *ResolutionError) Error() string {
	switch {
	case e.DeviceType != "" && e.DeviceType != "auto":
		return fmt.Sprintf("profile: no device profile named %q", e.DeviceType)
	case len(e.Matches) > 1:
		return fmt.Sprintf("profile: dump size %d matches multiple device types (%s); select one with --devicetype",
			e.DumpSize, strings.Join(e.Matches, ", "))
	default:
		return fmt.Sprintf("profile: no device profile matches dump size %d bytes", e.DumpSize)
	}
}

// Resolve selects a device profile by exact type name, or, when the name
// is "auto" or empty, by matching the dump size against every profile's
// expected capture size. Zero or multiple auto-detection matches yield a
// ResolutionError.
func Resolve(catalog Catalog, deviceType string, dumpSize int64) (*Profile, error) {
	if deviceType != "" && deviceType != "auto" {
		p, ok := catalog[deviceType]
		if !ok {
			return nil, &ResolutionError{DeviceType: deviceType}
		}
		return p, nil
	}

	var matches []string
	for _, name := range catalog.Names() {
		if catalog[name].ExpectedDumpSize() == dumpSize {
			matches = append(matches, name)
		}
	}
	if len(matches) != 1 {
		return nil, &ResolutionError{DeviceType: "auto", DumpSize: dumpSize, Matches: matches}
	}
	return catalog[matches[0]], nil
}
