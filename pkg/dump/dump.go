// Package dump decodes raw EPROM-style capture images into truth tables.
//
// A capture rig drives every input combination of the device under test
// as an EPROM address and records the output pins as the data word, so
// the image is a brute-force truth table laid out in address order. For
// bidirectional pins the rig also wires a high "Hi-Z probe" address bit
// to the pin itself: when the device tri-states the pin, the recorded
// value follows the probe line, and toggling the probe flips the sample.
// That comparison is how driven and tri-stated addresses are told apart.
package dump

import (
	"fmt"
	"io"
	"os"

	"github.com/OpenTraceLab/OpenTracePAL/pkg/profile"
	"github.com/OpenTraceLab/OpenTracePAL/pkg/truthtable"
)

// ReadFile reads and decodes a dump image from disk.
func ReadFile(path string, prof *profile.Profile) (*truthtable.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dump: opening image: %w", err)
	}
	defer f.Close()
	return Read(f, prof)
}

// Read decodes a dump image from a reader and builds the device's truth
// table, including Hi-Z probe analysis.
func Read(r io.Reader, prof *profile.Profile) (*truthtable.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("dump: reading image: %w", err)
	}
	words, err := DecodeImage(data, prof)
	if err != nil {
		return nil, err
	}
	return BuildTable(words, prof)
}

// DecodeImage converts raw image bytes into one word per address using
// the profile's word size and endianness. The image must hold exactly
// 2^addressWidth words.
func DecodeImage(data []byte, prof *profile.Profile) ([]uint32, error) {
	stride := prof.DataWidth / 8
	size := 1 << uint(prof.AddressWidth)
	if len(data) != size*stride {
		return nil, &truthtable.DumpFormatError{
			ExpectedLen: size * stride,
			ActualLen:   len(data),
		}
	}

	words := make([]uint32, size)
	for a := 0; a < size; a++ {
		chunk := data[a*stride : (a+1)*stride]
		var w uint32
		if prof.Endianness == "big" {
			for _, b := range chunk {
				w = w<<8 | uint32(b)
			}
		} else {
			for i := len(chunk) - 1; i >= 0; i-- {
				w = w<<8 | uint32(chunk[i])
			}
		}
		words[a] = w
	}
	return words, nil
}

// BuildTable assembles a truth table from decoded words and resolves
// tri-state status for every output that has a Hi-Z probe line: an
// output whose sample changes when only its probe bit toggles is not
// driving at that address.
func BuildTable(words []uint32, prof *profile.Profile) (*truthtable.Table, error) {
	t, err := truthtable.FromWords(prof.AddressWidth, prof.Outputs(), words)
	if err != nil {
		return nil, err
	}

	size := len(words)
	for o := 0; o < prof.Outputs(); o++ {
		probe, ok := prof.ProbeBitFor(o)
		if !ok {
			continue // no probe line, output is always enabled
		}
		t.SetOEControlled(o)
		bit := uint32(1) << uint(o)
		probeMask := 1 << uint(probe)
		for a := 0; a < size; a++ {
			if a&probeMask != 0 {
				continue // partner address handles the pair
			}
			if words[a]&bit != words[a|probeMask]&bit {
				t.MarkTriState(o, a)
				t.MarkTriState(o, a|probeMask)
			}
		}
	}
	return t, nil
}
