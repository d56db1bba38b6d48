package region

import (
	"fmt"
	"regexp"
	"strings"
)

// Format is one of the region container formats.
type Format int

const (
	// Legacy is the single gzip compressed NBT blob format.
	Legacy Format = iota
	// Standard is the zip archive format with one entry per chunk.
	Standard
	// Anvil is the vanilla compatible sector addressed format.
	Anvil
)

var formats = [...]struct {
	name, ext string
	pattern   *regexp.Regexp
	new       func(x, z int32, path string, conf Config) Region
}{
	Legacy: {name: "legacy", ext: "nbtgz", pattern: fileNamePattern("nbtgz"), new: func(x, z int32, path string, conf Config) Region {
		return NewLegacyRegion(x, z, path, conf)
	}},
	Standard: {name: "standard", ext: "zip", pattern: fileNamePattern("zip"), new: func(x, z int32, path string, conf Config) Region {
		return NewStandardRegion(x, z, path, conf)
	}},
	Anvil: {name: "anvil", ext: "mca", pattern: fileNamePattern("mca"), new: func(x, z int32, path string, conf Config) Region {
		return NewAnvilRegion(x, z, path, conf)
	}},
}

// Formats returns all known formats.
func Formats() []Format { return []Format{Legacy, Standard, Anvil} }

// FormatByName looks up a format by its name, ignoring case.
func FormatByName(name string) (Format, error) {
	for f, info := range formats {
		if strings.EqualFold(info.name, name) {
			return Format(f), nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownFormat, name)
}

// String returns the name of the format.
func (f Format) String() string {
	if f < 0 || int(f) >= len(formats) {
		return fmt.Sprintf("Format(%d)", int(f))
	}
	return formats[f].name
}

// New returns an empty region of the format at region coordinates x, z,
// backed by the file at path.
func (f Format) New(x, z int32, path string, conf Config) Region {
	return formats[f].new(x, z, path, conf)
}

// Ext returns the file extension of region files of the format, without dot.
func (f Format) Ext() string { return formats[f].ext }

// FileName returns the conventional file name of the region at x, z, such as
// r.-1.2.mca.
func (f Format) FileName(x, z int32) string {
	return fmt.Sprintf("r.%d.%d.%s", x, z, formats[f].ext)
}

// Match reports if name follows the file name convention of the format.
func (f Format) Match(name string) bool {
	return formats[f].pattern.MatchString(name)
}

func fileNamePattern(ext string) *regexp.Regexp {
	return regexp.MustCompile(`^r\.-?\d+\.-?\d+\.` + regexp.QuoteMeta(ext) + `$`)
}
