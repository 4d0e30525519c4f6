// Package version parses and compares SCPI standard version numbers as
// reported by the SYSTem:VERSion? query.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Reference is the SCPI standard revision this library's command set is
// written against.
const Reference = "1999.0"

// SCPIVersion represents a parsed "year.revision" SCPI version.
type SCPIVersion struct {
	Year     uint16
	Revision uint16
}

// Parse parses a "year.revision" version string such as "1999.0".
func Parse(s string) (SCPIVersion, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 2 {
		return SCPIVersion{}, fmt.Errorf("invalid version %q: expected year.revision", s)
	}

	year, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil || parts[0] == "" {
		return SCPIVersion{}, fmt.Errorf("invalid version %q: bad year component", s)
	}

	revision, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil || parts[1] == "" {
		return SCPIVersion{}, fmt.Errorf("invalid version %q: bad revision component", s)
	}

	return SCPIVersion{Year: uint16(year), Revision: uint16(revision)}, nil
}

// String returns the version as "year.revision".
func (v SCPIVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Year, v.Revision)
}

// AtLeast reports whether v is the same as or newer than other.
func (v SCPIVersion) AtLeast(other SCPIVersion) bool {
	if v.Year != other.Year {
		return v.Year > other.Year
	}
	return v.Revision >= other.Revision
}
