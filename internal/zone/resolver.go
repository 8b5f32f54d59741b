// Package zone resolves timezone names into locations.
//
// SystemResolver consults the host timezone database. StaticResolver serves
// a fixed table of named offsets and exists for deterministic tests and for
// deployments that want to pin the set of accepted names.
package zone

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/conneroisu/time-mcp/internal/errors"
	"gopkg.in/yaml.v3"
)

// Resolver maps a timezone name to a location.
type Resolver interface {
	Resolve(name string) (*time.Location, error)
}

// SystemResolver resolves IANA names against the host timezone database.
type SystemResolver struct{}

// NewSystemResolver returns a resolver backed by time.LoadLocation.
func NewSystemResolver() SystemResolver {
	return SystemResolver{}
}

// Resolve loads name from the timezone database. "Local" and the empty
// string are rejected since they do not name an IANA zone.
func (SystemResolver) Resolve(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return nil, errors.NewUnknownTimezoneError(name, nil)
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, errors.NewUnknownTimezoneError(name, err)
	}

	return loc, nil
}

// StaticResolver serves a fixed name to offset table.
type StaticResolver struct {
	zones map[string]*time.Location
}

// NewStaticResolver builds a resolver from offsets in seconds east of UTC.
func NewStaticResolver(offsets map[string]int) *StaticResolver {
	zones := make(map[string]*time.Location, len(offsets))
	for name, offset := range offsets {
		zones[name] = time.FixedZone(name, offset)
	}

	return &StaticResolver{zones: zones}
}

// Resolve returns the fixed zone registered under name.
func (r *StaticResolver) Resolve(name string) (*time.Location, error) {
	loc, ok := r.zones[name]
	if !ok {
		return nil, errors.NewUnknownTimezoneError(name, nil)
	}

	return loc, nil
}

// Names lists the registered zone names in sorted order.
func (r *StaticResolver) Names() []string {
	names := make([]string, 0, len(r.zones))
	for name := range r.zones {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Table is the YAML document shape of a static zone table:
//
//	zones:
//	  - name: Test/East
//	    offset: "+02:00"
type Table struct {
	Zones []TableEntry `yaml:"zones"`
}

// TableEntry is one named fixed offset.
type TableEntry struct {
	Name   string `yaml:"name"`
	Offset string `yaml:"offset"`
}

// DecodeTable reads a YAML zone table into a StaticResolver.
func DecodeTable(r io.Reader) (*StaticResolver, error) {
	var table Table
	if err := yaml.NewDecoder(r).Decode(&table); err != nil {
		return nil, fmt.Errorf("decoding zone table: %w", err)
	}

	offsets := make(map[string]int, len(table.Zones))
	for i, entry := range table.Zones {
		if entry.Name == "" {
			return nil, fmt.Errorf("zone table entry %d: missing name", i)
		}
		if _, dup := offsets[entry.Name]; dup {
			return nil, fmt.Errorf("zone table entry %d: duplicate name %q", i, entry.Name)
		}
		seconds, err := ParseOffset(entry.Offset)
		if err != nil {
			return nil, fmt.Errorf("zone table entry %q: %w", entry.Name, err)
		}
		offsets[entry.Name] = seconds
	}

	return NewStaticResolver(offsets), nil
}

// LoadTable reads a YAML zone table from path.
func LoadTable(path string) (*StaticResolver, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening zone table: %w", err)
	}
	defer f.Close()

	return DecodeTable(f)
}

// ParseOffset parses "+HH:MM", "-HH:MM", "+HHMM" or "Z" into seconds east
// of UTC.
func ParseOffset(s string) (int, error) {
	if s == "Z" || s == "+00:00" || s == "-00:00" {
		return 0, nil
	}
	if len(s) < 5 || (s[0] != '+' && s[0] != '-') {
		return 0, fmt.Errorf("invalid offset %q", s)
	}

	digits := strings.ReplaceAll(s[1:], ":", "")
	if len(digits) != 4 || strings.Trim(digits, "0123456789") != "" {
		return 0, fmt.Errorf("invalid offset %q", s)
	}

	hours, err := strconv.Atoi(digits[:2])
	if err != nil {
		return 0, fmt.Errorf("invalid offset %q: %w", s, err)
	}
	minutes, err := strconv.Atoi(digits[2:])
	if err != nil {
		return 0, fmt.Errorf("invalid offset %q: %w", s, err)
	}
	if hours > 23 || minutes > 59 {
		return 0, fmt.Errorf("offset %q out of range", s)
	}

	seconds := hours*3600 + minutes*60
	if s[0] == '-' {
		seconds = -seconds
	}

	return seconds, nil
}
