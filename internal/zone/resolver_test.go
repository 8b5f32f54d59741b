package zone

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/conneroisu/time-mcp/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemResolver(t *testing.T) {
	r := NewSystemResolver()

	tests := []struct {
		name    string
		zone    string
		wantErr bool
	}{
		{name: "berlin", zone: "Europe/Berlin"},
		{name: "new york", zone: "America/New_York"},
		{name: "utc", zone: "UTC"},
		{name: "unknown", zone: "Not/AZone", wantErr: true},
		{name: "empty", zone: "", wantErr: true},
		{name: "local", zone: "Local", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := r.Resolve(tt.zone)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsUnknownTimezone(err))
				assert.Nil(t, loc)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.zone, loc.String())
		})
	}
}

func TestStaticResolver(t *testing.T) {
	r := NewStaticResolver(map[string]int{
		"Test/East": 2 * 3600,
		"Test/West": -5 * 3600,
	})

	loc, err := r.Resolve("Test/East")
	require.NoError(t, err)
	_, offset := time.Date(2024, 1, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, 7200, offset)

	_, err = r.Resolve("Europe/Berlin")
	assert.True(t, errors.IsUnknownTimezone(err))

	assert.Equal(t, []string{"Test/East", "Test/West"}, r.Names())
}

func TestDecodeTable(t *testing.T) {
	t.Run("valid table", func(t *testing.T) {
		doc := `
zones:
  - name: Test/East
    offset: "+02:00"
  - name: Test/India
    offset: "+0530"
  - name: Test/Zulu
    offset: Z
`
		r, err := DecodeTable(strings.NewReader(doc))
		require.NoError(t, err)

		loc, err := r.Resolve("Test/India")
		require.NoError(t, err)
		_, offset := time.Now().In(loc).Zone()
		assert.Equal(t, 5*3600+30*60, offset)
		assert.Len(t, r.Names(), 3)
	})

	t.Run("duplicate name", func(t *testing.T) {
		doc := "zones:\n  - {name: A/B, offset: \"+01:00\"}\n  - {name: A/B, offset: \"+02:00\"}\n"
		_, err := DecodeTable(strings.NewReader(doc))
		assert.ErrorContains(t, err, "duplicate")
	})

	t.Run("missing name", func(t *testing.T) {
		_, err := DecodeTable(strings.NewReader("zones:\n  - {offset: \"+01:00\"}\n"))
		assert.ErrorContains(t, err, "missing name")
	})

	t.Run("bad offset", func(t *testing.T) {
		_, err := DecodeTable(strings.NewReader("zones:\n  - {name: A/B, offset: \"1 hour\"}\n"))
		assert.ErrorContains(t, err, "invalid offset")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := DecodeTable(strings.NewReader("zones: [\n"))
		assert.ErrorContains(t, err, "decoding zone table")
	})
}

func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.yml")
	require.NoError(t, os.WriteFile(path, []byte("zones:\n  - {name: Test/Minus, offset: \"-03:30\"}\n"), 0o644))

	r, err := LoadTable(path)
	require.NoError(t, err)
	loc, err := r.Resolve("Test/Minus")
	require.NoError(t, err)
	_, offset := time.Now().In(loc).Zone()
	assert.Equal(t, -(3*3600 + 30*60), offset)

	_, err = LoadTable(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestParseOffset(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "Z", want: 0},
		{in: "+00:00", want: 0},
		{in: "+01:00", want: 3600},
		{in: "-0930", want: -(9*3600 + 30*60)},
		{in: "+14:00", want: 14 * 3600},
		{in: "01:00", wantErr: true},
		{in: "+1:00", wantErr: true},
		{in: "+24:00", wantErr: true},
		{in: "+12:60", wantErr: true},
		{in: "++1:00", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOffset(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
