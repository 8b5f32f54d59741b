package timeinfo

import (
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/conneroisu/time-mcp/internal/clock"
	"github.com/conneroisu/time-mcp/internal/errors"
	"github.com/conneroisu/time-mcp/internal/zone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-03-15 14:30:45.123456789 UTC, a Friday.
var fixedInstant = time.Date(2024, time.March, 15, 14, 30, 45, 123456789, time.UTC)

func newFixedProvider(t *testing.T, opts ...Option) *Provider {
	t.Helper()
	opts = append([]Option{WithClock(clock.NewFixed(fixedInstant))}, opts...)
	p, err := NewProvider(opts...)
	require.NoError(t, err)
	return p
}

func TestNewProvider(t *testing.T) {
	t.Run("defaults to Berlin", func(t *testing.T) {
		p, err := NewProvider()
		require.NoError(t, err)
		assert.Equal(t, "Europe/Berlin", p.DefaultTimezone())
	})

	t.Run("configured default", func(t *testing.T) {
		p, err := NewProvider(WithDefaultTimezone("Asia/Tokyo"))
		require.NoError(t, err)
		assert.Equal(t, "Asia/Tokyo", p.DefaultTimezone())
	})

	t.Run("unresolvable default", func(t *testing.T) {
		_, err := NewProvider(WithDefaultTimezone("Not/AZone"))
		require.Error(t, err)
		assert.True(t, errors.IsUnknownTimezone(err))
	})
}

func TestCurrentTime(t *testing.T) {
	p := newFixedProvider(t)

	tests := []struct {
		name          string
		format        string
		timezone      string
		wantISO       string
		wantFormatted string
		wantZone      string
	}{
		{
			name:          "default zone without format",
			wantISO:       "2024-03-15T15:30:45.123456+01:00",
			wantFormatted: "2024-03-15T15:30:45.123456+01:00",
			wantZone:      "Europe/Berlin",
		},
		{
			name:          "new york with pattern",
			format:        "%Y-%m-%d %H:%M:%S",
			timezone:      "America/New_York",
			wantISO:       "2024-03-15T10:30:45.123456-04:00",
			wantFormatted: "2024-03-15 10:30:45",
			wantZone:      "America/New_York",
		},
		{
			name:          "utc renders numeric offset",
			timezone:      "UTC",
			wantISO:       "2024-03-15T14:30:45.123456+00:00",
			wantFormatted: "2024-03-15T14:30:45.123456+00:00",
			wantZone:      "UTC",
		},
		{
			name:          "microseconds directive",
			format:        "%H:%M:%S.%f",
			timezone:      "Asia/Kathmandu",
			wantISO:       "2024-03-15T20:15:45.123456+05:45",
			wantFormatted: "20:15:45.123456",
			wantZone:      "Asia/Kathmandu",
		},
		{
			name:          "names and offset",
			format:        "%A %B %d %z",
			timezone:      "Europe/Berlin",
			wantISO:       "2024-03-15T15:30:45.123456+01:00",
			wantFormatted: "Friday March 15 +0100",
			wantZone:      "Europe/Berlin",
		},
		{
			name:          "unix seconds directive",
			format:        "%s",
			timezone:      "America/New_York",
			wantISO:       "2024-03-15T10:30:45.123456-04:00",
			wantFormatted: "1710513045",
			wantZone:      "America/New_York",
		},
		{
			name:          "literal percent",
			format:        "100%%",
			wantISO:       "2024-03-15T15:30:45.123456+01:00",
			wantFormatted: "100%",
			wantZone:      "Europe/Berlin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.CurrentTime(tt.format, tt.timezone)
			require.NoError(t, err)
			assert.Equal(t, tt.wantISO, got.ISOTime)
			assert.Equal(t, tt.wantFormatted, got.FormattedTime)
			assert.Equal(t, tt.wantZone, got.Timezone)
		})
	}
}

func TestCurrentTimeErrors(t *testing.T) {
	p := newFixedProvider(t)

	t.Run("unknown timezone", func(t *testing.T) {
		got, err := p.CurrentTime("", "Not/AZone")
		assert.Nil(t, got)
		require.Error(t, err)
		assert.True(t, errors.IsUnknownTimezone(err))
	})

	t.Run("unknown timezone wins over bad format", func(t *testing.T) {
		_, err := p.CurrentTime("%Q", "Not/AZone")
		assert.True(t, errors.IsUnknownTimezone(err))
	})

	for _, pattern := range []string{"%Q", "%Y-%m-%d %", "%E"} {
		t.Run("invalid pattern "+pattern, func(t *testing.T) {
			got, err := p.CurrentTime(pattern, "America/New_York")
			assert.Nil(t, got)
			require.Error(t, err)
			assert.True(t, errors.IsInvalidFormat(err))
		})
	}
}

func TestComponents(t *testing.T) {
	p := newFixedProvider(t)

	tests := []struct {
		timezone string
		want     Components
	}{
		{
			timezone: "",
			want: Components{
				Year: 2024, Month: 3, Day: 15, Hour: 15, Minute: 30, Second: 45,
				Microsecond: 123456, Weekday: 4, Timezone: "Europe/Berlin",
			},
		},
		{
			timezone: "America/New_York",
			want: Components{
				Year: 2024, Month: 3, Day: 15, Hour: 10, Minute: 30, Second: 45,
				Microsecond: 123456, Weekday: 4, Timezone: "America/New_York",
			},
		},
		{
			timezone: "Australia/Lord_Howe",
			want: Components{
				Year: 2024, Month: 3, Day: 16, Hour: 1, Minute: 30, Second: 45,
				Microsecond: 123456, Weekday: 5, Timezone: "Australia/Lord_Howe",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.want.Timezone, func(t *testing.T) {
			got, err := p.Components(tt.timezone)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}

	t.Run("unknown timezone", func(t *testing.T) {
		got, err := p.Components("Not/AZone")
		assert.Nil(t, got)
		assert.True(t, errors.IsUnknownTimezone(err))
	})
}

func TestWeekdayStartsMonday(t *testing.T) {
	monday := time.Date(2024, time.March, 11, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		c := Decompose(monday.AddDate(0, 0, i))
		assert.Equal(t, i, c.Weekday, monday.AddDate(0, 0, i).Weekday().String())
	}
}

func TestFormatISO(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{
			name: "whole seconds omit fraction",
			in:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).In(berlin),
			want: "2024-01-01T01:00:00+01:00",
		},
		{
			name: "sub-microsecond remainder omits fraction",
			in:   time.Date(2024, 1, 1, 0, 0, 0, 999, time.UTC),
			want: "2024-01-01T00:00:00+00:00",
		},
		{
			name: "fraction is always six digits",
			in:   time.Date(2024, 7, 1, 12, 0, 0, 500000000, time.UTC).In(berlin),
			want: "2024-07-01T14:00:00.500000+02:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatISO(tt.in))
		})
	}
}

func TestStaticResolverIsDeterministic(t *testing.T) {
	p := newFixedProvider(t,
		WithResolver(zone.NewStaticResolver(map[string]int{"Test/Plus2": 7200})),
		WithDefaultTimezone("Test/Plus2"),
	)

	snap, err := p.CurrentTime("%H:%M", "")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15T16:30:45.123456+02:00", snap.ISOTime)
	assert.Equal(t, "16:30", snap.FormattedTime)
	assert.Equal(t, "Test/Plus2", snap.Timezone)

	_, err = p.CurrentTime("", "Europe/Berlin")
	assert.True(t, errors.IsUnknownTimezone(err))
}

func TestSystemClockScenarios(t *testing.T) {
	p, err := NewProvider()
	require.NoError(t, err)

	t.Run("no format echoes iso", func(t *testing.T) {
		snap, err := p.CurrentTime("", "")
		require.NoError(t, err)
		assert.Equal(t, snap.ISOTime, snap.FormattedTime)
		assert.Equal(t, "Europe/Berlin", snap.Timezone)
	})

	t.Run("new york pattern", func(t *testing.T) {
		snap, err := p.CurrentTime("%Y-%m-%d %H:%M:%S", "America/New_York")
		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`), snap.FormattedTime)
		assert.Equal(t, "America/New_York", snap.Timezone)
	})

	t.Run("berlin twice in the same second", func(t *testing.T) {
		var first, second *Components
		for attempt := 0; attempt < 5; attempt++ {
			first, err = p.Components("Europe/Berlin")
			require.NoError(t, err)
			second, err = p.Components("Europe/Berlin")
			require.NoError(t, err)
			if first.Second == second.Second {
				break
			}
		}

		assert.Equal(t, first.Year, second.Year)
		assert.Equal(t, first.Month, second.Month)
		assert.Equal(t, first.Day, second.Day)
		assert.Equal(t, first.Hour, second.Hour)
		assert.Equal(t, first.Minute, second.Minute)
		assert.Equal(t, first.Second, second.Second)
		assert.Equal(t, "Europe/Berlin", second.Timezone)
	})

	t.Run("round trip through iso text", func(t *testing.T) {
		at := time.Now()
		fixed := newFixedProvider(t, WithClock(clock.NewFixed(at)))

		snap, err := fixed.CurrentTime("", "America/New_York")
		require.NoError(t, err)
		comps, err := fixed.Components("America/New_York")
		require.NoError(t, err)

		loc, err := time.LoadLocation("America/New_York")
		require.NoError(t, err)
		parsed, err := time.Parse(time.RFC3339Nano, snap.ISOTime)
		require.NoError(t, err)

		got := Decompose(parsed.In(loc))
		got.Timezone = comps.Timezone
		assert.Equal(t, *comps, got)
	})
}

func TestConcurrentCalls(t *testing.T) {
	p, err := NewProvider()
	require.NoError(t, err)

	zones := []string{"Europe/Berlin", "America/New_York", "Asia/Tokyo", "UTC"}

	var wg sync.WaitGroup
	errs := make(chan error, 200)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tz := zones[i%len(zones)]
			if _, err := p.CurrentTime("%F %T", tz); err != nil {
				errs <- err
			}
			if _, err := p.Components(tz); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}
}
