// Package timeinfo computes snapshots of the current instant in a requested
// timezone.
//
// A Provider is immutable once built and safe for concurrent use. Every call
// reads the injected clock exactly once, resolves the zone through the
// injected resolver and returns a freshly allocated value.
package timeinfo

import (
	"fmt"
	"time"

	"github.com/conneroisu/time-mcp/internal/clock"
	"github.com/conneroisu/time-mcp/internal/errors"
	"github.com/conneroisu/time-mcp/internal/zone"
	"github.com/lestrrat-go/strftime"
)

// DefaultTimezone is used when neither the caller nor the configuration
// names a zone.
const DefaultTimezone = "Europe/Berlin"

const (
	isoLayout      = "2006-01-02T15:04:05-07:00"
	isoMicroLayout = "2006-01-02T15:04:05.000000-07:00"
)

// Snapshot is the full-timestamp view of an instant.
type Snapshot struct {
	ISOTime       string `json:"iso_time" yaml:"iso_time"`
	FormattedTime string `json:"formatted_time" yaml:"formatted_time"`
	Timezone      string `json:"timezone" yaml:"timezone"`
}

// Components is the decomposed-fields view of an instant. Weekday counts
// from Monday (0) to Sunday (6).
type Components struct {
	Year        int    `json:"year" yaml:"year"`
	Month       int    `json:"month" yaml:"month"`
	Day         int    `json:"day" yaml:"day"`
	Hour        int    `json:"hour" yaml:"hour"`
	Minute      int    `json:"minute" yaml:"minute"`
	Second      int    `json:"second" yaml:"second"`
	Microsecond int    `json:"microsecond" yaml:"microsecond"`
	Weekday     int    `json:"weekday" yaml:"weekday"`
	Timezone    string `json:"timezone" yaml:"timezone"`
}

// Provider answers current-time queries.
type Provider struct {
	defaultZone string
	clock       clock.Clock
	resolver    zone.Resolver
}

// Option configures a Provider.
type Option func(*Provider)

// WithDefaultTimezone sets the zone used when a call omits one.
func WithDefaultTimezone(name string) Option {
	return func(p *Provider) {
		p.defaultZone = name
	}
}

// WithClock replaces the wall clock.
func WithClock(c clock.Clock) Option {
	return func(p *Provider) {
		p.clock = c
	}
}

// WithResolver replaces the timezone database.
func WithResolver(r zone.Resolver) Option {
	return func(p *Provider) {
		p.resolver = r
	}
}

// NewProvider builds a Provider. It fails if the default zone cannot be
// resolved, so a misconfigured default surfaces at startup rather than on
// the first call.
func NewProvider(opts ...Option) (*Provider, error) {
	p := &Provider{
		defaultZone: DefaultTimezone,
		clock:       clock.New(),
		resolver:    zone.NewSystemResolver(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if _, err := p.resolver.Resolve(p.defaultZone); err != nil {
		return nil, fmt.Errorf("default timezone: %w", err)
	}

	return p, nil
}

// DefaultTimezone returns the zone used when a call omits one.
func (p *Provider) DefaultTimezone() string {
	return p.defaultZone
}

// CurrentTime returns the current instant in timezone. An empty timezone
// selects the default; an empty format makes FormattedTime equal ISOTime.
func (p *Provider) CurrentTime(format, timezone string) (*Snapshot, error) {
	name, now, err := p.now(timezone)
	if err != nil {
		return nil, err
	}

	iso := FormatISO(now)
	formatted := iso
	if format != "" {
		formatted, err = Strftime(format, now)
		if err != nil {
			return nil, err
		}
	}

	return &Snapshot{
		ISOTime:       iso,
		FormattedTime: formatted,
		Timezone:      name,
	}, nil
}

// Components returns the calendar and clock fields of the current instant
// in timezone.
func (p *Provider) Components(timezone string) (*Components, error) {
	name, now, err := p.now(timezone)
	if err != nil {
		return nil, err
	}

	c := Decompose(now)
	c.Timezone = name

	return &c, nil
}

func (p *Provider) now(timezone string) (string, time.Time, error) {
	if timezone == "" {
		timezone = p.defaultZone
	}

	loc, err := p.resolver.Resolve(timezone)
	if err != nil {
		return "", time.Time{}, err
	}

	return timezone, p.clock.Now().In(loc).Truncate(time.Microsecond), nil
}

// FormatISO renders t as ISO-8601 with a numeric UTC offset. Fractional
// seconds appear as six digits and only when non-zero.
func FormatISO(t time.Time) string {
	if t.Nanosecond()/1000 == 0 {
		return t.Format(isoLayout)
	}

	return t.Format(isoMicroLayout)
}

// Decompose splits t into its local fields. Timezone is left empty.
func Decompose(t time.Time) Components {
	return Components{
		Year:        t.Year(),
		Month:       int(t.Month()),
		Day:         t.Day(),
		Hour:        t.Hour(),
		Minute:      t.Minute(),
		Second:      t.Second(),
		Microsecond: t.Nanosecond() / 1000,
		Weekday:     (int(t.Weekday()) + 6) % 7,
	}
}

// Strftime renders t with a strftime pattern. On top of the POSIX
// directives it understands %f (microseconds, six digits) and %s (Unix
// seconds). Unknown directives and a trailing lone % are rejected.
func Strftime(pattern string, t time.Time) (string, error) {
	f, err := strftime.New(pattern,
		strftime.WithMicroseconds('f'),
		strftime.WithUnixSeconds('s'),
	)
	if err != nil {
		return "", errors.NewInvalidFormatError(pattern, err)
	}

	return f.FormatString(t), nil
}
