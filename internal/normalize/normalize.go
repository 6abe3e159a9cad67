// Package normalize turns the timestamp and quality representations sent by
// clients and legacy stores into the canonical values the scheduler accepts.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
)

// Errors returned by the normalizer.
var (
	// ErrUnrecognizedTimestampFormat is returned for any timestamp shape the
	// normalizer does not understand.
	ErrUnrecognizedTimestampFormat = errors.New("unrecognized timestamp format")

	// ErrInvalidQuality is returned for missing, non-integral or out-of-range ratings.
	ErrInvalidQuality = domain.ErrInvalidQuality
)

// EpochUnit selects how bare numbers are interpreted.
type EpochUnit string

// Supported epoch units.
const (
	EpochMilliseconds EpochUnit = "ms"
	EpochSeconds      EpochUnit = "s"
)

// SecondsNanos is the {seconds, nanoseconds} record used by document stores.
// A zero Nanoseconds value also covers the legacy seconds-only shape.
type SecondsNanos struct {
	Seconds     int64 `json:"seconds"`
	Nanoseconds int64 `json:"nanoseconds"`
}

// timeProvider matches structured timestamp types that can convert themselves.
type timeProvider interface {
	AsTime() time.Time
}

// naive ISO layouts accepted after RFC 3339; they are read in the configured location
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	domain.DateLayout,
}

// Config controls the normalizer.
type Config struct {
	// EpochUnit defaults to milliseconds.
	EpochUnit EpochUnit

	// Location is used for ISO strings without an offset. Defaults to UTC.
	Location *time.Location
}

// Normalizer is the single boundary through which raw timestamps and quality
// ratings enter the core.
type Normalizer struct {
	unit EpochUnit
	loc  *time.Location
}

// New creates a Normalizer.
func New(cfg Config) (*Normalizer, error) {
	n := &Normalizer{unit: EpochMilliseconds, loc: time.UTC}

	switch cfg.EpochUnit {
	case "":
	case EpochMilliseconds, EpochSeconds:
		n.unit = cfg.EpochUnit
	default:
		return nil, fmt.Errorf("unsupported epoch unit %q", cfg.EpochUnit)
	}

	if cfg.Location != nil {
		n.loc = cfg.Location
	}

	return n, nil
}

// NewDefault creates a Normalizer reading epochs as milliseconds in UTC.
func NewDefault() *Normalizer {
	return &Normalizer{unit: EpochMilliseconds, loc: time.UTC}
}

// Timestamp normalizes raw into a UTC instant.
//
// Shapes are tried in this order: structured time values, ISO-8601 strings,
// Unix epoch numbers, {seconds, nanoseconds} records, then legacy
// {seconds}-only records.
func (n *Normalizer) Timestamp(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case nil:
		return time.Time{}, fmt.Errorf("%w: missing", ErrUnrecognizedTimestampFormat)
	case time.Time:
		return v.UTC(), nil
	case *time.Time:
		if v == nil {
			return time.Time{}, fmt.Errorf("%w: nil time", ErrUnrecognizedTimestampFormat)
		}
		return v.UTC(), nil
	case timeProvider:
		return v.AsTime().UTC(), nil
	case string:
		return n.parseString(v)
	case SecondsNanos:
		return fromSecondsNanos(v.Seconds, v.Nanoseconds), nil
	case *SecondsNanos:
		if v == nil {
			return time.Time{}, fmt.Errorf("%w: nil record", ErrUnrecognizedTimestampFormat)
		}
		return fromSecondsNanos(v.Seconds, v.Nanoseconds), nil
	case map[string]any:
		return n.parseRecord(v)
	}

	if f, ok := asFloat(raw); ok {
		return n.fromEpoch(f)
	}

	return time.Time{}, fmt.Errorf("%w: %T", ErrUnrecognizedTimestampFormat, raw)
}

func (n *Normalizer) parseString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty string", ErrUnrecognizedTimestampFormat)
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}

	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, n.loc); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnrecognizedTimestampFormat, s)
}

func (n *Normalizer) fromEpoch(f float64) (time.Time, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, fmt.Errorf("%w: non-finite epoch", ErrUnrecognizedTimestampFormat)
	}

	if n.unit == EpochSeconds {
		sec, frac := math.Modf(f)
		return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC(), nil
	}

	ms, frac := math.Modf(f)
	return time.UnixMilli(int64(ms)).Add(time.Duration(math.Round(frac * 1e6))).UTC(), nil
}

// parseRecord handles decoded JSON records: {seconds, nanoseconds} and the
// underscore-prefixed variant, then the seconds-only legacy record.
func (n *Normalizer) parseRecord(m map[string]any) (time.Time, error) {
	secRaw, ok := lookup(m, "seconds", "_seconds")
	if !ok {
		return time.Time{}, fmt.Errorf("%w: record without seconds", ErrUnrecognizedTimestampFormat)
	}
	sec, ok := asFloat(secRaw)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: seconds is %T", ErrUnrecognizedTimestampFormat, secRaw)
	}

	var nanos float64
	if nanoRaw, ok := lookup(m, "nanoseconds", "_nanoseconds", "nanos"); ok {
		if nanos, ok = asFloat(nanoRaw); !ok {
			return time.Time{}, fmt.Errorf("%w: nanoseconds is %T", ErrUnrecognizedTimestampFormat, nanoRaw)
		}
	}

	return fromSecondsNanos(int64(sec), int64(nanos)), nil
}

func lookup(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func fromSecondsNanos(sec, nanos int64) time.Time {
	return time.Unix(sec, nanos).UTC()
}

// Quality validates a raw quality rating.
func (n *Normalizer) Quality(raw any) (int, error) {
	var f float64
	switch v := raw.(type) {
	case nil:
		return 0, fmt.Errorf("%w: missing", ErrInvalidQuality)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidQuality, v)
		}
		f = parsed
	default:
		var ok bool
		if f, ok = asFloat(raw); !ok {
			return 0, fmt.Errorf("%w: %T", ErrInvalidQuality, raw)
		}
	}

	if f != math.Trunc(f) || f < 0 || f > 5 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidQuality, f)
	}

	return int(f), nil
}

// asFloat converts Go numeric kinds and json.Number.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
