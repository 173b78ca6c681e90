// Package geo provides coordinate types, validation and distance helpers.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const earthRadiusM = 6371000.0

var (
	// ErrNotNumeric is returned when a coordinate cannot be parsed as a float.
	ErrNotNumeric = errors.New("coordinate is not a number")
	// ErrLatitudeRange is returned for latitudes outside [-90, 90].
	ErrLatitudeRange = errors.New("latitude out of range [-90, 90]")
	// ErrLongitudeRange is returned for longitudes outside [-180, 180].
	ErrLongitudeRange = errors.New("longitude out of range [-180, 180]")
)

// LatLng is a point in degrees.
type LatLng struct {
	Lat float64
	Lng float64
}

// Validate reports whether the point is inside the valid coordinate range.
func (p LatLng) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) {
		return ErrNotNumeric
	}
	if p.Lat < -90 || p.Lat > 90 {
		return ErrLatitudeRange
	}
	if p.Lng < -180 || p.Lng > 180 {
		return ErrLongitudeRange
	}
	return nil
}

// String renders the cursor readout form: "Lat: 39.21216, Lng: -99.73438".
func (p LatLng) String() string {
	return fmt.Sprintf("Lat: %.5f, Lng: %.5f", p.Lat, p.Lng)
}

// Popup renders the multi-line coordinates block shown on marker popups.
func (p LatLng) Popup() string {
	return fmt.Sprintf("Coordinates:\nLat: %.5f\nLon: %.5f", p.Lat, p.Lng)
}

// ParseLatLng parses user-entered latitude and longitude strings.
// Parsing is strict: surrounding whitespace is ignored but trailing garbage
// ("12abc") and hexadecimal input ("0x10") are rejected with ErrNotNumeric.
func ParseLatLng(lat, lng string) (LatLng, error) {
	latF, err := parseDecimal(lat)
	if err != nil {
		return LatLng{}, fmt.Errorf("latitude %q: %w", lat, ErrNotNumeric)
	}
	lngF, err := parseDecimal(lng)
	if err != nil {
		return LatLng{}, fmt.Errorf("longitude %q: %w", lng, ErrNotNumeric)
	}

	p := LatLng{Lat: latF, Lng: lngF}
	if err := p.Validate(); err != nil {
		return LatLng{}, err
	}
	return p, nil
}

// FromAny converts loosely typed JSON values (numbers or numeric strings)
// into a validated point. ok is false for nulls, garbage or out-of-range values.
func FromAny(lat, lng any) (LatLng, bool) {
	latF, ok := toFloat(lat)
	if !ok {
		return LatLng{}, false
	}
	lngF, ok := toFloat(lng)
	if !ok {
		return LatLng{}, false
	}
	p := LatLng{Lat: latF, Lng: lngF}
	return p, p.Validate() == nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := parseDecimal(n)
		return f, err == nil
	default:
		return 0, false
	}
}

// parseDecimal parses a base-10 float. strconv also accepts hex floats and
// digit separators behind a base prefix; those are refused.
func parseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	digits := strings.TrimLeft(s, "+-")
	if len(digits) > 1 && digits[0] == '0' && strings.ContainsAny(digits[1:2], "xXbBoO") {
		return 0, ErrNotNumeric
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) {
		return 0, ErrNotNumeric
	}
	return f, nil
}

// Distance returns the great-circle distance in meters between two points.
func Distance(a, b LatLng) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	return earthRadiusM * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Offset returns the point shifted by the given meters north and east.
// Used to sample circle outlines.
func Offset(p LatLng, northM, eastM float64) LatLng {
	dLat := northM / earthRadiusM
	dLng := eastM / (earthRadiusM * math.Cos(toRad(p.Lat)))
	return LatLng{
		Lat: p.Lat + toDeg(dLat),
		Lng: p.Lng + toDeg(dLng),
	}
}

// Bounds is an axis-aligned lat/lng rectangle.
type Bounds struct {
	SouthWest LatLng
	NorthEast LatLng
}

// NewBounds normalises two opposite corners into a Bounds.
func NewBounds(a, b LatLng) Bounds {
	return Bounds{
		SouthWest: LatLng{Lat: math.Min(a.Lat, b.Lat), Lng: math.Min(a.Lng, b.Lng)},
		NorthEast: LatLng{Lat: math.Max(a.Lat, b.Lat), Lng: math.Max(a.Lng, b.Lng)},
	}
}

// Contains reports whether p lies inside the bounds (edges inclusive).
func (b Bounds) Contains(p LatLng) bool {
	return p.Lat >= b.SouthWest.Lat && p.Lat <= b.NorthEast.Lat &&
		p.Lng >= b.SouthWest.Lng && p.Lng <= b.NorthEast.Lng
}

// Center returns the midpoint of the bounds.
func (b Bounds) Center() LatLng {
	return LatLng{
		Lat: (b.SouthWest.Lat + b.NorthEast.Lat) / 2,
		Lng: (b.SouthWest.Lng + b.NorthEast.Lng) / 2,
	}
}

// Translate shifts the bounds by the given degree delta.
func (b Bounds) Translate(d LatLng) Bounds {
	return Bounds{
		SouthWest: LatLng{Lat: b.SouthWest.Lat + d.Lat, Lng: b.SouthWest.Lng + d.Lng},
		NorthEast: LatLng{Lat: b.NorthEast.Lat + d.Lat, Lng: b.NorthEast.Lng + d.Lng},
	}
}

// InCircle reports whether p is within radiusM meters of center.
func InCircle(center LatLng, radiusM float64, p LatLng) bool {
	return Distance(center, p) <= radiusM
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
