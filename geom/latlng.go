package geom

import (
	"github.com/bsm/geoblock"
	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/pkg/errors"
)

const latLngSize = 16

// LatLng is a geographic point. It is encoded as latitude and longitude in
// radians.
type LatLng s2.LatLng

// LatLngFromDegrees returns a point for the given coordinates.
func LatLngFromDegrees(lat, lng float64) LatLng {
	return LatLng(s2.LatLngFromDegrees(lat, lng))
}

// Overlaps implements geoblock.Point. Bounds must be an s2.Rect.
func (p LatLng) Overlaps(bounds geoblock.Bounds) bool {
	rect, ok := bounds.(s2.Rect)
	return ok && rect.ContainsLatLng(s2.LatLng(p))
}

// AppendBinary implements geoblock.Point.
func (p LatLng) AppendBinary(dst []byte) []byte {
	return appendFloats(dst, p.Lat.Radians(), p.Lng.Radians())
}

// LatLngRange is the index projection of an s2.Rect, in radians.
type LatLngRange struct {
	Lat r1.Interval
	Lng s1.Interval
}

// Rect returns the rectangle spanned by the range.
func (r LatLngRange) Rect() s2.Rect {
	return s2.Rect{Lat: r.Lat, Lng: r.Lng}
}

// AppendBinary implements geoblock.Range.
func (r LatLngRange) AppendBinary(dst []byte) []byte {
	return appendFloats(dst, r.Lat.Lo, r.Lat.Hi, r.Lng.Lo, r.Lng.Hi)
}

// LatLngType is the geoblock.PointType of LatLng points.
var LatLngType geoblock.PointType = latLngType{}

type latLngType struct{}

func (latLngType) Bounds(points []geoblock.Point) (geoblock.Bounds, bool) {
	if len(points) == 0 {
		return nil, false
	}

	rect := s2.EmptyRect()
	for _, pt := range points {
		p, ok := pt.(LatLng)
		if !ok {
			return nil, false
		}
		rect = rect.AddPoint(s2.LatLng(p))
	}
	return rect, true
}

func (latLngType) Range(bounds geoblock.Bounds) geoblock.Range {
	rect := bounds.(s2.Rect)
	return LatLngRange{Lat: rect.Lat, Lng: rect.Lng}
}

func (latLngType) Size(buf []byte) (int, error) {
	if len(buf) < latLngSize {
		return 0, errors.Errorf("geom: lat/lng point needs %d bytes, got %d", latLngSize, len(buf))
	}
	return latLngSize, nil
}

func (t latLngType) Decode(buf []byte) (geoblock.Point, error) {
	if _, err := t.Size(buf); err != nil {
		return nil, err
	}
	v := readFloats(buf, 2)
	return LatLng{Lat: s1.Angle(v[0]), Lng: s1.Angle(v[1])}, nil
}

func (latLngType) DecodeRange(buf []byte) (geoblock.Range, int, error) {
	if len(buf) < 2*latLngSize {
		return nil, 0, errors.Errorf("geom: lat/lng range needs %d bytes, got %d", 2*latLngSize, len(buf))
	}
	v := readFloats(buf, 4)
	return LatLngRange{
		Lat: r1.Interval{Lo: v[0], Hi: v[1]},
		Lng: s1.Interval{Lo: v[2], Hi: v[3]},
	}, 2 * latLngSize, nil
}
