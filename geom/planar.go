package geom

import (
	"encoding/binary"
	"math"

	"github.com/bsm/geoblock"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

const planarSize = 16

// Planar is a point on a two-dimensional plane.
type Planar r2.Point

// Overlaps implements geoblock.Point. Bounds must be an r2.Rect.
func (p Planar) Overlaps(bounds geoblock.Bounds) bool {
	rect, ok := bounds.(r2.Rect)
	return ok && rect.ContainsPoint(r2.Point(p))
}

// AppendBinary implements geoblock.Point.
func (p Planar) AppendBinary(dst []byte) []byte {
	return appendFloats(dst, p.X, p.Y)
}

// PlanarRange is the index projection of an r2.Rect.
type PlanarRange struct {
	Min, Max r2.Point
}

// Rect returns the rectangle spanned by the range.
func (r PlanarRange) Rect() r2.Rect {
	return r2.RectFromPoints(r.Min, r.Max)
}

// AppendBinary implements geoblock.Range.
func (r PlanarRange) AppendBinary(dst []byte) []byte {
	return appendFloats(dst, r.Min.X, r.Min.Y, r.Max.X, r.Max.Y)
}

// PlanarType is the geoblock.PointType of Planar points.
var PlanarType geoblock.PointType = planarType{}

type planarType struct{}

func (planarType) Bounds(points []geoblock.Point) (geoblock.Bounds, bool) {
	if len(points) == 0 {
		return nil, false
	}

	rect := r2.EmptyRect()
	for _, pt := range points {
		p, ok := pt.(Planar)
		if !ok {
			return nil, false
		}
		rect = rect.AddPoint(r2.Point(p))
	}
	return rect, true
}

func (planarType) Range(bounds geoblock.Bounds) geoblock.Range {
	rect := bounds.(r2.Rect)
	return PlanarRange{Min: rect.Lo(), Max: rect.Hi()}
}

func (planarType) Size(buf []byte) (int, error) {
	if len(buf) < planarSize {
		return 0, errors.Errorf("geom: planar point needs %d bytes, got %d", planarSize, len(buf))
	}
	return planarSize, nil
}

func (t planarType) Decode(buf []byte) (geoblock.Point, error) {
	if _, err := t.Size(buf); err != nil {
		return nil, err
	}
	v := readFloats(buf, 2)
	return Planar{X: v[0], Y: v[1]}, nil
}

func (planarType) DecodeRange(buf []byte) (geoblock.Range, int, error) {
	if len(buf) < 2*planarSize {
		return nil, 0, errors.Errorf("geom: planar range needs %d bytes, got %d", 2*planarSize, len(buf))
	}
	v := readFloats(buf, 4)
	return PlanarRange{
		Min: r2.Point{X: v[0], Y: v[1]},
		Max: r2.Point{X: v[2], Y: v[3]},
	}, 2 * planarSize, nil
}

// --------------------------------------------------------------------

func appendFloats(dst []byte, vv ...float64) []byte {
	var tmp [8]byte
	for _, v := range vv {
		binary.BigEndian.PutUint64(tmp[:], math.Float64bits(v))
		dst = append(dst, tmp[:]...)
	}
	return dst
}

func readFloats(buf []byte, n int) []float64 {
	vv := make([]float64, n)
	for i := range vv {
		vv[i] = math.Float64frombits(binary.BigEndian.Uint64(buf[i*8:]))
	}
	return vv
}
