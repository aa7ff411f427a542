// Package geom provides point geometries for geoblock on top of
// github.com/golang/geo.
//
// Planar points are bounded by r2.Rect, geographic points by s2.Rect. Both
// are encoded as pairs of big-endian float64 values.
package geom
