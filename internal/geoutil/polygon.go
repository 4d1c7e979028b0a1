// Package geoutil holds small geometry conversion helpers shared by
// every component that consumes GeoJSON from Census/TIGER endpoints:
// normalizing Polygon and MultiPolygon geometries down to the single
// orb.Polygon this module's GeographicUnit carries (its largest ring
// by area, for MultiPolygon inputs).
package geoutil

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/socialmapper/socialmapper/internal/errs"
)

// GeometryToPolygon extracts a single orb.Polygon from a GeoJSON
// geometry. MultiPolygons collapse to their largest-area member, since
// the rest of this module works with one outer boundary per geographic
// unit; spec.md's geometry model doesn't need multi-part precision.
func GeometryToPolygon(geom orb.Geometry) (orb.Polygon, error) {
	switch g := geom.(type) {
	case orb.Polygon:
		return g, nil
	case orb.MultiPolygon:
		if len(g) == 0 {
			return nil, errs.New(errs.KindDataProcessing, "geoutil", "empty MultiPolygon geometry")
		}
		largest := g[0]
		largestArea := planar.Area(largest)
		for _, poly := range g[1:] {
			if area := planar.Area(poly); area > largestArea {
				largest, largestArea = poly, area
			}
		}
		return largest, nil
	default:
		return nil, errs.New(errs.KindDataProcessing, "geoutil", "unsupported geometry type for polygon extraction")
	}
}

// GeometryToPolygonFromFeature is a convenience wrapper for
// geojson.Feature.Geometry.
func GeometryToPolygonFromFeature(f *geojson.Feature) (orb.Polygon, error) {
	return GeometryToPolygon(f.Geometry)
}

// Centroid returns a polygon's area-weighted centroid in the same
// coordinate space the polygon is expressed in. Degenerate polygons
// (fewer than 3 points, zero area) fall back to the first ring's
// first point.
func Centroid(p orb.Polygon) orb.Point {
	if len(p) == 0 || len(p[0]) == 0 {
		return orb.Point{}
	}
	centroid, area := planar.CentroidArea(p)
	if area == 0 {
		return p[0][0]
	}
	return centroid
}
