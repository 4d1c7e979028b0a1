// Package spatial is C11: intersecting an isochrone polygon against a
// set of candidate geographic units, producing the (GEOID, POI) pairs
// the distance engine and census fetcher key off of.
package spatial

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/socialmapper/socialmapper/internal/types"
)

// Intersecting returns every unit in candidates whose centroid falls
// inside the isochrone polygon, or whose boundary overlaps it when the
// centroid test misses a sliver unit at the isochrone's edge.
//
// Centroid-in-polygon is the primary test (cheap, matches the common
// case of a unit being wholly inside or outside an isochrone); the
// boundary-vertex fallback catches units that straddle the isochrone
// edge without their centroid falling inside it, which a pure-centroid
// test would silently drop.
func Intersecting(isochrone orb.Polygon, candidates []types.GeographicUnit) []types.GeographicUnit {
	var result []types.GeographicUnit
	for _, unit := range candidates {
		if Intersects(isochrone, unit.Geometry) {
			result = append(result, unit)
		}
	}
	return result
}

// Intersects reports whether polygon b overlaps polygon a: either a's
// ring contains b's centroid, b's ring contains a's centroid, or any
// vertex of b lies inside a (catching boundary-straddling slivers).
func Intersects(a, b orb.Polygon) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	if !a.Bound().Intersects(b.Bound()) {
		return false
	}

	centroidB, _ := planar.CentroidArea(b)
	if planar.PolygonContains(a, centroidB) {
		return true
	}
	centroidA, _ := planar.CentroidArea(a)
	if planar.PolygonContains(b, centroidA) {
		return true
	}
	for _, pt := range b[0] {
		if planar.PolygonContains(a, pt) {
			return true
		}
	}
	return false
}
