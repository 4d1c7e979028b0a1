package neighbors

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/socialmapper/socialmapper/internal/types"
)

// touchEpsilonDegrees is the tolerance used to decide whether two
// polygon edges are "the same" boundary segment, standing in for
// shapely's exact touches() predicate since this module has no full
// vector-geometry engine. County boundaries shared between TIGER
// features are digitized from the same source lines, so coincident
// vertices differ by floating-point noise at most.
const touchEpsilonDegrees = 1e-7

// computeCountyNeighborsSpatial finds pairs of counties whose outer
// rings share a boundary segment, mirroring
// _compute_county_neighbors_spatial's geom1.touches(geom2) check. It
// returns both directions of each adjacency, matching the original.
func computeCountyNeighborsSpatial(units []types.GeographicUnit) []types.NeighborRelationship {
	var rels []types.NeighborRelationship
	for i := 0; i < len(units); i++ {
		for j := i + 1; j < len(units); j++ {
			if !boundingBoxesOverlap(units[i].Geometry, units[j].Geometry) {
				continue
			}
			shared := sharedBoundaryLength(units[i].Geometry, units[j].Geometry)
			if shared <= 0 {
				continue
			}
			rels = append(rels,
				types.NeighborRelationship{
					SourceGEOID: units[i].GEOID, NeighborGEOID: units[j].GEOID,
					Kind: types.NeighborAdjacent, SharedBoundaryLength: shared,
				},
				types.NeighborRelationship{
					SourceGEOID: units[j].GEOID, NeighborGEOID: units[i].GEOID,
					Kind: types.NeighborAdjacent, SharedBoundaryLength: shared,
				},
			)
		}
	}
	return rels
}

func boundingBoxesOverlap(a, b orb.Polygon) bool {
	boundA, boundB := a.Bound(), b.Bound()
	return boundA.Intersects(boundB)
}

// sharedBoundaryLength sums the length of edge segments in a's outer
// ring that coincide (within touchEpsilonDegrees) with an edge segment
// of b's outer ring.
func sharedBoundaryLength(a, b orb.Polygon) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	ringA, ringB := a[0], b[0]
	var total float64
	for i := 0; i < len(ringA)-1; i++ {
		segA := [2]orb.Point{ringA[i], ringA[i+1]}
		for j := 0; j < len(ringB)-1; j++ {
			segB := [2]orb.Point{ringB[j], ringB[j+1]}
			if segmentsCoincide(segA, segB) {
				total += segmentLength(segA)
				break
			}
		}
	}
	return total
}

func segmentsCoincide(a, b [2]orb.Point) bool {
	return (pointsClose(a[0], b[0]) && pointsClose(a[1], b[1])) ||
		(pointsClose(a[0], b[1]) && pointsClose(a[1], b[0]))
}

func pointsClose(p, q orb.Point) bool {
	return math.Abs(p[0]-q[0]) < touchEpsilonDegrees && math.Abs(p[1]-q[1]) < touchEpsilonDegrees
}

func segmentLength(seg [2]orb.Point) float64 {
	dx := seg[1][0] - seg[0][0]
	dy := seg[1][1] - seg[0][1]
	return math.Hypot(dx, dy)
}
