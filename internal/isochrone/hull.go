package isochrone

import (
	"sort"

	"github.com/paulmach/orb"
)

// convexHull computes the convex hull of a point set via Andrew's
// monotone chain algorithm, O(n log n). Returns a closed ring (first
// point repeated as the last) suitable for an orb.Polygon's outer
// ring. Fewer than 3 distinct points produce no hull (caller treats
// this as a degenerate isochrone).
func convexHull(points []orb.Point) []orb.Point {
	unique := dedupePoints(points)
	if len(unique) < 3 {
		return nil
	}

	sort.Slice(unique, func(i, j int) bool {
		if unique[i].X() != unique[j].X() {
			return unique[i].X() < unique[j].X()
		}
		return unique[i].Y() < unique[j].Y()
	})

	cross := func(o, a, b orb.Point) float64 {
		return (a.X()-o.X())*(b.Y()-o.Y()) - (a.Y()-o.Y())*(b.X()-o.X())
	}

	n := len(unique)
	hull := make([]orb.Point, 0, 2*n)

	// Lower hull.
	for _, p := range unique {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// Upper hull.
	lower := len(hull) + 1
	for i := n - 2; i >= 0; i-- {
		p := unique[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	hull = hull[:len(hull)-1] // last point == first point
	if len(hull) < 3 {
		return nil
	}
	return append(hull, hull[0]) // close the ring
}

func dedupePoints(points []orb.Point) []orb.Point {
	seen := make(map[orb.Point]bool, len(points))
	out := make([]orb.Point, 0, len(points))
	for _, p := range points {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
