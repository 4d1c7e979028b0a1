package isochrone

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestConvexHullSquareWithInteriorPoint(t *testing.T) {
	points := []orb.Point{
		{0, 0}, {10, 0}, {10, 10}, {0, 10}, {5, 5},
	}
	hull := convexHull(points)
	// closed ring: 4 corners + repeated first point, interior point excluded
	assert.Len(t, hull, 5)
	assert.Equal(t, hull[0], hull[len(hull)-1])
}

func TestConvexHullFewerThanThreePoints(t *testing.T) {
	assert.Nil(t, convexHull([]orb.Point{{0, 0}, {1, 1}}))
}

func TestConvexHullCollinearPoints(t *testing.T) {
	assert.Nil(t, convexHull([]orb.Point{{0, 0}, {1, 1}, {2, 2}, {3, 3}}))
}
