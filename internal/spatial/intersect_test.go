package spatial

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"

	"github.com/socialmapper/socialmapper/internal/types"
)

func square(minX, minY, maxX, maxY float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY},
	}}
}

func TestIntersectsFullyContained(t *testing.T) {
	iso := square(0, 0, 10, 10)
	unit := square(2, 2, 4, 4)
	assert.True(t, Intersects(iso, unit))
}

func TestIntersectsDisjoint(t *testing.T) {
	iso := square(0, 0, 2, 2)
	unit := square(10, 10, 12, 12)
	assert.False(t, Intersects(iso, unit))
}

func TestIntersectsPartialOverlap(t *testing.T) {
	iso := square(0, 0, 5, 5)
	unit := square(4, 4, 8, 8)
	assert.True(t, Intersects(iso, unit))
}

func TestIntersectingFiltersCandidates(t *testing.T) {
	iso := square(0, 0, 10, 10)
	units := []types.GeographicUnit{
		{GEOID: "in", Geometry: square(1, 1, 2, 2)},
		{GEOID: "out", Geometry: square(100, 100, 101, 101)},
	}
	result := Intersecting(iso, units)
	assert.Len(t, result, 1)
	assert.Equal(t, "in", result[0].GEOID)
}
