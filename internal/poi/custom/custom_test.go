package custom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromCSVWithLatLonColumns(t *testing.T) {
	csv := "name,lat,lon\nLibrary,35.78,-78.64\n"
	pois, invalid, err := FromCSV(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Empty(t, invalid)
	require.Len(t, pois, 1)
	assert.Equal(t, "Library", pois[0].Name)
	assert.Equal(t, 35.78, pois[0].Lat)
}

func TestFromCSVWithAliasColumns(t *testing.T) {
	csv := "name,latitude,longitude\nPark,36.0,-79.0\n"
	pois, invalid, err := FromCSV(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Empty(t, invalid)
	require.Len(t, pois, 1)
}

func TestFromCSVWithGeometryColumn(t *testing.T) {
	csv := `name,geometry` + "\n" + `School,"{""type"":""Point"",""coordinates"":[-78.5,35.5]}"` + "\n"
	pois, invalid, err := FromCSV(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Empty(t, invalid)
	require.Len(t, pois, 1)
	assert.Equal(t, 35.5, pois[0].Lat)
	assert.Equal(t, -78.5, pois[0].Lon)
}

func TestFromCSVRejectsMissingCoordinates(t *testing.T) {
	csv := "name\nNoCoords\n"
	pois, invalid, err := FromCSV(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Empty(t, pois)
	require.Len(t, invalid, 1)
}

func TestFromJSONBareArray(t *testing.T) {
	body := `[{"id":"p1","name":"Library","lat":35.78,"lon":-78.64}]`
	pois, invalid, err := FromJSON(strings.NewReader(body))
	require.NoError(t, err)
	assert.Empty(t, invalid)
	require.Len(t, pois, 1)
	assert.Equal(t, "p1", pois[0].ID)
}

func TestFromJSONEnvelope(t *testing.T) {
	body := `{"pois":[{"name":"Library","latitude":35.78,"longitude":-78.64}]}`
	pois, invalid, err := FromJSON(strings.NewReader(body))
	require.NoError(t, err)
	assert.Empty(t, invalid)
	require.Len(t, pois, 1)
}

func TestFromJSONPropertiesGeometryShape(t *testing.T) {
	body := `[{"properties":{"name":"Library"},"geometry":{"type":"Point","coordinates":[-78.64,35.78]}}]`
	pois, invalid, err := FromJSON(strings.NewReader(body))
	require.NoError(t, err)
	assert.Empty(t, invalid)
	require.Len(t, pois, 1)
	assert.Equal(t, 35.78, pois[0].Lat)
}

func TestFromJSONRejectsOutOfBounds(t *testing.T) {
	body := `[{"lat":999,"lon":0}]`
	pois, invalid, err := FromJSON(strings.NewReader(body))
	require.NoError(t, err)
	assert.Empty(t, pois)
	require.Len(t, invalid, 1)
}
