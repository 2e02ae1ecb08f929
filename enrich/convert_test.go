package enrich

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func featureCollection(geoms ...string) string {
	features := make([]string, len(geoms))
	for i, g := range geoms {
		features[i] = `{"type":"Feature","properties":{},"geometry":` + g + `}`
	}
	return `{"type":"FeatureCollection","features":[` + strings.Join(features, ",") + `]}`
}

func TestConvertGeoJSON(t *testing.T) {
	tests := []struct {
		name string
		geom string
		want LatLon
	}{
		{
			name: "point rounded to six decimals",
			geom: `{"type":"Point","coordinates":[37.123456789,55.987654321]}`,
			// Nearest at six decimals: ...654321 rounds down to 55.987654 and
			// ...456789 rounds up. 55.987655 would need a ceiling.
			want: LatLon{Lat: 55.987654, Lon: 37.123457},
		},
		{
			name: "point with altitude",
			geom: `{"type":"Point","coordinates":[37.5,55.5,120]}`,
			want: LatLon{Lat: 55.5, Lon: 37.5},
		},
		{
			name: "linestring vertex mean",
			geom: `{"type":"LineString","coordinates":[[0,0],[2,4],[4,2]]}`,
			want: LatLon{Lat: 2, Lon: 2},
		},
		{
			name: "polygon mean of ring means",
			geom: `{"type":"Polygon","coordinates":[[[0,0],[0,4],[4,4],[4,0]],[[1,1],[1,2],[2,2],[2,1]]]}`,
			// outer mean (2,2), hole mean (1.5,1.5)
			want: LatLon{Lat: 1.75, Lon: 1.75},
		},
		{
			name: "closing vertex is counted",
			geom: `{"type":"Polygon","coordinates":[[[0,0],[0,3],[3,3],[0,0]]]}`,
			want: LatLon{Lat: 1.5, Lon: 0.75},
		},
		{
			name: "multipolygon uses first polygon",
			geom: `{"type":"MultiPolygon","coordinates":[[[[10,20],[10,22],[12,22],[12,20]]],[[[50,50],[51,51],[52,50]]]]}`,
			want: LatLon{Lat: 21, Lon: 11},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConvertGeoJSON(strings.NewReader(featureCollection(tt.geom)))
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.InDelta(t, tt.want.Lat, got[0].Lat, 1e-9)
			assert.InDelta(t, tt.want.Lon, got[0].Lon, 1e-9)
		})
	}
}

func TestConvertGeoJSON_PreservesOrder(t *testing.T) {
	got, err := ConvertGeoJSON(strings.NewReader(featureCollection(
		`{"type":"Point","coordinates":[1,2]}`,
		`{"type":"Point","coordinates":[3,4]}`,
	)))
	require.NoError(t, err)
	assert.Equal(t, []LatLon{{Lat: 2, Lon: 1}, {Lat: 4, Lon: 3}}, got)
}

func TestConvertGeoJSON_UnsupportedType(t *testing.T) {
	_, err := ConvertGeoJSON(strings.NewReader(featureCollection(
		`{"type":"Point","coordinates":[1,2]}`,
		`{"type":"Circle","coordinates":[1,2]}`,
	)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedGeometryType))

	var ug *UnsupportedGeometryError
	require.True(t, errors.As(err, &ug))
	assert.Equal(t, GeometryType("Circle"), ug.Type)
	assert.Equal(t, 1, ug.Feature)
}

func TestConvertGeoJSON_Malformed(t *testing.T) {
	_, err := ConvertGeoJSON(strings.NewReader(`not json`))
	assert.Error(t, err)

	_, err = ConvertGeoJSON(strings.NewReader(`{"type":"FeatureCollection","features":[{"type":"Feature"}]}`))
	assert.Error(t, err)

	_, err = ConvertGeoJSON(strings.NewReader(featureCollection(`{"type":"LineString","coordinates":[]}`)))
	assert.Error(t, err)
}

func TestWriteCoordinates(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCoordinates(&buf, []LatLon{{Lat: 55.75, Lon: 37.61}}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "latitude,longitude", lines[0])
	assert.Contains(t, lines[1], "55.75")
	assert.Contains(t, lines[1], "37.61")
}

func TestConvertGeoJSONFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "hospitals.geojson")
	out := filepath.Join(dir, "hospitals.csv")
	require.NoError(t, os.WriteFile(in, []byte(featureCollection(
		`{"type":"Point","coordinates":[37.6,55.7]}`,
		`{"type":"Polygon","coordinates":[[[37,55],[37,56],[38,56],[38,55]]]}`,
	)), 0644))

	n, err := ConvertGeoJSONFile(in, out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	coords, err := loadCoordinates(out)
	require.NoError(t, err)
	require.Len(t, coords, 2)
	assert.InDelta(t, 55.7, coords[0].Lat, 1e-9)
	assert.InDelta(t, 37.5, coords[1].Lon, 1e-9)

	_, err = ConvertGeoJSONFile(filepath.Join(dir, "missing.geojson"), out)
	assert.Error(t, err)
}
