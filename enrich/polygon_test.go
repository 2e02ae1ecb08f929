package enrich

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(t *testing.T) *Polygon {
	t.Helper()
	p, err := NewPolygon("square", orb.Ring{{0, 0}, {0, 2}, {2, 2}, {2, 0}})
	require.NoError(t, err)
	return p
}

func TestNewPolygon_ClosesRing(t *testing.T) {
	p := square(t)
	assert.Len(t, p.Ring, 5)
	assert.Equal(t, p.Ring[0], p.Ring[4])

	_, err := NewPolygon("line", orb.Ring{{0, 0}, {1, 1}})
	assert.Error(t, err)
}

func TestPolygon_Contains(t *testing.T) {
	p := square(t)
	tests := []struct {
		name string
		at   LatLon
		want bool
	}{
		{"inside", LatLon{Lat: 1, Lon: 1}, true},
		{"outside", LatLon{Lat: 10, Lon: 10}, false},
		{"on edge", LatLon{Lat: 0, Lon: 1}, true},
		{"on vertex", LatLon{Lat: 2, Lon: 2}, true},
		{"just outside", LatLon{Lat: 1, Lon: 2.0001}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Contains(tt.at))
		})
	}
}

func TestPolygonMembership_Derive(t *testing.T) {
	p := square(t)
	landmark, err := LandmarkDistance("distance_to_ulitsa_ostozhenka", LatLon{1, 1})
	require.NoError(t, err)
	m := &PolygonMembership{Polygons: []*Polygon{p}, Landmark: landmark}
	assert.Equal(t, []string{"is_in_square", "distance_to_ulitsa_ostozhenka"}, m.Columns())

	out, err := m.Derive(listing(1, 1))
	require.NoError(t, err)
	assert.Equal(t, 1.0, out["is_in_square"])
	assert.InDelta(t, 0, out["distance_to_ulitsa_ostozhenka"], 1e-9)

	out, err = m.Derive(listing(10, 10))
	require.NoError(t, err)
	assert.Equal(t, 0.0, out["is_in_square"])
	assert.Greater(t, out["distance_to_ulitsa_ostozhenka"], 1000.0)

	_, err = m.Derive(Record{})
	assert.ErrorIs(t, err, errRowSkipped)
}

const districtCollection = `{
  "type": "GeometryCollection",
  "geometries": [
    {
      "type": "MultiPolygon",
      "coordinates": [
        [
          [[37.55, 55.72], [37.60, 55.72], [37.60, 55.75], [37.55, 55.75], [37.55, 55.72]]
        ],
        [
          [[40, 40], [41, 40], [41, 41], [40, 40]]
        ]
      ]
    }
  ]
}`

func TestParseDistrictPolygon(t *testing.T) {
	p, err := ParseDistrictPolygon("khamovniki", []byte(districtCollection))
	require.NoError(t, err)
	assert.Equal(t, "khamovniki", p.Name)
	assert.Len(t, p.Ring, 5)
	assert.True(t, p.Contains(LatLon{Lat: 55.73, Lon: 37.57}))
	assert.False(t, p.Contains(LatLon{Lat: 40.5, Lon: 40.9}), "only the first polygon is used")

	bound := p.Bound()
	assert.Equal(t, 37.55, bound.Min.Lon())
	assert.Equal(t, 55.75, bound.Max.Lat())
}

func TestParseDistrictPolygon_BarePolygon(t *testing.T) {
	doc := `{"type":"Polygon","coordinates":[[[0,0],[0,1],[1,1],[1,0],[0,0]]]}`
	p, err := ParseDistrictPolygon("p", []byte(doc))
	require.NoError(t, err)
	assert.True(t, p.Contains(LatLon{Lat: 0.5, Lon: 0.5}))
}

func TestParseDistrictPolygon_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{`},
		{"empty collection", `{"type":"GeometryCollection","geometries":[]}`},
		{"point", `{"type":"Point","coordinates":[1,2]}`},
		{"degenerate ring", `{"type":"Polygon","coordinates":[[[0,0],[1,1]]]}`},
		{"no rings", `{"type":"Polygon","coordinates":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDistrictPolygon("d", []byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadDistrictPolygon(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "khamovniki.geojson")
	require.NoError(t, os.WriteFile(path, []byte(districtCollection), 0644))

	p, err := LoadDistrictPolygon("khamovniki", path)
	require.NoError(t, err)
	assert.Equal(t, "khamovniki", p.Name)

	_, err = LoadDistrictPolygon("arbat", filepath.Join(dir, "missing.geojson"))
	assert.ErrorIs(t, err, ErrConfiguration)

	bad := filepath.Join(dir, "bad.geojson")
	require.NoError(t, os.WriteFile(bad, []byte(`{"type":"Point","coordinates":[0,0]}`), 0644))
	_, err = LoadDistrictPolygon("bad", bad)
	assert.ErrorIs(t, err, ErrConfiguration)
}
