package enrich

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRenderer(t *testing.T) *MapRenderer {
	t.Helper()
	refs := testReferences(t)
	listings := DatasetLocations(testListings())
	return NewMapRenderer(refs.Districts, []*FacilitySet{refs.Metro, refs.Hospitals}, listings)
}

func TestDatasetLocations_SkipsInvalid(t *testing.T) {
	locs := DatasetLocations(testListings())
	assert.Len(t, locs, 2)
	assert.Equal(t, LatLon{Lat: 55.73, Lon: 37.57}, locs[0])
}

func TestMapRenderer_SVG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, testRenderer(t).RenderToSVG(&buf))

	out := buf.String()
	assert.True(t, strings.Contains(out, "<svg"), "output should be an SVG document")
	assert.Contains(t, out, "<path")
}

func TestMapRenderer_PNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, testRenderer(t).RenderToPNG(&buf))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	b := img.Bounds()
	assert.Greater(t, b.Dx(), 0)
	assert.Greater(t, b.Dy(), 0)
}

func TestMapRenderer_Empty(t *testing.T) {
	r := NewMapRenderer(nil, nil, nil)
	assert.Error(t, r.RenderToSVG(&bytes.Buffer{}))
	assert.Error(t, r.RenderToPNG(&bytes.Buffer{}))
}

func TestProjection_NorthUp(t *testing.T) {
	r := testRenderer(t)
	p, err := r.project()
	require.NoError(t, err)

	_, ySouth := p.point(LatLon{Lat: 55.70, Lon: 37.6})
	_, yNorth := p.point(LatLon{Lat: 55.80, Lon: 37.6})
	xWest, _ := p.point(LatLon{Lat: 55.75, Lon: 37.5})
	xEast, _ := p.point(LatLon{Lat: 55.75, Lon: 37.7})
	assert.Greater(t, yNorth, ySouth)
	assert.Greater(t, xEast, xWest)
}
