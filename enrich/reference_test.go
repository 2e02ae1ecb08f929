package enrich

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadTransitStations(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "metro.csv", metroCSV(3,
		station{"Kievskaya", "55.743", "37.565", []int{3, 1}},
		station{"Lubyanka", "55.760", "37.625", []int{1}},
		station{"Kievskaya", "55.744", "37.566", []int{2}},
	))

	set, err := LoadTransitStations(MetroConfig{Path: path, Delimiter: ";", NameColumn: "English transcription", Lines: 3})
	require.NoError(t, err)
	assert.Equal(t, SetMetro, set.Name())
	assert.Equal(t, 2, set.Len(), "duplicate station name dropped")

	first := set.Facilities()[0]
	assert.Equal(t, "Kievskaya", first.Name)
	assert.Equal(t, LatLon{Lat: 55.743, Lon: 37.565}, first.Location)
	assert.Equal(t, map[string]float64{"metro_line_1": 1, "metro_line_2": 0, "metro_line_3": 1}, first.Attributes)
}

func TestLoadTransitStations_Errors(t *testing.T) {
	dir := t.TempDir()
	cfg := MetroConfig{Delimiter: ";", NameColumn: "English transcription", Lines: 3}

	cfg.Path = filepath.Join(dir, "missing.csv")
	_, err := LoadTransitStations(cfg)
	assert.ErrorIs(t, err, ErrConfiguration)

	cfg.Path = writeFile(t, dir, "short.csv", metroCSV(2, station{"A", "55.7", "37.6", nil}))
	_, err = LoadTransitStations(cfg)
	assert.ErrorIs(t, err, ErrConfiguration, "missing metro_line_3 column")

	cfg.Path = writeFile(t, dir, "badcoord.csv", metroCSV(3, station{"A", "north", "37.6", nil}))
	_, err = LoadTransitStations(cfg)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoadHospitals(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "hospitals.csv", "latitude,longitude\n55.7,37.6\n55.8,37.5\n")

	set, err := LoadHospitals(path)
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())

	bad := writeFile(t, dir, "bad.csv", "lat,lon\n55.7,37.6\n")
	_, err = LoadHospitals(bad)
	assert.ErrorIs(t, err, ErrConfiguration)

	gap := writeFile(t, dir, "gap.csv", "latitude,longitude\n55.7,\n")
	_, err = LoadHospitals(gap)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoadReferences(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Input.Train = "train.csv"
	cfg.Reference.Metro.Path = writeFile(t, dir, "metro.csv", metroCSV(15, station{"A", "55.7", "37.6", []int{1}}))
	cfg.Reference.Hospitals = writeFile(t, dir, "hospitals.csv", "latitude,longitude\n55.7,37.6\n")
	cfg.Reference.Districts = []DistrictConfig{
		{Name: "khamovniki", Path: writeFile(t, dir, "khamovniki.geojson", districtCollection)},
		{Name: "arbat", Path: filepath.Join(dir, "arbat.geojson")},
	}
	cfg.Features.IsInArbat = false

	refs, err := LoadReferences(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, refs.Metro.Len())
	assert.Equal(t, 1, refs.Hospitals.Len())
	assert.Equal(t, len(DefaultLocations().Airports), refs.Airports.Len())
	require.Len(t, refs.Districts, 1, "disabled district is not loaded")
	assert.Equal(t, "khamovniki", refs.Districts[0].Name)

	cfg.Features.IsInArbat = true
	_, err = LoadReferences(cfg, nil)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoadReferences_CapitalizedDistrict(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Features = FeatureFlags{IsInTverskoy: false}
	cfg.Reference.Districts = []DistrictConfig{
		{Name: "Tverskoy", Path: writeFile(t, dir, "tverskoy.geojson", districtCollection)},
	}

	refs, err := LoadReferences(cfg, nil)
	require.NoError(t, err)
	assert.Empty(t, refs.Districts, "flag applies whatever the name's case")

	cfg.Features.IsInTverskoy = true
	refs, err = LoadReferences(cfg, nil)
	require.NoError(t, err)
	require.Len(t, refs.Districts, 1)
	m := &PolygonMembership{Polygons: refs.Districts}
	assert.Equal(t, []string{"is_in_tverskoy"}, m.Columns())
}

func TestLoadReferences_FeaturesOff(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Features = FeatureFlags{}
	refs, err := LoadReferences(cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, refs.Metro)
	assert.Nil(t, refs.Hospitals)
	assert.Nil(t, refs.Airports)
	assert.Empty(t, refs.Districts)
}
