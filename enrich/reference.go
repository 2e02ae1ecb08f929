package enrich

import (
	"fmt"
	"os"
	"slices"

	"go.uber.org/zap"
)

// Facility set names.
const (
	SetMetro     = "metro"
	SetHospitals = "hospitals"
	SetAirports  = "airports"
)

// MetroLineColumn returns the flag column for line n (1-based).
func MetroLineColumn(n int) string { return fmt.Sprintf("metro_line_%d", n) }

// MetroLineColumns returns metro_line_1..metro_line_n.
func MetroLineColumns(n int) []string {
	cols := make([]string, n)
	for i := range cols {
		cols[i] = MetroLineColumn(i + 1)
	}
	return cols
}

// References is the read-only reference data for one run. It is loaded once
// before the pipeline starts and never changes afterwards.
type References struct {
	Metro     *FacilitySet
	Hospitals *FacilitySet
	Airports  *FacilitySet
	Districts []*Polygon
}

// LoadTransitStations reads the station table: a name column, latitude,
// longitude and 0/1 flags for each metro line. Rows repeating an earlier
// station name are dropped.
func LoadTransitStations(cfg MetroConfig) (*FacilitySet, error) {
	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, configErrorf("metro table", err)
	}
	defer f.Close()

	df, err := readTable(f, cfg.MetroDelimiter())
	if err != nil {
		return nil, configErrorf("metro table "+cfg.Path, err)
	}
	names := df.Names()
	required := append([]string{cfg.NameColumn, ColLatitude, ColLongitude}, MetroLineColumns(cfg.Lines)...)
	for _, col := range required {
		if !slices.Contains(names, col) {
			return nil, configErrorf("metro table "+cfg.Path, fmt.Errorf("missing column %q", col))
		}
	}

	lats, latsOK := numericColumn(df, ColLatitude)
	lons, lonsOK := numericColumn(df, ColLongitude)
	if !latsOK || !lonsOK {
		return nil, configErrorf("metro table "+cfg.Path, fmt.Errorf("non-numeric coordinates"))
	}
	lines := make(map[string][]float64, cfg.Lines)
	for _, col := range MetroLineColumns(cfg.Lines) {
		vals, ok := numericColumn(df, col)
		if !ok {
			return nil, configErrorf("metro table "+cfg.Path, fmt.Errorf("column %q is not a 0/1 flag", col))
		}
		lines[col] = vals
	}
	stationNames := df.Col(cfg.NameColumn).Records()

	stations := make([]Facility, len(lats))
	for i := range stations {
		if IsMissing(lats[i]) || IsMissing(lons[i]) {
			return nil, configErrorf("metro table "+cfg.Path, fmt.Errorf("row %d: missing coordinate", i))
		}
		attrs := make(map[string]float64, len(lines))
		for col, vals := range lines {
			v := vals[i]
			if IsMissing(v) {
				v = 0
			}
			attrs[col] = v
		}
		stations[i] = Facility{
			Name:       stationNames[i],
			Location:   LatLon{Lat: lats[i], Lon: lons[i]},
			Attributes: attrs,
		}
	}

	set, err := NewFacilitySet(SetMetro, stations)
	if err != nil {
		return nil, configErrorf("metro table "+cfg.Path, err)
	}
	return set, nil
}

// LoadHospitals reads a comma-delimited latitude,longitude table.
func LoadHospitals(path string) (*FacilitySet, error) {
	coords, err := loadCoordinates(path)
	if err != nil {
		return nil, configErrorf("hospital table", err)
	}
	set, err := NewFacilitySet(SetHospitals, PointFacilities(coords...))
	if err != nil {
		return nil, configErrorf("hospital table "+path, err)
	}
	return set, nil
}

func loadCoordinates(path string) ([]LatLon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	df, err := readTable(f, ',')
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	lats, latsOK := numericColumn(df, ColLatitude)
	lons, lonsOK := numericColumn(df, ColLongitude)
	if !latsOK || !lonsOK {
		return nil, fmt.Errorf("%s: missing or non-numeric latitude/longitude columns", path)
	}
	out := make([]LatLon, 0, len(lats))
	for i := range lats {
		if IsMissing(lats[i]) || IsMissing(lons[i]) {
			return nil, fmt.Errorf("%s: row %d: missing coordinate", path, i)
		}
		out = append(out, LatLon{Lat: lats[i], Lon: lons[i]})
	}
	return out, nil
}

// LoadReferences loads every reference input the enabled features need.
// Any failure is a configuration error naming the input.
func LoadReferences(cfg *Config, logger *zap.Logger) (*References, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	refs := &References{}
	var err error

	if cfg.Features.Metro {
		if refs.Metro, err = LoadTransitStations(cfg.Reference.Metro); err != nil {
			return nil, err
		}
		logger.Info("loaded metro stations",
			zap.String("path", cfg.Reference.Metro.Path),
			zap.Int("stations", refs.Metro.Len()))
	}

	if cfg.Features.Hospital {
		if refs.Hospitals, err = LoadHospitals(cfg.Reference.Hospitals); err != nil {
			return nil, err
		}
		logger.Info("loaded hospitals",
			zap.String("path", cfg.Reference.Hospitals),
			zap.Int("hospitals", refs.Hospitals.Len()))
	}

	if cfg.Features.Airport {
		if refs.Airports, err = NewFacilitySet(SetAirports, PointFacilities(cfg.Locations.Airports...)); err != nil {
			return nil, configErrorf("locations.airports", err)
		}
	}

	for _, d := range cfg.Reference.Districts {
		if !cfg.Features.DistrictEnabled(d.Name) {
			logger.Debug("district disabled", zap.String("district", d.Name))
			continue
		}
		p, err := LoadDistrictPolygon(d.Name, d.Path)
		if err != nil {
			return nil, err
		}
		refs.Districts = append(refs.Districts, p)
		logger.Info("loaded district polygon",
			zap.String("district", d.Name),
			zap.Int("vertices", len(p.Ring)))
	}
	return refs, nil
}
