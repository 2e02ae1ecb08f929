package enrich

import (
	"fmt"
	"slices"
)

// Facility is one point of interest with optional auxiliary attributes,
// e.g. metro_line_3 = 1 for a station served by line 3.
type Facility struct {
	Name       string
	Location   LatLon
	Attributes map[string]float64
}

// FacilitySet is a named, read-only collection of facilities with a spatial
// index over their coordinates.
type FacilitySet struct {
	name       string
	facilities []Facility
	index      *SpatialIndex
}

// NewFacilitySet validates facilities, drops named duplicates after their
// first occurrence and indexes the rest. Facilities with an empty name are
// never treated as duplicates.
func NewFacilitySet(name string, facilities []Facility) (*FacilitySet, error) {
	seen := make(map[string]bool, len(facilities))
	kept := make([]Facility, 0, len(facilities))
	for i, f := range facilities {
		if !f.Location.Valid() {
			return nil, fmt.Errorf("facility set %s: facility %d has invalid coordinate (%g, %g)",
				name, i, f.Location.Lat, f.Location.Lon)
		}
		if f.Name != "" {
			if seen[f.Name] {
				continue
			}
			seen[f.Name] = true
		}
		kept = append(kept, f)
	}

	points := make([][]float64, len(kept))
	for i, f := range kept {
		points[i] = f.Location.Vector()
	}
	idx, err := BuildSpatialIndex(points)
	if err != nil {
		return nil, fmt.Errorf("facility set %s: %w", name, err)
	}
	return &FacilitySet{name: name, facilities: kept, index: idx}, nil
}

// PointFacilities turns a literal coordinate table into unnamed facilities.
func PointFacilities(points ...LatLon) []Facility {
	out := make([]Facility, len(points))
	for i, p := range points {
		out[i] = Facility{Location: p}
	}
	return out
}

// Name returns the set name.
func (s *FacilitySet) Name() string { return s.name }

// Len returns the number of facilities after deduplication.
func (s *FacilitySet) Len() int { return len(s.facilities) }

// Facilities returns a copy of the facilities.
func (s *FacilitySet) Facilities() []Facility { return slices.Clone(s.facilities) }

// Nearest returns the facility closest to ll. Candidate selection uses
// Euclidean distance in (lat, lon) degree space.
func (s *FacilitySet) Nearest(ll LatLon) (Facility, error) {
	nb, err := s.index.Nearest(ll.Vector())
	if err != nil {
		return Facility{}, fmt.Errorf("facility set %s: %w", s.name, err)
	}
	return s.facilities[nb.ID], nil
}

// NearestFacility attaches the geodesic distance in kilometers to the nearest
// facility of a set, and optionally copies facility attributes onto the
// record along with a count of those equal to true (1).
type NearestFacility struct {
	Set            *FacilitySet
	DistanceColumn string
	Attributes     []string
	// CountColumn receives the number of requested attributes that are true.
	// Empty disables the count.
	CountColumn string
}

// Name implements RowFeature.
func (n *NearestFacility) Name() string { return "nearest_facility:" + n.DistanceColumn }

// Columns implements RowFeature.
func (n *NearestFacility) Columns() []string {
	cols := []string{n.DistanceColumn}
	cols = append(cols, n.Attributes...)
	if n.CountColumn != "" && len(n.Attributes) > 0 {
		cols = append(cols, n.CountColumn)
	}
	return cols
}

// Derive implements RowFeature.
func (n *NearestFacility) Derive(r Record) (Record, error) {
	ll, ok := r.LatLon()
	if !ok {
		return nil, errRowSkipped
	}
	f, err := n.Set.Nearest(ll)
	if err != nil {
		return nil, err
	}

	out := Record{n.DistanceColumn: GeodesicKm(ll, f.Location)}
	if len(n.Attributes) == 0 {
		return out, nil
	}
	count := 0
	for _, a := range n.Attributes {
		v, ok := f.Attributes[a]
		if !ok {
			out[a] = Missing
			continue
		}
		out[a] = v
		if v == 1 {
			count++
		}
	}
	if n.CountColumn != "" {
		out[n.CountColumn] = float64(count)
	}
	return out, nil
}

// LandmarkDistance is the single-facility case of NearestFacility.
func LandmarkDistance(column string, at LatLon) (*NearestFacility, error) {
	set, err := NewFacilitySet(column, PointFacilities(at))
	if err != nil {
		return nil, err
	}
	return &NearestFacility{Set: set, DistanceColumn: column}, nil
}
