package enrich

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Polygon is a named closed ring of (lon, lat) vertices.
type Polygon struct {
	Name string
	Ring orb.Ring
}

// NewPolygon validates ring and closes it if needed.
func NewPolygon(name string, ring orb.Ring) (*Polygon, error) {
	if len(ring) < 3 {
		return nil, fmt.Errorf("polygon %s: ring needs at least 3 vertices, got %d", name, len(ring))
	}
	r := make(orb.Ring, len(ring), len(ring)+1)
	copy(r, ring)
	if !r.Closed() {
		r = append(r, r[0])
	}
	return &Polygon{Name: name, Ring: r}, nil
}

// Contains reports whether ll lies inside the ring. Points exactly on an edge
// or vertex count as inside.
func (p *Polygon) Contains(ll LatLon) bool {
	return planar.RingContains(p.Ring, ll.Point())
}

// Bound returns the ring's bounding box.
func (p *Polygon) Bound() orb.Bound { return p.Ring.Bound() }

// ParseDistrictPolygon extracts the district ring from a GeometryCollection
// document: the first geometry's first polygon's outer ring. A bare
// MultiPolygon or Polygon document is accepted too.
func ParseDistrictPolygon(name string, data []byte) (*Polygon, error) {
	var doc Geometry
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing GeoJSON: %w", err)
	}

	geom := &doc
	if doc.Type == GeometryGeometryCollection {
		if len(doc.Geometries) == 0 || doc.Geometries[0] == nil {
			return nil, fmt.Errorf("geometry collection has no geometries")
		}
		geom = doc.Geometries[0]
	}

	var poly orb.Polygon
	switch geom.Type {
	case GeometryMultiPolygon:
		mp, err := orbMultiPolygon(geom)
		if err != nil {
			return nil, err
		}
		if len(mp) == 0 {
			return nil, fmt.Errorf("multipolygon has no polygons")
		}
		poly = mp[0]
	case GeometryPolygon:
		p, err := orbPolygon(geom)
		if err != nil {
			return nil, err
		}
		poly = p
	default:
		return nil, fmt.Errorf("expected %s or %s, got %q", GeometryMultiPolygon, GeometryPolygon, geom.Type)
	}
	if len(poly) == 0 {
		return nil, fmt.Errorf("polygon has no rings")
	}
	return NewPolygon(name, poly[0])
}

// LoadDistrictPolygon reads a district GeoJSON file.
func LoadDistrictPolygon(name, path string) (*Polygon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, configErrorf("district "+name, err)
	}
	p, err := ParseDistrictPolygon(name, data)
	if err != nil {
		return nil, configErrorf(fmt.Sprintf("district %s (%s)", name, path), err)
	}
	return p, nil
}

// MembershipColumn returns the indicator column name for a polygon. The name
// is lowercased to match the feature flag keys.
func MembershipColumn(name string) string { return "is_in_" + strings.ToLower(name) }

// PolygonMembership writes a 1/0 indicator per polygon, and optionally the
// geodesic distance to a fixed landmark.
type PolygonMembership struct {
	Polygons []*Polygon
	Landmark *NearestFacility
}

// Name implements RowFeature.
func (m *PolygonMembership) Name() string { return "polygon_membership" }

// Columns implements RowFeature.
func (m *PolygonMembership) Columns() []string {
	cols := make([]string, 0, len(m.Polygons)+1)
	for _, p := range m.Polygons {
		cols = append(cols, MembershipColumn(p.Name))
	}
	if m.Landmark != nil {
		cols = append(cols, m.Landmark.DistanceColumn)
	}
	return cols
}

// Derive implements RowFeature.
func (m *PolygonMembership) Derive(r Record) (Record, error) {
	ll, ok := r.LatLon()
	if !ok {
		return nil, errRowSkipped
	}
	out := make(Record, len(m.Polygons)+1)
	for _, p := range m.Polygons {
		if p.Contains(ll) {
			out[MembershipColumn(p.Name)] = 1
		} else {
			out[MembershipColumn(p.Name)] = 0
		}
	}
	if m.Landmark != nil {
		vals, err := m.Landmark.Derive(r)
		if err != nil {
			return nil, err
		}
		for k, v := range vals {
			out[k] = v
		}
	}
	return out, nil
}
