package enrich

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
)

// GeometryType represents the GeoJSON geometry type
type GeometryType string

const (
	GeometryPoint              GeometryType = "Point"
	GeometryLineString         GeometryType = "LineString"
	GeometryPolygon            GeometryType = "Polygon"
	GeometryMultiPoint         GeometryType = "MultiPoint"
	GeometryMultiLineString    GeometryType = "MultiLineString"
	GeometryMultiPolygon       GeometryType = "MultiPolygon"
	GeometryGeometryCollection GeometryType = "GeometryCollection"
)

// Geometry represents a GeoJSON geometry object. Coordinates stay raw until a
// caller decodes them for a known type, so unknown types can be reported by
// name instead of failing the whole document.
type Geometry struct {
	Type        GeometryType    `json:"type"`
	Coordinates json.RawMessage `json:"coordinates,omitempty"`
	Geometries  []*Geometry     `json:"geometries,omitempty"`
}

// Feature represents a GeoJSON feature with geometry and properties
type Feature struct {
	Type       string                 `json:"type"`
	Geometry   *Geometry              `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
	ID         interface{}            `json:"id,omitempty"`
}

// FeatureCollection represents a GeoJSON FeatureCollection
type FeatureCollection struct {
	Type     string     `json:"type"`
	Features []*Feature `json:"features"`
}

// orbPoint decodes a Point geometry. Altitude, if present, is ignored.
func orbPoint(geom *Geometry) (orb.Point, error) {
	var c [2]float64
	if err := json.Unmarshal(geom.Coordinates, &c); err != nil {
		return orb.Point{}, fmt.Errorf("decoding %s coordinates: %w", geom.Type, err)
	}
	return orb.Point{c[0], c[1]}, nil
}

// orbLineString decodes a LineString geometry.
func orbLineString(geom *Geometry) (orb.LineString, error) {
	var coords [][2]float64
	if err := json.Unmarshal(geom.Coordinates, &coords); err != nil {
		return nil, fmt.Errorf("decoding %s coordinates: %w", geom.Type, err)
	}
	ls := make(orb.LineString, len(coords))
	for i, c := range coords {
		ls[i] = orb.Point{c[0], c[1]}
	}
	return ls, nil
}

// orbPolygon decodes a Polygon geometry.
func orbPolygon(geom *Geometry) (orb.Polygon, error) {
	var rings [][][2]float64
	if err := json.Unmarshal(geom.Coordinates, &rings); err != nil {
		return nil, fmt.Errorf("decoding %s coordinates: %w", geom.Type, err)
	}
	return toOrbPolygon(rings), nil
}

// orbMultiPolygon decodes a MultiPolygon geometry.
func orbMultiPolygon(geom *Geometry) (orb.MultiPolygon, error) {
	var polys [][][][2]float64
	if err := json.Unmarshal(geom.Coordinates, &polys); err != nil {
		return nil, fmt.Errorf("decoding %s coordinates: %w", geom.Type, err)
	}
	mp := make(orb.MultiPolygon, len(polys))
	for i, rings := range polys {
		mp[i] = toOrbPolygon(rings)
	}
	return mp, nil
}

func toOrbPolygon(rings [][][2]float64) orb.Polygon {
	poly := make(orb.Polygon, len(rings))
	for i, ring := range rings {
		r := make(orb.Ring, len(ring))
		for j, c := range ring {
			r[j] = orb.Point{c[0], c[1]}
		}
		poly[i] = r
	}
	return poly
}
