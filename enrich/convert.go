package enrich

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/paulmach/orb"
)

// convertDecimals is the precision of converter output coordinates.
const convertDecimals = 6

// ConvertGeoJSON reads a FeatureCollection and returns one representative
// coordinate per feature:
//
//   - Point: the point itself
//   - LineString: the mean of its vertices
//   - Polygon: the mean of the per-ring vertex means
//   - MultiPolygon: the Polygon rule applied to its first polygon
//
// Coordinates are rounded to 6 decimals. Any other geometry type aborts the
// conversion with an *UnsupportedGeometryError.
func ConvertGeoJSON(r io.Reader) ([]LatLon, error) {
	var fc FeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, fmt.Errorf("parsing GeoJSON: %w", err)
	}

	out := make([]LatLon, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			return nil, fmt.Errorf("feature %d: missing geometry", i)
		}
		p, err := representativePoint(f.Geometry)
		if err != nil {
			if ug, ok := err.(*UnsupportedGeometryError); ok {
				ug.Feature = i
				return nil, ug
			}
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		out = append(out, LatLon{
			Lat: roundTo(p.Lat(), convertDecimals),
			Lon: roundTo(p.Lon(), convertDecimals),
		})
	}
	return out, nil
}

// ConvertGeoJSONFile converts the GeoJSON at in and writes a
// latitude,longitude CSV to out.
func ConvertGeoJSONFile(in, out string) (int, error) {
	f, err := os.Open(in)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", in, err)
	}
	defer f.Close()

	coords, err := ConvertGeoJSON(f)
	if err != nil {
		return 0, fmt.Errorf("converting %s: %w", in, err)
	}

	w, err := os.Create(out)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", out, err)
	}
	defer w.Close()

	if err := WriteCoordinates(w, coords); err != nil {
		return 0, fmt.Errorf("writing %s: %w", out, err)
	}
	return len(coords), nil
}

// WriteCoordinates writes coords as a two-column latitude,longitude table.
func WriteCoordinates(w io.Writer, coords []LatLon) error {
	lats := make([]float64, len(coords))
	lons := make([]float64, len(coords))
	for i, c := range coords {
		lats[i] = c.Lat
		lons[i] = c.Lon
	}
	df := dataframe.New(
		series.New(lats, series.Float, ColLatitude),
		series.New(lons, series.Float, ColLongitude),
	)
	return df.WriteCSV(w)
}

func representativePoint(geom *Geometry) (orb.Point, error) {
	switch geom.Type {
	case GeometryPoint:
		return orbPoint(geom)

	case GeometryLineString:
		ls, err := orbLineString(geom)
		if err != nil {
			return orb.Point{}, err
		}
		return vertexMean(ls)

	case GeometryPolygon:
		poly, err := orbPolygon(geom)
		if err != nil {
			return orb.Point{}, err
		}
		return ringMeans(poly)

	case GeometryMultiPolygon:
		mp, err := orbMultiPolygon(geom)
		if err != nil {
			return orb.Point{}, err
		}
		if len(mp) == 0 {
			return orb.Point{}, fmt.Errorf("empty %s", geom.Type)
		}
		return ringMeans(mp[0])

	default:
		return orb.Point{}, &UnsupportedGeometryError{Type: geom.Type}
	}
}

// vertexMean averages every listed vertex, including a repeated closing one.
func vertexMean(points []orb.Point) (orb.Point, error) {
	if len(points) == 0 {
		return orb.Point{}, fmt.Errorf("geometry has no vertices")
	}
	var sx, sy float64
	for _, p := range points {
		sx += p[0]
		sy += p[1]
	}
	n := float64(len(points))
	return orb.Point{sx / n, sy / n}, nil
}

// ringMeans is the mean of per-ring vertex means, an approximate centroid that
// is not area weighted.
func ringMeans(poly orb.Polygon) (orb.Point, error) {
	if len(poly) == 0 {
		return orb.Point{}, fmt.Errorf("polygon has no rings")
	}
	var sx, sy float64
	for _, ring := range poly {
		m, err := vertexMean(ring)
		if err != nil {
			return orb.Point{}, err
		}
		sx += m[0]
		sy += m[1]
	}
	n := float64(len(poly))
	return orb.Point{sx / n, sy / n}, nil
}
