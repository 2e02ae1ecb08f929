package enrich

import (
	"math"

	"github.com/paulmach/orb/geo"
)

// BearingColumn is the default output column for Bearing.
const BearingColumn = "bearing"

// Bearing computes the initial compass bearing in [0, 360) degrees from a
// fixed origin to each record's location.
//
// With ConvertDegrees set, coordinates are converted to radians before the
// trigonometry (the geographic bearing). Without it the degree values are fed
// to sin/cos unchanged, reproducing the legacy feature values models may have
// been trained on.
type Bearing struct {
	Origin         LatLon
	Column         string
	ConvertDegrees bool
}

// NewBearing returns a Bearing writing to the default column with degree
// conversion enabled.
func NewBearing(origin LatLon) *Bearing {
	return &Bearing{Origin: origin, Column: BearingColumn, ConvertDegrees: true}
}

// Name implements RowFeature.
func (b *Bearing) Name() string { return "bearing:" + b.Column }

// Columns implements RowFeature.
func (b *Bearing) Columns() []string { return []string{b.Column} }

// Derive implements RowFeature.
func (b *Bearing) Derive(r Record) (Record, error) {
	ll, ok := r.LatLon()
	if !ok {
		return nil, errRowSkipped
	}
	return Record{b.Column: b.From(ll)}, nil
}

// From returns the bearing from the origin to to.
func (b *Bearing) From(to LatLon) float64 {
	var deg float64
	if b.ConvertDegrees {
		deg = geo.Bearing(b.Origin.Point(), to.Point())
	} else {
		deg = rawBearing(b.Origin, to)
	}
	return normalizeDegrees(deg)
}

// rawBearing evaluates the atan2 bearing formula on unconverted degree values.
func rawBearing(from, to LatLon) float64 {
	dLon := to.Lon - from.Lon
	y := math.Sin(dLon) * math.Cos(to.Lat)
	x := math.Cos(from.Lat)*math.Sin(to.Lat) - math.Sin(from.Lat)*math.Cos(to.Lat)*math.Cos(dLon)
	return math.Atan2(y, x) * 180 / math.Pi
}

func normalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg+360, 360)
	if deg >= 360 {
		deg = 0
	}
	return deg
}
