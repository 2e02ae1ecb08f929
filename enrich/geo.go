package enrich

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/shopspring/decimal"
)

// LatLon is a geographic coordinate in decimal degrees.
type LatLon struct {
	Lat float64 `yaml:"lat" json:"latitude"`
	Lon float64 `yaml:"lon" json:"longitude"`
}

// Valid reports whether the coordinate lies in [-90,90] x [-180,180].
func (c LatLon) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Point returns the coordinate as an orb.Point, which is (lon, lat) ordered.
func (c LatLon) Point() orb.Point { return orb.Point{c.Lon, c.Lat} }

// Vector returns the coordinate as a (lat, lon) vector for spatial indexing.
func (c LatLon) Vector() []float64 { return []float64{c.Lat, c.Lon} }

// GeodesicKm returns the great-circle distance between a and b in kilometers.
func GeodesicKm(a, b LatLon) float64 {
	return geo.DistanceHaversine(a.Point(), b.Point()) / 1000
}

// roundTo rounds v to the given number of decimals, ties to even.
func roundTo(v float64, decimals int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).RoundBank(int32(decimals)).Float64()
	return f
}
