package enrich

import (
	"math"
	"slices"
)

// Standard coordinate column names carried by every listing.
const (
	ColLatitude  = "latitude"
	ColLongitude = "longitude"
)

// Missing is the sentinel stored for an absent value. It is NaN, so it never
// compares equal to zero (or to anything else).
var Missing = math.NaN()

// IsMissing reports whether v is the missing sentinel.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// Record is one listing: feature name to numeric value. A value is missing
// when its key is absent or holds NaN.
type Record map[string]float64

// Get returns the value of name and whether it is present.
func (r Record) Get(name string) (float64, bool) {
	v, ok := r[name]
	if !ok || IsMissing(v) {
		return 0, false
	}
	return v, true
}

// Has reports whether name holds a present value.
func (r Record) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Clone returns a copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// LatLon returns the record's coordinates, or false if either is missing or
// outside the valid latitude/longitude ranges.
func (r Record) LatLon() (LatLon, bool) {
	lat, okLat := r.Get(ColLatitude)
	lon, okLon := r.Get(ColLongitude)
	if !okLat || !okLon {
		return LatLon{}, false
	}
	ll := LatLon{Lat: lat, Lon: lon}
	return ll, ll.Valid()
}

// Vector extracts the named features in order. ok is false when any is missing.
func (r Record) Vector(names []string) ([]float64, bool) {
	vec := make([]float64, len(names))
	for i, n := range names {
		v, ok := r.Get(n)
		if !ok {
			return nil, false
		}
		vec[i] = v
	}
	return vec, true
}

// Dataset is an ordered collection of records. Row index is stable across
// stages; stages never delete rows.
type Dataset struct {
	columns []string
	rows    []Record
}

// NewDataset creates a dataset with the given column order and rows.
// Columns found in rows but not listed are appended in sorted order.
func NewDataset(columns []string, rows []Record) *Dataset {
	ds := &Dataset{
		columns: slices.Clone(columns),
		rows:    rows,
	}
	if ds.rows == nil {
		ds.rows = make([]Record, 0)
	}
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		seen[c] = true
	}
	var extra []string
	for _, r := range ds.rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				extra = append(extra, k)
			}
		}
	}
	slices.Sort(extra)
	ds.columns = append(ds.columns, extra...)
	return ds
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.rows) }

// Columns returns the column names in order.
func (d *Dataset) Columns() []string { return slices.Clone(d.columns) }

// HasColumn reports whether name is a known column.
func (d *Dataset) HasColumn(name string) bool { return slices.Contains(d.columns, name) }

// Row returns row i. The record must not be modified by callers that do not
// own the dataset.
func (d *Dataset) Row(i int) Record { return d.rows[i] }

// Rows returns the underlying rows in order.
func (d *Dataset) Rows() []Record { return d.rows }

// Clone deep-copies the dataset.
func (d *Dataset) Clone() *Dataset {
	rows := make([]Record, len(d.rows))
	for i, r := range d.rows {
		rows[i] = r.Clone()
	}
	return &Dataset{columns: slices.Clone(d.columns), rows: rows}
}

// AddColumn registers name in the column order if it is new.
func (d *Dataset) AddColumn(name string) {
	if !d.HasColumn(name) {
		d.columns = append(d.columns, name)
	}
}

// DropColumn removes name from the column order and from every row.
func (d *Dataset) DropColumn(name string) {
	d.columns = slices.DeleteFunc(d.columns, func(c string) bool { return c == name })
	for _, r := range d.rows {
		delete(r, name)
	}
}

// Column returns the values of name for every row, Missing where absent.
func (d *Dataset) Column(name string) []float64 {
	out := make([]float64, len(d.rows))
	for i, r := range d.rows {
		if v, ok := r.Get(name); ok {
			out[i] = v
		} else {
			out[i] = Missing
		}
	}
	return out
}

// MissingCount returns how many rows lack a value for name.
func (d *Dataset) MissingCount(name string) int {
	n := 0
	for _, r := range d.rows {
		if !r.Has(name) {
			n++
		}
	}
	return n
}

// Concat stacks datasets into a new one, used to build a combined reference
// population (e.g. train and test). Rows are cloned.
func Concat(sets ...*Dataset) *Dataset {
	var columns []string
	var rows []Record
	for _, s := range sets {
		if s == nil {
			continue
		}
		for _, c := range s.columns {
			if !slices.Contains(columns, c) {
				columns = append(columns, c)
			}
		}
		for _, r := range s.rows {
			rows = append(rows, r.Clone())
		}
	}
	return NewDataset(columns, rows)
}
