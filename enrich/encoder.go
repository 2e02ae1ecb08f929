package enrich

import (
	"fmt"
	"slices"
)

// CategoricalEncoder expands a coded column into one 0/1 column per label.
type CategoricalEncoder struct {
	Source       string
	Categories   map[float64]string
	RemoveSource bool
}

// Name implements Stage.
func (e *CategoricalEncoder) Name() string { return "one_hot:" + e.Source }

// Apply implements Stage. A missing source value yields 0 in every column.
func (e *CategoricalEncoder) Apply(ds *Dataset) (*Dataset, StageReport, error) {
	codes := make([]float64, 0, len(e.Categories))
	for code, label := range e.Categories {
		if label == "" {
			return nil, StageReport{}, fmt.Errorf("%s: empty label for code %g", e.Name(), code)
		}
		codes = append(codes, code)
	}
	slices.Sort(codes)

	out := ds.Clone()
	for _, code := range codes {
		out.AddColumn(e.Categories[code])
	}
	for _, r := range out.Rows() {
		v, ok := r.Get(e.Source)
		for _, code := range codes {
			if ok && v == code {
				r[e.Categories[code]] = 1
			} else {
				r[e.Categories[code]] = 0
			}
		}
	}
	if e.RemoveSource {
		out.DropColumn(e.Source)
	}
	return out, StageReport{Stage: e.Name(), Rows: out.Len()}, nil
}
