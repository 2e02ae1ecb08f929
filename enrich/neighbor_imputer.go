package enrich

import (
	"fmt"
	"slices"
)

// NeighborMeanImputer fills a missing feature with the mean of that feature
// across the k nearest reference rows in an arbitrary numeric feature space.
type NeighborMeanImputer struct {
	Feature          string
	NeighborFeatures []string
	K                int
	Decimals         int

	index  *SpatialIndex
	values []float64
}

// NewNeighborMeanImputer indexes reference rows by their neighbor-feature
// vectors. Rows missing any neighbor feature are not indexed. The target
// values are captured now, so later fills never feed back into the means.
func NewNeighborMeanImputer(reference *Dataset, feature string, neighborFeatures []string, k, decimals int) (*NeighborMeanImputer, error) {
	if feature == "" || len(neighborFeatures) == 0 {
		return nil, fmt.Errorf("neighbor imputer: feature and neighbor features are required")
	}
	if k <= 0 {
		return nil, fmt.Errorf("neighbor imputer %s: k must be positive, got %d", feature, k)
	}

	var points [][]float64
	var values []float64
	for _, r := range reference.Rows() {
		vec, ok := r.Vector(neighborFeatures)
		if !ok {
			continue
		}
		points = append(points, vec)
		if v, ok := r.Get(feature); ok {
			values = append(values, v)
		} else {
			values = append(values, Missing)
		}
	}

	idx, err := BuildSpatialIndex(points)
	if err != nil {
		return nil, fmt.Errorf("neighbor imputer %s: %w", feature, err)
	}
	return &NeighborMeanImputer{
		Feature:          feature,
		NeighborFeatures: slices.Clone(neighborFeatures),
		K:                k,
		Decimals:         decimals,
		index:            idx,
		values:           values,
	}, nil
}

// Name implements Stage.
func (n *NeighborMeanImputer) Name() string { return "impute_neighbor_mean:" + n.Feature }

// Estimate returns the rounded mean of the feature over the k nearest
// reference rows to vec, ignoring neighbors that lack the feature.
func (n *NeighborMeanImputer) Estimate(vec []float64) (float64, bool, error) {
	neighbors, err := n.index.Query(vec, n.K)
	if err != nil {
		return 0, false, err
	}
	var sum float64
	var count int
	for _, nb := range neighbors {
		v := n.values[nb.ID]
		if IsMissing(v) {
			continue
		}
		sum += v
		count++
	}
	if count == 0 {
		return 0, false, nil
	}
	return roundTo(sum/float64(count), n.Decimals), true, nil
}

// Apply implements Stage. A dataset without the feature column passes through
// unchanged. Querying an empty reference fails with ErrEmptyIndex as soon as
// a row needs filling.
func (n *NeighborMeanImputer) Apply(ds *Dataset) (*Dataset, StageReport, error) {
	out := ds.Clone()
	report := StageReport{Stage: n.Name(), Rows: out.Len()}
	if !out.HasColumn(n.Feature) {
		return out, report, nil
	}

	for i, r := range out.Rows() {
		if r.Has(n.Feature) {
			continue
		}
		vec, ok := r.Vector(n.NeighborFeatures)
		if !ok {
			report.SkippedRows++
			continue
		}
		v, ok, err := n.Estimate(vec)
		if err != nil {
			return nil, report, fmt.Errorf("%s: row %d: %w", n.Name(), i, err)
		}
		if ok {
			r[n.Feature] = v
			report.Filled++
		}
	}
	report.RemainingMissing = out.MissingCount(n.Feature)
	return out, report, nil
}
