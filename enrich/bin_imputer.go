package enrich

import (
	"fmt"
	"math"
	"slices"
)

// Imputation defaults.
const (
	DefaultBinCount = 40
	DefaultDecimals = 0
)

// Bin is a closed interval [Lo, Hi] over the binning feature with the mean of
// the target feature among population rows that fall inside it.
type Bin struct {
	Lo      float64 `json:"lo"`
	Hi      float64 `json:"hi"`
	Mean    float64 `json:"mean"`
	Count   int     `json:"count"`
	HasMean bool    `json:"hasMean"`
}

// Contains reports whether x lies in the closed interval.
func (b Bin) Contains(x float64) bool { return x >= b.Lo && x <= b.Hi }

// BinMeanImputer fills a missing feature with the mean of that feature inside
// an equal-width bucket of a correlated reference feature.
//
// Buckets are closed on both ends, so a population row sitting exactly on an
// interior edge contributes to both neighboring buckets. A target row on an
// edge is filled from the lower bucket when that bucket has a mean.
type BinMeanImputer struct {
	Feature    string
	BinFeature string
	Decimals   int
	bins       []Bin
}

// NewBinMeanImputer computes bucket statistics over population. The
// population is only read; statistics are frozen before any fill happens.
func NewBinMeanImputer(population *Dataset, feature, binFeature string, binCount, decimals int) (*BinMeanImputer, error) {
	if feature == "" || binFeature == "" {
		return nil, fmt.Errorf("bin imputer: feature and bin feature are required")
	}
	if binCount <= 0 {
		return nil, fmt.Errorf("bin imputer %s: bin count must be positive, got %d", feature, binCount)
	}
	imp := &BinMeanImputer{
		Feature:    feature,
		BinFeature: binFeature,
		Decimals:   decimals,
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range population.Rows() {
		if x, ok := r.Get(binFeature); ok {
			lo = math.Min(lo, x)
			hi = math.Max(hi, x)
		}
	}
	if math.IsInf(lo, 1) {
		return imp, nil
	}

	width := (hi - lo) / float64(binCount)
	imp.bins = make([]Bin, binCount)
	for i := range imp.bins {
		b := &imp.bins[i]
		b.Lo = lo + float64(i)*width
		b.Hi = lo + float64(i+1)*width
		if i == binCount-1 {
			b.Hi = hi
		}
	}

	sums := make([]float64, binCount)
	for _, r := range population.Rows() {
		x, okX := r.Get(binFeature)
		y, okY := r.Get(feature)
		if !okX || !okY {
			continue
		}
		for i := range imp.bins {
			if imp.bins[i].Contains(x) {
				sums[i] += y
				imp.bins[i].Count++
			}
		}
	}
	for i := range imp.bins {
		if imp.bins[i].Count > 0 {
			imp.bins[i].Mean = sums[i] / float64(imp.bins[i].Count)
			imp.bins[i].HasMean = true
		}
	}
	return imp, nil
}

// Bins returns a copy of the computed buckets in ascending order.
func (b *BinMeanImputer) Bins() []Bin { return slices.Clone(b.bins) }

// Name implements Stage.
func (b *BinMeanImputer) Name() string { return "impute_bin_mean:" + b.Feature }

// Lookup returns the rounded fill value for a binning-feature value.
func (b *BinMeanImputer) Lookup(x float64) (float64, bool) {
	for _, bin := range b.bins {
		if bin.Contains(x) && bin.HasMean {
			return roundTo(bin.Mean, b.Decimals), true
		}
	}
	return 0, false
}

// Apply implements Stage.
func (b *BinMeanImputer) Apply(ds *Dataset) (*Dataset, StageReport, error) {
	out := ds.Clone()
	report := StageReport{Stage: b.Name(), Rows: out.Len()}
	if !out.HasColumn(b.Feature) {
		return out, report, nil
	}
	for _, r := range out.Rows() {
		if r.Has(b.Feature) {
			continue
		}
		x, ok := r.Get(b.BinFeature)
		if !ok {
			continue
		}
		if v, ok := b.Lookup(x); ok {
			r[b.Feature] = v
			report.Filled++
		}
	}
	report.RemainingMissing = out.MissingCount(b.Feature)
	return out, report, nil
}
