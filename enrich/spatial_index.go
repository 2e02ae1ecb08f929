package enrich

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// SpatialIndex answers k-nearest-neighbor queries by Euclidean distance over a
// fixed set of numeric vectors. It is immutable after BuildSpatialIndex and
// safe for concurrent queries.
//
// Neighbors with equal distance are returned in ascending identifier order.
// When more than k points tie for the last slot, which of them is kept is
// decided by the tree layout, which is fixed for a given index.
type SpatialIndex struct {
	tree *kdtree.Tree
	dims int
	size int
}

// Neighbor is one query result: the position of the point in the slice passed
// to BuildSpatialIndex and its Euclidean distance to the query.
type Neighbor struct {
	ID       int
	Distance float64
}

// BuildSpatialIndex builds a k-d tree over points. All points must share the
// same dimensionality and contain no NaN values. An empty slice yields an
// index whose queries fail with ErrEmptyIndex.
func BuildSpatialIndex(points [][]float64) (*SpatialIndex, error) {
	idx := &SpatialIndex{size: len(points)}
	if len(points) == 0 {
		return idx, nil
	}
	idx.dims = len(points[0])
	if idx.dims == 0 {
		return nil, fmt.Errorf("spatial index: zero-dimensional points")
	}

	pts := make(indexedPoints, len(points))
	for i, p := range points {
		if len(p) != idx.dims {
			return nil, fmt.Errorf("spatial index: point %d has %d dimensions, want %d", i, len(p), idx.dims)
		}
		coords := make([]float64, len(p))
		for d, v := range p {
			if math.IsNaN(v) {
				return nil, fmt.Errorf("spatial index: point %d has a missing coordinate", i)
			}
			coords[d] = v
		}
		pts[i] = indexedPoint{id: i, coords: coords}
	}

	// kdtree.New reorders pts in place; ids preserve the caller's positions.
	idx.tree = kdtree.New(pts, false)
	return idx, nil
}

// Len returns the number of indexed points.
func (s *SpatialIndex) Len() int { return s.size }

// Query returns up to k nearest points to q, nearest first.
func (s *SpatialIndex) Query(q []float64, k int) ([]Neighbor, error) {
	if s == nil || s.size == 0 {
		return nil, ErrEmptyIndex
	}
	if len(q) != s.dims {
		return nil, fmt.Errorf("spatial index: query has %d dimensions, want %d", len(q), s.dims)
	}
	if k <= 0 {
		return nil, fmt.Errorf("spatial index: k must be positive, got %d", k)
	}

	keep := kdtree.NewNKeeper(k)
	s.tree.NearestSet(keep, indexedPoint{id: -1, coords: q})

	out := make([]Neighbor, 0, len(keep.Heap))
	for _, c := range keep.Heap {
		if c.Comparable == nil {
			continue
		}
		p := c.Comparable.(indexedPoint)
		out = append(out, Neighbor{ID: p.id, Distance: math.Sqrt(c.Dist)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Nearest returns the single nearest point to q.
func (s *SpatialIndex) Nearest(q []float64) (Neighbor, error) {
	res, err := s.Query(q, 1)
	if err != nil {
		return Neighbor{}, err
	}
	return res[0], nil
}

// indexedPoint is a kdtree.Comparable carrying its input position.
type indexedPoint struct {
	id     int
	coords []float64
}

func (p indexedPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(indexedPoint)
	return p.coords[d] - q.coords[d]
}

func (p indexedPoint) Dims() int { return len(p.coords) }

// Distance returns the squared Euclidean distance, as kdtree expects.
func (p indexedPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(indexedPoint)
	var sum float64
	for d := range p.coords {
		diff := p.coords[d] - q.coords[d]
		sum += diff * diff
	}
	return sum
}

// indexedPoints satisfies kdtree.Interface.
type indexedPoints []indexedPoint

func (p indexedPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p indexedPoints) Len() int                              { return len(p) }
func (p indexedPoints) Pivot(d kdtree.Dim) int                { return indexedPlane{indexedPoints: p, Dim: d}.Pivot() }
func (p indexedPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// indexedPlane sorts indexedPoints along one dimension.
type indexedPlane struct {
	kdtree.Dim
	indexedPoints
}

func (p indexedPlane) Less(i, j int) bool {
	return p.indexedPoints[i].coords[p.Dim] < p.indexedPoints[j].coords[p.Dim]
}
func (p indexedPlane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p indexedPlane) Slice(start, end int) kdtree.SortSlicer {
	p.indexedPoints = p.indexedPoints[start:end]
	return p
}
func (p indexedPlane) Swap(i, j int) {
	p.indexedPoints[i], p.indexedPoints[j] = p.indexedPoints[j], p.indexedPoints[i]
}
