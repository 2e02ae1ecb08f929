package enrich

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks missing or malformed reference inputs and config.
	// It is fatal for a run.
	ErrConfiguration = errors.New("configuration error")

	// ErrEmptyIndex is returned when querying a SpatialIndex built over zero points.
	ErrEmptyIndex = errors.New("spatial index is empty")

	// ErrUnsupportedGeometryType is returned by the GeoJSON converter for
	// geometry types it has no representative-coordinate rule for.
	ErrUnsupportedGeometryType = errors.New("unsupported geometry type")

	// errRowSkipped marks a per-record failure that leaves the row's outputs missing.
	errRowSkipped = errors.New("row skipped")
)

// UnsupportedGeometryError names the geometry type that aborted a conversion.
type UnsupportedGeometryError struct {
	Type    GeometryType
	Feature int
}

func (e *UnsupportedGeometryError) Error() string {
	return fmt.Sprintf("feature %d: %s: %q", e.Feature, ErrUnsupportedGeometryType, e.Type)
}

func (e *UnsupportedGeometryError) Unwrap() error { return ErrUnsupportedGeometryType }

// configErrorf wraps err as a configuration error for the named input.
func configErrorf(input string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrConfiguration, input, err)
}
